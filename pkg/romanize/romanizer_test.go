package romanize

import (
	"context"
	"errors"
	"testing"
)

type stubTransliterator struct {
	calls  int
	output string
	err    error
}

func (s *stubTransliterator) Transliterate(ctx context.Context, text, sourceScript string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func TestNeedsRomanization(t *testing.T) {
	cases := []struct {
		lang string
		want bool
	}{
		{"ja", true},
		{"zh", true},
		{"zh-CN", true}, // 带地区后缀
		{"ko", true},
		{"ru", true},
		{"hi", true},
		{"en", false},
		{"en-US", false},
		{"fr", false},
		{"de", false},
		{"vi", false}, // 越南语用拉丁字母
		{"", false},
	}

	for _, tc := range cases {
		if got := NeedsRomanization(tc.lang); got != tc.want {
			t.Errorf("NeedsRomanization(%q) = %v, 期望 %v", tc.lang, got, tc.want)
		}
	}
}

func TestRomanizeLatinPassthrough(t *testing.T) {
	// 拉丁文字语言：原文透传（保持大小写），不调用音译服务
	stub := &stubTransliterator{output: "unused"}
	r := NewRomanizer(stub)

	got := r.Romanize(context.Background(), "Hello World", "en", "")
	if got != "Hello World" {
		t.Errorf("应原文透传, 实际 %q", got)
	}
	if stub.calls != 0 {
		t.Errorf("不应调用音译服务, 实际 %d 次", stub.calls)
	}
}

func TestRomanizeNonLatin(t *testing.T) {
	// 非拉丁文字：调用音译并转小写
	stub := &stubTransliterator{output: "Konnichiwa"}
	r := NewRomanizer(stub)

	got := r.Romanize(context.Background(), "こんにちは", "ja", "")
	if got != "konnichiwa" {
		t.Errorf("应返回小写罗马化结果, 实际 %q", got)
	}
	if stub.calls != 1 {
		t.Errorf("应调用音译服务 1 次, 实际 %d 次", stub.calls)
	}
}

func TestRomanizeExistingIsReused(t *testing.T) {
	// 已有罗马化结果：直接复用，不重新计算
	stub := &stubTransliterator{output: "new-value"}
	r := NewRomanizer(stub)

	got := r.Romanize(context.Background(), "こんにちは", "ja", "konnichiwa")
	if got != "konnichiwa" {
		t.Errorf("应复用已有结果, 实际 %q", got)
	}
	if stub.calls != 0 {
		t.Errorf("不应重新音译, 实际 %d 次", stub.calls)
	}
}

func TestRomanizeFallbackOnError(t *testing.T) {
	// 音译失败：回退原文，不报错（罗马化是增强，不是转写完成的必要条件）
	stub := &stubTransliterator{err: errors.New("服务不可用")}
	r := NewRomanizer(stub)

	got := r.Romanize(context.Background(), "こんにちは", "ja", "")
	if got != "こんにちは" {
		t.Errorf("失败应回退原文, 实际 %q", got)
	}
}
