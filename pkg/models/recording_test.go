package models

import "testing"

func TestTranscriptionStatusCanStart(t *testing.T) {
	cases := []struct {
		status TranscriptionStatus
		want   bool
	}{
		{TranscriptionNotStarted, true},
		{TranscriptionInProgress, false}, // 进行中拒绝重复 start
		{TranscriptionCompleted, true},   // 允许重新转写
		{TranscriptionFailed, true},      // 允许失败重试
	}

	for _, tc := range cases {
		if got := tc.status.CanStart(); got != tc.want {
			t.Errorf("%s.CanStart() = %v, 期望 %v", tc.status, got, tc.want)
		}
	}
}

func TestTranscriptionStatusIsTerminal(t *testing.T) {
	if TranscriptionNotStarted.IsTerminal() || TranscriptionInProgress.IsTerminal() {
		t.Error("NOT_STARTED / IN_PROGRESS 不是终态")
	}
	if !TranscriptionCompleted.IsTerminal() || !TranscriptionFailed.IsTerminal() {
		t.Error("COMPLETED / FAILED 应是终态")
	}
}

func TestTranscriptionStatusValid(t *testing.T) {
	for _, s := range []TranscriptionStatus{
		TranscriptionNotStarted, TranscriptionInProgress, TranscriptionCompleted, TranscriptionFailed,
	} {
		if !s.Valid() {
			t.Errorf("%s 应是合法状态", s)
		}
	}
	if TranscriptionStatus("RUNNING").Valid() {
		t.Error("RUNNING 不是合法状态")
	}
}

func TestTranslationFor(t *testing.T) {
	tr := Transcription{}

	if tr.TranslationFor("en") != nil {
		t.Error("不存在的翻译应返回 nil")
	}

	tr.SetTranslation(Translation{TargetLanguage: "en", Text: "Hello", Status: TranscriptionCompleted})
	tr.SetTranslation(Translation{TargetLanguage: "fr", Text: "Bonjour", Status: TranscriptionCompleted})

	got := tr.TranslationFor("en")
	if got == nil || got.Text != "Hello" {
		t.Fatalf("应找到英语翻译: %+v", got)
	}

	// 同一目标语言只保留一条
	tr.SetTranslation(Translation{TargetLanguage: "en", Text: "Hi", Status: TranscriptionCompleted})
	if len(tr.Translations) != 2 {
		t.Errorf("同语言覆盖后应只有 2 条, 实际 %d", len(tr.Translations))
	}
	if tr.TranslationFor("en").Text != "Hi" {
		t.Errorf("应被覆盖为新翻译: %q", tr.TranslationFor("en").Text)
	}
}
