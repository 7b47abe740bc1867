package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/z-wentao/bakbak/pkg/models"
)

func TestMapJobStatus(t *testing.T) {
	cases := []struct {
		external string
		want     models.TranscriptionStatus
	}{
		{"COMPLETED", models.TranscriptionCompleted},
		{"completed", models.TranscriptionCompleted},
		{"FAILED", models.TranscriptionFailed},
		{"QUEUED", models.TranscriptionInProgress},
		{"RUNNING", models.TranscriptionInProgress},
		{"IN_PROGRESS", models.TranscriptionInProgress},
		// 未来新增的未知状态：当作仍在运行，不误判为失败
		{"THROTTLED", models.TranscriptionInProgress},
		{"", models.TranscriptionInProgress},
	}

	for _, tc := range cases {
		if got := MapJobStatus(tc.external); got != tc.want {
			t.Errorf("MapJobStatus(%q) = %s, 期望 %s", tc.external, got, tc.want)
		}
	}
}

func TestParseTranscript(t *testing.T) {
	artifact := []byte(`{"results":{"transcripts":[{"transcript":"こんにちは"},{"transcript":"世界"}]}}`)

	text, err := ParseTranscript(artifact)
	if err != nil {
		t.Fatalf("解析应该成功: %v", err)
	}
	if text != "こんにちは 世界" {
		t.Errorf("文本不对: %q", text)
	}
}

func TestParseTranscriptBadArtifact(t *testing.T) {
	cases := []struct {
		name     string
		artifact string
	}{
		{"非法 JSON", `not-json`},
		{"没有转写文本", `{"results":{"transcripts":[]}}`},
		{"文本为空", `{"results":{"transcripts":[{"transcript":""}]}}`},
	}

	for _, tc := range cases {
		_, err := ParseTranscript([]byte(tc.artifact))
		if !errors.Is(err, ErrResultFetch) {
			t.Errorf("%s: 应返回 ErrResultFetch, 实际 %v", tc.name, err)
		}
	}
}

func TestClientStartJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/v1/jobs" {
			t.Errorf("意外的请求: %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("认证头不对: %q", auth)
		}

		var req struct {
			AudioURL     string `json:"audio_url"`
			LanguageCode string `json:"language_code"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.AudioURL != "uploads/r1.mp3" || req.LanguageCode != "ja" {
			t.Errorf("请求体不对: %+v", req)
		}

		json.NewEncoder(w).Encode(map[string]string{"job_id": "j1"})
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key")
	jobID, err := c.StartJob(context.Background(), "uploads/r1.mp3", "ja")
	if err != nil {
		t.Fatalf("StartJob 应该成功: %v", err)
	}
	if jobID != "j1" {
		t.Errorf("任务 ID 不对: %q", jobID)
	}
}

func TestClientGetJobStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/j1" {
			t.Errorf("意外的路径: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"job_id":         "j1",
			"status":         "FAILED",
			"failure_reason": "音频无法识别",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key")
	st, err := c.GetJobStatus(context.Background(), "j1")
	if err != nil {
		t.Fatalf("GetJobStatus 应该成功: %v", err)
	}
	if st.Status != models.TranscriptionFailed || st.ErrorMessage != "音频无法识别" {
		t.Errorf("状态不对: %+v", st)
	}
}

func TestClientGetJobResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/j1/result" {
			t.Errorf("意外的路径: %s", r.URL.Path)
		}
		w.Write([]byte(`{"results":{"transcripts":[{"transcript":"こんにちは"}]}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key")
	text, err := c.GetJobResult(context.Background(), "j1")
	if err != nil {
		t.Fatalf("GetJobResult 应该成功: %v", err)
	}
	if text != "こんにちは" {
		t.Errorf("文本不对: %q", text)
	}
}

func TestClientGetJobResultMissingArtifact(t *testing.T) {
	// 产物缺失（404）：返回 ErrResultFetch，和状态查询错误区分开
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key")
	_, err := c.GetJobResult(context.Background(), "j1")
	if !errors.Is(err, ErrResultFetch) {
		t.Errorf("应返回 ErrResultFetch, 实际 %v", err)
	}
}
