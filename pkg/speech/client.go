package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/z-wentao/bakbak/pkg/models"
)

// ErrResultFetch 任务本身已完成，但获取/解析结果产物失败
// 与任务状态查询错误区分开：这种情况不该把任务标成 FAILED
var ErrResultFetch = errors.New("获取转写结果失败")

// JobStatus 外部任务状态（已映射为本地状态机的词汇）
type JobStatus struct {
	Status       models.TranscriptionStatus
	ErrorMessage string
}

// Service 外部语音转写任务服务
// 接口抽象方便用假实现测试生命周期逻辑
type Service interface {
	// StartJob 发起转写任务，返回外部任务 ID
	StartJob(ctx context.Context, audioPath, languageCode string) (string, error)

	// GetJobStatus 查询任务状态
	GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error)

	// GetJobResult 获取已完成任务的转写文本
	GetJobResult(ctx context.Context, jobID string) (string, error)
}

// Client 语音转写服务 HTTP 客户端
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient 创建转写服务客户端
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// startJobRequest 发起任务的请求
type startJobRequest struct {
	AudioURL     string `json:"audio_url"`
	LanguageCode string `json:"language_code"`
}

// startJobResponse 发起任务的响应
type startJobResponse struct {
	JobID string `json:"job_id"`
}

// jobStatusResponse 任务状态响应
type jobStatusResponse struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// jobResultResponse 任务结果产物
type jobResultResponse struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// StartJob 发起转写任务
func (c *Client) StartJob(ctx context.Context, audioPath, languageCode string) (string, error) {
	url := fmt.Sprintf("%s/v1/jobs", c.baseURL)

	reqBody := startJobRequest{
		AudioURL:     audioPath,
		LanguageCode: languageCode,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("转写服务返回错误: %d - %s", resp.StatusCode, string(body))
	}

	var result startJobResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}

	if result.JobID == "" {
		return "", fmt.Errorf("转写服务未返回任务 ID")
	}

	return result.JobID, nil
}

// GetJobStatus 查询任务状态并映射到本地状态机
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	url := fmt.Sprintf("%s/v1/jobs/%s", c.baseURL, jobID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("转写服务返回错误: %d - %s", resp.StatusCode, string(body))
	}

	var result jobStatusResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	return &JobStatus{
		Status:       MapJobStatus(result.Status),
		ErrorMessage: result.FailureReason,
	}, nil
}

// GetJobResult 获取已完成任务的结果产物并解析为纯文本
// 产物缺失或无法解析时返回 ErrResultFetch（任务确实完成了，只是结果拿不到）
func (c *Client) GetJobResult(ctx context.Context, jobID string) (string, error) {
	url := fmt.Sprintf("%s/v1/jobs/%s/result", c.baseURL, jobID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: 状态码 %d - %s", ErrResultFetch, resp.StatusCode, string(body))
	}

	return ParseTranscript(body)
}

// MapJobStatus 把外部服务的状态词汇映射到本地四态状态机
// 不认识的状态一律当作"仍在运行"，避免把未来新增的状态误判为失败
func MapJobStatus(external string) models.TranscriptionStatus {
	switch strings.ToUpper(external) {
	case "COMPLETED":
		return models.TranscriptionCompleted
	case "FAILED":
		return models.TranscriptionFailed
	default:
		// QUEUED / RUNNING / IN_PROGRESS / 未知状态
		return models.TranscriptionInProgress
	}
}

// ParseTranscript 解析结果产物 JSON，拼出纯转写文本
func ParseTranscript(artifact []byte) (string, error) {
	var result jobResultResponse
	if err := json.Unmarshal(artifact, &result); err != nil {
		return "", fmt.Errorf("%w: 解析结果产物失败: %v", ErrResultFetch, err)
	}

	if len(result.Results.Transcripts) == 0 {
		return "", fmt.Errorf("%w: 结果产物中没有转写文本", ErrResultFetch)
	}

	parts := make([]string, 0, len(result.Results.Transcripts))
	for _, t := range result.Results.Transcripts {
		if t.Transcript != "" {
			parts = append(parts, t.Transcript)
		}
	}

	text := strings.Join(parts, " ")
	if text == "" {
		return "", fmt.Errorf("%w: 结果产物中的转写文本为空", ErrResultFetch)
	}

	return text, nil
}
