package translate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Client AI 翻译 / 转拉丁文字客户端
type Client struct {
	client *openai.Client
}

// NewClient 创建翻译客户端
func NewClient(apiKey string) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
	}
}

// TranslateText 把文本从源语言翻译到目标语言
func (c *Client) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	prompt := fmt.Sprintf(`请把以下 %s 文本翻译成 %s。只输出 JSON，格式：{"text": "译文"}，不要有任何其他文字。

文本内容：
%s`, sourceLang, targetLang, truncate(text))

	return c.complete(ctx, "你是一个专业的翻译助手。忠实翻译用户给出的文本，只返回 JSON 格式的数据。", prompt)
}

// Transliterate 把非拉丁文字的文本转写为拉丁字母（音译，不是翻译）
// 例如日语 "こんにちは" → "konnichiwa"
func (c *Client) Transliterate(ctx context.Context, text, sourceScript string) (string, error) {
	prompt := fmt.Sprintf(`请把以下 %s 文字的文本音译为拉丁字母（罗马化），不要翻译意思。只输出 JSON，格式：{"text": "罗马化结果"}，不要有任何其他文字。

文本内容：
%s`, sourceScript, truncate(text))

	return c.complete(ctx, "你是一个专业的文字罗马化助手。把文本按读音转写为拉丁字母，只返回 JSON 格式的数据。", prompt)
}

// complete 调用 Chat Completion 并解析 JSON 结果
func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.3, // 降低温度，使输出更稳定
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})

	if err != nil {
		return "", fmt.Errorf("调用 OpenAI API 失败: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API 未返回结果")
	}

	// 解析响应
	content := resp.Choices[0].Message.Content
	var result struct {
		Text string `json:"text"`
	}

	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return "", fmt.Errorf("解析 AI 响应失败: %w, 原始响应: %s", err, content)
	}

	if result.Text == "" {
		return "", fmt.Errorf("AI 返回了空结果")
	}

	return result.Text, nil
}

// truncate 限制文本长度（避免超出 token 限制）
func truncate(text string) string {
	const maxLength = 5000
	if len(text) > maxLength {
		return text[:maxLength] + "..."
	}
	return text
}
