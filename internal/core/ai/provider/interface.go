package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyCompletion 模型回傳沒有任何 choice
var ErrEmptyCompletion = errors.New("empty completion")

// ContentPart 多模態訊息片段（text 或 image_url）
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL 圖片片段，URL 可為 data URI
type ImageURL struct {
	URL string `json:"url"`
}

// Message 表示與 AI 模型的對話消息；Parts 非空時以陣列形式送出
type Message struct {
	Role  string
	Text  string
	Parts []ContentPart
}

// MarshalJSON 依內容輸出字串或片段陣列
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Parts) > 0 {
		return json.Marshal(struct {
			Role    string        `json:"role"`
			Content []ContentPart `json:"content"`
		}{m.Role, m.Parts})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{m.Role, m.Text})
}

// UserText 建立純文字 user 訊息
func UserText(text string) Message {
	return Message{Role: "user", Text: text}
}

// UserWithImage 建立帶圖片的 user 訊息
func UserWithImage(text, dataURI string) Message {
	return Message{
		Role: "user",
		Parts: []ContentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &ImageURL{URL: dataURI}},
		},
	}
}

// ChatRequest 表示發送到 AI 提供者的請求
type ChatRequest struct {
	Model     string            `json:"model"`
	Messages  []Message         `json:"messages"`
	MaxTokens int               `json:"max_tokens,omitempty"`
	Headers   map[string]string `json:"-"`
}

// APIError 模型服務在回應內容中回報的錯誤
type APIError struct {
	Message string          `json:"message"`
	Type    string          `json:"type,omitempty"`
	Code    json.RawMessage `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Code) > 0 {
		return fmt.Sprintf("model error %s: %s", string(e.Code), e.Message)
	}
	return "model error: " + e.Message
}

// Choice 候選回覆
type Choice struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

// ChatResponse 表示從 AI 提供者收到的響應
type ChatResponse struct {
	ID      string    `json:"id"`
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Content 回傳第一個 choice 的內容；body 帶 error 時回傳 *APIError
func (r *ChatResponse) Content() (string, error) {
	if r.Error != nil {
		return "", r.Error
	}
	if len(r.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return r.Choices[0].Message.Content, nil
}

// Provider 定義 AI 提供者介面
type Provider interface {
	// Complete 送出一次 chat completion，不重試
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Close 關閉提供者連接
	Close() error
}
