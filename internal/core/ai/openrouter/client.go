package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nutriguard/internal/core/ai/provider"
	"nutriguard/internal/infrastructure/config"
	"nutriguard/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const maxLoggedBody = 512

// Client OpenRouter API 客戶端
type Client struct {
	client    *resty.Client
	maxTokens int
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg config.OpenRouterConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", cfg.Referer).
		SetHeader("X-Title", cfg.Title)

	return &Client{
		client:    client,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete 送出 chat completion 請求
func (c *Client) Complete(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	if req.MaxTokens == 0 {
		req.MaxTokens = c.maxTokens
	}

	start := time.Now()
	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		common.LogAICall(req.Model, time.Since(start), err)
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	var result provider.ChatResponse
	parseErr := json.Unmarshal(resp.Body(), &result)

	// body 內的 error 物件優先於 HTTP 狀態碼
	if parseErr == nil && result.Error != nil {
		common.LogAICall(req.Model, time.Since(start), result.Error)
		return nil, result.Error
	}

	if resp.StatusCode() != http.StatusOK {
		err := fmt.Errorf("OpenRouter API returned status %d: %s", resp.StatusCode(), sanitizeBody(resp.Body()))
		common.LogAICall(req.Model, time.Since(start), err)
		return nil, err
	}

	if parseErr != nil {
		common.LogError("Failed to parse AI service response",
			zap.Error(parseErr),
			zap.String("model", req.Model),
			zap.String("response", sanitizeBody(resp.Body())),
		)
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", parseErr)
	}

	common.LogAICall(req.Model, time.Since(start), nil)
	return &result, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

// sanitizeBody 清理響應內容，移除所有圖片數據並截斷
func sanitizeBody(body []byte) string {
	s := string(body)
	if strings.Contains(s, "data:image/") || strings.Contains(s, "base64") {
		return "[IMAGE_DATA_REMOVED]"
	}
	if len(s) > maxLoggedBody {
		return s[:maxLoggedBody] + "..."
	}
	return s
}
