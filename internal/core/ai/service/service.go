package service

import (
	"context"
	"errors"
	"time"

	"nutriguard/internal/core/ai/cache"
	"nutriguard/internal/core/ai/provider"
	"nutriguard/internal/pkg/common"

	"go.uber.org/zap"
)

// Task 一次模型呼叫的輸入
type Task struct {
	Model        string
	Prompt       string
	ImageDataURI string
}

// Service AI 服務
type Service struct {
	provider     provider.Provider
	cacheManager *cache.CacheManager
	visionModel  string
	chatModel    string
	timeout      time.Duration
}

// NewService 創建 AI 服務；cacheManager 可為 nil
func NewService(p provider.Provider, cacheManager *cache.CacheManager, visionModel, chatModel string, timeout time.Duration) *Service {
	return &Service{
		provider:     p,
		cacheManager: cacheManager,
		visionModel:  visionModel,
		chatModel:    chatModel,
		timeout:      timeout,
	}
}

// VisionModel 回傳影像辨識使用的模型
func (s *Service) VisionModel() string {
	return s.visionModel
}

// ProcessRequest 送出提示詞（可附圖片）並回傳模型文字內容
func (s *Service) ProcessRequest(ctx context.Context, task Task) (string, error) {
	if task.Model == "" {
		task.Model = s.visionModel
	}

	key := cache.Key(task.Model, task.Prompt, task.ImageDataURI)
	if val, ok := s.cacheManager.Get(key); ok {
		return val, nil
	}

	msg := provider.UserText(task.Prompt)
	if task.ImageDataURI != "" {
		msg = provider.UserWithImage(task.Prompt, task.ImageDataURI)
	}

	content, err := s.complete(ctx, task.Model, msg)
	if err != nil {
		return "", err
	}

	s.cacheManager.Set(key, content)
	return content, nil
}

// Chat 自由對話，不使用緩存
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	return s.complete(ctx, s.chatModel, provider.UserText(message))
}

// complete 執行單次模型請求並轉換錯誤分類
func (s *Service) complete(ctx context.Context, model string, msg provider.Message) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.provider.Complete(ctx, &provider.ChatRequest{
		Model:    model,
		Messages: []provider.Message{msg},
	})
	if err != nil {
		return "", upstreamError(err)
	}

	content, err := resp.Content()
	if err != nil {
		return "", upstreamError(err)
	}

	common.LogDebug("模型回應", zap.String("model", model), zap.Int("length", len(content)))
	return content, nil
}

// upstreamError 將模型錯誤包裝為 502
func upstreamError(err error) error {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		return common.Upstream("model returned an error", apiErr)
	}
	if errors.Is(err, provider.ErrEmptyCompletion) {
		return common.Upstream("model returned no choices", err)
	}
	return common.Upstream("model request failed", err)
}
