package recipe

import (
	"context"
	"fmt"
	"net/http"

	"nutriguard/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

// ImageFinder 圖片搜尋能力
type ImageFinder interface {
	// SearchImage 回傳第一個圖片連結，沒有結果時回傳空字串
	SearchImage(ctx context.Context, query string) (string, error)
}

// ImageSearchClient Google Custom Search 圖片搜尋
type ImageSearchClient struct {
	client   *resty.Client
	baseURL  string
	apiKey   string
	engineID string
}

// NewImageSearchClient 創建客戶端；缺少金鑰或搜尋引擎 ID 時回傳 nil
func NewImageSearchClient(cfg config.ImageSearchConfig) *ImageSearchClient {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil
	}
	return &ImageSearchClient{
		client:   resty.New().SetTimeout(cfg.Timeout),
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
	}
}

// SearchImage 以關鍵字搜尋圖片
func (c *ImageSearchClient) SearchImage(ctx context.Context, query string) (string, error) {
	var result struct {
		Items []struct {
			Link string `json:"link"`
		} `json:"items"`
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":          query,
			"key":        c.apiKey,
			"cx":         c.engineID,
			"searchType": "image",
			"num":        "1",
		}).
		SetResult(&result).
		Get(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("image search failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("image search returned status %d", resp.StatusCode())
	}
	if len(result.Items) == 0 {
		return "", nil
	}
	return result.Items[0].Link, nil
}
