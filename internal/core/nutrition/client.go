package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"nutriguard/internal/core/ai/cache"
	"nutriguard/internal/infrastructure/config"
	"nutriguard/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client 營養查詢 API 客戶端
type Client struct {
	client *resty.Client
	cache  *cache.Service
}

// NewClient 創建營養查詢客戶端；未設定 API Key 時回傳 nil
func NewClient(cfg config.NutritionConfig, cacheSvc *cache.Service) *Client {
	if cfg.APIKey == "" {
		return nil
	}

	return &Client{
		client: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(cfg.Timeout).
			SetHeader("X-Api-Key", cfg.APIKey),
		cache: cacheSvc,
	}
}

// Lookup 查詢單一品項；非 200 回應回傳錯誤，呼叫者視為零筆資料
func (c *Client) Lookup(ctx context.Context, query string) ([]Record, error) {
	key := strings.ToLower(strings.TrimSpace(query))

	var cached []Record
	if err := c.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, common.ErrCacheMiss) && !errors.Is(err, common.ErrCacheDisabled) {
		common.LogWarn("讀取營養快取失敗", zap.Error(err))
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		Get("/nutrition")
	if err != nil {
		return nil, fmt.Errorf("nutrition request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("nutrition API returned status %d", resp.StatusCode())
	}

	records, err := decodeRecords(resp.Body())
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].QueriedItem = query
	}

	if err := c.cache.SetJSON(ctx, key, records); err != nil {
		common.LogWarn("寫入營養快取失敗", zap.Error(err))
	}
	return records, nil
}

// decodeRecords 接受陣列或 {"items": [...]} 兩種格式
func decodeRecords(body []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Items []Record `json:"items"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse nutrition response: %w", err)
	}
	return wrapped.Items, nil
}

// Lookuper 營養查詢能力
type Lookuper interface {
	Lookup(ctx context.Context, query string) ([]Record, error)
}

// LookupAll 依序查詢每個品項，失敗的品項記錄後略過
func LookupAll(ctx context.Context, l Lookuper, names []string) []Record {
	records := make([]Record, 0, len(names))
	for _, name := range names {
		found, err := l.Lookup(ctx, name)
		if err != nil {
			common.LogUpstreamFailure("nutrition_lookup", err, zap.String("item", name))
			continue
		}
		for _, r := range found {
			if r.QueriedItem == "" {
				r.QueriedItem = name
			}
			records = append(records, r)
		}
	}
	return records
}
