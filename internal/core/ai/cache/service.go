package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nutriguard/internal/infrastructure/config"
	"nutriguard/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// Service Redis 緩存服務，用於外部查詢結果
type Service struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewService 創建緩存服務；未設定位址時回傳停用的服務
func NewService(ctx context.Context, cfg config.RedisConfig, prefix string, ttl time.Duration) (*Service, error) {
	if cfg.Addr == "" {
		return &Service{prefix: prefix, ttl: ttl}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewServiceWithClient(client, prefix, ttl), nil
}

// NewServiceWithClient 以既有的 Redis 客戶端建立緩存服務
func NewServiceWithClient(client *redis.Client, prefix string, ttl time.Duration) *Service {
	return &Service{client: client, prefix: prefix, ttl: ttl}
}

// Enabled 是否已連接 Redis
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil
}

// GetJSON 讀取並解析緩存，未命中回傳 common.ErrCacheMiss
func (s *Service) GetJSON(ctx context.Context, key string, dest interface{}) error {
	if !s.Enabled() {
		return common.ErrCacheDisabled
	}

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.LogCacheMiss(s.prefix)
			return common.ErrCacheMiss
		}
		return fmt.Errorf("failed to get cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache: %w", err)
	}

	common.LogCacheHit(s.prefix)
	return nil
}

// SetJSON 序列化並寫入緩存
func (s *Service) SetJSON(ctx context.Context, key string, value interface{}) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Ping 檢查連線狀態
func (s *Service) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// Close 關閉 Redis 連線
func (s *Service) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}
