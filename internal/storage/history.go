package storage

import (
	"context"
	"fmt"

	"nutriguard/internal/pkg/common"

	"gorm.io/gorm"
)

// HistoryStore 掃描紀錄存取
type HistoryStore struct {
	db *gorm.DB
}

// NewHistoryStore 創建掃描紀錄存取
func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append 新增掃描紀錄
func (s *HistoryStore) Append(ctx context.Context, rec *ScanRecord) error {
	if rec.ID == "" {
		rec.ID = common.GenerateUUID()
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append scan record: %w", err)
	}
	return nil
}

// List 依時間新到舊列出掃描紀錄
func (s *HistoryStore) List(ctx context.Context, userID uint, limit int) ([]ScanRecord, error) {
	records := make([]ScanRecord, 0)
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list scan records: %w", err)
	}
	return records, nil
}
