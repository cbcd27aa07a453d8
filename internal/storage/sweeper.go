package storage

import (
	"context"
	"sync"
	"time"

	"nutriguard/internal/pkg/common"

	"go.uber.org/zap"
)

// Sweeper 定期清除過期的上傳檔案
type Sweeper struct {
	store     UploadStore
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	running   sync.Mutex
}

// NewSweeper 創建清除器
func NewSweeper(store UploadStore, retention, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Start 在背景執行，直到 ctx 取消
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RunOnce(ctx)
		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RunOnce 執行一次清除；上一次尚未結束時直接略過
func (s *Sweeper) RunOnce(ctx context.Context) (int, bool) {
	if !s.running.TryLock() {
		common.LogDebug("清除作業仍在執行，略過本次")
		return 0, false
	}
	defer s.running.Unlock()

	removed, err := s.store.Sweep(ctx, s.now().Add(-s.retention))
	if err != nil {
		common.LogError("清除過期檔案失敗", zap.Error(err), zap.Int("removed", removed))
		return removed, true
	}
	if removed > 0 {
		common.LogInfo("已清除過期檔案", zap.Int("removed", removed))
	}
	return removed, true
}
