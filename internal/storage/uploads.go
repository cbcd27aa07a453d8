package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"nutriguard/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	uploadIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[a-z0-9]{1,5})?$`)
	extPattern      = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)
)

// ErrInvalidUploadID 上傳檔案 ID 格式錯誤
var ErrInvalidUploadID = common.NewError(common.ErrCodeInvalidRequest, "invalid file id", http.StatusBadRequest, nil)

// Upload 已儲存的上傳檔案
type Upload struct {
	ID          string    `json:"file_id"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadStore 上傳檔案儲存
type UploadStore interface {
	Save(ctx context.Context, ext string, data []byte) (*Upload, error)
	Read(ctx context.Context, id string) ([]byte, error)
	// Sweep 刪除 cutoff 之前的檔案，單一檔案失敗不中斷
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// newUpload 產生新的上傳紀錄
func newUpload(ext string, data []byte) *Upload {
	ext = strings.ToLower(ext)
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return &Upload{
		ID:          common.GenerateUUID() + ext,
		ContentType: http.DetectContentType(data),
		Size:        len(data),
		CreatedAt:   time.Now(),
	}
}

// expired 是否已超過保存期限；retention 為 0 表示不過期
func expired(modTime time.Time, retention time.Duration, now time.Time) bool {
	return retention > 0 && modTime.Before(now.Add(-retention))
}

// ValidUploadID 檢查 ID 格式，避免路徑穿越
func ValidUploadID(id string) bool {
	return uploadIDPattern.MatchString(id)
}

// LocalStore 本機目錄儲存
type LocalStore struct {
	dir       string
	retention time.Duration
	now       func() time.Time
}

// NewLocalStore 創建本機儲存並建立目錄；超過 retention 的檔案視為不存在
func NewLocalStore(dir string, retention time.Duration) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, retention: retention, now: time.Now}, nil
}

// Save 寫入檔案
func (s *LocalStore) Save(ctx context.Context, ext string, data []byte) (*Upload, error) {
	up := newUpload(ext, data)
	if err := os.WriteFile(filepath.Join(s.dir, up.ID), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	return up, nil
}

// Read 讀取檔案
func (s *LocalStore) Read(ctx context.Context, id string) ([]byte, error) {
	if !ValidUploadID(id) {
		return nil, ErrInvalidUploadID
	}
	path := filepath.Join(s.dir, id)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat upload: %w", err)
	}
	if expired(info.ModTime(), s.retention, s.now()) {
		return nil, common.ErrNotFound
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, nil
}

// Sweep 刪除過期檔案
func (s *LocalStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list upload dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if entry.IsDir() || !ValidUploadID(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			common.LogWarn("讀取檔案資訊失敗", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			common.LogWarn("刪除過期檔案失敗", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
