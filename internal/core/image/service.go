package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	"nutriguard/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // 支援 WebP
)

// 圖片輸入錯誤，皆屬於 400
var (
	ErrNoImage       = common.NewError(common.ErrCodeInvalidRequest, "no image provided", http.StatusBadRequest, nil)
	ErrInvalidImage  = common.NewError(common.ErrCodeInvalidRequest, "invalid image", http.StatusBadRequest, nil)
	ErrImageTooLarge = common.NewError(common.ErrCodeTooLarge, "image too large", http.StatusRequestEntityTooLarge, nil)
	ErrImageFetch    = common.NewError(common.ErrCodeInvalidRequest, "could not fetch image", http.StatusBadRequest, nil)
)

// Store 已上傳檔案的讀取介面
type Store interface {
	Read(ctx context.Context, id string) ([]byte, error)
}

// Source 圖片來源，依 Data、FileID、URL 的順序取用
type Source struct {
	Data   []byte
	FileID string
	URL    string
}

// Empty 是否沒有任何來源
func (s Source) Empty() bool {
	return len(s.Data) == 0 && s.FileID == "" && s.URL == ""
}

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
	store        Store
	client       *resty.Client
}

// NewService 創建新的圖片處理服務；store 可為 nil
func NewService(maxSizeBytes int64, fetchTimeout time.Duration, store Store) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
		store:        store,
		client:       resty.New().SetTimeout(fetchTimeout),
	}
}

// Load 取得圖片位元組
func (s *Service) Load(ctx context.Context, src Source) ([]byte, error) {
	switch {
	case len(src.Data) > 0:
		return src.Data, nil
	case src.FileID != "":
		return s.loadUpload(ctx, src.FileID)
	case src.URL != "":
		return s.fetch(ctx, src.URL)
	default:
		return nil, ErrNoImage
	}
}

// LoadDataURI 取得圖片並轉為 data URI
func (s *Service) LoadDataURI(ctx context.Context, src Source) (string, error) {
	data, err := s.Load(ctx, src)
	if err != nil {
		return "", err
	}
	return s.ToDataURI(data)
}

// loadUpload 從上傳儲存讀取
func (s *Service) loadUpload(ctx context.Context, id string) ([]byte, error) {
	if s.store == nil {
		return nil, withCause(ErrImageFetch, "upload store unavailable", nil)
	}
	data, err := s.store.Read(ctx, id)
	if err != nil {
		common.LogWarn("讀取上傳檔案失敗", zap.String("file_id", id), zap.Error(err))
		return nil, withCause(ErrImageFetch, "upload not found", err)
	}
	return data, nil
}

// fetch 下載遠端圖片，單次嘗試
func (s *Service) fetch(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, withCause(ErrImageFetch, "unsupported image url", nil)
	}

	resp, err := s.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		common.LogUpstreamFailure("image_fetch", err, zap.String("url", url))
		return nil, withCause(ErrImageFetch, "could not fetch image", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		err := fmt.Errorf("status %d", resp.StatusCode())
		common.LogUpstreamFailure("image_fetch", err, zap.String("url", url))
		return nil, withCause(ErrImageFetch, "could not fetch image", err)
	}
	if s.maxSizeBytes <= 0 {
		return readBody(body, url)
	}
	if resp.RawResponse != nil && resp.RawResponse.ContentLength > s.maxSizeBytes {
		return nil, ErrImageTooLarge
	}

	// 多讀一個位元組以判斷是否超過上限
	data, err := readBody(io.LimitReader(body, s.maxSizeBytes+1), url)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxSizeBytes {
		common.LogWarn("遠端圖片超過大小上限", zap.String("url", url), zap.Int64("max_size", s.maxSizeBytes))
		return nil, ErrImageTooLarge
	}
	return data, nil
}

func readBody(r io.Reader, url string) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		common.LogUpstreamFailure("image_fetch", err, zap.String("url", url))
		return nil, withCause(ErrImageFetch, "could not read image", err)
	}
	return data, nil
}

// ToDataURI 驗證圖片並編碼為 base64 data URI
func (s *Service) ToDataURI(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNoImage
	}
	if s.maxSizeBytes > 0 && int64(len(data)) > s.maxSizeBytes {
		return "", ErrImageTooLarge
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", withCause(ErrInvalidImage, "unsupported content type "+mimeType, nil)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", withCause(ErrInvalidImage, "invalid image", err)
	}
	if !isSupportedFormat(format) {
		return "", withCause(ErrInvalidImage, "unsupported image format "+format, nil)
	}

	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}

// isSupportedFormat 檢查是否為支援的圖片格式
func isSupportedFormat(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

// withCause 複製預定義錯誤並附上訊息與原因
func withCause(base *common.CustomError, message string, err error) *common.CustomError {
	return common.NewError(base.Code, message, base.Status, err)
}

