package user

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"nutriguard/internal/pkg/common"
	"nutriguard/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageValidator 驗證上傳內容為可用圖片
type ImageValidator interface {
	ToDataURI(data []byte) (string, error)
}

// UploadHandler 圖片上傳 API
type UploadHandler struct {
	store     storage.UploadStore
	validator ImageValidator
	retention time.Duration
}

// NewUploadHandler 創建上傳處理器
func NewUploadHandler(store storage.UploadStore, validator ImageValidator, retention time.Duration) *UploadHandler {
	return &UploadHandler{store: store, validator: validator, retention: retention}
}

// UploadResponse 上傳結果
type UploadResponse struct {
	FileID    string    `json:"file_id"`
	ImageURL  string    `json:"image_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Upload 處理 POST /upload
func (h *UploadHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		common.Respond(c, common.BadRequest("file is required"))
		return
	}

	f, err := header.Open()
	if err != nil {
		common.Respond(c, common.BadRequest("could not read file"))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		common.Respond(c, common.BadRequest("could not read file"))
		return
	}
	if _, err := h.validator.ToDataURI(data); err != nil {
		common.Respond(c, err)
		return
	}

	up, err := h.store.Save(c.Request.Context(), filepath.Ext(header.Filename), data)
	if err != nil {
		common.LogError("儲存上傳檔案失敗", zap.Error(err))
		common.Respond(c, common.Internal("failed to store upload", err))
		return
	}

	common.LogInfo("檔案已上傳",
		zap.String("file_id", up.ID),
		zap.Int("size", up.Size),
		zap.String("request_id", common.RequestID(c)),
	)
	c.JSON(http.StatusOK, UploadResponse{
		FileID:    up.ID,
		ImageURL:  "/uploads/" + up.ID,
		ExpiresAt: up.CreatedAt.Add(h.retention),
	})
}

// Serve 處理 GET /uploads/:id
func (h *UploadHandler) Serve(c *gin.Context) {
	id := c.Param("id")
	data, err := h.store.Read(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, storage.ErrInvalidUploadID) {
			common.Respond(c, err)
			return
		}
		common.Respond(c, common.Internal("failed to read upload", err))
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}
