package user

import (
	"context"
	"net/http"

	"nutriguard/internal/api/middleware"
	"nutriguard/internal/pkg/common"
	"nutriguard/internal/storage"

	"github.com/gin-gonic/gin"
)

// HistoryLister 掃描紀錄查詢
type HistoryLister interface {
	List(ctx context.Context, userID uint, limit int) ([]storage.ScanRecord, error)
}

// HistoryHandler 掃描紀錄 API
type HistoryHandler struct {
	store HistoryLister
}

// NewHistoryHandler 創建掃描紀錄處理器
func NewHistoryHandler(store HistoryLister) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// List 處理 GET /history
func (h *HistoryHandler) List(c *gin.Context) {
	items, err := h.store.List(c.Request.Context(), middleware.UserID(c), pageSize(c))
	if err != nil {
		common.Respond(c, common.Internal("failed to load history", err))
		return
	}
	if items == nil {
		items = []storage.ScanRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
