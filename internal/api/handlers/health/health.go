package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"nutriguard/internal/core/ai/cache"
	"nutriguard/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger 依賴連線檢查
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 以函式實作 Pinger
type PingFunc func(ctx context.Context) error

// Ping 呼叫函式本身
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Cache     *cache.Stats           `json:"cache,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	db      Pinger
	cache   *cache.CacheManager
	timeout time.Duration
}

// NewHandler 創建健康檢查處理器，db 與 cacheManager 可為 nil
func NewHandler(version string, db Pinger, cacheManager *cache.CacheManager) *Handler {
	return &Handler{
		version: version,
		db:      db,
		cache:   cacheManager,
		timeout: 2 * time.Second,
	}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.cache != nil {
		stats := h.cache.GetStats()
		response.Cache = &stats
	}

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查，資料庫無法連線時回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			common.LogWarn("Readiness check failed", zap.Error(err))
			common.Respond(c, common.ErrServiceUnavailable.WithMessage("database unavailable"))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
