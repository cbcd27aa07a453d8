package user

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"nutriguard/internal/api/middleware"
	"nutriguard/internal/core/nutrition"
	"nutriguard/internal/pkg/common"
	"nutriguard/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	dayLayout       = "2006-01-02"
	defaultPageSize = 30
	maxPageSize     = 365
)

// MetricsRecorder 每日營養紀錄
type MetricsRecorder interface {
	RecordDay(ctx context.Context, userID uint, day string, items []nutrition.Record) (*storage.DailyMetric, error)
	GetDay(ctx context.Context, userID uint, day string) (*storage.DailyMetric, error)
	ListDays(ctx context.Context, userID uint, limit int) ([]storage.DailyMetric, error)
}

// MetricsHandler 每日營養 API
type MetricsHandler struct {
	store MetricsRecorder
}

// NewMetricsHandler 創建每日營養處理器
func NewMetricsHandler(store MetricsRecorder) *MetricsHandler {
	return &MetricsHandler{store: store}
}

// SaveMetricsRequest 儲存當日餐點
type SaveMetricsRequest struct {
	Day       string `json:"day"`
	Nutrition struct {
		Items []nutrition.Record `json:"items"`
	} `json:"nutrition"`
}

// SaveMetricsResponse 儲存結果
type SaveMetricsResponse struct {
	Day          string           `json:"day"`
	Totals       nutrition.Totals `json:"totals"`
	GoalAchieved bool             `json:"goal_achieved"`
	MealsAdded   int              `json:"meals_added"`
}

// Save 處理 POST /metrics/save
func (h *MetricsHandler) Save(c *gin.Context) {
	var req SaveMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Respond(c, common.BadRequest("invalid request body"))
		return
	}
	if !validDay(req.Day) {
		common.Respond(c, common.BadRequest("day must be formatted as YYYY-MM-DD"))
		return
	}

	userID := middleware.UserID(c)
	metric, err := h.store.RecordDay(c.Request.Context(), userID, req.Day, req.Nutrition.Items)
	if err != nil {
		common.LogError("儲存每日營養失敗",
			zap.Error(err),
			zap.Uint("user_id", userID),
			zap.String("day", req.Day),
		)
		common.Respond(c, common.Internal("failed to save metrics", err))
		return
	}

	c.JSON(http.StatusOK, SaveMetricsResponse{
		Day:          metric.Day,
		Totals:       metric.Totals(),
		GoalAchieved: metric.GoalAchieved,
		MealsAdded:   len(req.Nutrition.Items),
	})
}

// GetDay 處理 GET /metrics/day/:day
func (h *MetricsHandler) GetDay(c *gin.Context) {
	day := c.Param("day")
	if !validDay(day) {
		common.Respond(c, common.BadRequest("day must be formatted as YYYY-MM-DD"))
		return
	}

	metric, err := h.store.GetDay(c.Request.Context(), middleware.UserID(c), day)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.Respond(c, err)
			return
		}
		common.Respond(c, common.Internal("failed to load metrics", err))
		return
	}
	c.JSON(http.StatusOK, metric)
}

// List 處理 GET /metrics
func (h *MetricsHandler) List(c *gin.Context) {
	days, err := h.store.ListDays(c.Request.Context(), middleware.UserID(c), pageSize(c))
	if err != nil {
		common.Respond(c, common.Internal("failed to load metrics", err))
		return
	}
	if days == nil {
		days = []storage.DailyMetric{}
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

func validDay(day string) bool {
	_, err := time.Parse(dayLayout, day)
	return err == nil
}

// pageSize 讀取 limit 參數，無效時使用預設值
func pageSize(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return defaultPageSize
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}
