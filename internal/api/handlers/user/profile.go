package user

import (
	"context"
	"net/http"
	"strings"

	"nutriguard/internal/api/middleware"
	"nutriguard/internal/pkg/common"
	"nutriguard/internal/storage"

	"github.com/gin-gonic/gin"
)

// ProfileStore 使用者資料存取
type ProfileStore interface {
	Get(ctx context.Context, userID uint) (*storage.Profile, error)
	Upsert(ctx context.Context, profile *storage.Profile) error
}

// ProfileHandler 使用者資料 API
type ProfileHandler struct {
	store ProfileStore
}

// NewProfileHandler 創建使用者資料處理器
func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

// ProfileRequest 使用者資料請求
type ProfileRequest struct {
	Name       string   `json:"name"`
	Age        *int     `json:"age"`
	Height     *float64 `json:"height"`
	Weight     *float64 `json:"weight"`
	Gender     string   `json:"gender"`
	IsDiabetic *bool    `json:"is_diabetic"`
}

func (r ProfileRequest) validate() error {
	if r.Age != nil && (*r.Age < 0 || *r.Age > 150) {
		return common.BadRequest("age must be between 0 and 150")
	}
	if r.Height != nil && *r.Height <= 0 {
		return common.BadRequest("height must be positive")
	}
	if r.Weight != nil && *r.Weight <= 0 {
		return common.BadRequest("weight must be positive")
	}
	return nil
}

// Get 處理 GET /user/profile，尚未建立時回傳空資料
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	profile, err := h.store.Get(c.Request.Context(), userID)
	if err != nil {
		common.Respond(c, common.Internal("failed to load profile", err))
		return
	}
	if profile == nil {
		profile = &storage.Profile{UserID: userID}
	}
	c.JSON(http.StatusOK, profile)
}

// Save 處理 POST /user/profile
func (h *ProfileHandler) Save(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Respond(c, common.BadRequest("invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		common.Respond(c, err)
		return
	}

	profile := &storage.Profile{
		UserID:     middleware.UserID(c),
		Name:       strings.TrimSpace(req.Name),
		Age:        req.Age,
		Height:     req.Height,
		Weight:     req.Weight,
		Gender:     strings.TrimSpace(req.Gender),
		IsDiabetic: req.IsDiabetic,
	}
	if err := h.store.Upsert(c.Request.Context(), profile); err != nil {
		common.Respond(c, common.Internal("failed to save profile", err))
		return
	}
	c.JSON(http.StatusOK, profile)
}
