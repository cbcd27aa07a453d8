package user

import (
	"context"
	"net/http"

	"nutriguard/internal/core/auth"
	"nutriguard/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator 註冊與登入
type Authenticator interface {
	Register(ctx context.Context, username, password, name string) (*auth.Session, error)
	Login(ctx context.Context, username, password string) (*auth.Session, error)
}

// AuthHandler 帳號 API
type AuthHandler struct {
	auth Authenticator
}

// NewAuthHandler 創建帳號處理器
func NewAuthHandler(a Authenticator) *AuthHandler {
	return &AuthHandler{auth: a}
}

// RegisterRequest 註冊請求
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// LoginRequest 登入請求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 處理 /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Respond(c, common.BadRequest("username and password are required"))
		return
	}

	session, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.Name)
	if err != nil {
		common.Respond(c, err)
		return
	}

	common.LogInfo("使用者註冊", zap.Uint("user_id", session.UserID))
	c.JSON(http.StatusOK, session)
}

// Login 處理 /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Respond(c, common.BadRequest("username and password are required"))
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		common.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
