package handlers

import (
	"context"
	"net/http"
	"strings"

	"nutriguard/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Chatter 自由對話
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
}

// AIHandler AI 處理器
type AIHandler struct {
	chat Chatter
}

// NewAIHandler 創建 AI 處理器
func NewAIHandler(chat Chatter) *AIHandler {
	return &AIHandler{
		chat: chat,
	}
}

// ChatRequest 對話請求
type ChatRequest struct {
	Message string `json:"message"`
}

// Chat 處理 /chat
func (h *AIHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Respond(c, common.BadRequest("invalid request body"))
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		common.Respond(c, common.BadRequest("message is required"))
		return
	}

	response, err := h.chat.Chat(c.Request.Context(), message)
	if err != nil {
		common.LogError("對話失敗", zap.Error(err), zap.String("request_id", common.RequestID(c)))
		common.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response": response,
	})
}
