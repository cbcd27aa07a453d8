package recipe

import (
	"net/http"
	"strings"

	recipeService "nutriguard/internal/core/recipe"
	"nutriguard/internal/pkg/common"
	"nutriguard/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SuggestionRequest 依食材清單推薦料理
type SuggestionRequest struct {
	Ingredients []string                      `json:"ingredients"`
	Filters     *recipeService.FilterOverride `json:"filters,omitempty"`
}

// SuggestFiltered 處理 /suggestions/filtered 料理推薦 API
func (h *Handler) SuggestFiltered(c *gin.Context) {
	requestID := common.RequestID(c)

	var req SuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		common.Respond(c, common.BadRequest("invalid request body"))
		return
	}

	filters := h.filtersFor(c, req.Filters)
	result, err := h.deps.Suggestions.Suggest(c.Request.Context(), req.Ingredients, filters)
	if err != nil {
		common.Respond(c, err)
		return
	}

	h.recordScan(c, storage.ScanSuggestions, strings.Join(result.Ingredients, ", "), result, "")
	c.JSON(http.StatusOK, result)
}
