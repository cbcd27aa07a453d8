package recipe

import (
	"net/http"
	"strings"

	"nutriguard/internal/pkg/common"
	"nutriguard/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdentifyRawIngredients 處理 /identify-raw-ingredients 食材辨識 API
func (h *Handler) IdentifyRawIngredients(c *gin.Context) {
	requestID := common.RequestID(c)

	src, override, err := readImageRequest(c)
	if err != nil {
		common.Respond(c, err)
		return
	}

	dataURI, err := h.deps.Images.LoadDataURI(c.Request.Context(), src)
	if err != nil {
		common.Respond(c, err)
		return
	}

	filters := h.filtersFor(c, override)
	common.LogInfo("開始處理食材辨識請求",
		zap.String("request_id", requestID),
		zap.Strings("times", filters.Times),
		zap.String("age", filters.Age),
		zap.Bool("diabetic", filters.Diabetic),
	)

	result, err := h.deps.Ingredients.IdentifyRawIngredients(c.Request.Context(), dataURI, filters)
	if err != nil {
		common.LogError("食材辨識失敗", zap.Error(err), zap.String("request_id", requestID))
		common.Respond(c, err)
		return
	}

	h.recordScan(c, storage.ScanIngredients, strings.Join(result.Ingredients, ", "), result, scanImageURL(src))
	c.JSON(http.StatusOK, result)
}
