package recipe

import (
	"net/http"

	"nutriguard/internal/pkg/common"
	"nutriguard/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdentifyFood 處理 /identify-food 食物辨識 API
func (h *Handler) IdentifyFood(c *gin.Context) {
	requestID := common.RequestID(c)

	src, _, err := readImageRequest(c)
	if err != nil {
		common.Respond(c, err)
		return
	}

	common.LogInfo("開始處理食物辨識請求",
		zap.String("request_id", requestID),
		zap.Bool("inline", len(src.Data) > 0),
		zap.String("file_id", src.FileID),
	)

	dataURI, err := h.deps.Images.LoadDataURI(c.Request.Context(), src)
	if err != nil {
		common.Respond(c, err)
		return
	}

	result, err := h.deps.Food.IdentifyFood(c.Request.Context(), dataURI)
	if err != nil {
		common.LogError("食物辨識失敗", zap.Error(err), zap.String("request_id", requestID))
		common.Respond(c, err)
		return
	}

	h.recordScan(c, storage.ScanFood, result.ItemName, result, scanImageURL(src))
	c.JSON(http.StatusOK, result)
}
