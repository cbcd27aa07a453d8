package recipe

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"nutriguard/internal/api/middleware"
	"nutriguard/internal/core/image"
	recipeService "nutriguard/internal/core/recipe"
	"nutriguard/internal/pkg/common"
	"nutriguard/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FoodIdentifier 食物辨識
type FoodIdentifier interface {
	IdentifyFood(ctx context.Context, dataURI string) (*recipeService.FoodResult, error)
}

// IngredientIdentifier 食材辨識
type IngredientIdentifier interface {
	IdentifyRawIngredients(ctx context.Context, dataURI string, filters recipeService.FilterSet) (*recipeService.SuggestionResult, error)
}

// Suggester 依食材推薦料理
type Suggester interface {
	Suggest(ctx context.Context, ingredients []string, filters recipeService.FilterSet) (*recipeService.SuggestionResult, error)
}

// ImageLoader 取得圖片 data URI
type ImageLoader interface {
	LoadDataURI(ctx context.Context, src image.Source) (string, error)
}

// ProfileGetter 讀取使用者資料
type ProfileGetter interface {
	Get(ctx context.Context, userID uint) (*storage.Profile, error)
}

// HistoryAppender 寫入掃描紀錄
type HistoryAppender interface {
	Append(ctx context.Context, rec *storage.ScanRecord) error
}

// Deps 處理器依賴，Profiles 與 History 可為 nil
type Deps struct {
	Food        FoodIdentifier
	Ingredients IngredientIdentifier
	Suggestions Suggester
	Images      ImageLoader
	Profiles    ProfileGetter
	History     HistoryAppender
}

// Handler 食物與料理相關 API
type Handler struct {
	deps Deps
}

// NewHandler 創建處理器
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// imageRequest 圖片請求：multipart 或 JSON
type imageRequest struct {
	FileID   string                        `json:"file_id"`
	ImageURL string                        `json:"image_url"`
	Filters  *recipeService.FilterOverride `json:"filters"`
}

// readImageRequest 解析圖片來源與篩選覆寫
func readImageRequest(c *gin.Context) (image.Source, *recipeService.FilterOverride, error) {
	var src image.Source
	var req imageRequest

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if fh, err := c.FormFile("file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return src, nil, common.BadRequest("could not read uploaded file")
			}
			defer f.Close()
			data, err := io.ReadAll(f)
			if err != nil {
				return src, nil, common.BadRequest("could not read uploaded file")
			}
			src.Data = data
		}
		req.FileID = c.PostForm("file_id")
		req.ImageURL = c.PostForm("image_url")
		if raw := strings.TrimSpace(c.PostForm("filters")); raw != "" {
			var override recipeService.FilterOverride
			if err := json.Unmarshal([]byte(raw), &override); err != nil {
				return src, nil, common.BadRequest("invalid filters")
			}
			req.Filters = &override
		}
	} else if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			return src, nil, common.BadRequest("invalid request body")
		}
	}

	src.FileID = strings.TrimSpace(req.FileID)
	src.URL = strings.TrimSpace(req.ImageURL)
	if src.Empty() {
		return src, nil, image.ErrNoImage
	}
	return src, req.Filters, nil
}

// filtersFor 取得使用者預設篩選並套用覆寫
func (h *Handler) filtersFor(c *gin.Context, override *recipeService.FilterOverride) recipeService.FilterSet {
	var reader recipeService.ProfileReader
	if h.deps.Profiles != nil {
		reader = profileReader{h.deps.Profiles}
	}
	base := recipeService.DefaultsFor(c.Request.Context(), reader, middleware.UserID(c))
	return recipeService.MergeFilters(base, override)
}

// recordScan 登入使用者寫入掃描紀錄，失敗只記錄
func (h *Handler) recordScan(c *gin.Context, kind, summary string, payload interface{}, imageURL string) {
	userID := middleware.UserID(c)
	if userID == 0 || h.deps.History == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		common.LogWarn("掃描紀錄序列化失敗", zap.Error(err))
		return
	}
	rec := &storage.ScanRecord{
		UserID:   userID,
		Kind:     kind,
		Summary:  summary,
		Payload:  string(body),
		ImageURL: imageURL,
	}
	if err := h.deps.History.Append(c.Request.Context(), rec); err != nil {
		common.LogWarn("寫入掃描紀錄失敗", zap.Error(err), zap.Uint("user_id", userID))
	}
}

// profileReader 將儲存層資料轉為篩選條件所需欄位
type profileReader struct {
	store ProfileGetter
}

func (r profileReader) GetProfile(ctx context.Context, userID uint) (*recipeService.Profile, error) {
	p, err := r.store.Get(ctx, userID)
	if err != nil || p == nil {
		return nil, err
	}
	return &recipeService.Profile{Age: p.Age, Diabetic: p.IsDiabetic}, nil
}

// scanImageURL 紀錄用的圖片位置
func scanImageURL(src image.Source) string {
	if src.FileID != "" {
		return "/uploads/" + src.FileID
	}
	return src.URL
}
