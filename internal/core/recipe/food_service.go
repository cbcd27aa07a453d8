package recipe

import (
	"context"
	"strings"

	"nutriguard/internal/core/ai/service"
	"nutriguard/internal/core/nutrition"
	"nutriguard/internal/pkg/common"

	"go.uber.org/zap"
)

const unidentifiedReply = "Unable to identify food"

const identifyFoodPrompt = `Identify every food item visible in this image.
Reply with only the food names in English, separated by commas, with an estimated serving in parentheses, for example: "Rice (1 cup), Dal (1 bowl)".
Do not number the items and do not add any other text.
If there is no food in the image, reply exactly: "` + unidentifiedReply + `"`

// FoodService 食物識別服務
type FoodService struct {
	ai        Completer
	nutrition nutrition.Lookuper
}

// NewFoodService 創建新的食物識別服務；lookup 可為 nil
func NewFoodService(ai Completer, lookup nutrition.Lookuper) *FoodService {
	return &FoodService{ai: ai, nutrition: lookup}
}

// IdentifyFood 識別圖片中的食物並查詢營養
func (s *FoodService) IdentifyFood(ctx context.Context, dataURI string) (*FoodResult, error) {
	raw, err := s.ai.ProcessRequest(ctx, service.Task{
		Prompt:       identifyFoodPrompt,
		ImageDataURI: dataURI,
	})
	if err != nil {
		common.LogError("AI 服務請求失敗", zap.Error(err))
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	if nutrition.IsUnidentified(raw) {
		common.LogInfo("無法辨識食物", zap.String("response", raw))
		return &FoodResult{ItemName: unidentifiedText(raw)}, nil
	}

	items := nutrition.NormalizeItems(raw)
	if len(items) == 0 {
		return &FoodResult{ItemName: unidentifiedText(raw)}, nil
	}

	result := &FoodResult{
		ItemName: strings.Join(items, ", "),
		Items:    items,
	}
	if s.nutrition != nil {
		summary := nutrition.Aggregate(nutrition.LookupAll(ctx, s.nutrition, items))
		result.Nutrition = &summary
	}

	common.LogInfo("食物識別成功",
		zap.Int("items", len(items)),
		zap.Bool("nutrition", result.Nutrition != nil),
	)
	return result, nil
}

func unidentifiedText(raw string) string {
	if raw == "" {
		return unidentifiedReply
	}
	return raw
}
