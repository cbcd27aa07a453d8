package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"nutriguard/internal/core/ai/service"
	"nutriguard/internal/core/nutrition"
	"nutriguard/internal/pkg/common"

	"go.uber.org/zap"
)

const identifyIngredientsPrompt = `Identify the raw ingredients visible in this image and suggest dishes that can be cooked with them.
%s
Reply with JSON only, in this format:
{"ingredients": ["ingredient name"], "dishes": [{"name": "dish name", "description": "one sentence", "justification": "why it fits the user"}]}
Use English names. Suggest at most 5 dishes.`

// IngredientService 食材識別服務
type IngredientService struct {
	ai       Completer
	enricher *Enricher
}

// NewIngredientService 創建新的食材識別服務
func NewIngredientService(ai Completer, enricher *Enricher) *IngredientService {
	return &IngredientService{ai: ai, enricher: enricher}
}

// IdentifyRawIngredients 識別圖片中的食材並推薦料理
func (s *IngredientService) IdentifyRawIngredients(ctx context.Context, dataURI string, filters FilterSet) (*SuggestionResult, error) {
	raw, err := s.ai.ProcessRequest(ctx, service.Task{
		Prompt:       fmt.Sprintf(identifyIngredientsPrompt, describeFilters(filters)),
		ImageDataURI: dataURI,
	})
	if err != nil {
		common.LogError("AI 服務請求失敗", zap.Error(err))
		return nil, err
	}

	ingredients, dishes := parseIngredientOutput(raw)
	if s.enricher != nil {
		dishes = s.enricher.EnrichAll(ctx, dishes, ingredients, GenericQuery)
	}

	common.LogInfo("食材識別成功",
		zap.Int("ingredients", len(ingredients)),
		zap.Int("dishes", len(dishes)),
	)

	return &SuggestionResult{
		Ingredients:    ingredients,
		Dishes:         dishes,
		RawResponse:    raw,
		FiltersApplied: filters,
	}, nil
}

// parseIngredientOutput 解析 JSON 回覆，失敗時改用分段純文字解析
func parseIngredientOutput(raw string) ([]string, []Dish) {
	if candidate, ok := common.ExtractJSON(raw); ok {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			if _, has := obj["ingredients"]; has {
				ingredients := ingredientList(obj["ingredients"])
				dishes := NormalizeDishes(DecodeDishValue(obj["dishes"]))
				return ingredients, dishes
			}
		}
		common.LogDebug("JSON 解析失敗，改用純文字解析")
	}
	return parseSectionedText(raw)
}

// ingredientList 接受字串陣列、物件陣列或單一字串
func ingredientList(v interface{}) []string {
	switch val := v.(type) {
	case []interface{}:
		names := make([]string, 0, len(val))
		for _, item := range val {
			switch it := item.(type) {
			case string:
				names = append(names, nutrition.NormalizeItems(it)...)
			case map[string]interface{}:
				if name := asText(it["name"]); name != "" {
					names = append(names, name)
				}
			}
		}
		return names
	case string:
		return nutrition.NormalizeItems(val)
	default:
		return []string{}
	}
}

// parseSectionedText 解析 "Ingredients" 與 "Suggested Dishes" 兩段式純文字
func parseSectionedText(raw string) ([]string, []Dish) {
	var ingredientLines, dishLines []string
	section := ""

	for _, line := range splitLines(raw) {
		plain := strings.ToLower(cleanMarkdown(strings.TrimLeft(strings.TrimSpace(line), "# ")))
		switch {
		case strings.HasPrefix(plain, "ingredients"):
			section = "ingredients"
			if i := strings.IndexAny(line, ":："); i >= 0 {
				_, size := utf8.DecodeRuneInString(line[i:])
				ingredientLines = append(ingredientLines, cleanMarkdown(line[i+size:]))
			}
			continue
		case strings.HasPrefix(plain, "suggested dishes"):
			section = "dishes"
			continue
		}

		switch section {
		case "ingredients":
			ingredientLines = append(ingredientLines, bulletPattern.ReplaceAllString(line, ""))
		case "dishes":
			dishLines = append(dishLines, line)
		}
	}

	if section == "" {
		if nutrition.IsUnidentified(raw) {
			return []string{}, []Dish{}
		}
		return nutrition.NormalizeItems(raw), []Dish{}
	}

	ingredients := nutrition.NormalizeItems(strings.Join(ingredientLines, "\n"))
	return ingredients, parseDishLines(dishLines)
}
