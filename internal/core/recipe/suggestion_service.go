package recipe

import (
	"context"
	"fmt"
	"strings"

	"nutriguard/internal/core/ai/service"
	"nutriguard/internal/pkg/common"

	"go.uber.org/zap"
)

const suggestDishesPrompt = `I have these ingredients: %s.
Suggest Indian dishes I can cook with them.
%s
Reply with JSON only, in this format:
{"dishes": [{"name": "dish name", "description": "one sentence", "justification": "why it fits the user"}]}
Suggest at most 5 dishes.`

// SuggestionService 依食材清單與篩選條件推薦料理
type SuggestionService struct {
	ai       Completer
	enricher *Enricher
}

// NewSuggestionService 創建新的推薦服務
func NewSuggestionService(ai Completer, enricher *Enricher) *SuggestionService {
	return &SuggestionService{ai: ai, enricher: enricher}
}

// Suggest 以食材與篩選條件重新詢問模型，空食材清單回傳 400
func (s *SuggestionService) Suggest(ctx context.Context, ingredients []string, filters FilterSet) (*SuggestionResult, error) {
	ingredients = cleanNames(ingredients)
	if len(ingredients) == 0 {
		return nil, common.BadRequest("ingredients must not be empty")
	}

	raw, err := s.ai.ProcessRequest(ctx, service.Task{
		Prompt: fmt.Sprintf(suggestDishesPrompt, strings.Join(ingredients, ", "), describeFilters(filters)),
	})
	if err != nil {
		common.LogError("AI 服務請求失敗", zap.Error(err))
		return nil, err
	}

	dishes := ParseDishes(raw)
	if s.enricher != nil {
		dishes = s.enricher.EnrichAll(ctx, dishes, ingredients, IndianQuery)
	}

	common.LogInfo("料理推薦完成",
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
