package recipe

import (
	"context"
	"fmt"
	"strings"

	"nutriguard/internal/core/ai/service"
	"nutriguard/internal/core/nutrition"
)

// Completer 模型呼叫能力
type Completer interface {
	ProcessRequest(ctx context.Context, task service.Task) (string, error)
}

// FoodResult 食物辨識結果；無法辨識或未設定營養查詢時 Nutrition 為 nil
type FoodResult struct {
	ItemName  string             `json:"item_name"`
	Items     []string           `json:"-"`
	Nutrition *nutrition.Summary `json:"nutrition"`
}

// SuggestionResult 食材辨識與料理推薦結果
type SuggestionResult struct {
	Ingredients    []string  `json:"ingredients"`
	Dishes         []Dish    `json:"dishes"`
	RawResponse    string    `json:"raw_response"`
	FiltersApplied FilterSet `json:"filters_applied"`
}

// describeFilters 將篩選條件寫成提示詞
func describeFilters(fs FilterSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meal times: %s.\n", strings.Join(fs.Times, ", "))
	switch fs.Age {
	case AgeChild:
		b.WriteString("Age group: child. Keep dishes mild, simple and kid friendly.\n")
	case AgeOld:
		b.WriteString("Age group: older adult. Prefer soft, easily digestible, low sodium dishes.\n")
	default:
		b.WriteString("Age group: adult.\n")
	}
	if fs.Diabetic {
		b.WriteString("The user is diabetic. Only suggest low glycemic, low sugar dishes and avoid refined carbohydrates.\n")
	}
	return b.String()
}

// cleanNames 去除空白並移除空字串
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
