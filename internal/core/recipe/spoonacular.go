package recipe

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"nutriguard/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

// maxBiasIngredients 搜尋時最多帶入的食材數
const maxBiasIngredients = 5

// keptNutrients 保留的營養素（小寫）
var keptNutrients = map[string]bool{
	"calories":      true,
	"protein":       true,
	"fat":           true,
	"carbohydrates": true,
	"sugar":         true,
	"fiber":         true,
}

// RecipeHit 食譜搜尋結果
type RecipeHit struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
}

// RecipeDetail 食譜詳細資料
type RecipeDetail struct {
	Image       string
	Steps       []string
	Nutrients   map[string]float64
	Ingredients []string
}

// RecipeFinder 食譜查詢能力
type RecipeFinder interface {
	// SearchRecipe 回傳第一筆結果，沒有結果時回傳 nil
	SearchRecipe(ctx context.Context, name string, ingredients []string) (*RecipeHit, error)
	RecipeInfo(ctx context.Context, id int) (*RecipeDetail, error)
}

// SpoonacularClient Spoonacular API 客戶端
type SpoonacularClient struct {
	client *resty.Client
}

// NewSpoonacularClient 創建客戶端；未設定 API Key 時回傳 nil
func NewSpoonacularClient(cfg config.RecipeConfig) *SpoonacularClient {
	if cfg.APIKey == "" {
		return nil
	}
	return &SpoonacularClient{
		client: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(cfg.Timeout).
			SetQueryParam("apiKey", cfg.APIKey),
	}
}

// SearchRecipe 依名稱搜尋食譜，可帶入現有食材
func (c *SpoonacularClient) SearchRecipe(ctx context.Context, name string, ingredients []string) (*RecipeHit, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":  name,
			"number": "1",
		})
	if len(ingredients) > maxBiasIngredients {
		ingredients = ingredients[:maxBiasIngredients]
	}
	if len(ingredients) > 0 {
		req.SetQueryParam("includeIngredients", strings.Join(ingredients, ","))
	}

	var result struct {
		Results []RecipeHit `json:"results"`
	}
	resp, err := req.SetResult(&result).Get("/recipes/complexSearch")
	if err != nil {
		return nil, fmt.Errorf("recipe search failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("recipe search returned status %d", resp.StatusCode())
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	hit := result.Results[0]
	return &hit, nil
}

// RecipeInfo 取得食譜詳細資料
func (c *SpoonacularClient) RecipeInfo(ctx context.Context, id int) (*RecipeDetail, error) {
	var info struct {
		Image                string `json:"image"`
		AnalyzedInstructions []struct {
			Steps []struct {
				Step string `json:"step"`
			} `json:"steps"`
		} `json:"analyzedInstructions"`
		Nutrition struct {
			Nutrients []struct {
				Name   string  `json:"name"`
				Amount float64 `json:"amount"`
			} `json:"nutrients"`
		} `json:"nutrition"`
		ExtendedIngredients []struct {
			Original string `json:"original"`
		} `json:"extendedIngredients"`
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("includeNutrition", "true").
		SetPathParam("id", strconv.Itoa(id)).
		SetResult(&info).
		Get("/recipes/{id}/information")
	if err != nil {
		return nil, fmt.Errorf("recipe info failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("recipe info returned status %d", resp.StatusCode())
	}

	detail := &RecipeDetail{
		Image:     info.Image,
		Nutrients: make(map[string]float64),
	}
	if len(info.AnalyzedInstructions) > 0 {
		for _, s := range info.AnalyzedInstructions[0].Steps {
			if step := strings.TrimSpace(s.Step); step != "" {
				detail.Steps = append(detail.Steps, step)
			}
		}
	}
	for _, n := range info.Nutrition.Nutrients {
		if key := strings.ToLower(n.Name); keptNutrients[key] {
			detail.Nutrients[key] = n.Amount
		}
	}
	for _, ing := range info.ExtendedIngredients {
		if ing.Original != "" {
			detail.Ingredients = append(detail.Ingredients, ing.Original)
		}
	}
	return detail, nil
}
