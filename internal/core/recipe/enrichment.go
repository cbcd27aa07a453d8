package recipe

import (
	"context"
	"fmt"

	"nutriguard/internal/pkg/common"

	"go.uber.org/zap"
)

// ImageQueryStyle 備援圖片搜尋關鍵字格式
type ImageQueryStyle string

const (
	// GenericQuery "<name> food dish"
	GenericQuery ImageQueryStyle = "%s food dish"
	// IndianQuery "<name> indian food dish"
	IndianQuery ImageQueryStyle = "%s indian food dish"
)

// Enricher 為料理補上圖片、步驟、營養與食材
type Enricher struct {
	recipes RecipeFinder
	images  ImageFinder
}

// NewEnricher 創建料理補充器；任一查詢能力可為 nil
func NewEnricher(recipes RecipeFinder, images ImageFinder) *Enricher {
	return &Enricher{recipes: recipes, images: images}
}

// Enrich 依序嘗試食譜查詢與圖片搜尋，每一步失敗都只記錄並略過
func (e *Enricher) Enrich(ctx context.Context, dish Dish, available []string, style ImageQueryStyle) Dish {
	if dish.Name == "" {
		return dish
	}

	if e.recipes != nil {
		e.applyRecipe(ctx, &dish, available)
	}

	if dish.ImageURL == nil && e.images != nil {
		query := fmt.Sprintf(string(style), dish.Name)
		link, err := e.images.SearchImage(ctx, query)
		if err != nil {
			common.LogUpstreamFailure("image_search", err, zap.String("dish", dish.Name))
		} else if link != "" {
			dish.ImageURL = &link
		}
	}
	return dish
}

// EnrichAll 依序補充每一道料理
func (e *Enricher) EnrichAll(ctx context.Context, dishes []Dish, available []string, style ImageQueryStyle) []Dish {
	out := make([]Dish, 0, len(dishes))
	for _, d := range dishes {
		out = append(out, e.Enrich(ctx, d, available, style))
	}
	return out
}

func (e *Enricher) applyRecipe(ctx context.Context, dish *Dish, available []string) {
	hit, err := e.recipes.SearchRecipe(ctx, dish.Name, available)
	if err != nil {
		common.LogUpstreamFailure("recipe_search", err, zap.String("dish", dish.Name))
		return
	}
	if hit == nil {
		return
	}

	detail, err := e.recipes.RecipeInfo(ctx, hit.ID)
	if err != nil {
		common.LogUpstreamFailure("recipe_info", err, zap.String("dish", dish.Name), zap.Int("recipe_id", hit.ID))
		setImage(dish, hit.Image)
		return
	}
	setImage(dish, detail.Image)
	setImage(dish, hit.Image)
	if len(detail.Steps) > 0 {
		dish.Steps = detail.Steps
	}
	if len(detail.Nutrients) > 0 {
		dish.Nutrition = detail.Nutrients
	}
	if len(detail.Ingredients) > 0 {
		dish.Ingredients = detail.Ingredients
	}
}

// setImage 只在料理尚無圖片時填入
func setImage(dish *Dish, url string) {
	if dish.ImageURL == nil && url != "" {
		dish.ImageURL = &url
	}
}
