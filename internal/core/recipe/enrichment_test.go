package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecipes struct {
	hit       *RecipeHit
	searchErr error
	detail    *RecipeDetail
	infoErr   error
	available [][]string
}

func (f *fakeRecipes) SearchRecipe(ctx context.Context, name string, ingredients []string) (*RecipeHit, error) {
	f.available = append(f.available, ingredients)
	return f.hit, f.searchErr
}

func (f *fakeRecipes) RecipeInfo(ctx context.Context, id int) (*RecipeDetail, error) {
	return f.detail, f.infoErr
}

type fakeImages struct {
	link    string
	err     error
	queries []string
}

func (f *fakeImages) SearchImage(ctx context.Context, query string) (string, error) {
	f.queries = append(f.queries, query)
	return f.link, f.err
}

func TestEnricher(t *testing.T) {
	ctx := context.Background()

	t.Run("should apply recipe details", func(t *testing.T) {
		recipes := &fakeRecipes{
			hit: &RecipeHit{ID: 9, Image: "http://hit.jpg"},
			detail: &RecipeDetail{
				Image:       "http://detail.jpg",
				Steps:       []string{"Boil", "Serve"},
				Nutrients:   map[string]float64{"calories": 210},
				Ingredients: []string{"1 cup rice"},
			},
		}
		images := &fakeImages{link: "http://search.jpg"}
		e := NewEnricher(recipes, images)

		got := e.Enrich(ctx, Dish{Name: "Khichdi"}, []string{"rice", "dal"}, GenericQuery)

		require.NotNil(t, got.ImageURL)
		assert.Equal(t, "http://detail.jpg", *got.ImageURL)
		assert.Equal(t, []string{"Boil", "Serve"}, got.Steps)
		assert.Equal(t, 210.0, got.Nutrition["calories"])
		assert.Equal(t, []string{"1 cup rice"}, got.Ingredients)
		assert.Equal(t, [][]string{{"rice", "dal"}}, recipes.available)
		assert.Empty(t, images.queries)
	})

	t.Run("should use hit image when recipe info fails", func(t *testing.T) {
		recipes := &fakeRecipes{hit: &RecipeHit{ID: 1, Image: "http://hit.jpg"}, infoErr: errors.New("quota")}
		got := NewEnricher(recipes, nil).Enrich(ctx, Dish{Name: "Poha"}, nil, GenericQuery)

		require.NotNil(t, got.ImageURL)
		assert.Equal(t, "http://hit.jpg", *got.ImageURL)
		assert.Empty(t, got.Steps)
	})

	t.Run("should fall back to image search with query style", func(t *testing.T) {
		recipes := &fakeRecipes{searchErr: errors.New("down")}
		images := &fakeImages{link: "http://search.jpg"}
		got := NewEnricher(recipes, images).Enrich(ctx, Dish{Name: "Upma"}, nil, IndianQuery)

		require.NotNil(t, got.ImageURL)
		assert.Equal(t, "http://search.jpg", *got.ImageURL)
		assert.Equal(t, []string{"Upma indian food dish"}, images.queries)
	})

	t.Run("should keep an existing image", func(t *testing.T) {
		existing := "http://model.jpg"
		recipes := &fakeRecipes{hit: &RecipeHit{ID: 1}, detail: &RecipeDetail{Image: "http://detail.jpg", Steps: []string{"Mix"}}}
		images := &fakeImages{link: "http://search.jpg"}
		got := NewEnricher(recipes, images).Enrich(ctx, Dish{Name: "Dal", ImageURL: &existing}, nil, GenericQuery)

		assert.Equal(t, "http://model.jpg", *got.ImageURL)
		assert.Equal(t, []string{"Mix"}, got.Steps)
		assert.Empty(t, images.queries)
	})

	t.Run("should leave dish untouched when every lookup fails", func(t *testing.T) {
		images := &fakeImages{err: errors.New("down")}
		got := NewEnricher(&fakeRecipes{}, images).Enrich(ctx, Dish{Name: "Roti", Description: "flatbread"}, nil, GenericQuery)

		assert.Equal(t, Dish{Name: "Roti", Description: "flatbread"}, got)
	})

	t.Run("should work without any finder", func(t *testing.T) {
		dishes := NewEnricher(nil, nil).EnrichAll(ctx, []Dish{{Name: "A"}, {Name: "B"}}, nil, GenericQuery)
		assert.Equal(t, []Dish{{Name: "A"}, {Name: "B"}}, dishes)
	})
}
