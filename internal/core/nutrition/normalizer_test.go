package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUnidentified(t *testing.T) {
	cases := map[string]bool{
		"":                                  true,
		"   ":                               true,
		"None":                              true,
		"n/a":                               true,
		"Unable to identify food":           true,
		"I cannot identify this.":           false,
		"Cannot identify any food.":         true,
		"**Unknown**":                       true,
		"No food detected in the image":     true,
		"Grilled chicken, rice":             false,
	}
	for input, want := range cases {
		assert.Equal(t, want, IsUnidentified(input), "input %q", input)
	}
}

func TestNormalizeItems(t *testing.T) {
	t.Run("should split on commas and the word and", func(t *testing.T) {
		got := NormalizeItems("Grilled chicken, rice and beans")
		assert.Equal(t, []string{"Grilled chicken", "rice", "beans"}, got)
	})

	t.Run("should strip parentheticals ordinals and trailing descriptions", func(t *testing.T) {
		raw := "1. Paneer tikka (approx 200g)\n2) Naan - buttered\n3. Dal"
		got := NormalizeItems(raw)
		assert.Equal(t, []string{"Paneer tikka", "Naan", "Dal"}, got)
	})

	t.Run("should only split on the lowercase word and", func(t *testing.T) {
		got := NormalizeItems("Macaroni And Cheese, bread and butter")
		assert.Equal(t, []string{"Macaroni And Cheese", "bread", "butter"}, got)
	})

	t.Run("should keep words containing and", func(t *testing.T) {
		got := NormalizeItems("sandwich, candy")
		assert.Equal(t, []string{"sandwich", "candy"}, got)
	})

	t.Run("should return empty non-nil slice for blank input", func(t *testing.T) {
		got := NormalizeItems(" , \n ")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestNormalizeServingList(t *testing.T) {
	got := NormalizeItems("1. Rice (basmati) - 1 cup, 2. Dal - 1 bowl")
	assert.Equal(t, []string{"Rice", "Dal"}, got)
}
