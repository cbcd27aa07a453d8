package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	t.Run("should prefer fenced block content", func(t *testing.T) {
		raw := "Here you go:\n```json\n{\"dishes\": [\"Dal\"]}\n```\nEnjoy!"
		got, ok := ExtractJSON(raw)
		require.True(t, ok)
		assert.JSONEq(t, `{"dishes":["Dal"]}`, got)
	})

	t.Run("should extract array embedded in prose", func(t *testing.T) {
		got, ok := ExtractJSON(`Suggestions: [{"name":"Poha"}] thanks`)
		require.True(t, ok)
		assert.JSONEq(t, `[{"name":"Poha"}]`, got)
	})

	t.Run("should quote bare keys", func(t *testing.T) {
		got, ok := ExtractJSON(`{name: "Upma", description: "semolina"}`)
		require.True(t, ok)
		assert.JSONEq(t, `{"name":"Upma","description":"semolina"}`, got)
	})

	t.Run("should report plain text", func(t *testing.T) {
		_, ok := ExtractJSON("1. Idli: steamed rice cakes")
		assert.False(t, ok)
	})

	t.Run("should reject broken json", func(t *testing.T) {
		_, ok := ExtractJSON(`{"name": "Upma",`)
		assert.False(t, ok)
	})
}
