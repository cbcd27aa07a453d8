package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutriguard/internal/core/ai/provider"
	"nutriguard/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.OpenRouterConfig{
		BaseURL:   srv.URL,
		APIKey:    "sk-test",
		MaxTokens: 300,
		Timeout:   5 * time.Second,
		Referer:   "https://nutriguard.local",
		Title:     "NutriGuard",
	})
}

func TestComplete(t *testing.T) {
	t.Run("should send image messages and read the first choice", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			assert.Equal(t, "https://nutriguard.local", r.Header.Get("HTTP-Referer"))
			assert.Equal(t, "NutriGuard", r.Header.Get("X-Title"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var req struct {
				Model     string `json:"model"`
				MaxTokens int    `json:"max_tokens"`
				Messages  []struct {
					Role    string `json:"role"`
					Content []struct {
						Type     string `json:"type"`
						Text     string `json:"text"`
						ImageURL struct {
							URL string `json:"url"`
						} `json:"image_url"`
					} `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, "vision-model", req.Model)
			assert.Equal(t, 300, req.MaxTokens)
			require.Len(t, req.Messages, 1)
			require.Len(t, req.Messages[0].Content, 2)
			assert.Equal(t, "what food?", req.Messages[0].Content[0].Text)
			assert.Equal(t, "data:image/png;base64,AAAA", req.Messages[0].Content[1].ImageURL.URL)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"gen-1","choices":[{"message":{"role":"assistant","content":"Rice, Dal"}}]}`))
		})

		resp, err := c.Complete(context.Background(), &provider.ChatRequest{
			Model:    "vision-model",
			Messages: []provider.Message{provider.UserWithImage("what food?", "data:image/png;base64,AAAA")},
		})
		require.NoError(t, err)
		content, err := resp.Content()
		require.NoError(t, err)
		assert.Equal(t, "Rice, Dal", content)
	})

	t.Run("should surface body error objects even with status 200", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"error":{"message":"No endpoints found","code":404}}`))
		})

		_, err := c.Complete(context.Background(), &provider.ChatRequest{Model: "m", Messages: []provider.Message{provider.UserText("hi")}})
		var apiErr *provider.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "No endpoints found", apiErr.Message)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("should fail on non-200 status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("upstream down"))
		})

		_, err := c.Complete(context.Background(), &provider.ChatRequest{Model: "m", Messages: []provider.Message{provider.UserText("hi")}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("should fail on unparseable body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>oops</html>"))
		})

		_, err := c.Complete(context.Background(), &provider.ChatRequest{Model: "m", Messages: []provider.Message{provider.UserText("hi")}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse")
	})
}

func TestSanitizeBody(t *testing.T) {
	assert.Equal(t, "[IMAGE_DATA_REMOVED]", sanitizeBody([]byte(`{"url":"data:image/png;base64,AAAA"}`)))
	long := strings.Repeat("x", maxLoggedBody+10)
	assert.Equal(t, strings.Repeat("x", maxLoggedBody)+"...", sanitizeBody([]byte(long)))
	assert.Equal(t, "short", sanitizeBody([]byte("short")))
}
