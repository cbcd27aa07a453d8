package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"nutriguard/internal/core/ai/cache"
	"nutriguard/internal/core/ai/provider"
	"nutriguard/internal/infrastructure/config"
	"nutriguard/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	resp     *provider.ChatResponse
	err      error
	requests []*provider.ChatRequest
}

func (f *fakeProvider) Complete(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

func (f *fakeProvider) Close() error { return nil }

func reply(content string) *provider.ChatResponse {
	resp := &provider.ChatResponse{Choices: make([]provider.Choice, 1)}
	resp.Choices[0].Message.Content = content
	return resp
}

func newCache(t *testing.T) *cache.CacheManager {
	t.Helper()
	m := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Hour, CleanupInterval: time.Hour})
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestProcessRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("should default to vision model and cache successes", func(t *testing.T) {
		p := &fakeProvider{resp: reply("Rice")}
		s := NewService(p, newCache(t), "vision", "chat", time.Second)

		task := Task{Prompt: "identify", ImageDataURI: "data:image/png;base64,AAAA"}
		got, err := s.ProcessRequest(ctx, task)
		require.NoError(t, err)
		assert.Equal(t, "Rice", got)

		got, err = s.ProcessRequest(ctx, task)
		require.NoError(t, err)
		assert.Equal(t, "Rice", got)

		require.Len(t, p.requests, 1)
		assert.Equal(t, "vision", p.requests[0].Model)
		require.Len(t, p.requests[0].Messages[0].Parts, 2)
	})

	t.Run("should send text only prompts without parts", func(t *testing.T) {
		p := &fakeProvider{resp: reply("ok")}
		s := NewService(p, nil, "vision", "chat", 0)

		_, err := s.ProcessRequest(ctx, Task{Model: "custom", Prompt: "suggest"})
		require.NoError(t, err)
		assert.Equal(t, "custom", p.requests[0].Model)
		assert.Empty(t, p.requests[0].Messages[0].Parts)
		assert.Equal(t, "suggest", p.requests[0].Messages[0].Text)
	})

	t.Run("should not cache failures", func(t *testing.T) {
		p := &fakeProvider{err: errors.New("connection reset")}
		s := NewService(p, newCache(t), "vision", "chat", time.Second)

		_, err := s.ProcessRequest(ctx, Task{Prompt: "x"})
		require.Error(t, err)
		_, err = s.ProcessRequest(ctx, Task{Prompt: "x"})
		require.Error(t, err)
		assert.Len(t, p.requests, 2)
	})

	t.Run("should classify upstream errors as bad gateway", func(t *testing.T) {
		cases := []*fakeProvider{
			{err: errors.New("timeout")},
			{err: &provider.APIError{Message: "rate limited"}},
			{resp: &provider.ChatResponse{}},
			{resp: &provider.ChatResponse{Error: &provider.APIError{Message: "bad model"}}},
		}
		for _, p := range cases {
			_, err := NewService(p, nil, "vision", "chat", 0).ProcessRequest(ctx, Task{Prompt: "x"})
			require.Error(t, err)
			assert.Equal(t, http.StatusBadGateway, common.StatusOf(err))
		}
	})

	t.Run("should expose api error details", func(t *testing.T) {
		p := &fakeProvider{resp: &provider.ChatResponse{Error: &provider.APIError{Message: "bad model"}}}
		_, err := NewService(p, nil, "vision", "chat", 0).ProcessRequest(ctx, Task{Prompt: "x"})
		var apiErr *provider.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "bad model", apiErr.Message)
	})
}

func TestChat(t *testing.T) {
	p := &fakeProvider{resp: reply("Hello!")}
	s := NewService(p, newCache(t), "vision", "chat", time.Second)

	for i := 0; i < 2; i++ {
		got, err := s.Chat(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, "Hello!", got)
	}
	require.Len(t, p.requests, 2)
	assert.Equal(t, "chat", p.requests[0].Model)
}
