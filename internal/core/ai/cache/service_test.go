package cache

import (
	"context"
	"testing"
	"time"

	"nutriguard/internal/infrastructure/config"
	"nutriguard/internal/pkg/common"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisService(t *testing.T, ttl time.Duration) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewServiceWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "nutrition:", ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestServiceRedis(t *testing.T) {
	ctx := context.Background()

	t.Run("should connect through config", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := NewService(ctx, config.RedisConfig{Addr: mr.Addr()}, "nutrition:", time.Hour)
		require.NoError(t, err)
		defer s.Close()
		assert.True(t, s.Enabled())
		assert.NoError(t, s.Ping(ctx))
	})

	t.Run("should fail when redis is unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := NewService(ctx, config.RedisConfig{Addr: addr}, "nutrition:", time.Hour)
		assert.Error(t, err)
	})

	t.Run("should round trip json with prefix and ttl", func(t *testing.T) {
		s, mr := newRedisService(t, time.Hour)
		require.NoError(t, s.SetJSON(ctx, "rice", []string{"a", "b"}))

		assert.True(t, mr.Exists("nutrition:rice"))
		assert.Equal(t, time.Hour, mr.TTL("nutrition:rice"))

		var got []string
		require.NoError(t, s.GetJSON(ctx, "rice", &got))
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("should report misses and expiry", func(t *testing.T) {
		s, mr := newRedisService(t, time.Minute)
		var got []string
		assert.ErrorIs(t, s.GetJSON(ctx, "dal", &got), common.ErrCacheMiss)

		require.NoError(t, s.SetJSON(ctx, "dal", []string{"x"}))
		mr.FastForward(2 * time.Minute)
		assert.ErrorIs(t, s.GetJSON(ctx, "dal", &got), common.ErrCacheMiss)
	})

	t.Run("should distinguish redis errors from misses", func(t *testing.T) {
		s, mr := newRedisService(t, time.Minute)
		mr.SetError("ERR cache unavailable")

		var got []string
		err := s.GetJSON(ctx, "dal", &got)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrCacheMiss)
		assert.Error(t, s.SetJSON(ctx, "dal", []string{"x"}))
	})

	t.Run("should reject corrupt entries", func(t *testing.T) {
		s, mr := newRedisService(t, time.Minute)
		require.NoError(t, mr.Set("nutrition:bad", "{not json"))

		var got []string
		err := s.GetJSON(ctx, "bad", &got)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrCacheMiss)
	})
}
