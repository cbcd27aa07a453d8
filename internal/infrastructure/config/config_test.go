package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, values map[string]interface{}) *viper.Viper {
	t.Helper()
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")
	t.Setenv("UPLOAD_BACKEND", "")
	t.Setenv("DATABASE_DRIVER", "")
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoad(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		cfg, err := Load(newViper(t, map[string]interface{}{"auth.jwt_secret": "s3cret"}))
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 120*time.Second, cfg.Server.RequestTimeout)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "local", cfg.Uploads.Backend)
		assert.Equal(t, 24*time.Hour, cfg.Uploads.Retention)
		assert.Equal(t, 72*time.Hour, cfg.Auth.TokenTTL)
		assert.Equal(t, time.Second, cfg.DedupWindow)
		assert.True(t, cfg.Cache.Enabled)
		assert.Equal(t, 1000, cfg.OpenRouter.MaxTokens)
	})

	t.Run("should read bound environment variables", func(t *testing.T) {
		v := newViper(t, nil)
		t.Setenv("JWT_SECRET", "from-env")
		t.Setenv("PORT", "9090")
		t.Setenv("OPENROUTER_MODEL", "vision/model")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "vision/model", cfg.OpenRouter.VisionModel)
	})

	t.Run("should require a jwt secret", func(t *testing.T) {
		_, err := Load(newViper(t, nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("should reject unknown drivers and backends", func(t *testing.T) {
		_, err := Load(newViper(t, map[string]interface{}{"auth.jwt_secret": "x", "database.driver": "mysql"}))
		assert.Error(t, err)

		_, err = Load(newViper(t, map[string]interface{}{"auth.jwt_secret": "x", "uploads.backend": "ftp"}))
		assert.Error(t, err)

		_, err = Load(newViper(t, map[string]interface{}{"auth.jwt_secret": "x", "uploads.backend": "s3"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "S3_BUCKET")
	})

	t.Run("should validate rate limit settings", func(t *testing.T) {
		_, err := Load(newViper(t, map[string]interface{}{"auth.jwt_secret": "x", "rate_limit.requests": 0}))
		assert.Error(t, err)
	})
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey(""))
	assert.Equal(t, "****", MaskAPIKey("12345678"))
	assert.Equal(t, "sk-o...wxyz", MaskAPIKey("sk-or-abcdwxyz"))
}
