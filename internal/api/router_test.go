package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutriguard/internal/api/handlers"
	"nutriguard/internal/api/handlers/health"
	recipeHandler "nutriguard/internal/api/handlers/recipe"
	userHandler "nutriguard/internal/api/handlers/user"
	"nutriguard/internal/core/auth"
	"nutriguard/internal/core/image"
	"nutriguard/internal/infrastructure/config"
	"nutriguard/internal/infrastructure/database"
	"nutriguard/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoChatter struct{}

func (echoChatter) Chat(ctx context.Context, message string) (string, error) {
	return "echo: " + message, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	uploads, err := storage.NewLocalStore(t.TempDir(), 24*time.Hour)
	require.NoError(t, err)
	images := image.NewService(1<<20, time.Second, uploads)
	authService := auth.NewService(storage.NewUserStore(db), "secret", time.Hour)
	profiles := storage.NewProfileStore(db)
	history := storage.NewHistoryStore(db)

	cfg := &config.Config{
		App:         config.AppConfig{Debug: true, Version: "test"},
		Server:      config.ServerConfig{RequestTimeout: time.Minute, MaxBodyBytes: 1 << 20},
		DedupWindow: time.Minute,
	}
	return SetupRouter(cfg, Handlers{
		Health:   health.NewHandler("test", nil, nil),
		AI:       handlers.NewAIHandler(echoChatter{}),
		Recipe:   recipeHandler.NewHandler(recipeHandler.Deps{Images: images, Profiles: profiles, History: history}),
		Auth:     userHandler.NewAuthHandler(authService),
		Profile:  userHandler.NewProfileHandler(profiles),
		Metrics:  userHandler.NewMetricsHandler(storage.NewMetricsStore(db)),
		History:  userHandler.NewHistoryHandler(history),
		Uploads:  userHandler.NewUploadHandler(uploads, images, 24*time.Hour),
		Verifier: authService,
	})
}

func call(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter(t *testing.T) {
	r := newTestRouter(t)

	t.Run("should expose health endpoints with request ids", func(t *testing.T) {
		w := call(r, http.MethodGet, "/live", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("should protect user routes", func(t *testing.T) {
		w := call(r, http.MethodGet, "/user/profile", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		w = call(r, http.MethodGet, "/history", "garbage", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	w := call(r, http.MethodPost, "/register", "", `{"username":"asha","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var session auth.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))

	t.Run("should serve the profile for the token owner", func(t *testing.T) {
		w := call(r, http.MethodPost, "/user/profile", session.Token, `{"age":70}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = call(r, http.MethodGet, "/user/profile", session.Token, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"age":70`)
	})

	t.Run("should reject duplicate metric saves", func(t *testing.T) {
		body := `{"day":"2024-05-01","nutrition":{"items":[{"name":"idli","calories":120}]}}`
		assert.Equal(t, http.StatusOK, call(r, http.MethodPost, "/metrics/save", session.Token, body).Code)
		assert.Equal(t, http.StatusTooManyRequests, call(r, http.MethodPost, "/metrics/save", session.Token, body).Code)

		w := call(r, http.MethodGet, "/metrics/day/2024-05-01", session.Token, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "idli")
	})

	t.Run("should answer chat without auth", func(t *testing.T) {
		w := call(r, http.MethodPost, "/chat", "", `{"message":"hi"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"response":"echo: hi"}`, w.Body.String())
	})

	t.Run("should require an image for recognition", func(t *testing.T) {
		w := call(r, http.MethodPost, "/identify-food", session.Token, `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
