package api

import (
	"time"

	"nutriguard/internal/api/handlers"
	"nutriguard/internal/api/handlers/health"
	recipeHandler "nutriguard/internal/api/handlers/recipe"
	userHandler "nutriguard/internal/api/handlers/user"
	"nutriguard/internal/api/middleware"
	"nutriguard/internal/infrastructure/config"
	"nutriguard/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers 路由使用的處理器
type Handlers struct {
	Health   *health.Handler
	AI       *handlers.AIHandler
	Recipe   *recipeHandler.Handler
	Auth     *userHandler.AuthHandler
	Profile  *userHandler.ProfileHandler
	Metrics  *userHandler.MetricsHandler
	History  *userHandler.HistoryHandler
	Uploads  *userHandler.UploadHandler
	Verifier middleware.TokenVerifier
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.Server.MaxBodyBytes > 0 {
		router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	}
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	if cfg.Server.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	// 健康檢查路由
	router.GET("/health", h.Health.HealthCheck)
	router.GET("/ready", h.Health.ReadinessCheck)
	router.GET("/live", h.Health.LivenessCheck)

	// 帳號
	router.POST("/register", h.Auth.Register)
	router.POST("/login", h.Auth.Login)

	// 上傳
	router.POST("/upload", h.Uploads.Upload)
	router.GET("/uploads/:id", h.Uploads.Serve)

	// 辨識與推薦，登入時套用個人資料預設篩選
	optional := router.Group("/", middleware.OptionalAuth(h.Verifier))
	{
		optional.POST("/identify-food", h.Recipe.IdentifyFood)
		optional.POST("/identify-raw-ingredients", h.Recipe.IdentifyRawIngredients)
		optional.POST("/suggestions/filtered", h.Recipe.SuggestFiltered)
	}

	router.POST("/chat", h.AI.Chat)

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	authed := router.Group("/", middleware.RequireAuth(h.Verifier))
	{
		authed.GET("/user/profile", h.Profile.Get)
		authed.POST("/user/profile", h.Profile.Save)

		authed.POST("/metrics/save", dedup.Middleware(), h.Metrics.Save)
		authed.GET("/metrics/day/:day", h.Metrics.GetDay)
		authed.GET("/metrics", h.Metrics.List)

		authed.GET("/history", h.History.List)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
