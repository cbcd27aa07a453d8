package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutriguard/internal/api"
	"nutriguard/internal/api/handlers"
	"nutriguard/internal/api/handlers/health"
	recipeHandler "nutriguard/internal/api/handlers/recipe"
	userHandler "nutriguard/internal/api/handlers/user"
	"nutriguard/internal/core/ai/cache"
	"nutriguard/internal/core/ai/openrouter"
	"nutriguard/internal/core/ai/service"
	"nutriguard/internal/core/auth"
	"nutriguard/internal/core/image"
	"nutriguard/internal/core/nutrition"
	"nutriguard/internal/core/recipe"
	"nutriguard/internal/infrastructure/config"
	"nutriguard/internal/infrastructure/database"
	"nutriguard/internal/pkg/common"
	"nutriguard/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_api_key", config.MaskAPIKey(cfg.OpenRouter.APIKey)),
		zap.String("vision_model", cfg.OpenRouter.VisionModel),
		zap.String("chat_model", cfg.OpenRouter.ChatModel),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("upload_backend", cfg.Uploads.Backend),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 資料庫
	db, err := database.Open(cfg.Database)
	if err != nil {
		common.LogFatal("Failed to open database", zap.Error(err))
	}
	defer database.Close(db)
	if err := storage.Migrate(db); err != nil {
		common.LogFatal("Failed to migrate database", zap.Error(err))
	}

	// 模型回應快取
	cacheManager := cache.NewManager(cfg.Cache)
	defer cacheManager.Close()

	// 營養查詢快取，Redis 無法連線時停用
	nutritionCache, err := cache.NewService(ctx, cfg.Redis, "nutrition:", cfg.Nutrition.CacheTTL)
	if err != nil {
		common.LogWarn("Redis 無法連線，停用營養查詢快取", zap.Error(err))
		nutritionCache = nil
	}
	defer nutritionCache.Close()

	uploads, err := newUploadStore(ctx, cfg.Uploads)
	if err != nil {
		common.LogFatal("Failed to initialize upload store", zap.Error(err))
	}

	provider := openrouter.NewClient(cfg.OpenRouter)
	defer provider.Close()
	aiService := service.NewService(provider, cacheManager, cfg.OpenRouter.VisionModel, cfg.OpenRouter.ChatModel, cfg.OpenRouter.Timeout)

	imageService := image.NewService(cfg.Image.MaxSizeBytes, cfg.Image.FetchTimeout, uploads)

	// 未設定金鑰的外部服務保持為 nil 介面
	var lookup nutrition.Lookuper
	if c := nutrition.NewClient(cfg.Nutrition, nutritionCache); c != nil {
		lookup = c
	} else {
		common.LogWarn("未設定營養查詢金鑰，辨識結果不含營養資訊")
	}
	var recipes recipe.RecipeFinder
	if c := recipe.NewSpoonacularClient(cfg.Recipe); c != nil {
		recipes = c
	}
	var images recipe.ImageFinder
	if c := recipe.NewImageSearchClient(cfg.ImageSearch); c != nil {
		images = c
	}
	enricher := recipe.NewEnricher(recipes, images)

	users := storage.NewUserStore(db)
	profiles := storage.NewProfileStore(db)
	history := storage.NewHistoryStore(db)
	authService := auth.NewService(users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	router := api.SetupRouter(cfg, api.Handlers{
		Health: health.NewHandler(cfg.App.Version, dbPinger(db), cacheManager),
		AI:     handlers.NewAIHandler(aiService),
		Recipe: recipeHandler.NewHandler(recipeHandler.Deps{
			Food:        recipe.NewFoodService(aiService, lookup),
			Ingredients: recipe.NewIngredientService(aiService, enricher),
			Suggestions: recipe.NewSuggestionService(aiService, enricher),
			Images:      imageService,
			Profiles:    profiles,
			History:     history,
		}),
		Auth:     userHandler.NewAuthHandler(authService),
		Profile:  userHandler.NewProfileHandler(profiles),
		Metrics:  userHandler.NewMetricsHandler(storage.NewMetricsStore(db)),
		History:  userHandler.NewHistoryHandler(history),
		Uploads:  userHandler.NewUploadHandler(uploads, imageService, cfg.Uploads.Retention),
		Verifier: authService,
	})

	// 背景清理過期上傳
	sweeper := storage.NewSweeper(uploads, cfg.Uploads.Retention, cfg.Uploads.SweepInterval)
	sweeper.Start(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}

// newUploadStore 依設定建立上傳儲存
func newUploadStore(ctx context.Context, cfg config.UploadsConfig) (storage.UploadStore, error) {
	if cfg.Backend == "s3" {
		return storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix, cfg.Retention)
	}
	return storage.NewLocalStore(cfg.Dir, cfg.Retention)
}

func dbPinger(db *gorm.DB) health.PingFunc {
	return func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}
}
