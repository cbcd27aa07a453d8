package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Nutrition   NutritionConfig   `mapstructure:"nutrition"`
	Recipe      RecipeConfig      `mapstructure:"recipe"`
	ImageSearch ImageSearchConfig `mapstructure:"image_search"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Uploads     UploadsConfig     `mapstructure:"uploads"`
	Cache       CacheConfig       `mapstructure:"cache"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Image       ImageConfig       `mapstructure:"image"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
	LogDir      string            `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	VisionModel string        `mapstructure:"vision_model"`
	ChatModel   string        `mapstructure:"chat_model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Referer     string        `mapstructure:"referer"`
	Title       string        `mapstructure:"title"`
}

// NutritionConfig 營養查詢 API 配置
type NutritionConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// RecipeConfig 食譜查詢 API 配置
type RecipeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ImageSearchConfig 圖片搜尋 API 配置
type ImageSearchConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	EngineID string        `mapstructure:"engine_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AuthConfig 身分驗證配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// DatabaseConfig 資料庫配置
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig Redis 配置，Addr 為空表示停用
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// UploadsConfig 上傳檔案配置
type UploadsConfig struct {
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	S3Bucket      string        `mapstructure:"s3_bucket"`
	S3Region      string        `mapstructure:"s3_region"`
	S3Prefix      string        `mapstructure:"s3_prefix"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64         `mapstructure:"max_size_bytes"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// envBindings 常用環境變數與設定鍵的對應
var envBindings = map[string]string{
	"openrouter.api_key":      "OPENROUTER_API_KEY",
	"openrouter.vision_model": "OPENROUTER_MODEL",
	"openrouter.chat_model":   "OPENROUTER_CHAT_MODEL",
	"openrouter.max_tokens":   "MODEL_MAX_TOKENS",
	"nutrition.api_key":       "NUTRITION_API_KEY",
	"recipe.api_key":          "SPOONACULAR_API_KEY",
	"image_search.api_key":    "GOOGLE_CSE_KEY",
	"image_search.engine_id":  "GOOGLE_CSE_CX",
	"auth.jwt_secret":         "JWT_SECRET",
	"database.driver":         "DATABASE_DRIVER",
	"database.dsn":            "DATABASE_DSN",
	"redis.addr":              "REDIS_ADDR",
	"redis.password":          "REDIS_PASSWORD",
	"uploads.backend":         "UPLOAD_BACKEND",
	"uploads.dir":             "UPLOAD_DIR",
	"uploads.retention":       "UPLOAD_RETENTION",
	"uploads.s3_bucket":       "S3_BUCKET",
	"uploads.s3_region":       "AWS_REGION",
	"cache.enabled":           "CACHE_ENABLED",
	"rate_limit.enabled":      "RATE_LIMIT_ENABLED",
	"rate_limit.requests":     "RATE_LIMIT_REQUESTS",
	"rate_limit.window":       "RATE_LIMIT_WINDOW",
	"dedup_window":            "DEDUP_WINDOW",
	"log_level":               "LOG_LEVEL",
	"server.port":             "PORT",
}

// LoadConfig 載入設定；.env 不存在時只使用環境變數與預設值
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(viper.New())
}

// Load 以指定的 viper 實例解析設定
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "nutriguard")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 12<<20)

	// OpenRouter 設定
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.vision_model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("openrouter.chat_model", "meta-llama/llama-3.3-8b-instruct:free")
	v.SetDefault("openrouter.max_tokens", 1000)
	v.SetDefault("openrouter.timeout", "60s")
	v.SetDefault("openrouter.referer", "https://nutriguard.app")
	v.SetDefault("openrouter.title", "NutriGuard")

	// 外部查詢服務
	v.SetDefault("nutrition.base_url", "https://api.api-ninjas.com/v1")
	v.SetDefault("nutrition.timeout", "10s")
	v.SetDefault("nutrition.cache_ttl", "24h")
	v.SetDefault("recipe.base_url", "https://api.spoonacular.com")
	v.SetDefault("recipe.timeout", "10s")
	v.SetDefault("image_search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("image_search.timeout", "8s")

	// 身分驗證
	v.SetDefault("auth.token_ttl", "72h")

	// 資料庫
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "nutriguard.db")

	// 上傳檔案
	v.SetDefault("uploads.backend", "local")
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.retention", "24h")
	v.SetDefault("uploads.sweep_interval", "1h")
	v.SetDefault("uploads.s3_prefix", "uploads/")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "6h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB
	v.SetDefault("image.fetch_timeout", "10s")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl")
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	switch cfg.Uploads.Backend {
	case "local":
		if cfg.Uploads.Dir == "" {
			return fmt.Errorf("upload dir is required")
		}
	case "s3":
		if cfg.Uploads.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 uploads")
		}
	default:
		return fmt.Errorf("unsupported upload backend %q", cfg.Uploads.Backend)
	}
	if cfg.Uploads.Retention <= 0 || cfg.Uploads.SweepInterval <= 0 {
		return fmt.Errorf("invalid upload retention settings")
	}

	// 驗證快取設定
	if cfg.Cache.Enabled {
		if cfg.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if cfg.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if cfg.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}

	return nil
}
