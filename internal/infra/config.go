package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	StoragePath string

	OpenAIAPIKey             string
	OpenAIBaseURL            string
	OpenAIRecipeModel        string
	OpenAINutritionModel     string
	OpenAIMetaModel          string
	OpenAIImageModel         string
	OpenAIImageFallbackModel string
	OpenAIImageSize          string
	OpenAIRequestTimeout     time.Duration

	UpstashSearchEnabled bool
	UpstashSearchURL     string
	UpstashSearchToken   string
	UpstashSearchIndex   string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StoragePath: getEnv("STORAGE_PATH", "./storage"),

		OpenAIAPIKey:             os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:            getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIRecipeModel:        getEnv("OPENAI_RECIPE_MODEL", "gpt-4o-mini"),
		OpenAINutritionModel:     getEnv("OPENAI_NUTRITION_MODEL", "gpt-4o-mini"),
		OpenAIMetaModel:          getEnv("OPENAI_META_MODEL", "gpt-4o-mini"),
		OpenAIImageModel:         getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
		OpenAIImageFallbackModel: getEnv("OPENAI_IMAGE_FALLBACK_MODEL", "dall-e-3"),
		OpenAIImageSize:          getEnv("OPENAI_IMAGE_SIZE", "1024x1024"),
		OpenAIRequestTimeout:     time.Second * time.Duration(getEnvInt("OPENAI_REQUEST_TIMEOUT_SECONDS", 60)),

		UpstashSearchEnabled: getEnvBool("UPSTASH_SEARCH_ENABLED", false),
		UpstashSearchURL:     os.Getenv("UPSTASH_SEARCH_REST_URL"),
		UpstashSearchToken:   os.Getenv("UPSTASH_SEARCH_REST_TOKEN"),
		UpstashSearchIndex:   getEnv("UPSTASH_SEARCH_INDEX", "recipes"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
