package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv  string
	Port     string
	Database DatabaseConfig
	AI       AIConfig
	Log      LogConfig
	Search   SearchConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// AIConfig holds completion service configuration
type AIConfig struct {
	GeminiAPIKey   string
	Model          string
	Timeout        time.Duration
	RatePerMinute  int
	Temperature    float32
	GenerateDetail bool // synthesize missing product details on first view
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level    string
	Format   string
	Output   string
	FilePath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	search := DefaultSearchConfig()
	if path := os.Getenv("SEARCH_CONFIG"); path != "" {
		loaded, err := LoadSearchConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load search config: %w", err)
		}
		search = loaded
	}
	if v := os.Getenv("AI_SEARCH_ENABLED"); v != "" {
		search.AIEnabled = v == "true"
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		// No completion service: the engine runs on deterministic tiers only
		search.AIEnabled = false
	}

	return &Config{
		NodeEnv: getEnv("NODE_ENV", "development"),
		Port:    getEnv("PORT", "3220"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "pharmsearch"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		AI: AIConfig{
			GeminiAPIKey:   apiKey,
			Model:          getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout:        time.Duration(getEnvInt("AI_TIMEOUT_SECONDS", 15)) * time.Second,
			RatePerMinute:  getEnvInt("AI_RATE_PER_MINUTE", 60),
			Temperature:    float32(getEnvFloat("AI_TEMPERATURE", 0.2)),
			GenerateDetail: getEnv("AI_GENERATE_DETAIL", "true") == "true",
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Format:   getEnv("LOG_FORMAT", "json"),
			Output:   getEnv("LOG_OUTPUT", "stdout"),
			FilePath: getEnv("LOG_FILE", "logs/pharmsearch.log"),
		},
		Search: search,
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
