package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	JWTSecret    string

	// Receipt pipeline collaborators
	SupabaseURL        string
	SupabaseServiceKey string
	StorageBucket      string
	OCRServiceURL      string
	OllamaURL          string
	OllamaModel        string

	// Pipeline tuning
	StorageTimeout  time.Duration
	OCRTimeout      time.Duration
	ParserTimeout   time.Duration
	PipelineWorkers int
	AutoPostLimit   string // decimal string, parsed at wiring time
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("SUPABASE_URL", "")
	viper.SetDefault("SUPABASE_SERVICE_KEY", "")
	viper.SetDefault("STORAGE_BUCKET", "receipts")
	viper.SetDefault("OCR_SERVICE_URL", "http://localhost:8081")
	viper.SetDefault("OLLAMA_URL", "http://localhost:11434")
	viper.SetDefault("OLLAMA_MODEL", "llama3.2")
	viper.SetDefault("STORAGE_TIMEOUT", "30s")
	viper.SetDefault("OCR_TIMEOUT", "30s")
	viper.SetDefault("PARSER_TIMEOUT", "30s")
	viper.SetDefault("PIPELINE_WORKERS", 4)
	viper.SetDefault("AUTO_POST_LIMIT", "1000")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.SupabaseURL = viper.GetString("SUPABASE_URL")
	cfg.SupabaseServiceKey = viper.GetString("SUPABASE_SERVICE_KEY")
	cfg.StorageBucket = viper.GetString("STORAGE_BUCKET")
	cfg.OCRServiceURL = viper.GetString("OCR_SERVICE_URL")
	cfg.OllamaURL = viper.GetString("OLLAMA_URL")
	cfg.OllamaModel = viper.GetString("OLLAMA_MODEL")

	cfg.StorageTimeout = parseDurationOr("STORAGE_TIMEOUT", 30*time.Second)
	cfg.OCRTimeout = parseDurationOr("OCR_TIMEOUT", 30*time.Second)
	cfg.ParserTimeout = parseDurationOr("PARSER_TIMEOUT", 30*time.Second)

	cfg.PipelineWorkers = viper.GetInt("PIPELINE_WORKERS")
	cfg.AutoPostLimit = viper.GetString("AUTO_POST_LIMIT")

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		return fallback
	}
	return d
}
