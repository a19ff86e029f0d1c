package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface. Values come from defaults,
// then an optional config.yaml, then environment variables (highest
// precedence). A .env file is loaded into the environment when present.
type Config struct {
	GeminiAPIKey string `yaml:"-"` // secrets stay out of the yaml file
	DatabaseURL  string `yaml:"database_url"`
	HTTPPort     string `yaml:"http_port"`
	DocsDir      string `yaml:"docs_dir"`
	LogLevel     string `yaml:"log_level"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	MaxResults   int `yaml:"max_results"`
	MaxHistory   int `yaml:"max_history"`

	ModelTimeoutSecs int `yaml:"model_timeout_secs"`
	EmbedTimeoutSecs int `yaml:"embed_timeout_secs"`
}

func defaults() *Config {
	return &Config{
		DatabaseURL:      "course_chatbot.db",
		HTTPPort:         "8080",
		DocsDir:          "./docs",
		LogLevel:         "INFO",
		ChunkSize:        800,
		ChunkOverlap:     100,
		MaxResults:       5,
		MaxHistory:       2,
		ModelTimeoutSecs: 60,
		EmbedTimeoutSecs: 30,
	}
}

// Load builds the configuration. The GEMINI_API_KEY environment variable
// is required; everything else has a default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := defaults()
	if err := applyYAML(cfg, getEnv("CONFIG_FILE", "config.yaml")); err != nil {
		return nil, err
	}

	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", "")
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.DocsDir = getEnv("DOCS_DIR", cfg.DocsDir)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ChunkSize = getEnvAsInt("CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkOverlap = getEnvAsInt("CHUNK_OVERLAP", cfg.ChunkOverlap)
	cfg.MaxResults = getEnvAsInt("MAX_RESULTS", cfg.MaxResults)
	cfg.MaxHistory = getEnvAsInt("MAX_HISTORY", cfg.MaxHistory)
	cfg.ModelTimeoutSecs = getEnvAsInt("MODEL_TIMEOUT_SECS", cfg.ModelTimeoutSecs)
	cfg.EmbedTimeoutSecs = getEnvAsInt("EMBED_TIMEOUT_SECS", cfg.EmbedTimeoutSecs)

	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is required")
	}
	return cfg, nil
}

func applyYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
