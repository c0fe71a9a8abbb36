package config

import (
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application's configuration. It is constructed once by
// Load at process start and passed explicitly into the store, the extraction
// service and the pipeline; core logic never reads the environment itself.
type Config struct {
	Env          string // "dev" enables the destructive database reset
	DatabasePath string // SQLite file path, or "memory" for an in-memory database

	LLMAPIKey  string
	LLMModel   string
	LLMBaseURL string // OpenAI-compatible endpoint (defaults to Mistral's API)

	PostmarkServerToken string
	ReceiverMail        string
	SenderMail          string
}

// IsDev reports whether the process runs in development mode.
func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Env, "dev")
}

// Load reads configuration from a .env file (if present) and the process
// environment, applies defaults, and validates the values the pipeline
// cannot run without.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: [Config] No .env file found, relying on the process environment.")
	} else {
		log.Println("INFO: [Config] Loaded environment variables from .env file.")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("MESSAGE_DB_PATH", "memory")
	v.SetDefault("LLM_BASE_URL", "https://api.mistral.ai/v1")

	cfg := &Config{
		Env:                 v.GetString("ENV"),
		DatabasePath:        v.GetString("MESSAGE_DB_PATH"),
		LLMAPIKey:           v.GetString("MISTRAL_API_KEY"),
		LLMModel:            v.GetString("MISTRAL_MODEL"),
		LLMBaseURL:          v.GetString("LLM_BASE_URL"),
		PostmarkServerToken: v.GetString("POSTMARK_SERVER_API_TOKEN"),
		ReceiverMail:        v.GetString("RECEIVER_MAIL"),
		SenderMail:          v.GetString("SENDER_MAIL"),
	}

	if cfg.LLMAPIKey == "" {
		return nil, errors.New("MISTRAL_API_KEY is not set")
	}
	if cfg.LLMModel == "" {
		return nil, errors.New("MISTRAL_MODEL is not set")
	}
	if cfg.ReceiverMail != "" && cfg.PostmarkServerToken == "" {
		log.Println("WARN: [Config] RECEIVER_MAIL is set but POSTMARK_SERVER_API_TOKEN is not; mail delivery will be skipped.")
	}

	log.Println("INFO: [Config] Configuration loading complete.")
	return cfg, nil
}
