package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all process configuration for the bot
type Config struct {
	// Freelancer API
	FreelancerToken  string
	FreelancerUserID int64
	FreelancerAPIURL string
	HTTPTimeout      time.Duration

	// Telegram
	TelegramToken  string
	TelegramChatID int64

	// Mode
	DryRun bool
	Debug  bool

	// Storage
	DatabaseURL string
	RedisURL    string
	DataDir     string

	// Dashboard / API server
	Port int

	// SDLC document generation
	OpenAIKey     string
	AnthropicKey  string
	GoogleKey     string
	SDLCMinBudget decimal.Decimal

	// Bot behavior (bot_config.json)
	BotConfigPath string
	Bot           *BotConfig
}

// Load loads configuration from environment variables and the bot config file
func Load() (*Config, error) {
	cfg := &Config{
		// Freelancer API
		FreelancerToken:  os.Getenv("FREELANCER_OAUTH_TOKEN"),
		FreelancerAPIURL: getEnv("FREELANCER_API_URL", "https://www.freelancer.com/api"),
		HTTPTimeout:      getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		// Telegram
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		// Mode
		DryRun: getEnvBool("DRY_RUN", false),
		Debug:  getEnvBool("DEBUG", false),

		// Storage
		DataDir:  getEnv("DATA_DIR", "data"),
		RedisURL: os.Getenv("REDIS_URL"),

		// Server
		Port: getEnvInt("PORT", 8080),

		// SDLC
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:  os.Getenv("ANTHROPIC_API_KEY"),
		GoogleKey:     os.Getenv("GOOGLE_API_KEY"),
		SDLCMinBudget: getEnvDecimal("SDLC_MIN_BUDGET", decimal.NewFromInt(500)),

		BotConfigPath: getEnv("BOT_CONFIG", "bot_config.json"),
	}
	cfg.DatabaseURL = getEnv("DATABASE_URL", filepath.Join(cfg.DataDir, "autowork.db"))

	if userID := os.Getenv("FREELANCER_USER_ID"); userID != "" {
		id, err := strconv.ParseInt(userID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid FREELANCER_USER_ID: %w", err)
		}
		cfg.FreelancerUserID = id
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	bot, err := LoadBotConfig(cfg.BotConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Bot = bot

	return cfg, nil
}

// RequireBidding checks the fields the bidding loop cannot run without
func (c *Config) RequireBidding() error {
	if c.FreelancerToken == "" {
		return fmt.Errorf("FREELANCER_OAUTH_TOKEN is required")
	}
	if c.FreelancerUserID == 0 {
		return fmt.Errorf("FREELANCER_USER_ID is required")
	}
	return nil
}

// DataPath resolves a cache or state file inside DataDir
func (c *Config) DataPath(name string) string {
	return filepath.Join(c.DataDir, name)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
