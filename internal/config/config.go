package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the tutor backend.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	DatabaseURL string

	RedisURL       string
	ContextTTL     time.Duration
	ChatHistoryMax int

	AssistantMode        string
	AssistantModel       string
	AssistantAPIKey      string
	AssistantBaseURL     string
	AssistantMaxTokens   int
	AssistantTemperature float64
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "linguai"),
		AllowAnyOrigin:   false,
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		RedisURL:         stringsTrimSpace("REDIS_URL"),
		ContextTTL:       30 * time.Minute,
		ChatHistoryMax:   20,
		AssistantMode:    envOrDefault("ASSISTANT_MODE", "auto"),
		// Default to an open instruct model served through OpenAI-compatible routers.
		AssistantModel:       envOrDefault("ASSISTANT_MODEL", "meta-llama/Llama-3.1-8B-Instruct"),
		AssistantAPIKey:      stringsTrimSpace("ASSISTANT_API_KEY"),
		AssistantBaseURL:     stringsTrimSpace("ASSISTANT_BASE_URL"),
		AssistantMaxTokens:   256,
		AssistantTemperature: 0.7,
		ShutdownTimeout:      15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ContextTTL, err = durationFromEnv("CONTEXT_TTL", cfg.ContextTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.ChatHistoryMax, err = intFromEnv("CHAT_HISTORY_MAX", cfg.ChatHistoryMax)
	if err != nil {
		return Config{}, err
	}
	cfg.AssistantMaxTokens, err = intFromEnv("ASSISTANT_MAX_TOKENS", cfg.AssistantMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.AssistantTemperature, err = floatFromEnv("ASSISTANT_TEMPERATURE", cfg.AssistantTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.ContextTTL < time.Second {
		return Config{}, fmt.Errorf("CONTEXT_TTL must be at least 1s")
	}
	if cfg.ChatHistoryMax <= 0 {
		return Config{}, fmt.Errorf("CHAT_HISTORY_MAX must be positive")
	}
	if cfg.ChatHistoryMax%2 != 0 {
		// History holds user/assistant pairs; an odd cap would split a turn.
		return Config{}, fmt.Errorf("CHAT_HISTORY_MAX must be even")
	}
	if cfg.AssistantMaxTokens <= 0 {
		return Config{}, fmt.Errorf("ASSISTANT_MAX_TOKENS must be positive")
	}
	if cfg.AssistantTemperature < 0 || cfg.AssistantTemperature > 2 {
		return Config{}, fmt.Errorf("ASSISTANT_TEMPERATURE must be in [0, 2]")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
