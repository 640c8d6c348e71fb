package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.ContextTTL != 30*time.Minute {
		t.Fatalf("ContextTTL = %v, want %v", cfg.ContextTTL, 30*time.Minute)
	}
	if cfg.ChatHistoryMax != 20 {
		t.Fatalf("ChatHistoryMax = %d, want 20", cfg.ChatHistoryMax)
	}
	if cfg.AssistantMode != "auto" {
		t.Fatalf("AssistantMode = %q, want %q", cfg.AssistantMode, "auto")
	}
	if cfg.AssistantTemperature != 0.7 {
		t.Fatalf("AssistantTemperature = %v, want 0.7", cfg.AssistantTemperature)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("CONTEXT_TTL", "5m")
	t.Setenv("CHAT_HISTORY_MAX", "8")
	t.Setenv("ASSISTANT_MODEL", "gpt-4o-mini")
	t.Setenv("ASSISTANT_BASE_URL", "https://router.example.com/v1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ContextTTL != 5*time.Minute {
		t.Fatalf("ContextTTL = %v, want 5m", cfg.ContextTTL)
	}
	if cfg.ChatHistoryMax != 8 {
		t.Fatalf("ChatHistoryMax = %d, want 8", cfg.ChatHistoryMax)
	}
	if cfg.AssistantModel != "gpt-4o-mini" {
		t.Fatalf("AssistantModel = %q", cfg.AssistantModel)
	}
	if cfg.AssistantBaseURL != "https://router.example.com/v1" {
		t.Fatalf("AssistantBaseURL = %q", cfg.AssistantBaseURL)
	}
}

func TestLoadRejectsOddHistoryMax(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("CHAT_HISTORY_MAX", "7")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject an odd CHAT_HISTORY_MAX")
	}
}

func TestLoadRejectsTinyTTL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("CONTEXT_TTL", "500ms")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject CONTEXT_TTL below 1s")
	}
}

func TestLoadRejectsOutOfRangeTemperature(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("ASSISTANT_TEMPERATURE", "2.5")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject ASSISTANT_TEMPERATURE above 2")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"DATABASE_URL",
		"REDIS_URL",
		"CONTEXT_TTL",
		"CHAT_HISTORY_MAX",
		"ASSISTANT_MODE",
		"ASSISTANT_MODEL",
		"ASSISTANT_API_KEY",
		"ASSISTANT_BASE_URL",
		"ASSISTANT_MAX_TOKENS",
		"ASSISTANT_TEMPERATURE",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
