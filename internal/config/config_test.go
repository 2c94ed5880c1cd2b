package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.ContextTTL != 24*time.Hour {
		t.Fatalf("ContextTTL = %v, want 24h", cfg.ContextTTL)
	}
	if cfg.ContextWindow != 6 {
		t.Fatalf("ContextWindow = %d, want 6", cfg.ContextWindow)
	}
	if cfg.MaxTokens != 500 {
		t.Fatalf("MaxTokens = %d, want 500", cfg.MaxTokens)
	}
	if cfg.ToolTimeout != 15*time.Second {
		t.Fatalf("ToolTimeout = %v, want 15s", cfg.ToolTimeout)
	}
	if cfg.MaxJobsPerSource != 5 {
		t.Fatalf("MaxJobsPerSource = %d, want 5", cfg.MaxJobsPerSource)
	}
	if cfg.BiasThreshold != 0.8 {
		t.Fatalf("BiasThreshold = %v, want 0.8", cfg.BiasThreshold)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty default", cfg.DatabaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("CONTEXT_TTL", "1h")
	t.Setenv("CONTEXT_WINDOW", "4")
	t.Setenv("BIAS_THRESHOLD", "0.9")
	t.Setenv("STRICT_PROFANITY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ContextTTL != time.Hour {
		t.Fatalf("ContextTTL = %v, want 1h", cfg.ContextTTL)
	}
	if cfg.ContextWindow != 4 {
		t.Fatalf("ContextWindow = %d, want 4", cfg.ContextWindow)
	}
	if cfg.BiasThreshold != 0.9 {
		t.Fatalf("BiasThreshold = %v, want 0.9", cfg.BiasThreshold)
	}
	if !cfg.StrictProfanity {
		t.Fatalf("StrictProfanity = false, want true")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("CONTEXT_TTL", "10s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want sub-minute TTL rejected")
	}

	setCoreEnvEmpty(t)
	t.Setenv("BIAS_THRESHOLD", "1.5")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want out-of-range threshold rejected")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_DATA_DIR",
		"AWS_REGION",
		"AWS_ACCOUNT_ID",
		"BEDROCK_MODEL_ID",
		"BEDROCK_GUARDRAIL_ID",
		"BEDROCK_GUARDRAIL_VERSION",
		"BEDROCK_MAX_TOKENS",
		"CONTEXT_TTL",
		"CONTEXT_WINDOW",
		"HISTORY_LIMIT",
		"TOOL_TIMEOUT",
		"MAX_JOBS_PER_SOURCE",
		"BIAS_MODEL_PATH",
		"BIAS_THRESHOLD",
		"STRICT_PROFANITY",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
