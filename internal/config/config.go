package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the career guidance service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	AWSRegion        string
	AWSAccountID     string
	ModelID          string
	GuardrailID      string
	GuardrailVersion string
	MaxTokens        int

	ContextTTL    time.Duration
	ContextWindow int
	HistoryLimit  int

	ToolTimeout      time.Duration
	MaxJobsPerSource int
	DataDir          string

	BiasModelPath   string
	BiasThreshold   float64
	StrictProfanity bool

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "disha"),
		AllowAnyOrigin:   false,
		AWSRegion:        envOrDefault("AWS_REGION", "ap-south-1"),
		AWSAccountID:     stringsTrimSpace("AWS_ACCOUNT_ID"),
		ModelID:          envOrDefault("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),
		GuardrailID:      stringsTrimSpace("BEDROCK_GUARDRAIL_ID"),
		GuardrailVersion: envOrDefault("BEDROCK_GUARDRAIL_VERSION", "DRAFT"),
		MaxTokens:        500,
		ContextTTL:       24 * time.Hour,
		ContextWindow:    6,
		HistoryLimit:     6,
		ToolTimeout:      15 * time.Second,
		MaxJobsPerSource: 5,
		DataDir:          envOrDefault("APP_DATA_DIR", "data"),
		BiasModelPath:    envOrDefault("BIAS_MODEL_PATH", ".models/bias/classifier.json"),
		BiasThreshold:    0.8,
		StrictProfanity:  false,
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:  15 * time.Second,
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
	cfg.ToolTimeout, err = durationFromEnv("TOOL_TIMEOUT", cfg.ToolTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxTokens, err = intFromEnv("BEDROCK_MAX_TOKENS", cfg.MaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.ContextWindow, err = intFromEnv("CONTEXT_WINDOW", cfg.ContextWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryLimit, err = intFromEnv("HISTORY_LIMIT", cfg.HistoryLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxJobsPerSource, err = intFromEnv("MAX_JOBS_PER_SOURCE", cfg.MaxJobsPerSource)
	if err != nil {
		return Config{}, err
	}
	cfg.BiasThreshold, err = floatFromEnv("BIAS_THRESHOLD", cfg.BiasThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.StrictProfanity, err = boolFromEnv("STRICT_PROFANITY", cfg.StrictProfanity)
	if err != nil {
		return Config{}, err
	}

	if cfg.ContextTTL < time.Minute {
		return Config{}, fmt.Errorf("CONTEXT_TTL must be at least 1m")
	}
	if cfg.ContextWindow <= 0 {
		return Config{}, fmt.Errorf("CONTEXT_WINDOW must be positive")
	}
	if cfg.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("HISTORY_LIMIT must be positive")
	}
	if cfg.MaxTokens <= 0 {
		return Config{}, fmt.Errorf("BEDROCK_MAX_TOKENS must be positive")
	}
	if cfg.MaxJobsPerSource <= 0 {
		return Config{}, fmt.Errorf("MAX_JOBS_PER_SOURCE must be positive")
	}
	if cfg.BiasThreshold <= 0 || cfg.BiasThreshold >= 1 {
		return Config{}, fmt.Errorf("BIAS_THRESHOLD must be in (0, 1)")
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
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	for len(v) > 0 && (v[0] == ' ' || v[0] == '\n' || v[0] == '\t' || v[0] == '\r') {
		v = v[1:]
	}
	for len(v) > 0 {
		c := v[len(v)-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			v = v[:len(v)-1]
			continue
		}
		break
	}
	return v
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
