package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

// Config is shared by every entry point. Values come from an optional YAML
// file (CONFIG_PATH) and are then overridden by the environment.
type Config struct {
	GeminiAPIKey     string `yaml:"gemini_api_key" validate:"required"`
	GeminiModel      string `yaml:"gemini_model" validate:"required"`
	GeminiBaseURL    string `yaml:"gemini_base_url" validate:"required,url"`
	GeminiAPIVersion string `yaml:"gemini_api_version" validate:"required"`

	TelegramToken string `yaml:"telegram_bot_token"`
	WebAddr       string `yaml:"web_addr" validate:"required"`

	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	Debug    bool   `yaml:"debug"`

	PreferIPv4 bool `yaml:"prefer_ipv4"`

	MaxUploadMB        int `yaml:"max_upload_mb"`
	MaxConcurrent      int `yaml:"max_concurrent"`
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int `yaml:"rate_limit_burst"`

	MediaGroupDebounce time.Duration `yaml:"media_group_debounce"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	HTTPTimeout        time.Duration `yaml:"http_timeout"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
}

func defaults() Config {
	return Config{
		GeminiModel:        "gemini-2.5-flash-image",
		GeminiBaseURL:      "https://generativelanguage.googleapis.com",
		GeminiAPIVersion:   "v1beta",
		WebAddr:            ":8080",
		LogLevel:           "info",
		PreferIPv4:         true,
		MaxUploadMB:        10,
		MaxConcurrent:      4,
		RateLimitPerMinute: 10,
		RateLimitBurst:     3,
		MediaGroupDebounce: 1200 * time.Millisecond,
		RequestTimeout:     180 * time.Second,
		HTTPTimeout:        180 * time.Second,
		SessionTTL:         6 * time.Hour,
	}
}

func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiBaseURL = getEnv("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.GeminiAPIVersion = getEnv("GEMINI_API_VERSION", cfg.GeminiAPIVersion)
	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.TelegramToken)
	cfg.WebAddr = getEnv("WEB_ADDR", cfg.WebAddr)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.Debug = getEnvBool("DEBUG", cfg.Debug)
	cfg.PreferIPv4 = getEnvBool("PREFER_IPV4", cfg.PreferIPv4)
	cfg.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", cfg.MaxUploadMB)
	cfg.MaxConcurrent = getEnvInt("MAX_CONCURRENT", cfg.MaxConcurrent)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.MediaGroupDebounce = getEnvDuration("MEDIA_GROUP_DEBOUNCE_MS", time.Millisecond, cfg.MediaGroupDebounce)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT_SECONDS", time.Second, cfg.RequestTimeout)
	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT_SECONDS", time.Second, cfg.HTTPTimeout)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL_MINUTES", time.Minute, cfg.SessionTTL)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.MaxUploadMB < 1 {
		cfg.MaxUploadMB = 10
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RateLimitBurst < 1 {
		cfg.RateLimitBurst = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 6 * time.Hour
	}

	return cfg, nil
}

// RequireTelegram is checked by the bot only; the web server and CLI do not
// need a token.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, unit time.Duration, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return time.Duration(parsed) * unit
}

func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
