// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string   `yaml:"token"`
	Username string   `yaml:"username"`
	AdminIDs []string `yaml:"admin_ids"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port          int           `yaml:"port"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // transcript context expiry
}

type AIConfig struct {
	GeminiKey       string `yaml:"gemini_key"`
	GeminiModel     string `yaml:"gemini_model"`
	AnthropicKey    string `yaml:"anthropic_key"`
	AnthropicModel  string `yaml:"anthropic_model"`
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIModel     string `yaml:"openai_model"`
	OpenRouterKey   string `yaml:"openrouter_key"`
	OpenRouterModel string `yaml:"openrouter_model"`
	GroqKey         string `yaml:"groq_key"`
	GroqModel       string `yaml:"groq_model"`

	// Requests-per-minute ceilings applied by the local token bucket.
	// Providers not listed here are not throttled by policy.
	RPM map[string]int `yaml:"rpm"`

	// Fallback order for generative calls; unknown names are ignored.
	FallbackOrder []string `yaml:"fallback_order"`
}

type WitConfig struct {
	// Per-language app tokens; each language draws from its own
	// free-tier allocation upstream.
	Tokens           map[string]string `yaml:"tokens"`
	MonthlyFreeLimit int               `yaml:"monthly_free_limit"`
}

type CreditsConfig struct {
	MonthlyFree  int `yaml:"monthly_free"`  // free allotment per month
	InitialGrant int `yaml:"initial_grant"` // one-time trial bonus
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Wit      WitConfig      `yaml:"wit"`
	Credits  CreditsConfig  `yaml:"credits"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Credits.MonthlyFree <= 0 {
		cfg.Credits.MonthlyFree = 10
	}
	if cfg.Credits.InitialGrant <= 0 {
		cfg.Credits.InitialGrant = 10
	}
	if cfg.Wit.MonthlyFreeLimit <= 0 {
		cfg.Wit.MonthlyFreeLimit = 10000
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if len(cfg.AI.FallbackOrder) == 0 {
		cfg.AI.FallbackOrder = []string{"gemini", "groq", "openrouter", "anthropic", "openai"}
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
