package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Detector   DetectorConfig   `yaml:"detector"`
	Escalation EscalationConfig `yaml:"escalation"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Auth       AuthConfig       `yaml:"auth"`
	Review     ReviewConfig     `yaml:"review_store"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type DetectorConfig struct {
	LexiconPath string `yaml:"lexicon_path"`
	// ReportingTier is the lowest tier persisted as an incident.
	ReportingTier string `yaml:"reporting_tier"`
}

type EscalationConfig struct {
	QueueSize int               `yaml:"queue_size"`
	Workers   int               `yaml:"workers"`
	Messages  map[string]string `yaml:"messages"`
	Sinks     []SinkConfig      `yaml:"sinks"`
	Telegram  TelegramConfig    `yaml:"telegram"`
}

type SinkConfig struct {
	Type           string            `yaml:"type"` // file_jsonl | webhook
	Path           string            `yaml:"path,omitempty"`
	URL            string            `yaml:"url,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	TimeoutSeconds int64             `yaml:"timeout_seconds,omitempty"`
}

type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BotTokenEnv string `yaml:"bot_token_env"`
	ChatID      int64  `yaml:"chat_id"`
}

type GeminiConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

type AuthConfig struct {
	JWTSecretEnv  string `yaml:"jwt_secret_env"`
	TokenTTLHours int64  `yaml:"token_ttl_hours"`
}

type ReviewConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	applyDefaults(config)

	return config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8081"
	}
	if cfg.Detector.LexiconPath == "" {
		cfg.Detector.LexiconPath = "configs/signals.yml"
	}
	if cfg.Detector.ReportingTier == "" {
		cfg.Detector.ReportingTier = "HIGH"
	}
	if cfg.Escalation.QueueSize == 0 {
		cfg.Escalation.QueueSize = 256
	}
	if cfg.Escalation.Workers == 0 {
		cfg.Escalation.Workers = 2
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash-exp"
	}
	if cfg.Auth.JWTSecretEnv == "" {
		cfg.Auth.JWTSecretEnv = "MINDGUARD_JWT_SECRET"
	}
	if cfg.Auth.TokenTTLHours == 0 {
		cfg.Auth.TokenTTLHours = 24
	}
}
