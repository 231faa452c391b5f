package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
// The service refuses to start on any validation error.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Port) == "" {
		return errors.New("server.port must be set")
	}
	if strings.TrimSpace(cfg.Database.URL) == "" {
		return errors.New("database.url must be set")
	}
	if strings.TrimSpace(cfg.Detector.LexiconPath) == "" {
		return errors.New("detector.lexicon_path must be set")
	}

	switch strings.ToUpper(strings.TrimSpace(cfg.Detector.ReportingTier)) {
	case "LOW", "MODERATE", "HIGH", "CRITICAL":
	default:
		return fmt.Errorf("detector.reporting_tier must be LOW, MODERATE, HIGH or CRITICAL, got %q", cfg.Detector.ReportingTier)
	}

	for i, s := range cfg.Escalation.Sinks {
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case "file_jsonl":
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("escalation sink %d (file_jsonl) missing path", i)
			}
		case "webhook":
			if strings.TrimSpace(s.URL) == "" {
				return fmt.Errorf("escalation sink %d (webhook) missing url", i)
			}
			u, err := url.Parse(s.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("escalation sink %d (webhook) has invalid url", i)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("escalation sink %d (webhook) url must be http or https", i)
			}
		default:
			return fmt.Errorf("escalation sink %d has unknown type %q", i, s.Type)
		}
	}

	if cfg.Escalation.Telegram.Enabled {
		if strings.TrimSpace(cfg.Escalation.Telegram.BotTokenEnv) == "" {
			return errors.New("escalation.telegram.bot_token_env must be set when telegram is enabled")
		}
		if cfg.Escalation.Telegram.ChatID == 0 {
			return errors.New("escalation.telegram.chat_id must be set when telegram is enabled")
		}
	}

	if cfg.Gemini.Enabled && strings.TrimSpace(cfg.Gemini.APIKeyEnv) == "" {
		return errors.New("gemini.api_key_env must be set when gemini is enabled")
	}

	if cfg.Review.Enabled && strings.TrimSpace(cfg.Review.Path) == "" {
		return errors.New("review_store.path must be set when review store is enabled")
	}

	return nil
}
