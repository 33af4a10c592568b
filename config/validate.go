package config

import (
	"fmt"
)

var validReprocessPolicies = map[string]bool{
	"never":               true,
	"if-empty":            true,
	"always":              true,
	"if-empty-or-changed": true,
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive: %v", config.Fetch.Timeout)
	}

	if config.Fetch.MaxResponseKB <= 0 {
		return fmt.Errorf("fetch max response size must be positive: %d", config.Fetch.MaxResponseKB)
	}

	if config.Cache.Enabled && config.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be positive when cache is enabled: %d", config.Cache.MaxEntries)
	}

	if config.Ingest.CooldownSeconds < 0 {
		return fmt.Errorf("cooldown seconds cannot be negative: %d", config.Ingest.CooldownSeconds)
	}

	if config.Ingest.WindowDays <= 0 {
		return fmt.Errorf("window days must be positive: %d", config.Ingest.WindowDays)
	}

	if !validReprocessPolicies[config.Ingest.ReprocessPolicy] {
		return fmt.Errorf("unknown reprocess policy: %q", config.Ingest.ReprocessPolicy)
	}

	if config.Assembly.MaxHTMLKB <= 0 {
		return fmt.Errorf("max html size must be positive: %d", config.Assembly.MaxHTMLKB)
	}

	if config.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry max attempts must be positive: %d", config.Retry.MaxAttempts)
	}

	if config.Cleanup.RetentionDays <= 0 {
		return fmt.Errorf("retention days must be positive: %d", config.Cleanup.RetentionDays)
	}

	return nil
}
