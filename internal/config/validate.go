package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aatumaykin/repeatq/internal/cron"
)

// Validate проверяет валидность конфигурации
func (c *Config) Validate() []error {
	var errors []error

	// Проверка redis
	if c.Redis.URL == "" {
		errors = append(errors, fmt.Errorf("redis.url is required"))
	} else if err := validateRedisURL(c.Redis.URL); err != nil {
		errors = append(errors, err)
	}
	if c.Redis.DialTimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("redis.dial_timeout_seconds must be >= 0 (got %d)", c.Redis.DialTimeoutSeconds))
	}

	// Проверка queue
	if c.Queue.Name == "" {
		errors = append(errors, fmt.Errorf("queue.name is required"))
	} else if strings.Contains(c.Queue.Name, ":") {
		errors = append(errors, fmt.Errorf("queue.name must not contain ':' (got %s)", c.Queue.Name))
	}
	if c.Queue.Prefix == "" {
		errors = append(errors, fmt.Errorf("queue.prefix is required"))
	}

	if err := cron.ValidateTimezone(c.Cron.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("cron.timezone: %w", err))
	}

	// Проверка logging config
	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	if c.Metrics.Namespace != "" && strings.ContainsAny(c.Metrics.Namespace, " -.:") {
		errors = append(errors, fmt.Errorf("invalid metrics.namespace: %s (use letters, digits and '_')", c.Metrics.Namespace))
	}

	// Проверка retry
	if c.Retry.MaxAttempts < 1 {
		errors = append(errors, fmt.Errorf("retry.max_attempts must be >= 1 (got %d)", c.Retry.MaxAttempts))
	}
	if c.Retry.InitialBackoffMs < 0 || c.Retry.MaxBackoffMs < 0 {
		errors = append(errors, fmt.Errorf("retry backoff must not be negative"))
	} else if c.Retry.MaxBackoffMs < c.Retry.InitialBackoffMs {
		errors = append(errors, fmt.Errorf("retry.max_backoff_ms (%d) must be >= retry.initial_backoff_ms (%d)",
			c.Retry.MaxBackoffMs, c.Retry.InitialBackoffMs))
	}

	return errors
}

func validateRedisURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("redis.url is invalid: %s", MaskURL(raw))
	}
	switch u.Scheme {
	case "redis", "rediss", "unix":
	default:
		return fmt.Errorf("redis.url has unsupported scheme %q (expected: redis, rediss, unix)", u.Scheme)
	}
	if u.Scheme != "unix" && u.Host == "" {
		return fmt.Errorf("redis.url has no host: %s", MaskURL(raw))
	}
	return nil
}
