package config

import "github.com/aatumaykin/repeatq/internal/queue"

const (
	DefaultRedisURL           = "redis://localhost:6379/0"
	DefaultDialTimeoutSeconds = 5
	DefaultMetricsNamespace   = "repeatq"

	DefaultRetryMaxAttempts      = 3
	DefaultRetryInitialBackoffMs = 200
	DefaultRetryMaxBackoffMs     = 5000
)

// applyDefaults применяет значения по умолчанию
func applyDefaults(c *Config) {
	if c.Redis.URL == "" {
		c.Redis.URL = DefaultRedisURL
	}
	if c.Redis.DialTimeoutSeconds == 0 {
		c.Redis.DialTimeoutSeconds = DefaultDialTimeoutSeconds
	}

	if c.Queue.Name == "" {
		c.Queue.Name = queue.DefaultName
	}
	if c.Queue.Prefix == "" {
		c.Queue.Prefix = queue.DefaultPrefix
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultRetryMaxAttempts
	}
	if c.Retry.InitialBackoffMs == 0 {
		c.Retry.InitialBackoffMs = DefaultRetryInitialBackoffMs
	}
	if c.Retry.MaxBackoffMs == 0 {
		c.Retry.MaxBackoffMs = DefaultRetryMaxBackoffMs
	}
}
