// Package config provides configuration loading and validation for repeatq.
// It supports TOML configuration files with environment variable expansion,
// default values, and validation.
//
// Configuration structure:
//   - [redis]: Redis connection URL and dial timeout
//   - [queue]: Queue name and key prefix
//   - [cron]: Timezone for rules that do not name one
//   - [logging]: Logging level, format, and output
//   - [metrics]: Prometheus namespace
//   - [retry]: Backoff for the initial Redis connection
//
// Environment variables:
// Environment variables can be referenced using ${VAR} or ${VAR:default} syntax.
// For example: url = "${REDIS_URL:redis://localhost:6379/0}"
package config

import (
	"time"

	"github.com/aatumaykin/repeatq/internal/logger"
	"github.com/aatumaykin/repeatq/internal/retry"
)

// Config represents the main application configuration.
type Config struct {
	Redis   RedisConfig   `toml:"redis"`
	Queue   QueueConfig   `toml:"queue"`
	Cron    CronConfig    `toml:"cron"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
	Retry   RetryConfig   `toml:"retry"`
}

// RedisConfig представляет конфигурацию подключения к Redis
type RedisConfig struct {
	URL                string `toml:"url"`
	DialTimeoutSeconds int    `toml:"dial_timeout_seconds"`
}

// QueueConfig представляет имя очереди и префикс ключей
type QueueConfig struct {
	Name   string `toml:"name"`
	Prefix string `toml:"prefix"`
}

// CronConfig представляет конфигурацию cron
type CronConfig struct {
	// Timezone applies to rules without tz. Empty means the local zone.
	Timezone string `toml:"timezone"`
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

type MetricsConfig struct {
	Namespace string `toml:"namespace"`
}

// RetryConfig представляет политику повторов при подключении
type RetryConfig struct {
	MaxAttempts      int `toml:"max_attempts"`
	InitialBackoffMs int `toml:"initial_backoff_ms"`
	MaxBackoffMs     int `toml:"max_backoff_ms"`
}

// DialTimeout returns the dial timeout as a duration.
func (c RedisConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSeconds) * time.Second
}

// Location resolves the configured timezone.
func (c CronConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c LoggingConfig) LoggerConfig() logger.Config {
	return logger.Config{Level: c.Level, Format: c.Format, Output: c.Output}
}

func (c RetryConfig) Policy() retry.Config {
	return retry.Config{
		MaxAttempts:    c.MaxAttempts,
		InitialBackoff: time.Duration(c.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(c.MaxBackoffMs) * time.Millisecond,
	}
}
