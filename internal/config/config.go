// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file/env.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: "text" or "pretty".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL is the Postgres DSN for the persistence gateway.
	// Empty selects the in-memory gateway (development only).
	DatabaseURL string `koanf:"database_url"`

	// TokenSecret signs and verifies connection credentials.
	TokenSecret string `koanf:"token_secret"`

	// QuestionCount is the number of questions dealt per match.
	QuestionCount int `koanf:"question_count"`

	// OptionCount is the number of choices per question, correct one included.
	OptionCount int `koanf:"option_count"`

	// ResultsDelayMS is the pause between question results and the next question.
	ResultsDelayMS int `koanf:"results_delay_ms"`

	// RateLimitWindowMS and RateLimitQuota bound answer submissions
	// per (identity, match) pair.
	RateLimitWindowMS int `koanf:"rate_limit_window_ms"`
	RateLimitQuota    int `koanf:"rate_limit_quota"`

	// SweepIntervalSec controls how often idle rate-limit keys are evicted.
	SweepIntervalSec int `koanf:"sweep_interval_sec"`

	// ReaperIntervalSec controls how often stale in-memory matches are reaped.
	ReaperIntervalSec int `koanf:"reaper_interval_sec"`

	// AnswerWriteBuffer bounds the async answer-log writer queue.
	AnswerWriteBuffer int `koanf:"answer_write_buffer"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		DatabaseURL:       "",
		TokenSecret:       "",
		QuestionCount:     5,
		OptionCount:       4,
		ResultsDelayMS:    3000,
		RateLimitWindowMS: 1000,
		RateLimitQuota:    3,
		SweepIntervalSec:  60,
		ReaperIntervalSec: 300,
		AnswerWriteBuffer: 1024,
	}
}
