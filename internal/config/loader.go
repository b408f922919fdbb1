package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if GEOELEVATE_CONFIG is set
//  3. env (prefix GEOELEVATE_)
func Load(ctx context.Context) (*Config, error) {
	_ = ctx

	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("GEOELEVATE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: GEOELEVATE_ADDR, GEOELEVATE_QUESTION_COUNT, ...
	// Map env keys like GEOELEVATE_QUESTION_COUNT -> question_count (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("GEOELEVATE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "geoelevate_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QuestionCount < 1:
		return fmt.Errorf("%w: question_count must be positive", ErrInvalidConfig)
	case c.OptionCount < 2:
		return fmt.Errorf("%w: option_count must be at least 2", ErrInvalidConfig)
	case c.ResultsDelayMS < 0:
		return fmt.Errorf("%w: results_delay_ms must not be negative", ErrInvalidConfig)
	case c.RateLimitWindowMS < 1 || c.RateLimitQuota < 1:
		return fmt.Errorf("%w: rate limit window and quota must be positive", ErrInvalidConfig)
	}
	return nil
}
