package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "EVALBOARD_"
	envFileVar = "EVALBOARD_ENV_FILE"
	configVar  = "EVALBOARD_CONFIG"
)

// listKeys are read from the environment as comma-separated values.
var listKeys = map[string]bool{ //nolint:gochecknoglobals // lookup table
	"non_working_days": true,
	"weekend_days":     true,
}

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New(ctx))
//  2. a .env file (EVALBOARD_ENV_FILE, default ./.env) copied into the
//     process environment without overriding variables already set
//  3. a YAML file if EVALBOARD_CONFIG is set
//  4. env vars with the EVALBOARD_ prefix
func Load(ctx context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(configVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrLoadConfig, path, err)
		}
	}

	// EVALBOARD_QUEUE_SIZE -> queue_size. Underscores are kept to match the
	// flat koanf tags.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" || key == "env_file" {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *New(ctx)
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv(envFileVar)
	if path == "" {
		// A missing default .env is fine.
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: env file %s: %v", ErrLoadConfig, path, err)
	}
	return nil
}

func splitList(v string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
