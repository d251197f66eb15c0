// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, environment variables and command-line flags, in that
// order of precedence (later sources win).
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// envPrefix namespaces the environment variables read by Load. A double
// underscore separates nesting levels, so PROYECTA_AUTH__JWT_SECRET
// maps to auth.jwt_secret.
const envPrefix = "PROYECTA_"

// Config is the fully resolved service configuration.
type Config struct {
	Server   Server   `koanf:"server"`
	Metrics  Metrics  `koanf:"metrics"`
	Database Database `koanf:"database"`
	Auth     Auth     `koanf:"auth"`
	Identity Identity `koanf:"identity"`
	Log      Log      `koanf:"log"`
}

// Server configures the API listener.
type Server struct {
	Addr string `koanf:"addr"`
}

// Metrics configures the observability listener.
type Metrics struct {
	Addr string `koanf:"addr"`
}

// Database configures the PostgreSQL connection.
type Database struct {
	URL string `koanf:"url"`
}

// Auth configures token issuance.
type Auth struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// Identity configures account-level policy.
type Identity struct {
	TutorEmailDomain string `koanf:"tutor_email_domain"`
}

// Log configures the structured logger.
type Log struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":                 ":8080",
		"metrics.addr":                "127.0.0.1:9100",
		"auth.token_ttl":              time.Hour,
		"identity.tutor_email_domain": "@tutor.com",
		"log.format":                  "json",
		"log.level":                   "info",
	}
}

// Load resolves the configuration. path may be empty (no config file);
// flags may be nil (no flag overrides).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_FAILED").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}
	return &cfg, nil
}

// RequireDatabase checks that the database URL is set.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_DATABASE_URL_REQUIRED").
			Errorf("database.url is required")
	}
	return nil
}

// Validate checks that everything the server needs is present.
func (c *Config) Validate() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return oops.Code("CONFIG_JWT_SECRET_REQUIRED").
			Errorf("auth.jwt_secret is required")
	}
	return nil
}
