// Package config defines sitecheck's configuration, decoded from the config
// file and SITECHECK_* environment variables bound through viper.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Validatable is implemented by config types that can check themselves after
// decoding.
type Validatable interface {
	Validate() error
}

// One validator instance caches struct metadata across calls.
var validate = validator.New(validator.WithRequiredStructEnabled())

// validateConfig applies the `validate` struct tags of c.
func validateConfig(c any) error {
	return validate.Struct(c)
}

// Config is the full sitecheck configuration.
type Config struct {
	Platform PlatformConfig `mapstructure:"platform" toml:"platform"`
	Repo     RepoConfig     `mapstructure:"repo" toml:"repo"`
	Gateway  GatewayConfig  `mapstructure:"gateway" toml:"gateway"`
}

// Validate checks the sections every command needs. The platform section is
// validated by the commands that read the platform database; listing and
// serving recorded passes work without one.
func (c Config) Validate() error {
	if err := c.Repo.Validate(); err != nil {
		return err
	}
	return c.Gateway.Validate()
}

// Load decodes the bound configuration into T and validates it.
func Load[T Validatable]() (T, error) {
	var out T
	if err := viper.Unmarshal(&out); err != nil {
		return out, fmt.Errorf("unable to decode config, %w", err)
	}
	if err := out.Validate(); err != nil {
		return out, fmt.Errorf("invalid config, %w", err)
	}
	return out, nil
}
