package config

import "fmt"

// PlatformConfig locates the platform database the checks read. Sitecheck
// opens it read-only and never migrates it.
type PlatformConfig struct {
	DatabasePath string `mapstructure:"database_path" toml:"database_path"`
}

func (p PlatformConfig) Validate() error {
	if p.DatabasePath == "" {
		return fmt.Errorf("platform database path required (use --database or FIELDSTONE_DATABASE)")
	}
	return nil
}
