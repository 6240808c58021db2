package config

import (
	"fmt"
	"path/filepath"
)

// RepoConfig locates sitecheck's own results store.
type RepoConfig struct {
	Dir string `mapstructure:"data_dir" toml:"data_dir"`
}

func (r RepoConfig) Validate() error {
	if r.Dir == "" {
		return fmt.Errorf("repo data dir required")
	}
	return nil
}

const resultsDBFileName = "sitecheck.db"

// DatabasePath returns the path of the results store inside the data dir.
func (r RepoConfig) DatabasePath() string {
	return filepath.Join(r.Dir, resultsDBFileName)
}
