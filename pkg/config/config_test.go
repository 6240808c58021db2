package config_test

import (
	"path/filepath"
	"testing"

	"github.com/fieldstone-cms/sitecheck/pkg/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	viper.Set("platform.database_path", "/srv/fieldstone/fieldstone.sqlite")
	viper.Set("repo.data_dir", dir)
	viper.Set("gateway.port", 8600)

	cfg, err := config.Load[config.Config]()
	require.NoError(t, err)
	require.Equal(t, "/srv/fieldstone/fieldstone.sqlite", cfg.Platform.DatabasePath)
	require.Equal(t, filepath.Join(dir, "sitecheck.db"), cfg.Repo.DatabasePath())
	require.Equal(t, 8600, cfg.Gateway.Port)
}

func TestLoadInvalid(t *testing.T) {
	t.Run("tolerates a missing platform database path", func(t *testing.T) {
		// Commands that never read the site database must load config
		// without one; the scan path validates the platform section itself.
		t.Cleanup(viper.Reset)
		viper.Set("repo.data_dir", t.TempDir())

		cfg, err := config.Load[config.Config]()
		require.NoError(t, err)
		require.Empty(t, cfg.Platform.DatabasePath)
		require.ErrorContains(t, cfg.Platform.Validate(), "platform database path required")
	})

	t.Run("rejects a missing repo data dir", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		viper.Set("platform.database_path", "/srv/fieldstone/fieldstone.sqlite")

		_, err := config.Load[config.Config]()
		require.ErrorContains(t, err, "repo data dir required")
	})

	t.Run("rejects an out-of-range gateway port", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		viper.Set("platform.database_path", "/srv/fieldstone/fieldstone.sqlite")
		viper.Set("repo.data_dir", t.TempDir())
		viper.Set("gateway.port", 70000)

		_, err := config.Load[config.Config]()
		require.ErrorContains(t, err, "invalid config")
	})
}
