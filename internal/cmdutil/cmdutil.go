// Package cmdutil provides utility functions specifically for the sitecheck CLI.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fieldstone-cms/sitecheck/pkg/config"
	"github.com/fieldstone-cms/sitecheck/pkg/platform"
	platformrepo "github.com/fieldstone-cms/sitecheck/pkg/platform/sqlrepo"
	"github.com/fieldstone-cms/sitecheck/pkg/qa"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/sqlrepo"
)

// OpenPlatform opens the site database named by the config, read-only. The
// platform section is validated here rather than at config load so commands
// that never touch the site database do not demand one.
func OpenPlatform(ctx context.Context, cfg config.PlatformConfig) (*platformrepo.Repo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	repo, err := platform.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, TranslateError(err)
	}
	return repo, nil
}

// OpenResultsStore opens the results store under the config's data dir,
// creating the directory if needed.
func OpenResultsStore(ctx context.Context, cfg config.RepoConfig, opts ...sqlrepo.Option) (*sqlrepo.Repo, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	repo, err := qa.OpenStore(ctx, cfg.DatabasePath(), opts...)
	if err != nil {
		return nil, TranslateError(err)
	}
	return repo, nil
}

func NewHandledCliError(err error) HandledCliError {
	return HandledCliError{err}
}

// HandledCliError is an error which has already been presented to the user. If
// a HandledCliError is returned from a command, the process should exit with
// a non-zero exit code, but no further error message should be printed.
type HandledCliError struct {
	error
}

func (e HandledCliError) Unwrap() error {
	return e.error
}

// TranslateError translates a technical error into a more user-friendly one.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	// If it's already a handled error, don't translate it again.
	var handled HandledCliError
	if errors.As(err, &handled) {
		return err
	}

	msg := err.Error()

	switch {
	case strings.Contains(msg, "file is not a database"):
		return fmt.Errorf("not a SQLite database: sitecheck reads the site's SQLite database file directly")
	case strings.Contains(msg, "unable to open database"):
		return fmt.Errorf("cannot open database: check the path and its permissions (%s)", msg)
	case strings.Contains(msg, "no such table"):
		return fmt.Errorf("database is missing expected tables, is this really a site database? (%s)", msg)
	case strings.Contains(msg, "database is locked"):
		return fmt.Errorf("database is locked by another process, retry when the site is quiet")
	}

	return err
}
