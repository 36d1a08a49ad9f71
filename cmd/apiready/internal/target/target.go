// Package target locates a registry export and runs introspection on it.
package target

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/broady/apiready/internal/discover"
	"github.com/broady/apiready/internal/runner"
)

// Target holds the flags shared by every command that inspects a package.
type Target struct {
	Export  string `help:"Export function name (required if multiple exports exist)." short:"e"`
	Package string `help:"Package to scan (default: current directory)." short:"p" default:"."`
}

// Exec finds the export, builds the runner and passes args to it.
func (t *Target) Exec(ctx context.Context, logger *slog.Logger, args []string, stdout, stderr io.Writer) error {
	result, err := discover.Find(t.Package)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	export, err := discover.SelectExport(result.Exports, t.Export)
	if err != nil {
		return err
	}
	logger.Debug("found export",
		slog.String("export", export.String()),
		slog.String("package", result.PackagePath))

	if logger.Enabled(ctx, slog.LevelDebug) {
		args = append([]string{"--verbose"}, args...)
	}
	return runner.Exec(ctx, runner.Options{
		Export:  *export,
		Args:    args,
		PkgDir:  result.Dir,
		PkgPath: result.PackagePath,
		PkgName: result.PackageName,
		Stdout:  stdout,
		Stderr:  stderr,
		Logger:  logger,
	})
}
