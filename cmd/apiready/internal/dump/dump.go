package dump

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/broady/apiready/cmd/apiready/internal/target"
)

type Cmd struct {
	target.Target `embed:""`

	Out   string `arg:"" help:"Output directory for structure.json, structure.yaml and structure.md."`
	Path  string `help:"Path to start from (default: root)."`
	Depth int    `help:"Levels to expand; negative expands everything." short:"d" default:"-1"`
}

func (c *Cmd) Run(ctx context.Context, logger *slog.Logger) error {
	// The runner executes in the package directory.
	outDir, err := filepath.Abs(c.Out)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	args := []string{"dump", "--depth=" + strconv.Itoa(c.Depth)}
	if c.Path != "" {
		args = append(args, "--path", c.Path)
	}
	args = append(args, "--", outDir)
	return c.Exec(ctx, logger, args, os.Stdout, os.Stderr)
}
