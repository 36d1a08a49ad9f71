package structure

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/broady/apiready/cmd/apiready/internal/target"
	"github.com/broady/apiready/render"
)

type Cmd struct {
	target.Target `embed:""`

	Path   string `arg:"" optional:"" help:"Path to inspect (default: root)."`
	Format string `help:"Output format: json, yaml or markdown." short:"f" default:"json"`
	Depth  int    `help:"Levels to expand below the path; negative expands everything." short:"d" default:"0"`
}

func (c *Cmd) Run(ctx context.Context, logger *slog.Logger) error {
	// Reject bad formats before paying for a build.
	if _, err := render.ParseFormat(c.Format); err != nil {
		return err
	}
	args := []string{"structure", "--format=" + c.Format, "--depth=" + strconv.Itoa(c.Depth)}
	if c.Path != "" {
		args = append(args, "--", c.Path)
	}
	return c.Exec(ctx, logger, args, os.Stdout, os.Stderr)
}
