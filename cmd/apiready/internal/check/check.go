package check

import (
	"context"
	"log/slog"
	"os"

	"github.com/broady/apiready/cmd/apiready/internal/target"
)

type Cmd struct {
	target.Target `embed:""`
}

func (c *Cmd) Run(ctx context.Context, logger *slog.Logger) error {
	return c.Exec(ctx, logger, []string{"check"}, os.Stdout, os.Stderr)
}
