package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/broady/apiready/cmd/apiready/internal/check"
	"github.com/broady/apiready/cmd/apiready/internal/dump"
	"github.com/broady/apiready/cmd/apiready/internal/structure"
)

type CLI struct {
	Verbose bool `help:"Log discovery, build and resolution steps." short:"v"`

	Version   VersionCmd    `cmd:"" help:"Print version information."`
	Structure structure.Cmd `cmd:"" help:"Print one level of a package's API structure, or a tree with --depth."`
	Check     check.Cmd     `cmd:"" help:"Resolve every annotation in a package and report problems."`
	Dump      dump.Cmd      `cmd:"" help:"Write the API structure as JSON, YAML and Markdown."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("apiready"),
		kong.Description("Inspect the annotated API of a Go package."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	err := kctx.Run(logger)
	kctx.FatalIfErrorf(err)
}
