// Package introspect is the entry point of the programs built by the
// apiready command. Those programs call Main with the user's registry;
// tests and embedders can call Run directly.
package introspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/broady/apiready"
	"github.com/broady/apiready/render"
	"github.com/broady/apiready/sink"
)

// Mode selects what Run does.
type Mode string

const (
	ModeStructure Mode = "structure"
	ModeCheck     Mode = "check"
	ModeDump      Mode = "dump"
)

// DumpName is the base name of the files written in dump mode.
const DumpName = "structure"

// ErrCheckFailed is returned by Run in check mode after the problems have
// been reported.
var ErrCheckFailed = errors.New("check failed")

// Options configures Run.
type Options struct {
	Mode Mode

	// Path is the node to start from; empty means the root.
	Path string

	// Format applies to structure mode. Dump mode writes every format.
	Format render.Format

	// Depth is the number of levels expanded below Path. Zero returns a
	// single node; a negative depth expands until every branch ends or
	// meets a cycle.
	Depth int

	// OutDir is the dump directory, used when Sink is nil.
	OutDir string
	Sink   sink.Sink

	Logger *slog.Logger
}

func (o Options) log() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Run executes one introspection mode against reg, writing to w.
func Run(ctx context.Context, reg *apiready.Registry, opts Options, w io.Writer) error {
	switch opts.Mode {
	case ModeStructure, "":
		return structure(reg, opts, w)
	case ModeCheck:
		return check(reg, w)
	case ModeDump:
		return dump(ctx, reg, opts, w)
	}
	return fmt.Errorf("unknown mode %q", opts.Mode)
}

func depth(d int) int {
	if d < 0 {
		return math.MaxInt
	}
	return d
}

func structure(reg *apiready.Registry, opts Options, w io.Writer) error {
	format := opts.Format
	if format == "" {
		format = render.JSON
	}
	if opts.Depth == 0 {
		n, err := reg.Structure(opts.Path)
		if err != nil {
			return err
		}
		return render.Node(w, n, format)
	}
	t, err := reg.Tree(opts.Path, depth(opts.Depth))
	if err != nil {
		return err
	}
	return render.Tree(w, t, format)
}

func dump(ctx context.Context, reg *apiready.Registry, opts Options, w io.Writer) error {
	out := opts.Sink
	if out == nil {
		if opts.OutDir == "" {
			return errors.New("dump needs an output directory")
		}
		out = sink.NewDir(opts.OutDir)
	}
	t, err := reg.Tree(opts.Path, depth(opts.Depth))
	if err != nil {
		return err
	}
	for _, f := range render.Formats {
		var buf bytes.Buffer
		if err := render.Tree(&buf, t, f); err != nil {
			return fmt.Errorf("render %s: %w", f, err)
		}
		name := DumpName + f.Ext()
		if err := out.WriteFile(ctx, name, buf.Bytes()); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		opts.log().Debug("wrote dump", slog.String("file", name), slog.Int("bytes", buf.Len()))
		fmt.Fprintf(w, "wrote %s\n", name)
	}
	return nil
}

func check(reg *apiready.Registry, w io.Writer) error {
	red := color.New(color.FgRed, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow, color.Bold)

	if err := reg.Resolve(); err != nil {
		for _, e := range leaves(err) {
			red.Fprint(w, "✗ ")
			fmt.Fprintln(w, describe(e))
		}
		return ErrCheckFailed
	}

	classes := reg.Classes()
	methods := 0
	for _, c := range classes {
		ms, _ := c.Methods()
		methods += len(ms)
	}
	unreachable, err := reg.Unreachable()
	if err != nil {
		return err
	}
	for _, c := range unreachable {
		yellow.Fprint(w, "! ")
		fmt.Fprintf(w, "nested class %s is not reachable from any root\n", c.Name())
	}
	green.Fprint(w, "✓ ")
	fmt.Fprintf(w, "%d classes, %d methods, %d functions\n", len(classes), methods, len(reg.Funcs()))
	green.Fprint(w, "✓ ")
	fmt.Fprintln(w, "All signatures resolved")
	return nil
}

// leaves flattens errors.Join trees.
func leaves(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, leaves(e)...)
		}
		return out
	}
	return []error{err}
}

func describe(err error) string {
	var e *apiready.Error
	if !errors.As(err, &e) || len(e.Details) == 0 {
		return err.Error()
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, e.Details[k])
	}
	return fmt.Sprintf("%s (%s)", err, strings.Join(parts, " "))
}

type structureCmd struct {
	Path   string `arg:"" optional:"" help:"Path to inspect (default: root)."`
	Format string `help:"Output format: json, yaml or markdown." short:"f" default:"json"`
	Depth  int    `help:"Levels to expand below the path; negative expands everything." short:"d" default:"0"`
}

type checkCmd struct{}

type dumpCmd struct {
	OutDir string `arg:"" name:"outdir" help:"Directory for structure.json, structure.yaml and structure.md."`
	Path   string `help:"Path to start from (default: root)."`
	Depth  int    `help:"Levels to expand; negative expands everything." short:"d" default:"-1"`
}

type cli struct {
	Verbose   bool         `help:"Log registry resolution to stderr." short:"v"`
	Structure structureCmd `cmd:"" help:"Print one node, or a tree with --depth."`
	Check     checkCmd     `cmd:"" help:"Resolve every annotation and report problems."`
	Dump      dumpCmd      `cmd:"" help:"Write the full structure in every format."`
}

// Command parses args and runs the selected mode.
func Command(ctx context.Context, reg *apiready.Registry, args []string, stdout, stderr io.Writer) error {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("apiready-runner"),
		kong.Description("Inspect an apiready registry."),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	opts := Options{}
	if c.Verbose {
		opts.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		reg.WithLogger(opts.Logger)
	}
	switch strings.Fields(kctx.Command())[0] {
	case "structure":
		format, err := render.ParseFormat(c.Structure.Format)
		if err != nil {
			return err
		}
		opts.Mode = ModeStructure
		opts.Path = c.Structure.Path
		opts.Format = format
		opts.Depth = c.Structure.Depth
	case "check":
		opts.Mode = ModeCheck
	case "dump":
		opts.Mode = ModeDump
		opts.Path = c.Dump.Path
		opts.Depth = c.Dump.Depth
		opts.OutDir = c.Dump.OutDir
	}
	return Run(ctx, reg, opts, stdout)
}

// Main runs Command with the process arguments and exits non-zero on
// failure.
func Main(reg *apiready.Registry) {
	err := Command(context.Background(), reg, os.Args[1:], os.Stdout, os.Stderr)
	if err == nil {
		return
	}
	if !errors.Is(err, ErrCheckFailed) {
		fmt.Fprintf(os.Stderr, "apiready: %v\n", err)
	}
	os.Exit(1)
}
