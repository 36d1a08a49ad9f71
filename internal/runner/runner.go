// Package runner executes apiready introspection by building and running
// a program that calls the user's export function.
//
// For a main package it uses Go's -overlay flag to replace the user's
// main() with one that hands the registry to introspect.Main. For any
// other package the overlay adds a small command package next to it.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/broady/apiready/internal/discover"
)

// runnerDir is the overlay-only directory used for non-main packages.
const runnerDir = "apiready_runner_"

// Options configures the runner.
type Options struct {
	// Export is the function to call.
	Export discover.Export

	// Args are passed to the built program; see introspect.Main.
	Args []string

	// PkgDir, PkgPath and PkgName describe the package holding Export.
	PkgDir  string
	PkgPath string
	PkgName string

	// Stdout and Stderr receive the program's output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	Logger *slog.Logger
}

func (o Options) log() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Exec builds and runs the introspection program. Build failures include
// the compiler output in the returned error.
func Exec(ctx context.Context, opts Options) error {
	tmpDir, err := os.MkdirTemp("", "apiready-run-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	overlay, target, err := buildOverlay(opts, tmpDir)
	if err != nil {
		return err
	}
	overlayJSON, err := json.Marshal(struct {
		Replace map[string]string `json:"Replace"`
	}{Replace: overlay})
	if err != nil {
		return fmt.Errorf("marshal overlay: %w", err)
	}
	overlayFile := filepath.Join(tmpDir, "overlay.json")
	if err := os.WriteFile(overlayFile, overlayJSON, 0644); err != nil {
		return fmt.Errorf("write overlay: %w", err)
	}

	binary := filepath.Join(tmpDir, "runner")
	build := exec.CommandContext(ctx, "go", "build", "-mod=mod", "-overlay", overlayFile, "-o", binary, target)
	build.Dir = opts.PkgDir
	build.Env = append(os.Environ(), "GOWORK=off")
	opts.log().Debug("building runner", slog.String("dir", opts.PkgDir), slog.String("target", target))
	if out, err := build.CombinedOutput(); err != nil {
		return fmt.Errorf("build: %w\n%s", err, out)
	}

	run := exec.CommandContext(ctx, binary, opts.Args...)
	run.Dir = opts.PkgDir
	run.Stdout = opts.Stdout
	run.Stderr = opts.Stderr
	opts.log().Debug("running", slog.String("args", strings.Join(opts.Args, " ")))
	if err := run.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// buildOverlay writes the generated sources to tmpDir and returns the
// overlay map plus the package to build.
func buildOverlay(opts Options, tmpDir string) (map[string]string, string, error) {
	overlay := make(map[string]string)
	src, err := Generate(opts)
	if err != nil {
		return nil, "", fmt.Errorf("generate runner: %w", err)
	}
	runnerFile := filepath.Join(tmpDir, "apiready_runner_main_.go")
	if err := os.WriteFile(runnerFile, src, 0644); err != nil {
		return nil, "", fmt.Errorf("write runner: %w", err)
	}

	if opts.PkgName != "main" {
		overlay[filepath.Join(opts.PkgDir, runnerDir, "main.go")] = runnerFile
		return overlay, "./" + runnerDir, nil
	}

	files, err := filepath.Glob(filepath.Join(opts.PkgDir, "*.go"))
	if err != nil {
		return nil, "", fmt.Errorf("glob: %w", err)
	}
	for _, file := range files {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}
		hasMain, modified, err := removeMain(file)
		if err != nil {
			return nil, "", fmt.Errorf("process %s: %w", file, err)
		}
		if !hasMain {
			continue
		}
		tmpFile := filepath.Join(tmpDir, filepath.Base(file))
		if err := os.WriteFile(tmpFile, modified, 0644); err != nil {
			return nil, "", fmt.Errorf("write modified %s: %w", file, err)
		}
		overlay[file] = tmpFile
	}
	overlay[filepath.Join(opts.PkgDir, "apiready_runner_main_.go")] = runnerFile
	return overlay, ".", nil
}

// removeMain returns the source of filename with func main() removed.
func removeMain(filename string) (bool, []byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return false, nil, err
	}
	hasMain := false
	decls := f.Decls[:0]
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == "main" && fn.Recv == nil {
			hasMain = true
			continue
		}
		decls = append(decls, decl)
	}
	if !hasMain {
		return false, nil, nil
	}
	f.Decls = decls
	pruneImports(fset, f)

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return false, nil, err
	}
	return true, buf.Bytes(), nil
}

// pruneImports drops named and plain imports that only main() used.
// Blank and dot imports are kept.
func pruneImports(fset *token.FileSet, f *ast.File) {
	for _, imp := range append([]*ast.ImportSpec(nil), f.Imports...) {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := ""
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == "_" || name == "." || astutil.UsesImport(f, path) {
			continue
		}
		astutil.DeleteNamedImport(fset, f, name, path)
	}
}

// Generate returns the source of the runner's main package.
func Generate(opts Options) ([]byte, error) {
	data := struct {
		Call         string
		Import       string
		ReturnsError bool
	}{
		Call:         opts.Export.Name + "()",
		ReturnsError: opts.Export.ReturnsError,
	}
	if opts.PkgName != "main" {
		if opts.PkgPath == "" || opts.PkgName == "" {
			return nil, fmt.Errorf("package path and name are required for package %q", opts.PkgDir)
		}
		data.Import = opts.PkgPath
		data.Call = opts.PkgName + "." + data.Call
	}
	var buf bytes.Buffer
	if err := runnerTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

var runnerTemplate = template.Must(template.New("runner").Parse(`package main

import (
{{- if .ReturnsError}}
	"fmt"
	"os"
{{end}}
	"github.com/broady/apiready/introspect"
{{- if .Import}}
	{{printf "%q" .Import}}
{{- end}}
)

func main() {
{{- if .ReturnsError}}
	reg, err := {{.Call}}
	if err != nil {
		fmt.Fprintf(os.Stderr, "apiready: %v\n", err)
		os.Exit(1)
	}
	introspect.Main(reg)
{{- else}}
	introspect.Main({{.Call}})
{{- end}}
}
`))
