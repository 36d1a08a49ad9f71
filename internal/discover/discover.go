// Package discover finds registry export functions by signature.
//
// It scans a Go package for package-level functions with one of these
// signatures:
//   - func() *apiready.Registry
//   - func() (*apiready.Registry, error)
//
// The signature is the marker; no directives are needed.
package discover

import (
	"fmt"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

const (
	registryPkg  = "github.com/broady/apiready"
	registryType = "Registry"
)

// Export is a discovered export function.
type Export struct {
	Name string
	// ReturnsError is set for func() (*apiready.Registry, error).
	ReturnsError bool
	Pos          token.Position
}

func (e Export) String() string {
	if e.ReturnsError {
		return e.Name + "() (*apiready.Registry, error)"
	}
	return e.Name + "() *apiready.Registry"
}

// Result contains the discovered exports and package info.
type Result struct {
	Exports     []Export
	PackageName string
	PackagePath string
	ModulePath  string
	ModuleDir   string // directory containing go.mod
	Dir         string // directory containing the package
}

// Main reports whether the package is a command.
func (r *Result) Main() bool { return r.PackageName == "main" }

// Find scans a Go package for export functions.
//
// The pattern follows go command semantics:
//   - "." for current directory
//   - Import path like "github.com/foo/bar"
//   - Absolute or relative directory path
func Find(pattern string) (*Result, error) {
	return FindDir(pattern, "")
}

// FindDir is like Find but resolves pattern relative to dir.
func FindDir(pattern, dir string) (*Result, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles |
			packages.NeedTypes | packages.NeedModule,
		Dir: dir,
	}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	switch {
	case len(pkgs) == 0:
		return nil, fmt.Errorf("no packages found matching %q", pattern)
	case len(pkgs) > 1:
		return nil, fmt.Errorf("multiple packages found matching %q; specify a single package", pattern)
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("package errors: %v", pkg.Errors[0])
	}

	result := &Result{
		PackageName: pkg.Name,
		PackagePath: pkg.PkgPath,
	}
	if pkg.Module != nil {
		result.ModulePath = pkg.Module.Path
		result.ModuleDir = pkg.Module.Dir
	}
	if len(pkg.GoFiles) > 0 {
		result.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		fn, ok := scope.Lookup(name).(*types.Func)
		if !ok {
			continue
		}
		// Only a main package can call its own unexported functions.
		if !fn.Exported() && !result.Main() {
			continue
		}
		sig := fn.Type().(*types.Signature)
		withErr, ok := classify(sig)
		if !ok {
			continue
		}
		result.Exports = append(result.Exports, Export{
			Name:         fn.Name(),
			ReturnsError: withErr,
			Pos:          pkg.Fset.Position(fn.Pos()),
		})
	}
	return result, nil
}

// classify reports whether sig is an export signature and whether it
// also returns an error.
func classify(sig *types.Signature) (withErr, ok bool) {
	if sig.Recv() != nil || sig.Params().Len() != 0 || sig.TypeParams().Len() != 0 {
		return false, false
	}
	res := sig.Results()
	switch res.Len() {
	case 1:
		return false, isRegistryPtr(res.At(0).Type())
	case 2:
		return true, isRegistryPtr(res.At(0).Type()) && isError(res.At(1).Type())
	}
	return false, false
}

func isRegistryPtr(t types.Type) bool {
	ptr, ok := t.(*types.Pointer)
	if !ok {
		return false
	}
	named, ok := ptr.Elem().(*types.Named)
	if !ok {
		return false
	}
	pkg := named.Obj().Pkg()
	return pkg != nil && pkg.Path() == registryPkg && named.Obj().Name() == registryType
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

// SelectExport picks the export to use.
//
// With an empty name it returns the only export, failing when there are
// none or several. Otherwise it returns the export with that name.
func SelectExport(exports []Export, name string) (*Export, error) {
	if name != "" {
		for i := range exports {
			if exports[i].Name == name {
				return &exports[i], nil
			}
		}
		return nil, fmt.Errorf("export %q not found", name)
	}

	switch len(exports) {
	case 0:
		return nil, fmt.Errorf("no export found\n\nAdd a function that returns *apiready.Registry:\n\n    func API() *apiready.Registry {\n        reg := apiready.NewRegistry()\n        // ...\n        return reg\n    }")
	case 1:
		return &exports[0], nil
	}
	var msg strings.Builder
	msg.WriteString("multiple exports found:\n")
	for _, e := range exports {
		fmt.Fprintf(&msg, "  - %s\n", e)
	}
	msg.WriteString("\nSpecify which one: apiready structure --export <name>")
	return nil, fmt.Errorf("%s", msg.String())
}
