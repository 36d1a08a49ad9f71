// Package source recovers doc comments and parameter names from Go source.
//
// Compiled Go code keeps neither, so an Index loaded with Load can be
// attached to a registry to fill them in:
//
//	ix, err := source.Load(ctx, ".", "./...")
//	reg := apiready.NewRegistry().WithSource(ix)
package source

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

type funcKey struct {
	pkg, recv, name string
}

type typeKey struct {
	pkg, name string
}

type funcInfo struct {
	doc    string
	params []string
}

// Index holds the documentation of every type, function and method
// declared in the loaded packages. It implements apiready.SourceInfo.
type Index struct {
	pkgs  []string
	types map[typeKey]string
	funcs map[funcKey]funcInfo
}

// Load parses the packages matching patterns, resolved relative to dir.
// Only syntax is loaded; nothing is type-checked.
func Load(ctx context.Context, dir string, patterns ...string) (*Index, error) {
	if len(patterns) == 0 {
		return nil, errors.New("no packages specified")
	}
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, errors.New("no packages found")
	}
	ix := &Index{
		types: make(map[typeKey]string),
		funcs: make(map[funcKey]funcInfo),
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors)
		}
		ix.pkgs = append(ix.pkgs, pkg.PkgPath)
		for _, file := range pkg.Syntax {
			ix.addFile(pkg.PkgPath, file)
		}
	}
	sort.Strings(ix.pkgs)
	return ix, nil
}

// Packages returns the import paths that were indexed.
func (ix *Index) Packages() []string { return ix.pkgs }

// TypeDoc returns the doc comment of a named type.
func (ix *Index) TypeDoc(pkgPath, typeName string) string {
	return ix.types[typeKey{pkgPath, typeName}]
}

// FuncDoc returns the doc comment of a function, or of a method when recv
// names its receiver type. Interface methods are indexed with the
// interface as receiver.
func (ix *Index) FuncDoc(pkgPath, recv, name string) string {
	return ix.funcs[funcKey{pkgPath, recv, name}].doc
}

// ParamNames returns the declared parameter names, excluding the
// receiver. Unnamed parameters are returned as "".
func (ix *Index) ParamNames(pkgPath, recv, name string) []string {
	return ix.funcs[funcKey{pkgPath, recv, name}].params
}

func (ix *Index) addFile(pkg string, file *ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				doc := ts.Doc
				if doc == nil && len(d.Specs) == 1 {
					doc = d.Doc
				}
				ix.types[typeKey{pkg, ts.Name.Name}] = docText(doc)
				if it, ok := ts.Type.(*ast.InterfaceType); ok {
					ix.addInterface(pkg, ts.Name.Name, it)
				}
			}
		case *ast.FuncDecl:
			recv := ""
			if d.Recv != nil && len(d.Recv.List) > 0 {
				recv = receiverName(d.Recv.List[0].Type)
			}
			ix.funcs[funcKey{pkg, recv, d.Name.Name}] = funcInfo{
				doc:    docText(d.Doc),
				params: paramNames(d.Type),
			}
		}
	}
}

func (ix *Index) addInterface(pkg, name string, it *ast.InterfaceType) {
	for _, field := range it.Methods.List {
		ft, ok := field.Type.(*ast.FuncType)
		if !ok || len(field.Names) == 0 {
			continue
		}
		ix.funcs[funcKey{pkg, name, field.Names[0].Name}] = funcInfo{
			doc:    docText(field.Doc),
			params: paramNames(ft),
		}
	}
}

// receiverName strips pointers and type parameters from a receiver type.
func receiverName(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

func paramNames(ft *ast.FuncType) []string {
	if ft.Params == nil {
		return nil
	}
	var names []string
	for _, field := range ft.Params.List {
		if len(field.Names) == 0 {
			names = append(names, "")
			continue
		}
		for _, n := range field.Names {
			names = append(names, n.Name)
		}
	}
	return names
}

// docText returns the comment text with "Deprecated:" paragraphs removed
// and surrounding whitespace trimmed.
func docText(cg *ast.CommentGroup) string {
	if cg == nil {
		return ""
	}
	paras := strings.Split(strings.TrimSpace(cg.Text()), "\n\n")
	kept := paras[:0]
	for _, p := range paras {
		if strings.HasPrefix(p, "Deprecated:") {
			continue
		}
		kept = append(kept, p)
	}
	return strings.TrimSpace(strings.Join(kept, "\n\n"))
}
