// Package apiready records machine-readable API metadata for Go types and
// methods and exposes it as a lazily navigable hierarchy.
//
// A library declares its surface once, at initialization:
//
//	reg := apiready.NewRegistry()
//	storage := apiready.MustAnnotate[Storage](reg, apiready.Path("/storage"))
//	storage.MustMethod("ReadFile", apiready.Params("path", "encoding"),
//		apiready.Default("encoding", "utf-8"))
//
// and publishers walk it one level at a time with Registry.Structure.
// Registration never wraps or calls the annotated code.
package apiready

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/broady/apiready/ir"
)

// SourceInfo supplies documentation and parameter names recovered from Go
// source. recv is the receiver type name, or "" for package-level functions.
type SourceInfo interface {
	TypeDoc(pkgPath, typeName string) string
	FuncDoc(pkgPath, recv, name string) string
	ParamNames(pkgPath, recv, name string) []string
}

// Registry holds every annotated class and free function. The zero value is
// not usable; call NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	classes map[reflect.Type]*ClassMetadata
	order   []*ClassMetadata
	funcs   map[uintptr]*MethodMetadata
	logger  *slog.Logger
	source  SourceInfo

	// resolved is set once any signature or class has been resolved.
	resolved atomic.Bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[reflect.Type]*ClassMetadata),
		funcs:   make(map[uintptr]*MethodMetadata),
	}
}

// WithLogger sets a custom logger for the registry.
// If not set, slog.Default() will be used.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithSource supplies doc comments and parameter names for annotations
// registered after this call.
func (r *Registry) WithSource(src SourceInfo) *Registry {
	r.source = src
	return r
}

func (r *Registry) log() *slog.Logger {
	if r.logger == nil {
		return slog.Default()
	}
	return r.logger
}

// Annotate registers T as a class. Pointer types are recorded by their
// element type, and the method set of *T is used; interface types use their
// own method set. Annotating T again with the same options returns the
// existing metadata. New classes must be annotated before any metadata in
// the registry is resolved.
func Annotate[T any](r *Registry, opts ...Option) (*ClassMetadata, error) {
	return r.annotate(reflect.TypeFor[T](), opts)
}

// MustAnnotate is like Annotate but panics on error.
func MustAnnotate[T any](r *Registry, opts ...Option) *ClassMetadata {
	c, err := Annotate[T](r, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (r *Registry) annotate(t reflect.Type, opts []Option) (*ClassMetadata, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return nil, Errorf(CodeInvalidTarget, "unnamed type %s cannot be annotated", t)
	}
	o := buildOptions(opts)
	if o.verb != "" || o.name != "" || len(o.params) > 0 || len(o.defaults) > 0 || len(o.descs) > 0 {
		return nil, Errorf(CodeInvalidTarget, "%s: verb, name and parameter options apply to methods", t.Name())
	}
	base := o.path
	if base == "" {
		base = snakeCase(t.Name())
	}
	base = ComposePath(base, "")

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.classes[t]; ok {
		if c.opts.equal(o) {
			r.log().Debug("class already annotated", slog.String("class", t.String()))
			return c, nil
		}
		return nil, Errorf(CodeConflictingMetadata, "%s is already annotated with a different configuration", t).
			WithDetail("class", t.String())
	}
	if r.resolved.Load() {
		return nil, Errorf(CodeInvalidTarget, "%s: registry metadata was already resolved", t.Name()).
			WithDetail("class", t.String())
	}
	if !o.nested {
		if other := r.rootAtLocked(base); other != "" {
			return nil, ambiguousPath(base, other, t.Name())
		}
	}

	recv := reflect.PointerTo(t)
	if t.Kind() == reflect.Interface {
		recv = t
	}
	c := &ClassMetadata{
		registry: r,
		typ:      t,
		recv:     recv,
		name:     t.Name(),
		basePath: base,
		doc:      o.doc,
		opts:     o,
		byName:   make(map[string]*MethodMetadata),
	}
	if c.doc == "" && r.source != nil {
		c.doc = r.source.TypeDoc(t.PkgPath(), t.Name())
	}
	r.classes[t] = c
	r.order = append(r.order, c)
	r.log().Debug("annotated class", slog.String("class", t.String()), slog.String("path", base))
	return c, nil
}

// rootAtLocked names the root class or free function at path, or returns "".
func (r *Registry) rootAtLocked(path string) string {
	for _, c := range r.order {
		if !c.opts.nested && c.basePath == path {
			return c.name
		}
	}
	for _, f := range r.funcs {
		if f.path == path {
			return f.goName
		}
	}
	return ""
}

// Method registers the exported method goName of the class as an endpoint.
// Methods must be registered before the class is first navigated or
// resolved.
func (c *ClassMetadata) Method(goName string, opts ...Option) (*MethodMetadata, error) {
	method, ok := c.recv.MethodByName(goName)
	if !ok {
		return nil, Errorf(CodeInvalidTarget, "%s has no exported method %s", c.name, goName).
			WithDetails(map[string]any{"class": c.name, "method": goName})
	}
	o := buildOptions(opts)
	if o.nested {
		return nil, Errorf(CodeInvalidTarget, "%s.%s: Nested applies to classes", c.name, goName)
	}

	r := c.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := c.byName[goName]; ok {
		if existing.opts.equal(o) {
			r.log().Debug("method already annotated", slog.String("method", existing.qualifiedName()))
			return existing, nil
		}
		return nil, Errorf(CodeConflictingMetadata, "%s.%s is already annotated with a different configuration", c.name, goName).
			WithDetails(map[string]any{"class": c.name, "method": goName})
	}
	if c.frozen.Load() {
		return nil, Errorf(CodeInvalidTarget, "%s.%s: class %s was already resolved", c.name, goName, c.name)
	}

	// Interface methods carry no receiver in their type.
	receiver := c.typ.Kind() != reflect.Interface
	m := r.newMethod(c, goName, method.Type, receiver, c.typ.PkgPath(), c.name, o)
	for _, other := range c.declared {
		if other.path == m.path {
			return nil, ambiguousPath(m.path, c.name+"."+other.goName, c.name+"."+goName)
		}
	}
	c.declared = append(c.declared, m)
	c.byName[goName] = m
	r.log().Debug("annotated method", slog.String("method", m.qualifiedName()), slog.String("path", m.path))
	return m, nil
}

// MustMethod is like Method but panics on error.
func (c *ClassMetadata) MustMethod(goName string, opts ...Option) *MethodMetadata {
	m, err := c.Method(goName, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Func registers a free function, or a bound method value, as an endpoint
// at the root of the hierarchy. Closures should be given a Name.
func (r *Registry) Func(fn any, opts ...Option) (*MethodMetadata, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, Errorf(CodeInvalidTarget, "%T is not a function", fn)
	}
	o := buildOptions(opts)
	if o.nested {
		return nil, Errorf(CodeInvalidTarget, "Nested applies to classes")
	}
	pkgPath, goName := splitFuncName(fn)
	key := v.Pointer()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.funcs[key]; ok {
		if existing.opts.equal(o) {
			r.log().Debug("function already annotated", slog.String("func", goName))
			return existing, nil
		}
		return nil, Errorf(CodeConflictingMetadata, "%s is already annotated with a different configuration", goName).
			WithDetail("func", goName)
	}

	m := r.newMethod(nil, goName, v.Type(), false, pkgPath, "", o)
	if other := r.rootAtLocked(m.path); other != "" {
		return nil, ambiguousPath(m.path, other, goName)
	}
	r.funcs[key] = m
	r.log().Debug("annotated function", slog.String("func", goName), slog.String("path", m.path))
	return m, nil
}

func (r *Registry) newMethod(c *ClassMetadata, goName string, fn reflect.Type, receiver bool, pkgPath, recv string, o options) *MethodMetadata {
	name := o.name
	if name == "" {
		name = snakeCase(goName)
	}
	leaf := o.path
	if leaf == "" {
		leaf = name
	}
	base := ""
	if c != nil {
		base = c.basePath
	}
	m := &MethodMetadata{
		class:    c,
		goName:   goName,
		name:     name,
		leaf:     ComposePath(leaf, ""),
		path:     ComposePath(base, leaf),
		verb:     InferVerb(name, o.verb),
		doc:      o.doc,
		fn:       fn,
		receiver: receiver,
		opts:     o,
		registry: r,
	}
	if r.source != nil {
		if m.doc == "" {
			m.doc = r.source.FuncDoc(pkgPath, recv, goName)
		}
		m.srcNames = r.source.ParamNames(pkgPath, recv, goName)
	}
	return m
}

// NodeFor reports whether t, or the type it points to, is an annotated
// class. It implements NodeResolver.
func (r *Registry) NodeFor(t reflect.Type) (*ir.NodeDescriptor, bool) {
	c, ok := r.Lookup(t)
	if !ok {
		return nil, false
	}
	return ir.Node(c.typ, c.basePath), true
}

// Lookup returns the metadata attached to t. Pointer types are dereferenced.
func (r *Registry) Lookup(t reflect.Type) (*ClassMetadata, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[t]
	return c, ok
}

// LookupOf returns the metadata attached to T.
func LookupOf[T any](r *Registry) (*ClassMetadata, bool) {
	return r.Lookup(reflect.TypeFor[T]())
}

// Classes returns every annotated class in registration order.
func (r *Registry) Classes() []*ClassMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*ClassMetadata(nil), r.order...)
}

// Roots returns the classes that are not Nested, sorted by base path.
func (r *Registry) Roots() []*ClassMetadata {
	var roots []*ClassMetadata
	for _, c := range r.Classes() {
		if !c.opts.nested {
			roots = append(roots, c)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].basePath < roots[j].basePath })
	return roots
}

// Funcs returns the free functions sorted by path.
func (r *Registry) Funcs() []*MethodMetadata {
	r.mu.RLock()
	funcs := make([]*MethodMetadata, 0, len(r.funcs))
	for _, f := range r.funcs {
		funcs = append(funcs, f)
	}
	r.mu.RUnlock()
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].path < funcs[j].path })
	return funcs
}

// Resolve runs the second phase of the build: every class's method set and
// every signature is resolved and validated. All failures are returned
// together. Navigation resolves lazily, so calling Resolve is optional; it
// surfaces errors before the first request instead of during it.
func (r *Registry) Resolve() error {
	var errs []error
	for _, c := range r.Classes() {
		if _, err := c.Methods(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, f := range r.Funcs() {
		if _, err := f.Signature(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) rootEdges() []edge {
	roots := r.Roots()
	edges := make([]edge, len(roots))
	for i, c := range roots {
		edges[i] = newEdge(c)
	}
	sortEdges(edges)
	return edges
}

// splitFuncName returns the package path and name of a function value.
// Bound method values yield the method name.
func splitFuncName(fn any) (pkgPath, name string) {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "", fmt.Sprintf("%T", fn)
	}
	full := strings.TrimSuffix(f.Name(), "-fm")
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return "", full
	}
	pkgPath = full[:slash+1+dot]
	rest := full[slash+1+dot+1:]
	if i := strings.LastIndex(rest, "."); i >= 0 {
		rest = rest[i+1:]
	}
	return pkgPath, rest
}
