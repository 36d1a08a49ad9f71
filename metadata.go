package apiready

import (
	"errors"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/broady/apiready/ir"
)

// MethodMetadata describes one annotated method or free function.
// It is immutable once created; the signature is resolved on first access
// and cached together with any error.
type MethodMetadata struct {
	class    *ClassMetadata
	goName   string
	name     string
	leaf     string
	path     string
	verb     Verb
	doc      string
	fn       reflect.Type
	receiver bool
	srcNames []string
	opts     options
	registry *Registry

	once sync.Once
	sig  *Signature
	err  error
}

// OwnerPath returns the base path of the owning class, or "" for a free function.
func (m *MethodMetadata) OwnerPath() string {
	if m.class == nil {
		return ""
	}
	return m.class.basePath
}

// Class returns the owning class, or nil for a free function.
func (m *MethodMetadata) Class() *ClassMetadata { return m.class }

// Name returns the API name.
func (m *MethodMetadata) Name() string { return m.name }

// GoName returns the Go method or function name.
func (m *MethodMetadata) GoName() string { return m.goName }

// Leaf returns the path of the method relative to its class.
func (m *MethodMetadata) Leaf() string { return m.leaf }

// Path returns the composed path under the owning class's base path.
func (m *MethodMetadata) Path() string { return m.path }

// Verb returns the explicit or inferred verb.
func (m *MethodMetadata) Verb() Verb { return m.verb }

// Doc returns the documentation text, which may be empty.
func (m *MethodMetadata) Doc() string { return m.doc }

// Signature resolves the parameters and return type. Resolution happens
// once; later calls return the cached result.
func (m *MethodMetadata) Signature() (*Signature, error) {
	m.once.Do(func() {
		m.registry.resolved.Store(true)
		x := &extractor{callable: m.name, target: m.qualifiedName(), nodes: m.registry}
		m.sig, m.err = x.extract(m.fn, m.receiver, m.srcNames, m.opts)
		if m.err == nil {
			m.registry.log().Debug("resolved signature",
				slog.String("method", m.qualifiedName()),
				slog.Int("params", len(m.sig.Params)))
		}
	})
	return m.sig, m.err
}

// Parameters returns the resolved parameters, required first.
func (m *MethodMetadata) Parameters() ([]ParameterSpec, error) {
	sig, err := m.Signature()
	if err != nil {
		return nil, err
	}
	return sig.Params, nil
}

// Returns returns the resolved return type.
func (m *MethodMetadata) Returns() (ir.TypeDescriptor, error) {
	sig, err := m.Signature()
	if err != nil {
		return nil, err
	}
	return sig.Returns, nil
}

func (m *MethodMetadata) qualifiedName() string {
	if m.class == nil {
		return m.goName
	}
	return m.class.name + "." + m.goName
}

// ClassMetadata describes an annotated class: a named Go type whose
// annotated methods share a base path.
type ClassMetadata struct {
	registry *Registry
	typ      reflect.Type
	recv     reflect.Type
	name     string
	basePath string
	doc      string
	opts     options

	// Guarded by registry.mu.
	declared []*MethodMetadata
	byName   map[string]*MethodMetadata

	frozen   atomic.Bool
	once     sync.Once
	methods  []*MethodMetadata
	children []edge
	err      error
}

// edge links a path segment to the class it resolves to.
type edge struct {
	name  string
	segs  []string
	class *ClassMetadata
}

// BasePath returns the class's base path.
func (c *ClassMetadata) BasePath() string { return c.basePath }

// Name returns the Go type name.
func (c *ClassMetadata) Name() string { return c.name }

// Type returns the annotated type. Pointer types are recorded by their element.
func (c *ClassMetadata) Type() reflect.Type { return c.typ }

// Doc returns the class documentation.
func (c *ClassMetadata) Doc() string { return c.doc }

// Nested reports whether the class is reachable only through other classes.
func (c *ClassMetadata) Nested() bool { return c.opts.nested }

// Lookup returns the annotated method with the given Go name.
func (c *ClassMetadata) Lookup(goName string) (*MethodMetadata, bool) {
	c.registry.mu.RLock()
	defer c.registry.mu.RUnlock()
	m, ok := c.byName[goName]
	return m, ok
}

// Methods returns the annotated methods sorted by path, resolving every
// signature on first call. The result is computed once.
func (c *ClassMetadata) Methods() ([]*MethodMetadata, error) {
	c.resolve()
	return c.methods, c.err
}

// Children returns the segment names of classes reachable through method
// return types, sorted.
func (c *ClassMetadata) Children() ([]string, error) {
	c.resolve()
	if c.err != nil {
		return nil, c.err
	}
	return edgeNames(c.children), nil
}

func (c *ClassMetadata) childEdges() ([]edge, error) {
	c.resolve()
	return c.children, c.err
}

func (c *ClassMetadata) resolve() {
	c.once.Do(func() {
		c.frozen.Store(true)
		c.registry.resolved.Store(true)

		c.registry.mu.RLock()
		methods := append([]*MethodMetadata(nil), c.declared...)
		c.registry.mu.RUnlock()

		var errs []error
		bySegment := make(map[string]edge)
		for _, m := range methods {
			sig, err := m.Signature()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			n := ir.NodeOf(sig.Returns)
			if n == nil {
				continue
			}
			child, ok := c.registry.Lookup(n.Type)
			if !ok {
				continue
			}
			e := newEdge(child)
			if prev, ok := bySegment[e.name]; ok && prev.class != child {
				errs = append(errs, ambiguousPath(ComposePath(c.basePath, e.name), prev.class.name, child.name))
				continue
			}
			bySegment[e.name] = e
		}
		if len(errs) > 0 {
			c.err = errors.Join(errs...)
			return
		}

		sort.Slice(methods, func(i, j int) bool { return methods[i].path < methods[j].path })
		c.methods = methods
		for _, e := range bySegment {
			c.children = append(c.children, e)
		}
		sortEdges(c.children)
		c.registry.log().Debug("resolved class",
			slog.String("class", c.name),
			slog.Int("methods", len(methods)),
			slog.Int("children", len(c.children)))
	})
}

func newEdge(c *ClassMetadata) edge {
	segs := SplitPath(c.basePath)
	return edge{name: strings.Join(segs, "/"), segs: segs, class: c}
}

func sortEdges(edges []edge) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].name < edges[j].name })
}

func edgeNames(edges []edge) []string {
	names := make([]string, len(edges))
	for i, e := range edges {
		names[i] = e.name
	}
	return names
}
