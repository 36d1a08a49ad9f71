package apiready

import "github.com/broady/apiready/ir"

// Node is one level of the hierarchy. It is rebuilt on every call from the
// recorded metadata and never expands past its direct children.
type Node struct {
	Path     string     `json:"path" yaml:"path"`
	Methods  []Endpoint `json:"methods" yaml:"methods"`
	Children []string   `json:"children" yaml:"children"`

	// Entries summarizes each child, keyed by child segment name.
	Entries map[string]Summary `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// Summary describes a child without expanding it.
type Summary struct {
	Path     string          `json:"path" yaml:"path"`
	Methods  []MethodSummary `json:"methods" yaml:"methods"`
	Children []string        `json:"children" yaml:"children"`
}

// MethodSummary is a verb-tagged method name.
type MethodSummary struct {
	Name string `json:"name" yaml:"name"`
	Verb Verb   `json:"verb" yaml:"verb"`
}

// Endpoint is the publisher-facing description of one method at a node.
type Endpoint struct {
	Name       string            `json:"name" yaml:"name"`
	Verb       Verb              `json:"verb" yaml:"verb"`
	Path       string            `json:"path" yaml:"path"`
	Parameters []Parameter       `json:"parameters" yaml:"parameters"`
	Returns    ir.TypeDescriptor `json:"returns" yaml:"returns"`
	Doc        string            `json:"doc" yaml:"doc"`
}

// Parameter is the publisher-facing description of one parameter.
// Default is only set for optional parameters.
type Parameter struct {
	Name        string            `json:"name" yaml:"name"`
	Type        ir.TypeDescriptor `json:"type" yaml:"type"`
	Required    bool              `json:"required" yaml:"required"`
	Default     any               `json:"default,omitempty" yaml:"default,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
}

// Tree is a Node expanded a bounded number of levels. A child whose class
// already appears on the path from the top of the tree is marked Cycle and
// not expanded.
type Tree struct {
	Node     `yaml:",inline"`
	Subtrees map[string]*Tree `json:"subtrees,omitempty" yaml:"subtrees,omitempty"`
	Cycle    bool             `json:"cycle,omitempty" yaml:"cycle,omitempty"`
}

// Structure returns one level of the hierarchy. An empty path (or "/")
// lists the free functions and every root class. Otherwise the path is
// resolved segment by segment, first against the roots and then against
// the children reachable from each resolved class, and the last class's
// methods and direct children are returned.
//
// Unresolvable segments fail with CodePathNotFound; the error details carry
// the segment and the longest prefix that did resolve.
func (r *Registry) Structure(path string) (*Node, error) {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return r.rootNode()
	}
	c, at, err := r.walk(segs)
	if err != nil {
		return nil, err
	}
	return c.node(at)
}

// StructureMulti returns the node for each path, keyed by normalized path.
func (r *Registry) StructureMulti(paths ...string) (map[string]*Node, error) {
	nodes := make(map[string]*Node, len(paths))
	for _, p := range paths {
		n, err := r.Structure(p)
		if err != nil {
			return nil, err
		}
		nodes[n.Path] = n
	}
	return nodes, nil
}

// Tree expands path depth levels below the requested node. Depth 0 is
// equivalent to Structure.
func (r *Registry) Tree(path string, depth int) (*Tree, error) {
	segs := SplitPath(path)
	if len(segs) == 0 {
		n, err := r.rootNode()
		if err != nil {
			return nil, err
		}
		return r.expand(n, r.rootEdges(), depth, map[*ClassMetadata]bool{})
	}
	c, at, err := r.walk(segs)
	if err != nil {
		return nil, err
	}
	return r.expandClass(c, at, depth, map[*ClassMetadata]bool{})
}

func (r *Registry) expandClass(c *ClassMetadata, at string, depth int, ancestors map[*ClassMetadata]bool) (*Tree, error) {
	n, err := c.node(at)
	if err != nil {
		return nil, err
	}
	edges, err := c.childEdges()
	if err != nil {
		return nil, err
	}
	ancestors[c] = true
	defer delete(ancestors, c)
	return r.expand(n, edges, depth, ancestors)
}

func (r *Registry) expand(n *Node, edges []edge, depth int, ancestors map[*ClassMetadata]bool) (*Tree, error) {
	t := &Tree{Node: *n}
	if depth <= 0 || len(edges) == 0 {
		return t, nil
	}
	t.Subtrees = make(map[string]*Tree, len(edges))
	for _, e := range edges {
		at := ComposePath(n.Path, e.name)
		if ancestors[e.class] {
			t.Subtrees[e.name] = &Tree{Node: Node{Path: at}, Cycle: true}
			continue
		}
		sub, err := r.expandClass(e.class, at, depth-1, ancestors)
		if err != nil {
			return nil, err
		}
		t.Subtrees[e.name] = sub
	}
	return t, nil
}

// walk resolves segs to a class and the path it was reached at.
// A class's base path may span several segments; the longest match wins.
func (r *Registry) walk(segs []string) (*ClassMetadata, string, error) {
	candidates := r.rootEdges()
	var cur *ClassMetadata
	at := "/"
	for i := 0; i < len(segs); {
		e, ok := longestMatch(candidates, segs[i:])
		if !ok {
			return nil, "", pathNotFound(segs[i], at)
		}
		cur = e.class
		at = ComposePath(at, e.name)
		i += len(e.segs)
		if i < len(segs) {
			var err error
			if candidates, err = cur.childEdges(); err != nil {
				return nil, "", err
			}
		}
	}
	return cur, at, nil
}

func longestMatch(edges []edge, segs []string) (edge, bool) {
	var best edge
	found := false
	for _, e := range edges {
		if len(e.segs) == 0 || !hasSegmentPrefix(segs, e.segs) {
			continue
		}
		if !found || len(e.segs) > len(best.segs) {
			best, found = e, true
		}
	}
	return best, found
}

func (r *Registry) rootNode() (*Node, error) {
	n := &Node{Path: "/", Methods: []Endpoint{}}
	for _, f := range r.Funcs() {
		ep, err := endpoint(f, "/")
		if err != nil {
			return nil, err
		}
		n.Methods = append(n.Methods, ep)
	}
	if err := summarize(n, r.rootEdges()); err != nil {
		return nil, err
	}
	return n, nil
}

// node builds the Node for c reached at path at.
func (c *ClassMetadata) node(at string) (*Node, error) {
	methods, err := c.Methods()
	if err != nil {
		return nil, err
	}
	n := &Node{Path: at, Methods: make([]Endpoint, 0, len(methods))}
	for _, m := range methods {
		ep, err := endpoint(m, at)
		if err != nil {
			return nil, err
		}
		n.Methods = append(n.Methods, ep)
	}
	if err := summarize(n, c.children); err != nil {
		return nil, err
	}
	return n, nil
}

// summarize fills in the children of n. Each child is inspected one level
// deep to name its own children; nothing further is resolved.
func summarize(n *Node, edges []edge) error {
	n.Children = edgeNames(edges)
	if len(edges) == 0 {
		return nil
	}
	n.Entries = make(map[string]Summary, len(edges))
	for _, e := range edges {
		methods, err := e.class.Methods()
		if err != nil {
			return err
		}
		s := Summary{
			Path:     ComposePath(n.Path, e.name),
			Methods:  make([]MethodSummary, len(methods)),
			Children: edgeNames(e.class.children),
		}
		for i, m := range methods {
			s.Methods[i] = MethodSummary{Name: m.name, Verb: m.verb}
		}
		n.Entries[e.name] = s
	}
	return nil
}

func endpoint(m *MethodMetadata, at string) (Endpoint, error) {
	sig, err := m.Signature()
	if err != nil {
		return Endpoint{}, err
	}
	ep := Endpoint{
		Name:       m.name,
		Verb:       m.verb,
		Path:       ComposePath(at, m.leaf),
		Parameters: make([]Parameter, len(sig.Params)),
		Returns:    sig.Returns,
		Doc:        m.doc,
	}
	for i, p := range sig.Params {
		ep.Parameters[i] = Parameter{
			Name:        p.Name,
			Type:        p.Type,
			Required:    p.Required(),
			Description: p.Description,
		}
		if p.HasDefault {
			ep.Parameters[i].Default = p.Default
		}
	}
	return ep, nil
}

// Unreachable returns the nested classes that no path from a root reaches,
// in registration order. Every class met on the way is resolved.
func (r *Registry) Unreachable() ([]*ClassMetadata, error) {
	seen := make(map[*ClassMetadata]bool)
	queue := r.Roots()
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if seen[c] {
			continue
		}
		seen[c] = true
		edges, err := c.childEdges()
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			queue = append(queue, e.class)
		}
	}
	var out []*ClassMetadata
	for _, c := range r.Classes() {
		if !seen[c] {
			out = append(out, c)
		}
	}
	return out, nil
}
