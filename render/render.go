// Package render encodes navigator output as JSON, YAML or Markdown.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/broady/apiready"
	"github.com/broady/apiready/ir"
)

// Format selects an output encoding.
type Format string

const (
	JSON     Format = "json"
	YAML     Format = "yaml"
	Markdown Format = "markdown"
)

// Formats lists every supported format.
var Formats = []Format{JSON, YAML, Markdown}

// Ext returns the file extension used for f.
func (f Format) Ext() string {
	switch f {
	case YAML:
		return ".yaml"
	case Markdown:
		return ".md"
	default:
		return ".json"
	}
}

// ParseFormat accepts a format name; "yml" and "md" are aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return "", fmt.Errorf("unknown format %q (want json, yaml or markdown)", s)
}

// Node writes n to w in format f.
func Node(w io.Writer, n *apiready.Node, f Format) error {
	return encode(w, n, f, func(b *builder) { b.node(n, 1) })
}

// Tree writes t to w in format f.
func Tree(w io.Writer, t *apiready.Tree, f Format) error {
	return encode(w, t, f, func(b *builder) { b.tree(t, 1) })
}

func encode(w io.Writer, v any, f Format, md func(*builder)) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case Markdown:
		b := &builder{}
		md(b)
		_, err := io.WriteString(w, b.String())
		return err
	}
	return fmt.Errorf("unknown format %q", f)
}

type builder struct {
	strings.Builder
}

func (b *builder) line(format string, args ...any) {
	fmt.Fprintf(b, format, args...)
	b.WriteByte('\n')
}

func heading(level int) string {
	return strings.Repeat("#", min(level, 6))
}

func (b *builder) node(n *apiready.Node, level int) {
	b.line("%s `%s`", heading(level), n.Path)
	b.line("")
	for _, ep := range n.Methods {
		b.endpoint(ep, level+1)
	}
	if len(n.Children) == 0 {
		return
	}
	b.line("%s Children", heading(level+1))
	b.line("")
	for _, name := range n.Children {
		s := n.Entries[name]
		methods := make([]string, len(s.Methods))
		for i, m := range s.Methods {
			methods[i] = m.Name
		}
		entry := fmt.Sprintf("- `%s`", s.Path)
		if len(methods) > 0 {
			entry += ": " + strings.Join(methods, ", ")
		}
		if len(s.Children) > 0 {
			entry += fmt.Sprintf(" (children: %s)", strings.Join(s.Children, ", "))
		}
		b.line("%s", entry)
	}
	b.line("")
}

func (b *builder) endpoint(ep apiready.Endpoint, level int) {
	b.line("%s %s", heading(level), ep.Name)
	b.line("")
	b.line("`%s %s` (%s)", ep.Verb.HTTPMethod(), ep.Path, ep.Verb)
	b.line("")
	if ep.Doc != "" {
		b.line("%s", ep.Doc)
		b.line("")
	}
	if len(ep.Parameters) > 0 {
		b.line("| parameter | type | required | default | description |")
		b.line("|---|---|---|---|---|")
		for _, p := range ep.Parameters {
			required := "no"
			if p.Required {
				required = "yes"
			}
			b.line("| %s | `%s` | %s | %s | %s |", p.Name, p.Type, required, defaultText(p), cell(p.Description))
		}
		b.line("")
	}
	if ep.Returns != nil && !ir.IsVoid(ep.Returns) {
		b.line("Returns `%s`.", ep.Returns)
		b.line("")
	}
}

func (b *builder) tree(t *apiready.Tree, level int) {
	if t.Cycle {
		b.line("%s `%s`", heading(level), t.Path)
		b.line("")
		b.line("Cycle: this class already appears above.")
		b.line("")
		return
	}
	b.node(&t.Node, level)
	names := make([]string, 0, len(t.Subtrees))
	for name := range t.Subtrees {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.tree(t.Subtrees[name], level+1)
	}
}

func defaultText(p apiready.Parameter) string {
	if p.Required {
		return ""
	}
	data, err := json.Marshal(p.Default)
	if err != nil {
		return cell(fmt.Sprint(p.Default))
	}
	return "`" + string(data) + "`"
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
