// Package ir defines the language-agnostic type descriptors recorded for
// annotated parameters and return values. Publishers turn these into
// validation models, JSON Schema or client types.
package ir

// DescriptorKind identifies the category of a type descriptor.
type DescriptorKind int

const (
	KindPrimitive DescriptorKind = iota // Built-in primitive type
	KindArray                           // Ordered collection ([]T or [N]T)
	KindMap                             // Key-value mapping (map[K]V)
	KindReference                       // Named type that is not an annotated class
	KindNode                            // Annotated class (an edge in the hierarchy)
	KindUnion                           // Union of types (T1 | T2 | ...)
)

// String returns the string representation of the descriptor kind.
func (k DescriptorKind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindReference:
		return "Reference"
	case KindNode:
		return "Node"
	case KindUnion:
		return "Union"
	default:
		return "Unknown"
	}
}

// TypeDescriptor is the base interface for all type descriptors.
type TypeDescriptor interface {
	// Kind returns the descriptor kind for type switching.
	Kind() DescriptorKind

	// String renders the descriptor in a compact, Go-like notation
	// such as "[]string", "map[string]int64" or "Shelf | null".
	String() string

	// Ensure only types in this package can implement TypeDescriptor.
	sealed()
}

type exprBase struct{}

func (exprBase) sealed() {}
