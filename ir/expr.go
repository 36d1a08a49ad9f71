package ir

import (
	"reflect"
	"strconv"
	"strings"
)

// ArrayDescriptor represents an ordered collection (slice or fixed-length array).
type ArrayDescriptor struct {
	exprBase

	// Element is the array element type.
	Element TypeDescriptor

	// Length is 0 for slices ([]T), or >0 for fixed-length arrays ([N]T).
	Length int
}

// Kind returns KindArray.
func (d *ArrayDescriptor) Kind() DescriptorKind { return KindArray }

func (d *ArrayDescriptor) String() string {
	if d.Length > 0 {
		return "[" + strconv.Itoa(d.Length) + "]" + d.Element.String()
	}
	return "[]" + d.Element.String()
}

// Slice returns an ArrayDescriptor for a slice type.
func Slice(element TypeDescriptor) *ArrayDescriptor {
	return &ArrayDescriptor{Element: element, Length: 0}
}

// Array returns an ArrayDescriptor for a fixed-length array.
func Array(element TypeDescriptor, length int) *ArrayDescriptor {
	return &ArrayDescriptor{Element: element, Length: length}
}

// MapDescriptor represents a key-value mapping.
type MapDescriptor struct {
	exprBase

	// Key is the map key type.
	Key TypeDescriptor

	// Value is the map value type.
	Value TypeDescriptor
}

// Kind returns KindMap.
func (d *MapDescriptor) Kind() DescriptorKind { return KindMap }

func (d *MapDescriptor) String() string {
	return "map[" + d.Key.String() + "]" + d.Value.String()
}

// Map returns a MapDescriptor for a map type.
func Map(key, value TypeDescriptor) *MapDescriptor {
	return &MapDescriptor{Key: key, Value: value}
}

// ReferenceDescriptor represents a reference to a named type that is not
// itself an annotated class (a request or response model).
type ReferenceDescriptor struct {
	exprBase

	// Target is the referenced type's identifier.
	Target GoIdentifier
}

// Kind returns KindReference.
func (d *ReferenceDescriptor) Kind() DescriptorKind { return KindReference }

func (d *ReferenceDescriptor) String() string { return d.Target.Name }

// Ref returns a ReferenceDescriptor for a named type.
func Ref(name string, pkg string) *ReferenceDescriptor {
	return &ReferenceDescriptor{Target: GoIdentifier{Name: name, Package: pkg}}
}

// NodeDescriptor references an annotated class. Navigators follow it as an
// edge of the hierarchy instead of flattening the type.
type NodeDescriptor struct {
	exprBase

	// Target is the annotated class's identifier.
	Target GoIdentifier

	// Path is the class's base path.
	Path string

	// Type is the Go type behind the node. It never leaves the process.
	Type reflect.Type
}

// Kind returns KindNode.
func (d *NodeDescriptor) Kind() DescriptorKind { return KindNode }

func (d *NodeDescriptor) String() string { return d.Target.Name }

// Node returns a NodeDescriptor for an annotated class.
func Node(t reflect.Type, path string) *NodeDescriptor {
	return &NodeDescriptor{
		Target: GoIdentifier{Name: t.Name(), Package: t.PkgPath()},
		Path:   path,
		Type:   t,
	}
}

// UnionDescriptor represents a union of types (T1 | T2 | ...).
// Pointers to non-node types are recorded as Union(T, Null()).
type UnionDescriptor struct {
	exprBase

	// Types contains the union members. Must have at least 1 element.
	Types []TypeDescriptor
}

// Kind returns KindUnion.
func (d *UnionDescriptor) Kind() DescriptorKind { return KindUnion }

func (d *UnionDescriptor) String() string {
	parts := make([]string, len(d.Types))
	for i, t := range d.Types {
		parts[i] = t.String()
	}
	return strings.Join(parts, " | ")
}

// Union returns a UnionDescriptor for a union of types.
func Union(types ...TypeDescriptor) *UnionDescriptor {
	return &UnionDescriptor{Types: types}
}

// Optional returns Union(d, Null()). An already nullable union is returned as is.
func Optional(d TypeDescriptor) TypeDescriptor {
	if u, ok := d.(*UnionDescriptor); ok {
		for _, t := range u.Types {
			if p, ok := t.(*PrimitiveDescriptor); ok && p.PrimitiveKind == PrimitiveNull {
				return u
			}
		}
		return Union(append(append([]TypeDescriptor(nil), u.Types...), Null())...)
	}
	return Union(d, Null())
}

// NodeOf returns the NodeDescriptor d refers to directly, or nil.
// Containers are not traversed: only a method returning the class itself
// creates a child edge.
func NodeOf(d TypeDescriptor) *NodeDescriptor {
	n, _ := d.(*NodeDescriptor)
	return n
}
