package ir

import "encoding/json"

// Serialization support for IR types.
// Every descriptor encodes with a "kind" field for type discrimination.
// MarshalYAML satisfies yaml.v3's Marshaler without importing it here.

type primitiveWire struct {
	Kind          string `json:"kind" yaml:"kind"`
	PrimitiveKind string `json:"primitiveKind" yaml:"primitiveKind"`
	BitSize       int    `json:"bitSize,omitempty" yaml:"bitSize,omitempty"`
}

func (d *PrimitiveDescriptor) wire() any {
	return &primitiveWire{
		Kind:          "primitive",
		PrimitiveKind: d.PrimitiveKind.String(),
		BitSize:       d.BitSize,
	}
}

type arrayWire struct {
	Kind    string `json:"kind" yaml:"kind"`
	Element any    `json:"element" yaml:"element"`
	Length  int    `json:"length" yaml:"length"`
}

func (d *ArrayDescriptor) wire() any {
	return &arrayWire{Kind: "array", Element: wireOf(d.Element), Length: d.Length}
}

type mapWire struct {
	Kind  string `json:"kind" yaml:"kind"`
	Key   any    `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

func (d *MapDescriptor) wire() any {
	return &mapWire{Kind: "map", Key: wireOf(d.Key), Value: wireOf(d.Value)}
}

type referenceWire struct {
	Kind string `json:"kind" yaml:"kind"`
	Name string `json:"name" yaml:"name"`
	Pkg  string `json:"package,omitempty" yaml:"package,omitempty"`
}

func (d *ReferenceDescriptor) wire() any {
	return &referenceWire{Kind: "reference", Name: d.Target.Name, Pkg: d.Target.Package}
}

type nodeWire struct {
	Kind string `json:"kind" yaml:"kind"`
	Name string `json:"name" yaml:"name"`
	Pkg  string `json:"package,omitempty" yaml:"package,omitempty"`
	Path string `json:"path" yaml:"path"`
}

func (d *NodeDescriptor) wire() any {
	return &nodeWire{Kind: "node", Name: d.Target.Name, Pkg: d.Target.Package, Path: d.Path}
}

type unionWire struct {
	Kind  string `json:"kind" yaml:"kind"`
	Types []any  `json:"types" yaml:"types"`
}

func (d *UnionDescriptor) wire() any {
	types := make([]any, len(d.Types))
	for i, t := range d.Types {
		types[i] = wireOf(t)
	}
	return &unionWire{Kind: "union", Types: types}
}

// wireOf returns the plain encoding form of d, or nil for a nil descriptor.
func wireOf(d TypeDescriptor) any {
	if d == nil {
		return nil
	}
	return d.(interface{ wire() any }).wire()
}

// MarshalJSON implements json.Marshaler for PrimitiveDescriptor.
func (d *PrimitiveDescriptor) MarshalJSON() ([]byte, error) { return json.Marshal(d.wire()) }

// MarshalJSON implements json.Marshaler for ArrayDescriptor.
func (d *ArrayDescriptor) MarshalJSON() ([]byte, error) { return json.Marshal(d.wire()) }

// MarshalJSON implements json.Marshaler for MapDescriptor.
func (d *MapDescriptor) MarshalJSON() ([]byte, error) { return json.Marshal(d.wire()) }

// MarshalJSON implements json.Marshaler for ReferenceDescriptor.
func (d *ReferenceDescriptor) MarshalJSON() ([]byte, error) { return json.Marshal(d.wire()) }

// MarshalJSON implements json.Marshaler for NodeDescriptor.
func (d *NodeDescriptor) MarshalJSON() ([]byte, error) { return json.Marshal(d.wire()) }

// MarshalJSON implements json.Marshaler for UnionDescriptor.
func (d *UnionDescriptor) MarshalJSON() ([]byte, error) { return json.Marshal(d.wire()) }

func (d *PrimitiveDescriptor) MarshalYAML() (any, error) { return d.wire(), nil }
func (d *ArrayDescriptor) MarshalYAML() (any, error)     { return d.wire(), nil }
func (d *MapDescriptor) MarshalYAML() (any, error)       { return d.wire(), nil }
func (d *ReferenceDescriptor) MarshalYAML() (any, error) { return d.wire(), nil }
func (d *NodeDescriptor) MarshalYAML() (any, error)      { return d.wire(), nil }
func (d *UnionDescriptor) MarshalYAML() (any, error)     { return d.wire(), nil }
