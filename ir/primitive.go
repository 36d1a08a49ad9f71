package ir

import "strconv"

// PrimitiveKind identifies the category of a primitive type.
type PrimitiveKind int

const (
	PrimitiveBool  PrimitiveKind = iota
	PrimitiveInt                 // Signed integer (see BitSize)
	PrimitiveUint                // Unsigned integer (see BitSize)
	PrimitiveFloat               // Floating point (see BitSize)
	PrimitiveString
	PrimitiveBytes    // []byte
	PrimitiveTime     // time.Time
	PrimitiveDuration // time.Duration
	PrimitiveAny      // json.RawMessage; arbitrary JSON by declaration
	PrimitiveEmpty    // struct{}
	PrimitiveNull     // the null member of an optional union
	PrimitiveVoid     // no return value
)

// String returns the string representation of the primitive kind.
func (k PrimitiveKind) String() string {
	switch k {
	case PrimitiveBool:
		return "Bool"
	case PrimitiveInt:
		return "Int"
	case PrimitiveUint:
		return "Uint"
	case PrimitiveFloat:
		return "Float"
	case PrimitiveString:
		return "String"
	case PrimitiveBytes:
		return "Bytes"
	case PrimitiveTime:
		return "Time"
	case PrimitiveDuration:
		return "Duration"
	case PrimitiveAny:
		return "Any"
	case PrimitiveEmpty:
		return "Empty"
	case PrimitiveNull:
		return "Null"
	case PrimitiveVoid:
		return "Void"
	default:
		return "Unknown"
	}
}

// PrimitiveDescriptor represents a built-in primitive type.
type PrimitiveDescriptor struct {
	exprBase
	PrimitiveKind PrimitiveKind

	// BitSize specifies the size for numeric types (PrimitiveInt, PrimitiveUint, PrimitiveFloat).
	// 0 means platform-dependent (Go's int and uint); otherwise 8, 16, 32 or 64.
	// Ignored for non-numeric primitive kinds.
	BitSize int
}

// Kind returns KindPrimitive.
func (d *PrimitiveDescriptor) Kind() DescriptorKind { return KindPrimitive }

// String renders the primitive with Go spelling where one exists.
func (d *PrimitiveDescriptor) String() string {
	switch d.PrimitiveKind {
	case PrimitiveBool:
		return "bool"
	case PrimitiveInt:
		return sized("int", d.BitSize)
	case PrimitiveUint:
		return sized("uint", d.BitSize)
	case PrimitiveFloat:
		if d.BitSize == 0 {
			return "float64"
		}
		return sized("float", d.BitSize)
	case PrimitiveString:
		return "string"
	case PrimitiveBytes:
		return "bytes"
	case PrimitiveTime:
		return "time"
	case PrimitiveDuration:
		return "duration"
	case PrimitiveAny:
		return "any"
	case PrimitiveEmpty:
		return "{}"
	case PrimitiveNull:
		return "null"
	case PrimitiveVoid:
		return "void"
	default:
		return "unknown"
	}
}

func sized(name string, bits int) string {
	if bits == 0 {
		return name
	}
	return name + strconv.Itoa(bits)
}

// Convenience constructors for common primitives.

// Bool returns a PrimitiveDescriptor for bool.
func Bool() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveBool}
}

// String returns a PrimitiveDescriptor for string.
func String() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveString}
}

// Int returns a PrimitiveDescriptor for int with the given bit size.
// Use 0 for platform-dependent int.
func Int(bitSize int) *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveInt, BitSize: bitSize}
}

// Uint returns a PrimitiveDescriptor for uint with the given bit size.
// Use 0 for platform-dependent uint.
func Uint(bitSize int) *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveUint, BitSize: bitSize}
}

// Float returns a PrimitiveDescriptor for float with the given bit size.
func Float(bitSize int) *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveFloat, BitSize: bitSize}
}

// Bytes returns a PrimitiveDescriptor for []byte.
func Bytes() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveBytes}
}

// Time returns a PrimitiveDescriptor for time.Time.
func Time() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveTime}
}

// Duration returns a PrimitiveDescriptor for time.Duration.
func Duration() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveDuration}
}

// Any returns a PrimitiveDescriptor for raw JSON.
func Any() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveAny}
}

// Empty returns a PrimitiveDescriptor for struct{}.
func Empty() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveEmpty}
}

// Null returns a PrimitiveDescriptor for null.
func Null() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveNull}
}

// Void returns a PrimitiveDescriptor for a callable without a result.
func Void() *PrimitiveDescriptor {
	return &PrimitiveDescriptor{PrimitiveKind: PrimitiveVoid}
}

// IsVoid reports whether d describes the absence of a result.
func IsVoid(d TypeDescriptor) bool {
	p, ok := d.(*PrimitiveDescriptor)
	return ok && p.PrimitiveKind == PrimitiveVoid
}
