package apiready

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/broady/apiready/ir"
)

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.SetAliasTag("json")
	schemaDecoder.IgnoreUnknownKeys(true)
}

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// ParameterSpec describes one parameter of an annotated callable.
type ParameterSpec struct {
	Name string
	Type ir.TypeDescriptor

	// HasDefault is true when the parameter may be omitted.
	HasDefault bool
	Default    any

	// Constraint is the validator tag of a request-struct field.
	Constraint  string
	Description string

	// Index locates the argument: its position after the receiver and
	// context in positional mode, or the field index path of the request
	// struct.
	Index []int
}

// Required reports whether a caller must supply the parameter.
func (p ParameterSpec) Required() bool { return !p.HasDefault }

// Signature is the normalized description of a callable.
type Signature struct {
	// Params are ordered with required parameters first.
	Params  []ParameterSpec
	Returns ir.TypeDescriptor

	// Context is true when the callable takes a leading context.Context.
	Context bool
	// Request is the request struct type when the callable takes a single
	// struct whose fields are the parameters. Nil in positional mode.
	Request reflect.Type
	// Error is true when the last result is an error.
	Error bool
}

// NodeResolver reports whether a type is an annotated class, returning the
// descriptor that links to it.
type NodeResolver interface {
	NodeFor(t reflect.Type) (*ir.NodeDescriptor, bool)
}

// ExtractSignature describes fn, a function value, without a registry.
// Named struct types are recorded as plain references.
func ExtractSignature(fn any, opts ...Option) (*Signature, error) {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return nil, Errorf(CodeInvalidTarget, "%T is not a function", fn)
	}
	_, name := splitFuncName(fn)
	x := &extractor{callable: name, target: name, nodes: noNodes{}}
	return x.extract(t, false, nil, buildOptions(opts))
}

type noNodes struct{}

func (noNodes) NodeFor(reflect.Type) (*ir.NodeDescriptor, bool) { return nil, false }

type extractor struct {
	callable string // API name used in messages
	target   string // qualified Go name
	nodes    NodeResolver
}

var errUntyped = errors.New("no declared type")

// extract builds the Signature of fn. When receiver is set the first input
// is the method receiver and is skipped. srcNames are parameter names from
// source, covering every input after the receiver.
func (x *extractor) extract(fn reflect.Type, receiver bool, srcNames []string, o options) (*Signature, error) {
	sig := &Signature{}
	first := 0
	if receiver {
		first = 1
	}
	if len(srcNames) != fn.NumIn()-first {
		srcNames = nil
	}
	if fn.NumIn() > first && fn.In(first) == contextType {
		sig.Context = true
		first++
		if srcNames != nil {
			srcNames = srcNames[1:]
		}
	}

	var inputs []reflect.Type
	for i := first; i < fn.NumIn(); i++ {
		inputs = append(inputs, fn.In(i))
	}

	var err error
	if req := requestStruct(inputs, o, x.nodes); req != nil {
		sig.Request = inputs[0]
		sig.Params, err = x.structParams(req, o)
	} else {
		sig.Params, err = x.positionalParams(inputs, fn.IsVariadic(), srcNames, o)
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sig.Params, func(i, j int) bool {
		return sig.Params[i].Required() && !sig.Params[j].Required()
	})

	sig.Returns, sig.Error, err = x.results(fn)
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// requestStruct returns the struct type whose fields are the parameters,
// or nil when the inputs are positional.
func requestStruct(inputs []reflect.Type, o options, nodes NodeResolver) reflect.Type {
	if len(inputs) != 1 || len(o.params) > 0 {
		return nil
	}
	t := inputs[0]
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t.Name() == "" || special(t) != nil {
		return nil
	}
	if _, ok := nodes.NodeFor(t); ok {
		return nil
	}
	return t
}

func (x *extractor) positionalParams(inputs []reflect.Type, variadic bool, srcNames []string, o options) ([]ParameterSpec, error) {
	if len(o.params) > 0 && len(o.params) != len(inputs) {
		return nil, Errorf(CodeInvalidTarget, "%s: Params names %d parameters, callable takes %d",
			x.callable, len(o.params), len(inputs))
	}
	params := make([]ParameterSpec, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for i, t := range inputs {
		name := fmt.Sprintf("arg%d", i)
		switch {
		case len(o.params) > 0:
			name = o.params[i]
		case srcNames != nil && srcNames[i] != "" && srcNames[i] != "_":
			name = srcNames[i]
		}
		if seen[name] {
			return nil, Errorf(CodeInvalidTarget, "%s: duplicate parameter name %q", x.callable, name)
		}
		seen[name] = true

		desc, err := x.describe(t)
		if err != nil {
			return nil, x.paramError(name, err)
		}
		p := ParameterSpec{Name: name, Type: desc, Index: []int{i}, Description: o.descs[name]}
		if variadic && i == len(inputs)-1 {
			p.HasDefault = true
			p.Default = reflect.MakeSlice(t, 0, 0).Interface()
		}
		if v, ok := o.defaults[name]; ok {
			conv, ok := convertDefault(v, t)
			if !ok {
				return nil, Errorf(CodeInvalidTarget, "%s: default %v (%T) is not assignable to parameter %s of type %s",
					x.callable, v, v, name, t).WithDetail("parameter", name)
			}
			p.HasDefault = true
			p.Default = conv
		}
		params = append(params, p)
	}
	if err := x.checkKnown(seen, o); err != nil {
		return nil, err
	}
	return params, nil
}

func (x *extractor) structParams(req reflect.Type, o options) ([]ParameterSpec, error) {
	var params []ParameterSpec
	seen := make(map[string]bool)
	for _, f := range reflect.VisibleFields(req) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		name, omitempty, skip := jsonName(f)
		if skip {
			continue
		}
		if seen[name] {
			return nil, Errorf(CodeInvalidTarget, "%s: duplicate parameter name %q in %s", x.callable, name, req.Name()).
				WithDetail("parameter", name)
		}
		seen[name] = true

		desc, err := x.describe(f.Type)
		if err != nil {
			return nil, x.paramError(name, err)
		}
		p := ParameterSpec{
			Name:        name,
			Type:        desc,
			Constraint:  f.Tag.Get("validate"),
			Description: f.Tag.Get("doc"),
			Index:       f.Index,
		}
		if d, ok := o.descs[name]; ok {
			p.Description = d
		}
		if omitempty || f.Type.Kind() == reflect.Pointer {
			p.HasDefault = true
			p.Default = reflect.Zero(f.Type).Interface()
		}
		if raw, ok := f.Tag.Lookup("default"); ok {
			v, err := decodeDefault(req, f, name, raw)
			if err != nil {
				return nil, Errorf(CodeInvalidTarget, "%s: default %q for %s: %v", x.callable, raw, name, err).
					WithDetail("parameter", name)
			}
			if p.Constraint != "" {
				if err := validate.Var(v, p.Constraint); err != nil {
					return nil, Errorf(CodeInvalidTarget, "%s: default %q for %s violates %q", x.callable, raw, name, p.Constraint).
						WithDetail("parameter", name)
				}
			}
			p.HasDefault = true
			p.Default = v
		}
		params = append(params, p)
	}
	if len(o.defaults) > 0 {
		return nil, Errorf(CodeInvalidTarget, "%s: request struct %s takes defaults from field tags", x.callable, req.Name())
	}
	if err := x.checkKnown(seen, o); err != nil {
		return nil, err
	}
	return params, nil
}

// checkKnown rejects options that name parameters the callable does not have.
func (x *extractor) checkKnown(seen map[string]bool, o options) error {
	for name := range o.defaults {
		if !seen[name] {
			return Errorf(CodeInvalidTarget, "%s: default for unknown parameter %q", x.callable, name)
		}
	}
	for name := range o.descs {
		if !seen[name] {
			return Errorf(CodeInvalidTarget, "%s: description for unknown parameter %q", x.callable, name)
		}
	}
	return nil
}

// decodeDefault decodes a default tag into the field's type using the same
// decoder a publisher would use for query parameters.
func decodeDefault(req reflect.Type, f reflect.StructField, name, raw string) (any, error) {
	dst := reflect.New(req)
	if err := schemaDecoder.Decode(dst.Interface(), url.Values{name: {raw}}); err != nil {
		return nil, err
	}
	v := dst.Elem().FieldByIndex(f.Index)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("value not decoded")
		}
		v = v.Elem()
	}
	return v.Interface(), nil
}

func (x *extractor) results(fn reflect.Type) (ir.TypeDescriptor, bool, error) {
	switch {
	case fn.NumOut() == 0:
		return ir.Void(), false, nil
	case fn.NumOut() == 1 && fn.Out(0) == errorType:
		return ir.Void(), true, nil
	case fn.NumOut() == 1 || (fn.NumOut() == 2 && fn.Out(1) == errorType):
		desc, err := x.describe(fn.Out(0))
		if err != nil {
			return nil, false, x.paramError("return", err)
		}
		return desc, fn.NumOut() == 2, nil
	default:
		return nil, false, Errorf(CodeInvalidTarget, "%s: results must be (T), (T, error), (error) or none; got %s",
			x.callable, fn)
	}
}

func (x *extractor) paramError(name string, err error) *Error {
	if errors.Is(err, errUntyped) {
		return missingTypeAnnotation(x.callable, name).WithDetail("target", x.target)
	}
	return Errorf(CodeInvalidTarget, "%s: %s: %v", x.callable, name, err).
		WithDetails(map[string]any{"parameter": name, "target": x.target})
}

// describe converts a Go type to a TypeDescriptor.
func (x *extractor) describe(t reflect.Type) (ir.TypeDescriptor, error) {
	if d := special(t); d != nil {
		return d, nil
	}
	if n, ok := x.nodes.NodeFor(t); ok {
		return n, nil
	}

	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return nil, fmt.Errorf("unsupported type: %s", t)

	case reflect.Interface:
		if t.NumMethod() == 0 {
			return nil, errUntyped
		}
		return nil, fmt.Errorf("unsupported interface type: %s", t)

	case reflect.Pointer:
		if n, ok := x.nodes.NodeFor(t.Elem()); ok {
			return n, nil
		}
		elem, err := x.describe(t.Elem())
		if err != nil {
			return nil, err
		}
		return ir.Optional(elem), nil
	}

	// Any other named type is a reference to its declaration.
	if t.Name() != "" && t.PkgPath() != "" {
		return ir.Ref(t.Name(), t.PkgPath()), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return ir.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ir.Int(bitSize(t)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ir.Uint(bitSize(t)), nil
	case reflect.Float32, reflect.Float64:
		return ir.Float(t.Bits()), nil
	case reflect.String:
		return ir.String(), nil

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return ir.Bytes(), nil
		}
		elem, err := x.describe(t.Elem())
		if err != nil {
			return nil, err
		}
		return ir.Slice(elem), nil

	case reflect.Array:
		elem, err := x.describe(t.Elem())
		if err != nil {
			return nil, err
		}
		return ir.Array(elem, t.Len()), nil

	case reflect.Map:
		if err := validateMapKeyType(t.Key()); err != nil {
			return nil, err
		}
		key, err := x.describe(t.Key())
		if err != nil {
			return nil, err
		}
		value, err := x.describe(t.Elem())
		if err != nil {
			return nil, err
		}
		return ir.Map(key, value), nil

	case reflect.Struct:
		return nil, fmt.Errorf("anonymous struct types cannot be described; declare a named type")

	default:
		return nil, fmt.Errorf("unsupported type: %s (kind: %s)", t, t.Kind())
	}
}

// special returns dedicated descriptors for well-known types.
func special(t reflect.Type) ir.TypeDescriptor {
	switch {
	case t.PkgPath() == "time" && t.Name() == "Time":
		return ir.Time()
	case t.PkgPath() == "time" && t.Name() == "Duration":
		return ir.Duration()
	case t == reflect.TypeFor[json.Number]():
		return ir.String()
	case t == reflect.TypeFor[json.RawMessage]():
		return ir.Any()
	case t.Kind() == reflect.Struct && t.NumField() == 0 && t.Name() == "":
		return ir.Empty()
	}
	return nil
}

func validateMapKeyType(t reflect.Type) error {
	switch t.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return nil
	default:
		return fmt.Errorf("unsupported map key type: %s", t)
	}
}

func bitSize(t reflect.Type) int {
	switch t.Kind() {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return 0
	}
	return t.Bits()
}

// convertDefault returns v as a value of type t. Untyped-constant style
// values are accepted: 10 for an int64 parameter, "utf-8" for a named
// string type. Numbers must be represented exactly by t.
func convertDefault(v any, t reflect.Type) (any, bool) {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map:
			return reflect.Zero(t).Interface(), true
		}
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return v, true
	}
	if numeric(rv.Kind()) && numeric(t.Kind()) {
		conv := rv.Convert(t)
		if negative(conv) != negative(rv) || !conv.Convert(rv.Type()).Equal(rv) {
			return nil, false
		}
		return conv.Interface(), true
	}
	if rv.Kind() == reflect.String && t.Kind() == reflect.String {
		return rv.Convert(t).Interface(), true
	}
	return nil, false
}

func negative(v reflect.Value) bool {
	switch {
	case v.CanInt():
		return v.Int() < 0
	case v.CanFloat():
		return v.Float() < 0
	}
	return false
}

func numeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

// jsonName returns the parameter name of a request field and whether the
// field may be omitted.
func jsonName(f reflect.StructField) (name string, omitempty, skip bool) {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return f.Name, false, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "-" && !strings.Contains(tag, ",") {
		return "", false, true
	}
	if name == "" {
		name = f.Name
	}
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" || opt == "omitzero" {
			omitempty = true
		}
	}
	return name, omitempty, false
}
