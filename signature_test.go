package apiready

import (
	"context"
	"encoding/json"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/broady/apiready/ir"
)

type Encoding string

type badDefaultRequest struct {
	N int `json:"n" default:"0" validate:"min=1"`
}

type unparsableDefaultRequest struct {
	N int `json:"n" default:"abc"`
}

type duplicateNameRequest struct {
	A string `json:"name"`
	B int    `json:"name"`
}

func paramNames(params []ParameterSpec) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

func TestExtractSignature_Positional(t *testing.T) {
	fn := func(ctx context.Context, path string, n int) (string, error) { return path, nil }
	sig, err := ExtractSignature(fn, Params("path", "n"), Default("n", 3))
	if err != nil {
		t.Fatalf("ExtractSignature() error = %v", err)
	}
	if !sig.Context {
		t.Error("Context = false, want true")
	}
	if !sig.Error {
		t.Error("Error = false, want true")
	}
	if sig.Request != nil {
		t.Errorf("Request = %v, want nil", sig.Request)
	}
	if got := paramNames(sig.Params); !slices.Equal(got, []string{"path", "n"}) {
		t.Fatalf("params = %v, want [path n]", got)
	}
	if !sig.Params[0].Required() {
		t.Error("path should be required")
	}
	if sig.Params[0].Type.String() != "string" {
		t.Errorf("path type = %s, want string", sig.Params[0].Type)
	}
	if sig.Params[1].Required() || sig.Params[1].Default != 3 {
		t.Errorf("n = %+v, want optional with default 3", sig.Params[1])
	}
	if !slices.Equal(sig.Params[1].Index, []int{1}) {
		t.Errorf("n index = %v, want [1]", sig.Params[1].Index)
	}
	if sig.Returns.String() != "string" {
		t.Errorf("returns = %s, want string", sig.Returns)
	}
}

func TestExtractSignature_DefaultConversion(t *testing.T) {
	sig, err := ExtractSignature(func(limit int64) []string { return nil }, Params("limit"), Default("limit", 10))
	if err != nil {
		t.Fatalf("ExtractSignature() error = %v", err)
	}
	if got := sig.Params[0].Default; got != int64(10) {
		t.Errorf("default = %#v, want int64(10)", got)
	}

	sig, err = ExtractSignature(func(enc Encoding) {}, Params("enc"), Default("enc", "utf-8"))
	if err != nil {
		t.Fatalf("ExtractSignature() error = %v", err)
	}
	if got := sig.Params[0].Default; got != Encoding("utf-8") {
		t.Errorf("default = %#v, want Encoding(utf-8)", got)
	}
	if sig.Params[0].Type.Kind() != ir.KindReference {
		t.Errorf("enc kind = %v, want Reference", sig.Params[0].Type.Kind())
	}
	if !ir.IsVoid(sig.Returns) {
		t.Errorf("returns = %s, want void", sig.Returns)
	}

	exact := []struct {
		name  string
		fn    any
		value any
		want  any
	}{
		{"int to int8", func(n int8) {}, 100, int8(100)},
		{"int to uint", func(n uint) {}, 7, uint(7)},
		{"integral float to int", func(n int) {}, 2.0, 2},
		{"int to float32", func(f float32) {}, 10, float32(10)},
		{"negative to int16", func(n int16) {}, -5, int16(-5)},
	}
	for _, tt := range exact {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := ExtractSignature(tt.fn, Params("n"), Default("n", tt.value))
			if err != nil {
				t.Fatalf("ExtractSignature() error = %v", err)
			}
			if got := sig.Params[0].Default; got != tt.want {
				t.Errorf("default = %#v, want %#v", got, tt.want)
			}
		})
	}

	inexact := []struct {
		name  string
		fn    any
		value any
	}{
		{"overflows int8", func(n int8) {}, 300},
		{"negative to uint", func(n uint) {}, -1},
		{"fraction to int", func(n int) {}, 3.7},
		{"overflows float32", func(f float32) {}, 1e300},
		{"uint64 max to int64", func(n int64) {}, uint64(1<<64 - 1)},
	}
	for _, tt := range inexact {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractSignature(tt.fn, Params("n"), Default("n", tt.value))
			if CodeOf(err) != CodeInvalidTarget {
				t.Fatalf("err = %v, want %s", err, CodeInvalidTarget)
			}
			if got := err.(*Error).Details["parameter"]; got != "n" {
				t.Errorf("parameter detail = %v, want n", got)
			}
		})
	}
}

func TestExtractSignature_CanonicalOrder(t *testing.T) {
	fn := func(a int, b string, c bool) {}
	sig, err := ExtractSignature(fn, Params("a", "b", "c"), Default("a", 1))
	if err != nil {
		t.Fatalf("ExtractSignature() error = %v", err)
	}
	if got := paramNames(sig.Params); !slices.Equal(got, []string{"b", "c", "a"}) {
		t.Errorf("params = %v, want [b c a]", got)
	}
	seenDefault := false
	for _, p := range sig.Params {
		if p.HasDefault {
			seenDefault = true
		} else if seenDefault {
			t.Errorf("required %s follows a defaulted parameter", p.Name)
		}
	}
	// Index still points at the call position.
	if !slices.Equal(sig.Params[2].Index, []int{0}) {
		t.Errorf("a index = %v, want [0]", sig.Params[2].Index)
	}
}

func TestExtractSignature_Variadic(t *testing.T) {
	s := &Shelf{}
	sig, err := ExtractSignature(s.Search, Params("query", "tags"))
	if err != nil {
		t.Fatalf("ExtractSignature() error = %v", err)
	}
	tags := sig.Params[1]
	if tags.Required() {
		t.Error("variadic parameter should be optional")
	}
	if d, ok := tags.Default.([]string); !ok || len(d) != 0 {
		t.Errorf("default = %#v, want empty []string", tags.Default)
	}
	if tags.Type.String() != "[]string" {
		t.Errorf("type = %s, want []string", tags.Type)
	}
	if sig.Returns.String() != "[]Book" {
		t.Errorf("returns = %s, want []Book", sig.Returns)
	}
}

func TestExtractSignature_RequestStruct(t *testing.T) {
	lib := &Library{}
	sig, err := ExtractSignature(lib.AddShelf)
	if err != nil {
		t.Fatalf("ExtractSignature() error = %v", err)
	}
	if !sig.Context {
		t.Error("Context = false, want true")
	}
	if sig.Request != reflect.TypeFor[AddShelfRequest]() {
		t.Errorf("Request = %v, want AddShelfRequest", sig.Request)
	}
	if got := paramNames(sig.Params); !slices.Equal(got, []string{"name", "capacity", "tags", "note"}) {
		t.Fatalf("params = %v, want [name capacity tags note]", got)
	}

	name := sig.Params[0]
	if !name.Required() || name.Constraint != "required" || name.Description != "display name" {
		t.Errorf("name = %+v", name)
	}

	capacity := sig.Params[1]
	if capacity.Required() || capacity.Default != 10 {
		t.Errorf("capacity = %+v, want default 10", capacity)
	}
	if capacity.Constraint != "min=1" {
		t.Errorf("capacity constraint = %q, want min=1", capacity.Constraint)
	}

	if sig.Params[2].Required() {
		t.Error("omitempty field should be optional")
	}
	note := sig.Params[3]
	if note.Required() || note.Type.String() != "string | null" {
		t.Errorf("note = %+v, want optional string | null", note)
	}
	if sig.Returns.String() != "Shelf | null" {
		t.Errorf("returns = %s, want Shelf | null", sig.Returns)
	}
}

func TestExtractSignature_SourceNames(t *testing.T) {
	x := &extractor{callable: "open", nodes: noNodes{}}
	fn := reflect.TypeOf(func(ctx context.Context, path string, _ int) {})
	sig, err := x.extract(fn, false, []string{"ctx", "path", "_"}, options{})
	if err != nil {
		t.Fatalf("extract() error = %v", err)
	}
	if got := paramNames(sig.Params); !slices.Equal(got, []string{"path", "arg1"}) {
		t.Errorf("params = %v, want [path arg1]", got)
	}

	// A name list of the wrong length is ignored.
	sig, err = x.extract(fn, false, []string{"path"}, options{})
	if err != nil {
		t.Fatalf("extract() error = %v", err)
	}
	if got := paramNames(sig.Params); !slices.Equal(got, []string{"arg0", "arg1"}) {
		t.Errorf("params = %v, want [arg0 arg1]", got)
	}
}

func TestExtractSignature_Errors(t *testing.T) {
	tests := []struct {
		name      string
		fn        any
		opts      []Option
		wantCode  ErrorCode
		wantParam string
	}{
		{
			name:      "untyped parameter",
			fn:        func(path string, encoding any) string { return path },
			opts:      []Option{Params("path", "encoding")},
			wantCode:  CodeMissingTypeAnnotation,
			wantParam: "encoding",
		},
		{
			name:      "untyped result",
			fn:        func() any { return nil },
			wantCode:  CodeMissingTypeAnnotation,
			wantParam: "return",
		},
		{
			name:      "untyped element",
			fn:        func(items []any) {},
			opts:      []Option{Params("items")},
			wantCode:  CodeMissingTypeAnnotation,
			wantParam: "items",
		},
		{
			name:      "channel",
			fn:        func(ch chan int) {},
			opts:      []Option{Params("ch")},
			wantCode:  CodeInvalidTarget,
			wantParam: "ch",
		},
		{
			name:     "too many results",
			fn:       func() (int, string) { return 0, "" },
			wantCode: CodeInvalidTarget,
		},
		{
			name:     "not a function",
			fn:       42,
			wantCode: CodeInvalidTarget,
		},
		{
			name:     "params count mismatch",
			fn:       func(a, b int) {},
			opts:     []Option{Params("a")},
			wantCode: CodeInvalidTarget,
		},
		{
			name:     "duplicate names",
			fn:       func(a, b int) {},
			opts:     []Option{Params("a", "a")},
			wantCode: CodeInvalidTarget,
		},
		{
			name:      "default of wrong type",
			fn:        func(n int) {},
			opts:      []Option{Params("n"), Default("n", "x")},
			wantCode:  CodeInvalidTarget,
			wantParam: "n",
		},
		{
			name:     "default for unknown parameter",
			fn:       func(n int) {},
			opts:     []Option{Params("n"), Default("m", 1)},
			wantCode: CodeInvalidTarget,
		},
		{
			name:      "default violates constraint",
			fn:        func(req badDefaultRequest) {},
			wantCode:  CodeInvalidTarget,
			wantParam: "n",
		},
		{
			name:      "unparsable default",
			fn:        func(req unparsableDefaultRequest) {},
			wantCode:  CodeInvalidTarget,
			wantParam: "n",
		},
		{
			name:      "duplicate request field names",
			fn:        func(req duplicateNameRequest) {},
			wantCode:  CodeInvalidTarget,
			wantParam: "name",
		},
		{
			name:      "bool map key",
			fn:        func(m map[bool]int) {},
			opts:      []Option{Params("m")},
			wantCode:  CodeInvalidTarget,
			wantParam: "m",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractSignature(tt.fn, tt.opts...)
			if err == nil {
				t.Fatal("ExtractSignature() error = nil")
			}
			if got := CodeOf(err); got != tt.wantCode {
				t.Fatalf("code = %q, want %q (%v)", got, tt.wantCode, err)
			}
			if tt.wantParam == "" {
				return
			}
			e := err.(*Error)
			if got := e.Details["parameter"]; got != tt.wantParam {
				t.Errorf("parameter detail = %v, want %s", got, tt.wantParam)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	x := &extractor{callable: "t", nodes: noNodes{}}
	tests := []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[bool](), "bool"},
		{reflect.TypeFor[int](), "int"},
		{reflect.TypeFor[int32](), "int32"},
		{reflect.TypeFor[uint8](), "uint8"},
		{reflect.TypeFor[float32](), "float32"},
		{reflect.TypeFor[string](), "string"},
		{reflect.TypeFor[[]byte](), "bytes"},
		{reflect.TypeFor[time.Time](), "time"},
		{reflect.TypeFor[time.Duration](), "duration"},
		{reflect.TypeFor[json.RawMessage](), "any"},
		{reflect.TypeFor[json.Number](), "string"},
		{reflect.TypeFor[struct{}](), "{}"},
		{reflect.TypeFor[[4]int](), "[4]int"},
		{reflect.TypeFor[map[string][]int64](), "map[string][]int64"},
		{reflect.TypeFor[*int](), "int | null"},
		{reflect.TypeFor[Book](), "Book"},
		{reflect.TypeFor[[]*Book](), "[]Book | null"},
		{reflect.TypeFor[Encoding](), "Encoding"},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			got, err := x.describe(tt.typ)
			if err != nil {
				t.Fatalf("describe() error = %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("describe() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDescribe_Nodes(t *testing.T) {
	reg := newLibrary(t)
	x := &extractor{callable: "t", nodes: reg}

	for _, typ := range []reflect.Type{reflect.TypeFor[Shelf](), reflect.TypeFor[*Shelf]()} {
		got, err := x.describe(typ)
		if err != nil {
			t.Fatalf("describe(%v) error = %v", typ, err)
		}
		n, ok := got.(*ir.NodeDescriptor)
		if !ok {
			t.Fatalf("describe(%v) = %T, want *ir.NodeDescriptor", typ, got)
		}
		if n.Path != "/shelf" || n.Type != reflect.TypeFor[Shelf]() {
			t.Errorf("node = %+v", n)
		}
	}

	got, err := x.describe(reflect.TypeFor[[]*Shelf]())
	if err != nil {
		t.Fatalf("describe() error = %v", err)
	}
	if got.Kind() != ir.KindArray || got.(*ir.ArrayDescriptor).Element.Kind() != ir.KindNode {
		t.Errorf("describe([]*Shelf) = %s, want array of node", got)
	}
	if ir.NodeOf(got) != nil {
		t.Error("containers should not be child edges")
	}
}
