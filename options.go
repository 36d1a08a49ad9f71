package apiready

import "reflect"

// Option configures an annotation.
type Option func(*options)

type options struct {
	path     string
	verb     Verb
	name     string
	doc      string
	params   []string
	defaults map[string]any
	descs    map[string]string
	nested   bool
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// equal reports whether two configurations describe the same annotation.
func (o options) equal(other options) bool {
	return reflect.DeepEqual(o, other)
}

// Path sets an explicit path. On a class it is the base path (defaulting to
// the snake_case type name); on a method it is the leaf under the class.
func Path(p string) Option {
	return func(o *options) { o.path = p }
}

// WithVerb overrides verb inference.
func WithVerb(v Verb) Option {
	return func(o *options) { o.verb = v }
}

// Name sets the API name of a method. The default is the snake_case Go name.
func Name(n string) Option {
	return func(o *options) { o.name = n }
}

// Doc sets the documentation text, taking precedence over source comments.
func Doc(text string) Option {
	return func(o *options) { o.doc = text }
}

// Params names positional parameters, in order, after any receiver and
// context.Context.
func Params(names ...string) Option {
	return func(o *options) { o.params = names }
}

// Default gives a positional parameter a default value, making it optional.
// The value must be assignable to the parameter type.
func Default(param string, value any) Option {
	return func(o *options) {
		if o.defaults == nil {
			o.defaults = make(map[string]any)
		}
		o.defaults[param] = value
	}
}

// Describe attaches a description to a parameter.
func Describe(param, text string) Option {
	return func(o *options) {
		if o.descs == nil {
			o.descs = make(map[string]string)
		}
		o.descs[param] = text
	}
}

// Nested marks a class that is only reachable through another class's
// methods. Nested classes are not listed as roots.
func Nested() Option {
	return func(o *options) { o.nested = true }
}
