package ir

// GoIdentifier represents a named Go entity with package context.
type GoIdentifier struct {
	// Name is the type name as declared.
	Name string

	// Package is the fully qualified package path.
	// Empty for builtin types.
	Package string
}

// IsZero returns true if the identifier is empty.
func (id GoIdentifier) IsZero() bool {
	return id.Name == "" && id.Package == ""
}

// String returns the identifier qualified by its package, if any.
func (id GoIdentifier) String() string {
	if id.Package == "" {
		return id.Name
	}
	return id.Package + "." + id.Name
}
