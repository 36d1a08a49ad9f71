package apiready

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	// CodeMissingTypeAnnotation reports a parameter or result without a declared type.
	CodeMissingTypeAnnotation ErrorCode = "missing_type_annotation"
	// CodeConflictingMetadata reports a target annotated twice with different configuration.
	CodeConflictingMetadata ErrorCode = "conflicting_metadata"
	// CodePathNotFound reports a navigation segment that does not resolve.
	CodePathNotFound ErrorCode = "path_not_found"
	// CodeAmbiguousPath reports two registrations that compose to the same path.
	CodeAmbiguousPath ErrorCode = "ambiguous_path"
	// CodeInvalidTarget reports a target that cannot be described at all.
	CodeInvalidTarget ErrorCode = "invalid_target"
)

// Error is the error type returned by every operation in this package.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// WithDetails returns a new Error with the provided map merged into details.
func (e *Error) WithDetails(details map[string]any) *Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: merged,
	}
}

// Is reports whether target is an *Error with the same code,
// so errors.Is(err, &Error{Code: CodePathNotFound}) matches any path miss.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
// Joined errors are searched in order.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func missingTypeAnnotation(callable, param string) *Error {
	return Errorf(CodeMissingTypeAnnotation, "%s: %s has no declared type", callable, param).
		WithDetails(map[string]any{"callable": callable, "parameter": param})
}

func pathNotFound(segment, prefix string) *Error {
	return Errorf(CodePathNotFound, "segment %q not found under %q", segment, prefix).
		WithDetails(map[string]any{"segment": segment, "prefix": prefix})
}

func ambiguousPath(path, first, second string) *Error {
	return Errorf(CodeAmbiguousPath, "%s and %s both resolve to %q", first, second, path).
		WithDetail("path", path)
}
