package apiready

import (
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Verb classifies an operation. Publishers interpret VerbRead and VerbMutate;
// any other value is carried through untouched.
type Verb string

const (
	VerbRead   Verb = "read-only"
	VerbMutate Verb = "mutating"
)

// readPrefixes is checked in order; the first match wins.
var readPrefixes = []string{"read", "get", "list", "exists", "is", "has"}

// InferVerb returns override when it is set. Otherwise name is matched,
// case-sensitively, against the read-only prefixes. A prefix matches the
// whole name or a leading word of it: the following rune must be a
// separator, an upper-case letter or a digit, so "is_open" and "isOpen"
// are reads while "island" is not.
func InferVerb(name string, override Verb) Verb {
	if override != "" {
		return override
	}
	for _, prefix := range readPrefixes {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if len(name) == len(prefix) || isWordBoundary(name[len(prefix):]) {
			return VerbRead
		}
	}
	return VerbMutate
}

func isWordBoundary(rest string) bool {
	r, _ := utf8.DecodeRuneInString(rest)
	switch r {
	case '_', '-', '.', '/', ' ':
		return true
	}
	return unicode.IsUpper(r) || unicode.IsDigit(r)
}

// ReadOnly reports whether v is VerbRead.
func (v Verb) ReadOnly() bool { return v == VerbRead }

// HTTPMethod returns the HTTP method a REST publisher should bind:
// GET for read-only operations, POST for everything else.
func (v Verb) HTTPMethod() string {
	if v == VerbRead {
		return http.MethodGet
	}
	return http.MethodPost
}
