// Package library is loaded by the source tests.
package library

import "context"

// Library is the root of the catalog.
//
// It owns every shelf.
type Library struct{}

// GetShelf returns the named shelf.
func (l *Library) GetShelf(name string) *Shelf { return &Shelf{} }

// AddShelf creates a shelf.
//
// Deprecated: use shelves from configuration.
func (l *Library) AddShelf(ctx context.Context, name string, capacity int) error { return nil }

func (l *Library) Untitled(string, int) {}

type (
	// Shelf holds books.
	Shelf struct{}

	// Section is part of a shelf.
	Section struct{}
)

// ListBooks lists every title on the shelf.
func (s Shelf) ListBooks(prefix string, tags ...string) []string { return nil }

// Catalog searches titles.
type Catalog interface {
	// ListTitles returns titles starting with prefix.
	ListTitles(prefix string) []string
}

// GetVersion reports the catalog version.
func GetVersion() string { return "1.0" }

// Box is generic.
type Box[T any] struct{ v T }

// Get returns the boxed value.
func (b *Box[T]) Get(key string) T { return b.v }
