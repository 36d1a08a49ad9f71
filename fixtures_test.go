package apiready

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// Storage is the flat example: a single root with read and write methods.
type Storage struct {
	files  map[string]string
	writes int
}

func (s *Storage) ReadFile(path string, encoding string) (string, error) {
	content, ok := s.files[path]
	if !ok {
		return "", fmt.Errorf("%s: not found", path)
	}
	return encoding + ":" + content, nil
}

func (s *Storage) WriteFile(path, content string) error {
	if s.files == nil {
		s.files = make(map[string]string)
	}
	s.files[path] = content
	s.writes++
	return nil
}

func (s *Storage) ListFiles() []string {
	var names []string
	for name := range s.files {
		names = append(names, name)
	}
	return names
}

// UntypedStorage declares encoding without a usable type.
type UntypedStorage struct{}

func (UntypedStorage) ReadFile(path string, encoding any) string { return path }

// Library, Shelf and Section form a hierarchy with a cycle:
// Library -> Shelf -> Library, and Shelf -> Section.
type Library struct{}

type AddShelfRequest struct {
	Name     string   `json:"name" validate:"required" doc:"display name"`
	Capacity int      `json:"capacity" default:"10" validate:"min=1"`
	Tags     []string `json:"tags,omitempty"`
	Note     *string  `json:"note"`
	internal string
	Ignored  string `json:"-"`
}

type Book struct {
	Title string `json:"title"`
}

func (l *Library) GetShelf(name string) *Shelf { return &Shelf{name: name} }
func (l *Library) ListShelves() []string { return []string{"fiction"} }
func (l *Library) AddShelf(ctx context.Context, req AddShelfRequest) (*Shelf, error) {
	return &Shelf{name: req.Name}, ctx.Err()
}

type Shelf struct{ name string }

func (s *Shelf) ListBooks() []Book { return nil }
func (s *Shelf) GetBook(id int64) (*Book, error) { return &Book{}, nil }
func (s *Shelf) Library() *Library { return &Library{} }
func (s *Shelf) Section(name string) *Section { return &Section{} }
func (s *Shelf) Rename(name string, force bool) { s.name = name }
func (s *Shelf) Search(query string, tags ...string) []Book { return nil }

type Section struct{}

func (s *Section) Count() int { return 0 }

// Catalog is annotated as an interface class.
type Catalog interface {
	ListTitles(prefix string) []string
}

func GetVersion() string { return "1.0" }

func Ping(ctx context.Context) error { return ctx.Err() }

// newLibrary registers the Library hierarchy.
func newLibrary(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()

	lib := MustAnnotate[Library](reg, Path("/library"))
	lib.MustMethod("GetShelf", Params("name"))
	lib.MustMethod("ListShelves")
	lib.MustMethod("AddShelf", Doc("Adds a shelf."))

	shelf := MustAnnotate[*Shelf](reg, Nested())
	shelf.MustMethod("ListBooks")
	shelf.MustMethod("GetBook", Params("id"))
	shelf.MustMethod("Library", Name("library"), WithVerb(VerbRead))
	shelf.MustMethod("Section", Params("name"))

	section := MustAnnotate[Section](reg, Nested())
	section.MustMethod("Count")
	return reg
}

// newStorage registers the Storage example.
func newStorage(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	storage := MustAnnotate[Storage](reg, Path("/storage"))
	storage.MustMethod("ReadFile", Params("path", "encoding"), Default("encoding", "utf-8"))
	storage.MustMethod("WriteFile", Params("path", "content"))
	storage.MustMethod("ListFiles")
	return reg
}

func methodNames(eps []Endpoint) []string {
	names := make([]string, len(eps))
	for i, ep := range eps {
		names[i] = ep.Name
	}
	return names
}

func joined(s []string) string { return strings.Join(s, ",") }
