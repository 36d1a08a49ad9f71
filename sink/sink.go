// Package sink writes rendered structure documents to a destination.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Sink receives rendered documents. Implementations are safe for
// concurrent use.
type Sink interface {
	WriteFile(ctx context.Context, name string, content []byte) error
}

// Dir writes documents below a directory on the local filesystem.
// Writes are atomic: content goes to a temp file that is then renamed
// (or linked, when Overwrite is false) into place.
type Dir struct {
	Root      string
	Mode      os.FileMode
	Overwrite bool
}

// NewDir returns a Dir that overwrites existing files with mode 0644.
func NewDir(root string) *Dir {
	return &Dir{Root: root, Mode: 0644, Overwrite: true}
}

// WriteFile writes content to name, relative to Root.
func (d *Dir) WriteFile(ctx context.Context, name string, content []byte) error {
	if err := ValidatePath(name); err != nil {
		return fmt.Errorf("invalid path %q: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := d.target(name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	tmp, err := writeTemp(dir, content, d.mode())
	if err != nil {
		return err
	}
	// The temp file is removed on every path; after a link or rename the
	// removal is a no-op or drops the extra name.
	defer os.Remove(tmp)

	if err := ctx.Err(); err != nil {
		return err
	}
	if d.Overwrite {
		if err := os.Rename(tmp, target); err != nil {
			return fmt.Errorf("rename temp file: %w", err)
		}
		return nil
	}
	if err := os.Link(tmp, target); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("file already exists: %q", name)
		}
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

func (d *Dir) mode() os.FileMode {
	if d.Mode == 0 {
		return 0644
	}
	return d.Mode
}

// target resolves name below Root and rejects anything that escapes it.
func (d *Dir) target(name string) (string, error) {
	root, err := filepath.Abs(d.Root)
	if err != nil {
		return "", fmt.Errorf("resolve root directory: %w", err)
	}
	full := filepath.Join(root, filepath.FromSlash(name))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes root directory: %q", name)
	}
	return full, nil
}

func writeTemp(dir string, content []byte, mode os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, ".apiready-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	_, werr := f.Write(content)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Chmod(f.Name(), mode); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("set file mode: %w", err)
	}
	return f.Name(), nil
}

// Memory keeps documents in memory, keyed by name.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory creates an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// WriteFile stores a copy of content under name.
func (m *Memory) WriteFile(ctx context.Context, name string, content []byte) error {
	if err := ValidatePath(name); err != nil {
		return fmt.Errorf("invalid path %q: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), content...)
	return nil
}

// Get returns a copy of the named document, or nil.
func (m *Memory) Get(name string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[name]
	if !ok {
		return nil
	}
	return append([]byte(nil), content...)
}

// Names returns the stored document names, sorted.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidatePath checks that name is relative, slash-separated, clean and
// free of ".." components.
func ValidatePath(name string) error {
	switch {
	case name == "":
		return errors.New("path is empty")
	case filepath.IsAbs(name) || strings.HasPrefix(name, "/") || isDriveLetter(name):
		return errors.New("absolute paths not allowed")
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return errors.New("path traversal not allowed")
		}
	}
	if cleaned := filepath.ToSlash(filepath.Clean(name)); cleaned != name {
		return fmt.Errorf("path is not clean (expected %q, got %q)", cleaned, name)
	}
	return nil
}

func isDriveLetter(name string) bool {
	if len(name) < 2 || name[1] != ':' {
		return false
	}
	c := name[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
