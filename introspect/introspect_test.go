package introspect_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/apiready"
	"github.com/broady/apiready/introspect"
	"github.com/broady/apiready/render"
	"github.com/broady/apiready/sink"
)

func init() {
	color.NoColor = true
}

type Store struct{}

func (Store) GetItem(id string) (*Item, error) { return nil, nil }
func (Store) PutItem(id, value string) error { return nil }

type Item struct{}

func (Item) ReadValue() string { return "" }
func (Item) Store() *Store { return nil }

type Orphan struct{}

type Broken struct{}

func (Broken) ReadAny(v any) string { return "" }

func GetVersion() string { return "1" }

func newRegistry(t *testing.T) *apiready.Registry {
	t.Helper()
	reg := apiready.NewRegistry()
	s := apiready.MustAnnotate[Store](reg)
	s.MustMethod("GetItem", apiready.Params("id"))
	s.MustMethod("PutItem", apiready.Params("id", "value"))
	i := apiready.MustAnnotate[Item](reg, apiready.Nested())
	i.MustMethod("ReadValue")
	i.MustMethod("Store")
	_, err := reg.Func(GetVersion)
	require.NoError(t, err)
	return reg
}

func TestRun_Structure(t *testing.T) {
	var out bytes.Buffer
	err := introspect.Run(context.Background(), newRegistry(t), introspect.Options{
		Mode: introspect.ModeStructure,
		Path: "/store",
	}, &out)
	require.NoError(t, err)

	var n struct {
		Path     string   `json:"path"`
		Children []string `json:"children"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &n))
	assert.Equal(t, "/store", n.Path)
	assert.Equal(t, []string{"item"}, n.Children)
}

func TestRun_StructureTree(t *testing.T) {
	var out bytes.Buffer
	err := introspect.Run(context.Background(), newRegistry(t), introspect.Options{
		Mode:   introspect.ModeStructure,
		Path:   "/store",
		Format: render.Markdown,
		Depth:  -1,
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "## `/store/item`")
	assert.Contains(t, out.String(), "Cycle: this class already appears above.")
}

func TestRun_StructureNotFound(t *testing.T) {
	err := introspect.Run(context.Background(), newRegistry(t), introspect.Options{Path: "/nope"}, &bytes.Buffer{})
	assert.Equal(t, apiready.CodePathNotFound, apiready.CodeOf(err))
}

func TestRun_Check(t *testing.T) {
	reg := newRegistry(t)
	apiready.MustAnnotate[Orphan](reg, apiready.Nested())

	var out bytes.Buffer
	require.NoError(t, introspect.Run(context.Background(), reg, introspect.Options{Mode: introspect.ModeCheck}, &out))
	assert.Contains(t, out.String(), "! nested class Orphan is not reachable from any root")
	assert.Contains(t, out.String(), "✓ 3 classes, 4 methods, 1 functions")
}

func TestRun_CheckFailure(t *testing.T) {
	reg := newRegistry(t)
	apiready.MustAnnotate[Broken](reg).MustMethod("ReadAny", apiready.Params("v"))

	var out bytes.Buffer
	err := introspect.Run(context.Background(), reg, introspect.Options{Mode: introspect.ModeCheck}, &out)
	require.ErrorIs(t, err, introspect.ErrCheckFailed)
	assert.Contains(t, out.String(), "✗ ")
	assert.Contains(t, out.String(), "callable=read_any")
	assert.Contains(t, out.String(), "parameter=v")
}

func TestRun_Dump(t *testing.T) {
	mem := sink.NewMemory()
	var out bytes.Buffer
	err := introspect.Run(context.Background(), newRegistry(t), introspect.Options{
		Mode:  introspect.ModeDump,
		Depth: -1,
		Sink:  mem,
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"structure.json", "structure.md", "structure.yaml"}, mem.Names())
	assert.Equal(t, "wrote structure.json\nwrote structure.yaml\nwrote structure.md\n", out.String())

	var tree map[string]any
	require.NoError(t, json.Unmarshal(mem.Get("structure.json"), &tree))
	store := tree["subtrees"].(map[string]any)["store"].(map[string]any)
	item := store["subtrees"].(map[string]any)["item"].(map[string]any)
	back := item["subtrees"].(map[string]any)["store"].(map[string]any)
	assert.Equal(t, true, back["cycle"])
}

func TestRun_DumpNeedsDestination(t *testing.T) {
	err := introspect.Run(context.Background(), newRegistry(t), introspect.Options{Mode: introspect.ModeDump}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "output directory")
}

func TestRun_UnknownMode(t *testing.T) {
	err := introspect.Run(context.Background(), newRegistry(t), introspect.Options{Mode: "serve"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown mode")
}

func TestCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("structure yaml", func(t *testing.T) {
		var out bytes.Buffer
		err := introspect.Command(ctx, newRegistry(t), []string{"structure", "/store", "--format", "yaml"}, &out, &bytes.Buffer{})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out.String(), "path: /store\n"), out.String())
	})

	t.Run("root", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, introspect.Command(ctx, newRegistry(t), []string{"structure"}, &out, &bytes.Buffer{}))
		assert.Contains(t, out.String(), `"path": "/get_version"`)
	})

	t.Run("bad format", func(t *testing.T) {
		err := introspect.Command(ctx, newRegistry(t), []string{"structure", "-f", "xml"}, &bytes.Buffer{}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "unknown format")
	})

	t.Run("verbose check", func(t *testing.T) {
		var out, logs bytes.Buffer
		require.NoError(t, introspect.Command(ctx, newRegistry(t), []string{"-v", "check"}, &out, &logs))
		assert.Contains(t, out.String(), "All signatures resolved")
		assert.Contains(t, logs.String(), "resolved class")
	})

	t.Run("dump to directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, introspect.Command(ctx, newRegistry(t), []string{"dump", dir}, &bytes.Buffer{}, &bytes.Buffer{}))
		for _, name := range []string{"structure.json", "structure.yaml", "structure.md"} {
			_, err := os.Stat(filepath.Join(dir, name))
			assert.NoError(t, err, name)
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		err := introspect.Command(ctx, newRegistry(t), []string{"serve"}, &bytes.Buffer{}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}
