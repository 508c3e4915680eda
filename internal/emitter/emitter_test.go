package emitter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/apigen/internal/descriptor"
	"github.com/mark3labs/apigen/internal/errs"
	"github.com/mark3labs/apigen/internal/model"
)

// textRenderer writes one line per unit.
type textRenderer struct {
	flat bool
}

func (textRenderer) Name() string { return "text" }

func (r textRenderer) Path(kind Kind, className, namespace string) string {
	if r.flat {
		return "all.txt"
	}
	if namespace == "" {
		namespace = "requests"
	}
	return namespace + "/" + className + ".txt"
}

func (textRenderer) Render(u Unit, info Info) ([]byte, error) {
	return []byte(u.Kind.String() + " " + u.Name() + "\n"), nil
}

func compile(t *testing.T) *model.Result {
	t.Helper()
	tags := map[string]any{"name": "tags", "type": "set", "response": []any{
		map[string]any{"name": "key", "type": "string"},
	}}
	raws := []descriptor.Raw{
		map[string]any{"name": "listFoo", "response": []any{map[string]any{"name": "id", "type": "string"}, tags}},
		map[string]any{"name": "listBar", "response": []any{map[string]any{"name": "name", "type": "string"}, tags}},
	}
	res, err := model.Build(context.Background(), raws)
	require.NoError(t, err)
	return res
}

func TestUnits_EachObjectAndMethodOnce(t *testing.T) {
	t.Parallel()
	res := compile(t)
	units, err := Units(textRenderer{}, res.Methods, res.Graph)
	require.NoError(t, err)

	var paths []string
	kinds := map[Kind]int{}
	for _, u := range units {
		paths = append(paths, u.Path)
		kinds[u.Kind]++
	}
	assert.Equal(t, []string{
		"Bar/BarResponse.txt",
		"Foo/FooResponse.txt",
		"Shared/Tag.txt",
		"requests/ListBarRequest.txt",
		"requests/ListFooRequest.txt",
	}, paths)
	assert.Equal(t, map[Kind]int{Method: 2, Class: 2, ObjectDefinition: 1}, kinds)
}

func TestUnits_DuplicatePathIsCollision(t *testing.T) {
	t.Parallel()
	res := compile(t)
	_, err := Units(textRenderer{flat: true}, res.Methods, res.Graph)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNamingCollision))
}

func TestEmit_WritesFilesAndManifest(t *testing.T) {
	t.Parallel()
	res := compile(t)
	dir := t.TempDir()
	var seen int
	out, err := Emit(context.Background(), textRenderer{}, res.Methods, res.Graph, Options{
		OutDir: dir,
		Info:   Info{Namespace: "Acme", APIVersion: "4.18.1"},
		OnUnit: func(Unit) { seen++ },
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
	assert.Len(t, out.Planned, 6)

	b, err := os.ReadFile(filepath.Join(dir, "Shared", "Tag.txt"))
	require.NoError(t, err)
	assert.Equal(t, "object Tag\n", string(b))

	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	var m manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "text", m.Renderer)
	assert.Equal(t, "4.18.1", m.APIVersion)
	assert.Len(t, m.Units, 5)
	assert.Len(t, m.Files, 5)

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Join(dir, "Shared"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEmit_DryRunWritesNothing(t *testing.T) {
	t.Parallel()
	res := compile(t)
	dir := filepath.Join(t.TempDir(), "out")
	out, err := Emit(context.Background(), textRenderer{}, res.Methods, res.Graph, Options{OutDir: dir, DryRun: true})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Planned)
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestEmit_NonEmptyDirRequiresForce(t *testing.T) {
	t.Parallel()
	res := compile(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))

	_, err := Emit(context.Background(), textRenderer{}, res.Methods, res.Graph, Options{OutDir: dir})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
	assert.Contains(t, strings.Join(errs.Hints(err), " "), "--force")

	_, err = Emit(context.Background(), textRenderer{}, res.Methods, res.Graph, Options{OutDir: dir, Force: true})
	require.NoError(t, err)
}

func TestEmit_Deterministic(t *testing.T) {
	t.Parallel()
	a, b := t.TempDir(), t.TempDir()
	for _, dir := range []string{a, b} {
		res := compile(t)
		_, err := Emit(context.Background(), textRenderer{}, res.Methods, res.Graph, Options{OutDir: dir})
		require.NoError(t, err)
	}
	ma, err := os.ReadFile(filepath.Join(a, ManifestFile))
	require.NoError(t, err)
	mb, err := os.ReadFile(filepath.Join(b, ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, string(ma), string(mb))
}

func TestEmit_RequiresOutDir(t *testing.T) {
	t.Parallel()
	res := compile(t)
	_, err := Emit(context.Background(), textRenderer{}, res.Methods, res.Graph, Options{})
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
}
