package dir_test

import (
	"os"
	"path/filepath"
	"testing"

	_ "github.com/lambda-doc/lambda/parser/dir"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, path, base string) *input.Context {
	t.Helper()
	return input.FromSource([]byte(path), base, "dir", "")
}

func TestListsNonDotEntriesSorted(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".hidden"), []byte("h"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(tmp, "sub"), 0o755))

	ctx := parse(t, tmp, "file:///base/")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	list := reader.Of(ctx.Root).AsArray()
	require.Equal(t, 3, list.Length())

	first := reader.Of(list.Get(0)).AsMap()
	assert.Equal(t, "a.txt", reader.Of(first.Get("name")).AsString())
	assert.Equal(t, "file:///base/a.txt", reader.Of(first.Get("base")).AsString())
	assert.False(t, reader.Of(first.Get("is_dir")).AsBool())

	third := reader.Of(list.Get(2)).AsMap()
	assert.Equal(t, "sub", reader.Of(third.Get("name")).AsString())
	assert.True(t, reader.Of(third.Get("is_dir")).AsBool())
}

func TestFileSizeAndMtimeArePopulated(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "f.txt"), []byte("hello"), 0o644))

	ctx := parse(t, tmp, "")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	entry := reader.Of(reader.Of(ctx.Root).AsArray().Get(0)).AsMap()
	assert.EqualValues(t, 5, reader.Of(entry.Get("size")).AsInt64())
	assert.True(t, reader.Of(entry.Get("mtime")).IsDateTime())
}

func TestUTF8BOMIsDetectedOnSmallFile(t *testing.T) {
	tmp := t.TempDir()
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...)
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "bom.txt"), content, 0o644))

	ctx := parse(t, tmp, "")
	require.False(t, ctx.HasErrors(), ctx.FormatErrors())
	entry := reader.Of(reader.Of(ctx.Root).AsArray().Get(0)).AsMap()
	assert.Equal(t, "utf-8", reader.Of(entry.Get("bom")).AsString())
}

func TestNonexistentDirectoryIsAnError(t *testing.T) {
	ctx := parse(t, "/no/such/directory/for-this-test", "")
	assert.True(t, ctx.HasErrors())
}

func TestEmptyPathIsNull(t *testing.T) {
	ctx := parse(t, "", "")
	assert.True(t, reader.Of(ctx.Root).IsNull())
}
