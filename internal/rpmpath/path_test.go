package rpmpath

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAndBase(t *testing.T) {
	root := AbsolutePath(filepath.FromSlash("/tmp/project"))
	joined := root.Join("node_modules", "left-pad")
	assert.Equal(t, filepath.Join("/tmp/project", "node_modules", "left-pad"), joined.ToString())
	assert.Equal(t, "left-pad", joined.Base())
}

func TestMkdirAllAndDirExists(t *testing.T) {
	root := AbsolutePath(t.TempDir())
	nested := root.Join("a", "b", "c")
	assert.False(t, nested.DirExists())
	require.NoError(t, nested.MkdirAll())
	assert.True(t, nested.DirExists())
}

func TestWriteFileAndReadFile(t *testing.T) {
	root := AbsolutePath(t.TempDir())
	f := root.Join("pkg", "package.json")
	require.NoError(t, f.WriteFile([]byte(`{"name":"left-pad"}`), 0644))
	assert.True(t, f.FileExists())
	data, err := f.ReadFile()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"left-pad"}`, string(data))
}

func TestRenamePublishesAtomically(t *testing.T) {
	root := AbsolutePath(t.TempDir())
	src := root.Join("tmp-entry")
	require.NoError(t, src.MkdirAll())
	dest := root.Join("left-pad@1.3.0")
	require.NoError(t, src.Rename(dest))
	assert.True(t, dest.DirExists())
	assert.False(t, src.Exists())
}

func TestRelativeTo(t *testing.T) {
	base := AbsolutePath(filepath.FromSlash("/tmp/project"))
	child := base.Join("node_modules", "left-pad")
	rel, err := child.RelativeTo(base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("node_modules", "left-pad"), rel)
}
