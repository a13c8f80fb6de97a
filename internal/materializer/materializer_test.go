package materializer

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rpm/rpm/internal/rpmpath"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0775))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestInstallEntryCopiesTreeIntoNodeModules(t *testing.T) {
	storeEntry := rpmpath.AbsolutePath(t.TempDir())
	writeFile(t, storeEntry.Join("package.json").ToString(), `{"name":"left-pad","version":"1.3.0"}`)
	writeFile(t, storeEntry.Join("lib", "index.js").ToString(), "module.exports = leftPad;")

	nodeModules := rpmpath.AbsolutePath(t.TempDir())
	require.NoError(t, InstallEntry(storeEntry, nodeModules, "left-pad"))

	dest := nodeModules.Join("left-pad")
	assert.True(t, dest.Join("package.json").FileExists())
	assert.True(t, dest.Join("lib", "index.js").FileExists())
}

func TestInstallEntryReplacesExistingDirectory(t *testing.T) {
	storeEntry := rpmpath.AbsolutePath(t.TempDir())
	writeFile(t, storeEntry.Join("package.json").ToString(), `{"name":"left-pad","version":"1.4.0"}`)

	nodeModules := rpmpath.AbsolutePath(t.TempDir())
	stale := nodeModules.Join("left-pad")
	writeFile(t, stale.Join("package.json").ToString(), `{"name":"left-pad","version":"1.3.0"}`)
	writeFile(t, stale.Join("old-file.js").ToString(), "stale")

	require.NoError(t, InstallEntry(storeEntry, nodeModules, "left-pad"))

	assert.False(t, stale.Join("old-file.js").FileExists(), "stale files from a previous version must not survive")
	data, err := stale.Join("package.json").ReadFile()
	require.NoError(t, err)
	assert.Contains(t, string(data), "1.4.0")
}

func TestLinkBinariesNoopOnEmptyBin(t *testing.T) {
	nodeModules := rpmpath.AbsolutePath(t.TempDir())
	require.NoError(t, LinkBinaries(nodeModules, "left-pad", nil))
	assert.False(t, nodeModules.Join(".bin").DirExists())
}

func TestLinkBinariesCreatesShim(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shim only")
	}
	nodeModules := rpmpath.AbsolutePath(t.TempDir())
	writeFile(t, nodeModules.Join("left-pad", "cli.js").ToString(), "#!/usr/bin/env node")

	require.NoError(t, LinkBinaries(nodeModules, "left-pad", map[string]string{"lp": "cli.js"}))

	target, err := nodeModules.Join(".bin", "lp").Readlink()
	require.NoError(t, err)
	assert.Equal(t, "../left-pad/cli.js", target)
}
