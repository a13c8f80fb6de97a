package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rpm/rpm/internal/rpmpath"
)

func TestLoadLockfileMissingReturnsFresh(t *testing.T) {
	path := rpmpath.AbsolutePath(filepath.Join(t.TempDir(), "rpm-lock.json"))
	lf, err := LoadLockfile(path, "root", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "root", lf.Name)
	assert.Equal(t, CurrentLockfileVersion, lf.LockfileVersion)
	assert.Empty(t, lf.Packages)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := rpmpath.AbsolutePath(filepath.Join(t.TempDir(), "rpm-lock.json"))
	lf := New("root", "1.0.0")
	lf.Packages[Key("left-pad")] = LockPackage{Version: "1.3.0", Resolved: "https://example/left-pad-1.3.0.tgz"}

	require.NoError(t, Save(path, lf))

	loaded, err := LoadLockfile(path, "root", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", loaded.Packages[Key("left-pad")].Version)

	_, statErr := os.Stat(path.ToString() + ".tmp")
	assert.True(t, os.IsNotExist(statErr), "temp file should be renamed away")
}

func TestKeyPrefixesNodeModules(t *testing.T) {
	assert.Equal(t, "node_modules/left-pad", Key("left-pad"))
}
