//go:build !windows

package materializer

import "github.com/go-rpm/rpm/internal/rpmpath"

// writeWindowsShims is unreachable on non-Windows hosts; LinkBinaries only
// calls it when runtime.GOOS == "windows".
func writeWindowsShims(binDir rpmpath.AbsolutePath, pkgName, shimName, relPath string) error {
	panic("writeWindowsShims called on a non-Windows host")
}
