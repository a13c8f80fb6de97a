// Package materializer copies store entries into a project's node_modules
// and links binary shims, per spec section 4.4. Recursive copy walks with
// github.com/karrick/godirwalk, grounded on the teacher's
// internal/fs/copy_file.go WalkMode helper.
package materializer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/karrick/godirwalk"

	"github.com/go-rpm/rpm/internal/rpmpath"
)

// InstallEntry removes any existing node_modules/<name> directory and
// replaces it with a recursive copy of the given store entry. Entries are
// copied in the order the directory walk yields them; files are not copied
// ahead of the subdirectories beside them.
func InstallEntry(storeEntry, nodeModules rpmpath.AbsolutePath, name string) error {
	dest := nodeModules.Join(name)
	if dest.DirExists() || dest.FileExists() {
		if err := dest.RemoveAll(); err != nil {
			return err
		}
	}
	if err := dest.Dir().MkdirAll(); err != nil {
		return err
	}
	return recursiveCopy(storeEntry, dest)
}

func recursiveCopy(from, to rpmpath.AbsolutePath) error {
	fromStr := from.ToString()
	return godirwalk.Walk(fromStr, &godirwalk.Options{
		Unsorted:            true,
		FollowSymbolicLinks: false,
		Callback: func(name string, info *godirwalk.Dirent) error {
			rel := strings.TrimPrefix(name[len(fromStr):], string(os.PathSeparator))
			dest := to.ToString()
			if rel != "" {
				dest = to.Join(rel).ToString()
			}
			isDir, err := info.IsDirOrSymlinkToDir()
			if err != nil {
				var pathErr *os.PathError
				if errors.As(err, &pathErr) {
					return godirwalk.SkipThis
				}
				return err
			}
			if isDir {
				return os.MkdirAll(dest, 0775)
			}
			return copyFile(name, dest)
		},
		ErrorCallback: func(_ string, err error) godirwalk.ErrorAction {
			var pathErr *os.PathError
			if errors.As(err, &pathErr) {
				return godirwalk.SkipNode
			}
			return godirwalk.Halt
		},
	})
}

func copyFile(from, to string) error {
	info, err := os.Lstat(from)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(from)
		if err != nil {
			return err
		}
		_ = os.Remove(to)
		return os.Symlink(target, to)
	}

	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(to, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// LinkBinaries creates the node_modules/.bin shims for a package's bin
// entries, per spec section 4.4.
func LinkBinaries(nodeModules rpmpath.AbsolutePath, pkgName string, bin map[string]string) error {
	if len(bin) == 0 {
		return nil
	}
	binDir := nodeModules.Join(".bin")
	if err := binDir.MkdirAll(); err != nil {
		return err
	}
	for shimName, relPath := range bin {
		if runtime.GOOS == "windows" {
			if err := writeWindowsShims(binDir, pkgName, shimName, relPath); err != nil {
				return err
			}
			continue
		}
		if err := writePosixShim(binDir, pkgName, shimName, relPath); err != nil {
			return err
		}
	}
	return nil
}

func writePosixShim(binDir rpmpath.AbsolutePath, pkgName, shimName, relPath string) error {
	link := binDir.Join(shimName)
	_ = link.Remove()
	target := "../" + pkgName + "/" + relPath
	if err := link.Symlink(target); err != nil {
		return fmt.Errorf("linking shim %s: %w", shimName, err)
	}
	targetPath := binDir.Dir().Join(pkgName, relPath)
	if targetPath.FileExists() {
		info, err := os.Stat(targetPath.ToString())
		if err == nil {
			_ = targetPath.Chmod(info.Mode() | 0100 | 0010 | 0001)
		}
	}
	return nil
}
