// Package rpmpath teaches the Go type system about absolute, on-disk paths
// used by the installer, the content store and the materializer.
//
// Unlike a general-purpose monorepo tool, this engine only ever deals with
// two roots (a project root and a per-user store root) so the type is kept
// to a single AbsolutePath rather than the full family of anchored/relative
// path types a multi-root build system needs.
package rpmpath

import (
	"os"
	"path/filepath"
)

const dirPermissions = os.ModeDir | 0775

// AbsolutePath represents a platform-dependent absolute path on the
// filesystem, and is used to enforce correct path manipulation throughout
// the store, materializer and workspace packages.
type AbsolutePath string

func (ap AbsolutePath) asString() string {
	return string(ap)
}

// ToString returns the string representation of this absolute path. Used
// for interfacing with APIs that require a string.
func (ap AbsolutePath) ToString() string {
	return ap.asString()
}

// Join appends path segments to this AbsolutePath.
func (ap AbsolutePath) Join(args ...string) AbsolutePath {
	return AbsolutePath(filepath.Join(append([]string{ap.asString()}, args...)...))
}

// Dir returns the parent of this AbsolutePath.
func (ap AbsolutePath) Dir() AbsolutePath {
	return AbsolutePath(filepath.Dir(ap.asString()))
}

// Base implements filepath.Base for an absolute path.
func (ap AbsolutePath) Base() string {
	return filepath.Base(ap.asString())
}

// MkdirAll implements os.MkdirAll(ap, dirPermissions).
func (ap AbsolutePath) MkdirAll() error {
	return os.MkdirAll(ap.asString(), dirPermissions|0644)
}

// FileExists returns true if the given path exists and is not a directory.
func (ap AbsolutePath) FileExists() bool {
	info, err := os.Lstat(ap.asString())
	return err == nil && !info.IsDir()
}

// DirExists returns true if this path points to a directory.
func (ap AbsolutePath) DirExists() bool {
	info, err := os.Lstat(ap.asString())
	return err == nil && info.IsDir()
}

// Exists returns true if anything at all is present at this path.
func (ap AbsolutePath) Exists() bool {
	_, err := os.Lstat(ap.asString())
	return err == nil
}

// ReadFile reads the contents of the specified file.
func (ap AbsolutePath) ReadFile() ([]byte, error) {
	return os.ReadFile(ap.asString())
}

// WriteFile writes the contents of the specified file.
func (ap AbsolutePath) WriteFile(contents []byte, mode os.FileMode) error {
	if err := ap.Dir().MkdirAll(); err != nil {
		return err
	}
	return os.WriteFile(ap.asString(), contents, mode)
}

// Symlink implements os.Symlink(target, ap) for an absolute path.
func (ap AbsolutePath) Symlink(target string) error {
	return os.Symlink(target, ap.asString())
}

// Readlink implements os.Readlink(ap) for an absolute path.
func (ap AbsolutePath) Readlink() (string, error) {
	return os.Readlink(ap.asString())
}

// Remove removes the file or (empty) directory at the given path.
func (ap AbsolutePath) Remove() error {
	return os.Remove(ap.asString())
}

// RemoveAll implements os.RemoveAll for absolute paths.
func (ap AbsolutePath) RemoveAll() error {
	return os.RemoveAll(ap.asString())
}

// Rename implements os.Rename(ap, dest) for absolute paths.
func (ap AbsolutePath) Rename(dest AbsolutePath) error {
	return os.Rename(ap.asString(), dest.asString())
}

// Chmod implements os.Chmod for an absolute path.
func (ap AbsolutePath) Chmod(mode os.FileMode) error {
	return os.Chmod(ap.asString(), mode)
}

// RelativeTo returns the relative path from basePath to this path.
func (ap AbsolutePath) RelativeTo(basePath AbsolutePath) (string, error) {
	return filepath.Rel(basePath.asString(), ap.asString())
}
