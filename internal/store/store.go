// Package store implements the content-addressed, single-flight-extracted
// on-disk cache of package trees described in spec section 4.3. It is
// grounded on the teacher's internal/cache/cache_fs.go (canonical path,
// atomic publication via rename) and on the tarball-unpacking shape of
// _examples/original_source/src/installer.rs, ported from tokio/flate2/tar
// to the standard library's archive/tar + compress/gzip - no example repo
// in this pack decompresses gzip (the teacher's own cache format is zstd,
// via DataDog/zstd; npm tarballs are gzip per spec section 6), so this is
// one of the few places this engine reaches for the standard library
// instead of a pack dependency.
package store

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/go-rpm/rpm/internal/rpmpath"
)

// Store is the per-user content-addressed package cache.
type Store struct {
	root        rpmpath.AbsolutePath
	httpClient  *http.Client
	logger      hclog.Logger
	forceNoCache bool
}

// New returns a Store rooted at root ($HOME/.rpm/store by convention,
// spec section 6).
func New(root rpmpath.AbsolutePath, logger hclog.Logger, forceNoCache bool) *Store {
	return &Store{
		root:         root,
		httpClient:   &http.Client{},
		logger:       logger.Named("store"),
		forceNoCache: forceNoCache,
	}
}

// escapeName replaces the '/' in a scoped package name with '+', per spec
// section 3's store-entry path convention.
func escapeName(name string) string {
	return strings.ReplaceAll(name, "/", "+")
}

// EntryPath returns the canonical store path for name@version.
func (s *Store) EntryPath(name, version string) rpmpath.AbsolutePath {
	return s.root.Join(fmt.Sprintf("%s@%s", escapeName(name), version))
}

// EnsureEntry guarantees an extracted copy of name@version exists at the
// canonical store path and returns it, downloading and extracting the
// tarball at tarballURL only on a cache miss (spec section 4.3).
func (s *Store) EnsureEntry(name, version, tarballURL string) (rpmpath.AbsolutePath, error) {
	canonical := s.EntryPath(name, version)

	if s.forceNoCache && canonical.DirExists() {
		if err := canonical.RemoveAll(); err != nil {
			return "", err
		}
	} else if canonical.DirExists() {
		return canonical, nil
	}

	tmpDir := s.root.Join("tmp", uuid.New().String())
	if err := tmpDir.MkdirAll(); err != nil {
		return "", err
	}

	if err := s.downloadAndExtract(tarballURL, tmpDir); err != nil {
		_ = tmpDir.RemoveAll()
		return "", err
	}

	if err := s.root.MkdirAll(); err != nil {
		_ = tmpDir.RemoveAll()
		return "", err
	}

	if err := tmpDir.Rename(canonical); err != nil {
		// A concurrent caller won the race and published the canonical
		// path first; discard our copy and return theirs (spec section
		// 4.3 "Concurrency").
		_ = tmpDir.RemoveAll()
		if canonical.DirExists() {
			return canonical, nil
		}
		return "", err
	}
	return canonical, nil
}

// Clean removes every entry from the store, per the `rpm cache clean`
// command grounded on manager.rs's handle_cache_command.
func (s *Store) Clean() error {
	if !s.root.DirExists() {
		return nil
	}
	return s.root.RemoveAll()
}

// Info reports the number of cached package entries and their total size
// on disk, per the `rpm cache info` command.
func (s *Store) Info() (entries int, bytes int64, err error) {
	if !s.root.DirExists() {
		return 0, 0, nil
	}
	dirEntries, readErr := os.ReadDir(s.root.ToString())
	if readErr != nil {
		return 0, 0, readErr
	}
	for _, de := range dirEntries {
		if de.Name() == "tmp" {
			continue
		}
		entries++
		err = filepath.Walk(s.root.Join(de.Name()).ToString(), func(_ string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !info.IsDir() {
				bytes += info.Size()
			}
			return nil
		})
		if err != nil {
			return entries, bytes, err
		}
	}
	return entries, bytes, nil
}

func (s *Store) downloadAndExtract(tarballURL string, dest rpmpath.AbsolutePath) error {
	resp, err := s.httpClient.Get(tarballURL)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", tarballURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("downloading %s: status %d", tarballURL, resp.StatusCode)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("decompressing %s: %w", tarballURL, err)
	}
	defer gz.Close()

	archive := tar.NewReader(gz)
	for {
		header, err := archive.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Corrupt tar stream beyond the current entry; the tarball is
			// unreadable rather than merely containing one bad entry, so
			// this does fail the extraction.
			return fmt.Errorf("reading tar entry: %w", err)
		}
		if extractErr := s.extractEntry(header, archive, dest); extractErr != nil {
			// Per spec section 4.3, per-entry unpack errors are swallowed:
			// tarball extraction must not fail the whole install over one
			// bad entry.
			s.logger.Debug("swallowing tar entry error", "name", header.Name, "err", extractErr)
		}
	}
	return nil
}

func (s *Store) extractEntry(header *tar.Header, archive *tar.Reader, dest rpmpath.AbsolutePath) error {
	name := strings.TrimPrefix(header.Name, "package/")
	if name == "" || name == "." {
		return nil
	}
	target := dest.Join(name)

	switch header.Typeflag {
	case tar.TypeDir:
		return target.MkdirAll()
	case tar.TypeReg, tar.TypeRegA:
		if err := target.Dir().MkdirAll(); err != nil {
			return err
		}
		mode := header.FileInfo().Mode()
		if mode == 0 {
			mode = 0644
		}
		f, err := os.OpenFile(target.ToString(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(f, archive)
		return err
	case tar.TypeSymlink:
		if err := target.Dir().MkdirAll(); err != nil {
			return err
		}
		_ = target.Remove()
		return target.Symlink(header.Linkname)
	default:
		return nil
	}
}
