// Package workspace discovers monorepo members declared by a root
// package.json's "workspaces" field and computes the hoisted dependency
// set shared at the root node_modules, per spec section 4.6. It replaces
// the teacher's turborepo-specific Catalog (which indexed TurboJSON task
// configs this engine has no use for) with the member/hoisting model of
// _examples/original_source/src/workspace.rs, which this spec's section
// 4.6 distills from.
package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/go-rpm/rpm/internal/manifest"
	"github.com/go-rpm/rpm/internal/rpmpath"
)

// Member is one discovered workspace package.
type Member struct {
	Name     string
	Dir      rpmpath.AbsolutePath
	Manifest *manifest.Manifest
}

// Catalog holds every discovered member of a monorepo rooted at Root.
type Catalog struct {
	Root    rpmpath.AbsolutePath
	Members []Member
	byName  map[string]*Member
}

// Discover reads the root package.json's workspaces field, expands its glob
// patterns against the filesystem, and loads each matching member's
// package.json, mirroring workspace.rs's discover()/discover_members().
// A project without a "workspaces" field produces an empty Catalog rather
// than an error, since most installs are not monorepos at all.
func Discover(root rpmpath.AbsolutePath, rootManifest *manifest.Manifest) (*Catalog, error) {
	cat := &Catalog{Root: root, byName: map[string]*Member{}}
	if len(rootManifest.Workspaces) == 0 {
		return cat, nil
	}

	fsys := afero.NewOsFs()
	seen := map[string]bool{}
	for _, pattern := range rootManifest.Workspaces {
		matches, err := expandPattern(fsys, root, pattern)
		if err != nil {
			return nil, fmt.Errorf("expanding workspace pattern %q: %w", pattern, err)
		}
		for _, dir := range matches {
			if seen[dir.ToString()] {
				continue
			}
			seen[dir.ToString()] = true
			member, err := loadMember(dir)
			if err != nil {
				// A glob match without a package.json is not a workspace
				// member (e.g. a stray directory); skip it rather than
				// failing discovery for the whole monorepo.
				continue
			}
			cat.Members = append(cat.Members, *member)
		}
	}
	for i := range cat.Members {
		cat.byName[cat.Members[i].Name] = &cat.Members[i]
	}
	return cat, nil
}

// expandPattern resolves one workspace glob (e.g. "packages/*") to the set
// of directories it matches, the way workspace.rs's get_workspace_patterns
// walks glob::glob results.
func expandPattern(fsys afero.Fs, root rpmpath.AbsolutePath, pattern string) ([]rpmpath.AbsolutePath, error) {
	var out []rpmpath.AbsolutePath
	rooted := afero.NewIOFS(afero.NewBasePathFs(fsys, root.ToString()))
	matches, err := doublestar.Glob(rooted, filepath.ToSlash(pattern))
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		p := root.Join(filepath.FromSlash(m))
		if p.DirExists() {
			out = append(out, p)
		}
	}
	return out, nil
}

func loadMember(dir rpmpath.AbsolutePath) (*Member, error) {
	data, err := dir.Join("package.json").ReadFile()
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, err
	}
	return &Member{Name: m.Name, Dir: dir, Manifest: m}, nil
}

// ByName looks up a discovered member by its package.json "name" field.
func (c *Catalog) ByName(name string) (*Member, bool) {
	m, ok := c.byName[name]
	return m, ok
}

// IsMember reports whether name refers to a workspace member rather than
// an external dependency - member references are symlinked, not installed
// from the registry, per spec section 4.6.
func (c *Catalog) IsMember(name string) bool {
	_, ok := c.byName[name]
	return ok
}
