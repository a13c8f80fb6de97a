// Package manifest implements the typed representation of a project's
// package.json and its rpm-lock.json, parsed permissively and serialized
// deterministically, the way the teacher's internal/fs.PackageJSON and
// internal/lockfile.NpmLockfile do.
package manifest

import (
	"encoding/json"
	"sort"
)

// DepMap is a name -> version-range mapping that serializes with keys
// sorted ascending, matching the spec's "ordered by name for deterministic
// iteration" requirement on dependency maps.
type DepMap map[string]string

// Names returns the keys of the map sorted ascending.
func (d DepMap) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON writes the entries with keys sorted ascending. A nil or empty
// DepMap marshals to `{}`, never `null`; a struct field of this type tagged
// `omitempty` is still left out entirely when the map is empty.
func (d DepMap) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	buf := []byte{'{'}
	for i, name := range d.Names() {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d[name])
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// Bin is either a single string path, or a name -> path mapping.
type Bin map[string]string

// UnmarshalJSON accepts both the bare-string and object forms.
func (b *Bin) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*b = nil
		if asString != "" {
			*b = Bin{"": asString}
		}
		return nil
	}
	var asMap map[string]string
	if err := json.Unmarshal(data, &asMap); err != nil {
		return err
	}
	*b = asMap
	return nil
}

// Resolve expands the single-string shorthand into { pkgName: path }.
func (b Bin) Resolve(pkgName string) map[string]string {
	if b == nil {
		return nil
	}
	if path, ok := b[""]; ok {
		return map[string]string{pkgName: path}
	}
	return map[string]string(b)
}

// Workspaces is an ordered sequence of glob patterns, decodable from either
// the bare array form or `{ "packages": [...] }`.
type Workspaces []string

type workspacesAlt struct {
	Packages []string `json:"packages,omitempty"`
}

// UnmarshalJSON accepts `["a","b"]` or `{"packages":["a","b"]}`.
func (w *Workspaces) UnmarshalJSON(data []byte) error {
	var alt workspacesAlt
	if err := json.Unmarshal(data, &alt); err == nil && alt.Packages != nil {
		*w = alt.Packages
		return nil
	}
	var plain []string
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	*w = plain
	return nil
}

// Manifest is the consumer-declared project descriptor (package.json).
type Manifest struct {
	Name                 string     `json:"name"`
	Version              string     `json:"version"`
	Dependencies         DepMap     `json:"dependencies,omitempty"`
	DevDependencies      DepMap     `json:"devDependencies,omitempty"`
	PeerDependencies     DepMap     `json:"peerDependencies,omitempty"`
	OptionalDependencies DepMap     `json:"optionalDependencies,omitempty"`
	Scripts              DepMap     `json:"scripts,omitempty"`
	Bin                  Bin        `json:"bin,omitempty"`
	Workspaces           Workspaces `json:"workspaces,omitempty"`
}

// manifestAlias lets us decode with permissive defaults without recursing
// into Manifest's own UnmarshalJSON (there isn't one, but this keeps the
// two concerns - struct shape and defaulting - in separate functions).
type manifestAlias Manifest

// Parse decodes package.json content with the permissive defaults spec
// section 4.1 requires: a missing/null version defaults to "0.0.0", and
// null dependency maps decode as empty rather than nil.
func Parse(data []byte) (*Manifest, error) {
	var alias manifestAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return nil, err
	}
	m := Manifest(alias)
	if m.Version == "" {
		m.Version = "0.0.0"
	}
	if m.Dependencies == nil {
		m.Dependencies = DepMap{}
	}
	if m.DevDependencies == nil {
		m.DevDependencies = DepMap{}
	}
	if m.PeerDependencies == nil {
		m.PeerDependencies = DepMap{}
	}
	if m.OptionalDependencies == nil {
		m.OptionalDependencies = DepMap{}
	}
	return &m, nil
}

// Marshal serializes a Manifest deterministically.
func Marshal(m *Manifest) ([]byte, error) {
	var buf []byte
	enc := func(v interface{}) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}
	var err error
	buf, err = enc(m)
	return buf, err
}

// AllDependencies returns the union of dependencies, devDependencies and
// optionalDependencies (not peerDependencies, which are only auto-installed
// transitively per spec section 4.5 step 7).
func (m *Manifest) AllDependencies() DepMap {
	all := DepMap{}
	for name, v := range m.Dependencies {
		all[name] = v
	}
	for name, v := range m.DevDependencies {
		all[name] = v
	}
	for name, v := range m.OptionalDependencies {
		all[name] = v
	}
	return all
}
