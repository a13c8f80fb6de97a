package manifest

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/go-rpm/rpm/internal/rpmpath"
)

// CurrentLockfileVersion is the lockfileVersion this engine writes.
const CurrentLockfileVersion = 3

// LockPackage is one resolved entry in the lockfile, keyed by
// "node_modules/<name>".
type LockPackage struct {
	Version              string  `json:"version"`
	Resolved              string `json:"resolved"`
	Integrity             string `json:"integrity,omitempty"`
	Dependencies          DepMap `json:"dependencies,omitempty"`
	PeerDependencies      DepMap `json:"peerDependencies,omitempty"`
	OptionalDependencies  DepMap `json:"optionalDependencies,omitempty"`
	Postinstall           string `json:"postinstall,omitempty"`
	Bin                   Bin    `json:"bin,omitempty"`
}

// Lockfile is the persisted resolution snapshot (rpm-lock.json).
type Lockfile struct {
	Name            string                 `json:"name"`
	Version         string                 `json:"version"`
	LockfileVersion int                    `json:"lockfileVersion"`
	Packages        map[string]LockPackage `json:"packages,omitempty"`
}

// New returns an empty lockfile for a project with the given name/version.
func New(name, version string) *Lockfile {
	return &Lockfile{
		Name:            name,
		Version:         version,
		LockfileVersion: CurrentLockfileVersion,
		Packages:        map[string]LockPackage{},
	}
}

// Key returns the lockfile packages-map key for a package name.
func Key(name string) string {
	return "node_modules/" + name
}

// LoadLockfile reads rpm-lock.json from path, returning an empty lockfile
// (not an error) if the file does not exist - the engine treats an absent
// lockfile as a fresh install, per spec section 4.5 step 1.
func LoadLockfile(path rpmpath.AbsolutePath, projectName, projectVersion string) (*Lockfile, error) {
	data, err := path.ReadFile()
	if err != nil {
		if os.IsNotExist(err) {
			return New(projectName, projectVersion), nil
		}
		return nil, err
	}
	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, err
	}
	if lf.Packages == nil {
		lf.Packages = map[string]LockPackage{}
	}
	return &lf, nil
}

// sortedPackages is the deterministic on-disk shape of the packages map:
// its entries are written as one JSON object with keys in ascending order,
// so that map iteration order never leaks into the diff.
type sortedPackages map[string]LockPackage

func (s sortedPackages) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(s[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// Save writes the lockfile atomically: serialize to a temp file beside the
// destination, then rename over it, so a crash mid-write never leaves a
// truncated rpm-lock.json (spec section 3 invariant: "written atomically
// only after all scheduled tasks settle").
func Save(path rpmpath.AbsolutePath, lf *Lockfile) error {
	out := struct {
		Name            string         `json:"name"`
		Version         string         `json:"version"`
		LockfileVersion int            `json:"lockfileVersion"`
		Packages        sortedPackages `json:"packages,omitempty"`
	}{
		Name:            lf.Name,
		Version:         lf.Version,
		LockfileVersion: lf.LockfileVersion,
		Packages:        sortedPackages(lf.Packages),
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}
	tmp := path.Dir().Join(path.Base() + ".tmp")
	if err := tmp.WriteFile(data, 0644); err != nil {
		return err
	}
	return tmp.Rename(path)
}
