// Package installer implements the concurrent graph resolver / installer
// (spec section 4.5), the heart of the engine. Its recursive task-per-
// package fan-out is grounded on two sources: the teacher's
// internal/lockfile.transitiveClosureHelper (an errgroup.Group walking a
// dependency graph recursively, claiming each name exactly once) and
// _examples/original_source/src/manager.rs's resolve_and_install, which is
// the same algorithm this spec distills from (FuturesUnordered + a
// DashMap-shaped single-flight claim, here a sync.Map).
package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/nightlyone/lockfile"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/go-rpm/rpm/internal/manifest"
	"github.com/go-rpm/rpm/internal/registry"
	"github.com/go-rpm/rpm/internal/rpmpath"
	"github.com/go-rpm/rpm/internal/store"
)

// fetchPermits bounds concurrent outbound registry/tarball fetches, per
// spec section 5 "the fetch semaphore (50 permits) caps concurrent
// outbound HTTPS requests."
const fetchPermits = 50

// Installer wires together the Registry Client (C2) and Content Store (C3)
// to drive the graph resolver for one project root.
type Installer struct {
	registry *registry.Client
	store    *store.Store
	logger   hclog.Logger
	offline  bool
}

// New builds an Installer against the given registry client and content
// store. When offline is true, resolution never consults the registry:
// any dependency the lockfile cannot satisfy fails with OfflineError
// instead of making a network request (spec section 4.5 step 2, CLI
// `--offline` flag).
func New(reg *registry.Client, st *store.Store, logger hclog.Logger, offline bool) *Installer {
	return &Installer{registry: reg, store: st, logger: logger.Named("installer"), offline: offline}
}

// OfflineError is returned when --offline is set and a dependency's
// lockfile entry (if any) doesn't satisfy the declared range, so the
// installer would otherwise need to contact the registry.
type OfflineError struct {
	Name  string
	Range string
}

func (e *OfflineError) Error() string {
	return fmt.Sprintf("offline mode: %s@%s is not satisfied by the lockfile and no registry fetch is allowed", e.Name, e.Range)
}

// PostinstallTask is one collected install-time script, handed off to the
// Post-install Executor (C7) after the graph quiesces.
type PostinstallTask struct {
	Name        string
	InstallPath rpmpath.AbsolutePath
	Command     string
}

// Result is returned once Install has run every scheduled task to
// completion.
type Result struct {
	Lockfile      *manifest.Lockfile
	Stats         *Stats
	Postinstalls  []PostinstallTask
	Warnings      []error
}

// run holds the per-install-run state described in spec section 4.5
// "State": the installed claim map, the mutex-guarded lockfile, the
// collected postinstall tasks and the fetch semaphore.
type run struct {
	inst *Installer

	projectRoot rpmpath.AbsolutePath
	nodeModules rpmpath.AbsolutePath

	installed sync.Map // name (string) -> version (string)

	lockMu   sync.Mutex
	lockfile *manifest.Lockfile

	postinstallsMu sync.Mutex
	postinstalls   []PostinstallTask

	fetchSem *semaphore.Weighted

	warningsMu sync.Mutex
	warnings   *multierror.Error

	stats Stats
}

// Install runs the top-level algorithm of spec section 4.5: incremental
// filter, lazy-first scheduling, concurrent resolve-and-install fan-out.
func (i *Installer) Install(projectRoot rpmpath.AbsolutePath, m *manifest.Manifest, lockfilePath rpmpath.AbsolutePath) (*Result, error) {
	lf, err := manifest.LoadLockfile(lockfilePath, m.Name, m.Version)
	if err != nil {
		return nil, errors.Wrap(err, "loading lockfile")
	}

	r := &run{
		inst:        i,
		projectRoot: projectRoot,
		nodeModules: projectRoot.Join("node_modules"),
		lockfile:    lf,
		fetchSem:    semaphore.NewWeighted(fetchPermits),
	}

	if err := r.nodeModules.MkdirAll(); err != nil {
		return nil, err
	}

	roots := m.AllDependencies()

	// Incremental filter (spec section 4.5 step 3) + lazy ordering (step
	// 4): packages whose locked version satisfies the declared range and
	// whose on-disk version already matches the lockfile are claimed
	// immediately without scheduling a task at all; amongst the
	// rest, lockfile-resolvable names are dispatched first so their
	// recursive walk can proceed while registry fetches for the others
	// are still in flight.
	var lazyNames, fetchNames []string
	for _, name := range roots.Names() {
		rangeSpec := roots[name]
		if r.upToDate(name, rangeSpec) {
			continue
		}
		if r.lockfileSatisfies(name, rangeSpec) {
			lazyNames = append(lazyNames, name)
		} else {
			fetchNames = append(fetchNames, name)
		}
	}

	g, ctx := errgroup.WithContext(context.Background())
	for _, name := range append(lazyNames, fetchNames...) {
		name := name
		rangeSpec := roots[name]
		g.Go(func() error {
			if err := r.resolveAndInstall(ctx, name, rangeSpec, false); err != nil {
				// Direct-dependency failures are reported but do not abort
				// the run (spec section 7 propagation policy).
				r.addWarning(errors.Wrapf(err, "installing %s", name))
			}
			return nil
		})
	}
	_ = g.Wait()

	return &Result{
		Lockfile:     r.lockfile,
		Stats:        &r.stats,
		Postinstalls: r.postinstalls,
		Warnings:     flattenMultierror(r.warnings),
	}, nil
}

// Flush writes the lockfile atomically (spec section 3: "written
// atomically only after all scheduled tasks settle"). It first tries to
// take an advisory cross-process lock beside the lockfile; if another
// process holds it, the write still goes ahead and only manifest.Save's
// atomic rename keeps the file from being torn.
func Flush(lockfilePath rpmpath.AbsolutePath, lf *manifest.Lockfile) error {
	lockPath := lockfilePath.ToString() + ".rpm-flock"
	abs, err := filepath.Abs(lockPath)
	if err == nil {
		if fl, flErr := lockfile.New(abs); flErr == nil {
			if lockErr := fl.TryLock(); lockErr == nil {
				defer fl.Unlock()
			}
			// A failure to acquire the advisory lock is not fatal: the
			// atomic rename in manifest.Save still prevents a torn write,
			// it just means we didn't also serialize against a sibling
			// process.
		}
	}
	return manifest.Save(lockfilePath, lf)
}

func (r *run) addWarning(err error) {
	r.warningsMu.Lock()
	defer r.warningsMu.Unlock()
	r.warnings = multierror.Append(r.warnings, err)
}

func flattenMultierror(me *multierror.Error) []error {
	if me == nil {
		return nil
	}
	return me.Errors
}

// upToDate implements spec section 4.5 step 3: true if the lockfile has an
// entry for name whose version satisfies rangeSpec and
// node_modules/<name>/package.json reports that exact version, in which
// case the name is claimed without scheduling any work.
func (r *run) upToDate(name, rangeSpec string) bool {
	entry, ok := r.lockfile.Packages[manifest.Key(name)]
	if !ok || !rangeSatisfiedBy(rangeSpec, entry.Version) {
		return false
	}
	pkgJSONPath := r.nodeModules.Join(name, "package.json")
	data, err := pkgJSONPath.ReadFile()
	if err != nil {
		return false
	}
	installed, err := manifest.Parse(data)
	if err != nil || installed.Version != entry.Version {
		return false
	}
	if _, loaded := r.installed.LoadOrStore(name, entry.Version); loaded {
		return false
	}
	r.stats.incCached()
	return true
}

// lockfileSatisfies reports whether the lockfile already has an entry for
// name whose version satisfies rangeSpec (or matches it literally), i.e.
// the lazy path of spec section 4.5 step 2 can be taken without a registry
// call.
func (r *run) lockfileSatisfies(name, rangeSpec string) bool {
	entry, ok := r.lockfile.Packages[manifest.Key(name)]
	if !ok {
		return false
	}
	return rangeSatisfiedBy(rangeSpec, entry.Version)
}
