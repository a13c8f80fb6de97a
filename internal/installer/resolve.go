package installer

import (
	"context"
	"encoding/json"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/go-rpm/rpm/internal/manifest"
	"github.com/go-rpm/rpm/internal/materializer"
	"github.com/go-rpm/rpm/internal/registry"
)

// rangeSatisfiedBy reports whether version satisfies rangeSpec, treating a
// range that fails to parse as a literal string match (spec section 4.2
// covers only well-formed semver ranges and dist-tags; anything else, such
// as a git URL or local path dependency, is out of scope and compared as an
// opaque string per spec section 1 Non-goals).
func rangeSatisfiedBy(rangeSpec, version string) bool {
	if rangeSpec == version {
		return true
	}
	constraint, err := semver.NewConstraint(rangeSpec)
	if err != nil {
		return false
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return constraint.Check(v)
}

// resolveAndInstall is the recursive task of spec section 4.5 steps 1-8,
// grounded directly on resolve_and_install in
// _examples/original_source/src/manager.rs: claim the name once, resolve a
// version (lazily from the lockfile when possible, otherwise from the
// registry behind the fetch semaphore), materialize it into node_modules,
// link its binaries, record it in the lockfile, then fan out to its own
// dependencies.
func (r *run) resolveAndInstall(ctx context.Context, declaredName, rangeSpec string, optional bool) error {
	// Step 1: single-flight claim. A name is claimed the instant a task
	// begins working on it, before resolution even completes, so that two
	// siblings requesting the same package never both do the work.
	if _, already := r.installed.LoadOrStore(declaredName, rangeSpec); already {
		return nil
	}

	actualName, actualRange := declaredName, rangeSpec
	if n, rng, ok := registry.SplitAlias(rangeSpec); ok {
		actualName, actualRange = n, rng
	}

	version, record, err := r.resolveVersion(declaredName, actualName, actualRange)
	if err != nil {
		if optional {
			// Optional dependencies swallow every resolution failure
			// silently, per spec section 4.5 step 7.
			r.installed.Delete(declaredName)
			return nil
		}
		return err
	}
	r.installed.Store(declaredName, version)
	r.stats.incResolved()

	if optional && !isPlatformCompatible(record.OS, record.CPU) {
		return nil
	}

	installPath := r.nodeModules.Join(declaredName)
	onDiskVersion := ""
	if data, err := installPath.Join("package.json").ReadFile(); err == nil {
		if existing, err := manifest.Parse(data); err == nil {
			onDiskVersion = existing.Version
		}
	}
	if onDiskVersion != version {
		entry, err := r.inst.store.EnsureEntry(actualName, version, record.Dist.Tarball)
		if err != nil {
			if optional {
				return nil
			}
			return errors.Wrapf(err, "fetching %s@%s", actualName, version)
		}
		if err := materializer.InstallEntry(entry, r.nodeModules, declaredName); err != nil {
			if optional {
				return nil
			}
			return errors.Wrapf(err, "installing %s@%s", declaredName, version)
		}
		r.stats.incInstalled()
	} else {
		r.stats.incCached()
	}

	bin := decodeBin(record.Bin)
	if len(bin) > 0 {
		if err := materializer.LinkBinaries(r.nodeModules, declaredName, bin.Resolve(declaredName)); err != nil {
			r.addWarning(errors.Wrapf(err, "linking binaries for %s", declaredName))
		}
	}

	if script, ok := record.Scripts["postinstall"]; ok && script != "" {
		r.postinstallsMu.Lock()
		r.postinstalls = append(r.postinstalls, PostinstallTask{
			Name:        declaredName,
			InstallPath: installPath,
			Command:     script,
		})
		r.postinstallsMu.Unlock()
	}

	r.lockMu.Lock()
	r.lockfile.Packages[manifest.Key(declaredName)] = manifest.LockPackage{
		Version:              version,
		Resolved:             record.Dist.Tarball,
		Integrity:            record.Dist.Integrity,
		Dependencies:         manifest.DepMap(record.Dependencies),
		PeerDependencies:     manifest.DepMap(record.PeerDependencies),
		OptionalDependencies: manifest.DepMap(record.OptionalDependencies),
		Bin:                  bin,
	}
	r.lockMu.Unlock()

	return r.scheduleChildren(ctx, declaredName, record)
}

// scheduleChildren implements step 7-8: regular and peer dependencies are
// awaited together, and a failure in either is recorded as a warning on the
// parent rather than failing it (a peer is treated exactly like a regular
// dependency, since both are assumed present at runtime), while optional
// dependencies are walked sequentially afterward with every failure
// swallowed.
func (r *run) scheduleChildren(ctx context.Context, parent string, record *registry.VersionRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	for name, rangeSpec := range record.Dependencies {
		name, rangeSpec := name, rangeSpec
		g.Go(func() error { return r.resolveAndInstall(gctx, name, rangeSpec, false) })
	}
	for name, rangeSpec := range record.PeerDependencies {
		if _, ok := record.Dependencies[name]; ok {
			continue
		}
		name, rangeSpec := name, rangeSpec
		g.Go(func() error { return r.resolveAndInstall(gctx, name, rangeSpec, false) })
	}
	if err := g.Wait(); err != nil {
		r.addWarning(errors.Wrapf(err, "resolving dependencies of %s", parent))
	}

	for name, rangeSpec := range record.OptionalDependencies {
		if err := r.resolveAndInstall(ctx, name, rangeSpec, true); err != nil {
			r.logWarning(parent, name, err)
		}
	}
	return nil
}

func (r *run) logWarning(parent, child string, err error) {
	r.inst.logger.Debug("optional dependency skipped", "parent", parent, "child", child, "err", err)
}

// resolveVersion implements step 2: a lockfile hit satisfying the range is
// used without a registry call; otherwise the registry is consulted behind
// the fetch semaphore.
func (r *run) resolveVersion(declaredName, actualName, actualRange string) (string, *registry.VersionRecord, error) {
	if entry, ok := r.lockfile.Packages[manifest.Key(declaredName)]; ok && rangeSatisfiedBy(actualRange, entry.Version) {
		var bin json.RawMessage
		if len(entry.Bin) > 0 {
			bin, _ = json.Marshal(entry.Bin)
		}
		return entry.Version, &registry.VersionRecord{
			Bin:                  bin,
			Version:              entry.Version,
			Dist:                 registry.Dist{Tarball: entry.Resolved, Integrity: entry.Integrity},
			Dependencies:         entry.Dependencies,
			PeerDependencies:     entry.PeerDependencies,
			OptionalDependencies: entry.OptionalDependencies,
		}, nil
	}

	if r.inst.offline {
		return "", nil, &OfflineError{Name: actualName, Range: actualRange}
	}

	if err := r.fetchSem.Acquire(context.Background(), 1); err != nil {
		return "", nil, err
	}
	defer r.fetchSem.Release(1)

	pkg, err := r.inst.registry.GetPackage(actualName)
	if err != nil {
		return "", nil, err
	}
	record, err := r.inst.registry.ResolveVersion(pkg, actualRange)
	if err != nil {
		return "", nil, err
	}
	return record.Version, record, nil
}

func decodeBin(raw json.RawMessage) manifest.Bin {
	if len(raw) == 0 {
		return nil
	}
	var bin manifest.Bin
	if err := json.Unmarshal(raw, &bin); err != nil {
		return nil
	}
	return bin
}
