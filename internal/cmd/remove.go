package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-rpm/rpm/internal/manifest"
)

// newRemoveCmd implements `rpm remove <name...>`, grounded on
// manager.rs's remove_packages: drop the name from every dependency
// section of package.json and delete its node_modules directory and
// lockfile entry, without touching siblings that still depend on it
// transitively (the next install recomputes the full graph).
func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>...",
		Short: "remove one or more dependencies from package.json",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(false)
			if err != nil {
				return err
			}
			m, err := loadManifest(e.cwd)
			if err != nil {
				return err
			}

			for _, name := range args {
				delete(m.Dependencies, name)
				delete(m.DevDependencies, name)
				delete(m.PeerDependencies, name)
				delete(m.OptionalDependencies, name)
				dir := e.cwd.Join("node_modules", name)
				if dir.DirExists() {
					if err := dir.RemoveAll(); err != nil {
						return fmt.Errorf("removing node_modules/%s: %w", name, err)
					}
				}
				fmt.Printf("removed %s\n", name)
			}

			if err := saveManifest(e.cwd, m); err != nil {
				return err
			}

			lf, err := manifest.LoadLockfile(lockfilePath(e.cwd), m.Name, m.Version)
			if err != nil {
				return err
			}
			for _, name := range args {
				delete(lf.Packages, manifest.Key(name))
			}
			return manifest.Save(lockfilePath(e.cwd), lf)
		},
	}
}
