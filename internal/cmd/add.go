package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-rpm/rpm/internal/manifest"
)

// newAddCmd implements `rpm add <spec...>`, grounded on manager.rs's
// add_packages: parse each "name[@range]" argument, record it in
// package.json's dependencies, then run the normal install algorithm.
func newAddCmd() *cobra.Command {
	var dev bool
	c := &cobra.Command{
		Use:   "add <package[@range]>...",
		Short: "add one or more dependencies to package.json and install",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			ignoreScripts, _ := cmd.Flags().GetBool("ignore-scripts")
			assumeYes, _ := cmd.Flags().GetBool("yes")
			offline, _ := cmd.Flags().GetBool("offline")

			e, err := newEnv(force)
			if err != nil {
				return err
			}
			m, err := loadManifest(e.cwd)
			if err != nil {
				return err
			}

			for _, arg := range args {
				name, rangeSpec := manifest.ParseInstallArg(arg)
				if rangeSpec == "latest" {
					if resolved, err := resolveLatest(e, name); err == nil {
						rangeSpec = "^" + resolved
					}
				}
				if dev {
					if m.DevDependencies == nil {
						m.DevDependencies = manifest.DepMap{}
					}
					m.DevDependencies[name] = rangeSpec
				} else {
					if m.Dependencies == nil {
						m.Dependencies = manifest.DepMap{}
					}
					m.Dependencies[name] = rangeSpec
				}
				fmt.Printf("added %s@%s\n", name, rangeSpec)
			}

			if err := saveManifest(e.cwd, m); err != nil {
				return err
			}
			return runInstall(force, ignoreScripts, assumeYes, offline)
		},
	}
	c.Flags().BoolVar(&dev, "dev", false, "add to devDependencies instead of dependencies")
	return c
}

func resolveLatest(e *env, name string) (string, error) {
	pkg, err := e.registry.GetPackage(name)
	if err != nil {
		return "", err
	}
	rec, err := e.registry.ResolveVersion(pkg, "latest")
	if err != nil {
		return "", err
	}
	return rec.Version, nil
}
