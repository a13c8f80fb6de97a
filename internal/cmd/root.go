// Package cmd holds the root cobra command, grounded on the teacher's
// internal/cmd.RunWithArgs entrypoint shape but stripped of the daemon,
// signal-watcher and cgo-exported Rust bridge that entrypoint carries -
// this engine has no daemon and no foreign-language caller.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/go-rpm/rpm/internal/config"
	"github.com/go-rpm/rpm/internal/manifest"
	"github.com/go-rpm/rpm/internal/registry"
	"github.com/go-rpm/rpm/internal/rpmpath"
	"github.com/go-rpm/rpm/internal/store"
)

// RunWithArgs runs rpm with the specified arguments (not including the
// binary name) and returns a process exit code.
func RunWithArgs(args []string, version string) int {
	root := newRootCmd(version)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		return 1
	}
	return 0
}

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "rpm",
		Short:   "A fast, content-addressed package installer",
		Version: version,
	}
	root.PersistentFlags().Bool("offline", false, "never contact the registry; use only the lockfile and local cache")
	root.PersistentFlags().Bool("ignore-scripts", false, "skip every install-time lifecycle script without prompting")
	root.PersistentFlags().Bool("yes", false, "run install scripts without prompting for consent")
	root.PersistentFlags().Bool("force", false, "bypass the content-addressed cache and re-download every package")

	root.AddCommand(newInstallCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newRemoveCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newCacheCmd())
	return root
}

// env bundles the handful of long-lived dependencies every subcommand
// needs: configuration, a registry client and a content store, built once
// per invocation.
type env struct {
	cfg      *config.Config
	registry *registry.Client
	store    *store.Store
	cwd      rpmpath.AbsolutePath
}

func newEnv(forceNoCache bool) (*env, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	reg := registry.NewClient(cfg.RegistryBase, cfg.Logger)
	st := store.New(cfg.StoreRoot, cfg.Logger, forceNoCache)
	return &env{cfg: cfg, registry: reg, store: st, cwd: rpmpath.AbsolutePath(wd)}, nil
}

func manifestPath(root rpmpath.AbsolutePath) rpmpath.AbsolutePath { return root.Join("package.json") }
func lockfilePath(root rpmpath.AbsolutePath) rpmpath.AbsolutePath { return root.Join("rpm-lock.json") }

func loadManifest(root rpmpath.AbsolutePath) (*manifest.Manifest, error) {
	data, err := manifestPath(root).ReadFile()
	if err != nil {
		return nil, fmt.Errorf("reading package.json: %w", err)
	}
	return manifest.Parse(data)
}

func saveManifest(root rpmpath.AbsolutePath, m *manifest.Manifest) error {
	data, err := manifest.Marshal(m)
	if err != nil {
		return err
	}
	return manifestPath(root).WriteFile(data, 0644)
}
