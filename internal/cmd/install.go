package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-rpm/rpm/internal/installer"
	"github.com/go-rpm/rpm/internal/manifest"
	"github.com/go-rpm/rpm/internal/postinstall"
	"github.com/go-rpm/rpm/internal/workspace"
)

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "resolve and install every dependency declared in package.json",
		RunE: func(c *cobra.Command, args []string) error {
			force, _ := c.Flags().GetBool("force")
			ignoreScripts, _ := c.Flags().GetBool("ignore-scripts")
			assumeYes, _ := c.Flags().GetBool("yes")
			offline, _ := c.Flags().GetBool("offline")
			return runInstall(force, ignoreScripts, assumeYes, offline)
		},
	}
}

func runInstall(force, ignoreScripts, assumeYes, offline bool) error {
	e, err := newEnv(force)
	if err != nil {
		return err
	}
	m, err := loadManifest(e.cwd)
	if err != nil {
		return err
	}

	cat, err := workspace.Discover(e.cwd, m)
	if err != nil {
		return err
	}
	installRoots := m
	if len(cat.Members) > 0 {
		// Hoist every member's (plus the root's own) direct dependencies
		// to a single root-level install, then drop any name that
		// actually refers to a workspace member: those are symlinked
		// below, never resolved against the registry (spec section 4.6).
		hoisted := cat.CollectHoisted(m.AllDependencies())
		merged := manifest.DepMap{}
		for name, rangeSpec := range hoisted {
			if cat.IsMember(name) {
				continue
			}
			merged[name] = rangeSpec
		}
		installRoots = &manifest.Manifest{
			Name:         m.Name,
			Version:      m.Version,
			Dependencies: merged,
		}
		e.cfg.Logger.Debug("workspace discovered", "members", len(cat.Members))
	}

	inst := installer.New(e.registry, e.store, e.cfg.Logger, offline)
	result, err := inst.Install(e.cwd, installRoots, lockfilePath(e.cwd))
	if err != nil {
		return err
	}

	if len(cat.Members) > 0 {
		if err := cat.LinkMembers(e.cwd.Join("node_modules")); err != nil {
			return err
		}
	}

	if len(result.Postinstalls) > 0 {
		run, err := postinstall.Confirm(result.Postinstalls, postinstall.Options{
			Interactive: e.cfg.Interactive,
			AssumeYes:   assumeYes,
			IgnoreAll:   ignoreScripts,
			Logger:      e.cfg.Logger,
		})
		if err != nil {
			return err
		}
		if run {
			for _, scriptErr := range postinstall.Run(context.Background(), result.Postinstalls, postinstall.Options{Logger: e.cfg.Logger}) {
				e.cfg.Logger.Warn("postinstall script failed", "err", scriptErr)
			}
		}
	}

	if err := installer.Flush(lockfilePath(e.cwd), result.Lockfile); err != nil {
		return err
	}

	for _, w := range result.Warnings {
		e.cfg.Logger.Warn("install warning", "err", w)
	}
	fmt.Printf("resolved %d, installed %d, cached %d\n",
		result.Stats.Resolved(), result.Stats.Installed(), result.Stats.Cached())
	return nil
}
