package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCacheCmd implements `rpm cache clean` / `rpm cache info`, grounded on
// manager.rs's handle_cache_command.
func newCacheCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cache",
		Short: "inspect or clear the content-addressed package cache",
	}
	root.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "remove every entry from the package cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(false)
			if err != nil {
				return err
			}
			if err := e.store.Clean(); err != nil {
				return err
			}
			fmt.Println("cache cleared")
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "report the size and entry count of the package cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(false)
			if err != nil {
				return err
			}
			entries, bytes, err := e.store.Info()
			if err != nil {
				return err
			}
			fmt.Printf("%d entries, %d bytes\n", entries, bytes)
			return nil
		},
	})
	return root
}
