package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-rpm/rpm/internal/process"
)

// newRunCmd implements `rpm run <script>`, grounded on manager.rs's
// run_script: look up the named script in package.json's "scripts" map
// and execute it in the project root via the same process.Manager the
// post-install executor uses.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "run a package.json script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(false)
			if err != nil {
				return err
			}
			m, err := loadManifest(e.cwd)
			if err != nil {
				return err
			}
			script, ok := m.Scripts[args[0]]
			if !ok {
				return fmt.Errorf("no script named %q in package.json", args[0])
			}

			mgr := process.NewManager(e.cfg.Logger)
			defer mgr.Close()

			c := shellCommandFor(script)
			c.Dir = e.cwd.ToString()
			c.Env = os.Environ()
			var out bytes.Buffer
			c.Stdout = &out
			c.Stderr = &out
			if err := mgr.Exec(c); err != nil {
				fmt.Print(out.String())
				return err
			}
			fmt.Print(out.String())
			return nil
		},
	}
}
