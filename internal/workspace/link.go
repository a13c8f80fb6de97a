package workspace

import (
	"fmt"

	"github.com/yookoala/realpath"

	"github.com/go-rpm/rpm/internal/rpmpath"
)

// LinkMembers symlinks each catalog member into the root node_modules under
// its package.json name, the way a monorepo's local packages resolve
// through `require`/import without ever going through the store. Existing
// entries are replaced so re-running install after a member rename doesn't
// leave a stale link behind.
func (c *Catalog) LinkMembers(nodeModules rpmpath.AbsolutePath) error {
	for _, m := range c.Members {
		if m.Name == "" {
			continue
		}
		link := nodeModules.Join(m.Name)
		if link.Exists() {
			if err := link.RemoveAll(); err != nil {
				return fmt.Errorf("replacing workspace link for %s: %w", m.Name, err)
			}
		}
		if err := link.Dir().MkdirAll(); err != nil {
			return err
		}
		target, err := realpath.Realpath(m.Dir.ToString())
		if err != nil {
			target = m.Dir.ToString()
		}
		if err := link.Symlink(target); err != nil {
			return fmt.Errorf("linking workspace member %s: %w", m.Name, err)
		}
	}
	return nil
}
