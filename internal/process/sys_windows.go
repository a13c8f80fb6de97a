//go:build windows
// +build windows

package process

import "os/exec"

// Process groups aren't a Windows concept in the way POSIX uses setpgid, so
// these are no-ops there; Child.Kill falls back to a direct Process.Kill.

func setSetpgid(cmd *exec.Cmd, value bool) {}

func processNotFoundErr(err error) bool {
	return false
}
