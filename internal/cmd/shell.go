package cmd

import (
	"os/exec"
	"runtime"
)

// shellCommandFor builds the platform-appropriate shell invocation for a
// package.json script string, matching the dispatch postinstall scripts
// use (spec section 4.4/4.7 share a single "run a shell string" concern).
func shellCommandFor(script string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/C", script)
	}
	return exec.Command("/bin/sh", "-c", script)
}
