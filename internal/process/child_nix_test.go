//go:build !windows
// +build !windows

package process

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKillUsesConfiguredSignal(t *testing.T) {
	c := testChild(t)
	c.killSignal = syscall.SIGUSR1
	cmd := exec.Command("sh", "-c", "trap 'echo one; exit' USR1; while true; do sleep 0.2; done")
	out := &safeBuffer{}
	cmd.Stdout = out
	c.cmd = cmd

	require.NoError(t, c.Start())
	defer c.Stop()
	time.Sleep(fileWaitSleepDelay)

	c.Kill()
	time.Sleep(fileWaitSleepDelay)

	assert.Equal(t, "one\n", out.String())
}

func TestKillOnNoProcessDoesNotPanic(t *testing.T) {
	c := testChild(t)
	c.killSignal = syscall.SIGUSR1
	c.Kill()
}

func TestSetpgidGroupsChildUnderItsOwnProcessGroup(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		c := testChild(t)
		c.cmd = exec.Command("sh", "-c", "while true; do sleep 0.2; done")
		c.setpgid = true

		require.NoError(t, c.Start())
		defer c.Stop()

		gpid, err := syscall.Getpgid(c.Pid())
		require.NoError(t, err)
		assert.Equal(t, c.Pid(), gpid)
	})

	t.Run("disabled", func(t *testing.T) {
		c := testChild(t)
		c.cmd = exec.Command("sh", "-c", "while true; do sleep 0.2; done")
		c.setpgid = false

		require.NoError(t, c.Start())
		defer c.Stop()

		gpid, err := syscall.Getpgid(c.Pid())
		require.NoError(t, err)
		assert.NotEqual(t, c.Pid(), gpid)
	})
}
