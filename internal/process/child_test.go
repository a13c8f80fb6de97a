package process

import (
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fileWaitSleepDelay = 150 * time.Millisecond

func testChild(t *testing.T) *Child {
	t.Helper()
	cmd := exec.Command("echo", "hello", "world")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	c, err := newChild(NewInput{
		Cmd:         cmd,
		KillSignal:  os.Kill,
		KillTimeout: 2 * time.Second,
		Logger:      hclog.NewNullLogger(),
	})
	require.NoError(t, err)
	return c
}

func TestNewChildCapturesItsConfiguration(t *testing.T) {
	killSignal := os.Kill
	killTimeout := fileWaitSleepDelay

	cmd := exec.Command("echo", "hello", "world")
	c, err := newChild(NewInput{
		Cmd:         cmd,
		KillSignal:  killSignal,
		KillTimeout: killTimeout,
		Logger:      hclog.NewNullLogger(),
	})
	require.NoError(t, err)

	assert.Equal(t, killSignal, c.killSignal)
	assert.Equal(t, killTimeout, c.killTimeout)
	assert.NotNil(t, c.stopCh)
}

func TestExitChIsNilBeforeStart(t *testing.T) {
	c := testChild(t)
	assert.Nil(t, c.ExitCh())
}

func TestExitChIsReadyAfterStart(t *testing.T) {
	c := testChild(t)
	require.NoError(t, c.Start())
	defer c.Stop()

	assert.NotNil(t, c.ExitCh())
}

func TestPidIsZeroBeforeStart(t *testing.T) {
	c := testChild(t)
	assert.Zero(t, c.Pid())
}

func TestPidIsSetAfterStart(t *testing.T) {
	c := testChild(t)
	require.NoError(t, c.Start())
	defer c.Stop()

	assert.NotZero(t, c.Pid())
}

func TestStartWiresStdoutAndEnv(t *testing.T) {
	c := testChild(t)

	out := &safeBuffer{}
	cmd := exec.Command("env")
	cmd.Stdout = out
	cmd.Env = []string{"a=b", "c=d"}
	c.cmd = cmd

	require.NoError(t, c.Start())
	defer c.Stop()

	select {
	case <-c.ExitCh():
	case <-time.After(fileWaitSleepDelay):
		t.Fatal("process should have exited")
	}

	for _, envVar := range cmd.Env {
		assert.True(t, strings.Contains(out.String(), envVar))
	}
}

func TestKillWithNoConfiguredSignalForceKills(t *testing.T) {
	c := testChild(t)
	c.cmd = exec.Command("sh", "-c", "while true; do sleep 0.2; done")
	c.killTimeout = 20 * time.Millisecond
	c.killSignal = nil

	require.NoError(t, c.Start())
	defer c.Stop()
	time.Sleep(fileWaitSleepDelay) // let the shell actually start

	c.Kill()
	time.Sleep(fileWaitSleepDelay) // let the kill take effect

	assert.Nil(t, c.cmd)
}
