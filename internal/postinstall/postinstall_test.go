package postinstall

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rpm/rpm/internal/installer"
	"github.com/go-rpm/rpm/internal/rpmpath"
)

func TestConfirmIgnoreAllDeclinesWithoutPrompting(t *testing.T) {
	tasks := []installer.PostinstallTask{{Name: "a", Command: "true"}}
	run, err := Confirm(tasks, Options{IgnoreAll: true, Interactive: true})
	require.NoError(t, err)
	assert.False(t, run)
}

func TestConfirmAssumeYesSkipsPrompt(t *testing.T) {
	tasks := []installer.PostinstallTask{{Name: "a", Command: "true"}}
	run, err := Confirm(tasks, Options{AssumeYes: true})
	require.NoError(t, err)
	assert.True(t, run)
}

func TestConfirmNonInteractiveDeclines(t *testing.T) {
	tasks := []installer.PostinstallTask{{Name: "a", Command: "true"}}
	run, err := Confirm(tasks, Options{Interactive: false})
	require.NoError(t, err)
	assert.False(t, run)
}

func TestConfirmNoTasksNeverPrompts(t *testing.T) {
	run, err := Confirm(nil, Options{Interactive: true})
	require.NoError(t, err)
	assert.False(t, run)
}

func TestRunExecutesScriptsInTheirInstallPath(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	tasks := []installer.PostinstallTask{
		{Name: "left-pad", InstallPath: rpmpath.AbsolutePath(dir), Command: "touch ran"},
	}

	errs := Run(context.Background(), tasks, Options{})
	assert.Empty(t, errs)
	_, statErr := os.Stat(marker)
	assert.NoError(t, statErr)
}

func TestRunReportsFailureWithoutAbortingSiblings(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	tasks := []installer.PostinstallTask{
		{Name: "failing", InstallPath: rpmpath.AbsolutePath(dirA), Command: "exit 1"},
		{Name: "ok", InstallPath: rpmpath.AbsolutePath(dirB), Command: "touch ran"},
	}

	errs := Run(context.Background(), tasks, Options{})
	require.Len(t, errs, 1)
	_, statErr := os.Stat(filepath.Join(dirB, "ran"))
	assert.NoError(t, statErr, "sibling task should still have run")
}

func TestRunFailingScriptIsNotRetriedOnPosix(t *testing.T) {
	dir := t.TempDir()
	counter := filepath.Join(dir, "count")
	tasks := []installer.PostinstallTask{
		{Name: "flaky", InstallPath: rpmpath.AbsolutePath(dir), Command: "echo x >> count; exit 1"},
	}

	errs := Run(context.Background(), tasks, Options{})
	require.Len(t, errs, 1)
	data, err := os.ReadFile(counter)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data), "a POSIX failure must run the script exactly once, not be retried")
}

func TestRunNoTasksIsNoop(t *testing.T) {
	errs := Run(context.Background(), nil, Options{})
	assert.Nil(t, errs)
}
