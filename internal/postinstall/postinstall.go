// Package postinstall runs the install-time lifecycle scripts collected
// during resolution (spec section 4.7), after the dependency graph has
// quiesced. Script execution itself is grounded on the teacher's
// internal/process.Manager (a thin exec.Cmd wrapper reporting non-zero
// exits as errors); the consent prompt and bounded-parallel fan-out follow
// _examples/original_source/src/manager.rs's run_postinstalls.
package postinstall

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/AlecAivazis/survey/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/semaphore"

	"github.com/go-rpm/rpm/internal/installer"
	"github.com/go-rpm/rpm/internal/process"
)

// postinstallPermits bounds concurrent script execution (spec section 5:
// "the post-install semaphore (10 permits)").
const postinstallPermits = 10

// Options configures one executor run.
type Options struct {
	// Interactive gates whether Confirm prompts the user at all; a
	// non-interactive session (CI, piped stdin) is treated as declined
	// unless AssumeYes is set.
	Interactive bool
	AssumeYes   bool
	IgnoreAll   bool
	Logger      hclog.Logger
}

// Confirm prompts once for all collected scripts, the way a package
// manager surfaces lifecycle scripts as a single disclosure rather than
// one prompt per package (spec section 4.7 "Consent").
func Confirm(tasks []installer.PostinstallTask, opts Options) (bool, error) {
	if len(tasks) == 0 {
		return false, nil
	}
	if opts.IgnoreAll {
		return false, nil
	}
	if opts.AssumeYes {
		return true, nil
	}
	if !opts.Interactive {
		return false, nil
	}

	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	run := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Run %d install script(s) for: %v?", len(tasks), names),
		Default: false,
	}
	if err := survey.AskOne(prompt, &run); err != nil {
		return false, err
	}
	return run, nil
}

// Run executes every collected postinstall task with bounded concurrency,
// reporting per-task failures as warnings rather than aborting its
// siblings (spec section 4.7 "Failure handling").
func Run(ctx context.Context, tasks []installer.PostinstallTask, opts Options) []error {
	if len(tasks) == 0 {
		return nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("postinstall")

	bar := progressbar.Default(int64(len(tasks)), "running install scripts")
	mgr := process.NewManager(logger)
	defer mgr.Close()

	sem := semaphore.NewWeighted(postinstallPermits)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, t := range tasks {
		t := t
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			defer bar.Add(1)
			if err := runOne(ctx, mgr, t, logger); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("postinstall for %s: %w", t.Name, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errs
}

// runOne runs a single script under /bin/sh -c. On a Windows host, a
// failed invocation is retried exactly once under cmd /C instead (spec
// section 4.7 step 2); POSIX hosts get a single attempt, full stop, since
// a retry there would just re-run the identical command and risk doubling
// any side effects the script has.
func runOne(ctx context.Context, mgr *process.Manager, t installer.PostinstallTask, logger hclog.Logger) error {
	run := func(cmd *exec.Cmd) error {
		cmd.Dir = t.InstallPath.ToString()
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out
		if err := mgr.Exec(cmd); err != nil {
			logger.Debug("script failed", "name", t.Name, "output", out.String(), "err", err)
			return err
		}
		return nil
	}

	err := run(exec.CommandContext(ctx, "/bin/sh", "-c", t.Command))
	if err == nil || runtime.GOOS != "windows" {
		return err
	}
	logger.Debug("retrying under cmd /C", "name", t.Name)
	return run(exec.CommandContext(ctx, "cmd", "/C", t.Command))
}
