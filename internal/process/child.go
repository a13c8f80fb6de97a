package process

// child wraps one running lifecycle-script process (a postinstall script or
// a `package.json` "scripts" entry) with just enough lifecycle management
// to start it, wait for its exit code, and force it down at shutdown.
// Grounded on the teacher's internal/process.Child, trimmed to the surface
// this engine's single-shot script executor actually needs: no restart, no
// splay-based signal staggering (the post-install semaphore already caps
// concurrency, so there's no thundering herd to stagger), no ad-hoc
// Signal()/StopImmediately() API that nothing here calls.

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
)

var (
	// ExitCodeOK is the exit code recorded for a process that exited cleanly.
	ExitCodeOK = 0

	// ExitCodeError is used when a process exits abnormally without a
	// reported exit status of its own.
	ExitCodeError = 127
)

// Child manages one child process's start/exit/kill lifecycle.
type Child struct {
	sync.RWMutex

	killSignal  os.Signal
	killTimeout time.Duration

	cmd *exec.Cmd

	exitCh chan int

	stopLock sync.RWMutex
	stopCh   chan struct{}
	stopped  bool

	// setpgid groups the child (and anything it spawns) under its own
	// process group so Kill can signal the whole tree, not just the direct
	// child - relevant for scripts that shell out further (e.g. npm-style
	// postinstall hooks invoking node-gyp).
	setpgid bool

	Label string

	logger hclog.Logger
}

// NewInput configures a Child.
type NewInput struct {
	Cmd         *exec.Cmd
	KillSignal  os.Signal
	KillTimeout time.Duration
	Logger      hclog.Logger
}

func newChild(i NewInput) (*Child, error) {
	label := fmt.Sprintf("(%v) %v", i.Cmd.Dir, strings.Join(i.Cmd.Args, " "))
	return &Child{
		cmd:         i.Cmd,
		killSignal:  i.KillSignal,
		killTimeout: i.KillTimeout,
		stopCh:      make(chan struct{}, 1),
		setpgid:     true,
		Label:       label,
		logger:      i.Logger.Named(label),
	}, nil
}

// ExitCh returns the channel the exit code is delivered on. nil until Start
// has been called.
func (c *Child) ExitCh() <-chan int {
	c.RLock()
	defer c.RUnlock()
	return c.exitCh
}

// Pid returns the child's process id, or 0 if it isn't currently running.
func (c *Child) Pid() int {
	c.RLock()
	defer c.RUnlock()
	return c.pid()
}

// Command returns the human-readable command label used in log lines and
// ChildExit errors.
func (c *Child) Command() string {
	return c.Label
}

// Start begins executing the child process.
func (c *Child) Start() error {
	c.Lock()
	defer c.Unlock()
	return c.start()
}

// Kill signals the process with the configured kill signal (falling back
// to a hard Process.Kill if none is set or the signal doesn't land within
// KillTimeout) and waits for it to exit.
func (c *Child) Kill() {
	c.logger.Debug("killing process")
	c.Lock()
	defer c.Unlock()
	c.kill()
}

// Stop kills the process (if still running) and marks the Child so a
// concurrent exit doesn't also report a stale exit code.
func (c *Child) Stop() {
	c.Lock()
	defer c.Unlock()

	c.stopLock.Lock()
	defer c.stopLock.Unlock()
	if c.stopped {
		return
	}
	c.kill()
	close(c.stopCh)
	c.stopped = true
}

func (c *Child) start() error {
	setSetpgid(c.cmd, c.setpgid)
	if err := c.cmd.Start(); err != nil {
		return err
	}

	exitCh := make(chan int, 1)
	go func() {
		c.RLock()
		cmd := c.cmd
		c.RUnlock()

		var code int
		var err error
		if cmd != nil {
			err = cmd.Wait()
		}
		if err == nil {
			code = ExitCodeOK
		} else {
			code = ExitCodeError
			var exiterr *exec.ExitError
			if errors.As(err, &exiterr) {
				if status, ok := exiterr.Sys().(syscall.WaitStatus); ok {
					code = status.ExitStatus()
				}
			}
		}

		c.stopLock.RLock()
		defer c.stopLock.RUnlock()
		if !c.stopped {
			select {
			case <-c.stopCh:
			case exitCh <- code:
			}
		}
		close(exitCh)
	}()

	c.exitCh = exitCh
	return nil
}

func (c *Child) pid() int {
	if !c.running() {
		return 0
	}
	return c.cmd.Process.Pid
}

func (c *Child) signal(s os.Signal) error {
	if !c.running() {
		return nil
	}

	sig, ok := s.(syscall.Signal)
	if !ok {
		return fmt.Errorf("bad signal: %s", s)
	}
	pid := c.cmd.Process.Pid
	if c.setpgid {
		pid = -(pid)
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Signal(sig)
}

func (c *Child) kill() {
	if !c.running() {
		c.logger.Debug("kill called but process already exited")
		return
	}

	var exited bool
	defer func() {
		if !exited {
			c.logger.Debug("process did not exit in time, force-killing")
			c.cmd.Process.Kill()
		}
		c.cmd = nil
	}()

	if c.killSignal == nil {
		return
	}

	if err := c.signal(c.killSignal); err != nil {
		c.logger.Debug("signal delivery failed", "err", err)
		if processNotFoundErr(err) {
			exited = true
		}
		return
	}

	killCh := make(chan struct{}, 1)
	go func() {
		defer close(killCh)
		c.cmd.Process.Wait()
	}()

	select {
	case <-c.stopCh:
	case <-killCh:
		exited = true
	case <-time.After(c.killTimeout):
		c.logger.Debug("kill timeout elapsed")
	}
}

func (c *Child) running() bool {
	select {
	case <-c.exitCh:
		return false
	default:
	}
	return c.cmd != nil && c.cmd.Process != nil
}
