package transcoder

import (
	"context"
	"io"
	"os/exec"
	"sync"
	"time"

	"hotghost/internal/logging"
)

// Command is one external process invocation.
type Command struct {
	Path   string
	Args   []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// CommandRunner executes commands. Implementations must honor ctx.
type CommandRunner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs real processes and tracks them so they can be killed on
// shutdown.
type ExecRunner struct {
	mu        sync.Mutex
	processes map[*exec.Cmd]struct{}
}

// NewExecRunner returns a runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{processes: make(map[*exec.Cmd]struct{})}
}

// LookPath resolves file like exec.LookPath.
func (r *ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run starts the command and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	cmd.WaitDelay = 5 * time.Second

	if err := cmd.Start(); err != nil {
		return err
	}

	r.mu.Lock()
	r.processes[cmd] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.processes, cmd)
		r.mu.Unlock()
	}()

	return cmd.Wait()
}

// KillAll stops all running processes.
func (r *ExecRunner) KillAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for cmd := range r.processes {
		if cmd.Process != nil {
			logging.Info("Killing ffmpeg process %d", cmd.Process.Pid)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill process %d: %v", cmd.Process.Pid, err)
			}
		}
	}
}
