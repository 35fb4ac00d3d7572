package transcoder

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

const stderrTail = 4096

// Job is one ffmpeg invocation.
type Job struct {
	// Args follow the global options; "-y" and the progress flags are prepended.
	Args []string
	// Duration of the expected output, used to turn timestamps into fractions.
	Duration time.Duration
	// OnProgress receives non-decreasing fractions in [0,1]. Optional.
	OnProgress func(float64)
}

// ExecError describes a failed invocation.
type ExecError struct {
	Args []string
	Err  error
	// Tail is the end of ffmpeg's stderr.
	Tail string
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("ffmpeg %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Tail != "" {
		msg += ": " + lastLine(e.Tail)
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Exec runs ffmpeg inside the workspace directory. Relative artifact names
// in args resolve against the workspace.
func (e *Engine) Exec(ctx context.Context, job Job) error {
	ffmpeg, _, err := e.binaries()
	if err != nil {
		return err
	}
	ws := e.Workspace()

	argv := make([]string, 0, len(job.Args)+8)
	argv = append(argv, "-hide_banner", "-nostdin", "-nostats", "-loglevel", "error", "-y")
	if job.OnProgress != nil {
		argv = append(argv, "-progress", "pipe:1")
	}
	argv = append(argv, job.Args...)

	tail := newTailBuffer(stderrTail)
	cmd := Command{Path: ffmpeg, Args: argv, Dir: ws.Dir(), Stdout: io.Discard, Stderr: tail}

	var done chan struct{}
	var pw *io.PipeWriter
	if job.OnProgress != nil {
		var pr *io.PipeReader
		pr, pw = io.Pipe()
		cmd.Stdout = pw
		done = make(chan struct{})
		go func() {
			defer close(done)
			ParseProgress(pr, job.Duration, job.OnProgress)
			_, _ = io.Copy(io.Discard, pr)
		}()
	}

	start := time.Now()
	e.log.Debug("exec %s", strings.Join(argv, " "))
	runErr := e.runner.Run(ctx, cmd)

	if pw != nil {
		_ = pw.Close()
		<-done
	}

	if runErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ExecError{Args: job.Args, Err: runErr, Tail: tail.String()}
	}
	e.log.Debug("exec finished in %s", time.Since(start).Round(time.Millisecond))
	return nil
}
