// Package transcodertest provides a scripted CommandRunner for tests that
// drive the transcoding engine without ffmpeg installed.
package transcodertest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"hotghost/internal/transcoder"
)

// DefaultMediaInfo is the ffprobe output returned unless Runner.MediaInfoJSON is set:
// a 10 second 1080x1920 h264 video with an audio track.
const DefaultMediaInfo = `{
  "format": {"duration": "10.000000"},
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1080, "height": 1920},
    {"codec_type": "audio", "codec_name": "aac"}
  ]
}`

// Call records one invocation.
type Call struct {
	Path string
	Args []string
	Dir  string
}

// Output returns the last argument, which is the output file for ffmpeg.
func (c Call) Output() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// Has reports whether the args contain the flag followed by value.
func (c Call) Has(flag, value string) bool {
	for i := 0; i+1 < len(c.Args); i++ {
		if c.Args[i] == flag && c.Args[i+1] == value {
			return true
		}
	}
	return false
}

// Runner is a fake transcoder.CommandRunner. Successful ffmpeg calls create
// their output file with OutputSize bytes and emit progress lines.
type Runner struct {
	// OutputSize is the size of fabricated output files. Zero means 4096.
	OutputSize int
	// MediaInfoJSON replaces DefaultMediaInfo.
	MediaInfoJSON string
	// LookPathErr fails binary resolution.
	LookPathErr error
	// Fail, when set, is consulted before every ffmpeg call; a non-nil
	// return fails that call.
	Fail func(Call) error
	// Block, when set, is waited on by "-version" calls so tests can hold
	// initialization open.
	Block chan struct{}

	versions atomic.Int32

	mu    sync.Mutex
	calls []Call
}

// LookPath echoes the name unless LookPathErr is set.
func (r *Runner) LookPath(file string) (string, error) {
	if r.LookPathErr != nil {
		return "", r.LookPathErr
	}
	return file, nil
}

// VersionCalls returns how many times "ffmpeg -version" ran.
func (r *Runner) VersionCalls() int {
	return int(r.versions.Load())
}

// Calls returns the ffmpeg and ffprobe invocations so far, excluding version checks.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Run implements transcoder.CommandRunner.
func (r *Runner) Run(ctx context.Context, c transcoder.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if slices.Contains(c.Args, "-version") {
		r.versions.Add(1)
		if r.Block != nil {
			select {
			case <-r.Block:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		_, err := io.WriteString(c.Stdout, "ffmpeg version 7.0-fake Copyright (c) the FFmpeg developers\n")
		return err
	}

	call := Call{Path: c.Path, Args: slices.Clone(c.Args), Dir: c.Dir}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	if strings.Contains(filepath.Base(c.Path), "ffprobe") {
		info := r.MediaInfoJSON
		if info == "" {
			info = DefaultMediaInfo
		}
		_, err := io.WriteString(c.Stdout, info)
		return err
	}

	if r.Fail != nil {
		if err := r.Fail(call); err != nil {
			fmt.Fprintf(c.Stderr, "frame=0\n%s: %v\n", call.Output(), err)
			return err
		}
	}

	size := r.OutputSize
	if size == 0 {
		size = 4096
	}
	out := call.Output()
	if !filepath.IsAbs(out) {
		out = filepath.Join(c.Dir, out)
	}
	if err := os.WriteFile(out, make([]byte, size), 0o644); err != nil {
		return fmt.Errorf("fake ffmpeg: %w", err)
	}

	if c.Stdout != nil && c.Stdout != io.Discard {
		for _, us := range []int{2_500_000, 5_000_000, 10_000_000} {
			fmt.Fprintf(c.Stdout, "frame=1\nout_time_us=%d\nprogress=continue\n", us)
		}
		fmt.Fprint(c.Stdout, "progress=end\n")
	}
	return nil
}

// ErrScripted is a convenience failure for Fail hooks.
var ErrScripted = errors.New("scripted failure")

// FailWhen returns a Fail hook that fails calls for which match is true.
func FailWhen(match func(Call) bool) func(Call) error {
	return func(c Call) error {
		if match(c) {
			return ErrScripted
		}
		return nil
	}
}
