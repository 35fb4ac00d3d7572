package transcoder

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"hotghost/internal/logging"
)

// State is the lifecycle state of an Engine.
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrEngineInit wraps every initialization failure.
var ErrEngineInit = errors.New("transcoding engine failed to initialize")

// Config locates the binaries and the working directory.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	// WorkDir holds the engine workspace. It is swept on initialization.
	WorkDir string
}

// Engine is the process-wide handle to ffmpeg.
type Engine struct {
	cfg    Config
	runner CommandRunner
	log    logging.Logger

	mu       sync.Mutex
	state    State
	initDone chan struct{}
	initErr  error
	ffmpeg   string
	ffprobe  string
	version  string
	ws       *Workspace
	inits    int
}

// New returns an uninitialized Engine. A nil runner executes real processes.
func New(cfg Config, runner CommandRunner) *Engine {
	if runner == nil {
		runner = NewExecRunner()
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	return &Engine{cfg: cfg, runner: runner, log: logging.With("transcoder")}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Version returns the first line of "ffmpeg -version" once Ready.
func (e *Engine) Version() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// Workspace returns the engine's working storage, or nil before Ready.
func (e *Engine) Workspace() *Workspace {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ws
}

// Ensure initializes the engine if needed and waits for an initialization
// already in progress. It returns nil once the engine is Ready.
func (e *Engine) Ensure(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case Ready:
		e.mu.Unlock()
		return nil
	case Initializing:
		done := e.initDone
		e.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		e.mu.Lock()
		err := e.initErr
		e.mu.Unlock()
		return err
	}

	e.state = Initializing
	e.initDone = make(chan struct{})
	e.inits++
	e.mu.Unlock()

	// the attempt runs detached from ctx so waiting callers are not failed
	// by the first caller's cancellation
	ws, ffmpeg, ffprobe, version, err := e.initialize(context.WithoutCancel(ctx))

	e.mu.Lock()
	if err != nil {
		e.state = Failed
		e.initErr = fmt.Errorf("%w: %v", ErrEngineInit, err)
		e.log.Error("Initialization failed: %v", err)
	} else {
		e.state = Ready
		e.initErr = nil
		e.ws, e.ffmpeg, e.ffprobe, e.version = ws, ffmpeg, ffprobe, version
		e.log.Info("Ready: %s (workspace %s)", version, ws.Dir())
	}
	err = e.initErr
	close(e.initDone)
	e.mu.Unlock()
	return err
}

func (e *Engine) initialize(ctx context.Context) (*Workspace, string, string, string, error) {
	ffmpeg, err := e.runner.LookPath(e.cfg.FFmpegPath)
	if err != nil {
		return nil, "", "", "", fmt.Errorf("ffmpeg not found: %w", err)
	}
	ffprobe, err := e.runner.LookPath(e.cfg.FFprobePath)
	if err != nil {
		return nil, "", "", "", fmt.Errorf("ffprobe not found: %w", err)
	}

	var out, stderr bytes.Buffer
	err = e.runner.Run(ctx, Command{Path: ffmpeg, Args: []string{"-hide_banner", "-version"}, Stdout: &out, Stderr: &stderr})
	if err != nil {
		return nil, "", "", "", fmt.Errorf("ffmpeg -version: %w: %s", err, stderr.String())
	}
	version := firstLine(out.String())

	ws, err := OpenWorkspace(e.cfg.WorkDir)
	if err != nil {
		return nil, "", "", "", err
	}
	if freed, err := ws.Sweep(); err != nil {
		e.log.Warn("Workspace sweep incomplete: %v", err)
	} else if freed > 0 {
		e.log.Info("Removed %d bytes of stale artifacts", freed)
	}
	return ws, ffmpeg, ffprobe, version, nil
}

func firstLine(s string) string {
	sc := bufio.NewScanner(bytes.NewBufferString(s))
	if sc.Scan() {
		return sc.Text()
	}
	return ""
}

// Close stops running processes and removes the workspace contents.
func (e *Engine) Close() {
	if k, ok := e.runner.(interface{ KillAll() }); ok {
		k.KillAll()
	}
	if ws := e.Workspace(); ws != nil {
		if _, err := ws.Sweep(); err != nil {
			e.log.Warn("Workspace cleanup failed: %v", err)
		}
	}
}

func (e *Engine) binaries() (string, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Ready {
		return "", "", fmt.Errorf("engine is %s", e.state)
	}
	return e.ffmpeg, e.ffprobe, nil
}
