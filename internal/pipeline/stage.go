package pipeline

import (
	"errors"
	"fmt"

	"hotghost/internal/templates"
	"hotghost/internal/transcoder"
)

// Stage names a step of a run in errors, logs and metrics.
type Stage string

const (
	StagePrepare  Stage = "prepare"
	StageRender   Stage = "render"
	StageIntro    Stage = "intro"
	StageMain     Stage = "main"
	StageTrailer  Stage = "trailer"
	StageConcat   Stage = "concat"
	StageAudio    Stage = "audio"
	StageFinalize Stage = "finalize"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StagePrepare, StageRender, StageIntro, StageMain, StageTrailer, StageConcat, StageAudio, StageFinalize}

// ErrStageExecution matches every *StageError.
var ErrStageExecution = errors.New("video stage failed")

// ErrOutputTooSmall is the cause when the final artifact is under MinOutputSize.
var ErrOutputTooSmall = errors.New("output artifact too small")

// StageError is a failed stage of a run.
type StageError struct {
	Template templates.ID
	Stage    Stage
	Err      error
	// Tail is the end of ffmpeg's stderr, when the stage ran ffmpeg.
	Tail string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s stage: %v", e.Template, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is reports true for ErrStageExecution.
func (e *StageError) Is(target error) bool { return target == ErrStageExecution }

func newStageError(tmpl templates.ID, stage Stage, err error) *StageError {
	se := &StageError{Template: tmpl, Stage: stage, Err: err}
	var ee *transcoder.ExecError
	if errors.As(err, &ee) {
		se.Tail = ee.Tail
	}
	return se
}

// State is a Classico run state.
type State int

const (
	StateInit State = iota
	StateIntroRendered
	StateMainRendered
	StateTrailerRendered
	StateConcatenated
	StateAudioAttached
	StateAudioFallback
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateIntroRendered:
		return "intro-rendered"
	case StateMainRendered:
		return "main-rendered"
	case StateTrailerRendered:
		return "trailer-rendered"
	case StateConcatenated:
		return "concatenated"
	case StateAudioAttached:
		return "audio-attached"
	case StateAudioFallback:
		return "audio-fallback"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Observer receives run telemetry. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveStage(template string, stage Stage, seconds float64, err error)
	ObserveAudioFallback()
	ObserveCleanupFailure()
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, Stage, float64, error) {}
func (nopObserver) ObserveAudioFallback()                      {}
func (nopObserver) ObserveCleanupFailure()                     {}
