package generator

import (
	"errors"
	"fmt"

	"hotghost/internal/pipeline"
	"hotghost/internal/transcoder"
)

var (
	// ErrInputValidation covers unknown templates, missing slots, non-media
	// payloads and out-of-range effect settings. Nothing runs after it.
	ErrInputValidation = errors.New("invalid generation input")
	// ErrMediaDecode means a payload could not be read as its declared type.
	ErrMediaDecode = errors.New("media could not be decoded")
	// ErrEngineInit means the transcoding engine could not be started.
	ErrEngineInit = transcoder.ErrEngineInit
	// ErrStageExecution matches every failed video stage.
	ErrStageExecution = pipeline.ErrStageExecution
	// ErrBusy is returned by TryGenerate while another generation runs.
	ErrBusy = errors.New("another generation is in progress")
)

// StageError is a failed video stage with its stderr tail.
type StageError = pipeline.StageError

// CleanupError is an artifact that outlived its run. It is only logged.
type CleanupError = pipeline.CleanupError

// InputError rejects a request before any work starts.
type InputError struct {
	// Field is the slot name or request field at fault.
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Is reports true for ErrInputValidation.
func (e *InputError) Is(target error) bool { return target == ErrInputValidation }

// DecodeError is a slot whose payload could not be decoded.
type DecodeError struct {
	Slot string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Slot, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports true for ErrMediaDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrMediaDecode }

var (
	errMissingSlot = errors.New("required media is missing")
	errUnknownSlot = errors.New("template has no such slot")
)
