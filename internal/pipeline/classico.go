package pipeline

import (
	"context"
	"fmt"
	"time"

	"hotghost/internal/assets"
	"hotghost/internal/effects"
	"hotghost/internal/filtergraph"
	"hotghost/internal/logging"
	"hotghost/internal/templates"
	"hotghost/internal/transcoder"
)

// Classico progress checkpoints, reported as each step completes.
const (
	progressReady   = 0.05
	progressInput   = 0.1
	progressIntro   = 0.2
	progressMain    = 0.4
	progressTrailer = 0.6
	progressConcat  = 0.75
	progressAudio   = 0.9
)

type classicoRun struct {
	o     *Orchestrator
	scope *Scope
	rep   *reporter
	log   logging.Logger
	fx    effects.Settings

	still, closing string
	duration       time.Duration

	input, intro, main, trailer string
	joined, final               string
}

// RunClassico renders the text-free template: a short intro clip, the
// user's clip re-encoded with effects, and the closing video, concatenated,
// with the user's audio muxed back in. When the audio cannot be extracted
// or muxed the result is the video-only concatenation.
func (o *Orchestrator) RunClassico(ctx context.Context, req ClassicoRequest, progress func(float64)) (*Output, error) {
	tmpl := templates.Classico
	rep := newReporter(progress)
	if err := o.Engine.Ensure(ctx); err != nil {
		return nil, err
	}
	rep.report(progressReady)

	still, err := o.asset(tmpl, assets.IntroStill)
	if err != nil {
		return nil, err
	}
	closing, err := o.asset(tmpl, assets.ClosingVideo)
	if err != nil {
		return nil, err
	}

	scope := NewScope(o.Engine.Workspace(), o.observer())
	defer scope.Close()

	run := &classicoRun{
		o:       o,
		scope:   scope,
		rep:     rep,
		log:     o.log.With(tmpl.String()),
		fx:      req.Effects,
		still:   still,
		closing: closing,
	}
	run.input, err = scope.Write("input", req.Video.ext(), req.Video.Data)
	if err != nil {
		return nil, newStageError(tmpl, StagePrepare, err)
	}
	run.duration, _ = o.inspect(ctx, run.input)
	rep.report(progressInput)

	start := time.Now()
	trace := []State{StateInit}
	for state := StateInit; state != StateDone; {
		next, err := run.step(ctx, state)
		if err != nil {
			run.log.Error("%s failed after %v: %v", state, trace, err)
			return nil, err
		}
		run.log.Debug("%s -> %s", state, next)
		trace = append(trace, next)
		state = next
	}

	data, err := o.finish(tmpl, run.final)
	if err != nil {
		run.log.Error("%v", err)
		return nil, err
	}
	rep.report(1)

	audio := false
	for _, s := range trace {
		if s == StateAudioAttached {
			audio = true
		}
	}
	run.log.Info("rendered %d bytes in %s (%v)", len(data), time.Since(start).Round(time.Millisecond), trace)
	return &Output{Data: data, Duration: run.duration, Audio: audio, Trace: trace}, nil
}

func (r *classicoRun) exec(ctx context.Context, stage Stage, args []string, onProgress func(float64)) error {
	job := transcoder.Job{Args: args}
	if onProgress != nil {
		job.Duration = r.duration
		job.OnProgress = onProgress
	}
	return r.o.exec(ctx, templates.Classico, stage, job)
}

// step performs the work leaving state s and returns the next state.
func (r *classicoRun) step(ctx context.Context, s State) (State, error) {
	switch s {
	case StateInit:
		r.intro = r.scope.Name("intro", ".mp4")
		if err := r.exec(ctx, StageIntro, filtergraph.IntroArgs(r.still, r.intro), nil); err != nil {
			return s, err
		}
		r.rep.report(progressIntro)
		return StateIntroRendered, nil

	case StateIntroRendered:
		r.main = r.scope.Name("main", ".mp4")
		args := filtergraph.MainArgs(r.input, r.fx, r.main)
		if err := r.exec(ctx, StageMain, args, r.rep.span(progressIntro, progressMain)); err != nil {
			return s, err
		}
		r.rep.report(progressMain)
		return StateMainRendered, nil

	case StateMainRendered:
		r.trailer = r.scope.Name("trailer", ".mp4")
		if err := r.exec(ctx, StageTrailer, filtergraph.TrailerArgs(r.closing, r.trailer), nil); err != nil {
			return s, err
		}
		r.rep.report(progressTrailer)
		return StateTrailerRendered, nil

	case StateTrailerRendered:
		manifest, err := r.scope.Write("concat", ".txt", []byte(filtergraph.ConcatManifest(r.intro, r.main, r.trailer)))
		if err != nil {
			return s, newStageError(templates.Classico, StageConcat, err)
		}
		r.joined = r.scope.Name("joined", ".mp4")
		if err := r.exec(ctx, StageConcat, filtergraph.ConcatArgs(manifest, r.joined), nil); err != nil {
			return s, err
		}
		r.rep.report(progressConcat)
		return StateConcatenated, nil

	case StateConcatenated:
		next, err := r.attachAudio(ctx)
		if err != nil {
			return s, err
		}
		r.rep.report(progressAudio)
		return next, nil

	case StateAudioAttached, StateAudioFallback:
		return StateDone, nil
	}
	return s, fmt.Errorf("classico: no transition from %s", s)
}

// attachAudio muxes the source audio onto the joined video, falling back
// to a plain copy of the joined video when either step fails.
func (r *classicoRun) attachAudio(ctx context.Context) (State, error) {
	audio := r.scope.Name("audio", ".m4a")
	err := r.exec(ctx, StageAudio, filtergraph.ExtractAudioArgs(r.input, audio), nil)
	if err == nil {
		r.final = r.scope.Name("final", ".mp4")
		err = r.exec(ctx, StageAudio, filtergraph.MuxAudioArgs(r.joined, audio, r.final), nil)
		if err == nil {
			return StateAudioAttached, nil
		}
	}
	if ctx.Err() != nil {
		return StateConcatenated, err
	}

	r.log.Warn("audio unavailable, keeping video only: %v", err)
	r.o.observer().ObserveAudioFallback()
	r.final = r.scope.Name("final", ".mp4")
	if err := r.exec(ctx, StageFinalize, filtergraph.CopyArgs(r.joined, r.final), nil); err != nil {
		return StateConcatenated, err
	}
	return StateAudioFallback, nil
}
