package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"hotghost/internal/assets"
	"hotghost/internal/compositor"
	"hotghost/internal/effects"
	"hotghost/internal/filtergraph"
	"hotghost/internal/logging"
	"hotghost/internal/templates"
	"hotghost/internal/transcoder"
)

// MinOutputSize is the smallest final artifact accepted as a real video.
const MinOutputSize = 1000

// AssetPaths resolves bundled assets to files ffmpeg can read.
type AssetPaths interface {
	Path(id assets.ID) (string, error)
}

// Overlays renders the non-media layer of a video template.
type Overlays interface {
	MetropolesOverlay(texts compositor.TextSet, gradient int) (*image.RGBA, error)
	ChoqueiOverlay(texts compositor.TextSet) (*image.RGBA, error)
}

// Input is one uploaded clip.
type Input struct {
	Data []byte
	// Ext is the container extension including the dot, e.g. ".mov".
	Ext string
}

func (in Input) ext() string {
	ext := strings.ToLower(in.Ext)
	if len(ext) < 2 || ext[0] != '.' || filepath.Base(ext) != ext || strings.ContainsAny(ext[1:], ". ") {
		return ".mp4"
	}
	return ext
}

// MetropolesRequest is a single-slot video run.
type MetropolesRequest struct {
	Video   Input
	Texts   compositor.TextSet
	Effects effects.Settings
}

// ChoqueiRequest is a two-slot video run.
type ChoqueiRequest struct {
	Left, Right               Input
	Texts                     compositor.TextSet
	LeftEffects, RightEffects effects.Settings
}

// ClassicoRequest is a text-free multi-stage run.
type ClassicoRequest struct {
	Video   Input
	Effects effects.Settings
}

// Output is the encoded result of a run.
type Output struct {
	Data []byte
	// Duration is the source duration reported by ffprobe, zero when unknown.
	Duration time.Duration
	// Audio reports whether the artifact carries the source's audio.
	Audio bool
	// Trace lists the visited Classico states; nil for single-pass runs.
	Trace []State
}

// Orchestrator runs video templates on an engine.
type Orchestrator struct {
	Engine   *transcoder.Engine
	Assets   AssetPaths
	Overlays Overlays
	Observer Observer

	log logging.Logger
}

// New returns an orchestrator without telemetry.
func New(engine *transcoder.Engine, paths AssetPaths, overlays Overlays) *Orchestrator {
	return &Orchestrator{
		Engine:   engine,
		Assets:   paths,
		Overlays: overlays,
		log:      logging.With("pipeline"),
	}
}

func (o *Orchestrator) observer() Observer {
	if o.Observer == nil {
		return nopObserver{}
	}
	return o.Observer
}

// reporter forwards non-decreasing fractions to a callback.
type reporter struct {
	mu   sync.Mutex
	fn   func(float64)
	last float64
}

func newReporter(fn func(float64)) *reporter {
	return &reporter{fn: fn, last: -1}
}

func (r *reporter) report(f float64) {
	if r.fn == nil {
		return
	}
	f = min(max(f, 0), 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if f <= r.last {
		return
	}
	r.last = f
	r.fn(f)
}

// span maps a stage-local fraction onto [from, to] of the whole run.
func (r *reporter) span(from, to float64) func(float64) {
	if r.fn == nil {
		return nil
	}
	return func(f float64) { r.report(from + (to-from)*f) }
}

func (o *Orchestrator) exec(ctx context.Context, tmpl templates.ID, stage Stage, job transcoder.Job) error {
	start := time.Now()
	err := o.Engine.Exec(ctx, job)
	o.observer().ObserveStage(tmpl.String(), stage, time.Since(start).Seconds(), err)
	if err != nil {
		return newStageError(tmpl, stage, err)
	}
	return nil
}

func (o *Orchestrator) asset(tmpl templates.ID, id assets.ID) (string, error) {
	if o.Assets == nil {
		return "", newStageError(tmpl, StagePrepare, fmt.Errorf("%w: %s", assets.ErrMissing, id))
	}
	p, err := o.Assets.Path(id)
	if err != nil {
		return "", newStageError(tmpl, StagePrepare, err)
	}
	return p, nil
}

func (o *Orchestrator) overlay(tmpl templates.ID, render func() (*image.RGBA, error)) ([]byte, error) {
	if o.Overlays == nil {
		return nil, newStageError(tmpl, StagePrepare, fmt.Errorf("no overlay renderer"))
	}
	img, err := render()
	if err != nil {
		return nil, newStageError(tmpl, StagePrepare, err)
	}
	data, err := compositor.EncodePNG(img)
	if err != nil {
		return nil, newStageError(tmpl, StagePrepare, err)
	}
	return data, nil
}

// inspect returns the duration and audio presence of an artifact, or zeros
// when ffprobe cannot read it. Progress then only reports completion.
func (o *Orchestrator) inspect(ctx context.Context, name string) (time.Duration, bool) {
	info, err := o.Engine.Inspect(ctx, name)
	if err != nil {
		o.log.Debug("inspect %s: %v", name, err)
		return 0, false
	}
	return info.Duration, info.HasAudio
}

// finish validates and reads the final artifact.
func (o *Orchestrator) finish(tmpl templates.ID, name string) ([]byte, error) {
	ws := o.Engine.Workspace()
	size, err := ws.Size(name)
	if err != nil {
		return nil, newStageError(tmpl, StageFinalize, err)
	}
	if size < MinOutputSize {
		return nil, newStageError(tmpl, StageFinalize, fmt.Errorf("%w: %d bytes", ErrOutputTooSmall, size))
	}
	data, err := ws.ReadFile(name)
	if err != nil {
		return nil, newStageError(tmpl, StageFinalize, err)
	}
	return data, nil
}

// RunMetropoles renders the single-slot video template in one invocation.
func (o *Orchestrator) RunMetropoles(ctx context.Context, req MetropolesRequest, progress func(float64)) (*Output, error) {
	tmpl := templates.Metropoles
	if err := o.Engine.Ensure(ctx); err != nil {
		return nil, err
	}
	texture, err := o.asset(tmpl, assets.Texture)
	if err != nil {
		return nil, err
	}
	overlay, err := o.overlay(tmpl, func() (*image.RGBA, error) {
		return o.Overlays.MetropolesOverlay(req.Texts, req.Effects.Gradient)
	})
	if err != nil {
		return nil, err
	}

	scope := NewScope(o.Engine.Workspace(), o.observer())
	defer scope.Close()

	in, err := scope.Write("input", req.Video.ext(), req.Video.Data)
	if err != nil {
		return nil, newStageError(tmpl, StagePrepare, err)
	}
	ov, err := scope.Write("overlay", ".png", overlay)
	if err != nil {
		return nil, newStageError(tmpl, StagePrepare, err)
	}
	duration, audio := o.inspect(ctx, in)

	g := filtergraph.MetropolesGraph(req.Effects.PositionY, req.Effects)
	return o.singlePass(ctx, tmpl, scope, []string{in, ov, texture}, g, duration, audio, progress)
}

// RunChoquei renders the two-slot video template in one invocation. The
// result ends with the shorter clip; audio comes from the left clip.
func (o *Orchestrator) RunChoquei(ctx context.Context, req ChoqueiRequest, progress func(float64)) (*Output, error) {
	tmpl := templates.Choquei
	if err := o.Engine.Ensure(ctx); err != nil {
		return nil, err
	}
	texture, err := o.asset(tmpl, assets.Texture)
	if err != nil {
		return nil, err
	}
	overlay, err := o.overlay(tmpl, func() (*image.RGBA, error) {
		return o.Overlays.ChoqueiOverlay(req.Texts)
	})
	if err != nil {
		return nil, err
	}

	scope := NewScope(o.Engine.Workspace(), o.observer())
	defer scope.Close()

	left, err := scope.Write("left", req.Left.ext(), req.Left.Data)
	if err != nil {
		return nil, newStageError(tmpl, StagePrepare, err)
	}
	right, err := scope.Write("right", req.Right.ext(), req.Right.Data)
	if err != nil {
		return nil, newStageError(tmpl, StagePrepare, err)
	}
	ov, err := scope.Write("overlay", ".png", overlay)
	if err != nil {
		return nil, newStageError(tmpl, StagePrepare, err)
	}

	duration, audio := o.inspect(ctx, left)
	if d, _ := o.inspect(ctx, right); d > 0 && (duration == 0 || d < duration) {
		duration = d
	}

	g := filtergraph.ChoqueiGraph(req.LeftEffects, req.RightEffects)
	return o.singlePass(ctx, tmpl, scope, []string{left, right, ov, texture}, g, duration, audio, progress)
}

func (o *Orchestrator) singlePass(ctx context.Context, tmpl templates.ID, scope *Scope, inputs []string, g filtergraph.Graph, duration time.Duration, audio bool, progress func(float64)) (*Output, error) {
	rep := newReporter(progress)
	out := scope.Name("output", ".mp4")
	log := o.log.With(tmpl.String())

	start := time.Now()
	err := o.exec(ctx, tmpl, StageRender, transcoder.Job{
		Args:       filtergraph.SinglePassArgs(inputs, g, out),
		Duration:   duration,
		OnProgress: rep.span(0, 0.99),
	})
	if err != nil {
		log.Error("render failed: %v", err)
		return nil, err
	}

	data, err := o.finish(tmpl, out)
	if err != nil {
		log.Error("%v", err)
		return nil, err
	}
	rep.report(1)
	log.Info("rendered %d bytes in %s", len(data), time.Since(start).Round(time.Millisecond))
	return &Output{Data: data, Duration: duration, Audio: audio}, nil
}
