package generator

import (
	"context"
	"encoding/hex"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/semaphore"

	"hotghost/internal/assets"
	"hotghost/internal/compositor"
	"hotghost/internal/database"
	"hotghost/internal/homoglyph"
	"hotghost/internal/logging"
	"hotghost/internal/metrics"
	"hotghost/internal/pipeline"
	"hotghost/internal/templates"
	"hotghost/internal/textlayout"
	"hotghost/internal/transcoder"
)

// History stores generation records. *database.Database implements it.
type History interface {
	InsertGeneration(ctx context.Context, g *database.Generation) error
}

// Config wires a Generator.
type Config struct {
	Assets *assets.Store
	Text   *textlayout.Engine
	Engine *transcoder.Engine
	// History is optional.
	History History
	// Timeout bounds one generation; zero waits indefinitely.
	Timeout time.Duration
	// HandleTTL drops unreleased video results; zero keeps them.
	HandleTTL time.Duration
	// TextSource seeds homoglyph substitution; nil uses the clock.
	TextSource rand.Source
	// Observer receives pipeline telemetry; nil records nothing.
	Observer pipeline.Observer
}

// Result is a finished generation.
type Result struct {
	Family      templates.Family `json:"family"`
	Template    templates.ID     `json:"template"`
	ContentType string           `json:"contentType"`
	Extension   string           `json:"extension"`
	Data        []byte           `json:"-"`
	// SourceDigest and OutputDigest are hex BLAKE2b-256 sums of the slot
	// payloads, in slot order, and of Data.
	SourceDigest string        `json:"sourceDigest"`
	OutputDigest string        `json:"outputDigest"`
	Elapsed      time.Duration `json:"-"`
	// Duration, Audio and Trace are set for video results.
	Duration time.Duration    `json:"-"`
	Audio    bool             `json:"audio,omitempty"`
	Trace    []pipeline.State `json:"-"`
	// Handle identifies a video result in the Handles registry.
	Handle string `json:"id,omitempty"`
}

// Generator runs one generation at a time.
type Generator struct {
	compositor  *compositor.Compositor
	pipeline    *pipeline.Orchestrator
	engine      *transcoder.Engine
	substitutor *homoglyph.Substitutor
	history     History
	timeout     time.Duration

	sem     *semaphore.Weighted
	running atomic.Bool
	handles *Handles
	log     logging.Logger
}

// New builds a Generator from cfg. Assets, Text and Engine are required.
func New(cfg Config) *Generator {
	comp := compositor.New(cfg.Assets, cfg.Text)
	orch := pipeline.New(cfg.Engine, cfg.Assets, comp)
	orch.Observer = cfg.Observer
	return &Generator{
		compositor:  comp,
		pipeline:    orch,
		engine:      cfg.Engine,
		substitutor: homoglyph.New(cfg.TextSource),
		history:     cfg.History,
		timeout:     cfg.Timeout,
		sem:         semaphore.NewWeighted(1),
		handles:     NewHandles(cfg.HandleTTL),
		log:         logging.With("generator"),
	}
}

// Compositor returns the still-image compositor.
func (g *Generator) Compositor() *compositor.Compositor { return g.compositor }

// Handles returns the video result registry.
func (g *Generator) Handles() *Handles { return g.handles }

// Engine returns the transcoding engine.
func (g *Generator) Engine() *transcoder.Engine { return g.engine }

// Busy reports whether a generation is running.
func (g *Generator) Busy() bool { return g.running.Load() }

// TransformText applies homoglyph substitution.
func (g *Generator) TransformText(text string) string {
	metrics.TextTransformsTotal.Inc()
	return g.substitutor.Transform(text)
}

// Generate validates req, waits for any running generation to finish and
// runs it. progress, when non-nil, receives non-decreasing fractions.
func (g *Generator) Generate(ctx context.Context, req Request, progress func(float64)) (*Result, error) {
	v, err := g.admit(req)
	if err != nil {
		return nil, err
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)
	return g.run(ctx, v, progress)
}

// TryGenerate is Generate without waiting: it fails with ErrBusy while
// another generation runs.
func (g *Generator) TryGenerate(ctx context.Context, req Request, progress func(float64)) (*Result, error) {
	v, err := g.admit(req)
	if err != nil {
		return nil, err
	}
	if !g.sem.TryAcquire(1) {
		metrics.GenerationRejections.WithLabelValues("busy").Inc()
		return nil, ErrBusy
	}
	defer g.sem.Release(1)
	return g.run(ctx, v, progress)
}

func (g *Generator) admit(req Request) (*validated, error) {
	v, err := validate(req)
	if err != nil {
		metrics.GenerationRejections.WithLabelValues("validation").Inc()
		g.log.Info("rejected %s/%s: %v", req.Family, req.Template, err)
		return nil, err
	}
	return v, nil
}

func (g *Generator) run(ctx context.Context, v *validated, progress func(float64)) (*Result, error) {
	g.running.Store(true)
	defer g.running.Store(false)
	metrics.GenerationsInFlight.Inc()
	defer metrics.GenerationsInFlight.Dec()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	var res *Result
	var err error
	if v.Family == templates.Video {
		res, err = g.generateVideo(ctx, v, progress)
	} else {
		res, err = g.generateImage(ctx, v)
	}
	elapsed := time.Since(start)

	if err == nil {
		res.Family = v.Family
		res.Template = v.Template
		res.Elapsed = elapsed
		res.SourceDigest = v.sourceDigest()
		res.OutputDigest = digest(res.Data)
		if v.Family == templates.Video {
			g.handles.Replace(v.Replace, res)
		}
		if progress != nil {
			progress(1)
		}
	}
	g.record(ctx, v, res, err, elapsed)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func status(err error) string {
	switch {
	case err == nil:
		return database.StatusSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return database.StatusTimeout
	default:
		return database.StatusError
	}
}

// record updates metrics and the history. History failures are logged only.
func (g *Generator) record(ctx context.Context, v *validated, res *Result, err error, elapsed time.Duration) {
	family, tmpl := v.Family.String(), v.Template.String()
	st := status(err)
	metrics.GenerationsTotal.WithLabelValues(family, tmpl, st).Inc()

	rec := &database.Generation{
		Family:     family,
		Template:   tmpl,
		Status:     st,
		DurationMS: elapsed.Milliseconds(),
		InputBytes: v.inputBytes(),
	}
	if err == nil {
		metrics.GenerationDuration.WithLabelValues(family, tmpl).Observe(elapsed.Seconds())
		metrics.OutputBytes.WithLabelValues(family).Observe(float64(len(res.Data)))
		rec.OutputBytes = int64(len(res.Data))
		rec.SourceDigest = res.SourceDigest
		rec.OutputDigest = res.OutputDigest
		rec.AudioKept = res.Audio
		g.log.Info("%s/%s done in %s (%d bytes)", family, tmpl, elapsed.Round(time.Millisecond), len(res.Data))
	} else {
		rec.Error = err.Error()
		var se *StageError
		if errors.As(err, &se) {
			rec.Stage = string(se.Stage)
		}
		if errors.Is(err, ErrMediaDecode) {
			metrics.GenerationRejections.WithLabelValues("decode").Inc()
		}
		g.log.Error("%s/%s failed after %s: %v", family, tmpl, elapsed.Round(time.Millisecond), err)
	}

	if g.history == nil {
		return
	}
	hctx := context.WithoutCancel(ctx)
	if herr := g.history.InsertGeneration(hctx, rec); herr != nil {
		g.log.Warn("could not record generation: %v", herr)
	}
}

func digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (v *validated) sourceDigest() string {
	h, _ := blake2b.New256(nil)
	for _, name := range v.slots {
		h.Write(v.Slots[name].Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GetStats implements metrics.StatsProvider.
func (g *Generator) GetStats() metrics.Stats {
	st := metrics.Stats{
		EngineState: int(g.engine.State()),
		OpenHandles: g.handles.Len(),
	}
	if ws := g.engine.Workspace(); ws != nil {
		names, err := ws.List()
		if err == nil {
			st.WorkspaceFiles = len(names)
			for _, n := range names {
				if size, err := ws.Size(n); err == nil {
					st.WorkspaceBytes += size
				}
			}
		}
	}
	return st
}

// Close stops ffmpeg processes and clears the workspace.
func (g *Generator) Close() {
	g.engine.Close()
}
