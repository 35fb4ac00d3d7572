package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"hotghost/internal/assets"
	"hotghost/internal/compositor"
	"hotghost/internal/effects"
	"hotghost/internal/filtergraph"
	"hotghost/internal/pipeline"
	"hotghost/internal/transcoder"
	"hotghost/internal/transcoder/transcodertest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAssets map[assets.ID]string

func (f fakeAssets) Path(id assets.ID) (string, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", assets.ErrMissing, id)
}

var allAssets = fakeAssets{
	assets.Texture:      "/assets/texture.mp4",
	assets.IntroStill:   "/assets/intro-still.png",
	assets.ClosingVideo: "/assets/closing-video.mp4",
}

type fakeOverlays struct{}

func (fakeOverlays) MetropolesOverlay(compositor.TextSet, int) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (fakeOverlays) ChoqueiOverlay(compositor.TextSet) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

type countingObserver struct {
	mu        sync.Mutex
	stages    []pipeline.Stage
	failed    []pipeline.Stage
	fallbacks int
	cleanups  int
}

func (c *countingObserver) ObserveStage(_ string, stage pipeline.Stage, _ float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages = append(c.stages, stage)
	if err != nil {
		c.failed = append(c.failed, stage)
	}
}

func (c *countingObserver) ObserveAudioFallback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallbacks++
}

func (c *countingObserver) ObserveCleanupFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanups++
}

func newOrchestrator(t *testing.T, r *transcodertest.Runner) (*pipeline.Orchestrator, *countingObserver) {
	t.Helper()
	e := transcoder.New(transcoder.Config{WorkDir: t.TempDir()}, r)
	o := pipeline.New(e, allAssets, fakeOverlays{})
	obs := &countingObserver{}
	o.Observer = obs
	return o, obs
}

func ffmpegCalls(r *transcodertest.Runner) []transcodertest.Call {
	var out []transcodertest.Call
	for _, c := range r.Calls() {
		if c.Path == "ffmpeg" {
			out = append(out, c)
		}
	}
	return out
}

func outputPrefixes(calls []transcodertest.Call) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		name, _, _ := strings.Cut(c.Output(), "-")
		out = append(out, name)
	}
	return out
}

func assertWorkspaceEmpty(t *testing.T, o *pipeline.Orchestrator) {
	t.Helper()
	names, err := o.Engine.Workspace().List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("workspace not cleaned: %v", names)
	}
}

func assertProgress(t *testing.T, got []float64) {
	t.Helper()
	if len(got) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Errorf("progress decreased: %v", got)
			break
		}
	}
	if got[len(got)-1] != 1 {
		t.Errorf("final progress = %v, want 1", got[len(got)-1])
	}
}

func containsApprox(values []float64, want float64) bool {
	for _, v := range values {
		if math.Abs(v-want) < 1e-9 {
			return true
		}
	}
	return false
}

var clip = pipeline.Input{Data: []byte("fake video bytes"), Ext: ".mov"}

func TestRunMetropoles(t *testing.T) {
	r := &transcodertest.Runner{}
	o, obs := newOrchestrator(t, r)

	fx := effects.Settings{Enabled: true, Blur: 3, Gradient: 70, PositionY: 25}
	var progress []float64
	out, err := o.RunMetropoles(context.Background(), pipeline.MetropolesRequest{
		Video:   clip,
		Texts:   compositor.TextSet{Subtitle: "hello *world*"},
		Effects: fx,
	}, func(f float64) { progress = append(progress, f) })
	if err != nil {
		t.Fatalf("RunMetropoles() error: %v", err)
	}
	if len(out.Data) != 4096 || !out.Audio || out.Trace != nil {
		t.Errorf("output = %d bytes, audio %v, trace %v", len(out.Data), out.Audio, out.Trace)
	}

	calls := ffmpegCalls(r)
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(calls))
	}
	c := calls[0]
	if !c.Has("-filter_complex", filtergraph.MetropolesGraph(25, fx).Filter) {
		t.Errorf("filter graph missing from %v", c.Args)
	}
	if !c.Has("-i", allAssets[assets.Texture]) {
		t.Error("texture input missing")
	}
	if !strings.HasSuffix(c.Args[slicesIndex(c.Args, "-i")+1], ".mov") {
		t.Errorf("first input should keep the upload's extension: %v", c.Args)
	}
	assertProgress(t, progress)
	assertWorkspaceEmpty(t, o)
	if diff := cmp.Diff([]pipeline.Stage{pipeline.StageRender}, obs.stages); diff != "" {
		t.Errorf("observed stages (-want +got):\n%s", diff)
	}
}

func slicesIndex(args []string, v string) int {
	for i, a := range args {
		if a == v {
			return i
		}
	}
	return -1
}

func TestRunChoquei(t *testing.T) {
	r := &transcodertest.Runner{}
	o, _ := newOrchestrator(t, r)

	left := effects.Settings{Enabled: true, Noise: 10}
	out, err := o.RunChoquei(context.Background(), pipeline.ChoqueiRequest{
		Left:        clip,
		Right:       pipeline.Input{Data: []byte("other"), Ext: ".mp4"},
		LeftEffects: left,
	}, nil)
	if err != nil {
		t.Fatalf("RunChoquei() error: %v", err)
	}
	if len(out.Data) != 4096 {
		t.Errorf("output = %d bytes", len(out.Data))
	}

	calls := ffmpegCalls(r)
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(calls))
	}
	if !calls[0].Has("-filter_complex", filtergraph.ChoqueiGraph(left, effects.Settings{}).Filter) {
		t.Errorf("filter graph missing from %v", calls[0].Args)
	}
	inputs := 0
	for _, a := range calls[0].Args {
		if a == "-i" {
			inputs++
		}
	}
	if inputs != 4 {
		t.Errorf("inputs = %d, want 4", inputs)
	}
	assertWorkspaceEmpty(t, o)
}

func TestRunClassico(t *testing.T) {
	r := &transcodertest.Runner{}
	o, obs := newOrchestrator(t, r)

	var progress []float64
	out, err := o.RunClassico(context.Background(), pipeline.ClassicoRequest{Video: clip},
		func(f float64) { progress = append(progress, f) })
	if err != nil {
		t.Fatalf("RunClassico() error: %v", err)
	}

	wantTrace := []pipeline.State{
		pipeline.StateInit,
		pipeline.StateIntroRendered,
		pipeline.StateMainRendered,
		pipeline.StateTrailerRendered,
		pipeline.StateConcatenated,
		pipeline.StateAudioAttached,
		pipeline.StateDone,
	}
	if diff := cmp.Diff(wantTrace, out.Trace); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
	if !out.Audio {
		t.Error("Audio = false, want true")
	}

	wantCalls := []string{"intro", "main", "trailer", "joined", "audio", "final"}
	if diff := cmp.Diff(wantCalls, outputPrefixes(ffmpegCalls(r))); diff != "" {
		t.Errorf("stage order (-want +got):\n%s", diff)
	}

	assertProgress(t, progress)
	for _, cp := range []float64{0.05, 0.1, 0.2, 0.4, 0.6, 0.75, 0.9, 1} {
		if !containsApprox(progress, cp) {
			t.Errorf("checkpoint %v missing from %v", cp, progress)
		}
	}
	assertWorkspaceEmpty(t, o)
	if obs.fallbacks != 0 || len(obs.failed) != 0 {
		t.Errorf("fallbacks = %d, failed = %v", obs.fallbacks, obs.failed)
	}
}

func TestRunClassicoAudioFallback(t *testing.T) {
	tests := []struct {
		name string
		fail func(transcodertest.Call) bool
	}{
		{"extract fails", func(c transcodertest.Call) bool { return c.Has("-b:a", filtergraph.AudioBitrate) }},
		{"mux fails", func(c transcodertest.Call) bool { return c.Has("-map", "1:a:0") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &transcodertest.Runner{Fail: transcodertest.FailWhen(tt.fail)}
			o, obs := newOrchestrator(t, r)

			out, err := o.RunClassico(context.Background(), pipeline.ClassicoRequest{Video: clip}, nil)
			if err != nil {
				t.Fatalf("RunClassico() error: %v", err)
			}
			if out.Audio {
				t.Error("Audio = true after fallback")
			}
			if n := len(out.Trace); n < 2 || out.Trace[n-2] != pipeline.StateAudioFallback {
				t.Errorf("trace = %v, want audio-fallback before done", out.Trace)
			}
			calls := ffmpegCalls(r)
			last := calls[len(calls)-1]
			if !last.Has("-c", "copy") || !strings.HasPrefix(last.Output(), "final-") {
				t.Errorf("last call = %v, want a stream copy", last.Args)
			}
			if obs.fallbacks != 1 {
				t.Errorf("fallbacks = %d, want 1", obs.fallbacks)
			}
			assertWorkspaceEmpty(t, o)
		})
	}
}

func TestRunClassicoStageFailure(t *testing.T) {
	tests := []struct {
		prefix string
		stage  pipeline.Stage
	}{
		{"intro", pipeline.StageIntro},
		{"main", pipeline.StageMain},
		{"trailer", pipeline.StageTrailer},
		{"joined", pipeline.StageConcat},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			r := &transcodertest.Runner{Fail: transcodertest.FailWhen(func(c transcodertest.Call) bool {
				return strings.HasPrefix(c.Output(), tt.prefix+"-")
			})}
			o, _ := newOrchestrator(t, r)

			_, err := o.RunClassico(context.Background(), pipeline.ClassicoRequest{Video: clip}, nil)
			if !errors.Is(err, pipeline.ErrStageExecution) {
				t.Fatalf("error = %v, want ErrStageExecution", err)
			}
			var se *pipeline.StageError
			if !errors.As(err, &se) || se.Stage != tt.stage {
				t.Fatalf("error = %#v, want stage %s", err, tt.stage)
			}
			if !strings.Contains(se.Tail, "scripted failure") {
				t.Errorf("tail = %q", se.Tail)
			}
			assertWorkspaceEmpty(t, o)
		})
	}
}

func TestUndersizedOutput(t *testing.T) {
	runs := map[string]func(*pipeline.Orchestrator) error{
		"metropoles": func(o *pipeline.Orchestrator) error {
			_, err := o.RunMetropoles(context.Background(), pipeline.MetropolesRequest{Video: clip}, nil)
			return err
		},
		"classico": func(o *pipeline.Orchestrator) error {
			_, err := o.RunClassico(context.Background(), pipeline.ClassicoRequest{Video: clip}, nil)
			return err
		},
	}
	for name, run := range runs {
		t.Run(name, func(t *testing.T) {
			o, _ := newOrchestrator(t, &transcodertest.Runner{OutputSize: pipeline.MinOutputSize - 1})
			err := run(o)
			if !errors.Is(err, pipeline.ErrOutputTooSmall) || !errors.Is(err, pipeline.ErrStageExecution) {
				t.Fatalf("error = %v, want ErrOutputTooSmall", err)
			}
			var se *pipeline.StageError
			if errors.As(err, &se) && se.Stage != pipeline.StageFinalize {
				t.Errorf("stage = %s, want finalize", se.Stage)
			}
			assertWorkspaceEmpty(t, o)
		})
	}
}

func TestEngineInitFailure(t *testing.T) {
	r := &transcodertest.Runner{LookPathErr: errors.New("not installed")}
	o, _ := newOrchestrator(t, r)

	_, err := o.RunClassico(context.Background(), pipeline.ClassicoRequest{Video: clip}, nil)
	if !errors.Is(err, transcoder.ErrEngineInit) {
		t.Fatalf("error = %v, want ErrEngineInit", err)
	}
	if len(r.Calls()) != 0 {
		t.Errorf("calls = %v, want none", r.Calls())
	}
}

func TestMissingAsset(t *testing.T) {
	r := &transcodertest.Runner{}
	e := transcoder.New(transcoder.Config{WorkDir: t.TempDir()}, r)
	o := pipeline.New(e, fakeAssets{}, fakeOverlays{})

	_, err := o.RunMetropoles(context.Background(), pipeline.MetropolesRequest{Video: clip}, nil)
	var se *pipeline.StageError
	if !errors.As(err, &se) || se.Stage != pipeline.StagePrepare || !errors.Is(err, assets.ErrMissing) {
		t.Fatalf("error = %v, want prepare stage ErrMissing", err)
	}
	if len(ffmpegCalls(r)) != 0 {
		t.Error("ffmpeg ran without its assets")
	}
}

func TestScope(t *testing.T) {
	ws, err := transcoder.OpenWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	obs := &countingObserver{}
	s := pipeline.NewScope(ws, obs)

	a, err := s.Write("a", ".bin", []byte("x"))
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	b := s.Name("b", ".bin")
	s.Track("../escape")

	if got := s.Names(); len(got) != 3 || got[0] != a || got[1] != b {
		t.Errorf("Names() = %v", got)
	}

	errs := s.Close()
	if len(errs) != 1 {
		t.Fatalf("Close() errors = %v, want one", errs)
	}
	var ce *pipeline.CleanupError
	if !errors.As(errs[0], &ce) || ce.Name != "../escape" || !errors.Is(ce, transcoder.ErrBadName) {
		t.Errorf("cleanup error = %v", errs[0])
	}
	if obs.cleanups != 1 {
		t.Errorf("cleanup failures observed = %d", obs.cleanups)
	}
	if names, _ := ws.List(); len(names) != 0 {
		t.Errorf("workspace = %v, want empty", names)
	}
	if errs := s.Close(); errs != nil {
		t.Errorf("second Close() = %v", errs)
	}
}
