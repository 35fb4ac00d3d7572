package generator_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"hotghost/internal/assets"
	"hotghost/internal/database"
	"hotghost/internal/effects"
	"hotghost/internal/generator"
	"hotghost/internal/pipeline"
	"hotghost/internal/templates"
	"hotghost/internal/textlayout"
	"hotghost/internal/transcoder"
	"hotghost/internal/transcoder/transcodertest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memHistory struct {
	mu   sync.Mutex
	recs []database.Generation
}

func (h *memHistory) InsertGeneration(_ context.Context, g *database.Generation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, *g)
	return nil
}

func (h *memHistory) last(t *testing.T) database.Generation {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.recs) == 0 {
		t.Fatal("no generation recorded")
	}
	return h.recs[len(h.recs)-1]
}

var text = textlayout.NewDefault()

func newGenerator(t *testing.T, r *transcodertest.Runner) (*generator.Generator, *memHistory) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"texture.mp4", "intro-still.png", "closing-video.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("asset"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	h := &memHistory{}
	g := generator.New(generator.Config{
		Assets:  assets.New(dir, text),
		Text:    text,
		Engine:  transcoder.New(transcoder.Config{WorkDir: t.TempDir()}, r),
		History: h,
	})
	return g, h
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// mp4Bytes is an ftyp box, enough for content sniffing.
var mp4Bytes = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'm', 'p', '4', '1',
}

func imageSlot(t *testing.T) generator.MediaSlot {
	return generator.MediaSlot{Name: "photo.png", ContentType: "image/png", Data: pngBytes(t, 64, 64, color.RGBA{B: 200, A: 255})}
}

func videoSlot() generator.MediaSlot {
	return generator.MediaSlot{Name: "clip.mp4", ContentType: "video/mp4", Data: mp4Bytes}
}

func TestCanGenerate(t *testing.T) {
	slot := generator.MediaSlot{Data: []byte{1}}
	tests := []struct {
		name string
		req  generator.Request
		want bool
	}{
		{"single slot filled", generator.Request{Family: templates.Image, Template: templates.Metropoles,
			Slots: map[string]generator.MediaSlot{generator.SlotLeft: slot}}, true},
		{"two slots filled", generator.Request{Family: templates.Video, Template: templates.Choquei,
			Slots: map[string]generator.MediaSlot{generator.SlotLeft: slot, generator.SlotRight: slot}}, true},
		{"right slot missing", generator.Request{Family: templates.Image, Template: templates.Choquei,
			Slots: map[string]generator.MediaSlot{generator.SlotLeft: slot}}, false},
		{"empty payload", generator.Request{Family: templates.Image, Template: templates.Metropoles,
			Slots: map[string]generator.MediaSlot{generator.SlotLeft: {}}}, false},
		{"classico has no still template", generator.Request{Family: templates.Image, Template: templates.Classico,
			Slots: map[string]generator.MediaSlot{generator.SlotLeft: slot}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generator.CanGenerate(tt.req); got != tt.want {
				t.Errorf("CanGenerate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissingSlotNeverReachesEngine(t *testing.T) {
	r := &transcodertest.Runner{}
	g, h := newGenerator(t, r)

	req := generator.Request{
		Family:   templates.Video,
		Template: templates.Choquei,
		Slots:    map[string]generator.MediaSlot{generator.SlotLeft: videoSlot()},
	}
	if generator.CanGenerate(req) {
		t.Fatal("CanGenerate() = true with a missing slot")
	}
	_, err := g.Generate(context.Background(), req, nil)
	if !errors.Is(err, generator.ErrInputValidation) {
		t.Fatalf("Generate() error = %v, want ErrInputValidation", err)
	}
	var ie *generator.InputError
	if !errors.As(err, &ie) || ie.Field != generator.SlotRight {
		t.Errorf("error = %v, want right slot", err)
	}
	if r.VersionCalls() != 0 || len(r.Calls()) != 0 {
		t.Error("engine was touched")
	}
	if g.Engine().State() != transcoder.Uninitialized {
		t.Errorf("engine state = %v", g.Engine().State())
	}
	if len(h.recs) != 0 {
		t.Error("rejected request was recorded")
	}
}

func TestValidate(t *testing.T) {
	img := imageSlot(t)
	tests := []struct {
		name  string
		req   generator.Request
		field string
	}{
		{"unknown template", generator.Request{Family: templates.Image, Template: templates.Classico,
			Slots: map[string]generator.MediaSlot{"left": img}}, "template"},
		{"not media", generator.Request{Family: templates.Image, Template: templates.Metropoles,
			Slots: map[string]generator.MediaSlot{"left": {Name: "a.txt", Data: []byte("just text")}}}, "left"},
		{"image for video template", generator.Request{Family: templates.Video, Template: templates.Metropoles,
			Slots: map[string]generator.MediaSlot{"left": img}}, "left"},
		{"extra slot", generator.Request{Family: templates.Image, Template: templates.Metropoles,
			Slots: map[string]generator.MediaSlot{"left": img, "right": img}}, "right"},
		{"effects out of range", generator.Request{Family: templates.Video, Template: templates.Classico,
			Slots:   map[string]generator.MediaSlot{"left": videoSlot()},
			Effects: map[string]effects.Settings{"left": {Enabled: true, Noise: 80}}}, "effects.left"},
		{"effects for missing slot", generator.Request{Family: templates.Image, Template: templates.Metropoles,
			Slots:   map[string]generator.MediaSlot{"left": img},
			Effects: map[string]effects.Settings{"right": effects.Defaults()}}, "effects.right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := generator.Validate(tt.req)
			var ie *generator.InputError
			if !errors.As(err, &ie) || !errors.Is(err, generator.ErrInputValidation) {
				t.Fatalf("Validate() = %v, want InputError", err)
			}
			if ie.Field != tt.field {
				t.Errorf("field = %q, want %q", ie.Field, tt.field)
			}
		})
	}

	ok := generator.Request{Family: templates.Image, Template: templates.Metropoles,
		Slots: map[string]generator.MediaSlot{"left": img}}
	if err := generator.Validate(ok); err != nil {
		t.Errorf("Validate(valid) = %v", err)
	}
}

func TestGenerateMetropolesImage(t *testing.T) {
	g, h := newGenerator(t, &transcodertest.Runner{})

	var progress []float64
	res, err := g.Generate(context.Background(), generator.Request{
		Family:   templates.Image,
		Template: templates.Metropoles,
		Slots:    map[string]generator.MediaSlot{generator.SlotLeft: imageSlot(t)},
		Texts:    generator.TextSet{Subtitle: "a *b* c"},
	}, func(f float64) { progress = append(progress, f) })
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if res.ContentType != "image/png" || res.Handle != "" {
		t.Errorf("result = %+v", res)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(res.Data))
	if err != nil || cfg.Width != 1080 || cfg.Height != 1920 {
		t.Fatalf("output = %+v, %v", cfg, err)
	}
	if len(res.SourceDigest) != 64 || len(res.OutputDigest) != 64 || res.SourceDigest == res.OutputDigest {
		t.Errorf("digests = %q, %q", res.SourceDigest, res.OutputDigest)
	}
	if len(progress) != 1 || progress[0] != 1 {
		t.Errorf("progress = %v", progress)
	}
	rec := h.last(t)
	if rec.Status != database.StatusSuccess || rec.Template != "metropoles" || rec.OutputBytes != int64(len(res.Data)) {
		t.Errorf("history = %+v", rec)
	}
}

func TestGenerateChoqueiImage(t *testing.T) {
	g, _ := newGenerator(t, &transcodertest.Runner{})

	res, err := g.Generate(context.Background(), generator.Request{
		Family:   templates.Image,
		Template: templates.Choquei,
		Slots: map[string]generator.MediaSlot{
			generator.SlotLeft:  imageSlot(t),
			generator.SlotRight: imageSlot(t),
		},
		Effects: map[string]effects.Settings{generator.SlotRight: {Enabled: true, Brightness: 40}},
	}, nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if res.ContentType != "image/jpeg" {
		t.Errorf("content type = %q", res.ContentType)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(res.Data))
	if err != nil || cfg.Width != 1080 || cfg.Height != 1920 {
		t.Fatalf("output = %+v, %v", cfg, err)
	}
}

func TestSourceDigestIsStable(t *testing.T) {
	g, _ := newGenerator(t, &transcodertest.Runner{})
	req := generator.Request{
		Family:   templates.Image,
		Template: templates.Metropoles,
		Slots:    map[string]generator.MediaSlot{generator.SlotLeft: imageSlot(t)},
	}
	a, err := g.Generate(context.Background(), req, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.Generate(context.Background(), req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.SourceDigest != b.SourceDigest {
		t.Error("same input produced different source digests")
	}
}

func TestDecodeFailure(t *testing.T) {
	g, h := newGenerator(t, &transcodertest.Runner{})

	corrupt := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	_, err := g.Generate(context.Background(), generator.Request{
		Family:   templates.Image,
		Template: templates.Metropoles,
		Slots:    map[string]generator.MediaSlot{generator.SlotLeft: {Name: "x.png", Data: corrupt}},
	}, nil)
	if !errors.Is(err, generator.ErrMediaDecode) {
		t.Fatalf("error = %v, want ErrMediaDecode", err)
	}
	var de *generator.DecodeError
	if !errors.As(err, &de) || de.Slot != generator.SlotLeft {
		t.Errorf("error = %v", err)
	}
	if rec := h.last(t); rec.Status != database.StatusError {
		t.Errorf("history = %+v", rec)
	}
}

func TestGenerateClassicoVideo(t *testing.T) {
	r := &transcodertest.Runner{}
	g, h := newGenerator(t, r)

	req := generator.Request{
		Family:   templates.Video,
		Template: templates.Classico,
		Slots:    map[string]generator.MediaSlot{generator.SlotLeft: videoSlot()},
		Texts:    generator.TextSet{Title: "ignored"},
	}
	first, err := g.Generate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if first.ContentType != "video/mp4" || first.Handle == "" || !first.Audio {
		t.Errorf("result = %+v", first)
	}
	if n := len(first.Trace); n == 0 || first.Trace[n-1] != pipeline.StateDone {
		t.Errorf("trace = %v", first.Trace)
	}
	if got, ok := g.Handles().Get(first.Handle); !ok || got != first {
		t.Error("result not registered")
	}

	req.Replace = first.Handle
	second, err := g.Generate(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("second Generate() error: %v", err)
	}
	if _, ok := g.Handles().Get(first.Handle); ok {
		t.Error("superseded handle still held")
	}
	if g.Handles().Len() != 1 || second.Handle == first.Handle {
		t.Errorf("handles = %d", g.Handles().Len())
	}
	if rec := h.last(t); !rec.AudioKept || rec.Family != "video" {
		t.Errorf("history = %+v", rec)
	}
	if st := g.GetStats(); st.WorkspaceFiles != 0 || st.OpenHandles != 1 || st.EngineState != int(transcoder.Ready) {
		t.Errorf("stats = %+v", st)
	}
}

func TestVideoStageFailureIsRecorded(t *testing.T) {
	r := &transcodertest.Runner{Fail: transcodertest.FailWhen(func(transcodertest.Call) bool { return true })}
	g, h := newGenerator(t, r)

	_, err := g.Generate(context.Background(), generator.Request{
		Family:   templates.Video,
		Template: templates.Metropoles,
		Slots:    map[string]generator.MediaSlot{generator.SlotLeft: videoSlot()},
	}, nil)
	if !errors.Is(err, generator.ErrStageExecution) {
		t.Fatalf("error = %v, want ErrStageExecution", err)
	}
	rec := h.last(t)
	if rec.Status != database.StatusError || rec.Stage != string(pipeline.StageRender) {
		t.Errorf("history = %+v", rec)
	}
	if g.Handles().Len() != 0 {
		t.Error("failed run registered a handle")
	}
}

func TestSingleFlight(t *testing.T) {
	r := &transcodertest.Runner{Block: make(chan struct{})}
	g, _ := newGenerator(t, r)

	req := generator.Request{
		Family:   templates.Video,
		Template: templates.Metropoles,
		Slots:    map[string]generator.MediaSlot{generator.SlotLeft: videoSlot()},
	}

	done := make(chan error, 1)
	go func() {
		_, err := g.Generate(context.Background(), req, nil)
		done <- err
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !g.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("first generation never started")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := g.TryGenerate(context.Background(), req, nil); !errors.Is(err, generator.ErrBusy) {
		t.Errorf("TryGenerate() error = %v, want ErrBusy", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Generate(ctx, req, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("waiting Generate() error = %v, want deadline exceeded", err)
	}

	close(r.Block)
	if err := <-done; err != nil {
		t.Fatalf("first generation error: %v", err)
	}
	if r.VersionCalls() != 1 {
		t.Errorf("engine initialized %d times", r.VersionCalls())
	}
}

func TestTransformText(t *testing.T) {
	g, _ := newGenerator(t, &transcodertest.Runner{})
	in := "hello world 123"
	out := g.TransformText(in)
	if len([]rune(out)) != len([]rune(in)) {
		t.Errorf("rune count changed: %q -> %q", in, out)
	}
	if out == in {
		t.Errorf("nothing substituted in %q", in)
	}
}
