package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hotghost/internal/effects"
	"hotghost/internal/generator"
	"hotghost/internal/templates"
	"hotghost/internal/transcoder"
	"hotghost/internal/transcoder/transcodertest"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func pngFile(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	writeFile(t, path, buf.Bytes())
}

// mp4 is an ftyp box, enough for content sniffing.
var mp4 = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm',
	0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'm', 'p', '4', '1',
}

func assetsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"texture.mp4", "intro-still.png", "closing-video.mp4"} {
		writeFile(t, filepath.Join(dir, name), []byte("asset"))
	}
	return dir
}

func mapEnv(m map[string]string) env {
	return func(k string) string { return m[k] }
}

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"image", "image"},
		{"my-cmd_2", "my-cmd_2"},
		{"rm -rf /", "rm_-rf__"},
		{"\x1b[31mred", "__31mred"},
	}
	for _, tt := range tests {
		if got := sanitizeCommand(tt.in); got != tt.want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadJob(t *testing.T) {
	dir := t.TempDir()
	pngFile(t, filepath.Join(dir, "photos", "a.png"))
	pngFile(t, filepath.Join(dir, "photos", "b.png"))
	job := filepath.Join(dir, "job.yaml")
	writeFile(t, job, []byte(`template: choquei
inputs:
  left: photos/a.png
  right: photos/b.png
texts:
  title: "*URGENTE*"
  footer: rodapé
effects:
  right:
    enabled: true
    brightness: 15
`))

	j, err := loadJob(job)
	if err != nil {
		t.Fatalf("loadJob() error: %v", err)
	}
	req, err := j.request(templates.Image)
	if err != nil {
		t.Fatalf("request() error: %v", err)
	}
	if req.Template != templates.Choquei || req.Family != templates.Image {
		t.Errorf("request = %v %v", req.Family, req.Template)
	}
	if diff := cmp.Diff(generator.TextSet{Title: "*URGENTE*", Footer: "rodapé"}, req.Texts); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
	if got := req.Slots["left"]; got.Name != "a.png" || len(got.Data) == 0 {
		t.Errorf("left slot = %q (%d bytes)", got.Name, len(got.Data))
	}

	want := effects.Defaults()
	want.Enabled = true
	want.Brightness = 15
	if diff := cmp.Diff(want, req.Effects["right"]); diff != "" {
		t.Errorf("effects mismatch (-want +got):\n%s", diff)
	}
	if _, ok := req.Effects["left"]; ok {
		t.Error("left effects should be left to defaults")
	}
	if !generator.CanGenerate(req) {
		t.Error("CanGenerate() = false")
	}
}

func TestLoadJobErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing template", "inputs:\n  left: a.png\n"},
		{"unknown key", "template: metropoles\ncolour: red\n"},
		{"not yaml", "template: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "job.yaml")
			writeFile(t, path, []byte(tt.yaml))
			if _, err := loadJob(path); err == nil {
				t.Error("loadJob() succeeded")
			}
		})
	}

	path := filepath.Join(t.TempDir(), "job.yaml")
	writeFile(t, path, []byte("template: metropoles\ninputs:\n  left: missing.png\n"))
	j, err := loadJob(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.request(templates.Image); err == nil || !strings.Contains(err.Error(), "input left") {
		t.Errorf("request() error = %v", err)
	}
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), nil, mapEnv(nil), &stdout, &stderr); code != 2 {
		t.Errorf("no args: code = %d", code)
	}
	stderr.Reset()
	if code := run(context.Background(), []string{"bogus;ls"}, mapEnv(nil), &stdout, &stderr); code != 2 {
		t.Errorf("unknown: code = %d", code)
	}
	if !strings.Contains(stderr.String(), "Unknown command: bogus_ls") {
		t.Errorf("stderr = %q", stderr.String())
	}
	stdout.Reset()
	if code := run(context.Background(), []string{"help"}, mapEnv(nil), &stdout, &stderr); code != 0 || !strings.Contains(stdout.String(), "Usage:") {
		t.Errorf("help: code = %d, stdout = %q", code, stdout.String())
	}
}

func TestRunText(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"text", "Oferta", "imperdivel"}, mapEnv(nil), &stdout, &stderr); code != 0 {
		t.Fatalf("code = %d, stderr = %q", code, stderr.String())
	}
	got := []rune(strings.TrimSuffix(stdout.String(), "\n"))
	if len(got) != len([]rune("Oferta imperdivel")) {
		t.Errorf("output %q changed length", string(got))
	}

	stderr.Reset()
	if code := run(context.Background(), []string{"text"}, mapEnv(nil), &stdout, &stderr); code != 1 {
		t.Errorf("empty text: code = %d", code)
	}
}

func TestRunTemplates(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"templates", "-family", "video"}, mapEnv(nil), &stdout, &stderr); code != 0 {
		t.Fatalf("code = %d, stderr = %q", code, stderr.String())
	}
	for _, want := range []string{"metropoles", "choquei", "classico", "noise"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("output missing %q:\n%s", want, stdout.String())
		}
	}
	if code := run(context.Background(), []string{"templates", "-family", "audio"}, mapEnv(nil), &stdout, &stderr); code != 1 {
		t.Errorf("bad family: code = %d", code)
	}
}

func TestRunImage(t *testing.T) {
	dir := t.TempDir()
	pngFile(t, filepath.Join(dir, "a.png"))
	job := filepath.Join(dir, "job.yaml")
	writeFile(t, job, []byte("template: metropoles\ninputs:\n  left: a.png\ntexts:\n  title: Manchete\n"))
	out := filepath.Join(dir, "out.png")

	e := mapEnv(map[string]string{"ASSETS_DIR": assetsDir(t), "WORK_DIR": t.TempDir()})
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"image", "-job", job, "-o", out}, e, &stdout, &stderr); code != 0 {
		t.Fatalf("code = %d, stderr = %q", code, stderr.String())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if cfg.Width != 1080 || cfg.Height != 1920 {
		t.Errorf("output = %dx%d, want 1080x1920", cfg.Width, cfg.Height)
	}
	if !strings.HasPrefix(stdout.String(), out) {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunImageIncomplete(t *testing.T) {
	dir := t.TempDir()
	pngFile(t, filepath.Join(dir, "a.png"))
	job := filepath.Join(dir, "job.yaml")
	writeFile(t, job, []byte("template: choquei\ninputs:\n  left: a.png\n"))

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"image", "-job", job}, mapEnv(nil), &stdout, &stderr); code != 1 {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(stderr.String(), "every input slot") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunVideoRecordsHistory(t *testing.T) {
	r := &transcodertest.Runner{}
	orig := newRunner
	newRunner = func() transcoder.CommandRunner { return r }
	t.Cleanup(func() { newRunner = orig })

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "clip.mp4"), mp4)
	job := filepath.Join(dir, "job.yaml")
	writeFile(t, job, []byte("template: classico\ninputs:\n  left: clip.mp4\n"))
	out := filepath.Join(dir, "out.mp4")

	e := mapEnv(map[string]string{
		"ASSETS_DIR":   assetsDir(t),
		"WORK_DIR":     t.TempDir(),
		"DATABASE_DIR": t.TempDir(),
	})
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"video", "-job", job, "-o", out}, e, &stdout, &stderr); code != 0 {
		t.Fatalf("code = %d, stderr = %q", code, stderr.String())
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Fatalf("output missing: %v", err)
	}
	if len(r.Calls()) == 0 {
		t.Error("ffmpeg never ran")
	}

	stdout.Reset()
	if code := run(context.Background(), []string{"history"}, e, &stdout, &stderr); code != 0 {
		t.Fatalf("history: code = %d, stderr = %q", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "runs: 1  ok: 1") || !strings.Contains(stdout.String(), "classico") {
		t.Errorf("history = %q", stdout.String())
	}
}

func TestRunHistoryNeedsDatabase(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"history"}, mapEnv(nil), &stdout, &stderr); code != 1 {
		t.Errorf("code = %d", code)
	}
}

func TestProgressBar(t *testing.T) {
	var nilBar *progressBar
	nilBar.Update(0.5)
	nilBar.Done()

	var buf bytes.Buffer
	p := &progressBar{w: &buf, width: 10, label: "classico", last: -1}
	p.Update(0.5)
	p.Update(0.501)
	p.Update(1)
	p.Done()

	want := "\rclassico [#####.....]  50%\rclassico [##########] 100%\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("progress output mismatch (-want +got):\n%s", diff)
	}
}
