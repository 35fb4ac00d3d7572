package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/renameio/v2"

	"hotghost/internal/assets"
	"hotghost/internal/database"
	"hotghost/internal/effects"
	"hotghost/internal/generator"
	"hotghost/internal/homoglyph"
	"hotghost/internal/media"
	"hotghost/internal/templates"
	"hotghost/internal/transcoder"
)

// defaultTimeout bounds history queries.
const defaultTimeout = 30 * time.Second

// newRunner starts ffmpeg processes. Tests swap it for a fake.
var newRunner = func() transcoder.CommandRunner { return transcoder.NewExecRunner() }

func main() {
	// libvips widens the accepted still formats; decoding falls back to Go
	// when it is unavailable.
	vips := len(os.Args) > 1 && os.Args[1] == "image"
	if vips {
		if err := media.InitVips(); err != nil {
			vips = false
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	if vips {
		media.ShutdownVips()
	}
	os.Exit(code)
}

// env is the CLI environment lookup.
type env func(string) string

func (e env) get(key, def string) string {
	if v := e(key); v != "" {
		return v
	}
	return def
}

func run(ctx context.Context, args []string, getenv env, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "text":
		err = runText(args[1:], stdout)
	case "image":
		err = runGenerate(ctx, templates.Image, args[1:], getenv, stdout, stderr)
	case "video":
		err = runGenerate(ctx, templates.Video, args[1:], getenv, stdout, stderr)
	case "templates":
		err = runTemplates(args[1:], stdout)
	case "history":
		err = runHistory(ctx, args[1:], getenv, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", sanitizeCommand(args[0]))
		printUsage(stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// sanitizeCommand returns a safe representation of a command string for
// display, replacing everything outside [a-zA-Z0-9_-] with '_'.
func sanitizeCommand(cmd string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, cmd)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "hotghost - disguise text, images and videos")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: hotghost <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  text <text>                 substitute confusable characters")
	fmt.Fprintln(w, "  image -job FILE -o OUT      composite a still template")
	fmt.Fprintln(w, "  video -job FILE -o OUT      render a video template")
	fmt.Fprintln(w, "  templates [-family F]       list templates and effect ranges")
	fmt.Fprintln(w, "  history [-limit N]          show recorded runs (needs DATABASE_DIR)")
}

func runText(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("text: nothing to transform")
	}
	fmt.Fprintln(stdout, homoglyph.Transform(strings.Join(args, " ")))
	return nil
}

func runTemplates(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("templates", flag.ContinueOnError)
	family := fs.String("family", "image", "template family: image or video")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := templates.ParseFamily(*family)
	if err != nil {
		return err
	}
	for _, d := range templates.Catalog(f) {
		text := ""
		if d.HasText {
			text = ", text"
		}
		fmt.Fprintf(stdout, "%-12s %s (%d slot(s)%s)\n", d.ID, d.Label, d.SlotCount, text)
	}
	fmt.Fprintln(stdout)
	for _, p := range effects.Limits(f) {
		fmt.Fprintf(stdout, "%-12s %4d..%-4d default %d\n", p.ID, p.Min, p.Max, p.Default)
	}
	return nil
}

func runGenerate(ctx context.Context, family templates.Family, args []string, getenv env, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(family.String(), flag.ContinueOnError)
	fs.SetOutput(stderr)
	jobPath := fs.String("job", "", "YAML job file")
	out := fs.String("o", "", "output file (default: hotghost-<template><ext>)")
	timeout := fs.Duration("timeout", 0, "abort after this long (0: no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jobPath == "" {
		return errors.New("-job is required")
	}

	job, err := loadJob(*jobPath)
	if err != nil {
		return err
	}
	req, err := job.request(family)
	if err != nil {
		return err
	}
	if !generator.CanGenerate(req) {
		return fmt.Errorf("%s %s needs every input slot filled", family, req.Template)
	}

	assetsDir := getenv.get("ASSETS_DIR", "assets")
	text := assets.TextEngine(assetsDir)
	cfg := generator.Config{
		Assets: assets.New(assetsDir, text),
		Text:   text,
		Engine: transcoder.New(transcoder.Config{
			FFmpegPath:  getenv("FFMPEG_PATH"),
			FFprobePath: getenv("FFPROBE_PATH"),
			WorkDir:     getenv.get("WORK_DIR", filepath.Join(os.TempDir(), "hotghost-cli")),
		}, newRunner()),
		Timeout: *timeout,
	}
	if dir := getenv("DATABASE_DIR"); dir != "" {
		db, err := database.New(ctx, filepath.Join(dir, "hotghost.db"))
		if err != nil {
			return err
		}
		defer db.Close()
		cfg.History = db
	}
	g := generator.New(cfg)
	defer g.Close()

	var bar *progressBar
	if f, ok := stderr.(*os.File); ok && family == templates.Video {
		bar = newProgressBar(f, req.Template.String())
	}
	res, err := g.Generate(ctx, req, bar.Update)
	bar.Done()
	if err != nil {
		return describe(err)
	}

	path := *out
	if path == "" {
		path = "hotghost-" + res.Template.String() + res.Extension
	}
	defer g.Handles().Release(res.Handle)
	if err := renameio.WriteFile(path, res.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Fprintf(stdout, "%s  %d bytes  %v  %s\n", path, len(res.Data), res.Elapsed.Round(time.Millisecond), res.OutputDigest[:16])
	if family == templates.Video && !res.Audio {
		fmt.Fprintln(stdout, "note: audio could not be kept; output is video only")
	}
	return nil
}

// describe adds the ffmpeg stderr tail to stage failures.
func describe(err error) error {
	var se *generator.StageError
	if errors.As(err, &se) && se.Tail != "" {
		return fmt.Errorf("%w\n--- ffmpeg ---\n%s", err, se.Tail)
	}
	return err
}

func runHistory(ctx context.Context, args []string, getenv env, stdout io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "number of recent runs")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir := getenv("DATABASE_DIR")
	if dir == "" {
		return errors.New("history: DATABASE_DIR is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	db, err := database.New(ctx, filepath.Join(dir, "hotghost.db"))
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Stats(ctx)
	if err != nil {
		return err
	}
	recent, err := db.RecentGenerations(ctx, *limit)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"stats": stats, "recent": recent})
	}

	fmt.Fprintf(stdout, "runs: %d  ok: %d  failed: %d\n", stats.Total, stats.Succeeded, stats.Failed)
	for _, g := range recent {
		line := fmt.Sprintf("%s  %-5s %-10s %-7s %6dms", g.CreatedAt.Local().Format(time.DateTime), g.Family, g.Template, g.Status, g.DurationMS)
		if g.Stage != "" {
			line += "  stage=" + g.Stage
		}
		fmt.Fprintln(stdout, line)
	}
	return nil
}
