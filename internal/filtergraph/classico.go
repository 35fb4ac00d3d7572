package filtergraph

import (
	"fmt"
	"strings"

	"hotghost/internal/effects"
)

func canvasFilter(withFPS bool) string {
	vf := coverCrop(Width, Height, 0)
	if withFPS {
		vf += fmt.Sprintf(",fps=%d", FrameRate)
	}
	return vf
}

// IntroArgs turns the still into a short video-only clip.
func IntroArgs(still, output string) []string {
	return []string{
		"-loop", "1",
		"-i", still,
		"-c:v", "libx264",
		"-t", IntroDuration,
		"-pix_fmt", "yuv420p",
		"-vf", canvasFilter(false),
		"-r", fmt.Sprint(FrameRate),
		"-preset", "ultrafast",
		"-an",
		output,
	}
}

// MainVideoFilter is the -vf of the main stage: canvas fit, frame rate and
// the effect chain when enabled.
func MainVideoFilter(fx effects.Settings) string {
	vf := canvasFilter(true)
	if fc := EffectChain(fx); fc != "" {
		vf += "," + fc
	}
	return vf
}

func encodeFast(input, vf, output string, extra ...string) []string {
	args := []string{"-i", input}
	args = append(args, extra...)
	return append(args,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "28",
		"-pix_fmt", "yuv420p",
		"-an",
		output,
	)
}

// MainArgs re-encodes the user's video to the canvas, video only.
func MainArgs(input string, fx effects.Settings, output string) []string {
	return encodeFast(input, MainVideoFilter(fx), output)
}

// TrailerArgs fits the closing video to the canvas, capped at 90 seconds.
func TrailerArgs(closing, output string) []string {
	return encodeFast(closing, canvasFilter(true), output, "-t", TrailerDuration)
}

// ConcatManifest lists the parts for the concat demuxer in order.
func ConcatManifest(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}
	return b.String()
}

// ConcatArgs joins the manifest's parts by stream copy.
func ConcatArgs(manifest, output string) []string {
	return []string{"-f", "concat", "-safe", "0", "-i", manifest, "-c", "copy", output}
}

// ExtractAudioArgs re-encodes the input's audio to AAC.
func ExtractAudioArgs(input, output string) []string {
	return []string{"-i", input, "-vn", "-c:a", "aac", "-b:a", AudioBitrate, output}
}

// MuxAudioArgs puts the first audio stream of audio under the first video
// stream of video, both copied.
func MuxAudioArgs(video, audio, output string) []string {
	return []string{
		"-i", video,
		"-i", audio,
		"-c:v", "copy",
		"-c:a", "copy",
		"-map", "0:v:0",
		"-map", "1:a:0",
		output,
	}
}

// CopyArgs remuxes input unchanged.
func CopyArgs(input, output string) []string {
	return []string{"-i", input, "-c", "copy", output}
}
