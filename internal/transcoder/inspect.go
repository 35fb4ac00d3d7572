package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// MediaInfo contains information about a media file.
type MediaInfo struct {
	Duration   time.Duration `json:"duration"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	VideoCodec string        `json:"videoCodec"`
	HasVideo   bool          `json:"hasVideo"`
	HasAudio   bool          `json:"hasAudio"`
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// Inspect runs ffprobe on a workspace artifact or an absolute path.
func (e *Engine) Inspect(ctx context.Context, name string) (*MediaInfo, error) {
	_, ffprobe, err := e.binaries()
	if err != nil {
		return nil, err
	}

	var stdout bytes.Buffer
	stderr := newTailBuffer(stderrTail)
	err = e.runner.Run(ctx, Command{
		Path: ffprobe,
		Args: []string{
			"-v", "quiet",
			"-print_format", "json",
			"-show_format",
			"-show_streams",
			name,
		},
		Dir:    e.Workspace().Dir(),
		Stdout: &stdout,
		Stderr: stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}
	return ParseMediaInfo(stdout.Bytes())
}

// ParseMediaInfo decodes ffprobe's JSON output.
func ParseMediaInfo(data []byte) (*MediaInfo, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	info := &MediaInfo{Duration: parseSeconds(out.Format.Duration)}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.VideoCodec = s.CodecName
			info.Width = s.Width
			info.Height = s.Height
			if info.Duration == 0 {
				info.Duration = parseSeconds(s.Duration)
			}
		case "audio":
			info.HasAudio = true
		}
	}
	return info, nil
}

func parseSeconds(s string) time.Duration {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
