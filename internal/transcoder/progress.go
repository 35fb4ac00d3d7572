package transcoder

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseProgress reads ffmpeg "-progress" key=value output from r until EOF
// and reports completion fractions in [0,1] to fn. Reports never decrease.
// Without a known total duration only the final "progress=end" is reported.
func ParseProgress(r io.Reader, total time.Duration, fn func(float64)) {
	last := -1.0
	report := func(f float64) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		if f > last {
			last = f
			fn(f)
		}
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		// out_time_ms is microseconds too, a long-standing ffmpeg quirk
		case "out_time_us", "out_time_ms":
			if total <= 0 {
				continue
			}
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || us < 0 {
				continue
			}
			report(float64(us) / float64(total.Microseconds()))
		case "progress":
			if value == "end" {
				report(1)
			}
		}
	}
}
