package streaming

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"hotghost/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a write exceeded the configured timeout
	// or the stream ran past MaxDuration.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the client disconnected before the stream completed.
	ErrClientGone = errors.New("client disconnected")
)

// TimeoutWriterConfig configures the timeout writer behavior
type TimeoutWriterConfig struct {
	// WriteTimeout bounds each chunk write. Zero disables the deadline.
	WriteTimeout time.Duration
	// MaxDuration is the absolute maximum streaming duration (0 = unlimited)
	MaxDuration time.Duration
	// ChunkSize is the size of chunks to write (0 = write as received)
	ChunkSize int
	// OnProgress is called after each chunk with the running total.
	OnProgress func(bytesWritten int64, duration time.Duration)
}

// DefaultTimeoutWriterConfig returns sensible defaults
func DefaultTimeoutWriterConfig() TimeoutWriterConfig {
	return TimeoutWriterConfig{
		WriteTimeout: 30 * time.Second,
		ChunkSize:    256 * 1024,
	}
}

// TimeoutWriter wraps an http.ResponseWriter so a stalled client cannot
// hold a result download open indefinitely. Deadlines are set through
// http.ResponseController; writers that do not support them are written
// without one.
type TimeoutWriter struct {
	w            http.ResponseWriter
	rc           *http.ResponseController
	ctx          context.Context
	config       TimeoutWriterConfig
	start        time.Time
	bytesWritten int64
	deadlines    bool
}

// NewTimeoutWriter creates a new timeout-protected writer
func NewTimeoutWriter(ctx context.Context, w http.ResponseWriter, config TimeoutWriterConfig) *TimeoutWriter {
	return &TimeoutWriter{
		w:         w,
		rc:        http.NewResponseController(w),
		ctx:       ctx,
		config:    config,
		start:     time.Now(),
		deadlines: config.WriteTimeout > 0,
	}
}

// Write implements io.Writer, splitting p into chunks.
func (tw *TimeoutWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if err := tw.ctx.Err(); err != nil {
			return total, ErrClientGone
		}
		if tw.config.MaxDuration > 0 && time.Since(tw.start) > tw.config.MaxDuration {
			return total, ErrWriteTimeout
		}

		n := len(p)
		if tw.config.ChunkSize > 0 && n > tw.config.ChunkSize {
			n = tw.config.ChunkSize
		}

		tw.setDeadline()
		written, err := tw.w.Write(p[:n])
		total += written
		tw.bytesWritten += int64(written)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
				return total, ErrWriteTimeout
			}
			return total, err
		}
		p = p[n:]

		if err := tw.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return total, err
		}
		if tw.config.OnProgress != nil {
			tw.config.OnProgress(tw.bytesWritten, time.Since(tw.start))
		}
	}
	return total, nil
}

func (tw *TimeoutWriter) setDeadline() {
	if !tw.deadlines {
		return
	}
	if err := tw.rc.SetWriteDeadline(time.Now().Add(tw.config.WriteTimeout)); err != nil {
		// Recorders and some wrappers cannot carry deadlines.
		tw.deadlines = false
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// Stats returns streaming statistics
func (tw *TimeoutWriter) Stats() (bytesWritten int64, duration time.Duration) {
	return tw.bytesWritten, time.Since(tw.start)
}

// ServeBytes writes a finished result with its length and type. The body is
// streamed through a TimeoutWriter; HEAD requests get headers only.
func ServeBytes(w http.ResponseWriter, r *http.Request, contentType string, data []byte, config TimeoutWriterConfig) error {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return nil
	}
	return StreamWithTimeout(r.Context(), w, bytes.NewReader(data), config)
}

// StreamWithTimeout copies r into the response with timeout protection.
func StreamWithTimeout(ctx context.Context, w http.ResponseWriter, r io.Reader, config TimeoutWriterConfig) error {
	tw := NewTimeoutWriter(ctx, w, config)
	_, err := io.Copy(tw, r)

	bytesWritten, duration := tw.Stats()
	logging.Debug("Stream completed: %d bytes in %v", bytesWritten, duration)
	return err
}
