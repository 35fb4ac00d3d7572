package middleware

import (
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// Level is the gzip compression level (gzip.BestSpeed to gzip.BestCompression)
	Level int
	// CompressibleTypes lists the media types that are compressed.
	CompressibleTypes []string
}

// DefaultCompressionConfig returns sensible defaults for compression
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		Level:             gzip.DefaultCompression,
		CompressibleTypes: []string{"application/json", "text/plain", "text/html"},
	}
}

// gzipResponseWriter decides on the first write whether to compress, based
// on the Content-Type the handler has set by then.
type gzipResponseWriter struct {
	http.ResponseWriter
	pool    *sync.Pool
	types   []string
	gz      *gzip.Writer
	decided bool
	status  int
}

func (g *gzipResponseWriter) WriteHeader(code int) {
	if g.decided {
		return
	}
	g.status = code
	g.decide()
}

func (g *gzipResponseWriter) decide() {
	g.decided = true
	h := g.Header()
	mediaType, _, _ := mime.ParseMediaType(h.Get("Content-Type"))
	if h.Get("Content-Encoding") == "" && slices.Contains(g.types, mediaType) &&
		g.status != http.StatusNoContent && g.status != http.StatusNotModified {
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		g.gz = g.pool.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
	}
	g.ResponseWriter.WriteHeader(g.status)
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	if !g.decided {
		g.decide()
	}
	if g.gz != nil {
		return g.gz.Write(b)
	}
	return g.ResponseWriter.Write(b)
}

func (g *gzipResponseWriter) Flush() {
	if !g.decided {
		g.decide()
	}
	if g.gz != nil {
		_ = g.gz.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// close flushes the gzip stream and returns the writer to the pool.
func (g *gzipResponseWriter) close() error {
	if g.gz == nil {
		return nil
	}
	err := g.gz.Close()
	g.pool.Put(g.gz)
	g.gz = nil
	return err
}

// Compression returns a middleware that gzips compressible responses.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	pool := &sync.Pool{
		New: func() any {
			w, err := gzip.NewWriterLevel(io.Discard, config.Level)
			if err != nil {
				w = gzip.NewWriter(io.Discard)
			}
			return w
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			gzw := &gzipResponseWriter{ResponseWriter: w, pool: pool, types: config.CompressibleTypes, status: http.StatusOK}
			defer func() { _ = gzw.close() }()
			next.ServeHTTP(gzw, r)
		})
	}
}
