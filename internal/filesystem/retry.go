package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"hotghost/internal/logging"
)

// Observer records retry outcomes. The metrics package implements it.
type Observer interface {
	// ObserveRetry is called once per operation that hit at least one
	// stale handle. ok reports whether a later attempt succeeded.
	ObserveRetry(operation string, ok bool)
}

var defaultObserver Observer

// SetObserver sets the package-level observer. Call it once at startup.
func SetObserver(o Observer) {
	defaultObserver = o
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs fn until it succeeds, fails with a non-stale error, or the
// retries run out.
func withRetry[T any](op, path string, config RetryConfig, fn func(string) (T, error)) (T, error) {
	backoff := config.InitialBackoff
	stale := false

	for attempt := 0; ; attempt++ {
		v, err := fn(path)
		if err == nil {
			if stale {
				logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
				report(op, true)
			}
			return v, nil
		}
		if !isNFSStaleError(err) {
			if stale {
				report(op, false)
			}
			return v, err
		}
		stale = true

		if attempt >= config.MaxRetries {
			logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, err)
			report(op, false)
			return v, err
		}

		logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
			op, path, backoff, attempt+1, config.MaxRetries)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}
}

func report(op string, ok bool) {
	if defaultObserver != nil {
		defaultObserver.ObserveRetry(op, ok)
	}
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, os.Stat)
}

// ReadFileWithRetry performs os.ReadFile with retry logic for NFS stale file
// handle errors.
func ReadFileWithRetry(path string, config RetryConfig) ([]byte, error) {
	return withRetry("read", path, config, os.ReadFile)
}
