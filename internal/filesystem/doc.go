/*
Package filesystem wraps the filesystem reads hotghost makes outside its own
workspace with retry logic for NFS stale file handle errors.

Bundled assets (logos, the texture clip, the intro still and the closing
video) are commonly mounted from a network volume. A remount or a server-side
change can leave ESTALE behind for a short window; the helpers here retry
those errors with exponential backoff and fail every other error immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())

Retry outcomes are reported to the [Observer] set with [SetObserver]; the
metrics package provides one.
*/
package filesystem
