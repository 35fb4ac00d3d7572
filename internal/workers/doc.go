/*
Package workers sizes the goroutine fan-out used for per-pixel work.

Compositing operates on full 1080x1920 RGBA canvases. Row-independent
filters (brightness and contrast) split the canvas into horizontal bands and
process them in parallel, one band per worker.

GOMAXPROCS is used instead of runtime.NumCPU so container CPU limits are
respected:

	n := workers.ForCPU(8)
	for _, band := range workers.Bands(height, n) {
		// process rows band[0] .. band[1]-1
	}

Set PIXEL_WORKERS to pin the worker count, for example to 1 when profiling.
*/
package workers
