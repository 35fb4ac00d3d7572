// Package generator is the public face of the engine: it validates a
// request, admits one generation at a time, dispatches to the still-image
// compositor or the video pipeline, and wraps the outcome in a [Result]
// with content digests.
//
// Video results are kept in a [Handles] registry until the caller
// releases them or replaces them with a newer result.
package generator
