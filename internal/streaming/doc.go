/*
Package streaming writes finished generation results to HTTP clients with
timeout protection.

Video results can be tens of megabytes and are held in memory until the
client releases them. A slow or vanished client must not pin a server
goroutine forever, so every chunk is written under a per-write deadline
(set through http.ResponseController) and the request context is checked
between chunks.

	err := streaming.ServeBytes(w, r, res.ContentType, res.Data, streaming.DefaultTimeoutWriterConfig())
	if err != nil && !errors.Is(err, streaming.ErrClientGone) {
		logging.Warn("result download: %v", err)
	}

Once the status line has been sent, errors can only be logged.
*/
package streaming
