// Package logging provides a simple leveled logging interface for hotghost.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (ffmpeg argv, stage timings)
//   - INFO: General operational messages
//   - WARN: Warning conditions (best-effort cleanup failures, audio fallback)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true.
//
// Component loggers created with [With] prefix each line with the
// component name so that interleaved pipeline stages stay readable:
//
//	log := logging.With("classico")
//	log.Info("stage %s done", stage)
package logging
