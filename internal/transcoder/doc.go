// Package transcoder owns the external ffmpeg engine used by the video
// templates.
//
// An [Engine] moves through Uninitialized, Initializing and Ready (or
// Failed). [Engine.Ensure] performs initialization at most once: it resolves
// the ffmpeg and ffprobe binaries, checks that ffmpeg runs and prepares the
// working directory. Concurrent callers wait for the in-flight attempt and
// share its outcome. A failed attempt may be retried by a later call.
//
// Every invocation goes through [Engine.Exec], which reports fractional
// progress parsed from ffmpeg's "-progress" channel and keeps the tail of
// stderr for error messages. Process execution is behind [CommandRunner] so
// tests can script the engine without ffmpeg installed.
package transcoder
