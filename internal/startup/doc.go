// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging for the hotghost server.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - PORT: HTTP API port (default: 8080)
//   - METRICS_PORT: Prometheus metrics port (default: 9090)
//   - METRICS_ENABLED: serve /metrics on METRICS_PORT (default: true)
//   - ASSETS_DIR: bundled logos, texture, intro still and closing video (default: /assets)
//   - WORK_DIR: transcoder workspace, swept when the engine starts (default: $TMPDIR/hotghost)
//   - DATABASE_DIR: generation history database (default: /database)
//   - FFMPEG_PATH, FFPROBE_PATH: explicit binaries; empty means look on PATH
//   - GENERATION_TIMEOUT: bound on one generation as a Go duration (default: unbounded)
//   - RESULT_TTL: how long an unreleased video result is held (default: 30m)
//   - HISTORY_RETENTION: age after which history rows are pruned, 0 keeps all (default: 720h)
//   - MAX_UPLOAD_MB: request body cap for generation uploads (default: 512)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: log /health and /version requests (default: true)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: see package memory
//
// # Directories
//
// The database and work directories are required and must be writable;
// LoadConfig fails otherwise. A missing assets directory only warns: still
// templates fall back to placeholder logos and video generation reports
// the missing asset when it is attempted.
//
// # Build information
//
// Version, Commit and BuildTime are injected at build time:
//
//	go build -ldflags "-X hotghost/internal/startup.Version=1.2.0 -X hotghost/internal/startup.Commit=$(git rev-parse --short HEAD)"
package startup
