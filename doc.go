// Command hotghost-server serves the hotghost engine over HTTP.
//
// hotghost disguises creative assets so automated review sees a different
// fingerprint while a person sees an almost identical result: text gets
// confusable characters, stills are recomposed into the Metropoles or
// Choquei layouts with per-slot pixel effects, and videos are rebuilt by
// ffmpeg into the same layouts or the five-stage Classico template.
//
// # Application Lifecycle
//
//  1. Memory configuration: GOMEMLIMIT from MEMORY_LIMIT (see internal/memory)
//  2. Configuration: environment variables, directory checks (see internal/startup)
//  3. libvips start for HEIC/AVIF decoding, when available
//  4. History database open and migrate
//  5. Assets and fonts resolved from ASSETS_DIR
//  6. Engine created; ffmpeg itself is checked on the first video request
//  7. HTTP API on PORT and Prometheus metrics on METRICS_PORT
//  8. SIGINT/SIGTERM: running ffmpeg processes are killed, servers drain,
//     the workspace is released
//
// # Background work
//
//   - Metrics collector: engine state, workspace size, held results, memory
//   - Maintenance every minute: expire unreleased results after RESULT_TTL,
//     prune history older than HISTORY_RETENTION, record the ffmpeg version
//
// The command-line tool lives in cmd/hotghost.
package main
