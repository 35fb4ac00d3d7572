// Package memory configures the Go soft memory limit for containerized
// deployments.
//
// A single generation holds several full-canvas RGBA buffers (about 8 MiB
// each at 1080x1920) while ffmpeg runs beside it in the same cgroup.
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT so the collector
// starts working before the container is OOM-killed.
package memory
