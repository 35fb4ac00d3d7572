package metrics

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"time"

	"hotghost/internal/logging"
)

// StatsProvider reports the engine's current state.
// *generator.Generator implements it.
type StatsProvider interface {
	GetStats() Stats
}

// Stats is a point-in-time view of the engine.
type Stats struct {
	EngineState    int
	WorkspaceBytes int64
	WorkspaceFiles int
	OpenHandles    int
}

// Collector samples a StatsProvider and the Go runtime into gauges.
type Collector struct {
	provider StatsProvider
	interval time.Duration
	log      logging.Logger
}

// NewCollector returns a collector sampling every interval. A nil
// provider samples only runtime memory.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{provider: provider, interval: interval, log: logging.With("metrics")}
}

// Run samples once immediately and then on every tick until ctx is done.
func (c *Collector) Run(ctx context.Context) {
	c.sample()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	sampleRuntime()
	if c.provider == nil {
		return
	}

	st := c.provider.GetStats()
	EngineState.Set(float64(st.EngineState))
	WorkspaceBytes.Set(float64(st.WorkspaceBytes))
	WorkspaceFiles.Set(float64(st.WorkspaceFiles))
	ResultHandlesOpen.Set(float64(st.OpenHandles))
	c.log.Debug("engine=%d workspace=%d files/%d bytes handles=%d",
		st.EngineState, st.WorkspaceFiles, st.WorkspaceBytes, st.OpenHandles)
}

func sampleRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	GoMemAllocBytes.Set(float64(ms.HeapAlloc))
	GoMemSysBytes.Set(float64(ms.Sys))

	// SetMemoryLimit with a negative value only reads the limit.
	if limit := debug.SetMemoryLimit(-1); limit < math.MaxInt64 {
		GoMemLimit.Set(float64(limit))
	}
}
