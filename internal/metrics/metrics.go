package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotghost_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotghost_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotghost_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Generation metrics
var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotghost_generations_total",
			Help: "Total number of generations by family, template and status",
		},
		[]string{"family", "template", "status"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotghost_generation_duration_seconds",
			Help:    "Wall time of successful generations",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"family", "template"},
	)

	GenerationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotghost_generations_in_flight",
			Help: "Number of generations currently running (0 or 1)",
		},
	)

	GenerationRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotghost_generation_rejections_total",
			Help: "Generations refused before any work, by reason",
		},
		[]string{"reason"}, // "busy", "validation", "decode"
	)

	OutputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotghost_output_bytes",
			Help:    "Size of generated artifacts in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 9),
		},
		[]string{"family"},
	)

	TextTransformsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hotghost_text_transforms_total",
			Help: "Total number of homoglyph text transformations",
		},
	)
)

// Video pipeline metrics
var (
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotghost_stage_duration_seconds",
			Help:    "Duration of video pipeline stages",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"template", "stage"},
	)

	StageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotghost_stage_failures_total",
			Help: "Total number of failed video pipeline stages",
		},
		[]string{"template", "stage"},
	)

	AudioFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hotghost_audio_fallbacks_total",
			Help: "Classico runs that shipped video without audio",
		},
	)

	CleanupFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hotghost_cleanup_failures_total",
			Help: "Workspace artifacts that could not be removed",
		},
	)

	// AssetRetriesTotal counts asset reads that hit an NFS stale file handle.
	AssetRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotghost_asset_retries_total",
			Help: "Asset filesystem operations that hit a stale file handle, by outcome",
		},
		[]string{"operation", "result"},
	)
)

// Engine metrics
var (
	EngineState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotghost_engine_state",
			Help: "Transcoding engine state (0=uninitialized, 1=initializing, 2=ready, 3=failed)",
		},
	)

	WorkspaceBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotghost_workspace_bytes",
			Help: "Bytes currently held in the engine workspace",
		},
	)

	WorkspaceFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotghost_workspace_files",
			Help: "Artifacts currently held in the engine workspace",
		},
	)

	ResultHandlesOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotghost_result_handles_open",
			Help: "Video results held for download",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotghost_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotghost_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Memory metrics
var (
	GoMemLimit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotghost_go_memlimit_bytes",
			Help: "Configured GOMEMLIMIT in bytes",
		},
	)

	GoMemAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotghost_go_mem_alloc_bytes",
			Help: "Current heap allocation in bytes",
		},
	)

	GoMemSysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hotghost_go_mem_sys_bytes",
			Help: "Total memory obtained from the OS in bytes",
		},
	)
)

// AppInfo exposes build information as labels.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "hotghost_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)
