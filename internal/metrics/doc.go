// Package metrics provides Prometheus instrumentation for hotghost.
//
// All metrics are prefixed with "hotghost_" and registered with the default
// registry through promauto. Mount promhttp.Handler() to expose them.
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Generation Metrics
//   - GenerationsTotal: Counter by family, template and status
//   - GenerationDuration: Histogram of successful generation wall time
//   - GenerationsInFlight: Gauge, 0 or 1 since generation is single-flight
//   - GenerationRejections: Counter of busy, validation and decode refusals
//   - OutputBytes: Histogram of artifact sizes by family
//   - TextTransformsTotal: Counter of homoglyph transformations
//
// ## Video Pipeline Metrics
//   - StageDuration, StageFailuresTotal: by template and stage
//   - AudioFallbacksTotal: Classico runs without audio
//   - CleanupFailuresTotal: workspace artifacts that survived cleanup
//
// These are fed by the observer returned from [NewPipelineObserver].
//
// ## Engine Metrics
//   - EngineState, WorkspaceBytes, WorkspaceFiles, ResultHandlesOpen
//
// These gauges are refreshed by a [Collector] from a [StatsProvider]:
//
//	go metrics.NewCollector(gen, 15*time.Second).Run(ctx)
//
// ## Database and Memory Metrics
//   - DBQueryTotal, DBQueryDuration: generation history queries
//   - GoMemLimit, GoMemAllocBytes, GoMemSysBytes
//
// # Prometheus Queries
//
// Video failure rate by stage:
//
//	sum(rate(hotghost_stage_failures_total[1h])) by (template, stage)
//
// P95 generation time:
//
//	histogram_quantile(0.95, sum(rate(hotghost_generation_duration_seconds_bucket[1h])) by (le, template))
package metrics
