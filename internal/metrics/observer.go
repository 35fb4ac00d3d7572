package metrics

import (
	"hotghost/internal/filesystem"
	"hotghost/internal/pipeline"
)

// pipelineObserver implements pipeline.Observer using the Prometheus
// metrics declared in this package.
type pipelineObserver struct{}

// NewPipelineObserver creates an observer that records video pipeline
// metrics into the counters and histograms declared in metrics.go.
func NewPipelineObserver() pipeline.Observer {
	return pipelineObserver{}
}

func (pipelineObserver) ObserveStage(template string, stage pipeline.Stage, seconds float64, err error) {
	StageDuration.WithLabelValues(template, string(stage)).Observe(seconds)
	if err != nil {
		StageFailuresTotal.WithLabelValues(template, string(stage)).Inc()
	}
}

func (pipelineObserver) ObserveAudioFallback() {
	AudioFallbacksTotal.Inc()
}

func (pipelineObserver) ObserveCleanupFailure() {
	CleanupFailuresTotal.Inc()
}

type filesystemObserver struct{}

// NewFilesystemObserver creates an observer for asset read retries.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveRetry(operation string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	AssetRetriesTotal.WithLabelValues(operation, result).Inc()
}
