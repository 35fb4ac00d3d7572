package metrics

// Label values known ahead of time. Kept here so InitializeMetrics and the
// recording sites agree.
var (
	families  = []string{"image", "video"}
	templates = map[string][]string{
		"image": {"metropoles", "choquei"},
		"video": {"metropoles", "choquei", "classico"},
	}
	statuses   = []string{"success", "error", "timeout"}
	rejections = []string{"busy", "validation", "decode"}
	stages     = map[string][]string{
		"metropoles": {"prepare", "render", "finalize"},
		"choquei":    {"prepare", "render", "finalize"},
		"classico":   {"prepare", "intro", "main", "trailer", "concat", "audio", "finalize"},
	}
	dbOperations = []string{"initialize_schema", "insert_generation", "recent_generations", "stats", "prune"}
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, family := range families {
		for _, tmpl := range templates[family] {
			for _, status := range statuses {
				GenerationsTotal.WithLabelValues(family, tmpl, status)
			}
			GenerationDuration.WithLabelValues(family, tmpl)
		}
		OutputBytes.WithLabelValues(family)
	}

	for _, reason := range rejections {
		GenerationRejections.WithLabelValues(reason)
	}

	for tmpl, ss := range stages {
		for _, stage := range ss {
			StageDuration.WithLabelValues(tmpl, stage)
			StageFailuresTotal.WithLabelValues(tmpl, stage)
		}
	}

	for _, op := range dbOperations {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
