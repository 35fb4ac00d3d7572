package database

import "time"

// Status values for a generation record.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Generation is one finished generation attempt.
type Generation struct {
	ID           int64     `json:"id"`
	Family       string    `json:"family"`
	Template     string    `json:"template"`
	Status       string    `json:"status"`
	Stage        string    `json:"stage,omitempty"`
	Error        string    `json:"error,omitempty"`
	DurationMS   int64     `json:"durationMs"`
	InputBytes   int64     `json:"inputBytes"`
	OutputBytes  int64     `json:"outputBytes"`
	SourceDigest string    `json:"sourceDigest,omitempty"`
	OutputDigest string    `json:"outputDigest,omitempty"`
	AudioKept    bool      `json:"audioKept,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TemplateStats aggregates the history of one family/template pair.
type TemplateStats struct {
	Family        string  `json:"family"`
	Template      string  `json:"template"`
	Total         int     `json:"total"`
	Succeeded     int     `json:"succeeded"`
	Failed        int     `json:"failed"`
	AvgDurationMS float64 `json:"avgDurationMs"`
	OutputBytes   int64   `json:"outputBytes"`
}

// Stats summarizes the whole history.
type Stats struct {
	Total       int             `json:"total"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	Templates   []TemplateStats `json:"templates"`
	LastSuccess *time.Time      `json:"lastSuccess,omitempty"`
}
