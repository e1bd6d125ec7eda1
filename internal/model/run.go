package model

import "time"

// RunStats summarizes one pipeline run.
type RunStats struct {
	Firms    int `json:"firms"`
	Scored   int `json:"scored"`
	NACount  int `json:"na_count"`
	Enriched int `json:"enriched"`
	Skipped  int `json:"skipped"`
}

// Run records one execution of the pipeline for bookkeeping.
type Run struct {
	ID         string    `json:"id"`
	SourceURL  string    `json:"source_url,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Stats      RunStats  `json:"stats"`
}
