package domain

import "time"

// CycleStats summarizes one scan-process-publish cycle. The counters are
// observational only; no control decision is ever made from them.
type CycleStats struct {
	Cycle             int           `json:"cycle"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
	SignalsFound      int           `json:"signals_found"`
	RecipesProcessed  int           `json:"recipes_processed"`
	DuplicatesFlagged int           `json:"duplicates_flagged"`
	Published         int           `json:"published"`
	Pending           int           `json:"pending"`
	PublishFailed     int           `json:"publish_failed"`
}

// MonitorStats is the running tally a scan runner keeps across cycles.
type MonitorStats struct {
	Monitor         string     `json:"monitor"`
	LastCheck       *time.Time `json:"last_check,omitempty"`
	TotalScanned    int        `json:"total_scanned"`
	TotalViralFound int        `json:"total_viral_found"`
}
