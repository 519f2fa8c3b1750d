package model

import "time"

// IngestReport summarizes one ingestion run against a single source.
type IngestReport struct {
	RunID        string    `json:"run_id"`
	Source       string    `json:"source"`
	Fetched      int       `json:"fetched"`
	Added        int       `json:"added"`
	Updated      int       `json:"updated"`
	Skipped      int       `json:"skipped"`
	Failed       int       `json:"failed"`
	IndexVersion uint64    `json:"index_version"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Error        string    `json:"error,omitempty"`
}

// Applied is the number of candidates that reached the store.
func (r IngestReport) Applied() int {
	return r.Added + r.Updated
}
