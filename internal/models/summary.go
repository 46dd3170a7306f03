package models

import "time"

type BatchSummary struct {
	BatchID         string        `json:"batch_id"`
	Discovered      int           `json:"discovered"`
	Succeeded       int           `json:"succeeded"`
	Failed          int           `json:"failed"`
	FailuresByStage map[Stage]int `json:"failures_by_stage"`
	StartedAt       time.Time     `json:"started_at"`
	Elapsed         time.Duration `json:"elapsed"`
	Completed       bool          `json:"completed"`
}
