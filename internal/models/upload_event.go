package models

import "time"

// UploadEvent is the JSON document published for every item outcome.
type UploadEvent struct {
	BatchID    string    `json:"batch_id"`
	SourcePath string    `json:"source_path"`
	Key        string    `json:"key,omitempty"`
	Bucket     string    `json:"bucket,omitempty"`
	Size       int64     `json:"size,omitempty"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

func NewUploadEvent(batchID string, outcome ItemOutcome, now time.Time) UploadEvent {
	event := UploadEvent{
		BatchID:    batchID,
		SourcePath: outcome.Item.Path,
		Key:        outcome.Key,
		OccurredAt: now,
	}
	if outcome.Artifact != nil {
		event.Size = outcome.Artifact.Size
	}
	if outcome.Ack != nil {
		event.Bucket = outcome.Ack.Bucket
	}
	if outcome.Succeeded() {
		event.Status = StatusCompleted
		return event
	}
	event.Status = StatusFailed
	event.Stage = string(outcome.Stage)
	event.Error = outcome.Err.Error()
	return event
}
