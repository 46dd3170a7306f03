package models

import "time"

const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

// HealthCheck is served by the status server while a batch runs.
type HealthCheck struct {
	Status    string            `json:"status"`
	BatchID   string            `json:"batch_id"`
	Completed bool              `json:"completed"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}
