package domain

import (
	"encoding/json"
	"time"
)

// Queue entry statuses. startedAt is set only on the transition to
// processing, completedAt only on the transition to completed or failed.
const (
	QueueStatusQueued     = "queued"
	QueueStatusProcessing = "processing"
	QueueStatusCompleted  = "completed"
	QueueStatusFailed     = "failed"
)

// QueuePayload describes what the queue processor should deploy.
type QueuePayload struct {
	Subdomain   string `json:"subdomain"`
	Domain      string `json:"domain"`
	ArchivePath string `json:"archive_path"`
	SiteID      string `json:"site_id,omitempty"`
}

// QueueEntry is one durable deployment request. Status and timestamps are
// mutated only by the queue processor; this service enqueues, queries,
// cancels and retries.
type QueueEntry struct {
	ID           string
	ProjectID    string
	CustomerID   *string
	Status       string
	Priority     int
	Payload      QueuePayload
	AttemptCount int
	MaxAttempts  int
	ErrorMessage *string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// QueueStatusUpdate carries a processor-reported transition for one entry.
type QueueStatusUpdate struct {
	DeploymentID string
	Status       string
	ErrorMessage string
	AttemptCount *int
}

// QueueLog is one append-only log line written by the queue processor.
type QueueLog struct {
	ID           int64
	DeploymentID string
	ProjectID    string
	Level        string
	Message      string
	Metadata     json.RawMessage
	CreatedAt    time.Time
}

// QueueStats are dashboard counts, recomputed on demand.
type QueueStats struct {
	Queued             int `json:"queued"`
	Processing         int `json:"processing"`
	FinishedInLastHour int `json:"finished_last_hour"`
}
