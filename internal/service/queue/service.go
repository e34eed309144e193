// Package queue implements the deployment queue: durable priority-ordered
// entries, lifecycle transitions driven by processor callbacks, and live
// status fan-out over the websocket hub.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/pagecraft/pagecraft/internal/domain"
	"github.com/pagecraft/pagecraft/internal/repository"
	"github.com/pagecraft/pagecraft/internal/ws"
)

// CancelMessage is the fixed error message recorded on user cancellation.
const CancelMessage = "deployment cancelled by user"

const defaultMaxAttempts = 3

// Service coordinates queue state with the persistence layer and hub.
type Service struct {
	entries repository.QueueRepository
	logs    repository.QueueLogRepository
	hub     *ws.Hub
	logger  *slog.Logger
	now     func() time.Time
}

// New returns a queue service.
func New(entries repository.QueueRepository, logs repository.QueueLogRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{
		entries: entries,
		logs:    logs,
		hub:     hub,
		logger:  logger,
		now:     time.Now,
	}
}

// Hub exposes the event hub for websocket handlers.
func (s Service) Hub() *ws.Hub {
	return s.hub
}

// EnqueueInput describes a new deployment request.
type EnqueueInput struct {
	ProjectID  string
	CustomerID *string
	Priority   int
	Payload    domain.QueuePayload
}

// Enqueue creates a durable queue entry. Priority defaults to zero; higher
// values are promoted ahead of lower ones at dispatch time.
func (s Service) Enqueue(ctx context.Context, input EnqueueInput) (*domain.QueueEntry, error) {
	entry := &domain.QueueEntry{
		ID:          uuid.NewString(),
		ProjectID:   input.ProjectID,
		CustomerID:  input.CustomerID,
		Status:      domain.QueueStatusQueued,
		Priority:    input.Priority,
		Payload:     input.Payload,
		MaxAttempts: defaultMaxAttempts,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.entries.InsertEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("enqueue deployment: %w", err)
	}
	s.logger.Info("deployment enqueued",
		"deployment_id", entry.ID,
		"project_id", entry.ProjectID,
		"priority", entry.Priority)
	return entry, nil
}

// Get returns a single queue entry.
func (s Service) Get(ctx context.Context, deploymentID string) (*domain.QueueEntry, error) {
	return s.entries.GetEntryByID(ctx, deploymentID)
}

// ListByProject returns a project's most recent deployments.
func (s Service) ListByProject(ctx context.Context, projectID string, limit int) ([]domain.QueueEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.entries.ListEntriesByProject(ctx, projectID, limit)
}

// Position reports a 1-based queue position for queued entries. Entries in
// any other state report position zero alongside their current status.
func (s Service) Position(ctx context.Context, deploymentID string) (int, string, error) {
	entry, err := s.entries.GetEntryByID(ctx, deploymentID)
	if err != nil {
		return 0, "", err
	}
	if entry.Status != domain.QueueStatusQueued {
		return 0, entry.Status, nil
	}
	pos, err := s.entries.QueuePosition(ctx, entry)
	if err != nil {
		return 0, "", err
	}
	return pos, entry.Status, nil
}

// Cancel marks a queued deployment failed with the fixed cancellation
// message. Entries already picked up or finished are left untouched.
func (s Service) Cancel(ctx context.Context, deploymentID string) error {
	cancelled, err := s.entries.CancelEntry(ctx, deploymentID, CancelMessage)
	if err != nil {
		return fmt.Errorf("cancel deployment %s: %w", deploymentID, err)
	}
	if !cancelled {
		return nil
	}
	s.logger.Info("deployment cancelled", "deployment_id", deploymentID)
	s.publishStatus(deploymentID, domain.QueueStatusFailed, CancelMessage)
	return nil
}

// Retry resets a failed deployment back to queued, clearing attempts, error
// message and timestamps so the fresh attempt starts clean.
func (s Service) Retry(ctx context.Context, deploymentID string) error {
	if err := s.entries.RetryEntry(ctx, deploymentID); err != nil {
		return err
	}
	s.logger.Info("deployment requeued for retry", "deployment_id", deploymentID)
	return nil
}

// Delete removes a terminal deployment record.
func (s Service) Delete(ctx context.Context, deploymentID string) error {
	return s.entries.DeleteEntry(ctx, deploymentID)
}

// CleanupOlderThan bulk-deletes terminal entries whose completion timestamp
// is older than the given number of days.
func (s Service) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: days must be positive", repository.ErrInvalidArgument)
	}
	cutoff := s.now().UTC().AddDate(0, 0, -days)
	deleted, err := s.entries.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup finished deployments: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("finished deployments cleaned up", "deleted", deleted, "days", days)
	}
	return deleted, nil
}

// Stats returns queue depth counters.
func (s Service) Stats(ctx context.Context) (domain.QueueStats, error) {
	return s.entries.Stats(ctx)
}

// CallbackPayload is what the deployment processor posts after a status
// transition.
type CallbackPayload struct {
	DeploymentID string `json:"deployment_id"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	AttemptCount *int   `json:"attempt_count,omitempty"`
}

var callbackStatuses = map[string]struct{}{
	domain.QueueStatusProcessing: {},
	domain.QueueStatusCompleted:  {},
	domain.QueueStatusFailed:     {},
}

// ProcessCallback persists a processor-reported transition, then fans the
// derived lifecycle event out to subscribers.
func (s Service) ProcessCallback(ctx context.Context, payload CallbackPayload) error {
	if payload.DeploymentID == "" {
		return fmt.Errorf("%w: deployment_id is required", repository.ErrInvalidArgument)
	}
	if _, ok := callbackStatuses[payload.Status]; !ok {
		return fmt.Errorf("%w: status %q is not a valid transition", repository.ErrInvalidArgument, payload.Status)
	}
	update := domain.QueueStatusUpdate{
		DeploymentID: payload.DeploymentID,
		Status:       payload.Status,
		ErrorMessage: payload.Error,
		AttemptCount: payload.AttemptCount,
	}
	applied, err := s.entries.UpdateEntryStatus(ctx, update)
	if err != nil {
		return err
	}
	if !applied {
		// The processor delivers at least once, so a retransmission landing
		// after the entry settled is expected. Swallow it without an event;
		// an unknown id still surfaces as not found.
		if _, err := s.entries.GetEntryByID(ctx, payload.DeploymentID); err != nil {
			return err
		}
		s.logger.Info("ignoring status callback for settled deployment",
			"deployment_id", payload.DeploymentID,
			"status", payload.Status)
		return nil
	}
	s.logger.Info("deployment status updated",
		"deployment_id", payload.DeploymentID,
		"status", payload.Status)
	s.publishStatus(payload.DeploymentID, payload.Status, payload.Error)
	return nil
}

// AppendLog persists a deployment log line and streams it to subscribers.
func (s Service) AppendLog(ctx context.Context, entry *domain.QueueLog) error {
	if entry.Level == "" {
		entry.Level = "info"
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := s.logs.AppendLog(ctx, entry); err != nil {
		return fmt.Errorf("append deployment log: %w", err)
	}
	s.publishLog(entry)
	return nil
}

// Logs returns the persisted log lines for a deployment in append order.
func (s Service) Logs(ctx context.Context, deploymentID string, limit, offset int) ([]domain.QueueLog, error) {
	if limit <= 0 {
		limit = 200
	}
	return s.logs.ListLogsByDeployment(ctx, deploymentID, limit, offset)
}

// eventTypeForStatus maps persisted statuses onto the wire event names
// subscribers receive.
func eventTypeForStatus(status string) string {
	switch status {
	case domain.QueueStatusProcessing:
		return "started"
	case domain.QueueStatusCompleted:
		return "completed"
	case domain.QueueStatusFailed:
		return "failed"
	default:
		return ""
	}
}

type statusEvent struct {
	Type         string `json:"type"`
	DeploymentID string `json:"deployment_id"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	Timestamp    string `json:"timestamp"`
}

type logEvent struct {
	Type         string          `json:"type"`
	DeploymentID string          `json:"deployment_id"`
	Level        string          `json:"level"`
	Message      string          `json:"message"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	Timestamp    string          `json:"timestamp"`
}

func (s Service) publishStatus(deploymentID, status, errMsg string) {
	eventType := eventTypeForStatus(status)
	if eventType == "" {
		return
	}
	payload, err := json.Marshal(statusEvent{
		Type:         eventType,
		DeploymentID: deploymentID,
		Status:       status,
		Error:        errMsg,
		Timestamp:    s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Error("marshal status event", "error", err)
		return
	}
	s.hub.Publish(deploymentID, payload)
}

func (s Service) publishLog(entry *domain.QueueLog) {
	payload, err := json.Marshal(logEvent{
		Type:         "log",
		DeploymentID: entry.DeploymentID,
		Level:        entry.Level,
		Message:      entry.Message,
		Metadata:     entry.Metadata,
		Timestamp:    entry.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Error("marshal log event", "error", err)
		return
	}
	s.hub.Publish(entry.DeploymentID, payload)
}
