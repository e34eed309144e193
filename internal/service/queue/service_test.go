package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"log/slog"

	"github.com/pagecraft/pagecraft/internal/domain"
	"github.com/pagecraft/pagecraft/internal/repository"
	"github.com/pagecraft/pagecraft/internal/ws"
)

type fakeQueueRepo struct {
	entries       map[string]*domain.QueueEntry
	insertErr     error
	updateErr     error
	updateCalls   int
	lastUpdate    domain.QueueStatusUpdate
	cancelCalls   int
	deletedBefore time.Time
	deleteCount   int64
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{entries: make(map[string]*domain.QueueEntry)}
}

func (f *fakeQueueRepo) InsertEntry(ctx context.Context, entry *domain.QueueEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	clone := *entry
	f.entries[entry.ID] = &clone
	return nil
}

func (f *fakeQueueRepo) GetEntryByID(ctx context.Context, id string) (*domain.QueueEntry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *entry
	return &clone, nil
}

func (f *fakeQueueRepo) ListEntriesByProject(ctx context.Context, projectID string, limit int) ([]domain.QueueEntry, error) {
	var out []domain.QueueEntry
	for _, entry := range f.entries {
		if entry.ProjectID == projectID {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// QueuePosition mirrors the SQL ranking rule: strictly higher priority, or
// equal priority created earlier, counts as ahead.
func (f *fakeQueueRepo) QueuePosition(ctx context.Context, entry *domain.QueueEntry) (int, error) {
	ahead := 0
	for _, other := range f.entries {
		if other.ID == entry.ID || other.Status != domain.QueueStatusQueued {
			continue
		}
		if other.Priority > entry.Priority ||
			(other.Priority == entry.Priority && other.CreatedAt.Before(entry.CreatedAt)) {
			ahead++
		}
	}
	return ahead + 1, nil
}

// UpdateEntryStatus mirrors the guarded UPDATE: settled entries and unknown
// ids fall through with no row affected.
func (f *fakeQueueRepo) UpdateEntryStatus(ctx context.Context, update domain.QueueStatusUpdate) (bool, error) {
	f.updateCalls++
	f.lastUpdate = update
	if f.updateErr != nil {
		return false, f.updateErr
	}
	entry, ok := f.entries[update.DeploymentID]
	if !ok {
		return false, nil
	}
	if entry.Status == domain.QueueStatusCompleted || entry.Status == domain.QueueStatusFailed {
		return false, nil
	}
	entry.Status = update.Status
	return true, nil
}

func (f *fakeQueueRepo) CancelEntry(ctx context.Context, id, message string) (bool, error) {
	f.cancelCalls++
	entry, ok := f.entries[id]
	if !ok || entry.Status != domain.QueueStatusQueued {
		return false, nil
	}
	entry.Status = domain.QueueStatusFailed
	entry.ErrorMessage = &message
	return true, nil
}

func (f *fakeQueueRepo) RetryEntry(ctx context.Context, id string) error {
	entry, ok := f.entries[id]
	if !ok || entry.Status != domain.QueueStatusFailed {
		return repository.ErrNotFound
	}
	entry.Status = domain.QueueStatusQueued
	entry.AttemptCount = 0
	entry.ErrorMessage = nil
	entry.StartedAt = nil
	entry.CompletedAt = nil
	return nil
}

func (f *fakeQueueRepo) DeleteEntry(ctx context.Context, id string) error {
	entry, ok := f.entries[id]
	if !ok {
		return repository.ErrNotFound
	}
	if entry.Status != domain.QueueStatusCompleted && entry.Status != domain.QueueStatusFailed {
		return repository.ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeQueueRepo) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.deletedBefore = cutoff
	return f.deleteCount, nil
}

func (f *fakeQueueRepo) Stats(ctx context.Context) (domain.QueueStats, error) {
	stats := domain.QueueStats{}
	for _, entry := range f.entries {
		switch entry.Status {
		case domain.QueueStatusQueued:
			stats.Queued++
		case domain.QueueStatusProcessing:
			stats.Processing++
		}
	}
	return stats, nil
}

type fakeLogRepo struct {
	logs      []domain.QueueLog
	appendErr error
}

func (f *fakeLogRepo) AppendLog(ctx context.Context, entry *domain.QueueLog) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	entry.ID = int64(len(f.logs) + 1)
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeLogRepo) ListLogsByDeployment(ctx context.Context, id string, limit, offset int) ([]domain.QueueLog, error) {
	var out []domain.QueueLog
	for _, l := range f.logs {
		if l.DeploymentID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

// captureSubscriber records hub payloads for assertions.
type captureSubscriber struct {
	payloads chan []byte
}

func newCaptureSubscriber() *captureSubscriber {
	return &captureSubscriber{payloads: make(chan []byte, 16)}
}

func (c *captureSubscriber) Send(payload []byte) error {
	c.payloads <- payload
	return nil
}

func (c *captureSubscriber) Close() {}

func (c *captureSubscriber) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case payload := <-c.payloads:
		var event map[string]any
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("event not valid JSON: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func newTestService(t *testing.T, entries *fakeQueueRepo, logs *fakeLogRepo) Service {
	t.Helper()
	hub := ws.NewHub()
	t.Cleanup(hub.Close)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(entries, logs, hub, log)
}

func TestEnqueueDefaults(t *testing.T) {
	repo := newFakeQueueRepo()
	svc := newTestService(t, repo, &fakeLogRepo{})

	entry, err := svc.Enqueue(context.Background(), EnqueueInput{
		ProjectID: "proj-1",
		Payload:   domain.QueuePayload{Subdomain: "myshop", ArchivePath: "/tmp/a.zip"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("expected generated id")
	}
	if entry.Status != domain.QueueStatusQueued {
		t.Fatalf("expected queued status, got %s", entry.Status)
	}
	if entry.Priority != 0 {
		t.Fatalf("expected default priority 0, got %d", entry.Priority)
	}
	if entry.MaxAttempts != defaultMaxAttempts {
		t.Fatalf("expected max attempts %d, got %d", defaultMaxAttempts, entry.MaxAttempts)
	}
	if _, ok := repo.entries[entry.ID]; !ok {
		t.Fatal("entry not persisted")
	}
}

func TestPositionRanksByPriorityThenArrival(t *testing.T) {
	repo := newFakeQueueRepo()
	svc := newTestService(t, repo, &fakeLogRepo{})

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	ids := []string{"d1", "d2", "d3", "d4"}
	priorities := []int{0, 0, 5, 0}
	for i, id := range ids {
		repo.entries[id] = &domain.QueueEntry{
			ID:        id,
			ProjectID: "proj-1",
			Status:    domain.QueueStatusQueued,
			Priority:  priorities[i],
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}

	want := map[string]int{"d1": 2, "d2": 3, "d3": 1, "d4": 4}
	for id, expected := range want {
		pos, status, err := svc.Position(context.Background(), id)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", id, err)
		}
		if status != domain.QueueStatusQueued {
			t.Fatalf("%s: unexpected status %s", id, status)
		}
		if pos != expected {
			t.Fatalf("%s: expected position %d, got %d", id, expected, pos)
		}
	}
}

func TestPositionNonQueuedReportsZero(t *testing.T) {
	repo := newFakeQueueRepo()
	repo.entries["d1"] = &domain.QueueEntry{ID: "d1", Status: domain.QueueStatusProcessing}
	svc := newTestService(t, repo, &fakeLogRepo{})

	pos, status, err := svc.Position(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos != 0 || status != domain.QueueStatusProcessing {
		t.Fatalf("expected position 0 with processing status, got %d %s", pos, status)
	}
}

func TestCancelQueuedPublishesFailedEvent(t *testing.T) {
	repo := newFakeQueueRepo()
	repo.entries["d1"] = &domain.QueueEntry{ID: "d1", Status: domain.QueueStatusQueued}
	svc := newTestService(t, repo, &fakeLogRepo{})

	sub := newCaptureSubscriber()
	svc.Hub().Subscribe("d1", sub)

	if err := svc.Cancel(context.Background(), "d1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.entries["d1"].Status != domain.QueueStatusFailed {
		t.Fatalf("expected failed status, got %s", repo.entries["d1"].Status)
	}
	if msg := repo.entries["d1"].ErrorMessage; msg == nil || *msg != CancelMessage {
		t.Fatalf("expected fixed cancel message, got %v", msg)
	}
	event := sub.next(t)
	if event["type"] != "failed" || event["error"] != CancelMessage {
		t.Fatalf("unexpected event: %v", event)
	}
}

func TestCancelNonQueuedIsNoOp(t *testing.T) {
	repo := newFakeQueueRepo()
	repo.entries["d1"] = &domain.QueueEntry{ID: "d1", Status: domain.QueueStatusProcessing}
	svc := newTestService(t, repo, &fakeLogRepo{})

	if err := svc.Cancel(context.Background(), "d1"); err != nil {
		t.Fatalf("cancel must be a no-op, got %v", err)
	}
	if repo.entries["d1"].Status != domain.QueueStatusProcessing {
		t.Fatalf("processing entry was mutated: %s", repo.entries["d1"].Status)
	}
}

func TestRetryOnlyFromFailed(t *testing.T) {
	repo := newFakeQueueRepo()
	msg := "build exploded"
	started := time.Now().Add(-time.Hour)
	repo.entries["d1"] = &domain.QueueEntry{
		ID:           "d1",
		Status:       domain.QueueStatusFailed,
		AttemptCount: 2,
		ErrorMessage: &msg,
		StartedAt:    &started,
		CompletedAt:  &started,
	}
	repo.entries["d2"] = &domain.QueueEntry{ID: "d2", Status: domain.QueueStatusCompleted}
	svc := newTestService(t, repo, &fakeLogRepo{})

	if err := svc.Retry(context.Background(), "d1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry := repo.entries["d1"]
	if entry.Status != domain.QueueStatusQueued || entry.AttemptCount != 0 ||
		entry.ErrorMessage != nil || entry.StartedAt != nil || entry.CompletedAt != nil {
		t.Fatalf("retry did not reset entry: %+v", entry)
	}

	if err := svc.Retry(context.Background(), "d2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for completed entry, got %v", err)
	}
}

func TestDeleteOnlyTerminalEntries(t *testing.T) {
	repo := newFakeQueueRepo()
	repo.entries["active"] = &domain.QueueEntry{ID: "active", Status: domain.QueueStatusProcessing}
	repo.entries["done"] = &domain.QueueEntry{ID: "done", Status: domain.QueueStatusCompleted}
	svc := newTestService(t, repo, &fakeLogRepo{})

	if err := svc.Delete(context.Background(), "active"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for active entry, got %v", err)
	}
	if err := svc.Delete(context.Background(), "done"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.entries["done"]; ok {
		t.Fatal("terminal entry not deleted")
	}
}

func TestCleanupValidatesDays(t *testing.T) {
	repo := newFakeQueueRepo()
	svc := newTestService(t, repo, &fakeLogRepo{})

	if _, err := svc.CleanupOlderThan(context.Background(), 0); !errors.Is(err, repository.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	repo.deleteCount = 7
	deleted, err := svc.CleanupOlderThan(context.Background(), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 7 {
		t.Fatalf("expected 7 deleted, got %d", deleted)
	}
	age := time.Since(repo.deletedBefore)
	if age < 29*24*time.Hour || age > 31*24*time.Hour {
		t.Fatalf("cutoff not ~30 days back: %v", repo.deletedBefore)
	}
}

func TestProcessCallbackRejectsInvalidStatus(t *testing.T) {
	repo := newFakeQueueRepo()
	svc := newTestService(t, repo, &fakeLogRepo{})

	err := svc.ProcessCallback(context.Background(), CallbackPayload{
		DeploymentID: "d1",
		Status:       "exploded",
	})
	if !errors.Is(err, repository.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("expected no status updates, got %d", repo.updateCalls)
	}
}

func TestProcessCallbackPublishesDerivedEvents(t *testing.T) {
	cases := []struct {
		status string
		event  string
	}{
		{domain.QueueStatusProcessing, "started"},
		{domain.QueueStatusCompleted, "completed"},
		{domain.QueueStatusFailed, "failed"},
	}
	for _, tc := range cases {
		repo := newFakeQueueRepo()
		repo.entries["d1"] = &domain.QueueEntry{ID: "d1", Status: domain.QueueStatusQueued}
		svc := newTestService(t, repo, &fakeLogRepo{})
		sub := newCaptureSubscriber()
		svc.Hub().Subscribe("d1", sub)

		err := svc.ProcessCallback(context.Background(), CallbackPayload{
			DeploymentID: "d1",
			Status:       tc.status,
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.status, err)
		}
		event := sub.next(t)
		if event["type"] != tc.event {
			t.Fatalf("%s: expected event %q, got %v", tc.status, tc.event, event["type"])
		}
		if event["deployment_id"] != "d1" {
			t.Fatalf("%s: unexpected deployment id: %v", tc.status, event["deployment_id"])
		}
	}
}

func TestProcessCallbackPropagatesNotFound(t *testing.T) {
	repo := newFakeQueueRepo()
	svc := newTestService(t, repo, &fakeLogRepo{})

	err := svc.ProcessCallback(context.Background(), CallbackPayload{
		DeploymentID: "missing",
		Status:       domain.QueueStatusCompleted,
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProcessCallbackIgnoresSettledDeployment(t *testing.T) {
	completedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for _, settled := range []string{domain.QueueStatusCompleted, domain.QueueStatusFailed} {
		repo := newFakeQueueRepo()
		repo.entries["d1"] = &domain.QueueEntry{
			ID:          "d1",
			Status:      settled,
			CompletedAt: &completedAt,
		}
		svc := newTestService(t, repo, &fakeLogRepo{})
		sub := newCaptureSubscriber()
		svc.Hub().Subscribe("d1", sub)

		err := svc.ProcessCallback(context.Background(), CallbackPayload{
			DeploymentID: "d1",
			Status:       domain.QueueStatusProcessing,
		})
		if err != nil {
			t.Fatalf("%s: retransmitted callback must be a no-op, got %v", settled, err)
		}
		if got := repo.entries["d1"].Status; got != settled {
			t.Fatalf("%s: settled entry was resurrected to %s", settled, got)
		}
		select {
		case payload := <-sub.payloads:
			t.Fatalf("%s: unexpected event published: %s", settled, payload)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestAppendLogPersistsAndStreams(t *testing.T) {
	repo := newFakeQueueRepo()
	logs := &fakeLogRepo{}
	svc := newTestService(t, repo, logs)
	sub := newCaptureSubscriber()
	svc.Hub().Subscribe("d1", sub)

	entry := domain.QueueLog{
		DeploymentID: "d1",
		ProjectID:    "proj-1",
		Message:      "uploading archive",
	}
	if err := svc.AppendLog(context.Background(), &entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs.logs) != 1 {
		t.Fatalf("log not persisted: %v", logs.logs)
	}
	if logs.logs[0].Level != "info" {
		t.Fatalf("expected level defaulted to info, got %q", logs.logs[0].Level)
	}
	event := sub.next(t)
	if event["type"] != "log" || event["message"] != "uploading archive" {
		t.Fatalf("unexpected log event: %v", event)
	}
}
