package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/pagecraft/pagecraft/internal/domain"
	"github.com/pagecraft/pagecraft/internal/hosting"
	"github.com/pagecraft/pagecraft/internal/ratelimit"
	"github.com/pagecraft/pagecraft/internal/repository"
	"github.com/pagecraft/pagecraft/internal/service/export"
	"github.com/pagecraft/pagecraft/internal/service/publish"
	"github.com/pagecraft/pagecraft/internal/service/queue"
	"github.com/pagecraft/pagecraft/internal/ws"
)

const testProcessorToken = "processor-secret"

type memorySiteRepo struct {
	project *domain.Project
	pages   []domain.Page
}

func (m *memorySiteRepo) GetProjectByID(ctx context.Context, projectID string) (*domain.Project, error) {
	if m.project == nil || m.project.ID != projectID {
		return nil, repository.ErrNotFound
	}
	return m.project, nil
}

func (m *memorySiteRepo) GetStyleConfig(ctx context.Context, projectID string) (*domain.StyleConfig, error) {
	return &domain.StyleConfig{}, nil
}

func (m *memorySiteRepo) ListPublishedPages(ctx context.Context, projectID string) ([]domain.Page, error) {
	return m.pages, nil
}

func (m *memorySiteRepo) ListSectionsByPage(ctx context.Context, pageID string) ([]domain.Section, error) {
	return nil, nil
}

type memoryQueueRepo struct {
	entries map[string]*domain.QueueEntry
}

func (m *memoryQueueRepo) InsertEntry(ctx context.Context, entry *domain.QueueEntry) error {
	clone := *entry
	m.entries[entry.ID] = &clone
	return nil
}

func (m *memoryQueueRepo) GetEntryByID(ctx context.Context, id string) (*domain.QueueEntry, error) {
	entry, ok := m.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *entry
	return &clone, nil
}

func (m *memoryQueueRepo) ListEntriesByProject(ctx context.Context, projectID string, limit int) ([]domain.QueueEntry, error) {
	var out []domain.QueueEntry
	for _, entry := range m.entries {
		if entry.ProjectID == projectID {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (m *memoryQueueRepo) QueuePosition(ctx context.Context, entry *domain.QueueEntry) (int, error) {
	ahead := 0
	for _, other := range m.entries {
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

func (m *memoryQueueRepo) UpdateEntryStatus(ctx context.Context, update domain.QueueStatusUpdate) (bool, error) {
	entry, ok := m.entries[update.DeploymentID]
	if !ok {
		return false, nil
	}
	if entry.Status == domain.QueueStatusCompleted || entry.Status == domain.QueueStatusFailed {
		return false, nil
	}
	entry.Status = update.Status
	return true, nil
}

func (m *memoryQueueRepo) CancelEntry(ctx context.Context, id, message string) (bool, error) {
	entry, ok := m.entries[id]
	if !ok || entry.Status != domain.QueueStatusQueued {
		return false, nil
	}
	entry.Status = domain.QueueStatusFailed
	entry.ErrorMessage = &message
	return true, nil
}

func (m *memoryQueueRepo) RetryEntry(ctx context.Context, id string) error {
	entry, ok := m.entries[id]
	if !ok || entry.Status != domain.QueueStatusFailed {
		return repository.ErrNotFound
	}
	entry.Status = domain.QueueStatusQueued
	return nil
}

func (m *memoryQueueRepo) DeleteEntry(ctx context.Context, id string) error {
	entry, ok := m.entries[id]
	if !ok || entry.Status == domain.QueueStatusQueued || entry.Status == domain.QueueStatusProcessing {
		return repository.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *memoryQueueRepo) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *memoryQueueRepo) Stats(ctx context.Context) (domain.QueueStats, error) {
	stats := domain.QueueStats{}
	for _, entry := range m.entries {
		switch entry.Status {
		case domain.QueueStatusQueued:
			stats.Queued++
		case domain.QueueStatusProcessing:
			stats.Processing++
		}
	}
	return stats, nil
}

type memoryLogRepo struct {
	logs []domain.QueueLog
}

func (m *memoryLogRepo) AppendLog(ctx context.Context, entry *domain.QueueLog) error {
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *memoryLogRepo) ListLogsByDeployment(ctx context.Context, id string, limit, offset int) ([]domain.QueueLog, error) {
	return m.logs, nil
}

type routerFixture struct {
	router    *Router
	queueRepo *memoryQueueRepo
	logRepo   *memoryLogRepo
}

func newTestRouter(t *testing.T) routerFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	siteRepo := &memorySiteRepo{
		project: &domain.Project{ID: "proj-1", Name: "Acme"},
		pages: []domain.Page{
			{ID: "page-home", Name: "Home", Slug: "home", Homepage: true},
		},
	}
	queueRepo := &memoryQueueRepo{entries: make(map[string]*domain.QueueEntry)}
	logRepo := &memoryLogRepo{}

	hub := ws.NewHub()
	t.Cleanup(hub.Close)

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]hosting.Site{})
	}))
	t.Cleanup(provider.Close)

	gate := ratelimit.New(100, 6000, 0)
	hostingClient, err := hosting.New(provider.URL, "test-token", gate)
	if err != nil {
		t.Fatalf("hosting client: %v", err)
	}

	exportSvc := export.New(siteRepo, log)
	queueSvc := queue.New(queueRepo, logRepo, hub, log)
	publishSvc := publish.New(exportSvc, queueSvc, t.TempDir(), log)

	router := NewRouter(log, exportSvc, publishSvc, queueSvc, hostingClient, nil, testProcessorToken, nil)
	t.Cleanup(router.Close)

	return routerFixture{router: router, queueRepo: queueRepo, logRepo: logRepo}
}

func doRequest(t *testing.T, router *Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthzOK(t *testing.T) {
	fx := newTestRouter(t)
	rec := doRequest(t, fx.router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
}

func TestPublishFlow(t *testing.T) {
	fx := newTestRouter(t)
	rec := doRequest(t, fx.router, http.MethodPost, "/projects/proj-1/publish", map[string]any{
		"subdomain": "myshop",
		"domain":    "pagecraft.site",
		"priority":  2,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" || payload["status"] != "queued" {
		t.Fatalf("unexpected response: %v", payload)
	}
	if len(fx.queueRepo.entries) != 1 {
		t.Fatalf("expected one queue entry, got %d", len(fx.queueRepo.entries))
	}

	rec = doRequest(t, fx.router, http.MethodGet, "/queue/"+id+"/position", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var position map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &position)
	if position["position"] != float64(1) || position["status"] != "queued" {
		t.Fatalf("unexpected position payload: %v", position)
	}

	rec = doRequest(t, fx.router, http.MethodPost, "/queue/"+id+"/cancel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if fx.queueRepo.entries[id].Status != domain.QueueStatusFailed {
		t.Fatalf("cancel did not mark entry failed: %s", fx.queueRepo.entries[id].Status)
	}
}

func TestPublishReservedSubdomainRejected(t *testing.T) {
	fx := newTestRouter(t)
	rec := doRequest(t, fx.router, http.MethodPost, "/projects/proj-1/publish", map[string]any{
		"subdomain": "www",
		"domain":    "pagecraft.site",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body)
	}
	if len(fx.queueRepo.entries) != 0 {
		t.Fatal("reserved subdomain must not enqueue anything")
	}
}

func TestExportEndpoint(t *testing.T) {
	fx := newTestRouter(t)
	rec := doRequest(t, fx.router, http.MethodPost, "/projects/proj-1/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "index.html") {
		t.Fatalf("expected homepage filename in response: %s", rec.Body)
	}
}

func TestExportUnknownProjectIs404(t *testing.T) {
	fx := newTestRouter(t)
	rec := doRequest(t, fx.router, http.MethodPost, "/projects/nope/export", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body)
	}
}

func TestProcessorCallbackRequiresToken(t *testing.T) {
	fx := newTestRouter(t)
	fx.queueRepo.entries["d1"] = &domain.QueueEntry{ID: "d1", Status: domain.QueueStatusQueued}

	rec := doRequest(t, fx.router, http.MethodPost, "/processor/callback", queue.CallbackPayload{
		DeploymentID: "d1",
		Status:       domain.QueueStatusProcessing,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	payload, _ := json.Marshal(queue.CallbackPayload{
		DeploymentID: "d1",
		Status:       domain.QueueStatusProcessing,
	})
	req := httptest.NewRequest(http.MethodPost, "/processor/callback", bytes.NewReader(payload))
	req.Header.Set("X-Processor-Token", testProcessorToken)
	rec2 := httptest.NewRecorder()
	fx.router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusAccepted {
		t.Fatalf("expected 202 with token, got %d: %s", rec2.Code, rec2.Body)
	}
	if fx.queueRepo.entries["d1"].Status != domain.QueueStatusProcessing {
		t.Fatalf("status not updated: %s", fx.queueRepo.entries["d1"].Status)
	}
}

func TestQueueStats(t *testing.T) {
	fx := newTestRouter(t)
	fx.queueRepo.entries["d1"] = &domain.QueueEntry{ID: "d1", Status: domain.QueueStatusQueued}
	fx.queueRepo.entries["d2"] = &domain.QueueEntry{ID: "d2", Status: domain.QueueStatusProcessing}

	rec := doRequest(t, fx.router, http.MethodGet, "/queue/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var stats domain.QueueStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid stats payload: %v", err)
	}
	if stats.Queued != 1 || stats.Processing != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestDomainCheckRequiresParams(t *testing.T) {
	fx := newTestRouter(t)
	rec := doRequest(t, fx.router, http.MethodGet, "/hosting/domain-check", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = doRequest(t, fx.router, http.MethodGet, "/hosting/domain-check?subdomain=free&domain=pagecraft.site", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var payload map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &payload)
	if payload["available"] != true {
		t.Fatalf("expected available=true, got %v", payload)
	}
}

func TestBulkCleanupValidatesDays(t *testing.T) {
	fx := newTestRouter(t)
	rec := doRequest(t, fx.router, http.MethodDelete, "/queue?days=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = doRequest(t, fx.router, http.MethodDelete, "/queue?days=30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
}
