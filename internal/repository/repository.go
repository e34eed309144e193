package repository

import (
	"context"
	"time"

	"github.com/pagecraft/pagecraft/internal/domain"
)

// SiteRepository reads the visually-edited site content. The publishing
// pipeline never writes these tables.
type SiteRepository interface {
	GetProjectByID(ctx context.Context, projectID string) (*domain.Project, error)
	GetStyleConfig(ctx context.Context, projectID string) (*domain.StyleConfig, error)
	ListPublishedPages(ctx context.Context, projectID string) ([]domain.Page, error)
	ListSectionsByPage(ctx context.Context, pageID string) ([]domain.Section, error)
}

// QueueRepository stores durable deployment requests.
type QueueRepository interface {
	InsertEntry(ctx context.Context, entry *domain.QueueEntry) error
	GetEntryByID(ctx context.Context, deploymentID string) (*domain.QueueEntry, error)
	ListEntriesByProject(ctx context.Context, projectID string, limit int) ([]domain.QueueEntry, error)
	// QueuePosition counts queued entries ranking ahead of the given entry:
	// strictly higher priority, or equal priority created earlier.
	QueuePosition(ctx context.Context, entry *domain.QueueEntry) (int, error)
	// UpdateEntryStatus applies a processor-reported transition to an entry
	// that is still in flight. Entries already completed or failed are left
	// untouched; it reports whether a row changed.
	UpdateEntryStatus(ctx context.Context, update domain.QueueStatusUpdate) (bool, error)
	// CancelEntry marks a queued entry failed; it reports whether a row was
	// affected, which is false for any entry no longer queued.
	CancelEntry(ctx context.Context, deploymentID, message string) (bool, error)
	// RetryEntry resets a failed entry to queued, clearing attempts, error
	// and timestamps. Non-failed targets yield ErrNotFound.
	RetryEntry(ctx context.Context, deploymentID string) error
	// DeleteEntry removes a terminal entry; active entries yield ErrNotFound.
	DeleteEntry(ctx context.Context, deploymentID string) error
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context) (domain.QueueStats, error)
}

// QueueLogRepository handles deployment log persistence and retrieval.
type QueueLogRepository interface {
	AppendLog(ctx context.Context, entry *domain.QueueLog) error
	ListLogsByDeployment(ctx context.Context, deploymentID string, limit, offset int) ([]domain.QueueLog, error)
}
