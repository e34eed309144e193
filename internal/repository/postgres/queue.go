package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pagecraft/pagecraft/internal/domain"
	"github.com/pagecraft/pagecraft/internal/repository"
)

const queueColumns = `id, project_id, customer_id, status, priority, payload,
	attempt_count, max_attempts, error_message, created_at, started_at, completed_at`

// InsertEntry stores a new queued deployment request.
func (r *Repository) InsertEntry(ctx context.Context, entry *domain.QueueEntry) error {
	if entry == nil {
		return fmt.Errorf("queue entry required")
	}
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode queue payload: %w", err)
	}
	const query = `INSERT INTO deployment_queue
		(id, project_id, customer_id, status, priority, payload, attempt_count, max_attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.ProjectID,
		stringPtrToNil(entry.CustomerID),
		entry.Status,
		entry.Priority,
		payload,
		entry.AttemptCount,
		entry.MaxAttempts,
		entry.CreatedAt,
	); err != nil {
		return mapPgError(err)
	}
	return nil
}

// GetEntryByID fetches a queue entry by identifier.
func (r *Repository) GetEntryByID(ctx context.Context, deploymentID string) (*domain.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM deployment_queue WHERE id = $1`
	entry, err := scanQueueEntry(r.pool.QueryRow(ctx, query, deploymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// ListEntriesByProject fetches recent queue entries for a project.
func (r *Repository) ListEntriesByProject(ctx context.Context, projectID string, limit int) ([]domain.QueueEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + queueColumns + ` FROM deployment_queue
		WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.QueueEntry, 0)
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// QueuePosition counts queued entries ranking ahead: strictly higher
// priority, or equal priority with an earlier creation time.
func (r *Repository) QueuePosition(ctx context.Context, entry *domain.QueueEntry) (int, error) {
	const query = `SELECT COUNT(1) FROM deployment_queue
		WHERE status = 'queued' AND id <> $1
		AND (priority > $2 OR (priority = $2 AND created_at < $3))`
	var ahead int
	if err := r.pool.QueryRow(ctx, query, entry.ID, entry.Priority, entry.CreatedAt).Scan(&ahead); err != nil {
		return 0, err
	}
	return ahead + 1, nil
}

// UpdateEntryStatus applies a processor-reported transition. startedAt is
// only ever set on the move to processing, completedAt only on a terminal
// move; both stay put once written. The status predicate keeps late or
// retransmitted callbacks from resurrecting a settled entry, so zero
// affected rows means either no such entry or one already past saving.
func (r *Repository) UpdateEntryStatus(ctx context.Context, update domain.QueueStatusUpdate) (bool, error) {
	const query = `UPDATE deployment_queue SET
			status = $2,
			error_message = COALESCE($3, error_message),
			started_at = CASE WHEN $2 = 'processing' AND started_at IS NULL THEN NOW() ELSE started_at END,
			completed_at = CASE WHEN $2 IN ('completed', 'failed') AND completed_at IS NULL THEN NOW() ELSE completed_at END,
			attempt_count = COALESCE($4, CASE WHEN $2 = 'processing' THEN attempt_count + 1 ELSE attempt_count END)
		WHERE id = $1 AND status NOT IN ('completed', 'failed')`
	var attempts any
	if update.AttemptCount != nil {
		attempts = *update.AttemptCount
	}
	cmdTag, err := r.pool.Exec(ctx, query,
		update.DeploymentID,
		update.Status,
		emptyToNil(update.ErrorMessage),
		attempts,
	)
	if err != nil {
		return false, mapPgError(err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// CancelEntry fails a still-queued entry. Zero affected rows means the
// entry already left the queued state; callers treat that as a no-op.
func (r *Repository) CancelEntry(ctx context.Context, deploymentID, message string) (bool, error) {
	const query = `UPDATE deployment_queue
		SET status = 'failed', error_message = $2, completed_at = NOW()
		WHERE id = $1 AND status = 'queued'`
	cmdTag, err := r.pool.Exec(ctx, query, deploymentID, message)
	if err != nil {
		return false, mapPgError(err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// RetryEntry resets a failed entry for another run.
func (r *Repository) RetryEntry(ctx context.Context, deploymentID string) error {
	const query = `UPDATE deployment_queue
		SET status = 'queued', attempt_count = 0, error_message = NULL,
			started_at = NULL, completed_at = NULL
		WHERE id = $1 AND status = 'failed'`
	cmdTag, err := r.pool.Exec(ctx, query, deploymentID)
	if err != nil {
		return mapPgError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteEntry removes a terminal entry, never in-flight work.
func (r *Repository) DeleteEntry(ctx context.Context, deploymentID string) error {
	const query = `DELETE FROM deployment_queue
		WHERE id = $1 AND status IN ('completed', 'failed')`
	cmdTag, err := r.pool.Exec(ctx, query, deploymentID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteFinishedBefore ages out terminal entries completed before cutoff.
func (r *Repository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM deployment_queue
		WHERE status IN ('completed', 'failed') AND completed_at < $1`
	cmdTag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// Stats recomputes dashboard counts on demand.
func (r *Repository) Stats(ctx context.Context) (domain.QueueStats, error) {
	const query = `SELECT
			COUNT(*) FILTER (WHERE status = 'queued'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status IN ('completed', 'failed') AND completed_at > NOW() - INTERVAL '1 hour')
		FROM deployment_queue`
	var stats domain.QueueStats
	if err := r.pool.QueryRow(ctx, query).Scan(&stats.Queued, &stats.Processing, &stats.FinishedInLastHour); err != nil {
		return domain.QueueStats{}, err
	}
	return stats, nil
}

// AppendLog persists a deployment log line.
func (r *Repository) AppendLog(ctx context.Context, entry *domain.QueueLog) error {
	if entry == nil {
		return fmt.Errorf("queue log required")
	}
	const query = `INSERT INTO deployment_logs (deployment_id, project_id, level, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.pool.QueryRow(ctx, query,
		entry.DeploymentID,
		entry.ProjectID,
		entry.Level,
		entry.Message,
		bytesToNil(entry.Metadata),
		entry.CreatedAt,
	).Scan(&entry.ID); err != nil {
		return mapPgError(err)
	}
	return nil
}

// ListLogsByDeployment fetches log lines for a deployment, oldest first.
func (r *Repository) ListLogsByDeployment(ctx context.Context, deploymentID string, limit, offset int) ([]domain.QueueLog, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `SELECT id, deployment_id, project_id, level, message, metadata, created_at
		FROM deployment_logs WHERE deployment_id = $1 ORDER BY id ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, deploymentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.QueueLog, 0)
	for rows.Next() {
		var (
			l        domain.QueueLog
			metadata []byte
		)
		if err := rows.Scan(&l.ID, &l.DeploymentID, &l.ProjectID, &l.Level, &l.Message, &metadata, &l.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			l.Metadata = append([]byte(nil), metadata...)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueEntry(row rowScanner) (*domain.QueueEntry, error) {
	var (
		entry       domain.QueueEntry
		customer    sql.NullString
		payload     []byte
		errMsg      sql.NullString
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&entry.ID,
		&entry.ProjectID,
		&customer,
		&entry.Status,
		&entry.Priority,
		&payload,
		&entry.AttemptCount,
		&entry.MaxAttempts,
		&errMsg,
		&entry.CreatedAt,
		&startedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}
	if customer.Valid {
		value := customer.String
		entry.CustomerID = &value
	}
	if errMsg.Valid {
		value := errMsg.String
		entry.ErrorMessage = &value
	}
	if startedAt.Valid {
		value := startedAt.Time.UTC()
		entry.StartedAt = &value
	}
	if completedAt.Valid {
		value := completedAt.Time.UTC()
		entry.CompletedAt = &value
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &entry.Payload); err != nil {
			return nil, fmt.Errorf("decode queue payload: %w", err)
		}
	}
	return &entry, nil
}
