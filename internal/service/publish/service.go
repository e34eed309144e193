// Package publish orchestrates the full pipeline: generate an export
// bundle, package it into an archive on disk, and submit the deployment to
// the durable queue.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/google/uuid"

	"github.com/pagecraft/pagecraft/internal/domain"
	"github.com/pagecraft/pagecraft/internal/hosting"
	"github.com/pagecraft/pagecraft/internal/repository"
	"github.com/pagecraft/pagecraft/internal/service/export"
	"github.com/pagecraft/pagecraft/internal/service/queue"
)

// Service runs the export-archive-enqueue pipeline.
type Service struct {
	export     export.Service
	queue      queue.Service
	archiveDir string
	logger     *slog.Logger
}

// New returns a publish service writing archives under archiveDir.
func New(exportSvc export.Service, queueSvc queue.Service, archiveDir string, logger *slog.Logger) Service {
	return Service{
		export:     exportSvc,
		queue:      queueSvc,
		archiveDir: archiveDir,
		logger:     logger,
	}
}

// Input describes one publish request.
type Input struct {
	ProjectID  string
	CustomerID *string
	Subdomain  string
	Domain     string
	Priority   int
}

// Publish exports the project, stores the archive and enqueues the
// deployment. Reserved subdomains are rejected before any work happens.
func (s Service) Publish(ctx context.Context, input Input) (*domain.QueueEntry, error) {
	subdomain := strings.ToLower(strings.TrimSpace(input.Subdomain))
	if subdomain == "" {
		return nil, fmt.Errorf("%w: subdomain is required", repository.ErrInvalidArgument)
	}
	if hosting.IsReserved(subdomain) {
		return nil, fmt.Errorf("%w: subdomain %q is reserved", hosting.ErrReservedName, subdomain)
	}

	result, err := s.export.Generate(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	archive, err := export.Package(result)
	if err != nil {
		return nil, err
	}

	archivePath := filepath.Join(s.archiveDir, uuid.NewString()+".zip")
	if err := os.MkdirAll(s.archiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.WriteFile(archivePath, archive, 0o644); err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}

	entry, err := s.queue.Enqueue(ctx, queue.EnqueueInput{
		ProjectID:  input.ProjectID,
		CustomerID: input.CustomerID,
		Priority:   input.Priority,
		Payload: domain.QueuePayload{
			Subdomain:   subdomain,
			Domain:      input.Domain,
			ArchivePath: archivePath,
		},
	})
	if err != nil {
		// The archive is useless without its queue entry.
		_ = os.Remove(archivePath)
		return nil, err
	}

	s.logger.Info("publish submitted",
		"project_id", input.ProjectID,
		"deployment_id", entry.ID,
		"subdomain", subdomain,
		"archive_bytes", len(archive))
	return entry, nil
}
