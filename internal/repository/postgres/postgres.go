package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagecraft/pagecraft/internal/domain"
	"github.com/pagecraft/pagecraft/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.SiteRepository     = (*Repository)(nil)
	_ repository.QueueRepository    = (*Repository)(nil)
	_ repository.QueueLogRepository = (*Repository)(nil)
)

// GetProjectByID fetches project details.
func (r *Repository) GetProjectByID(ctx context.Context, projectID string) (*domain.Project, error) {
	const query = `SELECT id, customer_id, name, created_at, updated_at
		FROM projects WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, projectID)
	var (
		p        domain.Project
		customer sql.NullString
	)
	if err := row.Scan(&p.ID, &customer, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if customer.Valid {
		value := customer.String
		p.CustomerID = &value
	}
	return &p, nil
}

// GetStyleConfig loads the design tokens attached to a project. A project
// without a stored record gets an all-defaults config rather than an error.
func (r *Repository) GetStyleConfig(ctx context.Context, projectID string) (*domain.StyleConfig, error) {
	const query = `SELECT project_id, primary_color, secondary_color, background_color, text_color,
			heading_font, body_font, button_background, button_text, button_border,
			button_hover_bg, button_hover_text, button_size, button_radius, button_font_weight
		FROM style_configs WHERE project_id = $1`
	row := r.pool.QueryRow(ctx, query, projectID)
	var cfg domain.StyleConfig
	if err := row.Scan(
		&cfg.ProjectID,
		&cfg.PrimaryColor,
		&cfg.SecondaryColor,
		&cfg.BackgroundColor,
		&cfg.TextColor,
		&cfg.HeadingFont,
		&cfg.BodyFont,
		&cfg.ButtonBackground,
		&cfg.ButtonText,
		&cfg.ButtonBorder,
		&cfg.ButtonHoverBg,
		&cfg.ButtonHoverText,
		&cfg.ButtonSize,
		&cfg.ButtonRadius,
		&cfg.ButtonFontWeight,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.StyleConfig{ProjectID: projectID}, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// ListPublishedPages returns the project's published pages in edit order.
func (r *Repository) ListPublishedPages(ctx context.Context, projectID string) ([]domain.Page, error) {
	const query = `SELECT id, project_id, name, slug, homepage, published, created_at
		FROM pages WHERE project_id = $1 AND published ORDER BY position ASC, created_at ASC`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := make([]domain.Page, 0)
	for rows.Next() {
		var p domain.Page
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Name, &p.Slug, &p.Homepage, &p.Published, &p.CreatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ListSectionsByPage returns a page's sections in render order.
func (r *Repository) ListSectionsByPage(ctx context.Context, pageID string) ([]domain.Section, error) {
	const query = `SELECT id, page_id, type, position, content, settings
		FROM sections WHERE page_id = $1 ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, query, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := make([]domain.Section, 0)
	for rows.Next() {
		var (
			s        domain.Section
			content  []byte
			settings []byte
		)
		if err := rows.Scan(&s.ID, &s.PageID, &s.Type, &s.Position, &content, &settings); err != nil {
			return nil, err
		}
		if len(content) > 0 {
			s.Content = append([]byte(nil), content...)
		}
		if len(settings) > 0 {
			s.Settings = append([]byte(nil), settings...)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func emptyToNil(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func stringPtrToNil(v *string) any {
	if v == nil {
		return nil
	}
	if strings.TrimSpace(*v) == "" {
		return nil
	}
	return *v
}

func bytesToNil(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return repository.ErrNotFound
		case "23514", "22P02", "23505":
			return repository.ErrInvalidArgument
		}
	}
	return err
}
