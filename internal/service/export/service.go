// Package export implements the static site generator: it walks a project's
// published pages, renders every section to HTML, and assembles the export
// bundle (pages, shared CSS, routing artifact, manifest).
package export

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"log/slog"

	"github.com/pagecraft/pagecraft/internal/domain"
	"github.com/pagecraft/pagecraft/internal/repository"
)

// ErrNoPublishedPages aborts an export before any queue submission. It
// carries not-found semantics for callers matching on repository.ErrNotFound.
var ErrNoPublishedPages = fmt.Errorf("%w: project has no published pages", repository.ErrNotFound)

// Service generates export bundles. Section templates are injected at
// construction rather than held in a package-level cache.
type Service struct {
	site      repository.SiteRepository
	templates map[string]string
	logger    *slog.Logger
	now       func() time.Time
}

// Option customises service construction.
type Option func(*Service)

// WithTemplates registers HTML templates by section type. Registered
// templates take precedence over the builtin renderers.
func WithTemplates(templates map[string]string) Option {
	return func(s *Service) {
		for sectionType, tpl := range templates {
			s.templates[sectionType] = tpl
		}
	}
}

// New returns an export service.
func New(site repository.SiteRepository, logger *slog.Logger, opts ...Option) Service {
	s := Service{
		site:      site,
		templates: make(map[string]string),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Generate builds a fresh export bundle for the project. Only published
// pages are exported; a project without any fails with ErrNoPublishedPages.
func (s Service) Generate(ctx context.Context, projectID string) (*domain.ExportResult, error) {
	project, err := s.site.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	styleCfg, err := s.site.GetStyleConfig(ctx, projectID)
	if err != nil {
		return nil, err
	}
	pages, err := s.site.ListPublishedPages(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrNoPublishedPages
	}

	result := &domain.ExportResult{}
	images := make(map[string]struct{})
	for _, page := range pages {
		sections := page.Sections
		if len(sections) == 0 {
			// Embedded sections are the live-edit override; otherwise load
			// from the per-page store.
			sections, err = s.site.ListSectionsByPage(ctx, page.ID)
			if err != nil {
				return nil, err
			}
		}
		html := s.renderPage(project, page, sections, *styleCfg)
		filename := page.Slug + ".html"
		if page.Homepage {
			filename = "index.html"
		}
		result.Pages = append(result.Pages, domain.ExportedPage{
			Filename: filename,
			HTML:     html,
			Slug:     page.Slug,
			Homepage: page.Homepage,
		})
		collectImageURLs(sections, images)
	}

	result.Assets = append(result.Assets,
		stylesheetAsset(*styleCfg),
		routingAsset(result.Pages),
	)
	result.Manifest = domain.Manifest{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		ExportedAt:  s.now().UTC(),
		PageCount:   len(result.Pages),
		AssetCount:  len(result.Assets),
	}
	result.ImageURLs = sortedKeys(images)

	s.logger.Info("export generated",
		"project_id", project.ID,
		"pages", result.Manifest.PageCount,
		"assets", result.Manifest.AssetCount,
		"images", len(result.ImageURLs))
	return result, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".avif", ".ico"}

// collectImageURLs walks section content for image references, building a
// de-duplicated set for asset planning.
func collectImageURLs(sections []domain.Section, out map[string]struct{}) {
	for _, section := range sections {
		walkImageValues("", decodeContent(section.Content), out)
	}
}

func walkImageValues(key string, v any, out map[string]struct{}) {
	switch value := v.(type) {
	case string:
		if isImageURL(key, value) {
			out[value] = struct{}{}
		}
	case map[string]any:
		for k, item := range value {
			walkImageValues(k, item, out)
		}
	case []any:
		for _, item := range value {
			walkImageValues(key, item, out)
		}
	}
}

func isImageURL(key, value string) bool {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return false
	}
	lowerKey := strings.ToLower(key)
	if strings.Contains(lowerKey, "image") || lowerKey == "src" || lowerKey == "icon" || lowerKey == "logo" {
		return true
	}
	lowerValue := strings.ToLower(value)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lowerValue, ext) {
			return true
		}
	}
	return false
}
