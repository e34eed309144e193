package domain

import (
	"encoding/json"
	"time"
)

// Project is a visually-edited website owned by a customer. Read-only to the
// publishing pipeline; content editing happens elsewhere.
type Project struct {
	ID         string
	CustomerID *string
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Page is one exported HTML document. Exactly one page per project carries
// the homepage flag and is emitted as index.html.
type Page struct {
	ID        string
	ProjectID string
	Name      string
	Slug      string
	Homepage  bool
	Published bool
	// Sections, when non-nil, override the per-page section store. Live
	// editors push draft sections inline this way.
	Sections  []Section
	CreatedAt time.Time
}

// Section is one content block within a page, rendered independently.
// Content shape depends on Type; unknown types still render via a generic
// wrapper, so Content stays an opaque JSON payload.
type Section struct {
	ID       string
	PageID   string
	Type     string
	Position int
	Content  json.RawMessage
	Settings json.RawMessage
}

// Known section type tags. The export generator carries a builtin renderer
// for each of these; anything else falls through to the generic wrapper.
const (
	SectionHero     = "hero"
	SectionText     = "text"
	SectionImage    = "image"
	SectionCards    = "cards"
	SectionCTA      = "cta"
	SectionFeatures = "features"
)

// StyleConfig is the flat record of design tokens attached to a project.
// Empty fields emit no CSS variable; component rules supply fallbacks.
type StyleConfig struct {
	ProjectID        string
	PrimaryColor     string
	SecondaryColor   string
	BackgroundColor  string
	TextColor        string
	HeadingFont      string
	BodyFont         string
	ButtonBackground string
	ButtonText       string
	ButtonBorder     string
	ButtonHoverBg    string
	ButtonHoverText  string
	ButtonSize       string
	ButtonRadius     string
	ButtonFontWeight string
}
