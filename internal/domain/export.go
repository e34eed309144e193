package domain

import "time"

// ExportedPage is one generated HTML document inside an export bundle.
type ExportedPage struct {
	Filename string `json:"filename"`
	HTML     string `json:"html"`
	Slug     string `json:"slug"`
	Homepage bool   `json:"homepage"`
}

// Asset kinds emitted by the export generator.
const (
	AssetCSS     = "css"
	AssetRouting = "routing"
)

// Asset is a non-page file inside an export bundle.
type Asset struct {
	Path    string `json:"path"`
	Content []byte `json:"-"`
	Kind    string `json:"kind"`
}

// Manifest summarizes one export run.
type Manifest struct {
	ProjectID   string    `json:"projectId"`
	ProjectName string    `json:"projectName"`
	ExportedAt  time.Time `json:"exportedAt"`
	PageCount   int       `json:"pageCount"`
	AssetCount  int       `json:"assetCount"`
}

// ExportResult is the complete bundle produced for one project. It is built
// fresh on every export call and never persisted; packaging into an archive
// is a separate step.
type ExportResult struct {
	Pages    []ExportedPage
	Assets   []Asset
	Manifest Manifest
	// ImageURLs is the de-duplicated set of image URLs referenced anywhere
	// in section content, sorted, for asset planning.
	ImageURLs []string
}
