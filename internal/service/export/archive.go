package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pagecraft/pagecraft/internal/domain"
)

// Package serialises an export bundle into a deflate-compressed zip archive:
// pages at the root, assets under their own paths, plus manifest.json.
func Package(result *domain.ExportResult) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(path string, content []byte) error {
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     path,
			Method:   zip.Deflate,
			Modified: result.Manifest.ExportedAt,
		})
		if err != nil {
			return fmt.Errorf("create archive entry %s: %w", path, err)
		}
		if _, err := f.Write(content); err != nil {
			return fmt.Errorf("write archive entry %s: %w", path, err)
		}
		return nil
	}

	for _, page := range result.Pages {
		if err := write(page.Filename, []byte(page.HTML)); err != nil {
			return nil, err
		}
	}
	for _, asset := range result.Assets {
		if err := write(asset.Path, asset.Content); err != nil {
			return nil, err
		}
	}
	manifest, err := json.MarshalIndent(result.Manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := write("manifest.json", append(manifest, '\n')); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
