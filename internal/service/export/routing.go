package export

import (
	"encoding/json"

	"github.com/pagecraft/pagecraft/internal/domain"
	"github.com/pagecraft/pagecraft/internal/style"
)

// routingRule maps a clean URL onto the flat exported filename.
type routingRule struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Status int    `json:"status"`
}

type routingArtifact struct {
	Rules   []routingRule     `json:"rules"`
	Headers map[string]string `json:"headers"`
}

// securityHeaders are attached to every served page of an exported site.
var securityHeaders = map[string]string{
	"X-Frame-Options":        "DENY",
	"X-Content-Type-Options": "nosniff",
	"X-XSS-Protection":       "1; mode=block",
}

// routingAsset builds the routing artifact. The homepage is served at the
// root by convention; every other page gets a clean-URL rewrite onto its
// flat filename.
func routingAsset(pages []domain.ExportedPage) domain.Asset {
	artifact := routingArtifact{
		Rules:   []routingRule{},
		Headers: securityHeaders,
	}
	for _, page := range pages {
		if page.Homepage {
			continue
		}
		artifact.Rules = append(artifact.Rules, routingRule{
			From:   "/" + page.Slug,
			To:     "/" + page.Filename,
			Status: 200,
		})
	}
	content, _ := json.MarshalIndent(artifact, "", "  ")
	return domain.Asset{
		Path:    "routing.json",
		Content: append(content, '\n'),
		Kind:    domain.AssetRouting,
	}
}

// stylesheetAsset is the single shared CSS file every exported page links.
func stylesheetAsset(cfg domain.StyleConfig) domain.Asset {
	return domain.Asset{
		Path:    "assets/styles.css",
		Content: []byte(style.Stylesheet(cfg)),
		Kind:    domain.AssetCSS,
	}
}
