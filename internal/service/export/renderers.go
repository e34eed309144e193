package export

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/pagecraft/pagecraft/internal/domain"
	"github.com/pagecraft/pagecraft/internal/render"
	"github.com/pagecraft/pagecraft/internal/style"
)

// renderPage wraps the rendered sections in the document shell. Sections are
// rendered in position order.
func (s Service) renderPage(project *domain.Project, page domain.Page, sections []domain.Section, cfg domain.StyleConfig) string {
	ordered := make([]domain.Section, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	var body strings.Builder
	for _, section := range ordered {
		body.WriteString(s.renderSection(section, cfg))
		body.WriteByte('\n')
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	doc.WriteString("<meta charset=\"utf-8\">\n")
	doc.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	doc.WriteString(fmt.Sprintf("<title>%s | %s</title>\n", html.EscapeString(page.Name), html.EscapeString(project.Name)))
	doc.WriteString("<link rel=\"stylesheet\" href=\"/assets/styles.css\">\n")
	doc.WriteString("</head>\n<body>\n")
	doc.WriteString(body.String())
	doc.WriteString("</body>\n</html>\n")
	return doc.String()
}

// renderSection resolves the renderer for a section in precedence order:
// registered template, builtin renderer, generic wrapper.
func (s Service) renderSection(section domain.Section, cfg domain.StyleConfig) string {
	content := decodeContent(section.Content)
	if tpl, ok := s.templates[section.Type]; ok {
		ctx := templateContext(section.Type, content, cfg)
		return render.Render(tpl, ctx)
	}
	if builtin, ok := builtinRenderers[section.Type]; ok {
		return builtin(render.Enrich(content))
	}
	return renderGeneric(section)
}

func decodeContent(raw json.RawMessage) map[string]any {
	content := make(map[string]any)
	if len(raw) > 0 {
		// Malformed content falls through to an empty context rather than
		// failing the export.
		_ = json.Unmarshal(raw, &content)
	}
	return content
}

// templateContext merges section content with the section type and resolved
// style tokens for registered templates.
func templateContext(sectionType string, content map[string]any, cfg domain.StyleConfig) map[string]any {
	ctx := make(map[string]any, len(content)+2)
	for k, v := range content {
		ctx[k] = v
	}
	ctx["sectionType"] = sectionType
	ctx["style"] = style.TokenMap(cfg)
	return ctx
}

type renderer func(content map[string]any) string

var builtinRenderers = map[string]renderer{
	domain.SectionHero:     renderHero,
	domain.SectionText:     renderText,
	domain.SectionImage:    renderImage,
	domain.SectionCards:    renderCards,
	domain.SectionCTA:      renderCTA,
	domain.SectionFeatures: renderFeatures,
}

func str(content map[string]any, key string) string {
	v, ok := content[key]
	if !ok {
		return ""
	}
	return render.Stringify(v)
}

func esc(content map[string]any, key string) string {
	return html.EscapeString(str(content, key))
}

func items(content map[string]any, keys ...string) []map[string]any {
	for _, key := range keys {
		list, ok := content[key].([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func renderHero(content map[string]any) string {
	var b strings.Builder
	b.WriteString("<section class=\"section section-hero\">")
	if heading := esc(content, "heading"); heading != "" {
		b.WriteString("<h1>" + heading + "</h1>")
	}
	if sub := esc(content, "subheading"); sub != "" {
		b.WriteString("<p class=\"hero-subheading\">" + sub + "</p>")
	}
	if label := esc(content, "buttonText"); label != "" {
		href := str(content, "buttonUrl")
		if href == "" {
			href = "#"
		}
		b.WriteString("<a class=\"btn\" href=\"" + html.EscapeString(href) + "\">" + label + "</a>")
	}
	b.WriteString("</section>")
	return b.String()
}

func renderText(content map[string]any) string {
	var b strings.Builder
	b.WriteString("<section class=\"section section-text\">")
	if heading := esc(content, "heading"); heading != "" {
		b.WriteString("<h2>" + heading + "</h2>")
	}
	if body := esc(content, "body"); body != "" {
		b.WriteString("<p>" + body + "</p>")
	}
	b.WriteString("</section>")
	return b.String()
}

func renderImage(content map[string]any) string {
	var b strings.Builder
	b.WriteString("<section class=\"section section-image\">")
	if src := str(content, "imageUrl"); src != "" {
		alt := esc(content, "altText")
		b.WriteString("<img src=\"" + html.EscapeString(src) + "\" alt=\"" + alt + "\">")
	}
	if caption := esc(content, "caption"); caption != "" {
		b.WriteString("<figcaption>" + caption + "</figcaption>")
	}
	b.WriteString("</section>")
	return b.String()
}

func renderCards(content map[string]any) string {
	var b strings.Builder
	b.WriteString("<section class=\"section section-cards\">")
	if heading := esc(content, "heading"); heading != "" {
		b.WriteString("<h2>" + heading + "</h2>")
	}
	b.WriteString("<div class=\"cards\">")
	for _, card := range items(content, "cards", "items") {
		b.WriteString("<div class=\"card\">")
		if icon, _ := card["icon"].(string); icon != "" {
			b.WriteString("<span class=\"icon icon-" + html.EscapeString(icon) + "\"></span>")
		}
		if title := esc(card, "title"); title != "" {
			b.WriteString("<h3>" + title + "</h3>")
		}
		if body := esc(card, "description"); body != "" {
			b.WriteString("<p>" + body + "</p>")
		}
		b.WriteString("</div>")
	}
	b.WriteString("</div></section>")
	return b.String()
}

func renderCTA(content map[string]any) string {
	var b strings.Builder
	b.WriteString("<section class=\"section section-cta\">")
	if heading := esc(content, "heading"); heading != "" {
		b.WriteString("<h2>" + heading + "</h2>")
	}
	if label := esc(content, "buttonText"); label != "" {
		href := str(content, "buttonUrl")
		if href == "" {
			href = "#"
		}
		b.WriteString("<a class=\"btn\" href=\"" + html.EscapeString(href) + "\">" + label + "</a>")
	}
	b.WriteString("</section>")
	return b.String()
}

func renderFeatures(content map[string]any) string {
	var b strings.Builder
	b.WriteString("<section class=\"section section-features\">")
	if heading := esc(content, "heading"); heading != "" {
		b.WriteString("<h2>" + heading + "</h2>")
	}
	b.WriteString("<ul class=\"features\">")
	for i := 1; i <= 4; i++ {
		feature := str(content, fmt.Sprintf("feature%d", i))
		if feature == "" {
			continue
		}
		b.WriteString("<li>" + html.EscapeString(feature) + "</li>")
	}
	for _, feature := range items(content, "features") {
		b.WriteString("<li>")
		if icon, _ := feature["icon"].(string); icon != "" {
			b.WriteString("<span class=\"icon icon-" + html.EscapeString(icon) + "\"></span>")
		}
		b.WriteString(esc(feature, "title") + "</li>")
	}
	b.WriteString("</ul></section>")
	return b.String()
}

// renderGeneric wraps section content verbatim so unknown section types
// survive an export instead of disappearing from the page.
func renderGeneric(section domain.Section) string {
	payload := strings.TrimSpace(string(section.Content))
	if payload == "" {
		payload = "{}"
	}
	return fmt.Sprintf("<section class=\"section section-generic\" data-type=%q><pre>%s</pre></section>",
		section.Type, html.EscapeString(payload))
}
