// Package style turns a project's flat design-token record into CSS. Two
// output modes exist: variable-based component rules for exported sites and
// inline-value rules for isolated previews where the :root cascade cannot be
// relied on. Both must compute to identical effective values.
package style

import (
	"fmt"
	"strings"

	"github.com/pagecraft/pagecraft/internal/domain"
)

// Mode selects how component rules reference token values.
type Mode int

const (
	// ModeVariables emits var(--name, fallback) references.
	ModeVariables Mode = iota
	// ModeInline bakes literal values into the component rules.
	ModeInline
)

// token binds a style field to its CSS custom property and fallback.
type token struct {
	name     string
	fallback string
	value    func(domain.StyleConfig) string
}

var tokens = []token{
	{"--color-primary", "#1a1a2e", func(c domain.StyleConfig) string { return c.PrimaryColor }},
	{"--color-secondary", "#4a4a68", func(c domain.StyleConfig) string { return c.SecondaryColor }},
	{"--color-background", "#ffffff", func(c domain.StyleConfig) string { return c.BackgroundColor }},
	{"--color-text", "#111111", func(c domain.StyleConfig) string { return c.TextColor }},
	{"--font-heading", "Georgia, serif", func(c domain.StyleConfig) string { return c.HeadingFont }},
	{"--font-body", "Helvetica, Arial, sans-serif", func(c domain.StyleConfig) string { return c.BodyFont }},
	{"--button-bg", "#1a1a2e", func(c domain.StyleConfig) string { return c.ButtonBackground }},
	{"--button-text", "#ffffff", func(c domain.StyleConfig) string { return c.ButtonText }},
	{"--button-border", "transparent", func(c domain.StyleConfig) string { return c.ButtonBorder }},
	{"--button-hover-bg", "#4a4a68", func(c domain.StyleConfig) string { return c.ButtonHoverBg }},
	{"--button-hover-text", "#ffffff", func(c domain.StyleConfig) string { return c.ButtonHoverText }},
	{"--button-size", "1rem", func(c domain.StyleConfig) string { return buttonSize(c.ButtonSize) }},
	{"--button-radius", radiusSlightlyRounded, func(c domain.StyleConfig) string { return buttonRadiusValue(c.ButtonRadius) }},
	{"--button-weight", "600", func(c domain.StyleConfig) string { return c.ButtonFontWeight }},
}

// Button radius values for the fixed three-way enum. Unrecognized values
// fall back to slightly-rounded.
const (
	radiusSquared         = "0"
	radiusSlightlyRounded = "6px"
	radiusFullyRounded    = "9999px"
)

func buttonRadiusValue(class string) string {
	switch strings.TrimSpace(class) {
	case "squared":
		return radiusSquared
	case "fully-rounded":
		return radiusFullyRounded
	case "slightly-rounded":
		return radiusSlightlyRounded
	case "":
		return ""
	default:
		return radiusSlightlyRounded
	}
}

func buttonSize(size string) string {
	switch strings.TrimSpace(size) {
	case "small":
		return "0.875rem"
	case "large":
		return "1.125rem"
	case "medium":
		return "1rem"
	default:
		return size
	}
}

// Variables renders the :root block. Absent fields emit no custom property
// at all; component rules carry the fallbacks.
func Variables(cfg domain.StyleConfig) string {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, t := range tokens {
		if v := t.value(cfg); v != "" {
			fmt.Fprintf(&b, "  %s: %s;\n", t.name, v)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// ComponentRules renders the static component CSS in the requested mode.
func ComponentRules(cfg domain.StyleConfig, mode Mode) string {
	ref := func(name, fallback string) string {
		if mode == ModeInline {
			return resolve(cfg, name, fallback)
		}
		return fmt.Sprintf("var(%s, %s)", name, fallback)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "body {\n  margin: 0;\n  background: %s;\n  color: %s;\n  font-family: %s;\n}\n",
		ref("--color-background", "#ffffff"),
		ref("--color-text", "#111111"),
		ref("--font-body", "Helvetica, Arial, sans-serif"))
	fmt.Fprintf(&b, "h1, h2, h3 {\n  font-family: %s;\n  color: %s;\n}\n",
		ref("--font-heading", "Georgia, serif"),
		ref("--color-primary", "#1a1a2e"))
	fmt.Fprintf(&b, "a {\n  color: %s;\n}\n", ref("--color-secondary", "#4a4a68"))
	fmt.Fprintf(&b, ".btn {\n  display: inline-block;\n  background: %s;\n  color: %s;\n  border: 1px solid %s;\n  border-radius: %s;\n  font-size: %s;\n  font-weight: %s;\n  padding: 0.6em 1.4em;\n  text-decoration: none;\n  cursor: pointer;\n}\n",
		ref("--button-bg", "#1a1a2e"),
		ref("--button-text", "#ffffff"),
		ref("--button-border", "transparent"),
		ref("--button-radius", radiusSlightlyRounded),
		ref("--button-size", "1rem"),
		ref("--button-weight", "600"))
	fmt.Fprintf(&b, ".btn:hover {\n  background: %s;\n  color: %s;\n}\n",
		ref("--button-hover-bg", "#4a4a68"),
		ref("--button-hover-text", "#ffffff"))
	return b.String()
}

// Stylesheet is the full shared CSS asset for an export: variables block
// followed by variable-based component rules.
func Stylesheet(cfg domain.StyleConfig) string {
	return Variables(cfg) + "\n" + ComponentRules(cfg, ModeVariables)
}

// TokenMap exposes the resolved token values under camelCase keys for use
// in section template contexts.
func TokenMap(cfg domain.StyleConfig) map[string]any {
	return map[string]any{
		"primaryColor":     resolve(cfg, "--color-primary", "#1a1a2e"),
		"secondaryColor":   resolve(cfg, "--color-secondary", "#4a4a68"),
		"backgroundColor":  resolve(cfg, "--color-background", "#ffffff"),
		"textColor":        resolve(cfg, "--color-text", "#111111"),
		"headingFont":      resolve(cfg, "--font-heading", "Georgia, serif"),
		"bodyFont":         resolve(cfg, "--font-body", "Helvetica, Arial, sans-serif"),
		"buttonBackground": resolve(cfg, "--button-bg", "#1a1a2e"),
		"buttonText":       resolve(cfg, "--button-text", "#ffffff"),
		"buttonBorder":     resolve(cfg, "--button-border", "transparent"),
		"buttonHoverBg":    resolve(cfg, "--button-hover-bg", "#4a4a68"),
		"buttonHoverText":  resolve(cfg, "--button-hover-text", "#ffffff"),
		"buttonSize":       resolve(cfg, "--button-size", "1rem"),
		"buttonRadius":     resolve(cfg, "--button-radius", radiusSlightlyRounded),
		"buttonFontWeight": resolve(cfg, "--button-weight", "600"),
	}
}

// resolve returns the configured value for a custom property, or its
// fallback when the field is absent.
func resolve(cfg domain.StyleConfig, name, fallback string) string {
	for _, t := range tokens {
		if t.name == name {
			if v := t.value(cfg); v != "" {
				return v
			}
			return fallback
		}
	}
	return fallback
}
