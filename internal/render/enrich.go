package render

import "fmt"

// defaultIcons is the fixed ordered glyph list assigned to list items that
// carry no icon of their own.
var defaultIcons = []string{"star", "bolt", "shield", "globe", "heart", "gear"}

// defaultNavigation is used when a navigation section supplies no items.
var defaultNavigation = []any{
	map[string]any{"label": "Home", "href": "/"},
	map[string]any{"label": "About", "href": "/about"},
	map[string]any{"label": "Contact", "href": "/contact"},
}

const featureSlots = 4

// Enrich derives defaulted fields from a render context: per-item default
// icons, a featureCount for the optional feature slots, and fallback
// navigation items. It is deterministic, runs once per Render call, and
// never mutates its input.
func Enrich(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx)+2)
	for k, v := range ctx {
		out[k] = v
	}

	for _, key := range []string{"cards", "features", "items"} {
		if items, ok := out[key].([]any); ok {
			out[key] = withDefaultIcons(items)
		}
	}

	count := 0
	for i := 1; i <= featureSlots; i++ {
		if Truthy(out[fmt.Sprintf("feature%d", i)]) {
			count++
		}
	}
	out["featureCount"] = count

	if items, ok := out["navigationItems"].([]any); !ok || len(items) == 0 {
		if _, present := out["navigationItems"]; present || Lookup(out, "sectionType") == "navigation" {
			out["navigationItems"] = defaultNavigation
		}
	}

	return out
}

func withDefaultIcons(items []any) []any {
	enriched := make([]any, len(items))
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			enriched[i] = raw
			continue
		}
		icon, _ := item["icon"].(string)
		if icon != "" {
			enriched[i] = item
			continue
		}
		clone := make(map[string]any, len(item)+1)
		for k, v := range item {
			clone[k] = v
		}
		clone["icon"] = defaultIcons[i%len(defaultIcons)]
		enriched[i] = clone
	}
	return enriched
}
