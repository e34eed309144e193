// Package render implements the small handlebars-like templating language
// used for section HTML templates. Rendering is a pure function over a
// context map; no construct ever fails, broken paths degrade to empty.
package render

import (
	"fmt"
	"regexp"
	"strings"
)

// Reserved context keys available inside iteration blocks.
const (
	KeyThis  = "this"
	KeyIndex = "@index"
)

var (
	conditionalRe = regexp.MustCompile(`(?s)\{\{#if\s+([\w@.]+)\s*\}\}(.*?)\{\{/if\}\}`)
	iterationRe   = regexp.MustCompile(`(?s)\{\{#each\s+([\w@.]+)\s*\}\}(.*?)\{\{/each\}\}`)
	variableRe    = regexp.MustCompile(`\{\{\s*([\w@.]+)\s*\}\}`)
)

// Render processes template against ctx. Constructs are applied in a fixed
// order: conditional blocks, then iteration blocks, then plain variable
// substitution, so block bodies keep their variables until the final pass.
// The context is enriched exactly once before any pass runs.
func Render(template string, ctx map[string]any) string {
	enriched := Enrich(ctx)
	out := renderConditionals(template, enriched)
	out = renderIterations(out, enriched)
	return renderVariables(out, enriched)
}

func renderConditionals(template string, ctx map[string]any) string {
	return conditionalRe.ReplaceAllStringFunc(template, func(match string) string {
		groups := conditionalRe.FindStringSubmatch(match)
		if Truthy(Lookup(ctx, groups[1])) {
			return groups[2]
		}
		return ""
	})
}

func renderIterations(template string, ctx map[string]any) string {
	return iterationRe.ReplaceAllStringFunc(template, func(match string) string {
		groups := iterationRe.FindStringSubmatch(match)
		items, ok := asSequence(Lookup(ctx, groups[1]))
		if !ok {
			return ""
		}
		var b strings.Builder
		for i, item := range items {
			scope := make(map[string]any, len(ctx)+2)
			for k, v := range ctx {
				scope[k] = v
			}
			scope[KeyThis] = item
			scope[KeyIndex] = i
			b.WriteString(renderVariables(groups[2], scope))
		}
		return b.String()
	})
}

func renderVariables(template string, ctx map[string]any) string {
	return variableRe.ReplaceAllStringFunc(template, func(match string) string {
		groups := variableRe.FindStringSubmatch(match)
		return Stringify(Lookup(ctx, groups[1]))
	})
}

// Lookup resolves a dotted path through nested maps. It never fails; any
// broken path yields nil.
func Lookup(ctx map[string]any, path string) any {
	var current any = ctx
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

// Truthy reports whether a resolved value includes its conditional block.
// false, nil, empty string, empty collection and empty object are falsy;
// everything else, including 0, is truthy.
func Truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	case []any:
		return len(value) > 0
	case map[string]any:
		return len(value) > 0
	default:
		return true
	}
}

// Stringify renders a resolved value for substitution. Missing and null
// resolve to the empty string, never a literal "null".
func Stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		// JSON numbers decode as float64; keep integers unadorned.
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%g", value)
	case int:
		return fmt.Sprintf("%d", value)
	case bool:
		if value {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", value)
	}
}

func asSequence(v any) ([]any, bool) {
	items, ok := v.([]any)
	return items, ok
}
