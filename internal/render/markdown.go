// Package render turns extracted instances into human-readable output.
// Field order follows the descriptor, not map iteration, so a document
// renders the same way every time.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docentlabs/docent/internal/schema"
)

// Markdown renders an extracted instance as a nested Markdown list headed
// by the schema display name, or by the instance's title field when one
// is present.
func Markdown(desc *schema.Descriptor, instance map[string]any, catalog *schema.Catalog) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(title(desc, instance))
	b.WriteString("\n\n")
	writeObject(&b, desc, instance, catalog, 0)
	return b.String()
}

func title(desc *schema.Descriptor, instance map[string]any) string {
	for _, name := range []string{"title", "agreement_title", "name"} {
		if v, ok := instance[name].(string); ok && v != "" {
			return v
		}
	}
	return desc.Name
}

// writeObject emits fields in descriptor order, then any remaining keys
// alphabetically. Absent optional fields are skipped.
func writeObject(b *strings.Builder, desc *schema.Descriptor, instance map[string]any, catalog *schema.Catalog, indent int) {
	seen := make(map[string]bool, len(desc.Fields))
	for _, f := range desc.Fields {
		seen[f.Name] = true
		v, ok := instance[f.Name]
		if !ok || v == nil {
			continue
		}
		writeField(b, f.Name, &f.Type, v, catalog, indent)
	}

	var rest []string
	for k := range instance {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		if instance[k] == nil {
			continue
		}
		writeField(b, k, nil, instance[k], catalog, indent)
	}
}

func writeField(b *strings.Builder, name string, t *schema.FieldType, v any, catalog *schema.Catalog, indent int) {
	pad := strings.Repeat("  ", indent)

	switch val := v.(type) {
	case map[string]any:
		fmt.Fprintf(b, "%s- **%s:**\n", pad, prettify(name))
		if t != nil && t.Kind == schema.KindObject && catalog != nil {
			if child, ok := catalog.Get(t.Ref); ok {
				writeObject(b, child, val, catalog, indent+1)
				return
			}
		}
		writeMap(b, val, catalog, indent+1)
	case []any:
		fmt.Fprintf(b, "%s- **%s:**\n", pad, prettify(name))
		childPad := strings.Repeat("  ", indent+1)
		for _, item := range val {
			switch iv := item.(type) {
			case map[string]any:
				fmt.Fprintf(b, "%s-\n", childPad)
				writeMap(b, iv, catalog, indent+2)
			default:
				fmt.Fprintf(b, "%s- %s\n", childPad, scalar(iv))
			}
		}
	default:
		fmt.Fprintf(b, "%s- **%s:** %s\n", pad, prettify(name), scalar(val))
	}
}

// writeMap renders a map with no descriptor guidance, keys sorted.
func writeMap(b *strings.Builder, m map[string]any, catalog *schema.Catalog, indent int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if m[k] == nil {
			continue
		}
		writeField(b, k, nil, m[k], catalog, indent)
	}
}

func scalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// prettify turns snake_case field names into Title Case labels.
func prettify(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
