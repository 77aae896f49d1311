// Package components builds the HTML fragments shared by orderdesk list
// views: the table composite (Table, Head, HeadRow, HeadCell, Body, Row,
// Cell) and the pagination strip. Every builder is stateless; callers pass
// full configuration on each render and receive template.HTML ready to be
// spliced into a page template.
package components

import (
	"html"
	"sort"
	"strings"
)

// Attrs holds additional element attributes forwarded verbatim to the
// rendered markup. Keys are written in sorted order so output is stable.
type Attrs map[string]string

// mergeClasses joins the fixed default class set with a caller-supplied
// class. The defaults are always kept; the caller class extends, never
// replaces.
func mergeClasses(defaults string, extra string) string {
	extra = strings.TrimSpace(extra)
	if extra == "" {
		return defaults
	}
	if defaults == "" {
		return extra
	}
	return defaults + " " + extra
}

// writeAttrs renders attrs as ` key="value"` pairs in sorted key order.
// Values are HTML-escaped; class and the htmx wiring attributes are managed
// by the builders themselves and skipped here to avoid duplicates.
func writeAttrs(b *strings.Builder, attrs Attrs, managed ...string) {
	if len(attrs) == 0 {
		return
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if k == "" || k == "class" || isManaged(k, managed) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(attrs[k]))
		b.WriteString(`"`)
	}
}

func isManaged(key string, managed []string) bool {
	for _, m := range managed {
		if key == m {
			return true
		}
	}
	return false
}

// writeClass renders the class attribute when non-empty.
func writeClass(b *strings.Builder, class string) {
	if class == "" {
		return
	}
	b.WriteString(` class="`)
	b.WriteString(html.EscapeString(class))
	b.WriteString(`"`)
}
