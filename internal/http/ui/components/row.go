package components

import (
	"html"
	"html/template"
	"strings"
)

const (
	rowClass         = "table-row"
	rowLinkClass     = "table-row-link"
	actionsCellClass = "table-cell table-cell-actions"
)

// Action describes one entry of a row's overflow menu: a label, the URL it
// drives, and an optional icon class.
type Action struct {
	Label string
	// Target is the URL the action invokes.
	Target string
	// Method selects the htmx verb; empty means GET.
	Method string
	// Icon is a CSS class for the action's icon element. Icon rendering
	// itself belongs to the stylesheet.
	Icon string
}

// RowConfig configures a body row.
type RowConfig struct {
	Class string
	Attrs Attrs

	// LinkTo makes the whole row navigate to the given target on click.
	LinkTo string
	// Target is the htmx swap target for LinkTo navigation. Optional.
	Target string
	// Actions, when non-empty, appends one extra trailing cell holding the
	// actions menu. Clicks inside that cell never trigger LinkTo.
	Actions []Action
}

// Row renders a <tr>. With LinkTo set the row carries click navigation and
// the pointer-cursor class; with Actions set exactly one extra cell is
// appended after the supplied children.
func Row(cfg RowConfig, children ...template.HTML) template.HTML {
	var b strings.Builder
	b.WriteString("<tr")

	class := rowClass
	if cfg.LinkTo != "" {
		class = class + " " + rowLinkClass
	}
	writeClass(&b, mergeClasses(class, cfg.Class))

	if cfg.LinkTo != "" {
		b.WriteString(` hx-get="` + html.EscapeString(cfg.LinkTo) + `" hx-push-url="true"`)
		writeTarget(&b, cfg.Target)
	}
	writeAttrs(&b, cfg.Attrs)
	b.WriteString(">")

	for _, c := range children {
		b.WriteString(string(c))
	}
	if len(cfg.Actions) > 0 {
		writeActionsCell(&b, cfg)
	}
	b.WriteString("</tr>")
	return template.HTML(b.String()) //nolint:gosec // children are trusted fragments, text is escaped at write sites
}

// writeActionsCell renders the trailing actions cell. The cell stops click
// propagation so opening the menu never fires the row's navigation.
func writeActionsCell(b *strings.Builder, cfg RowConfig) {
	b.WriteString(`<td class="` + actionsCellClass + `" hx-on:click="event.stopPropagation()">`)
	b.WriteString(`<details class="actions-menu">`)
	b.WriteString(`<summary class="actions-trigger" aria-label="Row actions"></summary>`)
	b.WriteString(`<ul class="actions-list">`)
	for _, a := range cfg.Actions {
		writeAction(b, a, cfg.Target)
	}
	b.WriteString("</ul></details></td>")
}

func writeAction(b *strings.Builder, a Action, target string) {
	verb := "hx-get"
	switch strings.ToLower(a.Method) {
	case "", "get":
	case "post":
		verb = "hx-post"
	case "delete":
		verb = "hx-delete"
	case "put":
		verb = "hx-put"
	}

	b.WriteString(`<li><button type="button" class="actions-item" `)
	b.WriteString(verb + `="` + html.EscapeString(a.Target) + `"`)
	if verb == "hx-get" {
		b.WriteString(` hx-push-url="true"`)
		writeTarget(b, target)
	}
	b.WriteString(">")
	if a.Icon != "" {
		b.WriteString(`<span class="icon ` + html.EscapeString(a.Icon) + `" aria-hidden="true"></span>`)
	}
	b.WriteString(html.EscapeString(a.Label))
	b.WriteString("</button></li>")
}
