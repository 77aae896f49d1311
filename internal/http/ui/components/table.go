package components

import (
	"errors"
	"html"
	"html/template"
	"strings"
)

// Default class sets for the structural table elements. Pages extend these
// via the Class fields; the defaults are never dropped.
const (
	tableClass     = "table"
	tableWrapClass = "table-wrap"
	headClass      = "table-head"
	headRowClass   = "table-head-row"
	headCellClass  = "table-head-cell"
	bodyClass      = "table-body"
	cellClass      = "table-cell"
)

// ErrSearchActionRequired is returned by Table when search is enabled
// without a target for the search box to submit to. This is a contract
// violation by the caller, surfaced before any markup is produced.
var ErrSearchActionRequired = errors.New("components: table search enabled without a search action")

// SelectOption is one entry of a filter dropdown.
type SelectOption struct {
	Value string
	Label string
}

// FilterOption configures one filter control rendered in the toolbar above
// the table. The filtering itself happens server-side; the control only
// submits the chosen value under Name.
type FilterOption struct {
	Name     string
	Label    string
	Options  []SelectOption
	Selected string
}

// TableConfig configures the table root element and its toolbar.
type TableConfig struct {
	// Class extends the default table class set.
	Class string
	// Attrs are forwarded to the <table> element.
	Attrs Attrs

	// FilterOptions renders one filter dropdown per entry, in order.
	// When empty, FilterFragment (if any) is rendered verbatim instead.
	FilterOptions  []FilterOption
	FilterFragment template.HTML
	// FilterAction is the URL filter controls submit to.
	FilterAction string

	// EnableSearch renders a search box in the toolbar. SearchAction is
	// required when enabled; SearchName defaults to "q".
	EnableSearch bool
	SearchAction string
	SearchName   string
	SearchValue  string

	// Target is the htmx swap target for toolbar-initiated requests
	// (e.g. "#content"). Optional.
	Target string
}

// Table renders the table root: an optional toolbar (filters and search)
// followed by the <table> element wrapping the supplied children.
// It returns ErrSearchActionRequired when EnableSearch is set without a
// SearchAction; all other configurations render without error.
func Table(cfg TableConfig, children ...template.HTML) (template.HTML, error) {
	if cfg.EnableSearch && cfg.SearchAction == "" {
		return "", ErrSearchActionRequired
	}

	var b strings.Builder
	b.WriteString(`<div class="` + tableWrapClass + `">`)
	writeToolbar(&b, cfg)
	b.WriteString("<table")
	writeClass(&b, mergeClasses(tableClass, cfg.Class))
	writeAttrs(&b, cfg.Attrs)
	b.WriteString(">")
	for _, c := range children {
		b.WriteString(string(c))
	}
	b.WriteString("</table></div>")
	return template.HTML(b.String()), nil //nolint:gosec // children are trusted fragments, text is escaped at write sites
}

// writeToolbar renders the filter bar and search box above the table.
// Nothing is written when neither is configured.
func writeToolbar(b *strings.Builder, cfg TableConfig) {
	hasFilters := len(cfg.FilterOptions) > 0 || cfg.FilterFragment != ""
	if !hasFilters && !cfg.EnableSearch {
		return
	}

	b.WriteString(`<div class="table-toolbar">`)
	if len(cfg.FilterOptions) > 0 {
		for _, f := range cfg.FilterOptions {
			writeFilterOption(b, cfg, f)
		}
	} else if cfg.FilterFragment != "" {
		b.WriteString(string(cfg.FilterFragment))
	}
	if cfg.EnableSearch {
		writeSearchBox(b, cfg)
	}
	b.WriteString("</div>")
}

func writeFilterOption(b *strings.Builder, cfg TableConfig, f FilterOption) {
	b.WriteString(`<label class="table-filter">`)
	if f.Label != "" {
		b.WriteString(`<span class="table-filter-label">` + html.EscapeString(f.Label) + `</span>`)
	}
	b.WriteString(`<select class="table-filter-select" name="` + html.EscapeString(f.Name) + `"`)
	if cfg.FilterAction != "" {
		b.WriteString(` hx-get="` + html.EscapeString(cfg.FilterAction) + `" hx-trigger="change" hx-push-url="true"`)
		writeTarget(b, cfg.Target)
	}
	b.WriteString(">")
	for _, opt := range f.Options {
		b.WriteString(`<option value="` + html.EscapeString(opt.Value) + `"`)
		if opt.Value == f.Selected {
			b.WriteString(" selected")
		}
		b.WriteString(">" + html.EscapeString(opt.Label) + "</option>")
	}
	b.WriteString("</select></label>")
}

// writeSearchBox renders the search input. The term is forwarded unchanged
// on input: no debouncing and no validation happen client-side.
func writeSearchBox(b *strings.Builder, cfg TableConfig) {
	name := cfg.SearchName
	if name == "" {
		name = "q"
	}
	b.WriteString(`<input type="search" class="table-search" name="` + html.EscapeString(name) + `"`)
	b.WriteString(` value="` + html.EscapeString(cfg.SearchValue) + `"`)
	b.WriteString(` placeholder="Search"`)
	b.WriteString(` hx-get="` + html.EscapeString(cfg.SearchAction) + `" hx-trigger="input" hx-push-url="true"`)
	writeTarget(b, cfg.Target)
	b.WriteString(">")
}

func writeTarget(b *strings.Builder, target string) {
	if target != "" {
		b.WriteString(` hx-target="` + html.EscapeString(target) + `"`)
	}
}

// ElementConfig configures a structural sub-element (Head, HeadRow,
// HeadCell, Body, Cell): a class extension plus forwarded attributes.
type ElementConfig struct {
	Class string
	Attrs Attrs
}

// Head renders the <thead> element.
func Head(cfg ElementConfig, children ...template.HTML) template.HTML {
	return element("thead", headClass, cfg, children)
}

// HeadRow renders a header <tr>.
func HeadRow(cfg ElementConfig, children ...template.HTML) template.HTML {
	return element("tr", headRowClass, cfg, children)
}

// HeadCell renders a <th>.
func HeadCell(cfg ElementConfig, children ...template.HTML) template.HTML {
	return element("th", headCellClass, cfg, children)
}

// Body renders the <tbody> element.
func Body(cfg ElementConfig, children ...template.HTML) template.HTML {
	return element("tbody", bodyClass, cfg, children)
}

// Cell renders a <td>.
func Cell(cfg ElementConfig, children ...template.HTML) template.HTML {
	return element("td", cellClass, cfg, children)
}

// Text escapes a plain string for use as element children.
func Text(s string) template.HTML {
	return template.HTML(html.EscapeString(s)) //nolint:gosec // value is escaped on the line above
}

func element(tag, defaults string, cfg ElementConfig, children []template.HTML) template.HTML {
	var b strings.Builder
	b.WriteString("<" + tag)
	writeClass(&b, mergeClasses(defaults, cfg.Class))
	writeAttrs(&b, cfg.Attrs)
	b.WriteString(">")
	for _, c := range children {
		b.WriteString(string(c))
	}
	b.WriteString("</" + tag + ">")
	return template.HTML(b.String()) //nolint:gosec // children are trusted fragments, text is escaped at write sites
}
