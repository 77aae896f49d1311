package components

import (
	"fmt"
	"html"
	"html/template"
	"strings"
)

// DefaultPaginationTitle is the display label used when PaginationConfig
// does not name the listed elements.
const DefaultPaginationTitle = "Elements"

// PaginationConfig carries everything the pagination strip displays. All
// values come from the caller on every render; nothing is cached and no
// bounds are checked — inconsistent numbers render verbatim.
type PaginationConfig struct {
	Title       string
	Count       int
	Offset      int
	PageSize    int
	CurrentPage int // zero-based
	PageCount   int

	// HasPrev/HasNext only control the disabled visual state of the
	// corresponding control. The links themselves always navigate; callers
	// must keep the flags in agreement with PrevURL/NextURL being safe.
	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string

	Class string
	Attrs Attrs
}

// Pagination renders the offset/count summary, the page indicator, and the
// previous/next controls.
func Pagination(cfg PaginationConfig) template.HTML {
	title := cfg.Title
	if title == "" {
		title = DefaultPaginationTitle
	}

	var b strings.Builder
	b.WriteString("<div")
	writeClass(&b, mergeClasses("table-pagination", cfg.Class))
	writeAttrs(&b, cfg.Attrs)
	b.WriteString(">")

	summary := fmt.Sprintf("%d - %d of %d %s", cfg.Offset+1, cfg.PageSize, cfg.Count, title)
	b.WriteString(`<span class="pagination-summary">` + html.EscapeString(summary) + `</span>`)

	page := fmt.Sprintf("%d of %d", cfg.CurrentPage+1, cfg.PageCount)
	b.WriteString(`<span class="pagination-page">` + html.EscapeString(page) + `</span>`)

	b.WriteString(`<nav class="pagination-controls" aria-label="Pagination">`)
	writeControl(&b, control{label: "Previous", url: cfg.PrevURL, enabled: cfg.HasPrev, dir: "prev"})
	writeControl(&b, control{label: "Next", url: cfg.NextURL, enabled: cfg.HasNext, dir: "next"})
	b.WriteString("</nav></div>")
	return template.HTML(b.String()) //nolint:gosec // text is escaped at write sites
}

type control struct {
	label   string
	url     string
	enabled bool
	dir     string
}

// writeControl renders a directional control. A disabled flag only changes
// the visual affordance: the link is still emitted and still fires.
func writeControl(b *strings.Builder, c control) {
	class := "pagination-control pagination-control-" + c.dir
	if !c.enabled {
		class += " pagination-control-disabled"
	}
	b.WriteString(`<a class="` + class + `"`)
	b.WriteString(` href="` + html.EscapeString(c.url) + `"`)
	b.WriteString(` hx-get="` + html.EscapeString(c.url) + `" hx-push-url="true"`)
	if !c.enabled {
		b.WriteString(` aria-disabled="true"`)
	}
	b.WriteString(">" + html.EscapeString(c.label) + "</a>")
}
