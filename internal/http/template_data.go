package httpx

import (
	"net/http"
)

// PaginationData contains pagination information for list views.
type PaginationData struct {
	Page       int
	PageSize   int
	HasPrev    bool
	HasNext    bool
	StartIndex int
	EndIndex   int
	TotalCount int // zero when the total is unknown
	BasePath   string
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data       map[string]any
	r          *http.Request
	pagination PaginationData
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, meta), r: r}
}

// pageLink rebuilds the current query string pointed at another page.
func (b *TemplateDataBuilder) pageLink(opts PaginationData, page int) string {
	return buildPageURL(opts.BasePath, b.r.URL.Query(), pageOpts{Page: page, PageSize: opts.PageSize})
}

// WithPagination adds pagination data and builds PrevURL/NextURL.
func (b *TemplateDataBuilder) WithPagination(opts PaginationData) *TemplateDataBuilder {
	b.pagination = opts
	b.data["Page"] = opts.Page
	b.data["PageSize"] = opts.PageSize
	b.data["HasPrev"] = opts.HasPrev
	b.data["HasNext"] = opts.HasNext
	b.data["StartIndex"] = opts.StartIndex
	b.data["EndIndex"] = opts.EndIndex
	if opts.TotalCount > 0 {
		b.data["TotalCount"] = opts.TotalCount
	}
	if opts.HasPrev {
		b.data["PrevURL"] = b.pageLink(opts, opts.Page-1)
	}
	if opts.HasNext {
		b.data["NextURL"] = b.pageLink(opts, opts.Page+1)
	}
	return b
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// PageInfo returns the pagination values recorded by WithPagination plus the
// prev/next URLs, for callers that render pagination controls outside the
// template (e.g. the shared pagination component).
func (b *TemplateDataBuilder) PageInfo() (PaginationData, string, string) {
	prevURL, _ := b.data["PrevURL"].(string)
	nextURL, _ := b.data["NextURL"].(string)
	return b.pagination, prevURL, nextURL
}

// Value returns a previously set template data field.
func (b *TemplateDataBuilder) Value(key string) any {
	return b.data[key]
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
