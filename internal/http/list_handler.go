package httpx

import (
	"context"
	"net/http"
	"net/url"
)

// ListFetcher fetches one page of items.
type ListFetcher[T any] func(ctx context.Context, pg pageOpts) ([]T, error)

// FilterParser turns query parameters into a filter value. Returning an
// error surfaces a validation message on the list page.
type FilterParser[F any] func(url.Values) (F, error)

// FilteredFetcher fetches one page of items matching the filter.
type FilteredFetcher[T any, F any] func(ctx context.Context, filters F, pg pageOpts) ([]T, error)

// DataEnricher lets a handler add extra template data after the fetch,
// such as status counts or dropdown options.
type DataEnricher[T any, F any] func(builder *TemplateDataBuilder, items []T, filters F)

// ListHandlerOpts drives HandleList. Handler, W and R are required, and
// exactly one of Fetcher or FilteredFetcher should be set (the filtered
// one wins when both are).
type ListHandlerOpts[T any, F any] struct {
	Handler *UIHandlers
	W       http.ResponseWriter
	R       *http.Request

	Fetcher         ListFetcher[T]
	FilteredFetcher FilteredFetcher[T, F]
	FilterParser    FilterParser[F]
	EnrichData      DataEnricher[T, F]

	// TotalCount, when non-nil, is read after the fetch and included in
	// the pagination metadata. Fetchers that know the total matching
	// count write it through this pointer.
	TotalCount *int

	// BasePath is where pagination links point, e.g. "/orders".
	BasePath string
	PageMeta PageMeta
	// ItemsKey is the template data key for the rows, e.g. "Orders".
	ItemsKey string
	// ErrorMessage is shown when the fetch fails.
	ErrorMessage string

	// ServiceAvailable, when set and returning false, short-circuits to
	// the unavailable view below instead of fetching.
	ServiceAvailable   func() bool
	UnavailableItems   []T
	UnavailableMessage string
	UnavailableData    func(builder *TemplateDataBuilder)
}

// HandleList is the shared list-page handler: it parses pagination and
// filter parameters, fetches one page, and renders the dashboard layout
// with pagination metadata. Every list view in the UI goes through it.
func HandleList[T, F any](opts ListHandlerOpts[T, F]) {
	if opts.W == nil || opts.R == nil || opts.Handler == nil {
		if opts.W != nil {
			http.Error(opts.W, "Internal configuration error", http.StatusInternalServerError)
		}
		return
	}

	if opts.ServiceAvailable != nil && !opts.ServiceAvailable() {
		opts.renderUnavailable()
		return
	}

	page, pageSize := getPageParams(opts.R.URL.Query())
	pg := pageOpts{Page: page, PageSize: pageSize}

	var filters F
	if opts.FilterParser != nil {
		parsed, err := opts.FilterParser(opts.R.URL.Query())
		if err != nil {
			opts.renderError(pg, "Invalid filter parameters: "+err.Error())
			return
		}
		filters = parsed
	}

	var items []T
	var err error
	switch {
	case opts.FilteredFetcher != nil:
		items, err = opts.FilteredFetcher(opts.R.Context(), filters, pg)
	case opts.Fetcher != nil:
		items, err = opts.Fetcher(opts.R.Context(), pg)
	default:
		opts.renderError(pg, "No data fetcher configured.")
		return
	}
	if err != nil {
		opts.renderError(pg, opts.ErrorMessage)
		return
	}

	opts.renderPage(pg, items, filters)
}

func (lh *ListHandlerOpts[T, F]) renderError(pg pageOpts, errMsg string) {
	builder := NewTemplateData(lh.R, lh.PageMeta).
		WithPagination(PaginationData{Page: pg.Page, PageSize: pg.PageSize, BasePath: lh.BasePath}).
		WithError(errMsg)
	lh.Handler.renderDashboardPage(lh.W, lh.R, builder.Build())
}

// renderPage trims the probe row off an over-fetched page and renders
// the items with full pagination metadata.
func (lh *ListHandlerOpts[T, F]) renderPage(pg pageOpts, items []T, filters F) {
	hasNext := len(items) > pg.PageSize
	if hasNext {
		items = items[:pg.PageSize]
	}
	var start, end int
	if len(items) > 0 {
		offset := (pg.Page - 1) * pg.PageSize
		start = offset + 1
		end = offset + len(items)
	}
	var total int
	if lh.TotalCount != nil {
		total = *lh.TotalCount
	}

	builder := NewTemplateData(lh.R, lh.PageMeta).
		WithPagination(PaginationData{
			Page:       pg.Page,
			PageSize:   pg.PageSize,
			HasPrev:    pg.Page > 1,
			HasNext:    hasNext,
			StartIndex: start,
			EndIndex:   end,
			TotalCount: total,
			BasePath:   lh.BasePath,
		}).
		With(lh.ItemsKey, items)

	if lh.EnrichData != nil {
		lh.EnrichData(builder, items, filters)
	}

	lh.Handler.renderDashboardPage(lh.W, lh.R, builder.Build())
}

func (lh *ListHandlerOpts[T, F]) renderUnavailable() {
	page, pageSize := getPageParams(lh.R.URL.Query())
	builder := NewTemplateData(lh.R, lh.PageMeta).
		WithPagination(PaginationData{Page: page, PageSize: pageSize, BasePath: lh.BasePath})

	if lh.ItemsKey != "" {
		builder.With(lh.ItemsKey, lh.UnavailableItems)
	}
	if lh.UnavailableMessage != "" {
		builder.WithError(lh.UnavailableMessage)
	}
	if lh.UnavailableData != nil {
		lh.UnavailableData(builder)
	}

	lh.Handler.renderDashboardPage(lh.W, lh.R, builder.Build())
}
