package httpx

import (
	"context"
	"html"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	domainauth "github.com/orderdesk/orderdesk/internal/domain/auth"
	"github.com/orderdesk/orderdesk/internal/domain/model"
	"github.com/orderdesk/orderdesk/internal/http/ui/components"
	"github.com/orderdesk/orderdesk/internal/http/ui/viewmodel"
	"github.com/orderdesk/orderdesk/internal/service"
)

// OrdersService is the slice of the order service the UI needs.
type OrdersService interface {
	List(ctx context.Context, opts service.OrdersPageOptions) (*service.OrdersPage, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	Create(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
	Delete(ctx context.Context, id string) (bool, error)
	StatusCounts(ctx context.Context) (map[model.OrderStatus]int, error)
}

// CustomersService is the slice of the customer service the UI needs.
type CustomersService interface {
	List(ctx context.Context, opts model.CustomersListOptions) (*service.CustomersPage, error)
	Get(ctx context.Context, id string) (*model.Customer, error)
	Create(ctx context.Context, req *model.CreateCustomerRequest) (*model.Customer, error)
	Delete(ctx context.Context, id string) (bool, error)
}

var (
	_ OrdersService    = (*service.OrderService)(nil)
	_ CustomersService = (*service.CustomerService)(nil)
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T        *TemplateRenderer
	OrderSvc OrdersService
	CustSvc  CustomersService
	// IsDev enables verbose template error pages.
	IsDev  bool
	Logger *slog.Logger
}

func (h *UIHandlers) logger() *slog.Logger {
	if h == nil || h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// getPageParams reads page/page_size from the query. Page defaults to 1,
// page size to 10 capped at 100.
func getPageParams(q url.Values) (int, int) {
	page, pageSize := 1, 10
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil && n > 0 && n <= 100 {
		pageSize = n
	}
	return page, pageSize
}

// pageOpts carries the pagination request for a list view.
type pageOpts struct {
	Page     int
	PageSize int
}

// LimitAndOffset converts the page request to limit/offset, over-fetching
// by one row so the next-page probe costs no extra query.
func (p pageOpts) LimitAndOffset() (limit, offset int) {
	size := p.PageSize
	if size <= 0 {
		size = 10
	}
	return size + 1, (max(p.Page, 1) - 1) * size
}

// paginate runs fetch with the over-fetching limit/offset and folds the
// result into items, hasPrev/hasNext, and 1-based start/end indexes.
func paginate[T any](
	ctx context.Context,
	p pageOpts,
	fetch func(context.Context, int, int) ([]T, error),
) ([]T, bool, bool, int, int, error) {
	limit, offset := p.LimitAndOffset()
	items, err := fetch(ctx, limit, offset)
	switch {
	case err != nil:
		return nil, false, false, 0, 0, err
	case len(items) > p.PageSize:
		return items[:p.PageSize], p.Page > 1, true, offset + 1, offset + p.PageSize, nil
	case len(items) == 0:
		return items, p.Page > 1, false, 0, 0, nil
	default:
		return items, p.Page > 1, false, offset + 1, offset + len(items), nil
	}
}

// deleteHandlerOpts parameterizes handleDelete. Only Delete is required;
// the hooks default to NotFound, a generic 500, and an htmx redirect.
type deleteHandlerOpts struct {
	ServiceAvailable func() bool
	Delete           func(ctx context.Context, id string) (bool, error)
	RedirectPath     string
	OnError          func(http.ResponseWriter, *http.Request, error)
	OnNotFound       func(http.ResponseWriter, *http.Request)
	OnSuccess        func(http.ResponseWriter, *http.Request, bool)
}

// handleDelete is the shared shape of every UI delete endpoint: resolve
// the path id, call the service, dispatch on the outcome.
func (h *UIHandlers) handleDelete(w http.ResponseWriter, r *http.Request, opts deleteHandlerOpts) {
	unavailable := opts.ServiceAvailable != nil && !opts.ServiceAvailable()
	id := r.PathValue("id")
	if id == "" || unavailable {
		switch {
		case opts.OnNotFound != nil:
			opts.OnNotFound(w, r)
		default:
			h.NotFound(w, r)
		}
		return
	}

	deleted, err := opts.Delete(r.Context(), id)
	switch {
	case err != nil && opts.OnError != nil:
		opts.OnError(w, r, err)
	case err != nil:
		http.Error(w, "Unable to delete resource.", http.StatusInternalServerError)
	case opts.OnSuccess != nil:
		opts.OnSuccess(w, r, deleted)
	case opts.RedirectPath != "":
		HTMX(w).Redirect(opts.RedirectPath)
	}
}

// triggerToast emits the showToast HX-Trigger payload the frontend toast
// handler listens for.
func triggerToast(w http.ResponseWriter, message, toastType string) {
	msg := strings.TrimSpace(message)
	if w == nil || msg == "" {
		return
	}
	HTMX(w).Trigger("showToast", map[string]any{
		"message": message,
		"type":    strings.TrimSpace(toastType),
	})
}

// buildPageURL rewrites the current query with the given page/page_size,
// carrying every other filter along. htmx bookkeeping params and
// whitespace-only values are dropped so every list view builds the same
// canonical URLs.
func buildPageURL(basePath string, q url.Values, p pageOpts) string {
	kept := make(url.Values, len(q))
	for key, values := range q {
		if strings.HasPrefix(key, "hx-") || strings.HasPrefix(key, "hx_") {
			continue
		}
		for _, v := range values {
			if strings.TrimSpace(v) != "" {
				kept.Add(key, v)
			}
		}
	}
	kept.Set("page", strconv.Itoa(p.Page))
	kept.Set("page_size", strconv.Itoa(p.PageSize))
	return basePath + "?" + kept.Encode()
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// layoutFor assembles the shared layout view model from the request:
// page metadata, CSRF token, and the authenticated user if any.
func layoutFor(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
	}

	session := GetSessionFromContext(r.Context())
	if session == nil {
		return layout
	}
	layout.IsAuthenticated = true
	layout.CanManageOrders = session.Role == domainauth.RoleAdmin
	layout.User = &viewmodel.User{
		Email: session.Email,
		Role:  string(session.Role),
	}
	return layout
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := layoutFor(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
		"CanManageOrders": layout.CanManageOrders,
	}
	if layout.CSRFToken != "" {
		data["CSRFToken"] = layout.CSRFToken
	}
	if layout.User != nil {
		data["User"] = layout.User
	}
	return data
}

// renderPagination renders the shared pagination strip from the builder's
// recorded pagination values. Title names the listed elements ("Orders",
// "Customers").
func (h *UIHandlers) renderPagination(builder *TemplateDataBuilder, title string) template.HTML {
	pd, prevURL, nextURL := builder.PageInfo()

	pageCount := 1
	if pd.TotalCount > 0 && pd.PageSize > 0 {
		pageCount = (pd.TotalCount + pd.PageSize - 1) / pd.PageSize
	}

	return components.Pagination(components.PaginationConfig{
		Title:       title,
		Count:       pd.TotalCount,
		Offset:      max(pd.StartIndex-1, 0),
		PageSize:    pd.EndIndex,
		CurrentPage: pd.Page - 1,
		PageCount:   pageCount,
		HasPrev:     pd.HasPrev,
		HasNext:     pd.HasNext,
		PrevURL:     prevURL,
		NextURL:     nextURL,
	})
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta  PageMeta
	Fetch func(ctx context.Context, data map[string]any) error
}

// Page builds base data, optionally fetches content data, and renders.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := basePageData(r, spec.Meta)
	if spec.Fetch != nil {
		if err := spec.Fetch(r.Context(), data); err != nil {
			data["Error"] = true
			if _, ok := data["ErrorMessage"]; !ok {
				data["ErrorMessage"] = "An unexpected error occurred. Please try again."
			}
		}
	}
	h.renderDashboardPage(w, r, data)
}

// renderDashboardPage renders either the full layout or, for htmx
// requests, the content fragment plus the out-of-band pieces a swap needs
// to keep the chrome in sync: a <title> so document.title updates, the
// header <h1>, and a nav:activate event for the sidebar highlight.
func (h *UIHandlers) renderDashboardPage(w http.ResponseWriter, r *http.Request, data any) {
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, r, data); err != nil {
			h.renderTemplateFailure(w, r, err, "full page render")
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})

	layout := layoutFromData(data)
	chrome := `<title>` + html.EscapeString(layout.Title) + `</title>` +
		`<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` +
		html.EscapeString(layout.PageTitle) + `</h1>`
	if _, err := w.Write([]byte(chrome)); err != nil {
		h.logger().Error("failed to write partial chrome", "error", err)
		return
	}

	if err := h.T.t.ExecuteTemplate(w, ContentTemplateFor(layout.CurrentPage), data); err != nil {
		h.renderTemplateFailure(w, r, err, "partial content render")
	}
}

// layoutFromData recovers the layout fields from whatever shape the
// handler passed: a LayoutProvider, a Layout value or pointer, or the
// plain data map most handlers build.
func layoutFromData(data any) viewmodel.Layout {
	switch v := data.(type) {
	case viewmodel.LayoutProvider:
		if layout := v.LayoutData(); layout != nil {
			return *layout
		}
	case viewmodel.Layout:
		return v
	case *viewmodel.Layout:
		if v != nil {
			return *v
		}
	case map[string]any:
		var layout viewmodel.Layout
		layout.Title, _ = v["Title"].(string)
		layout.PageTitle, _ = v["PageTitle"].(string)
		layout.CurrentPage, _ = v["CurrentPage"].(string)
		return layout
	}
	return viewmodel.Layout{}
}

// renderTemplateFailure logs a template failure and, in dev mode, paints
// it into the response where the broken fragment would have gone.
// Production gets a bare 500.
func (h *UIHandlers) renderTemplateFailure(w http.ResponseWriter, r *http.Request, err error, stage string) {
	h.logger().Error("template rendering failed",
		"error", err,
		"context", stage,
		"path", r.URL.Path,
		"method", r.Method,
	)

	if !h.IsDev {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	body := `
		<div style="padding: 20px; background: #fee; border: 2px solid #c33; border-radius: 4px; margin: 20px; font-family: monospace;">
			<h2 style="color: #c33; margin-top: 0;">Template Rendering Error</h2>
			<p><strong>Context:</strong> ` + html.EscapeString(stage) + `</p>
			<p><strong>Path:</strong> ` + html.EscapeString(r.URL.Path) + `</p>
			<p><strong>Error:</strong></p>
			<pre style="background: #fff; padding: 10px; border: 1px solid #ccc; overflow-x: auto;">` + html.EscapeString(err.Error()) + `</pre>
		</div>
	`
	if _, writeErr := w.Write([]byte(body)); writeErr != nil {
		h.logger().Error("failed to write template error response", "error", writeErr)
	}
}
