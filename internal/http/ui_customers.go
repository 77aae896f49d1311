package httpx

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/orderdesk/orderdesk/internal/domain/model"
	customersvm "github.com/orderdesk/orderdesk/internal/http/ui/customers"
	ordersvm "github.com/orderdesk/orderdesk/internal/http/ui/orders"
	"github.com/orderdesk/orderdesk/internal/service"
)

const errMsgUnableLoadCustomers = "Unable to load customers."

// customersFilter represents filter options for the customers list view.
type customersFilter struct {
	Q      string
	Domain string
	Sort   string
	Dir    string
}

// parseCustomersFilter extracts filter parameters from URL query.
func parseCustomersFilter(q url.Values) customersFilter {
	sort, dir := ParseSortParam(q, "sort", "dir")

	// Default sort: created_at desc (newest first)
	if sort == "" {
		sort = "created_at"
	}
	if dir == "" {
		dir = SortDirDesc
	}

	return customersFilter{
		Q:      strings.TrimSpace(q.Get("q")),
		Domain: strings.TrimSpace(q.Get("domain")),
		Sort:   sort,
		Dir:    dir,
	}
}

// toListOptions converts UI filters into repository list options.
func (f customersFilter) toListOptions(pg pageOpts) model.CustomersListOptions {
	limit, offset := pg.LimitAndOffset()
	opts := model.CustomersListOptions{
		Limit:  limit,
		Offset: offset,
		Sort:   f.Sort,
		Dir:    f.Dir,
	}
	if f.Q != "" {
		q := f.Q
		opts.Q = &q
	}
	if f.Domain != "" {
		domain := f.Domain
		opts.Domain = &domain
	}
	return opts
}

// Customers serves the customers list page, HTMX-aware.
func (h *UIHandlers) Customers(w http.ResponseWriter, r *http.Request) {
	var total int
	HandleList(ListHandlerOpts[customersvm.CustomerRow, customersFilter]{
		Handler: h,
		W:       w,
		R:       r,
		FilterParser: func(q url.Values) (customersFilter, error) {
			return parseCustomersFilter(q), nil
		},
		FilteredFetcher: func(ctx context.Context, f customersFilter, pg pageOpts) ([]customersvm.CustomerRow, error) {
			return h.fetchCustomerRows(ctx, f, pg, &total)
		},
		TotalCount: &total,
		BasePath:   "/customers",
		PageMeta: PageMeta{
			Title:       "OrderDesk - Customers",
			PageTitle:   "Customers",
			CurrentPage: PageCustomers,
		},
		ItemsKey:     "Customers",
		ErrorMessage: errMsgUnableLoadCustomers,
		EnrichData: func(builder *TemplateDataBuilder, rows []customersvm.CustomerRow, f customersFilter) {
			h.enrichCustomersList(builder, rows, f)
		},
		ServiceAvailable: func() bool {
			return h.CustSvc != nil
		},
		UnavailableMessage: errMsgUnableLoadCustomers,
	})
}

func (h *UIHandlers) fetchCustomerRows(
	ctx context.Context,
	f customersFilter,
	pg pageOpts,
	total *int,
) ([]customersvm.CustomerRow, error) {
	page, err := h.CustSvc.List(ctx, f.toListOptions(pg))
	if err != nil {
		h.logger().ErrorContext(ctx, "failed to load customers for UI",
			"error", err,
			"q", f.Q,
			"domain", f.Domain,
			"page", pg.Page,
			"page_size", pg.PageSize,
		)
		return nil, err
	}

	*total = page.Total
	rows := make([]customersvm.CustomerRow, 0, len(page.Items))
	for _, c := range page.Items {
		rows = append(rows, customersvm.NewRow(c))
	}
	return rows, nil
}

func (h *UIHandlers) enrichCustomersList(
	builder *TemplateDataBuilder,
	rows []customersvm.CustomerRow,
	f customersFilter,
) {
	canManage, _ := builder.Value("CanManageOrders").(bool)

	tableHTML, err := customersvm.RenderTable(customersvm.TableParams{
		Rows:      rows,
		Query:     f.Q,
		Domain:    f.Domain,
		CanManage: canManage,
		Target:    "#content",
	})
	if err != nil {
		h.logger().Error("failed to render customers table", "error", err)
		builder.WithError(errMsgUnableLoadCustomers)
		return
	}

	builder.
		With("TableHTML", tableHTML).
		With("PaginationHTML", h.renderPagination(builder, "Customers")).
		With("Query", f.Q).
		With("Domain", f.Domain).
		With("Sort", f.Sort).
		With("Dir", f.Dir)
}

// CustomerView serves the customer detail page with the customer's most
// recent orders.
func (h *UIHandlers) CustomerView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" || h.CustSvc == nil {
		h.NotFound(w, r)
		return
	}

	customer, err := h.CustSvc.Get(r.Context(), id)
	if err != nil {
		if statusForError(err) == http.StatusNotFound {
			h.NotFound(w, r)
			return
		}
		h.logger().ErrorContext(r.Context(), "failed to load customer", "error", err, "customer_id", id)
		h.renderCustomerViewError(w, r, err)
		return
	}

	row := customersvm.NewRow(customer)

	h.Page(w, r, PageSpec{
		Meta: PageMeta{
			Title:       "OrderDesk - " + customer.Name,
			PageTitle:   customer.Name,
			CurrentPage: PageCustomerView,
		},
		Fetch: func(ctx context.Context, data map[string]any) error {
			data["Customer"] = row
			data["RecentOrders"] = h.fetchRecentOrdersForCustomer(ctx, customer.ID)
			return nil
		},
	})
}

// fetchRecentOrdersForCustomer loads the customer's most recent orders for
// the detail page. Failures leave the panel empty rather than failing the page.
func (h *UIHandlers) fetchRecentOrdersForCustomer(ctx context.Context, customerID string) []ordersvm.OrderRow {
	if h.OrderSvc == nil || customerID == "" {
		return nil
	}

	page, err := h.OrderSvc.List(ctx, service.OrdersPageOptions{
		OrdersListOptions: model.OrdersListOptions{
			Limit:      5,
			CustomerID: &customerID,
			Sort:       "placed_at",
			Dir:        SortDirDesc,
		},
	})
	if err != nil {
		h.logger().WarnContext(ctx, "failed to load recent orders for customer view",
			"error", err, "customer_id", customerID)
		return nil
	}

	rows := make([]ordersvm.OrderRow, 0, len(page.Items))
	for _, o := range page.Items {
		rows = append(rows, ordersvm.NewRow(o))
	}
	return rows
}

func (h *UIHandlers) renderCustomerViewError(w http.ResponseWriter, r *http.Request, err error) {
	RenderError(ErrorOpts{
		W:        w,
		R:        r,
		Err:      err,
		Renderer: h.renderDashboardPage,
		PageMeta: PageMeta{
			Title:       "OrderDesk - Customers",
			PageTitle:   "Customers",
			CurrentPage: PageCustomers,
		},
		StatusCode: DetermineErrorStatus(err),
	})
}

// CustomerDelete handles deleting a customer from the UI. Customers with
// orders cannot be deleted; the FK violation surfaces as a toast.
func (h *UIHandlers) CustomerDelete(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, deleteHandlerOpts{
		ServiceAvailable: func() bool { return h.CustSvc != nil },
		Delete: func(ctx context.Context, id string) (bool, error) {
			return h.CustSvc.Delete(ctx, id)
		},
		RedirectPath: "/customers",
		OnError: func(w http.ResponseWriter, r *http.Request, err error) {
			h.handleCustomerDeleteError(w, r, err)
		},
		OnSuccess: func(w http.ResponseWriter, r *http.Request, deleted bool) {
			if !deleted {
				h.NotFound(w, r)
				return
			}
			if IsHTMX(r) {
				triggerToast(w, "Customer deleted.", "success")
				w.WriteHeader(http.StatusOK)
				return
			}
			http.Redirect(w, r, "/customers", http.StatusSeeOther)
		},
	})
}

func (h *UIHandlers) handleCustomerDeleteError(w http.ResponseWriter, r *http.Request, err error) {
	errMsg := processError(err, nil)
	if errMsg == "" {
		errMsg = "Unable to delete customer. Please try again."
	}

	if IsHTMX(r) {
		triggerToast(w, errMsg, "error")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	RenderError(ErrorOpts{
		W:        w,
		R:        r,
		Err:      err,
		Renderer: h.renderDashboardPage,
		PageMeta: PageMeta{
			Title:       "OrderDesk - Customers",
			PageTitle:   "Customers",
			CurrentPage: PageCustomers,
		},
		StatusCode: DetermineErrorStatus(err),
	})
}
