package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/orderdesk/orderdesk/internal/domain/model"
	ordersvm "github.com/orderdesk/orderdesk/internal/http/ui/orders"
	"github.com/orderdesk/orderdesk/internal/service"
)

const errMsgUnableLoadOrders = "Unable to load orders."

// ordersFilter represents filter options for the orders list view.
type ordersFilter struct {
	Q        string
	Status   string
	Currency string
	Metadata string
	Sort     string
	Dir      string
}

// parseOrdersFilter extracts filter parameters from URL query.
func parseOrdersFilter(q url.Values) ordersFilter {
	sort, dir := ParseSortParam(q, "sort", "dir")

	// Default sort: placed_at desc (newest first)
	if sort == "" {
		sort = "placed_at"
	}
	if dir == "" {
		dir = SortDirDesc
	}

	return ordersFilter{
		Q:        strings.TrimSpace(q.Get("q")),
		Status:   strings.TrimSpace(q.Get("status")),
		Currency: strings.ToUpper(strings.TrimSpace(q.Get("currency"))),
		Metadata: strings.TrimSpace(q.Get("metadata")),
		Sort:     sort,
		Dir:      dir,
	}
}

// toPageOptions converts UI filters into service list options.
func (f ordersFilter) toPageOptions(pg pageOpts) service.OrdersPageOptions {
	limit, offset := pg.LimitAndOffset()
	opts := service.OrdersPageOptions{
		OrdersListOptions: model.OrdersListOptions{
			Limit:  limit,
			Offset: offset,
			Sort:   f.Sort,
			Dir:    f.Dir,
		},
		Metadata: f.Metadata,
	}
	if f.Q != "" {
		q := f.Q
		opts.Q = &q
	}
	if status, ok := model.ParseOrderStatus(f.Status); ok && f.Status != "" {
		opts.Status = &status
	}
	if f.Currency != "" {
		currency := f.Currency
		opts.Currency = &currency
	}
	return opts
}

// Orders serves the orders list page, HTMX-aware.
func (h *UIHandlers) Orders(w http.ResponseWriter, r *http.Request) {
	var total int
	HandleList(ListHandlerOpts[ordersvm.OrderRow, ordersFilter]{
		Handler: h,
		W:       w,
		R:       r,
		FilterParser: func(q url.Values) (ordersFilter, error) {
			return parseOrdersFilter(q), nil
		},
		FilteredFetcher: func(ctx context.Context, f ordersFilter, pg pageOpts) ([]ordersvm.OrderRow, error) {
			return h.fetchOrderRows(ctx, f, pg, &total)
		},
		TotalCount: &total,
		BasePath:   "/orders",
		PageMeta: PageMeta{
			Title:       "OrderDesk - Orders",
			PageTitle:   "Orders",
			CurrentPage: PageOrders,
		},
		ItemsKey:     "Orders",
		ErrorMessage: errMsgUnableLoadOrders,
		EnrichData: func(builder *TemplateDataBuilder, rows []ordersvm.OrderRow, f ordersFilter) {
			h.enrichOrdersList(builder, rows, f)
		},
		ServiceAvailable: func() bool {
			return h.OrderSvc != nil
		},
		UnavailableMessage: errMsgUnableLoadOrders,
	})
}

// fetchOrderRows fetches one page of orders with filters applied, writing the
// total matching count through total.
func (h *UIHandlers) fetchOrderRows(
	ctx context.Context,
	f ordersFilter,
	pg pageOpts,
	total *int,
) ([]ordersvm.OrderRow, error) {
	page, err := h.OrderSvc.List(ctx, f.toPageOptions(pg))
	if err != nil {
		h.logger().ErrorContext(ctx, "failed to load orders for UI",
			"error", err,
			"q", f.Q,
			"status", f.Status,
			"currency", f.Currency,
			"page", pg.Page,
			"page_size", pg.PageSize,
		)
		return nil, err
	}

	*total = page.Total
	rows := make([]ordersvm.OrderRow, 0, len(page.Items))
	for _, o := range page.Items {
		rows = append(rows, ordersvm.NewRow(o))
	}
	return rows, nil
}

// enrichOrdersList renders the table and pagination components into the
// template data, along with the active filter values for deep links.
func (h *UIHandlers) enrichOrdersList(
	builder *TemplateDataBuilder,
	rows []ordersvm.OrderRow,
	f ordersFilter,
) {
	canManage, _ := builder.Value("CanManageOrders").(bool)

	tableHTML, err := ordersvm.RenderTable(ordersvm.TableParams{
		Rows:      rows,
		Query:     f.Q,
		Status:    f.Status,
		CanManage: canManage,
		Target:    "#content",
	})
	if err != nil {
		h.logger().Error("failed to render orders table", "error", err)
		builder.WithError(errMsgUnableLoadOrders)
		return
	}

	builder.
		With("TableHTML", tableHTML).
		With("PaginationHTML", h.renderPagination(builder, "Orders")).
		With("Query", f.Q).
		With("Status", f.Status).
		With("Currency", f.Currency).
		With("Metadata", f.Metadata).
		With("Sort", f.Sort).
		With("Dir", f.Dir)
}

// OrderView serves the order detail page for a specific order ID, HTMX-aware.
func (h *UIHandlers) OrderView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" || h.OrderSvc == nil {
		h.NotFound(w, r)
		return
	}

	order, err := h.OrderSvc.Get(r.Context(), id)
	if err != nil {
		if statusForError(err) == http.StatusNotFound {
			h.NotFound(w, r)
			return
		}
		h.logger().ErrorContext(r.Context(), "failed to load order", "error", err, "order_id", id)
		h.renderOrderViewError(w, r, err)
		return
	}

	row := ordersvm.NewRow(h.joinCustomerName(r.Context(), order))

	h.Page(w, r, PageSpec{
		Meta: PageMeta{
			Title:       "OrderDesk - Order " + order.Number,
			PageTitle:   "Order " + order.Number,
			CurrentPage: PageOrderView,
		},
		Fetch: func(_ context.Context, data map[string]any) error {
			data["Order"] = row
			return nil
		},
	})
}

// joinCustomerName looks up the customer's display name for the detail view.
// A lookup failure leaves the name blank rather than failing the page.
func (h *UIHandlers) joinCustomerName(ctx context.Context, order *model.Order) *model.OrderWithCustomer {
	joined := &model.OrderWithCustomer{Order: *order}
	if h.CustSvc == nil {
		return joined
	}
	customer, err := h.CustSvc.Get(ctx, order.CustomerID)
	if err != nil {
		h.logger().WarnContext(ctx, "failed to load customer for order view",
			"error", err, "customer_id", order.CustomerID)
		return joined
	}
	joined.CustomerName = customer.Name
	return joined
}

func (h *UIHandlers) renderOrderViewError(w http.ResponseWriter, r *http.Request, err error) {
	RenderError(ErrorOpts{
		W:        w,
		R:        r,
		Err:      err,
		Renderer: h.renderDashboardPage,
		PageMeta: PageMeta{
			Title:       "OrderDesk - Orders",
			PageTitle:   "Orders",
			CurrentPage: PageOrders,
		},
		StatusCode: DetermineErrorStatus(err),
	})
}

// OrderUpdateStatus moves an order to a new status from the UI.
func (h *UIHandlers) OrderUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" || h.OrderSvc == nil {
		h.NotFound(w, r)
		return
	}

	status, ok := model.ParseOrderStatus(r.FormValue("status"))
	if !ok {
		h.orderStatusErrorResponse(w, r, id, errors.New("unsupported status value"))
		return
	}

	order, err := h.OrderSvc.UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.orderStatusErrorResponse(w, r, id, err)
		return
	}

	if IsHTMX(r) {
		triggerToast(w, "Order "+order.Number+" marked "+string(order.Status)+".", "success")
		HTMX(w).Refresh()
		return
	}
	http.Redirect(w, r, "/orders/"+id, http.StatusSeeOther)
}

func (h *UIHandlers) orderStatusErrorResponse(w http.ResponseWriter, r *http.Request, id string, err error) {
	h.logger().ErrorContext(r.Context(), "failed to update order status",
		"error", err,
		"order_id", id,
	)

	if IsHTMX(r) {
		triggerToast(w, "Failed to update order status.", "error")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.renderOrderViewError(w, r, err)
}

// OrderDelete handles deleting an order from the UI.
func (h *UIHandlers) OrderDelete(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, deleteHandlerOpts{
		ServiceAvailable: func() bool { return h.OrderSvc != nil },
		Delete: func(ctx context.Context, id string) (bool, error) {
			return h.OrderSvc.Delete(ctx, id)
		},
		RedirectPath: "/orders",
		OnError: func(w http.ResponseWriter, r *http.Request, err error) {
			h.handleOrderDeleteError(w, r, err)
		},
		OnSuccess: func(w http.ResponseWriter, r *http.Request, deleted bool) {
			if !deleted {
				h.NotFound(w, r)
				return
			}
			// For HTMX requests, trigger a toast and return empty content so
			// the row is swapped out
			if IsHTMX(r) {
				triggerToast(w, "Order deleted.", "success")
				w.WriteHeader(http.StatusOK)
				return
			}
			http.Redirect(w, r, "/orders", http.StatusSeeOther)
		},
	})
}

// handleOrderDeleteError triggers a toast for HTMX requests (204 keeps the
// row) and re-renders the list otherwise.
func (h *UIHandlers) handleOrderDeleteError(w http.ResponseWriter, r *http.Request, err error) {
	errMsg := processError(err, nil)
	if errMsg == "" {
		errMsg = "Unable to delete order. Please try again."
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
			Title:       "OrderDesk - Orders",
			PageTitle:   "Orders",
			CurrentPage: PageOrders,
		},
		StatusCode: DetermineErrorStatus(err),
	})
}
