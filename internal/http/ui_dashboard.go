package httpx

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/orderdesk/orderdesk/internal/domain/model"
	ordersvm "github.com/orderdesk/orderdesk/internal/http/ui/orders"
	"github.com/orderdesk/orderdesk/internal/service"
)

const errMsgUnableLoadRecentOrders = "Unable to load recent orders"

// StatusCount pairs one order status with its count for the dashboard tiles.
type StatusCount struct {
	Status model.OrderStatus
	Count  int
}

// Label returns a capitalized display label for the status.
func (c StatusCount) Label() string {
	s := string(c.Status)
	if s == "" {
		return ""
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// BadgeClass returns the CSS modifier class for the status tile.
func (c StatusCount) BadgeClass() string {
	return ordersvm.OrderRow{Status: c.Status}.StatusBadgeClass()
}

// Index serves the home page with dashboard content. The two dashboard
// queries are independent, so they run concurrently.
func (h *UIHandlers) Index(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "OrderDesk - Dashboard", PageTitle: "Dashboard", CurrentPage: PageHome},
		Fetch: func(ctx context.Context, data map[string]any) error {
			var (
				tiles     []StatusCount
				tilesErr  string
				recent    []ordersvm.OrderRow
				recentErr string
			)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				tiles, tilesErr = h.loadStatusCounts(gctx)
				return nil
			})
			g.Go(func() error {
				recent, recentErr = h.loadRecentOrders(gctx)
				return nil
			})
			// Failures degrade to inline messages, never a failed page.
			_ = g.Wait()

			data["StatusCounts"] = tiles
			data["StatusCountsError"] = tilesErr
			data["RecentOrders"] = recent
			data["RecentOrdersError"] = recentErr
			return nil
		},
	})
}

// loadStatusCounts builds the dashboard tiles, one per status in fixed
// display order; statuses with zero orders still get a tile.
func (h *UIHandlers) loadStatusCounts(ctx context.Context) ([]StatusCount, string) {
	if h.OrderSvc == nil {
		return []StatusCount{}, "Unable to load order counts"
	}

	counts, err := h.OrderSvc.StatusCounts(ctx)
	if err != nil {
		h.logger().WarnContext(ctx, "failed to fetch status counts for dashboard", "error", err)
		return []StatusCount{}, "Unable to load order counts"
	}

	tiles := make([]StatusCount, 0, len(model.OrderStatuses()))
	for _, status := range model.OrderStatuses() {
		tiles = append(tiles, StatusCount{Status: status, Count: counts[status]})
	}
	return tiles, ""
}

func (h *UIHandlers) loadRecentOrders(ctx context.Context) ([]ordersvm.OrderRow, string) {
	rows, err := h.fetchRecentOrders(ctx, 5)
	if err != nil {
		return []ordersvm.OrderRow{}, errMsgUnableLoadRecentOrders
	}
	return rows, ""
}

// fetchRecentOrders fetches the most recently placed orders for dashboard display.
func (h *UIHandlers) fetchRecentOrders(ctx context.Context, limit int) ([]ordersvm.OrderRow, error) {
	if h.OrderSvc == nil {
		return nil, fmt.Errorf("order service is not available")
	}

	page, err := h.OrderSvc.List(ctx, service.OrdersPageOptions{
		OrdersListOptions: model.OrdersListOptions{
			Limit: limit,
			Sort:  "placed_at",
			Dir:   SortDirDesc,
		},
	})
	if err != nil {
		h.logger().WarnContext(ctx, "failed to fetch recent orders for dashboard", "error", err)
		return nil, fmt.Errorf("fetch recent orders: %w", err)
	}

	rows := make([]ordersvm.OrderRow, 0, len(page.Items))
	for _, o := range page.Items {
		rows = append(rows, ordersvm.NewRow(o))
	}
	return rows, nil
}

// RecentOrdersFragment serves the recent orders panel for HTMX polling.
func (h *UIHandlers) RecentOrdersFragment(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, PageMeta{})
	data["RecentOrders"] = []ordersvm.OrderRow{}
	data["RecentOrdersError"] = ""
	if rows, err := h.fetchRecentOrders(r.Context(), 5); err == nil {
		data["RecentOrders"] = rows
	} else {
		data["RecentOrdersError"] = errMsgUnableLoadRecentOrders
	}

	h.renderFragment(w, r, fragmentRenderOptions{
		Template: "dashboard-recent-orders-fragment",
		Data:     data,
	})
}

// Dashboard redirects to the home page (dashboard lives at "/").
func (h *UIHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusMovedPermanently)
}

// fragmentRenderOptions configures one HTMX fragment render.
type fragmentRenderOptions struct {
	Template string
	Data     map[string]any
}

// renderFragment renders an HTMX fragment with consistent headers and logging.
func (h *UIHandlers) renderFragment(w http.ResponseWriter, r *http.Request, opts fragmentRenderOptions) {
	var buf bytes.Buffer
	if err := h.T.t.ExecuteTemplate(&buf, opts.Template, opts.Data); err != nil {
		h.logger().ErrorContext(r.Context(), "failed to render fragment",
			"template", opts.Template,
			"error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Vary", "HX-Request")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger().ErrorContext(r.Context(), "failed to write fragment",
			"template", opts.Template,
			"error", err)
	}
}
