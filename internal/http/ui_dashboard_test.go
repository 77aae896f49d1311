package httpx

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orderdesk/orderdesk/internal/data"
	"github.com/orderdesk/orderdesk/internal/domain/model"
	"github.com/orderdesk/orderdesk/internal/service"
	"github.com/orderdesk/orderdesk/internal/testutil"
)

func newDashboardUIHandlerForTest(t *testing.T, db *sql.DB) *UIHandlers {
	t.Helper()
	h := CreateUIHandlersForTest(t)
	if h == nil {
		t.Fatal("cannot create UI handlers for test")
	}
	h.OrderSvc = service.NewOrderService(service.OrderServiceOptions{Orders: data.NewOrderRepo(db)})
	h.CustSvc = service.NewCustomerService(service.CustomerServiceOptions{Customers: data.NewCustomerRepo(db)})
	return h
}

func TestUIHandlers_Index_RendersStatusTilesAndRecentOrders(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h := newDashboardUIHandlerForTest(t, db)
		customer := createUITestCustomer(t, db, "Acme Corp", "ops@acme.example", "")

		createUITestOrder(t, db, customer.ID, "ORD-9001", model.OrderStatusPaid)
		createUITestOrder(t, db, customer.ID, "ORD-9002", model.OrderStatusPending)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", "text/html")
		w := httptest.NewRecorder()

		h.Index(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		// One tile per status, including zero counts.
		assert.True(t, ContainsAll(body, []string{"Pending", "Paid", "Shipped", "Cancelled", "Refunded"}))
		// Recent orders panel
		assert.Contains(t, body, "Recent orders")
		assert.Contains(t, body, "ORD-9001")
		assert.Contains(t, body, "ORD-9002")
	})
}

func TestUIHandlers_Index_EmptyState(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h := newDashboardUIHandlerForTest(t, db)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", "text/html")
		w := httptest.NewRecorder()

		h.Index(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "No orders yet.")
	})
}

func TestUIHandlers_RecentOrdersFragment(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h := newDashboardUIHandlerForTest(t, db)
		customer := createUITestCustomer(t, db, "Acme Corp", "ops@acme.example", "")
		createUITestOrder(t, db, customer.ID, "ORD-9101", model.OrderStatusShipped)

		r := httptest.NewRequest(http.MethodGet, "/dashboard/recent-orders", nil)
		r.Header.Set("HX-Request", "true")
		w := httptest.NewRecorder()

		h.RecentOrdersFragment(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "ORD-9101")
		// Fragment responses must not be cached.
		assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
		// The fragment is a partial, not a full document.
		assert.NotContains(t, body, "<html")
	})
}

func TestUIHandlers_Dashboard_RedirectsToRoot(t *testing.T) {
	h := CreateUIHandlersForTest(t)
	if h == nil {
		return
	}

	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	w := httptest.NewRecorder()

	h.Dashboard(w, r)

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}
