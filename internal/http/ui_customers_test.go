package httpx

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/data"
	"github.com/orderdesk/orderdesk/internal/domain/model"
	"github.com/orderdesk/orderdesk/internal/service"
	"github.com/orderdesk/orderdesk/internal/testutil"
)

func newCustomerUIHandlerForTest(t *testing.T, db *sql.DB) *UIHandlers {
	t.Helper()
	h := CreateUIHandlersForTest(t)
	if h == nil {
		t.Fatal("cannot create UI handlers for test")
	}
	h.OrderSvc = service.NewOrderService(service.OrderServiceOptions{Orders: data.NewOrderRepo(db)})
	h.CustSvc = service.NewCustomerService(service.CustomerServiceOptions{Customers: data.NewCustomerRepo(db)})
	return h
}

func createUITestCustomer(t *testing.T, db *sql.DB, name, email, website string) *model.Customer {
	t.Helper()
	req := testutil.NewCustomerRequest().WithName(name).WithEmail(email)
	if website != "" {
		req = req.WithWebsite(website)
	}
	customer, err := data.NewCustomerRepo(db).Create(context.Background(), req.Build())
	require.NoError(t, err)
	return customer
}

func TestUIHandlers_Customers_ListRendersTable(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h := newCustomerUIHandlerForTest(t, db)

		createUITestCustomer(t, db, "Acme Corp", "ops@acme.example", "https://shop.acme.example")
		createUITestCustomer(t, db, "Globex", "billing@globex.example", "")

		r := httptest.NewRequest(http.MethodGet, "/customers", nil)
		r.Header.Set("Accept", "text/html")
		w := httptest.NewRecorder()

		h.Customers(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Acme Corp")
		assert.Contains(t, body, "Globex")
		assert.Contains(t, body, `id="customers-table"`)
		// Domain filter is a free-text input, not a select.
		assert.Contains(t, body, `name="domain"`)
		assert.Contains(t, body, "table-filter-input")
		assert.Contains(t, body, "1 - 2 of 2 Customers")
	})
}

func TestUIHandlers_Customers_ListDomainFilter(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h := newCustomerUIHandlerForTest(t, db)

		createUITestCustomer(t, db, "Acme Corp", "ops@acme.example", "https://shop.acme.example")
		createUITestCustomer(t, db, "Globex", "billing@globex.example", "https://www.globex.example")

		r := httptest.NewRequest(http.MethodGet, "/customers?domain=globex.example", nil)
		r.Header.Set("Accept", "text/html")
		w := httptest.NewRecorder()

		h.Customers(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Globex")
		assert.NotContains(t, body, "Acme Corp")
		// The filter input keeps the current value.
		assert.Contains(t, body, `value="globex.example"`)
	})
}

func TestUIHandlers_CustomerView_RendersDetailWithRecentOrders(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h := newCustomerUIHandlerForTest(t, db)

		customer := createUITestCustomer(t, db, "Acme Corp", "ops@acme.example", "https://shop.acme.example")
		createUITestOrder(t, db, customer.ID, "ORD-7001", model.OrderStatusPaid)

		r := httptest.NewRequest(http.MethodGet, "/customers/"+customer.ID, nil)
		r.SetPathValue("id", customer.ID)
		r.Header.Set("Accept", "text/html")
		w := httptest.NewRecorder()

		h.CustomerView(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Acme Corp")
		assert.Contains(t, body, "ops@acme.example")
		assert.Contains(t, body, "acme.example")
		assert.Contains(t, body, "ORD-7001")
	})
}

func TestUIHandlers_CustomerView_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h := newCustomerUIHandlerForTest(t, db)

		r := httptest.NewRequest(http.MethodGet, "/customers/00000000-0000-0000-0000-000000000000", nil)
		r.SetPathValue("id", "00000000-0000-0000-0000-000000000000")
		r.Header.Set("Accept", "text/html")
		w := httptest.NewRecorder()

		h.CustomerView(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUIHandlers_CustomerDelete_HTMX(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h := newCustomerUIHandlerForTest(t, db)
		customer := createUITestCustomer(t, db, "Acme Corp", "ops@acme.example", "")

		r := httptest.NewRequest(http.MethodDelete, "/customers/"+customer.ID, nil)
		r.SetPathValue("id", customer.ID)
		r.Header.Set("HX-Request", "true")
		w := httptest.NewRecorder()

		h.CustomerDelete(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("HX-Trigger"), "Customer deleted.")
	})
}

func TestUIHandlers_CustomerDelete_WithOrders_HTMXToastsError(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		h := newCustomerUIHandlerForTest(t, db)
		customer := createUITestCustomer(t, db, "Acme Corp", "ops@acme.example", "")
		createUITestOrder(t, db, customer.ID, "ORD-8001", model.OrderStatusPending)

		r := httptest.NewRequest(http.MethodDelete, "/customers/"+customer.ID, nil)
		r.SetPathValue("id", customer.ID)
		r.Header.Set("HX-Request", "true")
		w := httptest.NewRecorder()

		h.CustomerDelete(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("HX-Trigger"), "showToast")

		// The customer must still exist.
		still, err := h.CustSvc.Get(context.Background(), customer.ID)
		require.NoError(t, err)
		assert.Equal(t, customer.ID, still.ID)
	})
}
