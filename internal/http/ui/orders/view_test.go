package orders

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/domain/model"
)

func sampleRow(status model.OrderStatus) OrderRow {
	return NewRow(&model.OrderWithCustomer{
		Order: model.Order{
			ID:         "ord-1",
			Number:     "ORD-1001",
			CustomerID: "cust-1",
			Status:     status,
			TotalCents: 129900,
			Currency:   "USD",
			PlacedAt:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
		CustomerName: "Acme Corp",
	})
}

func TestOrderRow_Display(t *testing.T) {
	row := sampleRow(model.OrderStatusPaid)

	assert.Equal(t, "1,299.00 USD", row.TotalDisplay())
	assert.Equal(t, "Paid", row.StatusDisplay())
	assert.Equal(t, "badge-success", row.StatusBadgeClass())
	assert.Equal(t, "/orders/ord-1", row.DetailPath())
}

func TestOrderRow_StatusBadgeClass(t *testing.T) {
	cases := map[model.OrderStatus]string{
		model.OrderStatusPending:   "badge-info",
		model.OrderStatusPaid:      "badge-success",
		model.OrderStatusShipped:   "badge-primary",
		model.OrderStatusCancelled: "badge-secondary",
		model.OrderStatusRefunded:  "badge-warning",
	}
	for status, want := range cases {
		assert.Equal(t, want, sampleRow(status).StatusBadgeClass(), "status %s", status)
	}
}

func TestOrderRow_NextStatuses(t *testing.T) {
	assert.Equal(t,
		[]model.OrderStatus{model.OrderStatusPaid, model.OrderStatusCancelled},
		sampleRow(model.OrderStatusPending).NextStatuses())
	assert.Equal(t,
		[]model.OrderStatus{model.OrderStatusShipped, model.OrderStatusRefunded},
		sampleRow(model.OrderStatusPaid).NextStatuses())
	assert.Equal(t,
		[]model.OrderStatus{model.OrderStatusRefunded},
		sampleRow(model.OrderStatusShipped).NextStatuses())
	assert.Nil(t, sampleRow(model.OrderStatusCancelled).NextStatuses())
	assert.Nil(t, sampleRow(model.OrderStatusRefunded).NextStatuses())
}

func TestOrderRow_Transitions(t *testing.T) {
	transitions := sampleRow(model.OrderStatusPending).Transitions()
	require.Len(t, transitions, 2)
	assert.Equal(t, "Mark paid", transitions[0].Label)
	assert.Equal(t, "/orders/ord-1/status?status=paid", transitions[0].Path)
	assert.Equal(t, "Cancel", transitions[1].Label)
	assert.Equal(t, "/orders/ord-1/status?status=cancelled", transitions[1].Path)
}

func TestRenderTable_FullComposite(t *testing.T) {
	html, err := RenderTable(TableParams{
		Rows:      []OrderRow{sampleRow(model.OrderStatusPending)},
		Query:     "acme",
		Status:    "pending",
		CanManage: true,
		Target:    "#content",
	})
	require.NoError(t, err)
	out := string(html)

	// Toolbar: status filter with the current selection, search with the term.
	assert.Contains(t, out, `name="status"`)
	assert.Contains(t, out, `value="pending" selected`)
	assert.Contains(t, out, `name="q"`)
	assert.Contains(t, out, `value="acme"`)
	assert.Contains(t, out, `hx-get="/orders"`)
	assert.Contains(t, out, `hx-target="#content"`)

	// Row content and navigation.
	assert.Contains(t, out, "ORD-1001")
	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, `id="order-row-ord-1"`)
	assert.Contains(t, out, `hx-get="/orders/ord-1"`)
	assert.Contains(t, out, `hx-push-url="true"`)

	// Status badge cell.
	assert.Contains(t, out, `<span class="badge badge-info">Pending</span>`)

	// Admin actions: transitions plus delete.
	assert.Contains(t, out, "Mark paid")
	assert.Contains(t, out, "Cancel")
	assert.Contains(t, out, `hx-delete="/orders/ord-1"`)
	assert.Contains(t, out, "stopPropagation")
}

func TestRenderTable_ReadOnlyHidesActions(t *testing.T) {
	html, err := RenderTable(TableParams{
		Rows:      []OrderRow{sampleRow(model.OrderStatusPending)},
		CanManage: false,
	})
	require.NoError(t, err)
	out := string(html)

	assert.NotContains(t, out, "Mark paid")
	assert.NotContains(t, out, "hx-delete")
	// Head must not carry a trailing actions column.
	assert.Equal(t, 5, strings.Count(out, "table-head-cell"))
	assert.NotContains(t, out, "table-cell-actions")
}

func TestStatusFilter_AllStatusesOption(t *testing.T) {
	f := StatusFilter("")
	require.NotEmpty(t, f.Options)
	assert.Equal(t, "", f.Options[0].Value)
	assert.Equal(t, "All statuses", f.Options[0].Label)
	assert.Len(t, f.Options, len(model.OrderStatuses())+1)
}
