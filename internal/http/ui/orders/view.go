package orders

import (
	"html/template"
	"strings"
	"time"

	"github.com/orderdesk/orderdesk/internal/domain/model"
	"github.com/orderdesk/orderdesk/internal/http/ui/components"
	"github.com/orderdesk/orderdesk/internal/http/uiutil"
)

// OrderRow represents a single order entry rendered in list and detail views.
type OrderRow struct {
	ID           string
	Number       string
	CustomerID   string
	CustomerName string
	Status       model.OrderStatus
	TotalCents   int64
	Currency     string
	Metadata     map[string]any
	PlacedAt     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewRow builds an OrderRow from an order joined with its customer name.
func NewRow(o *model.OrderWithCustomer) OrderRow {
	return OrderRow{
		ID:           o.ID,
		Number:       o.Number,
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		Status:       o.Status,
		TotalCents:   o.TotalCents,
		Currency:     o.Currency,
		Metadata:     o.Metadata,
		PlacedAt:     o.PlacedAt,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

// FriendlyPlacedAt renders a human-friendly timestamp for when the order was placed.
func (r OrderRow) FriendlyPlacedAt() string {
	return uiutil.FriendlyRelativeTime(r.PlacedAt)
}

// PlacedAtDisplay renders the full placed-at timestamp.
func (r OrderRow) PlacedAtDisplay() string {
	return uiutil.FormatFriendlyDateTime(r.PlacedAt)
}

// TotalDisplay renders the order total in major units with the currency code.
func (r OrderRow) TotalDisplay() string {
	return uiutil.FormatMoney(r.TotalCents, r.Currency)
}

// StatusDisplay returns a capitalized label for the order status.
func (r OrderRow) StatusDisplay() string {
	s := string(r.Status)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// StatusBadgeClass returns the CSS modifier class for the status badge.
func (r OrderRow) StatusBadgeClass() string {
	switch r.Status {
	case model.OrderStatusPending:
		return "badge-info"
	case model.OrderStatusPaid:
		return "badge-success"
	case model.OrderStatusShipped:
		return "badge-primary"
	case model.OrderStatusCancelled:
		return "badge-secondary"
	case model.OrderStatusRefunded:
		return "badge-warning"
	default:
		return "badge-light"
	}
}

// DetailPath returns the browser path of the order's detail page.
func (r OrderRow) DetailPath() string {
	return "/orders/" + r.ID
}

// NextStatuses lists the statuses an order can move to from its current one.
// Terminal statuses (cancelled, refunded) have no transitions.
func (r OrderRow) NextStatuses() []model.OrderStatus {
	switch r.Status {
	case model.OrderStatusPending:
		return []model.OrderStatus{model.OrderStatusPaid, model.OrderStatusCancelled}
	case model.OrderStatusPaid:
		return []model.OrderStatus{model.OrderStatusShipped, model.OrderStatusRefunded}
	case model.OrderStatusShipped:
		return []model.OrderStatus{model.OrderStatusRefunded}
	default:
		return nil
	}
}

// rowActions builds the overflow menu entries for one order row.
func (r OrderRow) rowActions(canManage bool) []components.Action {
	if !canManage {
		return nil
	}
	actions := make([]components.Action, 0, 3)
	for _, next := range r.NextStatuses() {
		actions = append(actions, components.Action{
			Label:  transitionLabel(next),
			Target: "/orders/" + r.ID + "/status?status=" + string(next),
			Method: "post",
			Icon:   "icon-status-" + string(next),
		})
	}
	actions = append(actions, components.Action{
		Label:  "Delete",
		Target: "/orders/" + r.ID,
		Method: "delete",
		Icon:   "icon-trash",
	})
	return actions
}

// Transition describes one status change available from the row's current
// status, ready for rendering as a form action.
type Transition struct {
	Status model.OrderStatus
	Label  string
	Path   string
}

// Transitions returns the status changes reachable from the row's current
// status, in display order.
func (r OrderRow) Transitions() []Transition {
	next := r.NextStatuses()
	if len(next) == 0 {
		return nil
	}
	out := make([]Transition, 0, len(next))
	for _, status := range next {
		out = append(out, Transition{
			Status: status,
			Label:  transitionLabel(status),
			Path:   "/orders/" + r.ID + "/status?status=" + string(status),
		})
	}
	return out
}

func transitionLabel(status model.OrderStatus) string {
	switch status {
	case model.OrderStatusPaid:
		return "Mark paid"
	case model.OrderStatusShipped:
		return "Mark shipped"
	case model.OrderStatusCancelled:
		return "Cancel"
	case model.OrderStatusRefunded:
		return "Refund"
	default:
		return "Mark " + string(status)
	}
}

// TableParams carries everything the orders table needs for one render.
type TableParams struct {
	Rows      []OrderRow
	Query     string // current search term
	Status    string // selected status filter, empty for all
	CanManage bool
	Target    string // htmx swap target, e.g. "#content"
}

// StatusFilter builds the status dropdown rendered in the table toolbar.
func StatusFilter(selected string) components.FilterOption {
	options := make([]components.SelectOption, 0, 6)
	options = append(options, components.SelectOption{Value: "", Label: "All statuses"})
	for _, s := range model.OrderStatuses() {
		label := strings.ToUpper(string(s)[:1]) + string(s)[1:]
		options = append(options, components.SelectOption{Value: string(s), Label: label})
	}
	return components.FilterOption{
		Name:     "status",
		Label:    "Status",
		Options:  options,
		Selected: selected,
	}
}

// RenderTable renders the orders table: toolbar with the status filter and
// search box, the header, and one row per order with click navigation to the
// detail page and an actions menu for managers.
func RenderTable(p TableParams) (template.HTML, error) {
	head := components.Head(components.ElementConfig{},
		components.HeadRow(components.ElementConfig{}, headCells(p.CanManage)...),
	)

	rows := make([]template.HTML, 0, len(p.Rows))
	for _, row := range p.Rows {
		rows = append(rows, components.Row(
			components.RowConfig{
				Attrs:   components.Attrs{"id": "order-row-" + row.ID},
				LinkTo:  row.DetailPath(),
				Target:  p.Target,
				Actions: row.rowActions(p.CanManage),
			},
			components.Cell(components.ElementConfig{}, components.Text(row.Number)),
			components.Cell(components.ElementConfig{}, components.Text(row.CustomerName)),
			statusCell(row),
			components.Cell(components.ElementConfig{Class: "table-cell-numeric"}, components.Text(row.TotalDisplay())),
			components.Cell(components.ElementConfig{}, components.Text(row.FriendlyPlacedAt())),
		))
	}
	body := components.Body(components.ElementConfig{}, rows...)

	return components.Table(components.TableConfig{
		Attrs:         components.Attrs{"id": "orders-table"},
		FilterOptions: []components.FilterOption{StatusFilter(p.Status)},
		FilterAction:  "/orders",
		EnableSearch:  true,
		SearchAction:  "/orders",
		SearchValue:   p.Query,
		Target:        p.Target,
	}, head, body)
}

func headCells(canManage bool) []template.HTML {
	cells := []template.HTML{
		components.HeadCell(components.ElementConfig{}, components.Text("Number")),
		components.HeadCell(components.ElementConfig{}, components.Text("Customer")),
		components.HeadCell(components.ElementConfig{}, components.Text("Status")),
		components.HeadCell(components.ElementConfig{Class: "table-cell-numeric"}, components.Text("Total")),
		components.HeadCell(components.ElementConfig{}, components.Text("Placed")),
	}
	if canManage {
		// actions column header
		cells = append(cells, components.HeadCell(components.ElementConfig{Class: "table-cell-actions"}))
	}
	return cells
}

func statusCell(row OrderRow) template.HTML {
	badge := `<span class="badge ` + row.StatusBadgeClass() + `">` + string(components.Text(row.StatusDisplay())) + `</span>`
	return components.Cell(components.ElementConfig{}, template.HTML(badge)) //nolint:gosec // label escaped above
}
