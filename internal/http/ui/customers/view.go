package customers

import (
	"html"
	"html/template"
	"time"

	"github.com/orderdesk/orderdesk/internal/domain/model"
	"github.com/orderdesk/orderdesk/internal/http/ui/components"
	"github.com/orderdesk/orderdesk/internal/http/uiutil"
	"github.com/orderdesk/orderdesk/internal/service"
)

// CustomerRow represents a single customer entry rendered in list and detail views.
type CustomerRow struct {
	ID        string
	Name      string
	Email     string
	Website   string
	Domain    string
	CreatedAt time.Time
}

// NewRow builds a CustomerRow, deriving the registrable domain from the
// customer's website or email host.
func NewRow(c *model.Customer) CustomerRow {
	row := CustomerRow{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Domain:    service.RegistrableDomain(c),
		CreatedAt: c.CreatedAt,
	}
	if c.Website != nil {
		row.Website = *c.Website
	}
	return row
}

// FriendlyCreatedAt renders a human-friendly timestamp for when the customer was created.
func (r CustomerRow) FriendlyCreatedAt() string {
	return uiutil.FriendlyRelativeTime(r.CreatedAt)
}

// CreatedAtDisplay renders the full created-at timestamp.
func (r CustomerRow) CreatedAtDisplay() string {
	return uiutil.FormatFriendlyDateTime(r.CreatedAt)
}

// DetailPath returns the browser path of the customer's detail page.
func (r CustomerRow) DetailPath() string {
	return "/customers/" + r.ID
}

// TableParams carries everything the customers table needs for one render.
type TableParams struct {
	Rows      []CustomerRow
	Query     string // current search term
	Domain    string // current registrable-domain filter
	CanManage bool
	Target    string // htmx swap target, e.g. "#content"
}

// domainFilterFragment renders the free-text domain filter. Domains are an
// open set, so this is an input rather than a dropdown.
func domainFilterFragment(current string) template.HTML {
	frag := `<label class="table-filter"><span class="table-filter-label">Domain</span>` +
		`<input type="text" class="table-filter-input" name="domain"` +
		` value="` + html.EscapeString(current) + `"` +
		` placeholder="example.com"` +
		` hx-get="/customers" hx-trigger="change" hx-push-url="true" hx-target="#content">` +
		`</label>`
	return template.HTML(frag) //nolint:gosec // value escaped above
}

// RenderTable renders the customers table with the domain filter, search box,
// and one row per customer linking to the detail page.
func RenderTable(p TableParams) (template.HTML, error) {
	head := components.Head(components.ElementConfig{},
		components.HeadRow(components.ElementConfig{}, headCells(p.CanManage)...),
	)

	rows := make([]template.HTML, 0, len(p.Rows))
	for _, row := range p.Rows {
		var actions []components.Action
		if p.CanManage {
			actions = []components.Action{{
				Label:  "Delete",
				Target: "/customers/" + row.ID,
				Method: "delete",
				Icon:   "icon-trash",
			}}
		}
		rows = append(rows, components.Row(
			components.RowConfig{
				Attrs:   components.Attrs{"id": "customer-row-" + row.ID},
				LinkTo:  row.DetailPath(),
				Target:  p.Target,
				Actions: actions,
			},
			components.Cell(components.ElementConfig{}, components.Text(row.Name)),
			components.Cell(components.ElementConfig{}, components.Text(row.Email)),
			components.Cell(components.ElementConfig{}, components.Text(row.Domain)),
			components.Cell(components.ElementConfig{}, components.Text(row.FriendlyCreatedAt())),
		))
	}
	body := components.Body(components.ElementConfig{}, rows...)

	return components.Table(components.TableConfig{
		Attrs:          components.Attrs{"id": "customers-table"},
		FilterFragment: domainFilterFragment(p.Domain),
		FilterAction:   "/customers",
		EnableSearch:   true,
		SearchAction:   "/customers",
		SearchValue:    p.Query,
		Target:         p.Target,
	}, head, body)
}

func headCells(canManage bool) []template.HTML {
	cells := []template.HTML{
		components.HeadCell(components.ElementConfig{}, components.Text("Name")),
		components.HeadCell(components.ElementConfig{}, components.Text("Email")),
		components.HeadCell(components.ElementConfig{}, components.Text("Domain")),
		components.HeadCell(components.ElementConfig{}, components.Text("Created")),
	}
	if canManage {
		cells = append(cells, components.HeadCell(components.ElementConfig{Class: "table-cell-actions"}))
	}
	return cells
}
