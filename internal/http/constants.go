package httpx

// Page identifiers shared between UI handlers, navigation state, and
// template selection.
const (
	PageHome      = "home"
	PageDashboard = "dashboard"

	PageOrders    = "orders"
	PageOrderView = "order-view"

	PageCustomers    = "customers"
	PageCustomerView = "customer-view"
)

// MaxCustomersForFilter caps how many customers a view fetches when it
// needs the whole set, e.g. for filter dropdowns or summaries.
const MaxCustomersForFilter = 1000

// Template directory locations relative to the process working
// directory (production binary vs package tests).
const (
	TemplatePathFromRoot = "frontend/templates"
	TemplatePathFromTest = "../../frontend/templates"
)

//nolint:gochecknoglobals // static page-to-template lookup
var contentTemplates = map[string]string{
	PageHome:         "dashboard-content",
	PageDashboard:    "dashboard-content",
	PageOrders:       "orders-content",
	PageOrderView:    "order-view-content",
	PageCustomers:    "customers-content",
	PageCustomerView: "customer-view-content",
}

// ContentTemplateMap exposes the page-to-template mapping. It is the
// single source of truth for template selection.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor resolves the content template for a page,
// defaulting to the dashboard for anything unknown.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "dashboard-content"
}
