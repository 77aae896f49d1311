package httpx

import (
	"bytes"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	orderdesk "github.com/orderdesk/orderdesk"
	domainauth "github.com/orderdesk/orderdesk/internal/domain/auth"
	"github.com/orderdesk/orderdesk/internal/service"
)

// RouterServices holds everything the HTTP router needs. Auth may be
// nil, which leaves every route unprotected (dev and tests only).
type RouterServices struct {
	Orders       *service.OrderService
	Customers    *service.CustomerService
	Auth         *service.AuthService
	CookieDomain string
	IsDev        bool         // serve templates and assets from disk
	Logger       *slog.Logger // optional, for template and HTTP errors
}

// NewRouter wires the JSON API, auth endpoints, static assets and the
// server-rendered UI onto one handler.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()
	guard := apiGuard(services.Auth)

	orderH := &OrderHandlers{Svc: services.Orders}
	mountResource(mux, resourceEndpoints{
		base:   "/api/orders",
		create: orderH.Create,
		list:   orderH.List,
		get:    orderH.GetByID,
		remove: orderH.Delete,
		guard:  guard,
	})
	mux.Handle("PATCH /api/orders/{id}/status", guard(http.HandlerFunc(orderH.UpdateStatus)))
	mux.Handle("GET /api/orders/status-counts", guard(http.HandlerFunc(orderH.StatusCounts)))

	custH := &CustomerHandlers{Svc: services.Customers}
	mountResource(mux, resourceEndpoints{
		base:   "/api/customers",
		create: custH.Create,
		list:   custH.List,
		get:    custH.GetByID,
		remove: custH.Delete,
		guard:  guard,
	})

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	if services.Auth != nil {
		authH := &AuthHandlers{
			Svc:          services.Auth,
			CookieDomain: services.CookieDomain,
			Logger:       services.Logger,
		}
		mux.HandleFunc("GET /auth/login", authH.Login)
		mux.HandleFunc("GET /auth/callback", authH.Callback)
		mux.HandleFunc("POST /auth/logout", authH.Logout)
		mux.HandleFunc("GET /auth/status", authH.Status)
	}

	mux.Handle("GET /static/", staticFiles(services.IsDev))

	uiHandlers := buildUIHandlers(services)
	if uiHandlers != nil {
		registerUIRoutes(mux, uiHandlers, uiRouteConfig{
			Auth:         services.Auth,
			CookieDomain: services.CookieDomain,
		})
	}

	return BrowserDetection()(&notFoundHandler{mux: mux, uiHandlers: uiHandlers})
}

// templateSource picks disk templates in dev mode (so edits show up
// without a rebuild) and the embedded copies otherwise.
func templateSource(isDev bool) fs.FS {
	if isDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(orderdesk.TemplateFS, "frontend/templates")
	if err != nil {
		log.Printf("embedded templates unavailable (%v), reading from disk", err)
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// buildUIHandlers constructs the server-rendered UI layer. A broken
// template set disables the UI but leaves the API up.
func buildUIHandlers(services RouterServices) *UIHandlers {
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateSource(services.IsDev),
		Logger:     services.Logger,
	})
	if err != nil {
		if services.Logger != nil {
			services.Logger.Error("template renderer init", slog.Any("error", err))
		} else {
			log.Printf("ERROR: template renderer init: %v", err)
		}
		return nil
	}

	return &UIHandlers{
		T:        tr,
		OrderSvc: services.Orders,
		CustSvc:  services.Customers,
		IsDev:    services.IsDev,
		Logger:   services.Logger,
	}
}

// staticFiles serves /static/* assets. Assets are not content-hashed,
// so the cache header forces revalidation on every request.
func staticFiles(isDev bool) http.Handler {
	root := http.FileSystem(http.Dir("frontend/static"))
	if !isDev {
		sub, err := fs.Sub(orderdesk.StaticFS, "frontend/static")
		if err != nil {
			log.Printf("embedded static assets unavailable: %v", err)
		} else {
			root = http.FS(sub)
		}
	}

	files := http.StripPrefix("/static/", http.FileServer(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, max-age=0, must-revalidate")
		files.ServeHTTP(w, r)
	})
}

// notFoundHandler buffers mux responses so unmatched routes can be
// re-routed to the styled 404 page instead of the mux default.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	buffered := newResponseBuffer()
	h.mux.ServeHTTP(buffered, r)

	// Missing static assets keep the file server's plain 404.
	if buffered.status != http.StatusNotFound || strings.HasPrefix(r.URL.Path, "/static/") {
		buffered.replayTo(w)
		return
	}
	if h.uiHandlers == nil {
		http.NotFound(w, r)
		return
	}
	h.uiHandlers.NotFound(w, r)
}

// responseBuffer holds headers, status and body until the dispatch
// outcome is known.
type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header), status: http.StatusOK}
}

func (b *responseBuffer) Header() http.Header         { return b.header }
func (b *responseBuffer) WriteHeader(code int)        { b.status = code }
func (b *responseBuffer) Write(p []byte) (int, error) { return b.body.Write(p) }

func (b *responseBuffer) replayTo(w http.ResponseWriter) {
	dst := w.Header()
	for key, values := range b.header {
		for _, v := range values {
			dst.Add(key, v)
		}
	}
	w.WriteHeader(b.status)
	if _, err := b.body.WriteTo(w); err != nil {
		log.Printf("replaying buffered response: %v", err)
	}
}

// resourceEndpoints is the standard CRUD route set for one API
// resource. All four handlers are required; guard may be nil.
type resourceEndpoints struct {
	base   string
	create http.HandlerFunc
	list   http.HandlerFunc
	get    http.HandlerFunc
	remove http.HandlerFunc
	guard  func(http.Handler) http.Handler
}

func mountResource(mux *http.ServeMux, ep resourceEndpoints) {
	if ep.base == "" {
		panic("mountResource: empty base path") //nolint:forbidigo // route table bugs should stop startup
	}
	if ep.create == nil || ep.list == nil || ep.get == nil || ep.remove == nil {
		panic("mountResource: missing handler for " + ep.base) //nolint:forbidigo // route table bugs should stop startup
	}

	guard := ep.guard
	if guard == nil {
		guard = passthrough
	}
	mux.Handle("POST "+ep.base, guard(ep.create))
	mux.Handle("GET "+ep.base, guard(ep.list))
	mux.Handle("GET "+ep.base+"/{id}", guard(ep.get))
	mux.Handle("DELETE "+ep.base+"/{id}", guard(ep.remove))
}

func passthrough(h http.Handler) http.Handler { return h }

// apiGuard protects API handlers with RequireAuth when auth is
// configured, and is a no-op otherwise.
func apiGuard(auth *service.AuthService) func(http.Handler) http.Handler {
	if auth == nil {
		return passthrough
	}
	return RequireAuth(auth)
}

// uiRouteConfig holds what the UI route tables need beyond handlers.
type uiRouteConfig struct {
	Auth         *service.AuthService
	CookieDomain string
}

// authWrap guards a browser route with session checks, or passes
// through when auth is off.
func (cfg uiRouteConfig) authWrap() func(http.Handler) http.Handler {
	if cfg.Auth == nil {
		return passthrough
	}
	return RequireAuthBrowser(cfg.Auth)
}

// adminWrap layers CSRF validation under the admin role check for
// mutating browser routes.
func (cfg uiRouteConfig) adminWrap() func(http.Handler) http.Handler {
	if cfg.Auth == nil {
		return passthrough
	}
	csrf := CSRFProtection(CSRFConfig{CookieDomain: cfg.CookieDomain})
	roleCheck := RequireRoleBrowser(cfg.Auth, domainauth.RoleAdmin)
	return func(h http.Handler) http.Handler {
		return roleCheck(csrf(h))
	}
}

func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	registerUIDashboardRoutes(mux, h, cfg)
	registerUIOrderRoutes(mux, h, cfg)
	registerUICustomerRoutes(mux, h, cfg)
	// The signed-out page stays reachable without a session.
	mux.Handle("GET /auth/signed-out", http.HandlerFunc(h.SignedOut))
}

func registerUIDashboardRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrap := cfg.authWrap()
	mux.Handle("GET /", wrap(http.HandlerFunc(h.Index)))
	mux.Handle("GET /dashboard", wrap(http.HandlerFunc(h.Dashboard)))
	mux.Handle("GET /dashboard/recent-orders", wrap(http.HandlerFunc(h.RecentOrdersFragment)))
}

func registerUIOrderRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrap := cfg.authWrap()
	mux.Handle("GET /orders", wrap(http.HandlerFunc(h.Orders)))
	mux.Handle("GET /orders/{id}", wrap(http.HandlerFunc(h.OrderView)))

	admin := cfg.adminWrap()
	mux.Handle("POST /orders/{id}/status", admin(http.HandlerFunc(h.OrderUpdateStatus)))
	mux.Handle("DELETE /orders/{id}", admin(http.HandlerFunc(h.OrderDelete)))
}

func registerUICustomerRoutes(mux *http.ServeMux, h *UIHandlers, cfg uiRouteConfig) {
	wrap := cfg.authWrap()
	mux.Handle("GET /customers", wrap(http.HandlerFunc(h.Customers)))
	mux.Handle("GET /customers/{id}", wrap(http.HandlerFunc(h.CustomerView)))

	admin := cfg.adminWrap()
	mux.Handle("DELETE /customers/{id}", admin(http.HandlerFunc(h.CustomerDelete)))
}
