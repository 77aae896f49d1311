package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/orderdesk/orderdesk/internal/domain/auth"
)

var (
	errAuthRequired = errors.New("authentication required")
	errForbidden    = errors.New("insufficient permissions")
)

// Logging logs one line per request: method, path, status, duration.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusRecorder remembers the status code a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover turns handler panics into logged 500 responses.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("panic",
						slog.Any("error", v),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// sessionFromRequest resolves the session_id cookie into a validated
// session, or nil when the request carries no usable session.
func sessionFromRequest(r *http.Request, authSvc AuthServiceInterface) *domainauth.Session {
	cookie, err := r.Cookie("session_id")
	if err != nil {
		return nil
	}
	session, err := authSvc.GetSession(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return session
}

// roleLadder orders roles for hasRequiredRole comparisons.
var roleLadder = map[domainauth.Role]int{ //nolint:gochecknoglobals // fixed role ordering
	domainauth.RoleGuest: 0,
	domainauth.RoleUser:  1,
	domainauth.RoleAdmin: 2,
}

// hasRequiredRole compares roles on the Guest < User < Admin ladder.
// Unknown roles never qualify.
func hasRequiredRole(userRole, requiredRole domainauth.Role) bool {
	have, haveOK := roleLadder[userRole]
	want, wantOK := roleLadder[requiredRole]
	return haveOK && wantOK && have >= want
}

func writeAuthRequired(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errAuthRequired,
	})
}

func writeForbidden(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusForbidden,
		ErrCode: "insufficient_permissions",
		Err:     errForbidden,
	})
}

// sessionGate is the shared core of the auth middlewares: resolve the
// session, reject or redirect on failure, stash the session in the
// context on success. checkRole in browser mode renders the access
// denied page instead of the JSON 403.
type sessionGate struct {
	authSvc      AuthServiceInterface
	checkRole    bool
	requiredRole domainauth.Role
	browserAware bool
}

func (g sessionGate) middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessionFromRequest(r, g.authSvc)
			switch {
			case session == nil && g.browserAware && IsBrowserRequest(r):
				redirectToLogin(w, r)
			case session == nil:
				writeAuthRequired(w)
			case g.checkRole && !hasRequiredRole(session.Role, g.requiredRole):
				if g.browserAware && IsBrowserRequest(r) {
					showAccessDenied(w, r)
					return
				}
				writeForbidden(w)
			default:
				next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), session)))
			}
		})
	}
}

// RequireAuth rejects unauthenticated API requests with a 401.
func RequireAuth(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return sessionGate{authSvc: authSvc}.middleware()
}

// RequireRole rejects API requests below the required role: 401 without a
// session, 403 with one.
func RequireRole(authSvc AuthServiceInterface, requiredRole domainauth.Role) func(http.Handler) http.Handler {
	return sessionGate{authSvc: authSvc, checkRole: true, requiredRole: requiredRole}.middleware()
}

// RequireAuthBrowser is RequireAuth with browser-aware failure handling:
// browsers get sent to the login flow, API callers get a 401.
func RequireAuthBrowser(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return sessionGate{authSvc: authSvc, browserAware: true}.middleware()
}

// RequireRoleBrowser is RequireRole with browser-aware failure handling.
func RequireRoleBrowser(authSvc AuthServiceInterface, requiredRole domainauth.Role) func(http.Handler) http.Handler {
	return sessionGate{
		authSvc:      authSvc,
		checkRole:    true,
		requiredRole: requiredRole,
		browserAware: true,
	}.middleware()
}

// OptionalAuth attaches the session to the context when one exists and
// lets the request through either way.
func OptionalAuth(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session := sessionFromRequest(r, authSvc); session != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

type browserRequestKey struct{}

// BrowserDetection classifies each request as browser or API once, so
// downstream error handling can pick HTML or JSON without re-deriving it.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest reports whether the request came from a browser. It
// prefers the value BrowserDetection stored and falls back to header
// inspection when the middleware did not run.
func IsBrowserRequest(r *http.Request) bool {
	if v, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return v
	}
	return isBrowserRequest(r)
}

// isBrowserRequest: /api/ and /static/ are never browser traffic, htmx
// always is, and otherwise the Accept header decides (absent Accept on a
// page route counts as a browser).
func isBrowserRequest(r *http.Request) bool {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/"), strings.HasPrefix(r.URL.Path, "/static/"):
		return false
	case IsHTMX(r):
		return true
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html")
}

// redirectToLogin sends an unauthenticated browser to the login flow,
// carrying the current location as redirect_uri so sign-in lands back
// where the user was.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := redirectPathForRequest(r)
	if target == "" {
		target = "/"
	}
	escaped := url.QueryEscape(target)

	if IsHTMX(r) {
		// An htmx fragment swap cannot show a login page; navigate the
		// whole window to the signed-out page instead.
		SetHXRedirect(w, "/auth/signed-out?redirect_uri="+escaped)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/auth/login?redirect_uri="+escaped, http.StatusSeeOther)
}

// redirectPathForRequest picks the URL to come back to after login. For
// htmx requests the fragment URL is useless, so the page URL from
// Hx-Current-Url (or Referer) wins.
func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}

// safeRedirectFromURL reduces a possibly-absolute URL to an in-app path,
// rejecting scheme-relative references outright.
func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return ""
	case u.Host != "" && !u.IsAbs():
		return ""
	case u.IsAbs():
		return safeRedirectPath(u.RequestURI())
	default:
		return safeRedirectPath(raw)
	}
}

func showAccessDenied(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Access Denied: You don't have permission to access this resource", http.StatusForbidden)
}
