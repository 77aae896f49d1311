package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/orderdesk/orderdesk/internal/domain/auth"
	"github.com/orderdesk/orderdesk/internal/service"
)

// AuthServiceInterface is what the auth handlers need from the auth
// service.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers serves the login, callback, logout, and status endpoints.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// oauthCookieTTL bounds how long a login attempt may take.
const oauthCookieTTL = 600

// Login starts the OAuth flow.
// GET /auth/login?redirect_uri=<optional destination>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	// Hold state, nonce, and the destination in cookies until the
	// provider calls back.
	h.setCookie(w, r, "oauth_state", result.State, oauthCookieTTL)
	h.setCookie(w, r, "oauth_nonce", result.Nonce, oauthCookieTTL)
	h.setCookie(w, r, "post_login_redirect", redirectURI, oauthCookieTTL)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback finishes the OAuth flow once the provider redirects back
// with a code and the state echo.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		h.badCallback(w, "missing_code", "authorization code is required")
		return
	}
	if state == "" {
		h.badCallback(w, "missing_state", "state parameter is required")
		return
	}

	// The state echo must match the cookie set at login time.
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value != state {
		h.badCallback(w, "invalid_state", "invalid or missing state parameter")
		return
	}
	nonceCookie, err := r.Cookie("oauth_nonce")
	if err != nil {
		h.badCallback(w, "missing_nonce", "missing nonce parameter")
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	h.setSessionCookie(w, r, result.Session)
	h.clearCookie(w, r, "oauth_state")
	h.clearCookie(w, r, "oauth_nonce")

	http.Redirect(w, r, h.takePostLoginRedirect(w, r), http.StatusFound)
}

func (h *AuthHandlers) badCallback(w http.ResponseWriter, code, msg string) {
	WriteError(w, ErrorParams{
		Code:    http.StatusBadRequest,
		ErrCode: code,
		Err:     errors.New(msg),
	})
}

// Logout invalidates the server-side session and clears the cookie.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie("session_id"); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), sessionCookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}
	h.clearCookie(w, r, "session_id")

	// Where the user should land after signing back in.
	redirectURI := r.FormValue("redirect_uri")
	if redirectURI == "" {
		redirectURI = r.URL.Query().Get("redirect_uri")
	}
	redirectURI = safeRedirectPath(redirectURI)

	u := url.URL{Path: "/auth/signed-out"}
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	u.RawQuery = q.Encode()
	signedOutURL := u.String()

	// htmx and XHR callers navigate themselves from the JSON payload;
	// plain form posts get a redirect.
	if wantsJSONNavigation(r) {
		WriteJSON(w, http.StatusOK, logoutResponse{Status: "success", RedirectTo: signedOutURL})
		return
	}
	http.Redirect(w, r, signedOutURL, http.StatusFound)
}

// wantsJSONNavigation reports whether the caller will handle navigation
// itself given a JSON payload (htmx, fetch, or classic XHR).
func wantsJSONNavigation(r *http.Request) bool {
	switch {
	case strings.Contains(r.Header.Get("Accept"), "application/json"):
		return true
	case strings.EqualFold(r.Header.Get("Hx-Request"), "true"):
		return true
	case strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest"):
		return true
	}
	return false
}

type logoutResponse struct {
	Status     string `json:"status"`
	RedirectTo string `json:"redirect_to"`
}

type statusUser struct {
	ID        string          `json:"id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email"`
	Role      domainauth.Role `json:"role"`
}

type statusResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *statusUser `json:"user,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
}

// Status reports the current session, if any.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie("session_id")
	if err != nil {
		WriteJSON(w, http.StatusOK, statusResponse{})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		// Expired or bogus session; stop the browser from resending it.
		h.clearCookie(w, r, "session_id")
		WriteJSON(w, http.StatusOK, statusResponse{})
		return
	}

	WriteJSON(w, http.StatusOK, statusResponse{
		Authenticated: true,
		User: &statusUser{
			ID:        session.UserID,
			FirstName: session.FirstName,
			LastName:  session.LastName,
			Email:     session.Email,
			Role:      session.Role,
		},
		ExpiresAt: &session.ExpiresAt,
	})
}

// requestIsSecure checks TLS directly or via the proxy header. The
// X-Forwarded-Proto value may be a comma-separated hop list.
func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// setCookie writes an HttpOnly Lax cookie with the handler's domain and
// the given lifetime in seconds.
func (h *AuthHandlers) setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// clearCookie expires a cookie, mirroring the attributes used when it was
// set so every browser actually deletes it.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		SameSite: http.SameSiteLaxMode,
	})
}

// setSessionCookie ties the cookie lifetime to the session expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	h.setCookie(w, r, "session_id", s.ID, int(time.Until(s.ExpiresAt).Seconds()))
}

// takePostLoginRedirect consumes the post_login_redirect cookie, with a
// re-validation pass in case the cookie was tampered with.
func (h *AuthHandlers) takePostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if cookie, err := r.Cookie("post_login_redirect"); err == nil {
		redirectURI = safeRedirectPath(cookie.Value)
		h.clearCookie(w, r, "post_login_redirect")
	}
	return redirectURI
}

// safeRedirectPath accepts only same-origin relative paths starting with
// "/"; anything else collapses to "/".
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	switch {
	case err != nil, u.IsAbs(), u.Host != "":
		return "/"
	case !strings.HasPrefix(u.Path, "/"):
		return "/"
	}
	return candidate
}
