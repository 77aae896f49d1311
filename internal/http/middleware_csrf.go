package httpx

import (
	"cmp"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultCSRFCookieName names the cookie carrying the token.
	DefaultCSRFCookieName = "csrf_token"
	// DefaultCSRFHeaderName is the canonical echo header.
	DefaultCSRFHeaderName = "X-Csrf-Token"
	// DefaultCSRFTokenLength is the token size in bytes.
	DefaultCSRFTokenLength = 32

	// csrfCookieMaxAge is the cookie lifetime in seconds.
	csrfCookieMaxAge = 3600 * 12
)

// CSRFConfig configures the double-submit cookie protection. Zero values
// fall back to the defaults above.
type CSRFConfig struct {
	CookieName    string
	HeaderName    string
	FormFieldName string
	CookieDomain  string
	TokenLength   int
}

func (cfg CSRFConfig) withDefaults() CSRFConfig {
	cfg.CookieName = cmp.Or(cfg.CookieName, DefaultCSRFCookieName)
	cfg.HeaderName = cmp.Or(cfg.HeaderName, DefaultCSRFHeaderName)
	cfg.FormFieldName = cmp.Or(cfg.FormFieldName, DefaultCSRFCookieName)
	cfg.TokenLength = cmp.Or(cfg.TokenLength, DefaultCSRFTokenLength)
	return cfg
}

// CSRFProtection implements the double-submit cookie pattern. Every
// response carries a random token cookie; state-changing requests must
// echo it back in the X-Csrf-Token header (htmx, XHR) or the csrf_token
// form field. Safe methods pass through unchecked.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookieValue(r, cfg.CookieName)
			if token == "" {
				fresh, err := mintCSRFToken(cfg.TokenLength)
				if err != nil {
					http.Error(w, "could not issue CSRF token", http.StatusInternalServerError)
					return
				}
				token = fresh
				cfg.writeCookie(w, r, token)
			}

			// Templates read the token from context when rendering forms.
			r = r.WithContext(setCSRFTokenInContext(r.Context(), token))

			if csrfExemptMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if !requestEchoesToken(r, token, cfg) {
				http.Error(w, "invalid CSRF token", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// csrfExemptMethod reports whether the method never mutates state.
func csrfExemptMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// mintCSRFToken returns an error rather than ever handing back a
// predictable token.
func mintCSRFToken(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("minting csrf token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

func (cfg CSRFConfig) writeCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		HttpOnly: false, // htmx reads the cookie from script to build the header
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   csrfCookieMaxAge,
	})
}

func tokensEqual(submitted, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) == 1
}

// requestEchoesToken compares the submitted token against the cookie
// value in constant time. The header wins over the form field; the form
// body is parsed only for form-encoded content types.
func requestEchoesToken(r *http.Request, cookieToken string, cfg CSRFConfig) bool {
	if cookieToken == "" {
		return false
	}

	if fromHeader := r.Header.Get(cfg.HeaderName); fromHeader != "" {
		return tokensEqual(fromHeader, cookieToken)
	}

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
	case strings.HasPrefix(ct, "multipart/form-data"):
	default:
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	fromForm := r.FormValue(cfg.FormFieldName)
	return fromForm != "" && tokensEqual(fromForm, cookieToken)
}

type csrfTokenKey struct{}

func setCSRFTokenInContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey{}, token)
}

// GetCSRFToken retrieves the CSRF token placed in the request context by
// CSRFProtection. Templates use it to stamp forms and htmx headers.
func GetCSRFToken(r *http.Request) string {
	if token, ok := r.Context().Value(csrfTokenKey{}).(string); ok {
		return token
	}
	return ""
}
