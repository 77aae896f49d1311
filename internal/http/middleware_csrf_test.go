package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfHandler(cfg CSRFConfig) http.Handler {
	return CSRFProtection(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func csrfCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	return cookieByName(t, w, DefaultCSRFCookieName)
}

// issueCSRFToken performs the initial GET that mints a token and returns it.
func issueCSRFToken(t *testing.T, handler http.Handler) string {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))
	c := csrfCookieFrom(t, w)
	require.NotNil(t, c, "expected the first response to mint a token")
	require.NotEmpty(t, c.Value)
	return c.Value
}

func TestCSRFProtection_SafeMethods(t *testing.T) {
	handler := csrfHandler(CSRFConfig{})

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
		t.Run(method, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(method, "/orders", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestCSRFProtection_MintsTokenOnFirstVisit(t *testing.T) {
	handler := csrfHandler(CSRFConfig{})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	c := csrfCookieFrom(t, w)
	require.NotNil(t, c)
	assert.NotEmpty(t, c.Value)
}

func TestCSRFProtection_DoesNotReissueExistingToken(t *testing.T) {
	handler := csrfHandler(CSRFConfig{})
	token := issueCSRFToken(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	assert.Empty(t, resp.Cookies(), "token already present, no Set-Cookie expected")
}

func TestCSRFProtection_StateChangingRequests(t *testing.T) {
	handler := csrfHandler(CSRFConfig{})
	token := issueCSRFToken(t, handler)

	t.Run("POST without a token is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("header token matching the cookie passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})
		req.Header.Set(DefaultCSRFHeaderName, token)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("form field token matching the cookie passes", func(t *testing.T) {
		form := url.Values{}
		form.Set(DefaultCSRFCookieName, token)
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("header token that differs from the cookie is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "cookie-token"})
		req.Header.Set(DefaultCSRFHeaderName, "different-token")

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("JSON body is never parsed for a form token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"status":"paid"}`))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("JSON body with a header token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"status":"paid"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(DefaultCSRFHeaderName, token)
		req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestCSRFProtection_TokenInContext(t *testing.T) {
	var captured string
	handler := CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetCSRFToken(r)
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

	c := csrfCookieFrom(t, w)
	require.NotNil(t, c)
	assert.Equal(t, c.Value, captured, "context token must match the cookie")
}

func TestCSRFProtection_CookieAttributes(t *testing.T) {
	newCookie := func(t *testing.T, req *http.Request) *http.Cookie {
		t.Helper()
		handler := csrfHandler(CSRFConfig{CookieDomain: "orderdesk.example"})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		c := csrfCookieFrom(t, w)
		require.NotNil(t, c)
		return c
	}

	t.Run("over TLS", func(t *testing.T) {
		c := newCookie(t, httptest.NewRequest(http.MethodGet, "https://orderdesk.example/orders", nil))

		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		assert.False(t, c.HttpOnly, "script must be able to read the token")
		assert.Equal(t, "orderdesk.example", c.Domain)
		assert.Equal(t, "/", c.Path)
	})

	t.Run("behind a TLS-terminating proxy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://orderdesk.example/orders", nil)
		req.Header.Set("X-Forwarded-Proto", "https")

		assert.True(t, newCookie(t, req).Secure)
	})

	t.Run("proxy hop list counts as secure", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://orderdesk.example/orders", nil)
		req.Header.Set("X-Forwarded-Proto", "https, http")

		assert.True(t, newCookie(t, req).Secure)
	})
}

func TestGetCSRFToken_MissingFromContext(t *testing.T) {
	assert.Empty(t, GetCSRFToken(httptest.NewRequest(http.MethodGet, "/orders", nil)))
}
