package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainauth "github.com/orderdesk/orderdesk/internal/domain/auth"
	"github.com/orderdesk/orderdesk/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthService answers with canned results unless a per-method
// override is supplied.
type stubAuthService struct {
	beginLoginFunc    func(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	completeLoginFunc func(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	getSessionFunc    func(ctx context.Context, sessionID string) (*domainauth.Session, error)
	logoutFunc        func(ctx context.Context, sessionID string) error
}

func stubSession(id string) domainauth.Session {
	return domainauth.Session{
		ID:        id,
		UserID:    "u-ops-1",
		Email:     "ops@orderdesk.example",
		Role:      domainauth.RoleUser,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func (m *stubAuthService) BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error) {
	if m.beginLoginFunc != nil {
		return m.beginLoginFunc(ctx, redirectURL)
	}
	return &service.BeginLoginResult{
		AuthURL: "https://idp.example.com/auth?state=test-state&nonce=test-nonce",
		State:   "test-state",
		Nonce:   "test-nonce",
	}, nil
}

func (m *stubAuthService) CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
	if m.completeLoginFunc != nil {
		return m.completeLoginFunc(ctx, input)
	}
	return &service.CompleteLoginResult{Session: stubSession("sess-1")}, nil
}

func (m *stubAuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if m.getSessionFunc != nil {
		return m.getSessionFunc(ctx, sessionID)
	}
	s := stubSession(sessionID)
	return &s, nil
}

func (m *stubAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, sessionID)
	}
	return nil
}

func newAuthHandlers(svc AuthServiceInterface) *AuthHandlers {
	if svc == nil {
		svc = &stubAuthService{}
	}
	return &AuthHandlers{Svc: svc}
}

func cookieByName(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	resp := w.Result()
	defer resp.Body.Close()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandlers_Login(t *testing.T) {
	t.Run("redirects to the provider and sets flow cookies", func(t *testing.T) {
		w := httptest.NewRecorder()
		newAuthHandlers(nil).Login(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "https://idp.example.com/auth")
		for _, name := range []string{"oauth_state", "oauth_nonce", "post_login_redirect"} {
			require.NotNil(t, cookieByName(t, w, name), "expected %s cookie", name)
		}
	})

	t.Run("remembers the requested destination", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/orders", nil)
		newAuthHandlers(nil).Login(w, req)

		c := cookieByName(t, w, "post_login_redirect")
		require.NotNil(t, c)
		assert.Equal(t, "/orders", c.Value)
	})

	t.Run("collapses a bad destination to the root", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=://invalid", nil)
		newAuthHandlers(nil).Login(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		c := cookieByName(t, w, "post_login_redirect")
		require.NotNil(t, c)
		assert.Equal(t, "/", c.Value)
	})

	t.Run("provider failure becomes a 500", func(t *testing.T) {
		svc := &stubAuthService{
			beginLoginFunc: func(context.Context, string) (*service.BeginLoginResult, error) {
				return nil, errors.New("discovery failed")
			},
		}
		w := httptest.NewRecorder()
		newAuthHandlers(svc).Login(w, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAuthHandlers_Callback(t *testing.T) {
	t.Run("sets the session cookie and honors the stored destination", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=test-code&state=test-state", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "test-state"})
		req.AddCookie(&http.Cookie{Name: "oauth_nonce", Value: "test-nonce"})
		req.AddCookie(&http.Cookie{Name: "post_login_redirect", Value: "/orders"})

		w := httptest.NewRecorder()
		newAuthHandlers(nil).Callback(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/orders", w.Header().Get("Location"))

		session := cookieByName(t, w, "session_id")
		require.NotNil(t, session)
		assert.Equal(t, "sess-1", session.Value)
	})

	t.Run("rejects a callback without a code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=test-state", nil)
		w := httptest.NewRecorder()
		newAuthHandlers(nil).Callback(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a state that does not match the cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=test-code&state=wrong-state", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "test-state"})

		w := httptest.NewRecorder()
		newAuthHandlers(nil).Callback(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a callback without a nonce cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=test-code&state=test-state", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "test-state"})

		w := httptest.NewRecorder()
		newAuthHandlers(nil).Callback(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("exchange failure becomes a 500", func(t *testing.T) {
		svc := &stubAuthService{
			completeLoginFunc: func(context.Context, service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
				return nil, errors.New("token exchange failed")
			},
		}
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=test-code&state=test-state", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "test-state"})
		req.AddCookie(&http.Cookie{Name: "oauth_nonce", Value: "test-nonce"})

		w := httptest.NewRecorder()
		newAuthHandlers(svc).Callback(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAuthHandlers_Logout(t *testing.T) {
	t.Run("form post clears the cookie and redirects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})

		w := httptest.NewRecorder()
		newAuthHandlers(nil).Logout(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/signed-out?redirect_uri=%2F", w.Header().Get("Location"))

		session := cookieByName(t, w, "session_id")
		require.NotNil(t, session)
		assert.Empty(t, session.Value)
		assert.Equal(t, -1, session.MaxAge)
	})

	t.Run("JSON clients get the destination in the body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Accept", "application/json")
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})

		w := httptest.NewRecorder()
		newAuthHandlers(nil).Logout(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"success"`)
		assert.Contains(t, w.Body.String(), `"redirect_to":"/auth/signed-out?redirect_uri=%2F"`)
	})

	t.Run("htmx posts are treated like JSON clients", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Hx-Request", "true")
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})

		w := httptest.NewRecorder()
		newAuthHandlers(nil).Logout(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"redirect_to"`)
	})

	t.Run("a failing server-side logout still clears the cookie", func(t *testing.T) {
		svc := &stubAuthService{
			logoutFunc: func(context.Context, string) error { return errors.New("store down") },
		}
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})

		w := httptest.NewRecorder()
		newAuthHandlers(svc).Logout(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		session := cookieByName(t, w, "session_id")
		require.NotNil(t, session)
		assert.Equal(t, -1, session.MaxAge)
	})
}

func TestAuthHandlers_Status(t *testing.T) {
	t.Run("reports the active session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})

		w := httptest.NewRecorder()
		newAuthHandlers(nil).Status(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authenticated":true`)
		assert.Contains(t, w.Body.String(), `"ops@orderdesk.example"`)
	})

	t.Run("an unknown session is anonymous and the cookie is dropped", func(t *testing.T) {
		svc := &stubAuthService{
			getSessionFunc: func(context.Context, string) (*domainauth.Session, error) {
				return nil, errors.New("session not found")
			},
		}
		req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "stale"})

		w := httptest.NewRecorder()
		newAuthHandlers(svc).Status(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authenticated":false`)
		session := cookieByName(t, w, "session_id")
		require.NotNil(t, session)
		assert.Equal(t, -1, session.MaxAge)
	})

	t.Run("no cookie means anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		newAuthHandlers(nil).Status(w, httptest.NewRequest(http.MethodGet, "/auth/status", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authenticated":false`)
	})
}

func TestSafeRedirectPath(t *testing.T) {
	cases := map[string]string{
		"":                      "/",
		"/":                     "/",
		"/orders":               "/orders",
		"/orders?status=paid":   "/orders?status=paid",
		"https://evil.example/": "/",
		"//evil.example/phish":  "/",
		"://invalid":            "/",
		"orders":                "/",
	}
	for input, want := range cases {
		assert.Equal(t, want, safeRedirectPath(input), "input %q", input)
	}
}
