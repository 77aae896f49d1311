package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/orderdesk/orderdesk/internal/domain/auth"
)

func sessionLookup(role domainauth.Role) func(context.Context, string) (*domainauth.Session, error) {
	return func(_ context.Context, sessionID string) (*domainauth.Session, error) {
		s := stubSession(sessionID)
		s.Role = role
		return &s, nil
	}
}

func protectedRequest(sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	}
	return req
}

func failIfCalled(t *testing.T) http.Handler {
	return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not have been reached")
	})
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid session reaches the handler with context set", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSessionFromContext(r.Context())
			assert.NotNil(t, session)
			assert.Equal(t, "sess-1", session.ID)
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		RequireAuth(&stubAuthService{})(inner).ServeHTTP(w, protectedRequest("sess-1"))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no cookie is a 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAuth(&stubAuthService{})(failIfCalled(t)).ServeHTTP(w, protectedRequest(""))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejected session is a 401", func(t *testing.T) {
		svc := &stubAuthService{
			getSessionFunc: func(context.Context, string) (*domainauth.Session, error) {
				return nil, errors.New("session not found")
			},
		}
		w := httptest.NewRecorder()
		RequireAuth(svc)(failIfCalled(t)).ServeHTTP(w, protectedRequest("stale"))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	t.Run("a higher role passes a lower requirement", func(t *testing.T) {
		svc := &stubAuthService{getSessionFunc: sessionLookup(domainauth.RoleAdmin)}

		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSessionFromContext(r.Context())
			assert.NotNil(t, session)
			assert.Equal(t, domainauth.RoleAdmin, session.Role)
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		RequireRole(svc, domainauth.RoleUser)(inner).ServeHTTP(w, protectedRequest("admin-sess"))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("a lower role is a 403", func(t *testing.T) {
		svc := &stubAuthService{getSessionFunc: sessionLookup(domainauth.RoleUser)}

		w := httptest.NewRecorder()
		RequireRole(svc, domainauth.RoleAdmin)(failIfCalled(t)).ServeHTTP(w, protectedRequest("user-sess"))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	t.Run("with a session the context carries it", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSessionFromContext(r.Context())
			assert.NotNil(t, session)
			assert.Equal(t, "sess-1", session.ID)
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		OptionalAuth(&stubAuthService{})(inner).ServeHTTP(w, protectedRequest("sess-1"))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("without a session the handler still runs", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Nil(t, GetSessionFromContext(r.Context()))
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		OptionalAuth(&stubAuthService{})(inner).ServeHTTP(w, protectedRequest(""))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHasRequiredRole(t *testing.T) {
	roles := []domainauth.Role{domainauth.RoleGuest, domainauth.RoleUser, domainauth.RoleAdmin}

	// The ladder is total: every role covers itself and everything below.
	for i, userRole := range roles {
		for j, requiredRole := range roles {
			got := hasRequiredRole(userRole, requiredRole)
			assert.Equal(t, i >= j, got, "user %s vs required %s", userRole, requiredRole)
		}
	}
}

func TestSessionContextRoundTrip(t *testing.T) {
	session := &domainauth.Session{
		ID:     "sess-1",
		UserID: "u-ops-1",
		Email:  "ops@orderdesk.example",
		Role:   domainauth.RoleUser,
	}

	ctx := SetSessionInContext(context.Background(), session)
	assert.Equal(t, session, GetSessionFromContext(ctx))
	assert.Nil(t, GetSessionFromContext(context.Background()))
}
