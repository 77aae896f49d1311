package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/orderdesk/orderdesk/internal/domain/auth"
	mockauth "github.com/orderdesk/orderdesk/internal/mocks/auth"
	"github.com/orderdesk/orderdesk/internal/ports"
)

func newTestAuthService() (*AuthService, *mockauth.MockAuthProvider, *mockauth.MemorySessionStore) {
	provider := mockauth.NewMockAuthProvider()
	sessions := mockauth.NewMemorySessionStore()
	svc := NewAuthService(AuthServiceOptions{
		Provider: provider,
		Sessions: sessions,
		Roles:    mockauth.StaticRoleMapper{AdminGroup: "admins", UserGroup: "users"},
	})
	return svc, provider, sessions
}

func TestAuthService_BeginLogin(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.BeginLogin(ctx, "")
	assert.Error(t, err)

	res, err := svc.BeginLogin(ctx, "https://app/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", res.AuthURL)
	assert.NotEmpty(t, res.State)
	assert.NotEmpty(t, res.Nonce)
}

func TestAuthService_CompleteLogin(t *testing.T) {
	svc, provider, sessions := newTestAuthService()
	ctx := context.Background()

	provider.DefaultUser.Groups = []string{"admins"}

	res, err := svc.CompleteLogin(ctx, CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Session.ID)
	assert.Equal(t, "mock-user-1", res.Session.UserID)
	assert.Equal(t, domainauth.RoleAdmin, res.Session.Role)

	stored, err := sessions.Get(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Session.UserID, stored.UserID)
}

func TestAuthService_CompleteLogin_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.CompleteLogin(ctx, CompleteLoginInput{State: "s", Nonce: "n"})
	assert.ErrorContains(t, err, "authorization code")

	_, err = svc.CompleteLogin(ctx, CompleteLoginInput{Code: "c", Nonce: "n"})
	assert.ErrorContains(t, err, "state")

	_, err = svc.CompleteLogin(ctx, CompleteLoginInput{Code: "c", State: "s"})
	assert.ErrorContains(t, err, "nonce")
}

func TestAuthService_GetSession_Expired(t *testing.T) {
	svc, _, sessions := newTestAuthService()
	ctx := context.Background()

	sess := domainauth.Session{
		ID:        "expired",
		UserID:    "u1",
		Role:      domainauth.RoleUser,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, sessions.Save(ctx, sess))

	_, err := svc.GetSession(ctx, "expired")
	assert.Error(t, err)

	// expired session is removed
	_, err = sessions.Get(ctx, "expired")
	assert.ErrorIs(t, err, mockauth.ErrNotFound)
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, sessions := newTestAuthService()
	ctx := context.Background()

	sess := domainauth.Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, sessions.Save(ctx, sess))

	require.NoError(t, svc.Logout(ctx, "s1"))
	_, err := sessions.Get(ctx, "s1")
	assert.ErrorIs(t, err, mockauth.ErrNotFound)

	// empty ID is a no-op
	assert.NoError(t, svc.Logout(ctx, ""))
}

func TestAuthService_CompleteLogin_GuestRole(t *testing.T) {
	svc, provider, _ := newTestAuthService()
	provider.ExchangeFunc = func(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
		return domainauth.Identity{
			UserID:    "outsider",
			Email:     "out@example.com",
			Groups:    []string{"unrelated"},
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil
	}

	res, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.True(t, res.Session.IsGuest())
}
