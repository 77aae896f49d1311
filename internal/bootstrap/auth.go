package bootstrap

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/orderdesk/orderdesk/config"
	"github.com/orderdesk/orderdesk/internal/adapters/authroles"
	"github.com/orderdesk/orderdesk/internal/adapters/devauth"
	"github.com/orderdesk/orderdesk/internal/adapters/oidc"
	redisadapter "github.com/orderdesk/orderdesk/internal/adapters/redis"
	"github.com/orderdesk/orderdesk/internal/ports"
	"github.com/orderdesk/orderdesk/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

func (cfg AuthConfig) warn(msg string, args ...any) {
	if cfg.Logger != nil {
		cfg.Logger.Warn(msg, args...)
	}
}

// BuildAuthService assembles the auth service for the configured mode.
// A nil return disables authentication entirely, which the router
// treats as open access; every misconfiguration degrades to that.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	if cfg.RedisClient == nil {
		cfg.warn("auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		return nil
	}

	var provider ports.AuthProvider
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		provider = cfg.devProvider()
	case config.AuthModeOAuth:
		provider = cfg.oidcProvider()
	}
	if provider == nil {
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Sessions: redisadapter.NewSessionStore(cfg.RedisClient),
		Roles: authroles.StaticRoleMapper{
			AdminGroup: cfg.Auth.AdminGroup,
			UserGroup:  cfg.Auth.UserGroup,
		},
	})
}

// devProvider builds the local provider used in mock mode. Session
// duration defaults inside the provider.
//
//nolint:ireturn // providers are consumed through the AuthProvider port.
func (cfg AuthConfig) devProvider() ports.AuthProvider {
	prov, err := devauth.NewProvider(devauth.Config{
		UserID: cfg.Auth.DevAuth.UserID,
		Email:  cfg.Auth.DevAuth.Email,
		Groups: cfg.Auth.DevAuth.Groups,
	})
	if err != nil {
		cfg.warn("failed to create dev auth provider, auth disabled", "error", err)
		return nil
	}
	return prov
}

//nolint:ireturn // providers are consumed through the AuthProvider port.
func (cfg AuthConfig) oidcProvider() ports.AuthProvider {
	oauth := cfg.Auth.OAuth
	if oauth.IssuerURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		cfg.warn("AuthModeOAuth selected but required config missing; auth disabled",
			"issuer_url_empty", oauth.IssuerURL == "",
			"client_id_empty", oauth.ClientID == "",
			"client_secret_empty", oauth.ClientSecret == "",
		)
		return nil
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		IssuerURL:    oauth.IssuerURL,
		LogoutURL:    oauth.LogoutURL,
	})
	if err != nil {
		cfg.warn("failed to create OIDC provider, auth disabled", "error", err)
		return nil
	}
	return prov
}
