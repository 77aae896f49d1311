package config

import (
	"fmt"
	"strings"
)

// AuthMode selects the authentication provider.
type AuthMode string

const (
	AuthModeOAuth AuthMode = "oauth" // OAuth/OIDC against a real IdP
	AuthModeMock  AuthMode = "mock"  // config-driven dev identity
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	switch v := strings.ToLower(string(text)); v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"orderdesk"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"orderdesk"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	IssuerURL    string `env:"ISSUER_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// DevAuthConfig is the identity handed out when AUTH_MODE=mock.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Email  string   `env:"EMAIL"   envDefault:"dev@example.com"`
	Groups []string `env:"GROUPS"  envDefault:"admins"          envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	OAuth   OAuthConfig   `envPrefix:"OAUTH_"`    // used when Mode=oauth
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"` // used when Mode=mock

	// IdP groups mapped onto the admin and regular user roles.
	AdminGroup string `env:"ADMIN_GROUP,required"`
	UserGroup  string `env:"USER_GROUP,required"`
}
