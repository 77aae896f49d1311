// Package auth holds the domain-level authentication types. It has no
// framework or adapter dependencies.
package auth

import "time"

// Role is an authorization level. It stays a string so it round-trips
// through persistence and cookies without conversion.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Identity is the principal an identity provider hands back. Adapters
// translate provider claims into this shape.
type Identity struct {
	UserID    string // sub or preferred_username, whichever is stable
	FirstName string
	LastName  string
	Email     string
	Groups    []string
	ExpiresAt time.Time // token expiry as reported by the provider
}

// Session is the record kept server-side per signed-in user. ID is an
// opaque random token.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsGuest reports whether the session carries the guest role.
func (s Session) IsGuest() bool { return s.Role == RoleGuest }

// DisplayName picks the friendliest available label for the user.
func (s Session) DisplayName() string {
	switch {
	case s.FirstName != "":
		return s.FirstName
	case s.Email != "":
		return s.Email
	}
	return s.UserID
}
