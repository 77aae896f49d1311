// Package authroles maps IdP group claims onto application roles.
package authroles

import (
	"slices"

	domainauth "github.com/orderdesk/orderdesk/internal/domain/auth"
)

// StaticRoleMapper assigns roles by group membership. Admin membership
// wins over user membership; anyone else is a guest.
type StaticRoleMapper struct {
	AdminGroup string
	UserGroup  string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	switch {
	case m.AdminGroup != "" && slices.Contains(groups, m.AdminGroup):
		return domainauth.RoleAdmin
	case m.UserGroup != "" && slices.Contains(groups, m.UserGroup):
		return domainauth.RoleUser
	default:
		return domainauth.RoleGuest
	}
}
