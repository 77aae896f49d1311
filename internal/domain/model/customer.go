//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const maxCustomerNameLen = 255

// Customer represents a buyer account referenced by orders.
type Customer struct {
	ID        string    `json:"id"                db:"id"`
	Name      string    `json:"name"              db:"name"`
	Email     string    `json:"email"             db:"email"`
	Website   *string   `json:"website,omitempty" db:"website"`
	CreatedAt time.Time `json:"created_at"        db:"created_at"`
	UpdatedAt time.Time `json:"updated_at"        db:"updated_at"`
}

// CustomersListOptions controls paging and filtering for listing customers.
// Q matches name and email via ILIKE substring. Domain matches the
// registrable domain derived from the customer's website or email host.
type CustomersListOptions struct {
	Limit  int
	Offset int
	Q      *string
	Domain *string
	Sort   string // allowed: "created_at", "name"
	Dir    string // allowed: "asc", "desc"
}

// CreateCustomerRequest represents parameters to create a Customer.
type CreateCustomerRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Website *string `json:"website,omitempty"`
}

// Validate validates CreateCustomerRequest.
func (r *CreateCustomerRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxCustomerNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	r.Name = name

	email := strings.TrimSpace(r.Email)
	if email == "" {
		return errors.New("email is required and cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email must be a valid address")
	}
	r.Email = email

	if r.Website != nil {
		website := strings.TrimSpace(*r.Website)
		if website == "" {
			r.Website = nil
			return nil
		}
		u, err := url.Parse(website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New("website must be a valid URL and must use http or https scheme")
		}
		if u.Host == "" {
			return errors.New("website must have a valid host")
		}
		r.Website = &website
	}
	return nil
}
