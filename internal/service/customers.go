package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/orderdesk/orderdesk/internal/core"
	"github.com/orderdesk/orderdesk/internal/domain/model"
)

// CustomerServiceOptions groups dependencies for CustomerService.
type CustomerServiceOptions struct {
	Customers core.CustomerRepository
}

// CustomerService orchestrates customer listing and lookups, including
// registrable-domain derivation for display and filtering.
type CustomerService struct {
	customers core.CustomerRepository
}

// NewCustomerService constructs a new CustomerService.
func NewCustomerService(opts CustomerServiceOptions) *CustomerService {
	return &CustomerService{customers: opts.Customers}
}

// CustomersPage is one page of customers plus the total matching count.
type CustomersPage struct {
	Items []*model.Customer
	Total int
}

// List returns a page of customers with the total count of matches.
// A Domain filter is normalized to its registrable domain first, so
// "shop.acme.example.com" and "acme.example.com" select the same customers.
func (s *CustomerService) List(ctx context.Context, opts model.CustomersListOptions) (*CustomersPage, error) {
	if opts.Domain != nil {
		normalized := NormalizeDomain(*opts.Domain)
		if normalized == "" {
			opts.Domain = nil
		} else {
			opts.Domain = &normalized
		}
	}

	items, err := s.customers.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	total, err := s.customers.Count(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &CustomersPage{Items: items, Total: total}, nil
}

// Get retrieves one customer by ID.
func (s *CustomerService) Get(ctx context.Context, id string) (*model.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

// Create creates a new customer.
func (s *CustomerService) Create(ctx context.Context, req *model.CreateCustomerRequest) (*model.Customer, error) {
	return s.customers.Create(ctx, req)
}

// Delete removes a customer. Returns false when no row matched.
func (s *CustomerService) Delete(ctx context.Context, id string) (bool, error) {
	return s.customers.Delete(ctx, id)
}

// RegistrableDomain derives the customer's registrable domain ("eTLD+1")
// from their website when present, falling back to their email host.
// Returns "" when neither yields a usable host.
func RegistrableDomain(c *model.Customer) string {
	if c == nil {
		return ""
	}
	if c.Website != nil {
		if d := NormalizeDomain(*c.Website); d != "" {
			return d
		}
	}
	if at := strings.LastIndex(c.Email, "@"); at >= 0 && at < len(c.Email)-1 {
		return NormalizeDomain(c.Email[at+1:])
	}
	return ""
}

// NormalizeDomain reduces a URL or hostname to its registrable domain.
// Returns "" when the input has no usable host or no public suffix.
func NormalizeDomain(input string) string {
	host := hostOf(input)
	if host == "" {
		return ""
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Hosts like "localhost" have no public suffix; use them as-is.
		if strings.Contains(host, ".") {
			return ""
		}
		return host
	}
	return etld1
}

func hostOf(input string) string {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return ""
	}
	if strings.Contains(in, "://") {
		u, err := url.Parse(in)
		if err != nil {
			return ""
		}
		return u.Hostname()
	}
	// Bare host, possibly with port or path
	u, err := url.Parse(fmt.Sprintf("https://%s", in))
	if err != nil {
		return ""
	}
	return u.Hostname()
}
