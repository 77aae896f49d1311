//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxOrderNumberLen = 64
	maxCurrencyLen    = 3
)

// OrderStatus tracks the lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// Valid reports whether the order status is supported.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// ParseOrderStatus normalizes a status string and reports whether it is supported.
func ParseOrderStatus(value string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(value)))
	if status.Valid() {
		return status, true
	}
	return "", false
}

// OrderStatuses lists all supported statuses in display order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusPaid,
		OrderStatusShipped,
		OrderStatusCancelled,
		OrderStatusRefunded,
	}
}

// Order represents one customer order tracked by the back office.
// Metadata carries channel-specific attributes (warehouse, carrier, tags)
// as free-form JSON; the UI can filter on it with metadata expressions.
type Order struct {
	ID         string         `json:"id"          db:"id"`
	Number     string         `json:"number"      db:"number"`
	CustomerID string         `json:"customer_id" db:"customer_id"`
	Status     OrderStatus    `json:"status"      db:"status"`
	TotalCents int64          `json:"total_cents" db:"total_cents"`
	Currency   string         `json:"currency"    db:"currency"`
	Metadata   map[string]any `json:"metadata"    db:"metadata"`
	PlacedAt   time.Time      `json:"placed_at"   db:"placed_at"`
	CreatedAt  time.Time      `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"  db:"updated_at"`
}

// OrderWithCustomer is an order joined with its customer's display name for list views.
type OrderWithCustomer struct {
	Order
	CustomerName string `json:"customer_name" db:"customer_name"`
}

// OrdersListOptions controls paging and filtering for listing orders.
// Notes:
//   - Sort supports: "placed_at", "number", "total_cents" (case-insensitive).
//   - Dir supports: "asc", "desc"; values are normalized internally.
//   - Q matches order number and customer name via ILIKE substring.
//   - Status, Currency, and CustomerID match exactly.
type OrdersListOptions struct {
	Limit      int
	Offset     int
	Q          *string
	Status     *OrderStatus
	Currency   *string
	CustomerID *string
	Sort       string
	Dir        string
}

// CreateOrderRequest represents parameters to create an Order.
type CreateOrderRequest struct {
	Number     string         `json:"number"`
	CustomerID string         `json:"customer_id"`
	Status     OrderStatus    `json:"status,omitempty"`
	TotalCents int64          `json:"total_cents"`
	Currency   string         `json:"currency"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	PlacedAt   *time.Time     `json:"placed_at,omitempty"`
}

// Validate validates CreateOrderRequest and normalizes status and currency.
func (r *CreateOrderRequest) Validate() error {
	number := strings.TrimSpace(r.Number)
	if number == "" {
		return errors.New("number is required and cannot be empty")
	}
	if utf8.RuneCountInString(number) > maxOrderNumberLen {
		return errors.New("number cannot exceed 64 characters")
	}
	if strings.TrimSpace(r.CustomerID) == "" {
		return errors.New("customer_id is required")
	}
	if r.TotalCents < 0 {
		return errors.New("total_cents must be non-negative")
	}

	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if len(currency) != maxCurrencyLen {
		return errors.New("currency must be a 3-letter ISO code")
	}
	r.Currency = currency

	if r.Status == "" {
		r.Status = OrderStatusPending
	} else {
		status, ok := ParseOrderStatus(string(r.Status))
		if !ok {
			return errors.New("status must be one of: pending, paid, shipped, cancelled, refunded")
		}
		r.Status = status
	}
	return nil
}

// UpdateOrderStatusRequest represents a status transition for an order.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// Validate validates UpdateOrderStatusRequest.
func (r *UpdateOrderStatusRequest) Validate() error {
	status, ok := ParseOrderStatus(string(r.Status))
	if !ok {
		return errors.New("status must be one of: pending, paid, shipped, cancelled, refunded")
	}
	r.Status = status
	return nil
}
