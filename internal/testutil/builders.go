package testutil

import (
	"fmt"
	"time"

	"github.com/orderdesk/orderdesk/internal/domain/model"
)

// OrderRequestBuilder provides a fluent interface for building CreateOrderRequest objects for testing.
type OrderRequestBuilder struct {
	req *model.CreateOrderRequest
}

// NewOrderRequest creates a new OrderRequestBuilder with sensible defaults.
func NewOrderRequest(customerID string) *OrderRequestBuilder {
	return &OrderRequestBuilder{
		req: &model.CreateOrderRequest{
			Number:     fmt.Sprintf("ORD-%d", time.Now().UnixNano()),
			CustomerID: customerID,
			Status:     model.OrderStatusPending,
			TotalCents: 1000,
			Currency:   "USD",
		},
	}
}

// WithNumber sets the order number.
func (b *OrderRequestBuilder) WithNumber(number string) *OrderRequestBuilder {
	b.req.Number = number
	return b
}

// WithStatus sets the order status.
func (b *OrderRequestBuilder) WithStatus(status model.OrderStatus) *OrderRequestBuilder {
	b.req.Status = status
	return b
}

// WithTotalCents sets the order total.
func (b *OrderRequestBuilder) WithTotalCents(total int64) *OrderRequestBuilder {
	b.req.TotalCents = total
	return b
}

// WithCurrency sets the order currency.
func (b *OrderRequestBuilder) WithCurrency(currency string) *OrderRequestBuilder {
	b.req.Currency = currency
	return b
}

// WithMetadata sets the order metadata.
func (b *OrderRequestBuilder) WithMetadata(metadata map[string]any) *OrderRequestBuilder {
	b.req.Metadata = metadata
	return b
}

// WithPlacedAt sets the time the order was placed.
func (b *OrderRequestBuilder) WithPlacedAt(placedAt time.Time) *OrderRequestBuilder {
	b.req.PlacedAt = &placedAt
	return b
}

// Build returns the constructed CreateOrderRequest.
func (b *OrderRequestBuilder) Build() *model.CreateOrderRequest {
	return b.req
}

// CustomerRequestBuilder provides a fluent interface for building CreateCustomerRequest objects for testing.
type CustomerRequestBuilder struct {
	req *model.CreateCustomerRequest
}

// NewCustomerRequest creates a new CustomerRequestBuilder with sensible defaults.
func NewCustomerRequest() *CustomerRequestBuilder {
	n := time.Now().UnixNano()
	return &CustomerRequestBuilder{
		req: &model.CreateCustomerRequest{
			Name:  fmt.Sprintf("customer-%d", n),
			Email: fmt.Sprintf("customer-%d@example.com", n),
		},
	}
}

// WithName sets the customer name.
func (b *CustomerRequestBuilder) WithName(name string) *CustomerRequestBuilder {
	b.req.Name = name
	return b
}

// WithEmail sets the customer email.
func (b *CustomerRequestBuilder) WithEmail(email string) *CustomerRequestBuilder {
	b.req.Email = email
	return b
}

// WithWebsite sets the customer website.
func (b *CustomerRequestBuilder) WithWebsite(website string) *CustomerRequestBuilder {
	b.req.Website = &website
	return b
}

// Build returns the constructed CreateCustomerRequest.
func (b *CustomerRequestBuilder) Build() *model.CreateCustomerRequest {
	return b.req
}
