// Package core defines the repository interfaces the service layer depends
// on. Implementations live in internal/data; this follows the hexagonal
// pattern where the core owns the contracts.
package core

import (
	"context"
	"time"

	"github.com/orderdesk/orderdesk/internal/domain/model"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, opts model.OrdersListOptions) ([]*model.OrderWithCustomer, error)
	Count(ctx context.Context, opts model.OrdersListOptions) (int, error)
	UpdateStatus(ctx context.Context, id string, req model.UpdateOrderStatusRequest) (*model.Order, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CustomerRepository defines persistence operations for customers.
type CustomerRepository interface {
	Create(ctx context.Context, req *model.CreateCustomerRequest) (*model.Customer, error)
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context, opts model.CustomersListOptions) ([]*model.Customer, error)
	Count(ctx context.Context, opts model.CustomersListOptions) (int, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CacheRepository defines the caching operations used by services.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}
