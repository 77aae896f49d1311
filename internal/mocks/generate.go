// Package mocks provides mock implementations for testing orderdesk services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the repository interfaces in internal/core. The mocks are generated using
// go:generate directives and provide a fluent API for setting up expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockOrderRepository(ctrl)
//	mockRepo.EXPECT().GetByID(gomock.Any(), "id").Return(order, nil)
package mocks

// Generate mock for OrderRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=order_repository_mock.go github.com/orderdesk/orderdesk/internal/core OrderRepository

// Generate mock for CustomerRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=customer_repository_mock.go github.com/orderdesk/orderdesk/internal/core CustomerRepository

// Generate mock for CacheRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cache_repository_mock.go github.com/orderdesk/orderdesk/internal/core CacheRepository
