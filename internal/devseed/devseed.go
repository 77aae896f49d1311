// Package devseed populates a development database with demo customers and
// orders so the UI has data to page through. Seeding is idempotent: existing
// records are left alone.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/orderdesk/orderdesk/internal/data"
	"github.com/orderdesk/orderdesk/internal/domain/model"
	apperrors "github.com/orderdesk/orderdesk/internal/errors"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB        *sql.DB
	customers *data.CustomerRepo
	orders    *data.OrderRepo
}

// NewServices constructs all required repositories for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	return Services{
		DB:        db,
		customers: data.NewCustomerRepo(db),
		orders:    data.NewOrderRepo(db),
	}
}

// Run executes the full development seeding workflow against the provided DB.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	s := seeder{svcs: svcs, logger: logger}

	customerIDs := s.seedCustomers(ctx)
	s.seedOrders(ctx, customerIDs)
	if s.failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", s.failures)
	}
	return nil
}

type seeder struct {
	svcs     Services
	logger   *slog.Logger
	failures int
}

func (s *seeder) fail(ctx context.Context, msg string, args ...any) {
	s.logger.ErrorContext(ctx, msg, args...)
	s.failures++
}

type customerSeed struct {
	name    string
	email   string
	website string
}

var customerSeeds = []customerSeed{
	{"Acme Corp", "orders@acme.example.com", "https://shop.acme.example.com"},
	{"Globex", "purchasing@globex.example.org", "https://globex.example.org"},
	{"Initech", "billing@initech.example.com", "https://www.initech.example.com"},
	{"Soylent Industries", "procurement@soylent.example.net", ""},
	{"Umbrella Supply", "sales@umbrella.example.com", "https://store.umbrella.example.com"},
}

// seedCustomers creates the demo customers and returns their IDs keyed by
// email, looking up customers that already exist from a previous run.
func (s *seeder) seedCustomers(ctx context.Context) map[string]string {
	ids := make(map[string]string, len(customerSeeds))
	for _, seed := range customerSeeds {
		req := &model.CreateCustomerRequest{Name: seed.name, Email: seed.email}
		if seed.website != "" {
			req.Website = ptr(seed.website)
		}

		c, err := s.svcs.customers.Create(ctx, req)
		switch {
		case err == nil:
			ids[seed.email] = c.ID
			s.logger.InfoContext(ctx, "created customer", "name", seed.name)
		case apperrors.IsConflict(err):
			existing, lookupErr := s.customerByEmail(ctx, seed.email)
			if lookupErr != nil {
				s.fail(ctx, "failed to load existing customer", "name", seed.name, "error", lookupErr)
				continue
			}
			ids[seed.email] = existing.ID
			s.logger.InfoContext(ctx, "customer already exists", "name", seed.name)
		default:
			s.fail(ctx, "failed to create customer", "name", seed.name, "error", err)
		}
	}
	return ids
}

func (s *seeder) customerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	list, err := s.svcs.customers.List(ctx, model.CustomersListOptions{Q: ptr(email), Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperrors.NotFoundf("customer %s not found", email)
	}
	return list[0], nil
}

type orderSeed struct {
	customerEmail string
	number        string
	status        model.OrderStatus
	totalCents    int64
	currency      string
	metadata      map[string]any
	placedAgo     time.Duration
}

var orderSeeds = []orderSeed{
	{"orders@acme.example.com", "ORD-1001", model.OrderStatusPending, 125_00, "USD",
		map[string]any{"warehouse": "east", "carrier": "ups"}, 2 * time.Hour},
	{"orders@acme.example.com", "ORD-1002", model.OrderStatusPaid, 89_50, "USD",
		map[string]any{"warehouse": "east", "tags": []string{"rush"}}, 26 * time.Hour},
	{"orders@acme.example.com", "ORD-1003", model.OrderStatusShipped, 312_75, "USD",
		map[string]any{"warehouse": "west", "carrier": "fedex", "tracking": "794644790132"}, 3 * 24 * time.Hour},
	{"purchasing@globex.example.org", "ORD-2001", model.OrderStatusPaid, 1_450_00, "EUR",
		map[string]any{"warehouse": "emea", "po": "GLX-7781"}, 5 * time.Hour},
	{"purchasing@globex.example.org", "ORD-2002", model.OrderStatusCancelled, 75_00, "EUR",
		map[string]any{"reason": "duplicate"}, 4 * 24 * time.Hour},
	{"billing@initech.example.com", "ORD-3001", model.OrderStatusRefunded, 45_99, "USD",
		map[string]any{"reason": "damaged", "carrier": "usps"}, 9 * 24 * time.Hour},
	{"billing@initech.example.com", "ORD-3002", model.OrderStatusPending, 220_00, "USD",
		map[string]any{"warehouse": "east"}, 30 * time.Minute},
	{"procurement@soylent.example.net", "ORD-4001", model.OrderStatusShipped, 5_600_00, "USD",
		map[string]any{"warehouse": "central", "carrier": "freight", "pallets": 4}, 6 * 24 * time.Hour},
	{"sales@umbrella.example.com", "ORD-5001", model.OrderStatusPaid, 18_25, "GBP",
		map[string]any{"gift": true}, 12 * time.Hour},
	{"sales@umbrella.example.com", "ORD-5002", model.OrderStatusPending, 99_99, "GBP",
		map[string]any{"warehouse": "uk", "tags": []string{"fragile", "rush"}}, time.Hour},
}

func (s *seeder) seedOrders(ctx context.Context, customerIDs map[string]string) {
	now := time.Now().UTC()
	for _, seed := range orderSeeds {
		customerID, ok := customerIDs[seed.customerEmail]
		if !ok {
			s.logger.WarnContext(ctx, "skipping order: customer not seeded", "number", seed.number, "customer", seed.customerEmail)
			s.failures++
			continue
		}

		placedAt := now.Add(-seed.placedAgo)
		_, err := s.svcs.orders.Create(ctx, &model.CreateOrderRequest{
			Number:     seed.number,
			CustomerID: customerID,
			Status:     seed.status,
			TotalCents: seed.totalCents,
			Currency:   seed.currency,
			Metadata:   seed.metadata,
			PlacedAt:   &placedAt,
		})
		switch {
		case err == nil:
			s.logger.InfoContext(ctx, "created order", "number", seed.number)
		case apperrors.IsConflict(err):
			s.logger.InfoContext(ctx, "order already exists", "number", seed.number)
		default:
			s.fail(ctx, "failed to create order", "number", seed.number, "error", err)
		}
	}
}

func ptr[T any](v T) *T { return &v }
