package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/orderdesk/orderdesk/internal/core"
	"github.com/orderdesk/orderdesk/internal/domain/model"
)

// metadataScanCap bounds how many rows a metadata-expression filter will
// pull from the database before filtering in memory.
const metadataScanCap = 1000

// statusCountsCacheKey is where cached dashboard status counts live.
const statusCountsCacheKey = "orderdesk:stats:status_counts"

// statusCountsCacheTTL keeps dashboard counts fresh enough without hitting
// the database on every page load.
const statusCountsCacheTTL = 30 * time.Second

// ErrInvalidMetadataQuery is returned when a metadata filter expression
// does not compile as JMESPath.
var ErrInvalidMetadataQuery = errors.New("invalid metadata query expression")

// OrderServiceOptions groups dependencies for OrderService.
type OrderServiceOptions struct {
	Orders core.OrderRepository
	Cache  core.CacheRepository // optional; status counts skip caching when nil
	Logger *slog.Logger
}

// OrderService orchestrates order listing, metadata filtering, and status
// transitions on top of the order repository.
type OrderService struct {
	orders core.OrderRepository
	cache  core.CacheRepository
	logger *slog.Logger
}

// NewOrderService constructs a new OrderService.
func NewOrderService(opts OrderServiceOptions) *OrderService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{orders: opts.Orders, cache: opts.Cache, logger: logger}
}

// OrdersPageOptions extends the repository list options with a metadata
// expression evaluated against each order's metadata document.
type OrdersPageOptions struct {
	model.OrdersListOptions
	Metadata string
}

// OrdersPage is one page of orders plus the total matching count.
type OrdersPage struct {
	Items []*model.OrderWithCustomer
	Total int
}

// List returns a page of orders with the total count of matches.
// When a metadata expression is present, SQL filters narrow the candidate
// set first and the expression is applied in memory.
func (s *OrderService) List(ctx context.Context, opts OrdersPageOptions) (*OrdersPage, error) {
	if strings.TrimSpace(opts.Metadata) == "" {
		items, err := s.orders.List(ctx, opts.OrdersListOptions)
		if err != nil {
			return nil, err
		}
		total, err := s.orders.Count(ctx, opts.OrdersListOptions)
		if err != nil {
			return nil, err
		}
		return &OrdersPage{Items: items, Total: total}, nil
	}
	return s.listWithMetadataQuery(ctx, opts)
}

func (s *OrderService) listWithMetadataQuery(ctx context.Context, opts OrdersPageOptions) (*OrdersPage, error) {
	expr := strings.TrimSpace(opts.Metadata)
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadataQuery, err)
	}

	scanOpts := opts.OrdersListOptions
	scanOpts.Limit = metadataScanCap
	scanOpts.Offset = 0
	candidates, err := s.orders.List(ctx, scanOpts)
	if err != nil {
		return nil, err
	}

	matched := make([]*model.OrderWithCustomer, 0, len(candidates))
	for _, o := range candidates {
		ok, evalErr := metadataMatches(expr, o.Metadata)
		if evalErr != nil {
			// An expression can be valid JMESPath yet fail against one
			// document shape; treat that row as a non-match.
			s.logger.DebugContext(ctx, "metadata expression failed for order", "order", o.ID, "error", evalErr)
			continue
		}
		if ok {
			matched = append(matched, o)
		}
	}

	total := len(matched)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return &OrdersPage{Items: matched[offset:end], Total: total}, nil
}

// metadataMatches evaluates a JMESPath expression against one metadata
// document and reports whether the result is truthy.
func metadataMatches(expr string, metadata map[string]any) (bool, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	result, err := jmespath.Search(expr, metadata)
	if err != nil {
		return false, err
	}
	switch v := result.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		return v != "", nil
	case []any:
		return len(v) > 0, nil
	case map[string]any:
		return len(v) > 0, nil
	default:
		return true, nil
	}
}

// Get retrieves one order by ID.
func (s *OrderService) Get(ctx context.Context, id string) (*model.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// Create creates a new order and invalidates cached stats.
func (s *OrderService) Create(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	o, err := s.orders.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidateStatusCounts(ctx)
	return o, nil
}

// UpdateStatus transitions an order to a new status and invalidates cached stats.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	o, err := s.orders.UpdateStatus(ctx, id, model.UpdateOrderStatusRequest{Status: status})
	if err != nil {
		return nil, err
	}
	s.invalidateStatusCounts(ctx)
	return o, nil
}

// Delete removes an order. Returns false when no row matched.
func (s *OrderService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.orders.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.invalidateStatusCounts(ctx)
	}
	return ok, nil
}

// StatusCounts returns order counts keyed by status for the dashboard.
// Results are cached briefly when a cache is configured.
func (s *OrderService) StatusCounts(ctx context.Context) (map[model.OrderStatus]int, error) {
	if cached := s.cachedStatusCounts(ctx); cached != nil {
		return cached, nil
	}

	counts := make(map[model.OrderStatus]int, len(model.OrderStatuses()))
	for _, status := range model.OrderStatuses() {
		st := status
		n, err := s.orders.Count(ctx, model.OrdersListOptions{Status: &st})
		if err != nil {
			return nil, fmt.Errorf("count %s orders: %w", status, err)
		}
		counts[status] = n
	}

	s.storeStatusCounts(ctx, counts)
	return counts, nil
}

func (s *OrderService) cachedStatusCounts(ctx context.Context) map[model.OrderStatus]int {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, statusCountsCacheKey)
	if err != nil || data == nil {
		return nil
	}
	var counts map[model.OrderStatus]int
	if unmarshalErr := json.Unmarshal(data, &counts); unmarshalErr != nil {
		return nil
	}
	return counts
}

func (s *OrderService) storeStatusCounts(ctx context.Context, counts map[model.OrderStatus]int) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(counts)
	if err != nil {
		return
	}
	if setErr := s.cache.Set(ctx, statusCountsCacheKey, data, statusCountsCacheTTL); setErr != nil {
		s.logger.WarnContext(ctx, "failed to cache status counts", "error", setErr)
	}
}

func (s *OrderService) invalidateStatusCounts(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Delete(ctx, statusCountsCacheKey); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate status counts cache", "error", err)
	}
}
