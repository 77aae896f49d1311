package data

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orderdesk/orderdesk/internal/data/pgxutil"
	"github.com/orderdesk/orderdesk/internal/domain/model"
	apperrors "github.com/orderdesk/orderdesk/internal/errors"
)

const orderColumns = `id, number, customer_id, status, total_cents, currency, metadata, placed_at, created_at, updated_at`

// orderSortColumns is the allowlist of sortable columns for order lists.
// Anything else falls back to placed_at.
var orderSortColumns = map[string]string{
	"placed_at":   "placed_at",
	"number":      "number",
	"total_cents": "total_cents",
}

// OrderRepo provides database operations for orders.
type OrderRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewOrderRepo creates an OrderRepo with the real clock.
func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewOrderRepoWithTimeProvider creates an OrderRepo with a custom clock (useful for tests).
func NewOrderRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *OrderRepo {
	return &OrderRepo{DB: db, timeProvider: tp}
}

// Create inserts a new order.
func (r *OrderRepo) Create(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	if req == nil {
		return nil, errors.New("create order request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	placedAt := now
	if req.PlacedAt != nil {
		placedAt = req.PlacedAt.UTC()
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	var out model.Order
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO orders (
				id, number, customer_id, status, total_cents, currency, metadata, placed_at, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $9
			) RETURNING `+orderColumns,
			uuid.NewString(),
			strings.TrimSpace(req.Number),
			req.CustomerID,
			req.Status,
			req.TotalCents,
			req.Currency,
			metadata,
			placedAt,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Order])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves an order by ID.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var out model.Order
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Order])
		return err
	}); err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, apperrors.NotFoundf("order %s not found", id)
		}
		return nil, mapped
	}
	return &out, nil
}

// List retrieves orders joined with customer names, applying the supplied
// filters, sorting, and paging.
func (r *OrderRepo) List(ctx context.Context, opts model.OrdersListOptions) ([]*model.OrderWithCustomer, error) {
	query, args := buildOrdersListQuery(opts, false)

	var rowsOut []model.OrderWithCustomer
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.OrderWithCustomer])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}

	out := make([]*model.OrderWithCustomer, 0, len(rowsOut))
	for i := range rowsOut {
		out = append(out, &rowsOut[i])
	}
	return out, nil
}

// Count returns the number of orders matching the filters (paging ignored).
func (r *OrderRepo) Count(ctx context.Context, opts model.OrdersListOptions) (int, error) {
	query, args := buildOrdersListQuery(opts, true)

	var count int
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	}); err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return count, nil
}

// UpdateStatus transitions an order to a new status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, req model.UpdateOrderStatusRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Order
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE orders SET status = $1, updated_at = $2
			WHERE id = $3
			RETURNING `+orderColumns,
			req.Status, now, id,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Order])
		return err
	}); err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, apperrors.NotFoundf("order %s not found", id)
		}
		return nil, mapped
	}
	return &out, nil
}

// Delete removes an order. Returns false when no row matched.
func (r *OrderRepo) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	}); err != nil {
		return false, apperrors.MapDBError(err)
	}
	return deleted, nil
}

// buildOrdersListQuery assembles the list/count SQL for the given options.
// Filters use positional parameters; sort columns go through the allowlist.
func buildOrdersListQuery(opts model.OrdersListOptions, countOnly bool) (string, []any) {
	var b strings.Builder
	var args []any

	if countOnly {
		b.WriteString(`SELECT count(*) FROM orders o JOIN customers c ON c.id = o.customer_id`)
	} else {
		b.WriteString(`SELECT o.id, o.number, o.customer_id, o.status, o.total_cents, o.currency,
			o.metadata, o.placed_at, o.created_at, o.updated_at, c.name AS customer_name
			FROM orders o JOIN customers c ON c.id = o.customer_id`)
	}

	var conds []string
	addArg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		p := addArg("%" + strings.TrimSpace(*opts.Q) + "%")
		conds = append(conds, "(o.number ILIKE "+p+" OR c.name ILIKE "+p+")")
	}
	if opts.Status != nil {
		conds = append(conds, "o.status = "+addArg(string(*opts.Status)))
	}
	if opts.Currency != nil && *opts.Currency != "" {
		conds = append(conds, "o.currency = "+addArg(strings.ToUpper(*opts.Currency)))
	}
	if opts.CustomerID != nil && *opts.CustomerID != "" {
		conds = append(conds, "o.customer_id = "+addArg(*opts.CustomerID))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	if countOnly {
		return b.String(), args
	}

	col, ok := orderSortColumns[strings.ToLower(strings.TrimSpace(opts.Sort))]
	if !ok {
		col = "placed_at"
	}
	dir := "DESC"
	if strings.EqualFold(opts.Dir, "asc") {
		dir = "ASC"
	}
	b.WriteString(" ORDER BY o." + col + " " + dir + ", o.id " + dir)

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" LIMIT " + addArg(limit) + " OFFSET " + addArg(offset))

	return b.String(), args
}
