package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orderdesk/orderdesk/internal/data/database"
	"github.com/orderdesk/orderdesk/internal/data/pgxutil"
	"github.com/orderdesk/orderdesk/internal/domain/model"
	apperrors "github.com/orderdesk/orderdesk/internal/errors"
)

const customerColumns = `id, name, email, website, created_at, updated_at`

var customerSortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "name",
}

// CustomerRepo provides database operations for customers.
type CustomerRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCustomerRepo creates a CustomerRepo with the real clock.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// Create inserts a new customer.
func (r *CustomerRepo) Create(ctx context.Context, req *model.CreateCustomerRequest) (*model.Customer, error) {
	if req == nil {
		return nil, errors.New("create customer request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Customer
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO customers (id, name, email, website, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING `+customerColumns,
			uuid.NewString(), req.Name, req.Email, req.Website, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Customer])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	var out model.Customer
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Customer])
		return err
	}); err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, apperrors.NotFoundf("customer %s not found", id)
		}
		return nil, mapped
	}
	return &out, nil
}

// List retrieves customers with filtering and paging.
func (r *CustomerRepo) List(ctx context.Context, opts model.CustomersListOptions) ([]*model.Customer, error) {
	query, args := buildCustomersListQuery(opts)

	var rowsOut []model.Customer
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Customer])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}

	out := make([]*model.Customer, 0, len(rowsOut))
	for i := range rowsOut {
		out = append(out, &rowsOut[i])
	}
	return out, nil
}

// Count returns the number of customers matching the filter options.
func (r *CustomerRepo) Count(ctx context.Context, opts model.CustomersListOptions) (int, error) {
	query, args := buildCustomersCountQuery(opts)

	var count int
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	}); err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return count, nil
}

// Delete removes a customer. Returns false when no row matched.
func (r *CustomerRepo) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
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

func buildCustomersListQuery(opts model.CustomersListOptions) (string, []any) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	col, ok := customerSortColumns[strings.ToLower(strings.TrimSpace(opts.Sort))]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(opts.Dir, "asc") {
		dir = "ASC"
	}

	queryOpts := append(customerConditionOptions(opts),
		database.WithColumns(strings.Split(customerColumns, ", ")...),
		database.WithOrderBy(col, dir),
		database.WithTieBreaker("id"),
		database.WithLimit(limit),
		database.WithOffset(offset),
	)
	return database.BuildListQuery(database.NewListQueryOptions("customers", queryOpts...))
}

func buildCustomersCountQuery(opts model.CustomersListOptions) (string, []any) {
	queryOpts := append(customerConditionOptions(opts), database.WithCountOnly())
	return database.BuildListQuery(database.NewListQueryOptions("customers", queryOpts...))
}

// customerConditionOptions builds the filter predicates shared by list and
// count. Domain is expected to already be a normalized registrable domain;
// it is matched against the website and against the email's host part.
func customerConditionOptions(opts model.CustomersListOptions) []database.ListQueryOption {
	var queryOpts []database.ListQueryOption
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		needle := "%" + strings.TrimSpace(*opts.Q) + "%"
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereRawCond("(name ILIKE $1 OR email ILIKE $1)", needle),
		))
	}
	if opts.Domain != nil && strings.TrimSpace(*opts.Domain) != "" {
		domain := strings.TrimSpace(*opts.Domain)
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereRawCond("(website ILIKE $1 OR email ILIKE $2)",
				"%"+domain+"%", "%@%"+domain),
		))
	}
	return queryOpts
}
