// Package database builds parameterized list queries for single-table
// repositories. Identifiers are quoted through pgx, values always travel
// as positional parameters.
package database

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ConditionType selects the SQL operator a Condition renders with.
type ConditionType string

const (
	Equal       ConditionType = "="
	NotEqual    ConditionType = "!="
	GreaterThan ConditionType = ">"
	LessThan    ConditionType = "<"
	ILike       ConditionType = "ILIKE"
	In          ConditionType = "IN"
	Custom      ConditionType = "CUSTOM"
)

// unset marks limit/offset as "not requested" so zero stays a valid value.
const unset = -1

// Condition is one WHERE predicate. Build via WhereCond or WhereRawCond.
type Condition struct {
	Field string
	Type  ConditionType
	Value any
	raw   string
}

// WhereCond builds a field/operator/value predicate. The field name is
// quoted before it reaches the query.
func WhereCond(field string, condType ConditionType, value any) Condition {
	if condType == Custom {
		panic("use WhereRawCond for custom predicates")
	}
	return Condition{Field: field, Type: condType, Value: value}
}

// WhereRawCond builds a predicate from a raw SQL fragment. Placeholders are
// written $1..$n against params and renumbered when the final query is
// assembled; repeating a placeholder reuses the same argument.
func WhereRawCond(rawQuery string, params ...any) Condition {
	return Condition{Type: Custom, raw: rawQuery, Value: params}
}

// ListQueryOptions collects everything BuildListQuery needs. Construct with
// NewListQueryOptions and the With* options.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	TieBreaker string
	Limit      int
	Offset     int
}

// ListQueryOption mutates ListQueryOptions during construction.
type ListQueryOption func(*ListQueryOptions)

// NewListQueryOptions starts a query against table.
func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:  table,
		Limit:  unset,
		Offset: unset,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the selected columns. Without it the query selects *.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition appends one predicate; all predicates are ANDed.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy sets the ordering column and direction. Direction is applied
// only when it is ASC or DESC after upcasing.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithTieBreaker appends a secondary ordering column (same direction) so
// paging stays stable when the primary sort column has duplicates.
func WithTieBreaker(column string) ListQueryOption {
	return func(o *ListQueryOptions) { o.TieBreaker = column }
}

// WithLimit sets the limit. Zero is valid; negative values are ignored.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Zero is valid; negative values are ignored.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly turns the query into SELECT COUNT(*); ordering and paging
// options are ignored.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

// BuildListQuery renders the query and its positional arguments.
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder
	query.WriteString(options.selectClause())
	query.WriteString(" FROM ")
	query.WriteString(quoteIdent(options.Table))

	where, args, next := buildWhereClause(options.Conditions, 1)
	if where != "" {
		query.WriteString(" ")
		query.WriteString(where)
	}
	if options.CountOnly {
		return query.String(), args
	}

	query.WriteString(options.orderClause())

	if options.Limit != unset {
		query.WriteString(fmt.Sprintf(" LIMIT $%d", next))
		args = append(args, options.Limit)
		next++
	}
	if options.Offset != unset {
		query.WriteString(fmt.Sprintf(" OFFSET $%d", next))
		args = append(args, options.Offset)
	}
	return query.String(), args
}

func (o *ListQueryOptions) selectClause() string {
	if o.CountOnly {
		return "SELECT COUNT(*)"
	}
	if len(o.Columns) == 0 {
		return "SELECT *"
	}
	quoted := make([]string, len(o.Columns))
	for i, col := range o.Columns {
		quoted[i] = quoteQualifiedIdent(strings.TrimSpace(col))
	}
	return "SELECT " + strings.Join(quoted, ", ")
}

func (o *ListQueryOptions) orderClause() string {
	if o.OrderBy == "" {
		return ""
	}
	var clause strings.Builder
	clause.WriteString(" ORDER BY ")
	clause.WriteString(quoteQualifiedIdent(o.OrderBy))

	dir := strings.ToUpper(o.OrderDir)
	if dir != "ASC" && dir != "DESC" {
		dir = ""
	}
	if dir != "" {
		clause.WriteString(" " + dir)
	}
	if o.TieBreaker != "" {
		clause.WriteString(", " + quoteQualifiedIdent(o.TieBreaker))
		if dir != "" {
			clause.WriteString(" " + dir)
		}
	}
	return clause.String()
}

// quoteIdent quotes a single identifier.
func quoteIdent(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

// quoteQualifiedIdent quotes dotted identifiers like "table.column" part by
// part.
func quoteQualifiedIdent(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

func buildWhereClause(input []Condition, startParam int) (string, []any, int) {
	predicates := make([]string, 0, len(input))
	args := []any{}
	param := startParam

	for _, cond := range input {
		sql, condArgs, next := renderCondition(cond, param)
		if sql == "" {
			continue
		}
		predicates = append(predicates, sql)
		args = append(args, condArgs...)
		param = next
	}

	if len(predicates) == 0 {
		return "", args, param
	}
	return "WHERE " + strings.Join(predicates, " AND "), args, param
}

func renderCondition(cond Condition, param int) (string, []any, int) {
	switch cond.Type {
	case Custom:
		return renderRawCondition(cond, param)
	case In:
		return renderInCondition(cond, param)
	case Equal, NotEqual, GreaterThan, LessThan, ILike:
		if cond.Field == "" {
			return "", nil, param
		}
		sql := fmt.Sprintf("%s %s $%d", quoteIdent(cond.Field), cond.Type, param)
		return sql, []any{cond.Value}, param + 1
	}
	return "", nil, param
}

func renderInCondition(cond Condition, param int) (string, []any, int) {
	if cond.Field == "" {
		return "", nil, param
	}
	rv := reflect.ValueOf(cond.Value)
	if rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return "", nil, param
	}
	placeholders := make([]string, rv.Len())
	args := make([]any, rv.Len())
	for i := range rv.Len() {
		placeholders[i] = fmt.Sprintf("$%d", param)
		args[i] = rv.Index(i).Interface()
		param++
	}
	sql := fmt.Sprintf("%s IN (%s)", quoteIdent(cond.Field), strings.Join(placeholders, ", "))
	return sql, args, param
}

var rawPlaceholder = regexp.MustCompile(`\$(\d+)`)

// renderRawCondition renumbers the fragment's $1..$n placeholders into the
// query-global parameter sequence. A placeholder repeated in the fragment
// binds its argument once.
func renderRawCondition(cond Condition, param int) (string, []any, int) {
	if cond.raw == "" {
		return "", nil, param
	}
	params, _ := cond.Value.([]any)

	args := []any{}
	seen := make(map[int]int)
	sql := rawPlaceholder.ReplaceAllStringFunc(cond.raw, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n < 1 || n > len(params) {
			return m
		}
		if _, ok := seen[n]; !ok {
			seen[n] = param
			args = append(args, params[n-1])
			param++
		}
		return fmt.Sprintf("$%d", seen[n])
	})
	return sql, args, param
}
