package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const errMsgFixBelow = "Correct the errors below."

// ErrorRenderer renders an error template with the given data. Handlers
// typically pass their page renderer here.
type ErrorRenderer func(w http.ResponseWriter, r *http.Request, data any)

// ErrorOpts describes one error response.
type ErrorOpts struct {
	W http.ResponseWriter
	R *http.Request

	// Err is optional; FieldErrors alone is enough for validation pages.
	Err error
	// FieldErrors maps form field name to message.
	FieldErrors map[string]string

	Renderer ErrorRenderer
	PageMeta PageMeta

	// Data is merged into the template data, e.g. to re-fill a form.
	Data map[string]any

	// StatusCode overrides the default (200, so htmx swaps still happen).
	StatusCode int
	// ShowToast additionally fires a toast with the general message.
	ShowToast bool
}

// DetermineErrorStatus maps an error to a response status override.
// Foreign key violations become 409; everything else returns 0, meaning
// use the caller's default.
func DetermineErrorStatus(err error) int {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return http.StatusConflict
	}
	return 0
}

// RenderError renders an error response through the supplied renderer.
// Database errors are translated into user-facing messages, and unique,
// check and not-null violations are attached to the offending field when
// the driver reports enough metadata.
func RenderError(opts ErrorOpts) {
	if opts.Renderer == nil {
		http.Error(opts.W, "error renderer not configured", http.StatusInternalServerError)
		return
	}

	builder := NewTemplateData(opts.R, opts.PageMeta)

	// Translating the error may attach new field errors.
	general := processError(opts.Err, &opts.FieldErrors)

	if len(opts.FieldErrors) > 0 {
		builder.WithFieldErrors(opts.FieldErrors)
		if general == "" {
			general = errMsgFixBelow
		}
	}
	if general != "" {
		builder.WithError(general)
	}
	for key, value := range opts.Data {
		builder.With(key, value)
	}

	if opts.ShowToast && general != "" && opts.Err != nil {
		triggerToast(opts.W, general, "error")
	}
	if opts.StatusCode != 0 {
		opts.W.WriteHeader(opts.StatusCode)
	}

	opts.Renderer(opts.W, opts.R, builder.Build())
}

// processError turns an error into a user-facing message, attaching
// field errors along the way where possible. Returns "" for nil.
func processError(err error, fieldErrors *map[string]string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Try again."
	case errors.Is(err, context.Canceled):
		return "The request was canceled."
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "Something went wrong. Try again."
	}
	return databaseMessage(pgErr, fieldErrors)
}

func databaseMessage(pgErr *pgconn.PgError, fieldErrors *map[string]string) string {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		field := pgErr.ColumnName
		if field == "" {
			field = fieldFromConstraintName(pgErr.ConstraintName)
		}
		const taken = "That value is already taken. Choose a different one."
		if setFieldError(fieldErrors, field, taken) {
			return errMsgFixBelow
		}
		return taken
	case pgerrcode.ForeignKeyViolation:
		return foreignKeyMessage(pgErr)
	case pgerrcode.NotNullViolation:
		if setFieldError(fieldErrors, pgErr.ColumnName, "This field is required.") {
			return errMsgFixBelow
		}
		return "A required field is empty. Check your input."
	case pgerrcode.CheckViolation:
		if setFieldError(fieldErrors, pgErr.ColumnName, "This field has an invalid value.") {
			return errMsgFixBelow
		}
		return "Some values are invalid. Check your input."
	}
	return "A storage error occurred. Try again."
}

// setFieldError records a message against a field, allocating the map on
// first use. Reports whether anything was recorded.
func setFieldError(fieldErrors *map[string]string, field, msg string) bool {
	if field == "" || fieldErrors == nil {
		return false
	}
	if *fieldErrors == nil {
		*fieldErrors = make(map[string]string)
	}
	(*fieldErrors)[field] = msg
	return true
}

// foreignKeyMessage builds a message naming the referencing table when
// the driver reports it, falling back to constraint-name heuristics.
func foreignKeyMessage(pgErr *pgconn.PgError) string {
	if pgErr.TableName != "" {
		return "This record is still referenced by " + pgErr.TableName + " and cannot be changed."
	}

	constraint := strings.ToLower(pgErr.ConstraintName)
	switch {
	case strings.Contains(constraint, "customer"):
		return "Cannot delete customer because they still have orders."
	case strings.Contains(constraint, "order"):
		return "Cannot delete because it is referenced by an Order."
	}
	return "This record is still in use and cannot be removed."
}

// sqlFunctionNames are functions commonly seen in expression index names,
// e.g. customers_lower_key. A middle segment matching one of these is an
// expression, not a column.
var sqlFunctionNames = map[string]struct{}{
	"lower": {}, "upper": {}, "trim": {}, "ltrim": {}, "rtrim": {},
	"md5": {}, "sha1": {}, "sha256": {}, "encode": {}, "decode": {},
}

// fieldFromConstraintName infers a column from a single-column constraint
// name like "customers_email_key". Multi-column constraints (four or more
// segments) and expression indexes are ambiguous and yield "".
func fieldFromConstraintName(constraintName string) string {
	parts := strings.Split(constraintName, "_")
	if len(parts) != 3 {
		return ""
	}
	field := parts[1]
	if _, isFunc := sqlFunctionNames[strings.ToLower(field)]; isFunc {
		return ""
	}
	return field
}
