package httpx

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/orderdesk/orderdesk/internal/errors"
)

// StatusClientClosedRequest is the nginx-originated 499 status used when the
// client goes away mid-request.
const StatusClientClosedRequest = 499

// validationErrorPatterns classifies plain-error validation failures as
// 400s. Typed AppError values take precedence; these substrings cover
// the request Validate() errors that are built with fmt.Errorf.
var validationErrorPatterns = []string{ //nolint:gochecknoglobals // read-only pattern list
	"is required and cannot be empty",
	"is required",
	"cannot be empty",
	"cannot exceed",
	"must be a valid",
	"must use http or https scheme",
	"must have a valid host",
	"must be one of:",
	"must be between",
	"must be non-negative",
	"must be a 3-letter",
}

// parseIntQuery returns the integer value of a query param, or def when
// the param is missing or not an integer.
func parseIntQuery(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// ParseLimitOffset parses the limit and offset query params, applying
// defLimit when limit is absent and clamping limit to [1, maxLimit] and
// offset to >= 0.
func ParseLimitOffset(r *http.Request, defLimit, maxLimit int) (int, int) {
	maxLimit = max(maxLimit, 1)
	lim := min(max(parseIntQuery(r, "limit", defLimit), 1), maxLimit)
	off := max(parseIntQuery(r, "offset", 0), 0)
	return lim, off
}

// isValidationError reports whether err should surface as a 400 rather than a 5xx.
func isValidationError(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.IsValidation(err) {
		return true
	}
	msg := err.Error()
	for _, p := range validationErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// statusForError maps an application error to an HTTP status code.
func statusForError(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict, apperrors.ErrCodeForeignKey:
		return http.StatusConflict
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeCanceled:
		return StatusClientClosedRequest
	default:
		if isValidationError(err) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}
