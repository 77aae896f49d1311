// Package httpx provides HTTP handlers and utilities for the orderdesk API.
package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/orderdesk/orderdesk/internal/domain/model"
	apperrors "github.com/orderdesk/orderdesk/internal/errors"
	"github.com/orderdesk/orderdesk/internal/service"
)

// OrderHandlers provides HTTP handlers for order-related operations.
type OrderHandlers struct {
	Svc *service.OrderService
}

const (
	maxOrderListLimit = 100 // Maximum number of orders that can be requested in one call
)

// List handles HTTP requests to list orders with pagination and filters.
// Supported query params: q, status, currency, customer_id, metadata, sort, dir, limit, offset.
func (h *OrderHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxOrderListLimit)

	opts, ok := parseOrderListOptions(w, r)
	if !ok {
		return
	}
	opts.Limit = limit
	opts.Offset = offset

	page, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		writeServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"orders": page.Items,
		"total":  page.Total,
		"limit":  limit,
		"offset": offset,
	})
}

// parseOrderListOptions extracts filter options from query params.
// Writes a 400 response and returns ok=false when the status filter is invalid.
func parseOrderListOptions(w http.ResponseWriter, r *http.Request) (service.OrdersPageOptions, bool) {
	q := r.URL.Query()
	var opts service.OrdersPageOptions

	if v := strings.TrimSpace(q.Get("q")); v != "" {
		opts.Q = &v
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		status, valid := model.ParseOrderStatus(v)
		if !valid {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_status",
				Err:     errors.New("status must be one of: pending, paid, shipped, cancelled, refunded"),
			})
			return opts, false
		}
		opts.Status = &status
	}
	if v := strings.TrimSpace(q.Get("currency")); v != "" {
		currency := strings.ToUpper(v)
		opts.Currency = &currency
	}
	if v := strings.TrimSpace(q.Get("customer_id")); v != "" {
		opts.CustomerID = &v
	}
	opts.Metadata = strings.TrimSpace(q.Get("metadata"))
	opts.Sort, opts.Dir = ParseSortParam(q, "sort", "dir")

	return opts, true
}

// GetByID handles HTTP requests to get an order by ID.
func (h *OrderHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("order id is required")},
		)
		return
	}

	order, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "get_failed")
		return
	}

	WriteJSON(w, http.StatusOK, order)
}

// Create handles HTTP requests to create a new order.
func (h *OrderHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	order, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		switch {
		case isValidationError(err):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		default:
			writeServiceError(w, err, "create_failed")
		}
		return
	}

	WriteJSON(w, http.StatusCreated, order)
}

// UpdateStatus handles HTTP requests to transition an order's status.
func (h *OrderHandlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("order id is required")},
		)
		return
	}

	var req model.UpdateOrderStatusRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	order, err := h.Svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case isValidationError(err):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		default:
			writeServiceError(w, err, "update_failed")
		}
		return
	}

	WriteJSON(w, http.StatusOK, order)
}

// Delete handles HTTP requests to delete an order.
func (h *OrderHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("order id is required")},
		)
		return
	}

	deleted, err := h.Svc.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "delete_failed")
		return
	}
	if !deleted {
		WriteError(
			w,
			ErrorParams{Code: http.StatusNotFound, ErrCode: "order_not_found", Err: errors.New("order not found")},
		)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// StatusCounts handles HTTP requests for the order count per status.
func (h *OrderHandlers) StatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Svc.StatusCounts(r.Context())
	if err != nil {
		writeServiceError(w, err, "status_counts_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

// writeServiceError maps a service-layer error onto a JSON error response.
// The status code comes from the application error code; fallbackCode names
// the operation for errors that do not carry a specific code.
func writeServiceError(w http.ResponseWriter, err error, fallbackCode string) {
	status := statusForError(err)
	errCode := fallbackCode
	if code := apperrors.CodeOf(err); code != apperrors.ErrCodeInternal {
		errCode = string(code)
	}
	WriteError(w, ErrorParams{Code: status, ErrCode: errCode, Err: err})
}
