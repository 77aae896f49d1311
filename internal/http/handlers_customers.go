package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/orderdesk/orderdesk/internal/domain/model"
	"github.com/orderdesk/orderdesk/internal/service"
)

// CustomerHandlers provides HTTP handlers for customer-related operations.
type CustomerHandlers struct {
	Svc *service.CustomerService
}

const (
	maxCustomerListLimit = 100 // Maximum number of customers that can be requested in one call
)

// List handles HTTP requests to list customers with pagination and filters.
// Supported query params: q, domain, sort, dir, limit, offset.
func (h *CustomerHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxCustomerListLimit)

	q := r.URL.Query()
	opts := model.CustomersListOptions{Limit: limit, Offset: offset}
	if v := strings.TrimSpace(q.Get("q")); v != "" {
		opts.Q = &v
	}
	if v := strings.TrimSpace(q.Get("domain")); v != "" {
		opts.Domain = &v
	}
	opts.Sort, opts.Dir = ParseSortParam(q, "sort", "dir")

	page, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		writeServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"customers": page.Items,
		"total":     page.Total,
		"limit":     limit,
		"offset":    offset,
	})
}

// GetByID handles HTTP requests to get a customer by ID.
func (h *CustomerHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("customer id is required")},
		)
		return
	}

	customer, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "get_failed")
		return
	}

	WriteJSON(w, http.StatusOK, customer)
}

// Create handles HTTP requests to create a new customer.
func (h *CustomerHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCustomerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	customer, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		switch {
		case isValidationError(err):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		default:
			writeServiceError(w, err, "create_failed")
		}
		return
	}

	WriteJSON(w, http.StatusCreated, customer)
}

// Delete handles HTTP requests to delete a customer.
// Customers with orders cannot be deleted; the foreign key surfaces as a 409.
func (h *CustomerHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("customer id is required")},
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
			ErrorParams{Code: http.StatusNotFound, ErrCode: "customer_not_found", Err: errors.New("customer not found")},
		)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
