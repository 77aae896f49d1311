package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateOrderRequest() CreateOrderRequest {
	return CreateOrderRequest{
		Number:     "ORD-1001",
		CustomerID: "c-1",
		TotalCents: 4200,
		Currency:   "usd",
	}
}

func TestCreateOrderRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateOrderRequest)
		wantErr string
	}{
		{"valid", func(_ *CreateOrderRequest) {}, ""},
		{"missing number", func(r *CreateOrderRequest) { r.Number = "  " }, "number is required"},
		{"number too long", func(r *CreateOrderRequest) { r.Number = strings.Repeat("x", 65) }, "cannot exceed"},
		{"missing customer", func(r *CreateOrderRequest) { r.CustomerID = "" }, "customer_id is required"},
		{"negative total", func(r *CreateOrderRequest) { r.TotalCents = -1 }, "must be non-negative"},
		{"bad currency", func(r *CreateOrderRequest) { r.Currency = "DOLLARS" }, "3-letter ISO code"},
		{"bad status", func(r *CreateOrderRequest) { r.Status = "mailed" }, "status must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateOrderRequest()
			tc.mutate(&req)
			err := req.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCreateOrderRequest_ValidateNormalizes(t *testing.T) {
	req := validCreateOrderRequest()
	req.Currency = " eur "
	req.Status = "PAID"
	require.NoError(t, req.Validate())
	assert.Equal(t, "EUR", req.Currency)
	assert.Equal(t, OrderStatusPaid, req.Status)

	req = validCreateOrderRequest()
	require.NoError(t, req.Validate())
	assert.Equal(t, OrderStatusPending, req.Status, "empty status defaults to pending")
}

func TestParseOrderStatus(t *testing.T) {
	status, ok := ParseOrderStatus(" Shipped ")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusShipped, status)

	_, ok = ParseOrderStatus("lost")
	assert.False(t, ok)
}

func TestUpdateOrderStatusRequest_Validate(t *testing.T) {
	req := UpdateOrderStatusRequest{Status: "refunded"}
	require.NoError(t, req.Validate())
	assert.Equal(t, OrderStatusRefunded, req.Status)

	req = UpdateOrderStatusRequest{Status: ""}
	assert.Error(t, req.Validate())
}
