package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateCustomerRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateCustomerRequest
		wantErr string
	}{
		{"valid", CreateCustomerRequest{Name: "Acme Corp", Email: "ops@acme.example"}, ""},
		{"valid with website", CreateCustomerRequest{Name: "Acme", Email: "a@b.example", Website: strPtr("https://shop.acme.example")}, ""},
		{"missing name", CreateCustomerRequest{Email: "a@b.example"}, "name is required"},
		{"missing email", CreateCustomerRequest{Name: "Acme"}, "email is required"},
		{"invalid email", CreateCustomerRequest{Name: "Acme", Email: "not-an-email"}, "valid address"},
		{"bad website scheme", CreateCustomerRequest{Name: "Acme", Email: "a@b.example", Website: strPtr("ftp://acme.example")}, "http or https"},
		{"website without host", CreateCustomerRequest{Name: "Acme", Email: "a@b.example", Website: strPtr("https://")}, "valid host"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCreateCustomerRequest_ValidateDropsBlankWebsite(t *testing.T) {
	req := CreateCustomerRequest{Name: "Acme", Email: "a@b.example", Website: strPtr("   ")}
	require.NoError(t, req.Validate())
	assert.Nil(t, req.Website)
}
