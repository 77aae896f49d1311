package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callHealth(t *testing.T, method string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	healthHandler(rec, httptest.NewRequest(method, "/healthz", nil))

	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	return rec
}

func TestHealthHandler_GET(t *testing.T) {
	rec := callHealth(t, http.MethodGet)
	assert.JSONEq(t, `{"status":"ok","service":"orderdesk"}`, rec.Body.String())
}

func TestHealthHandler_HEADHasNoBody(t *testing.T) {
	rec := callHealth(t, http.MethodHead)
	assert.Zero(t, rec.Body.Len())
}
