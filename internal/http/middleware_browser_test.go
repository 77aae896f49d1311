package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrowserDetection_ClassifiesRequests(t *testing.T) {
	probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsBrowserRequest(r) {
			w.Header().Set("Content-Type", "text/html")
		} else {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := BrowserDetection()(probe)

	tests := []struct {
		name    string
		path    string
		accept  string
		htmx    bool
		browser bool
	}{
		{name: "json api call", path: "/api/orders", accept: "application/json"},
		{name: "api route never counts as browser", path: "/api/customers", accept: "text/html"},
		{name: "static asset", path: "/static/css/styles.css", accept: "text/css"},
		{name: "orders page", path: "/orders", accept: "text/html,application/xhtml+xml,*/*;q=0.8", browser: true},
		{name: "htmx fragment request", path: "/customers", accept: "text/html", htmx: true, browser: true},
		{name: "root page", path: "/", accept: "text/html", browser: true},
		{name: "no accept header on a page route", path: "/orders", browser: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.htmx {
				req.Header.Set("Hx-Request", "true")
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			want := "application/json"
			if tt.browser {
				want = "text/html"
			}
			assert.Equal(t, want, w.Header().Get("Content-Type"))
		})
	}
}

func TestIsBrowserRequest_FallsBackWithoutMiddleware(t *testing.T) {
	api := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	api.Header.Set("Accept", "application/json")
	assert.False(t, IsBrowserRequest(api))

	page := httptest.NewRequest(http.MethodGet, "/orders", nil)
	page.Header.Set("Accept", "text/html")
	assert.True(t, IsBrowserRequest(page))
}

func TestIsBrowserRequest_ContextValueWins(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)

	req = req.WithContext(context.WithValue(req.Context(), browserRequestKey{}, true))
	assert.True(t, IsBrowserRequest(req))

	req = req.WithContext(context.WithValue(req.Context(), browserRequestKey{}, false))
	assert.False(t, IsBrowserRequest(req))

	// A value of the wrong type falls back to header detection.
	req = req.WithContext(context.WithValue(req.Context(), browserRequestKey{}, "bogus"))
	req.Header.Set("Accept", "text/html")
	assert.True(t, IsBrowserRequest(req))
}
