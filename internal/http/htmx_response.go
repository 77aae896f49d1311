package httpx

import "net/http"

// HTMXResponse chains htmx response headers onto a writer.
type HTMXResponse struct {
	rw http.ResponseWriter
}

// HTMX wraps w for fluent htmx response building:
//
//	HTMX(w).Trigger("showToast", payload).Refresh()
func HTMX(w http.ResponseWriter) *HTMXResponse {
	return &HTMXResponse{rw: w}
}

// Trigger fires a client-side event after the swap. Chainable.
func (resp *HTMXResponse) Trigger(event string, payload any) *HTMXResponse {
	SetHXTrigger(resp.rw, event, payload)
	return resp
}

// PushURL records url in the browser history for the swapped content.
// Chainable.
func (resp *HTMXResponse) PushURL(url string) *HTMXResponse {
	SetHXPushURL(resp.rw, url)
	return resp
}

// Redirect sends the browser to url and ends the response with 204.
// Terminal; the handler must not write anything after calling it.
func (resp *HTMXResponse) Redirect(url string) {
	SetHXRedirect(resp.rw, url)
	resp.rw.WriteHeader(http.StatusNoContent)
}

// Refresh forces a full page reload and ends the response with 204.
// Terminal like Redirect.
func (resp *HTMXResponse) Refresh() {
	SetHXRefresh(resp.rw, true)
	resp.rw.WriteHeader(http.StatusNoContent)
}
