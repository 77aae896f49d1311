package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Request headers htmx sets; response headers it honors.
const (
	hdrHXRequest        = "Hx-Request"
	hdrHXBoosted        = "Hx-Boosted"
	hdrHXHistoryRestore = "Hx-History-Restore-Request"
	hdrHXTarget         = "Hx-Target"
	hdrHXTriggerReq     = "Hx-Trigger"
	hdrHXRedirect       = "Hx-Redirect"
	hdrHXPushURL        = "Hx-Push-Url"
	hdrHXRefresh        = "Hx-Refresh"
)

// IsHTMX reports whether htmx issued the request.
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(hdrHXRequest), "true")
}

// IsBoosted reports whether the request came from an hx-boost navigation.
func IsBoosted(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(hdrHXBoosted), "true")
}

// IsHistoryRestore reports whether htmx is restoring a page from history.
func IsHistoryRestore(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(hdrHXHistoryRestore), "true")
}

// WantsPartial decides whether the handler should render only the content
// fragment instead of the full layout. History restores also get the
// partial; htmx re-wraps them client side.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r)
}

// HXTarget returns the id of the element htmx will swap.
func HXTarget(r *http.Request) string { return r.Header.Get(hdrHXTarget) }

// HXTrigger returns the id or name of the element that fired the request.
func HXTrigger(r *http.Request) string { return r.Header.Get(hdrHXTriggerReq) }

// SetHXRedirect tells htmx to navigate the browser to url.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set(hdrHXRedirect, url) }

// SetHXPushURL pushes url into the browser history alongside the swap.
func SetHXPushURL(w http.ResponseWriter, url string) { w.Header().Set(hdrHXPushURL, url) }

// SetHXRefresh forces (or cancels) a full page reload.
func SetHXRefresh(w http.ResponseWriter, refresh bool) {
	if refresh {
		w.Header().Set(hdrHXRefresh, "true")
		return
	}
	w.Header().Set(hdrHXRefresh, "false")
}

// SetHXTrigger fires a client-side event after the swap. The header value
// is the JSON object {"<event>": <payload>}; a nil payload becomes true.
func SetHXTrigger(w http.ResponseWriter, event string, payload any) {
	var value any = true
	if payload != nil {
		value = payload
	}
	b, err := json.Marshal(map[string]any{event: value})
	if err != nil {
		// Unserializable payload: degrade to a bare event.
		w.Header().Set(hdrHXTriggerReq, `{"`+event+`":true}`)
		return
	}
	w.Header().Set(hdrHXTriggerReq, string(b))
}
