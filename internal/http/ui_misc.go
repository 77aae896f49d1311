package httpx

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
)

// SignedOut renders the signed-out page with a link back to login. When
// templates are unavailable the user is bounced straight to login instead.
func (h *UIHandlers) SignedOut(w http.ResponseWriter, r *http.Request) {
	redirect := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	loginURL := "/auth/login?redirect_uri=" + url.QueryEscape(redirect)
	if h.T == nil {
		http.Redirect(w, r, loginURL, http.StatusSeeOther)
		return
	}

	// Buffer the template so a render failure never emits half a page.
	var buf bytes.Buffer
	err := h.T.t.ExecuteTemplate(&buf, "signed-out-page", map[string]any{
		"Title":       "Signed out - OrderDesk",
		"RedirectURI": redirect,
	})
	if err != nil {
		http.Redirect(w, r, loginURL, http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger().Error("writing signed-out page", "error", err)
	}
}

// NotFound handles 404s: browser requests get the HTML error page, API
// requests get a JSON error response.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("not found"),
		})
		return
	}

	session := GetSessionFromContext(r.Context())
	data := map[string]any{
		"Title":           "Page Not Found - OrderDesk",
		"Code":            "404",
		"Message":         "The page you're looking for doesn't exist.",
		"IsAuthenticated": session != nil,
		"ShowLogin":       session == nil,
		"RedirectURI":     r.URL.RequestURI(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if h.T == nil || h.T.RenderError(w, r, data) != nil {
		http.Error(w, "Page not found", http.StatusNotFound)
	}
}
