package httpx

import (
	"io"
	"net/http"
)

const healthBody = `{"status":"ok","service":"orderdesk"}`

// healthHandler answers liveness/readiness probes. It deliberately touches
// no dependencies: a wedged database should not flap the process restart
// loop.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	// Client gone mid-write is not an error worth reporting.
	_, _ = io.WriteString(w, healthBody)
}
