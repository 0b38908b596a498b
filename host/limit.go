package host

import (
	"net/http"

	"golang.org/x/time/rate"
)

// limitHandler rejects requests with a 429 once lim runs out of tokens.
type limitHandler struct {
	lim  *rate.Limiter
	next http.Handler
}

func (h *limitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.lim.Allow() {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		return
	}
	h.next.ServeHTTP(w, r)
}
