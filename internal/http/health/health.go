package health

import (
	"net/http"
	"sync/atomic"
)

// Handler serves liveness and readiness checks.
type Handler struct {
	ready atomic.Bool
	tools atomic.Int32
}

// New returns a health handler instance.
func New() *Handler {
	return &Handler{}
}

// SetReady marks the handler as ready with the given number of registered tools.
func (h *Handler) SetReady(tools int) {
	h.tools.Store(int32(tools))
	h.ready.Store(true)
}

// SetNotReady marks the handler as not ready.
func (h *Handler) SetNotReady() {
	h.ready.Store(false)
}

// Ready reports whether startup finished with at least one tool registered.
func (h *Handler) Ready() bool {
	return h.ready.Load() && h.tools.Load() > 0
}

// Healthz handles liveness checks.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz handles readiness checks. The server is ready once tools are
// registered and the startup plan has finished.
func (h *Handler) Readyz(w http.ResponseWriter, _ *http.Request) {
	if h.Ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
