package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store     pinger
	responder responder
}

func NewHealthHandler(store pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, responder: newResponder(logger)}
}

// Check reports whether the store answers within two seconds.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.store == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusServiceUnavailable, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "OK"})
}

type healthResponse struct {
	Status string `json:"status"`
}
