package handler

import (
	"net/http"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.log.Error("health check failed", "error", err)
			h.errorResponse(w, r, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	h.successResponse(w, r, "ok", nil)
}
