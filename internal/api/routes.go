package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Routing
	mux.Handle("POST /api/v1/route", chain(http.HandlerFunc(h.Route)))
	mux.Handle("POST /api/v1/expand", chain(http.HandlerFunc(h.Expand)))
	mux.Handle("POST /api/v1/send", chain(http.HandlerFunc(h.Send)))

	// Queues
	mux.Handle("GET /api/v1/queues", chain(http.HandlerFunc(h.ListQueues)))
	mux.Handle("GET /api/v1/queues/{name}", chain(http.HandlerFunc(h.GetQueue)))
}
