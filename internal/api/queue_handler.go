package api

import (
	"net/http"

	"github.com/shaiso/taskroute/internal/telemetry"
)

// ListQueues возвращает очереди реестра в порядке объявления.
// GET /api/v1/queues
func (h *Handler) ListQueues(w http.ResponseWriter, r *http.Request) {
	all := h.router.Queues().All()

	result := make([]QueueResponse, len(all))
	for i, q := range all {
		result[i] = QueueFromDomain(q)
	}

	List(w, result, len(result))
}

// GetQueue возвращает очередь по имени.
// GET /api/v1/queues/{name}
func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	q, err := h.router.Queues().Get(r.PathValue("name"))
	if HandleRouteError(w, telemetry.FromContext(r.Context()), err) {
		return
	}

	Success(w, QueueFromDomain(q))
}
