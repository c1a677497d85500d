package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/taskroute/internal/routes"
	"github.com/shaiso/taskroute/internal/telemetry"
)

// Route возвращает решение маршрутизатора для вызова задачи.
// POST /api/v1/route
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Task == "" {
		BadRequest(w, "task is required")
		return
	}

	decision, err := h.router.RouteCall(&routes.Call{
		TaskName: req.Task,
		Args:     req.Args,
		Kwargs:   req.Kwargs,
		Options:  routes.Options(req.Options),
	})
	if HandleRouteError(w, telemetry.FromContext(r.Context()), err) {
		return
	}

	Success(w, RouteResponse{
		Task:        req.Task,
		Destination: DestinationFromOptions(decision.Options),
		Source:      decision.Source,
		Rule:        decision.Rule,
	})
}

// Expand разворачивает назначение без обхода правил.
// POST /api/v1/expand
func (h *Handler) Expand(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	opts, err := h.router.ExpandDestination(req.Destination)
	if HandleRouteError(w, telemetry.FromContext(r.Context()), err) {
		return
	}

	Success(w, DestinationFromOptions(opts))
}

// Send маршрутизирует и публикует вызов задачи.
// POST /api/v1/send
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	if h.producer == nil {
		Unavailable(w, "broker is not configured")
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Task == "" {
		BadRequest(w, "task is required")
		return
	}

	msg, dest, err := h.producer.SendTask(r.Context(), req.Task, req.Args, req.Kwargs, routes.Options(req.Options))
	if HandleRouteError(w, telemetry.FromContext(r.Context()), err) {
		return
	}

	JSON(w, http.StatusAccepted, DataResponse{Data: SendResponse{
		MessageID:   msg.ID,
		Destination: DestinationFromOptions(dest),
	}})
}
