package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Источники маршрута для RoutesResolved.
const (
	SourceRule    = "rule"
	SourceOptions = "options"
	SourceDefault = "default"
)

var (
	// RoutesResolved — количество принятых решений маршрутизации.
	RoutesResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskroute_routes_resolved_total",
		Help: "Total routing decisions by the source that picked the queue",
	}, []string{"source"})

	// QueuesCreated — очереди, созданные по требованию.
	QueuesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskroute_queues_created_total",
		Help: "Total queues created on demand by the router",
	})

	// QueueNotFound — обращения к необъявленным очередям.
	QueueNotFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskroute_queue_not_found_total",
		Help: "Total routing attempts that targeted an undeclared queue",
	})

	// MessagesPublished — опубликованные сообщения задач по очередям.
	MessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskroute_messages_published_total",
		Help: "Total task messages published, by queue",
	}, []string{"queue"})

	// HTTPRequests — запросы к HTTP API.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskroute_http_requests_total",
		Help: "Total HTTP requests handled by taskroute serve",
	}, []string{"method", "status"})
)
