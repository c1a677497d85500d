package api

import (
	"github.com/shaiso/taskroute/internal/queues"
	"github.com/shaiso/taskroute/internal/routes"
)

// Route DTOs

// RouteRequest — запрос на маршрутизацию вызова задачи.
type RouteRequest struct {
	Task    string         `json:"task"`
	Args    []any          `json:"args,omitempty"`
	Kwargs  map[string]any `json:"kwargs,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// RouteResponse — решение маршрутизатора.
type RouteResponse struct {
	Task        string `json:"task"`
	Destination
	Source string `json:"source"`
	Rule   int    `json:"rule"`
}

// Destination — развёрнутые опции доставки.
type Destination struct {
	Queue        QueueResponse  `json:"queue"`
	Exchange     string         `json:"exchange"`
	ExchangeType string         `json:"exchange_type,omitempty"`
	RoutingKey   string         `json:"routing_key"`
	Options      map[string]any `json:"options,omitempty"`
}

// DestinationFromOptions конвертирует routes.Options в Destination.
// Ключи, которые не описывают адрес, попадают в Options.
func DestinationFromOptions(opts routes.Options) Destination {
	d := Destination{
		Exchange:     opts.String(routes.KeyExchange),
		ExchangeType: opts.String(routes.KeyExchangeType),
		RoutingKey:   opts.String(routes.KeyRoutingKey),
	}
	if q := opts.Queue(); q != nil {
		d.Queue = QueueFromDomain(q)
	}

	for k, v := range opts {
		switch k {
		case routes.KeyQueue, routes.KeyExchange, routes.KeyExchangeType, routes.KeyRoutingKey:
			continue
		}
		if d.Options == nil {
			d.Options = make(map[string]any)
		}
		d.Options[k] = v
	}
	return d
}

// Expand DTOs

// ExpandRequest — запрос на разворачивание назначения.
// Destination — имя очереди или словарь опций.
type ExpandRequest struct {
	Destination any `json:"destination"`
}

// Send DTOs

// SendResponse — ответ на отправку задачи.
type SendResponse struct {
	MessageID string `json:"message_id"`
	Destination
}

// Queue DTOs

// QueueResponse — описание очереди.
type QueueResponse struct {
	Name         string         `json:"name"`
	Exchange     string         `json:"exchange"`
	ExchangeType string         `json:"exchange_type"`
	RoutingKey   string         `json:"routing_key"`
	Durable      bool           `json:"durable"`
	AutoDelete   bool           `json:"auto_delete"`
	Arguments    map[string]any `json:"arguments,omitempty"`
}

// QueueFromDomain конвертирует queues.Queue в QueueResponse.
func QueueFromDomain(q *queues.Queue) QueueResponse {
	return QueueResponse{
		Name:         q.Name,
		Exchange:     q.Exchange.Name,
		ExchangeType: q.Exchange.Type,
		RoutingKey:   q.RoutingKey,
		Durable:      q.Durable,
		AutoDelete:   q.AutoDelete,
		Arguments:    q.Arguments,
	}
}
