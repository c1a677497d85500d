package cli

import (
	"context"
	"errors"

	"github.com/shaiso/taskroute/internal/mq"
	"github.com/shaiso/taskroute/internal/queues"
	"github.com/shaiso/taskroute/internal/routes"
)

// ErrNoBroker — send без подключения к брокеру.
var ErrNoBroker = errors.New("broker is not configured")

// Backend — источник решений маршрутизации для команд.
// Client ходит в API, Local работает с Router в процессе.
type Backend interface {
	Route(ctx context.Context, req RouteRequest) (*RouteResult, error)
	Expand(ctx context.Context, dest any) (*Destination, error)
	Send(ctx context.Context, req RouteRequest) (*SendResult, error)
	Queues(ctx context.Context) ([]QueueInfo, error)
	Queue(ctx context.Context, name string) (*QueueInfo, error)
}

// Local выполняет команды на локальном Router.
type Local struct {
	router   *routes.Router
	producer *mq.Producer
}

var _ Backend = (*Local)(nil)

// NewLocal создаёт Local. producer может быть nil, тогда Send недоступен.
func NewLocal(router *routes.Router, producer *mq.Producer) *Local {
	return &Local{router: router, producer: producer}
}

// Route маршрутизирует вызов.
func (l *Local) Route(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	d, err := l.router.RouteCall(&routes.Call{
		TaskName: req.Task,
		Args:     req.Args,
		Kwargs:   req.Kwargs,
		Options:  routes.Options(req.Options),
	})
	if err != nil {
		return nil, err
	}
	return &RouteResult{
		Task:        req.Task,
		Destination: destinationOf(d.Options),
		Source:      d.Source,
		Rule:        d.Rule,
	}, nil
}

// Expand разворачивает назначение.
func (l *Local) Expand(ctx context.Context, dest any) (*Destination, error) {
	opts, err := l.router.ExpandDestination(dest)
	if err != nil {
		return nil, err
	}
	d := destinationOf(opts)
	return &d, nil
}

// Send публикует задачу через Producer.
func (l *Local) Send(ctx context.Context, req RouteRequest) (*SendResult, error) {
	if l.producer == nil {
		return nil, ErrNoBroker
	}
	msg, dest, err := l.producer.SendTask(ctx, req.Task, req.Args, req.Kwargs, routes.Options(req.Options))
	if err != nil {
		return nil, err
	}
	return &SendResult{MessageID: msg.ID, Destination: destinationOf(dest)}, nil
}

// Queues возвращает очереди реестра.
func (l *Local) Queues(ctx context.Context) ([]QueueInfo, error) {
	all := l.router.Queues().All()
	out := make([]QueueInfo, len(all))
	for i, q := range all {
		out[i] = queueInfo(q)
	}
	return out, nil
}

// Queue возвращает очередь по имени.
func (l *Local) Queue(ctx context.Context, name string) (*QueueInfo, error) {
	q, err := l.router.Queues().Get(name)
	if err != nil {
		return nil, err
	}
	info := queueInfo(q)
	return &info, nil
}

func destinationOf(opts routes.Options) Destination {
	d := Destination{
		Exchange:     opts.String(routes.KeyExchange),
		ExchangeType: opts.String(routes.KeyExchangeType),
		RoutingKey:   opts.String(routes.KeyRoutingKey),
	}
	if q := opts.Queue(); q != nil {
		d.Queue = queueInfo(q)
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

func queueInfo(q *queues.Queue) QueueInfo {
	return QueueInfo{
		Name:         q.Name,
		Exchange:     q.Exchange.Name,
		ExchangeType: q.Exchange.Type,
		RoutingKey:   q.RoutingKey,
		Durable:      q.Durable,
		AutoDelete:   q.AutoDelete,
		Arguments:    q.Arguments,
	}
}
