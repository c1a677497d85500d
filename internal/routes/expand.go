package routes

import (
	"log/slog"

	"github.com/shaiso/taskroute/internal/queues"
	"github.com/shaiso/taskroute/internal/telemetry"
)

// Expander разворачивает маршрут в полный набор опций доставки.
//
// Единственное изменение состояния во всём маршрутизаторе —
// создание недостающей очереди в Registry (при CreateMissing или
// для очереди по умолчанию). Вставка идёт через Registry.GetOrCreate.
type Expander struct {
	Queues        *queues.Registry
	CreateMissing bool

	// Очередь по умолчанию и параметры для её создания.
	DefaultQueue        string
	DefaultExchange     string
	DefaultExchangeType string
	DefaultRoutingKey   string

	Logger *slog.Logger
}

// Expand строит опции доставки из маршрута spec и опций вызова opts.
//
// Опции вызова побеждают опции маршрута; nil-значения отбрасываются.
// Очередь выбирается так: queue из вызова, queue из маршрута, очередь
// по паре exchange + routing_key, очередь по умолчанию. Для названной
// очереди exchange/exchange_type/routing_key всегда берутся из неё;
// для очереди по умолчанию заполняются только отсутствующие ключи.
func (e *Expander) Expand(spec Spec, opts Options) (Options, error) {
	result := merge(spec.opts, opts)

	var (
		q   *queues.Queue
		err error
	)

	switch ref := result[KeyQueue].(type) {
	case *queues.Queue:
		q, err = e.resolveQueue(ref)
	case string:
		if ref != "" {
			q, err = e.resolveName(ref, result)
		}
	}
	if err != nil {
		return nil, err
	}

	if q == nil {
		exchange, routingKey := result.String(KeyExchange), result.String(KeyRoutingKey)
		if exchange != "" && routingKey != "" {
			q, _ = e.Queues.LookupByRoutingKey(exchange, routingKey)
		}
	}

	if q != nil {
		result[KeyQueue] = q
		setDestination(result, q, true)
		return result, nil
	}

	// Очередь не названа: очередь по умолчанию под опциями вызова.
	q, err = e.defaultQueue()
	if err != nil {
		return nil, err
	}
	result[KeyQueue] = q
	setDestination(result, q, false)

	return result, nil
}

// setDestination записывает exchange, exchange_type и routing_key очереди.
// При override == false существующие значения сохраняются.
func setDestination(opts Options, q *queues.Queue, override bool) {
	set := func(key, value string) {
		if override || opts.String(key) == "" {
			opts[key] = value
		}
	}
	set(KeyExchange, q.Exchange.Name)
	set(KeyExchangeType, q.Exchange.Type)
	set(KeyRoutingKey, q.RoutingKey)
}

// resolveName ищет очередь по имени и создаёт её, если это разрешено.
func (e *Expander) resolveName(name string, hints Options) (*queues.Queue, error) {
	if q, ok := e.Queues.Lookup(name); ok {
		return q, nil
	}

	if name == e.DefaultQueue {
		return e.defaultQueue()
	}

	if !e.CreateMissing {
		telemetry.QueueNotFound.Inc()
		return nil, queues.NotFound(name)
	}

	return e.create(name, func(name string) *queues.Queue {
		return e.synthesize(name, hints)
	})
}

// resolveQueue принимает уже готовое описание очереди из опций.
// Зарегистрированная очередь с тем же именем имеет приоритет.
func (e *Expander) resolveQueue(q *queues.Queue) (*queues.Queue, error) {
	if q == nil {
		return nil, nil
	}
	if registered, ok := e.Queues.Lookup(q.Name); ok {
		return registered, nil
	}
	if !e.CreateMissing {
		return q, nil
	}
	return e.create(q.Name, func(string) *queues.Queue { return q })
}

// defaultExchange возвращает имя обменника очереди по умолчанию.
func (e *Expander) defaultExchange() string {
	if e.DefaultExchange != "" {
		return e.DefaultExchange
	}
	return e.DefaultQueue
}

// defaultQueue возвращает очередь по умолчанию, создавая её при необходимости.
func (e *Expander) defaultQueue() (*queues.Queue, error) {
	return e.create(e.DefaultQueue, func(name string) *queues.Queue {
		q := queues.New(name)
		if e.DefaultExchange != "" {
			q.Exchange.Name = e.DefaultExchange
		}
		if e.DefaultExchangeType != "" {
			q.Exchange.Type = e.DefaultExchangeType
		}
		if e.DefaultRoutingKey != "" {
			q.RoutingKey = e.DefaultRoutingKey
		}
		return q
	})
}

// synthesize строит очередь с exchange и routing key, равными имени.
// Явные exchange, exchange_type, routing_key из опций имеют приоритет.
func (e *Expander) synthesize(name string, hints Options) *queues.Queue {
	q := queues.New(name)
	if e.DefaultExchangeType != "" {
		q.Exchange.Type = e.DefaultExchangeType
	}
	if v := hints.String(KeyExchange); v != "" {
		q.Exchange.Name = v
	}
	if v := hints.String(KeyExchangeType); v != "" {
		q.Exchange.Type = v
	}
	if v := hints.String(KeyRoutingKey); v != "" {
		q.RoutingKey = v
	}
	return q
}

func (e *Expander) create(name string, build func(string) *queues.Queue) (*queues.Queue, error) {
	q, created, err := e.Queues.GetOrCreate(name, build)
	if err != nil {
		return nil, err
	}
	if created {
		telemetry.QueuesCreated.Inc()
		e.logger().Info("queue created on demand",
			"queue", q.Name,
			"exchange", q.Exchange.Name,
			"exchange_type", q.Exchange.Type,
			"routing_key", q.RoutingKey,
		)
	}
	return q, nil
}

func (e *Expander) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
