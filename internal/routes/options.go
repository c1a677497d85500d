package routes

import (
	"github.com/shaiso/taskroute/internal/queues"
)

// Ключи опций доставки, которые разбирает маршрутизатор.
// Остальные ключи (immediate, mandatory, priority, ...) передаются как есть.
const (
	KeyQueue        = "queue"
	KeyExchange     = "exchange"
	KeyExchangeType = "exchange_type"
	KeyRoutingKey   = "routing_key"
)

// Options — опции доставки задачи.
//
// На входе queue может быть именем очереди или *queues.Queue.
// После Router.Route в queue всегда лежит *queues.Queue.
type Options map[string]any

// Clone возвращает поверхностную копию опций.
func (o Options) Clone() Options {
	if o == nil {
		return Options{}
	}
	c := make(Options, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// Queue возвращает разрешённую очередь или nil.
func (o Options) Queue() *queues.Queue {
	q, _ := o[KeyQueue].(*queues.Queue)
	return q
}

// QueueName возвращает имя очереди: из строки или из *queues.Queue.
func (o Options) QueueName() string {
	switch v := o[KeyQueue].(type) {
	case string:
		return v
	case *queues.Queue:
		if v != nil {
			return v.Name
		}
	}
	return ""
}

// String возвращает строковое значение ключа или "".
func (o Options) String(key string) string {
	switch v := o[key].(type) {
	case string:
		return v
	case queues.Exchange:
		return v.Name
	case *queues.Exchange:
		if v != nil {
			return v.Name
		}
	}
	return ""
}

// Bool возвращает булево значение ключа.
func (o Options) Bool(key string) bool {
	b, _ := o[key].(bool)
	return b
}

// merge накладывает over на base: значения over побеждают,
// но пустые значения (nil и queue == "") не затирают и не добавляются.
func merge(base, over Options) Options {
	out := make(Options, len(base)+len(over))
	for k, v := range base {
		if !blank(k, v) {
			out[k] = v
		}
	}
	for k, v := range over {
		if !blank(k, v) {
			out[k] = v
		}
	}
	return out
}

func blank(key string, v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == "" && key == KeyQueue
}
