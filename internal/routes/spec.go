package routes

import (
	"fmt"

	"github.com/shaiso/taskroute/internal/queues"
)

// Spec — описание маршрута (RouteSpec).
//
// Три формы:
//   - пустое значение — маршрут не задан;
//   - имя очереди (QueueSpec);
//   - частичные опции доставки (OptionsSpec), любое подмножество
//     queue, exchange, exchange_type, routing_key и прочих ключей.
//
// Имя очереди хранится как {queue: name}. Spec не изменяется после создания.
type Spec struct {
	opts Options
}

// QueueSpec создаёт маршрут в очередь name.
func QueueSpec(name string) Spec {
	if name == "" {
		return Spec{}
	}
	return Spec{opts: Options{KeyQueue: name}}
}

// OptionsSpec создаёт маршрут из частичных опций.
// Ключи с nil-значением и пустой queue отбрасываются.
func OptionsSpec(opts Options) Spec {
	clean := merge(nil, opts)
	if len(clean) == 0 {
		return Spec{}
	}
	return Spec{opts: clean}
}

// IsEmpty сообщает, что маршрут ничего не задаёт.
func (s Spec) IsEmpty() bool {
	return len(s.opts) == 0
}

// Queue возвращает имя очереди маршрута или "".
func (s Spec) Queue() string {
	return s.opts.QueueName()
}

// Options возвращает копию опций маршрута.
func (s Spec) Options() Options {
	return s.opts.Clone()
}

// String реализует fmt.Stringer.
func (s Spec) String() string {
	if s.IsEmpty() {
		return "<empty>"
	}
	if len(s.opts) == 1 && s.Queue() != "" {
		return s.Queue()
	}
	return fmt.Sprint(map[string]any(s.opts))
}

// ParseSpec превращает значение из конфигурации в Spec.
//
// Допустимы nil, строка, Spec, *queues.Queue и mapping
// (Options, map[string]any, map[string]string). Ключ queue внутри
// mapping должен быть строкой или *queues.Queue.
func ParseSpec(v any) (Spec, error) {
	switch val := v.(type) {
	case nil:
		return Spec{}, nil
	case Spec:
		return val, nil
	case *Spec:
		if val == nil {
			return Spec{}, nil
		}
		return *val, nil
	case string:
		return QueueSpec(val), nil
	case *queues.Queue:
		if val == nil {
			return Spec{}, nil
		}
		return Spec{opts: Options{KeyQueue: val}}, nil
	case Options:
		return parseMapping(val)
	case map[string]any:
		return parseMapping(Options(val))
	case map[string]string:
		opts := make(Options, len(val))
		for k, s := range val {
			opts[k] = s
		}
		return parseMapping(opts)
	default:
		return Spec{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidRouteSpec, v)
	}
}

func parseMapping(opts Options) (Spec, error) {
	switch q := opts[KeyQueue].(type) {
	case nil, string, *queues.Queue:
	default:
		return Spec{}, fmt.Errorf("%w: queue has unsupported type %T", ErrInvalidRouteSpec, q)
	}
	return OptionsSpec(opts), nil
}
