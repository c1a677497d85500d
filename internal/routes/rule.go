package routes

import "fmt"

// Task — описание задачи. Router берёт из него только имя,
// если оно не передано явно.
type Task interface {
	Name() string
}

// Call — вызов задачи, для которого ищется маршрут.
type Call struct {
	TaskName string
	Args     []any
	Kwargs   map[string]any
	Options  Options
	Task     Task
}

// Rule — всё, что умеет отвечать на запрос маршрутизации.
//
// matched == false означает «правило не знает задачу», и Router
// переходит к следующему правилу. matched == true останавливает обход,
// даже если spec пустой.
type Rule interface {
	Match(call *Call) (spec Spec, matched bool, err error)
}

// RuleFunc позволяет использовать функцию как Rule.
type RuleFunc func(call *Call) (Spec, bool, error)

// Match реализует Rule.
func (f RuleFunc) Match(call *Call) (Spec, bool, error) {
	return f(call)
}

// RouteForTasker — правило в стиле mapping: отвечает только по имени задачи.
// Значение разбирается через ParseSpec; nil или !ok — нет совпадения.
type RouteForTasker interface {
	RouteForTask(taskName string) (any, bool)
}

type routeForTaskRule struct {
	r RouteForTasker
}

func (a routeForTaskRule) Match(call *Call) (Spec, bool, error) {
	v, ok := a.r.RouteForTask(call.TaskName)
	if !ok || v == nil {
		return Spec{}, false, nil
	}
	spec, err := ParseSpec(v)
	if err != nil {
		return Spec{}, false, fmt.Errorf("route for %q: %w", call.TaskName, err)
	}
	return spec, true, nil
}

// AsRule приводит разрешённое значение к Rule.
//
// Поддерживаются Rule, RuleFunc (и функция с той же сигнатурой),
// RouteForTasker и mapping (оборачивается в MapRoute).
func AsRule(v any) (Rule, error) {
	switch r := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrInvalidRule)
	case Rule:
		return r, nil
	case func(*Call) (Spec, bool, error):
		return RuleFunc(r), nil
	case RouteForTasker:
		return routeForTaskRule{r: r}, nil
	case map[string]any:
		return NewMapRoute(r), nil
	case Map:
		return NewMapRoute(r), nil
	case map[string]string:
		return NewMapRoute(stringMap(r)), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidRule, v)
	}
}
