package routes

import "fmt"

// Handle — элемент подготовленного списка правил.
//
// Либо статическая таблица (MapRoute), либо отложенная ссылка:
// имя символа или объект, который превратится в Rule при первом
// использовании внутри Router.
type Handle struct {
	static *MapRoute
	ref    any
}

// Static создаёт handle для статической таблицы.
func Static(m *MapRoute) Handle {
	return Handle{static: m}
}

// Deferred создаёт handle для отложенной ссылки.
func Deferred(ref any) Handle {
	return Handle{ref: ref}
}

// IsStatic сообщает, что handle — статическая таблица.
func (h Handle) IsStatic() bool {
	return h.static != nil
}

// MapRoute возвращает статическую таблицу или nil.
func (h Handle) MapRoute() *MapRoute {
	return h.static
}

// Ref возвращает отложенную ссылку.
func (h Handle) Ref() any {
	return h.ref
}

// String реализует fmt.Stringer.
func (h Handle) String() string {
	if h.static != nil {
		return fmt.Sprintf("map(%d)", h.static.Len())
	}
	if s, ok := h.ref.(string); ok {
		return "symbol(" + s + ")"
	}
	return fmt.Sprintf("deferred(%T)", h.ref)
}

// Prepare нормализует значение конфигурации в упорядоченный список правил.
//
//   - nil -> пустой список;
//   - mapping -> [MapRoute(mapping)];
//   - последовательность -> по handle на элемент, порядок сохраняется:
//     mapping оборачивается в MapRoute, остальное откладывается;
//   - любое другое значение -> [Deferred(value)].
//
// Prepare не разрешает символы и не выполняет IO.
func Prepare(value any) []Handle {
	switch v := value.(type) {
	case nil:
		return []Handle{}
	case Handle:
		return []Handle{v}
	case []Handle:
		out := make([]Handle, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]Handle, 0, len(v))
		for _, item := range v {
			out = append(out, prepareItem(item))
		}
		return out
	case []map[string]any:
		out := make([]Handle, 0, len(v))
		for _, item := range v {
			out = append(out, Static(NewMapRoute(item)))
		}
		return out
	case []Map:
		out := make([]Handle, 0, len(v))
		for _, item := range v {
			out = append(out, Static(NewMapRoute(item)))
		}
		return out
	case []Rule:
		out := make([]Handle, 0, len(v))
		for _, item := range v {
			out = append(out, prepareItem(item))
		}
		return out
	case []string:
		out := make([]Handle, 0, len(v))
		for _, item := range v {
			out = append(out, Deferred(item))
		}
		return out
	default:
		if m, ok := asMapping(value); ok {
			return []Handle{Static(NewMapRoute(m))}
		}
		return []Handle{Deferred(value)}
	}
}

func prepareItem(item any) Handle {
	if h, ok := item.(Handle); ok {
		return h
	}
	if m, ok := asMapping(item); ok {
		return Static(NewMapRoute(m))
	}
	return Deferred(item)
}

func asMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Map:
		return m, true
	case map[string]string:
		return stringMap(m), true
	}
	return nil, false
}
