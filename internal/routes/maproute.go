package routes

import "fmt"

// Map — статическая таблица маршрутов: имя задачи -> описание маршрута.
type Map map[string]any

// MapRoute — статическое правило: точное совпадение имени задачи.
//
// Значение записи — имя очереди, частичные опции или nil.
// Шаблоны и wildcard не поддерживаются.
type MapRoute struct {
	routes map[string]any
}

// NewMapRoute создаёт MapRoute. Таблица копируется.
func NewMapRoute(m map[string]any) *MapRoute {
	routes := make(map[string]any, len(m))
	for k, v := range m {
		routes[k] = v
	}
	return &MapRoute{routes: routes}
}

// RouteForTask возвращает сырое описание маршрута задачи.
// ok == false, если задачи нет в таблице.
func (m *MapRoute) RouteForTask(taskName string) (any, bool) {
	v, ok := m.routes[taskName]
	return v, ok
}

// Match реализует Rule.
//
// Запись с nil-значением не считается совпадением: обход продолжается.
// Пустой mapping или пустая строка — совпадение с пустым маршрутом.
func (m *MapRoute) Match(call *Call) (Spec, bool, error) {
	v, ok := m.RouteForTask(call.TaskName)
	if !ok || v == nil {
		return Spec{}, false, nil
	}

	spec, err := ParseSpec(v)
	if err != nil {
		return Spec{}, false, fmt.Errorf("route for %q: %w", call.TaskName, err)
	}
	return spec, true, nil
}

// Len возвращает количество записей.
func (m *MapRoute) Len() int {
	return len(m.routes)
}

// Tasks возвращает имена задач таблицы.
func (m *MapRoute) Tasks() []string {
	out := make([]string, 0, len(m.routes))
	for k := range m.routes {
		out = append(out, k)
	}
	return out
}

func stringMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
