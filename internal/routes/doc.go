// Package routes выбирает очередь доставки для каждого вызова задачи.
//
// # Обзор
//
// Продюсер передаёт имя задачи, аргументы и опции вызова; Router
// возвращает опции доставки, в которых queue — описание очереди
// (*queues.Queue), а exchange/routing_key взяты из неё.
//
// Источники решения, по убыванию приоритета:
//   - опции вызова (queue, exchange, routing_key, immediate, ...);
//   - первое совпавшее правило из упорядоченного списка;
//   - очередь по умолчанию.
//
// # Правила
//
// Список правил строится через Prepare:
//
//	rules := routes.Prepare([]any{
//	    map[string]any{"tasks.add": "math"},
//	    map[string]any{"tasks.send": map[string]any{"queue": "mail", "priority": 5}},
//	    "billing.router",                 // символ, разрешается через Resolver
//	    routes.RuleFunc(func(c *routes.Call) (routes.Spec, bool, error) { ... }),
//	})
//
// Mapping превращается в MapRoute (точное совпадение имени задачи),
// остальное откладывается и разрешается при первом использовании.
//
// # Очереди
//
// Необъявленная очередь даёт QueueNotFoundError, если не включён
// CreateMissing. Очередь по умолчанию создаётся всегда.
//
// # Файлы пакета
//
//   - options.go  — Options и ключи опций доставки
//   - spec.go     — Spec (описание маршрута) и ParseSpec
//   - rule.go     — интерфейс Rule, Call, AsRule
//   - maproute.go — MapRoute
//   - prepare.go  — Handle и Prepare
//   - symbols.go  — Resolver и реестр Symbols
//   - expand.go   — Expander
//   - router.go   — Router
package routes
