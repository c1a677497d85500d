// Package api содержит HTTP API маршрутизатора.
//
// Структура:
//   - handler.go       — Handler с DI (router, producer, logger)
//   - routes.go        — регистрация маршрутов
//   - middleware.go    — middleware (logging, recovery)
//   - response.go      — унифицированные JSON-ответы и обработка ошибок
//   - dto.go           — Data Transfer Objects (request/response)
//   - route_handler.go — обработчики /route, /expand, /send
//   - queue_handler.go — обработчики /queues
//
// Ошибки маршрутизации отображаются так:
//   - очередь не найдена — 404 QUEUE_NOT_FOUND
//   - нет имени задачи или маршрут не разобран — 400 BAD_REQUEST
//   - остальное — 500 INTERNAL_ERROR
package api
