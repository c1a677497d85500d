// Package cli реализует команды taskroute.
//
// # Обзор
//
// Команды работают через Backend одним из двух способов:
//   - Local — Router собирается в процессе из файла маршрутизации;
//   - Client — HTTP-клиент к taskroute serve (флаг --api-url).
//
// Client не импортирует internal/api: типы ответов продублированы.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: taskroute route tasks.add --json | jq .
//
// ## Commands
//
//   - route TASK      — решение маршрутизатора для вызова
//   - expand DEST     — разворачивание имени очереди или JSON-опций
//   - send TASK       — маршрутизация и публикация в RabbitMQ
//   - queues list|show — очереди реестра
//
// Фабрики команд (NewRouteCmd и т.д.) принимают backendFn и outputFn —
// замыкания для ленивого создания Backend и Output после парсинга флагов.
package cli
