// Package telemetry обеспечивает наблюдаемость маршрутизатора.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики решений маршрутизации
//
// CLI пишет логи в stderr, чтобы stdout оставался для результата.
// Метрики экспортируются на /metrics в режиме taskroute serve.
package telemetry
