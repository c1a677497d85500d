// Package queues описывает очереди доставки и их реестр.
//
// Структура:
//   - queue.go       — Queue и Exchange (описание очереди и обменника)
//   - registry.go    — Registry: потокобезопасный реестр очередей
//   - declaration.go — разбор описаний очередей из конфигурации
//   - errors.go      — ErrQueueNotFound и QueueNotFoundError
//
// Registry не объявляет очереди в брокере. Этим занимается пакет mq,
// когда очередь впервые используется для публикации.
package queues
