// Package mq передаёт решения маршрутизатора в RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, queue и binding для queues.Queue
//   - publisher.go  — публикация TaskMessage по опциям доставки
//   - producer.go   — Router + объявление очереди + публикация
//
// Опции доставки, которые переносятся в amqp.Publishing:
//   - exchange, routing_key — адрес публикации
//   - mandatory, immediate  — флаги basic.publish
//   - priority, expiration, delivery_mode, headers
package mq
