package mq

import "errors"

// Ошибки транспорта.
var (
	// ErrNoChannel — соединение есть, но канал не открыт.
	ErrNoChannel = errors.New("no channel available")

	// ErrNoQueue — в опциях доставки нет разрешённой очереди.
	ErrNoQueue = errors.New("destination has no resolved queue")
)
