package config

import "errors"

// Ошибки конфигурации.
var (
	// ErrParseEnv — переменные окружения не разобраны.
	ErrParseEnv = errors.New("parse environment")

	// ErrReadFile — файл маршрутизации не прочитан.
	ErrReadFile = errors.New("read routing file")

	// ErrParseFile — файл маршрутизации не разобран.
	ErrParseFile = errors.New("parse routing file")

	// ErrInvalidConfig — конфигурация разобрана, но противоречива.
	ErrInvalidConfig = errors.New("invalid routing config")
)
