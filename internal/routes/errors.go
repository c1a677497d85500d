package routes

import "errors"

// Ошибки маршрутизации.
var (
	// ErrInvalidRouteSpec — описание маршрута не строка, не mapping и не nil.
	ErrInvalidRouteSpec = errors.New("invalid route spec")

	// ErrInvalidRule — значение нельзя использовать как правило маршрутизации.
	ErrInvalidRule = errors.New("invalid routing rule")

	// ErrUnresolvedRule — символьная ссылка на правило не разрешается.
	ErrUnresolvedRule = errors.New("unresolved routing rule")

	// ErrMissingTaskName — не передано ни имя задачи, ни сама задача.
	ErrMissingTaskName = errors.New("task name is required")
)
