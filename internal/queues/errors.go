package queues

import "errors"

// Ошибки реестра очередей.
var (
	// ErrQueueNotFound — очередь не объявлена, а автосоздание выключено.
	ErrQueueNotFound = errors.New("queue not found")

	// ErrEmptyQueueName — у очереди нет имени.
	ErrEmptyQueueName = errors.New("queue has empty name")

	// ErrInvalidDeclaration — описание очереди не удалось разобрать.
	ErrInvalidDeclaration = errors.New("invalid queue declaration")
)

// QueueNotFoundError — ошибка с именем отсутствующей очереди.
type QueueNotFoundError struct {
	Name string
}

// Error реализует интерфейс error.
func (e *QueueNotFoundError) Error() string {
	return "queue " + quote(e.Name) + " missing from declared queues"
}

// Unwrap возвращает ErrQueueNotFound.
func (e *QueueNotFoundError) Unwrap() error {
	return ErrQueueNotFound
}

// NotFound создаёт QueueNotFoundError для очереди name.
func NotFound(name string) error {
	return &QueueNotFoundError{Name: name}
}

func quote(s string) string {
	return "'" + s + "'"
}
