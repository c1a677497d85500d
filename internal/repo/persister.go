package repo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/taskroute/internal/queues"
)

const (
	// DefaultPersistBuffer — размер очереди на сохранение по умолчанию.
	DefaultPersistBuffer = 256

	persistTimeout = 5 * time.Second
)

// QueueSaver сохраняет описание очереди. Реализуется *QueueRepo.
type QueueSaver interface {
	Save(ctx context.Context, q *queues.Queue) error
}

// Persister сохраняет очереди, созданные на лету, в фоновой горутине.
//
// Hook подключается к queues.Registry.OnCreate и никогда не ждёт БД:
// очередь кладётся в буфер, при переполнении отбрасывается с предупреждением.
// Буфер разбирает Run.
type Persister struct {
	store  QueueSaver
	logger *slog.Logger
	queue  chan *queues.Queue

	mu     sync.RWMutex
	closed bool
}

// NewPersister создаёт Persister с буфером на buffer очередей.
func NewPersister(store QueueSaver, buffer int, logger *slog.Logger) *Persister {
	if buffer <= 0 {
		buffer = DefaultPersistBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		store:  store,
		logger: logger,
		queue:  make(chan *queues.Queue, buffer),
	}
}

// Hook ставит очередь в буфер на сохранение.
func (p *Persister) Hook(q *queues.Queue) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("persister closed, queue not persisted", "queue", q.Name)
		return
	}

	select {
	case p.queue <- q:
	default:
		p.logger.Warn("persist buffer full, queue not persisted", "queue", q.Name)
	}
}

// Run сохраняет очереди из буфера до вызова Close.
// После Close дочитывает оставшиеся очереди и возвращает nil.
func (p *Persister) Run(ctx context.Context) error {
	for q := range p.queue {
		p.save(ctx, q)
	}
	return nil
}

// Close прекращает приём очередей. Повторный вызов безопасен.
func (p *Persister) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.queue)
	}
}

func (p *Persister) save(ctx context.Context, q *queues.Queue) {
	saveCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	if err := p.store.Save(saveCtx, q); err != nil {
		p.logger.Error("failed to persist queue", "queue", q.Name, "error", err)
		return
	}
	p.logger.Debug("queue persisted", "queue", q.Name)
}
