package queues

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — реестр объявленных очередей приложения.
//
// Создаётся при конфигурировании приложения и передаётся в Router явно.
// Потокобезопасен: чтение под RLock, проверка-и-вставка (GetOrCreate)
// выполняется атомарно под одной блокировкой записи.
type Registry struct {
	mu     sync.RWMutex
	queues map[string]*Queue
	order  []string

	// onCreate вызывается после создания очереди через GetOrCreate.
	onCreate []func(*Queue)
}

// NewRegistry создаёт реестр с указанными очередями.
func NewRegistry(qs ...*Queue) *Registry {
	r := &Registry{
		queues: make(map[string]*Queue, len(qs)),
	}
	for _, q := range qs {
		r.Add(q)
	}
	return r
}

// Add регистрирует очередь.
// Если очередь с таким именем уже есть, она будет перезаписана.
func (r *Registry) Add(q *Queue) *Queue {
	if q == nil || q.Name == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.queues[q.Name]; !exists {
		r.order = append(r.order, q.Name)
	}
	r.queues[q.Name] = q
	return q
}

// Lookup возвращает очередь по имени.
func (r *Registry) Lookup(name string) (*Queue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.queues[name]
	return q, ok
}

// Get возвращает очередь по имени или QueueNotFoundError.
func (r *Registry) Get(name string) (*Queue, error) {
	q, ok := r.Lookup(name)
	if !ok {
		return nil, NotFound(name)
	}
	return q, nil
}

// LookupByRoutingKey ищет очередь по паре exchange + routing key.
// Пустой exchange совпадает с любым обменником.
// Очереди просматриваются в порядке регистрации.
func (r *Registry) LookupByRoutingKey(exchange, routingKey string) (*Queue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		q := r.queues[name]
		if q.RoutingKey != routingKey {
			continue
		}
		if exchange == "" || q.Exchange.Name == exchange {
			return q, true
		}
	}
	return nil, false
}

// GetOrCreate возвращает очередь name, создавая её через build, если её нет.
//
// Проверка и вставка выполняются под одной блокировкой, поэтому два
// конкурентных вызова для одного имени получат один и тот же *Queue.
// created == true только у вызова, который фактически добавил очередь.
func (r *Registry) GetOrCreate(name string, build func(name string) *Queue) (q *Queue, created bool, err error) {
	if name == "" {
		return nil, false, ErrEmptyQueueName
	}

	q, created, hooks, err := r.getOrCreate(name, build)
	if err != nil || !created {
		return q, false, err
	}

	// Хуки вызываются вне блокировки: они могут обращаться к реестру.
	for _, fn := range hooks {
		fn(q)
	}

	return q, true, nil
}

// getOrCreate выполняет проверку и вставку под блокировкой записи
// и возвращает хуки, которые нужно вызвать для новой очереди.
func (r *Registry) getOrCreate(name string, build func(name string) *Queue) (*Queue, bool, []func(*Queue), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.queues[name]; ok {
		return existing, false, nil, nil
	}

	q := build(name)
	if q == nil || q.Name != name {
		return nil, false, nil, fmt.Errorf("%w: build returned queue for %q", ErrInvalidDeclaration, name)
	}
	r.queues[name] = q
	r.order = append(r.order, name)
	return q, true, r.onCreate, nil
}

// OnCreate добавляет хук, вызываемый для каждой очереди,
// созданной через GetOrCreate.
func (r *Registry) OnCreate(fn func(*Queue)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCreate = append(r.onCreate, fn)
}

// Has проверяет, объявлена ли очередь.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names возвращает отсортированный список имён очередей.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.queues))
	for name := range r.queues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All возвращает очереди в порядке регистрации.
func (r *Registry) All() []*Queue {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Queue, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.queues[name])
	}
	return out
}

// Len возвращает количество очередей.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.queues)
}
