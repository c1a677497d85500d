package routes

import (
	"fmt"
	"sort"
	"sync"
)

// Resolver разрешает символьное имя правила в значение.
type Resolver interface {
	Resolve(ref string) (any, error)
}

// Factory создаёт значение правила. Вызывается при разрешении символа.
type Factory func() (any, error)

// Symbols — реестр именованных правил для отложенных ссылок.
//
// В конфигурации правило можно указать строкой ("billing.router"),
// а реализацию зарегистрировать в коде. Потокобезопасен.
type Symbols struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewSymbols создаёт пустой реестр.
func NewSymbols() *Symbols {
	return &Symbols{
		factories: make(map[string]Factory),
	}
}

// Register регистрирует фабрику под именем name.
// Если имя уже занято, фабрика будет перезаписана.
func (s *Symbols) Register(name string, factory Factory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[name] = factory
}

// RegisterValue регистрирует готовое значение.
func (s *Symbols) RegisterValue(name string, v any) {
	s.Register(name, func() (any, error) { return v, nil })
}

// Resolve реализует Resolver.
// Возвращает ErrUnresolvedRule, если имя не зарегистрировано.
func (s *Symbols) Resolve(ref string) (any, error) {
	s.mu.RLock()
	factory, ok := s.factories[ref]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedRule, ref)
	}

	v, err := factory()
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}
	return v, nil
}

// Has проверяет, зарегистрировано ли имя.
func (s *Symbols) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.factories[name]
	return ok
}

// Names возвращает отсортированный список имён.
func (s *Symbols) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.factories))
	for name := range s.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
