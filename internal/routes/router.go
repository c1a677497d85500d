package routes

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shaiso/taskroute/internal/queues"
	"github.com/shaiso/taskroute/internal/telemetry"
)

// Значения по умолчанию.
const (
	DefaultQueueName    = "default"
	DefaultExchangeType = queues.ExchangeDirect
)

// Router выбирает очередь доставки для вызова задачи.
//
// Алгоритм Route:
//  1. Обходит правила в порядке конфигурации; первое совпадение побеждает.
//  2. Если ни одно правило не совпало, берётся очередь по умолчанию.
//  3. Результат разворачивается через Expander.
//
// Router безопасен для конкурентного использования. Отложенные правила
// разрешаются не более одного раза на Router.
type Router struct {
	slots    []*slot
	resolver Resolver
	expander *Expander
	queues   *queues.Registry

	acceptExplicitQueue bool
	logger              *slog.Logger
}

// Config — конфигурация Router.
type Config struct {
	// Rules — подготовленный список правил (см. Prepare).
	Rules []Handle

	// Queues — реестр очередей. nil — пустой реестр.
	Queues *queues.Registry

	// DefaultQueue — очередь, если ни одно правило не совпало.
	// По умолчанию DefaultQueueName.
	DefaultQueue string

	// Параметры очереди по умолчанию, если её нет в реестре.
	DefaultExchange     string
	DefaultExchangeType string
	DefaultRoutingKey   string

	// CreateMissing — создавать необъявленные очереди вместо QueueNotFound.
	CreateMissing bool

	// AcceptExplicitQueue — если в опциях вызова уже указана очередь,
	// правила не обходятся.
	AcceptExplicitQueue bool

	// Resolver разрешает строковые ссылки на правила.
	Resolver Resolver

	Logger *slog.Logger
}

// New создаёт Router.
func New(cfg Config) *Router {
	reg := cfg.Queues
	if reg == nil {
		reg = queues.NewRegistry()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defaultQueue := cfg.DefaultQueue
	if defaultQueue == "" {
		defaultQueue = DefaultQueueName
	}

	exchangeType := cfg.DefaultExchangeType
	if exchangeType == "" {
		exchangeType = DefaultExchangeType
	}

	slots := make([]*slot, len(cfg.Rules))
	for i, h := range cfg.Rules {
		slots[i] = newSlot(h)
	}

	return &Router{
		slots:    slots,
		resolver: cfg.Resolver,
		queues:   reg,
		expander: &Expander{
			Queues:              reg,
			CreateMissing:       cfg.CreateMissing,
			DefaultQueue:        defaultQueue,
			DefaultExchange:     cfg.DefaultExchange,
			DefaultExchangeType: exchangeType,
			DefaultRoutingKey:   cfg.DefaultRoutingKey,
			Logger:              logger,
		},
		acceptExplicitQueue: cfg.AcceptExplicitQueue,
		logger:              logger,
	}
}

// Decision — результат маршрутизации с пояснением.
type Decision struct {
	// Options — развёрнутые опции доставки; Options.Queue() не nil.
	Options Options

	// Source — что выбрало очередь: rule, options или default.
	Source string

	// Rule — индекс совпавшего правила или -1.
	Rule int
}

// Route выбирает маршрут для задачи taskName.
// Если taskName пустой, имя берётся из task.
func (r *Router) Route(opts Options, taskName string, args []any, kwargs map[string]any, task Task) (Options, error) {
	d, err := r.RouteCall(&Call{
		TaskName: taskName,
		Args:     args,
		Kwargs:   kwargs,
		Options:  opts,
		Task:     task,
	})
	if err != nil {
		return nil, err
	}
	return d.Options, nil
}

// RouteCall выполняет маршрутизацию и возвращает Decision.
func (r *Router) RouteCall(call *Call) (*Decision, error) {
	c := *call
	if c.TaskName == "" && c.Task != nil {
		c.TaskName = c.Task.Name()
	}
	if c.TaskName == "" {
		return nil, ErrMissingTaskName
	}
	c.Options = call.Options.Clone()

	explicit := c.Options.QueueName() != ""

	spec, index := Spec{}, -1
	if !(r.acceptExplicitQueue && explicit) {
		var err error
		spec, index, err = r.lookup(&c)
		if err != nil {
			return nil, err
		}
	}

	source := telemetry.SourceRule
	switch {
	case explicit:
		source = telemetry.SourceOptions
	case index < 0 || spec.IsEmpty():
		source = telemetry.SourceDefault
	}

	// Пустой маршрут Expander разворачивает в очередь по умолчанию.
	opts, err := r.expander.Expand(spec, call.Options)
	if err != nil {
		return nil, fmt.Errorf("route task %s: %w", c.TaskName, err)
	}

	telemetry.RoutesResolved.WithLabelValues(source).Inc()
	r.logger.Debug("task routed",
		"task", c.TaskName,
		"queue", opts.QueueName(),
		"source", source,
		"rule", index,
	)

	return &Decision{Options: opts, Source: source, Rule: index}, nil
}

// LookupRoute обходит правила и возвращает первый совпавший маршрут.
// matched == false, если ни одно правило не знает задачу.
func (r *Router) LookupRoute(call *Call) (Spec, bool, error) {
	spec, index, err := r.lookup(call)
	return spec, index >= 0, err
}

func (r *Router) lookup(call *Call) (Spec, int, error) {
	for i, s := range r.slots {
		rule, err := s.rule(r.resolver)
		if err != nil {
			return Spec{}, -1, fmt.Errorf("rule %d (%s): %w", i, s.handle, err)
		}

		spec, matched, err := rule.Match(call)
		if err != nil {
			return Spec{}, -1, fmt.Errorf("rule %d (%s): %w", i, s.handle, err)
		}
		if matched {
			return spec, i, nil
		}
	}
	return Spec{}, -1, nil
}

// ExpandDestination разворачивает готовое назначение (имя очереди,
// mapping или Spec) без обхода правил.
//
// Строка, не совпавшая с именем очереди, ищется как routing key
// на обменнике по умолчанию.
func (r *Router) ExpandDestination(dest any) (Options, error) {
	if name, ok := dest.(string); ok && name != "" && !r.queues.Has(name) {
		if q, ok := r.queues.LookupByRoutingKey(r.expander.defaultExchange(), name); ok {
			dest = q
		}
	}

	spec, err := ParseSpec(dest)
	if err != nil {
		return nil, err
	}
	return r.expander.Expand(spec, nil)
}

// Queues возвращает реестр очередей.
func (r *Router) Queues() *queues.Registry {
	return r.queues
}

// Rules возвращает список правил.
func (r *Router) Rules() []Handle {
	out := make([]Handle, len(r.slots))
	for i, s := range r.slots {
		out[i] = s.handle
	}
	return out
}

// DefaultQueue возвращает имя очереди по умолчанию.
func (r *Router) DefaultQueue() string {
	return r.expander.DefaultQueue
}

// slot — правило внутри Router: Unresolved -> Resolved ровно один раз.
type slot struct {
	handle Handle

	mu       sync.Mutex
	resolved atomic.Pointer[resolvedRule]
}

type resolvedRule struct {
	Rule
}

func newSlot(h Handle) *slot {
	s := &slot{handle: h}
	if h.static != nil {
		s.resolved.Store(&resolvedRule{Rule: h.static})
	}
	return s
}

// rule возвращает живое правило, разрешая ссылку при первом вызове.
// Ошибка разрешения не кэшируется.
func (s *slot) rule(resolver Resolver) (Rule, error) {
	if r := s.resolved.Load(); r != nil {
		return r.Rule, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r := s.resolved.Load(); r != nil {
		return r.Rule, nil
	}

	rule, err := resolve(s.handle.ref, resolver)
	if err != nil {
		return nil, err
	}
	s.resolved.Store(&resolvedRule{Rule: rule})
	return rule, nil
}

func resolve(ref any, resolver Resolver) (Rule, error) {
	name, ok := ref.(string)
	if !ok {
		return AsRule(ref)
	}

	if resolver == nil {
		return nil, fmt.Errorf("%w: %s (no resolver configured)", ErrUnresolvedRule, name)
	}

	v, err := resolver.Resolve(name)
	if err != nil {
		return nil, err
	}
	return AsRule(v)
}
