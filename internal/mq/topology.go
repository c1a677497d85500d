package mq

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shaiso/taskroute/internal/queues"
)

// DeclareQueue объявляет обменник очереди, саму очередь и привязку.
func DeclareQueue(ch Channel, q *queues.Queue) error {
	// 1. Обменник. Пустое имя — default exchange брокера, его не объявляют.
	if q.Exchange.Name != "" {
		err := ch.ExchangeDeclare(
			q.Exchange.Name,       // name
			exchangeType(q),       // type
			q.Exchange.Durable,    // durable
			q.Exchange.AutoDelete, // auto-deleted
			false,                 // internal
			false,                 // no-wait
			q.Exchange.Arguments,  // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", q.Exchange.Name, err)
		}
	}

	// 2. Очередь
	_, err := ch.QueueDeclare(
		q.Name,       // name
		q.Durable,    // durable
		q.AutoDelete, // delete when unused
		false,        // exclusive
		false,        // no-wait
		q.Arguments,  // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", q.Name, err)
	}

	// 3. Привязка
	if q.Exchange.Name != "" {
		err := ch.QueueBind(
			q.Name,             // queue name
			q.RoutingKey,       // routing key
			q.Exchange.Name,    // exchange
			false,              // no-wait
			q.BindingArguments, // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", q.Name, q.Exchange.Name, err)
		}
	}

	return nil
}

func exchangeType(q *queues.Queue) string {
	if q.Exchange.Type == "" {
		return queues.ExchangeDirect
	}
	return q.Exchange.Type
}

// Declarer объявляет очереди в брокере не более одного раза на процесс.
//
// После переподключения набор объявленных очередей нужно сбросить
// через Reset: брокер мог потерять нестойкие очереди.
type Declarer struct {
	provider ChannelProvider

	mu       sync.Mutex
	declared map[string]struct{}
}

// NewDeclarer создаёт Declarer.
func NewDeclarer(provider ChannelProvider) *Declarer {
	return &Declarer{
		provider: provider,
		declared: make(map[string]struct{}),
	}
}

// Ensure объявляет очередь, если она ещё не объявлялась.
func (d *Declarer) Ensure(ctx context.Context, q *queues.Queue) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.declared[q.Name]; ok {
		return nil
	}

	err := d.provider.WithChannel(ctx, func(ch Channel) error {
		return DeclareQueue(ch, q)
	})
	if err != nil {
		return err
	}

	d.declared[q.Name] = struct{}{}
	return nil
}

// Declared сообщает, объявлялась ли очередь.
func (d *Declarer) Declared(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.declared[name]
	return ok
}

// Reset забывает объявленные очереди.
func (d *Declarer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.declared = make(map[string]struct{})
}

// SetupTopology объявляет все очереди реестра.
func SetupTopology(ctx context.Context, d *Declarer, reg *queues.Registry) error {
	for _, q := range reg.All() {
		if err := d.Ensure(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
//
//	fooexchange (fanout)
//	└── foo [routing: xuzzy]
func TopologyInfo(reg *queues.Registry) string {
	type group struct {
		kind   string
		queues []*queues.Queue
	}

	var order []string
	groups := make(map[string]*group)
	for _, q := range reg.All() {
		name := q.Exchange.Name
		if name == "" {
			name = "(default)"
		}
		g, ok := groups[name]
		if !ok {
			g = &group{kind: exchangeType(q)}
			groups[name] = g
			order = append(order, name)
		}
		g.queues = append(g.queues, q)
	}

	var b strings.Builder
	for _, name := range order {
		g := groups[name]
		fmt.Fprintf(&b, "%s (%s)\n", name, g.kind)
		for i, q := range g.queues {
			branch := "├──"
			if i == len(g.queues)-1 {
				branch = "└──"
			}
			fmt.Fprintf(&b, "%s %s [routing: %s]\n", branch, q.Name, q.RoutingKey)
		}
	}
	return b.String()
}
