package queues

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Типы обменников AMQP.
const (
	ExchangeDirect  = "direct"
	ExchangeFanout  = "fanout"
	ExchangeTopic   = "topic"
	ExchangeHeaders = "headers"
)

// Exchange — описание обменника, к которому привязана очередь.
type Exchange struct {
	Name       string     `json:"name" mapstructure:"name"`
	Type       string     `json:"type" mapstructure:"type"`
	Durable    bool       `json:"durable" mapstructure:"durable"`
	AutoDelete bool       `json:"auto_delete" mapstructure:"auto_delete"`
	Arguments  amqp.Table `json:"arguments,omitempty" mapstructure:"arguments"`
}

// Queue — описание очереди доставки (QueueDescriptor).
//
// Queue живёт в Registry. После регистрации не изменяется:
// Router только читает его или просит Registry создать новый.
type Queue struct {
	// Name — имя очереди.
	Name string `json:"name"`

	// Exchange — обменник, в который публикуются сообщения для очереди.
	Exchange Exchange `json:"exchange"`

	// RoutingKey — ключ привязки очереди к обменнику.
	RoutingKey string `json:"routing_key"`

	// Durable — очередь переживает рестарт брокера.
	Durable bool `json:"durable"`

	// AutoDelete — очередь удаляется, когда уходит последний consumer.
	AutoDelete bool `json:"auto_delete"`

	// Arguments — аргументы объявления очереди (x-dead-letter-exchange и т.п.).
	Arguments amqp.Table `json:"arguments,omitempty"`

	// BindingArguments — аргументы привязки (нужны для headers exchange).
	BindingArguments amqp.Table `json:"binding_arguments,omitempty"`
}

// New создаёт очередь, привязанную к direct-обменнику с тем же именем.
func New(name string) *Queue {
	return &Queue{
		Name:       name,
		Exchange:   Exchange{Name: name, Type: ExchangeDirect, Durable: true},
		RoutingKey: name,
		Durable:    true,
	}
}

// Clone возвращает копию очереди.
// Таблицы аргументов копируются поверхностно.
func (q *Queue) Clone() *Queue {
	if q == nil {
		return nil
	}
	c := *q
	c.Exchange.Arguments = cloneTable(q.Exchange.Arguments)
	c.Arguments = cloneTable(q.Arguments)
	c.BindingArguments = cloneTable(q.BindingArguments)
	return &c
}

// String реализует fmt.Stringer.
func (q *Queue) String() string {
	if q == nil {
		return "<nil>"
	}
	return q.Name + " -> " + q.Exchange.Name + "(" + q.Exchange.Type + ") [" + q.RoutingKey + "]"
}

func cloneTable(t amqp.Table) amqp.Table {
	if t == nil {
		return nil
	}
	c := make(amqp.Table, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}
