package queues

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Declaration — описание очереди в конфигурации.
//
// Формат совпадает с опциями доставки:
//
//	foo:
//	  exchange: fooexchange
//	  exchange_type: fanout
//	  routing_key: xuzzy
//
// Пустые поля заполняются по умолчанию: exchange и routing_key — имя
// очереди, exchange_type — direct, durable — true.
type Declaration struct {
	Exchange         string         `mapstructure:"exchange"`
	ExchangeType     string         `mapstructure:"exchange_type"`
	RoutingKey       string         `mapstructure:"routing_key"`
	Durable          *bool          `mapstructure:"durable"`
	AutoDelete       bool           `mapstructure:"auto_delete"`
	ExchangeDurable  *bool          `mapstructure:"exchange_durable"`
	Arguments        map[string]any `mapstructure:"arguments"`
	BindingArguments map[string]any `mapstructure:"binding_arguments"`
}

// Queue строит Queue с именем name по описанию.
func (d Declaration) Queue(name string) *Queue {
	q := New(name)

	if d.Exchange != "" {
		q.Exchange.Name = d.Exchange
	}
	if d.ExchangeType != "" {
		q.Exchange.Type = d.ExchangeType
	}
	if d.RoutingKey != "" {
		q.RoutingKey = d.RoutingKey
	}
	if d.Durable != nil {
		q.Durable = *d.Durable
	}
	if d.ExchangeDurable != nil {
		q.Exchange.Durable = *d.ExchangeDurable
	}
	q.AutoDelete = d.AutoDelete

	if len(d.Arguments) > 0 {
		q.Arguments = amqp.Table(d.Arguments)
	}
	if len(d.BindingArguments) > 0 {
		q.BindingArguments = amqp.Table(d.BindingArguments)
	}

	return q
}

// Decode разбирает описание очереди из произвольного значения
// (обычно map[string]any из YAML или JSON).
// nil означает очередь со всеми значениями по умолчанию.
func Decode(name string, input any) (*Queue, error) {
	if name == "" {
		return nil, ErrEmptyQueueName
	}

	var d Declaration
	if input != nil {
		cfg := &mapstructure.DecoderConfig{
			Result:           &d,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		}
		decoder, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			return nil, fmt.Errorf("new decoder: %w", err)
		}
		if err := decoder.Decode(input); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidDeclaration, name, err)
		}
	}

	return d.Queue(name), nil
}

// DecodeAll разбирает набор очередей name -> описание.
// Результат отсортирован по имени.
func DecodeAll(input map[string]any) ([]*Queue, error) {
	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Queue, 0, len(names))
	for _, name := range names {
		q, err := Decode(name, input[name])
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}
