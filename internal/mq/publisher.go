package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/taskroute/internal/routes"
	"github.com/shaiso/taskroute/internal/telemetry"
)

// Ключи опций доставки, которые понимает Publisher.
const (
	OptMandatory    = "mandatory"
	OptImmediate    = "immediate"
	OptPriority     = "priority"
	OptExpiration   = "expiration"
	OptDeliveryMode = "delivery_mode"
	OptHeaders      = "headers"
)

// TaskMessage — сообщение вызова задачи.
type TaskMessage struct {
	// ID — уникальный идентификатор вызова.
	ID string `json:"id"`

	// Task — имя задачи.
	Task string `json:"task"`

	// Args, Kwargs — аргументы вызова.
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewTaskMessage создаёт сообщение с новым ID.
func NewTaskMessage(task string, args []any, kwargs map[string]any) *TaskMessage {
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return &TaskMessage{
		ID:        uuid.New().String(),
		Task:      task,
		Args:      args,
		Kwargs:    kwargs,
		Timestamp: time.Now(),
	}
}

// Publisher публикует сообщения задач в RabbitMQ.
type Publisher struct {
	provider ChannelProvider
	logger   *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(provider ChannelProvider, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		provider: provider,
		logger:   logger,
	}
}

// Publish публикует сообщение по развёрнутым опциям доставки.
// dest — результат routes.Router.Route.
func (p *Publisher) Publish(ctx context.Context, dest routes.Options, msg *TaskMessage) error {
	q := dest.Queue()
	if q == nil {
		return ErrNoQueue
	}

	publishing, err := buildPublishing(dest, msg)
	if err != nil {
		return err
	}

	exchange := dest.String(routes.KeyExchange)
	routingKey := dest.String(routes.KeyRoutingKey)

	return p.provider.WithChannel(ctx, func(ch Channel) error {
		err := ch.PublishWithContext(
			ctx,
			exchange,
			routingKey,
			dest.Bool(OptMandatory),
			dest.Bool(OptImmediate),
			publishing,
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		telemetry.MessagesPublished.WithLabelValues(q.Name).Inc()
		p.logger.Debug("published task",
			"exchange", exchange,
			"routing_key", routingKey,
			"queue", q.Name,
			"message_id", msg.ID,
			"task", msg.Task,
		)

		return nil
	})
}

// buildPublishing переносит опции доставки в amqp.Publishing.
func buildPublishing(dest routes.Options, msg *TaskMessage) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Type:         msg.Task,
		Body:         body,
	}

	if v, ok := dest[OptPriority]; ok && v != nil {
		n, err := toInt(v)
		if err != nil || n < 0 || n > 255 {
			return amqp.Publishing{}, fmt.Errorf("invalid priority %v", v)
		}
		pub.Priority = uint8(n)
	}

	switch v := dest[OptExpiration].(type) {
	case nil:
	case string:
		pub.Expiration = v
	case time.Duration:
		pub.Expiration = strconv.FormatInt(v.Milliseconds(), 10)
	default:
		n, err := toInt(v)
		if err != nil {
			return amqp.Publishing{}, fmt.Errorf("invalid expiration %v", v)
		}
		pub.Expiration = strconv.Itoa(n)
	}

	switch v := dest[OptDeliveryMode].(type) {
	case nil:
	case string:
		if v == "transient" {
			pub.DeliveryMode = amqp.Transient
		}
	default:
		if n, err := toInt(v); err == nil && n == int(amqp.Transient) {
			pub.DeliveryMode = amqp.Transient
		}
	}

	if h, ok := dest[OptHeaders].(map[string]any); ok {
		pub.Headers = amqp.Table(h)
	}

	return pub, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint8:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}
