package mq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/taskroute/internal/routes"
	"github.com/shaiso/taskroute/internal/telemetry"
)

// Producer отправляет вызовы задач: маршрутизирует, объявляет
// очередь при первом использовании и публикует сообщение.
type Producer struct {
	router    *routes.Router
	declarer  *Declarer
	publisher *Publisher
	logger    *slog.Logger
}

// ProducerConfig — конфигурация Producer.
type ProducerConfig struct {
	Router   *routes.Router
	Provider ChannelProvider
	Logger   *slog.Logger
}

// NewProducer создаёт Producer.
func NewProducer(cfg ProducerConfig) *Producer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		router:    cfg.Router,
		declarer:  NewDeclarer(cfg.Provider),
		publisher: NewPublisher(cfg.Provider, logger),
		logger:    logger,
	}
}

// SendTask маршрутизирует и публикует вызов задачи.
// Возвращает отправленное сообщение и опции доставки.
func (p *Producer) SendTask(ctx context.Context, task string, args []any, kwargs map[string]any, opts routes.Options) (*TaskMessage, routes.Options, error) {
	dest, err := p.router.Route(opts, task, args, kwargs, nil)
	if err != nil {
		return nil, nil, err
	}

	q := dest.Queue()
	logger := telemetry.WithQueue(telemetry.WithTaskName(p.logger, task), q.Name)

	if err := p.declarer.Ensure(ctx, q); err != nil {
		return nil, nil, fmt.Errorf("declare %s: %w", q.Name, err)
	}

	msg := NewTaskMessage(task, args, kwargs)
	if err := p.publisher.Publish(ctx, dest, msg); err != nil {
		return nil, nil, err
	}

	logger.Info("task sent", "message_id", msg.ID)
	return msg, dest, nil
}

// Declarer возвращает Declarer продюсера.
func (p *Producer) Declarer() *Declarer {
	return p.declarer
}

// WatchReconnect сбрасывает объявленные очереди после каждого
// переподключения conn. Блокируется до отмены ctx.
func (p *Producer) WatchReconnect(ctx context.Context, conn *Connection) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.ReconnectNotify():
			p.logger.Info("reconnected, queues will be declared again")
			p.declarer.Reset()
		}
	}
}
