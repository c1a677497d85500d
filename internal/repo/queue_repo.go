package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/taskroute/internal/queues"
)

// Schema — DDL таблицы очередей.
const Schema = `
	CREATE TABLE IF NOT EXISTS task_queues (
		name                 TEXT PRIMARY KEY,
		exchange             TEXT NOT NULL DEFAULT '',
		exchange_type        TEXT NOT NULL DEFAULT 'direct',
		exchange_durable     BOOLEAN NOT NULL DEFAULT true,
		exchange_auto_delete BOOLEAN NOT NULL DEFAULT false,
		routing_key          TEXT NOT NULL DEFAULT '',
		durable              BOOLEAN NOT NULL DEFAULT true,
		auto_delete          BOOLEAN NOT NULL DEFAULT false,
		arguments            JSONB,
		binding_arguments    JSONB,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// DB — подмножество pgxpool.Pool, которое нужно репозиторию.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

// QueueRepo — репозиторий объявленных очередей.
type QueueRepo struct {
	db DB
}

// NewQueueRepo создаёт новый QueueRepo.
func NewQueueRepo(db DB) *QueueRepo {
	return &QueueRepo{db: db}
}

// Migrate создаёт таблицу task_queues, если её нет.
func (r *QueueRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create task_queues: %w", err)
	}
	return nil
}

// Save сохраняет очередь. Существующая запись с тем же именем обновляется.
func (r *QueueRepo) Save(ctx context.Context, q *queues.Queue) error {
	rec, err := recordFromQueue(q)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO task_queues (name, exchange, exchange_type, exchange_durable,
		                         exchange_auto_delete, routing_key, durable, auto_delete,
		                         arguments, binding_arguments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (name) DO UPDATE
		SET exchange = EXCLUDED.exchange,
		    exchange_type = EXCLUDED.exchange_type,
		    exchange_durable = EXCLUDED.exchange_durable,
		    exchange_auto_delete = EXCLUDED.exchange_auto_delete,
		    routing_key = EXCLUDED.routing_key,
		    durable = EXCLUDED.durable,
		    auto_delete = EXCLUDED.auto_delete,
		    arguments = EXCLUDED.arguments,
		    binding_arguments = EXCLUDED.binding_arguments,
		    updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.Exec(ctx, query,
		rec.Name,
		rec.Exchange,
		rec.ExchangeType,
		rec.ExchangeDurable,
		rec.ExchangeAutoDelete,
		rec.RoutingKey,
		rec.Durable,
		rec.AutoDelete,
		rec.Arguments,
		rec.BindingArguments,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save queue %s: %w", q.Name, err)
	}
	return nil
}

// Get возвращает очередь по имени.
func (r *QueueRepo) Get(ctx context.Context, name string) (*queues.Queue, error) {
	query := `
		SELECT name, exchange, exchange_type, exchange_durable, exchange_auto_delete,
		       routing_key, durable, auto_delete, arguments, binding_arguments
		FROM task_queues
		WHERE name = $1
	`
	rec, err := scanRecord(r.db.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan queue: %w", err)
	}
	return rec.queue()
}

// List возвращает все очереди в порядке создания.
func (r *QueueRepo) List(ctx context.Context) ([]*queues.Queue, error) {
	query := `
		SELECT name, exchange, exchange_type, exchange_durable, exchange_auto_delete,
		       routing_key, durable, auto_delete, arguments, binding_arguments
		FROM task_queues
		ORDER BY created_at ASC, name ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	defer rows.Close()

	var result []*queues.Queue
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue: %w", err)
		}
		q, err := rec.queue()
		if err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

// Delete удаляет очередь.
func (r *QueueRepo) Delete(ctx context.Context, name string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM task_queues WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete queue: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadInto загружает очереди в реестр. Уже объявленные очереди
// с тем же именем не перезаписываются. Возвращает число добавленных.
func (r *QueueRepo) LoadInto(ctx context.Context, reg *queues.Registry) (int, error) {
	qs, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, q := range qs {
		if reg.Has(q.Name) {
			continue
		}
		reg.Add(q)
		added++
	}
	return added, nil
}

// --- Helpers ---

// queueRecord — строка таблицы task_queues.
type queueRecord struct {
	Name               string
	Exchange           string
	ExchangeType       string
	ExchangeDurable    bool
	ExchangeAutoDelete bool
	RoutingKey         string
	Durable            bool
	AutoDelete         bool
	Arguments          []byte
	BindingArguments   []byte
}

func scanRecord(row pgx.Row) (*queueRecord, error) {
	var rec queueRecord
	err := row.Scan(
		&rec.Name,
		&rec.Exchange,
		&rec.ExchangeType,
		&rec.ExchangeDurable,
		&rec.ExchangeAutoDelete,
		&rec.RoutingKey,
		&rec.Durable,
		&rec.AutoDelete,
		&rec.Arguments,
		&rec.BindingArguments,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func recordFromQueue(q *queues.Queue) (*queueRecord, error) {
	if q == nil || q.Name == "" {
		return nil, fmt.Errorf("%w: queue without name", ErrInvalidRecord)
	}

	args, err := marshalTable(q.Arguments)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}
	bindArgs, err := marshalTable(q.BindingArguments)
	if err != nil {
		return nil, fmt.Errorf("marshal binding arguments: %w", err)
	}

	exchangeType := q.Exchange.Type
	if exchangeType == "" {
		exchangeType = queues.ExchangeDirect
	}

	return &queueRecord{
		Name:               q.Name,
		Exchange:           q.Exchange.Name,
		ExchangeType:       exchangeType,
		ExchangeDurable:    q.Exchange.Durable,
		ExchangeAutoDelete: q.Exchange.AutoDelete,
		RoutingKey:         q.RoutingKey,
		Durable:            q.Durable,
		AutoDelete:         q.AutoDelete,
		Arguments:          args,
		BindingArguments:   bindArgs,
	}, nil
}

func (rec *queueRecord) queue() (*queues.Queue, error) {
	args, err := unmarshalTable(rec.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: queue %s arguments: %v", ErrInvalidRecord, rec.Name, err)
	}
	bindArgs, err := unmarshalTable(rec.BindingArguments)
	if err != nil {
		return nil, fmt.Errorf("%w: queue %s binding arguments: %v", ErrInvalidRecord, rec.Name, err)
	}

	return &queues.Queue{
		Name: rec.Name,
		Exchange: queues.Exchange{
			Name:       rec.Exchange,
			Type:       rec.ExchangeType,
			Durable:    rec.ExchangeDurable,
			AutoDelete: rec.ExchangeAutoDelete,
		},
		RoutingKey:       rec.RoutingKey,
		Durable:          rec.Durable,
		AutoDelete:       rec.AutoDelete,
		Arguments:        args,
		BindingArguments: bindArgs,
	}, nil
}

// marshalTable возвращает nil для пустой таблицы (для NULL в БД).
func marshalTable(t amqp.Table) ([]byte, error) {
	if len(t) == 0 {
		return nil, nil
	}
	return json.Marshal(t)
}

func unmarshalTable(data []byte) (amqp.Table, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var t amqp.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return t, nil
}
