package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/taskroute/internal/config"
	"github.com/shaiso/taskroute/internal/mq"
	"github.com/shaiso/taskroute/internal/queues"
	"github.com/shaiso/taskroute/internal/repo"
	"github.com/shaiso/taskroute/internal/routes"
	"github.com/shaiso/taskroute/internal/telemetry"
)

// app — собранные зависимости процесса.
type app struct {
	env    config.Env
	logger *slog.Logger

	router   *routes.Router
	symbols  *routes.Symbols
	pool     *pgxpool.Pool
	conn     *mq.Connection
	producer *mq.Producer

	// persister и workers — фоновое сохранение новых очередей.
	persister *repo.Persister
	workers   errgroup.Group
}

// appOptions — что поднимать помимо Router.
type appOptions struct {
	configPath string

	// broker — подключаться к RabbitMQ.
	broker bool

	// brokerRequired — без брокера запуск невозможен.
	brokerRequired bool
}

// newApp читает окружение и файл маршрутизации, поднимает БД и брокер.
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	logger := telemetry.NewLogger(os.Stderr, telemetry.ParseLevel(env.LogLevel), env.LogFormat)
	a := &app{env: env, logger: logger, symbols: routes.NewSymbols()}

	// Файл маршрутизации
	path := opts.configPath
	if path == "" {
		path = env.ConfigPath
	}
	routing := &config.Routing{}
	if path != "" {
		routing, err = config.Load(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("routing file loaded", "path", path)
	}
	routing.ApplyEnv(env)

	reg := queues.NewRegistry()
	a.router, err = routing.Build(config.BuildOptions{
		Registry: reg,
		Resolver: a.symbols,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	// PostgreSQL: очереди, созданные ранее, и сохранение новых
	if env.DatabaseURL != "" {
		if err := a.connectDB(ctx, reg); err != nil {
			a.Close()
			return nil, err
		}
	}

	// RabbitMQ
	if opts.broker {
		conn, err := mq.NewConnection(env.RabbitURL, logger)
		if err != nil {
			if opts.brokerRequired {
				a.Close()
				return nil, err
			}
			logger.Warn("RabbitMQ not available, send is disabled", "error", err)
		} else {
			a.conn = conn
			a.producer = mq.NewProducer(mq.ProducerConfig{
				Router:   a.router,
				Provider: conn,
				Logger:   logger,
			})
			go a.producer.WatchReconnect(ctx, conn)
		}
	}

	return a, nil
}

func (a *app) connectDB(ctx context.Context, reg *queues.Registry) error {
	pool, err := repo.NewPool(ctx, a.env.DatabaseURL)
	if err != nil {
		return err
	}
	a.pool = pool
	a.logger.Info("connected to database")

	queueRepo := repo.NewQueueRepo(pool)
	if err := queueRepo.Migrate(ctx); err != nil {
		return err
	}

	added, err := queueRepo.LoadInto(ctx, reg)
	if err != nil {
		return err
	}
	a.logger.Info("queues loaded from database", "count", added)

	a.persister = repo.NewPersister(queueRepo, repo.DefaultPersistBuffer, a.logger)
	runCtx := context.WithoutCancel(ctx)
	a.workers.Go(func() error {
		return a.persister.Run(runCtx)
	})
	reg.OnCreate(a.persister.Hook)
	return nil
}

// Close освобождает соединения.
func (a *app) Close() {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Warn("failed to close RabbitMQ connection", "error", err)
		}
	}
	if a.persister != nil {
		a.persister.Close()
		if err := a.workers.Wait(); err != nil {
			a.logger.Warn("queue persister stopped with error", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
