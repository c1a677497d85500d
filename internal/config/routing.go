package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/taskroute/internal/queues"
	"github.com/shaiso/taskroute/internal/routes"
)

// Routing — содержимое YAML-файла маршрутизации.
//
//	default_queue: default
//	create_missing: true
//	queues:
//	  video:
//	    exchange: media
//	    exchange_type: topic
//	    routing_key: media.video
//	routes:
//	  - tasks.encode: video
//	    tasks.thumbnail: {queue: video, priority: 5}
//	  - myapp.routers.ByTenant
type Routing struct {
	DefaultQueue        string `yaml:"default_queue"`
	DefaultExchange     string `yaml:"default_exchange"`
	DefaultExchangeType string `yaml:"default_exchange_type"`
	DefaultRoutingKey   string `yaml:"default_routing_key"`

	// CreateMissing — по умолчанию true.
	CreateMissing *bool `yaml:"create_missing"`

	AcceptExplicitQueue bool `yaml:"accept_explicit_queue"`

	// Queues — объявления очередей, разбираются queues.DecodeAll.
	Queues map[string]any `yaml:"queues"`

	// Routes — одно правило-словарь или список правил
	// (словари и имена отложенных правил).
	Routes any `yaml:"routes"`
}

// Load читает файл маршрутизации.
func Load(path string) (*Routing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}
	return Parse(data)
}

// Parse разбирает YAML. Неизвестные ключи верхнего уровня — ошибка.
func Parse(data []byte) (*Routing, error) {
	var r Routing

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrParseFile, err)
	}
	return &r, nil
}

// ApplyEnv перекрывает значения файла переменными окружения.
func (r *Routing) ApplyEnv(e Env) {
	if e.DefaultQueue != "" {
		r.DefaultQueue = e.DefaultQueue
	}
	if e.CreateMissing != nil {
		v := *e.CreateMissing
		r.CreateMissing = &v
	}
}

// CreateMissingQueues возвращает итоговое значение create_missing.
func (r *Routing) CreateMissingQueues() bool {
	if r.CreateMissing == nil {
		return true
	}
	return *r.CreateMissing
}

// BuildOptions — зависимости, которых нет в файле.
type BuildOptions struct {
	// Registry — реестр, в который добавляются очереди файла.
	// nil — новый реестр.
	Registry *queues.Registry

	// Resolver разрешает имена отложенных правил.
	Resolver routes.Resolver

	Logger *slog.Logger
}

// Build собирает Router: объявляет очереди в реестре и готовит правила.
// Значения статических правил проверяются сразу.
func (r *Routing) Build(opts BuildOptions) (*routes.Router, error) {
	reg := opts.Registry
	if reg == nil {
		reg = queues.NewRegistry()
	}

	declared, err := queues.DecodeAll(r.Queues)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	for _, q := range declared {
		reg.Add(q)
	}

	rules := routes.Prepare(r.Routes)
	if err := validateRules(rules); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("routing config loaded",
		"queues", len(declared),
		"rules", len(rules),
		"create_missing", r.CreateMissingQueues(),
	)

	return routes.New(routes.Config{
		Rules:               rules,
		Queues:              reg,
		DefaultQueue:        r.DefaultQueue,
		DefaultExchange:     r.DefaultExchange,
		DefaultExchangeType: r.DefaultExchangeType,
		DefaultRoutingKey:   r.DefaultRoutingKey,
		CreateMissing:       r.CreateMissingQueues(),
		AcceptExplicitQueue: r.AcceptExplicitQueue,
		Resolver:            opts.Resolver,
		Logger:              logger,
	}), nil
}

// validateRules разбирает значения всех статических правил.
func validateRules(rules []routes.Handle) error {
	for i, h := range rules {
		if !h.IsStatic() {
			continue
		}
		m := h.MapRoute()
		for _, task := range m.Tasks() {
			v, _ := m.RouteForTask(task)
			if v == nil {
				continue
			}
			if _, err := routes.ParseSpec(v); err != nil {
				return fmt.Errorf("rule %d, task %q: %w", i, task, err)
			}
		}
	}
	return nil
}
