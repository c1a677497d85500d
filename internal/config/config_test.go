package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaiso/taskroute/internal/queues"
	"github.com/shaiso/taskroute/internal/routes"
)

const sample = `
default_queue: celery
default_exchange: celery
default_routing_key: celery
create_missing: false
queues:
  video:
    exchange: media
    exchange_type: topic
    routing_key: media.video
  images:
    exchange: media
    exchange_type: topic
    routing_key: media.image
    arguments:
      x-max-priority: 10
routes:
  - tasks.encode: video
    tasks.thumbnail:
      queue: images
      priority: 5
    tasks.skip: null
  - myapp.routers.ByTenant
`

// --- Env Tests ---

func TestParseEnv_Defaults(t *testing.T) {
	e, err := ParseEnv(map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.APIPort != "8080" {
		t.Errorf("expected API port 8080, got %s", e.APIPort)
	}
	if e.RabbitURL == "" {
		t.Error("expected default RabbitMQ URL")
	}
	if e.CreateMissing != nil {
		t.Errorf("expected nil CreateMissing, got %v", *e.CreateMissing)
	}
}

func TestParseEnv_Values(t *testing.T) {
	e, err := ParseEnv(map[string]string{
		"DB_URL":                   "postgres://x",
		"TASKROUTE_DEFAULT_QUEUE":  "main",
		"TASKROUTE_CREATE_MISSING": "false",
		"LOG_LEVEL":                "debug",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.DatabaseURL != "postgres://x" || e.DefaultQueue != "main" || e.LogLevel != "debug" {
		t.Errorf("unexpected env: %+v", e)
	}
	if e.CreateMissing == nil || *e.CreateMissing {
		t.Error("expected CreateMissing=false")
	}
}

func TestParseEnv_Invalid(t *testing.T) {
	_, err := ParseEnv(map[string]string{"TASKROUTE_CREATE_MISSING": "maybe"})
	if !errors.Is(err, ErrParseEnv) {
		t.Errorf("expected ErrParseEnv, got %v", err)
	}
}

// --- Routing Tests ---

func TestParse(t *testing.T) {
	r, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.DefaultQueue != "celery" {
		t.Errorf("expected default queue celery, got %s", r.DefaultQueue)
	}
	if r.CreateMissingQueues() {
		t.Error("create_missing should be false")
	}
	if len(r.Queues) != 2 {
		t.Errorf("expected 2 queues, got %d", len(r.Queues))
	}
	if _, ok := r.Routes.([]any); !ok {
		t.Errorf("expected routes list, got %T", r.Routes)
	}
}

func TestParse_Empty(t *testing.T) {
	r, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.CreateMissingQueues() {
		t.Error("create_missing should default to true")
	}
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("defualt_queue: x\n"))
	if !errors.Is(err, ErrParseFile) {
		t.Errorf("expected ErrParseFile, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.DefaultExchange != "celery" {
		t.Errorf("expected default exchange celery, got %s", r.DefaultExchange)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, ErrReadFile) {
		t.Errorf("expected ErrReadFile, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	r := &Routing{DefaultQueue: "from-file"}
	off := false

	r.ApplyEnv(Env{DefaultQueue: "from-env", CreateMissing: &off})

	if r.DefaultQueue != "from-env" {
		t.Errorf("expected from-env, got %s", r.DefaultQueue)
	}
	if r.CreateMissingQueues() {
		t.Error("expected create_missing overridden to false")
	}

	r.ApplyEnv(Env{})
	if r.DefaultQueue != "from-env" {
		t.Error("empty env must not reset values")
	}
}

func TestBuild(t *testing.T) {
	r, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	symbols := routes.NewSymbols()
	symbols.RegisterValue("myapp.routers.ByTenant", routes.RuleFunc(func(call *routes.Call) (routes.Spec, bool, error) {
		if call.TaskName == "tasks.report" {
			return routes.QueueSpec("video"), true, nil
		}
		return routes.Spec{}, false, nil
	}))

	router, err := r.Build(BuildOptions{Resolver: symbols})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if router.DefaultQueue() != "celery" {
		t.Errorf("expected default queue celery, got %s", router.DefaultQueue())
	}
	if len(router.Rules()) != 2 {
		t.Errorf("expected 2 rules, got %d", len(router.Rules()))
	}

	tests := []struct {
		task     string
		queue    string
		exchange string
	}{
		{"tasks.encode", "video", "media"},
		{"tasks.thumbnail", "images", "media"},
		{"tasks.report", "video", "media"},
		{"tasks.skip", "celery", "celery"},
		{"tasks.other", "celery", "celery"},
	}

	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			opts, err := router.Route(nil, tt.task, nil, nil, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opts.QueueName() != tt.queue {
				t.Errorf("expected queue %s, got %s", tt.queue, opts.QueueName())
			}
			if opts.String(routes.KeyExchange) != tt.exchange {
				t.Errorf("expected exchange %s, got %s", tt.exchange, opts.String(routes.KeyExchange))
			}
		})
	}

	opts, _ := router.Route(nil, "tasks.thumbnail", nil, nil, nil)
	if opts["priority"] != 5 {
		t.Errorf("expected priority 5 from rule, got %v", opts["priority"])
	}

	if _, err := router.Route(routes.Options{"queue": "unknown"}, "tasks.encode", nil, nil, nil); !errors.Is(err, queues.ErrQueueNotFound) {
		t.Errorf("expected ErrQueueNotFound with create_missing=false, got %v", err)
	}
}

func TestBuild_SharedRegistry(t *testing.T) {
	reg := queues.NewRegistry(queues.New("existing"))
	r := &Routing{Queues: map[string]any{"video": nil}}

	router, err := r.Build(BuildOptions{Registry: reg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if router.Queues() != reg {
		t.Error("router should use the passed registry")
	}
	if !reg.Has("existing") || !reg.Has("video") {
		t.Errorf("unexpected queues: %v", reg.Names())
	}
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad queue field", "queues:\n  video:\n    exchnage: media\n"},
		{"bad route value", "routes:\n  - tasks.x: [1, 2]\n"},
		{"bad queue in mapping", "routes:\n  tasks.x:\n    queue: 42\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			if _, err := r.Build(BuildOptions{}); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
