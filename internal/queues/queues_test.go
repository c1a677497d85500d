package queues

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

// Registry Tests

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	// Пустой реестр
	if r.Len() != 0 {
		t.Errorf("expected empty registry")
	}

	// Регистрация
	r.Add(New("foo"))
	if r.Len() != 1 {
		t.Errorf("expected 1 queue, got %d", r.Len())
	}

	// Получение
	q, ok := r.Lookup("foo")
	if !ok {
		t.Fatal("expected foo to be registered")
	}
	if q.Name != "foo" {
		t.Errorf("expected foo, got %s", q.Name)
	}

	// Несуществующая очередь
	_, err := r.Get("unknown")
	if !errors.Is(err, ErrQueueNotFound) {
		t.Errorf("expected ErrQueueNotFound, got %v", err)
	}

	var nf *QueueNotFoundError
	if !errors.As(err, &nf) || nf.Name != "unknown" {
		t.Errorf("expected QueueNotFoundError naming unknown, got %v", err)
	}

	// Очередь без имени игнорируется
	if r.Add(&Queue{}) != nil {
		t.Error("queue without name should not be added")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 queue, got %d", r.Len())
	}
}

func TestRegistry_AddOverwrites(t *testing.T) {
	r := NewRegistry(New("foo"))

	q := New("foo")
	q.RoutingKey = "other"
	r.Add(q)

	got, _ := r.Lookup("foo")
	if got.RoutingKey != "other" {
		t.Errorf("expected overwritten routing key, got %s", got.RoutingKey)
	}
	if len(r.All()) != 1 {
		t.Errorf("expected 1 queue in order, got %d", len(r.All()))
	}
}

func TestRegistry_LookupByRoutingKey(t *testing.T) {
	foo := &Queue{Name: "foo", Exchange: Exchange{Name: "fooexchange", Type: ExchangeFanout}, RoutingKey: "xuzzy"}
	bar := &Queue{Name: "bar", Exchange: Exchange{Name: "barexchange", Type: ExchangeTopic}, RoutingKey: "b.b.#"}
	r := NewRegistry(foo, bar)

	tests := []struct {
		name       string
		exchange   string
		routingKey string
		want       string
	}{
		{"exact", "barexchange", "b.b.#", "bar"},
		{"any exchange", "", "xuzzy", "foo"},
		{"wrong exchange", "barexchange", "xuzzy", ""},
		{"unknown key", "", "nope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok := r.LookupByRoutingKey(tt.exchange, tt.routingKey)
			if tt.want == "" {
				if ok {
					t.Errorf("expected no match, got %s", q.Name)
				}
				return
			}
			if !ok {
				t.Fatalf("expected %s, got no match", tt.want)
			}
			if q.Name != tt.want {
				t.Errorf("expected %s, got %s", tt.want, q.Name)
			}
		})
	}
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()

	var hooked []string
	r.OnCreate(func(q *Queue) { hooked = append(hooked, q.Name) })

	q, created, err := r.GetOrCreate("testq", New)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected queue to be created")
	}
	if q.Exchange.Name != "testq" || q.RoutingKey != "testq" {
		t.Errorf("unexpected queue: %s", q)
	}

	again, created, err := r.GetOrCreate("testq", New)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("second call should not create")
	}
	if again != q {
		t.Error("expected the same descriptor")
	}

	if len(hooked) != 1 || hooked[0] != "testq" {
		t.Errorf("expected one OnCreate call for testq, got %v", hooked)
	}

	// Пустое имя
	if _, _, err := r.GetOrCreate("", New); !errors.Is(err, ErrEmptyQueueName) {
		t.Errorf("expected ErrEmptyQueueName, got %v", err)
	}

	// build вернул очередь с чужим именем
	_, _, err = r.GetOrCreate("x", func(string) *Queue { return New("y") })
	if !errors.Is(err, ErrInvalidDeclaration) {
		t.Errorf("expected ErrInvalidDeclaration, got %v", err)
	}
	if r.Has("x") || r.Has("y") {
		t.Error("invalid build result should not be registered")
	}
}

func TestRegistry_GetOrCreate_Concurrent(t *testing.T) {
	r := NewRegistry()

	var builds atomic.Int32
	build := func(name string) *Queue {
		builds.Add(1)
		return New(name)
	}

	const n = 64
	results := make([]*Queue, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			q, _, err := r.GetOrCreate("shared", build)
			if err != nil {
				return err
			}
			results[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if builds.Load() != 1 {
		t.Errorf("expected exactly one build, got %d", builds.Load())
	}
	for i, q := range results {
		if q != results[0] {
			t.Fatalf("result %d diverged: %p != %p", i, q, results[0])
		}
	}
}

func TestRegistry_GetOrCreate_BuildPanics(t *testing.T) {
	r := NewRegistry()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic from build")
			}
		}()
		_, _, _ = r.GetOrCreate("broken", func(string) *Queue { panic("boom") })
	}()

	// Реестр остаётся рабочим после паники в build.
	if r.Has("broken") {
		t.Error("broken should not be registered")
	}
	q, created, err := r.GetOrCreate("broken", New)
	if err != nil || !created || q.Name != "broken" {
		t.Errorf("expected broken to be created, got %v %v %v", q, created, err)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry(New("b"), New("a"), New("c"))

	names := r.Names()
	if fmt.Sprint(names) != "[a b c]" {
		t.Errorf("expected sorted names, got %v", names)
	}

	all := r.All()
	if all[0].Name != "b" || all[2].Name != "c" {
		t.Errorf("All should keep registration order, got %v", all)
	}
}

// Declaration Tests

func TestDecode(t *testing.T) {
	q, err := Decode("foo", map[string]any{
		"exchange":      "fooexchange",
		"exchange_type": "fanout",
		"routing_key":   "xuzzy",
		"durable":       false,
		"arguments": map[string]any{
			"x-max-priority": 10,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Name != "foo" {
		t.Errorf("expected foo, got %s", q.Name)
	}
	if q.Exchange.Name != "fooexchange" || q.Exchange.Type != ExchangeFanout {
		t.Errorf("unexpected exchange: %+v", q.Exchange)
	}
	if q.RoutingKey != "xuzzy" {
		t.Errorf("expected xuzzy, got %s", q.RoutingKey)
	}
	if q.Durable {
		t.Error("expected durable=false")
	}
	if q.Arguments["x-max-priority"] != 10 {
		t.Errorf("expected x-max-priority=10, got %v", q.Arguments["x-max-priority"])
	}
}

func TestDecode_Defaults(t *testing.T) {
	q, err := Decode("celery", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Exchange.Name != "celery" || q.Exchange.Type != ExchangeDirect || q.RoutingKey != "celery" {
		t.Errorf("unexpected defaults: %s", q)
	}
	if !q.Durable {
		t.Error("expected durable by default")
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode("", nil); !errors.Is(err, ErrEmptyQueueName) {
		t.Errorf("expected ErrEmptyQueueName, got %v", err)
	}

	_, err := Decode("foo", map[string]any{"exchnage": "typo"})
	if !errors.Is(err, ErrInvalidDeclaration) {
		t.Errorf("expected ErrInvalidDeclaration for unknown key, got %v", err)
	}
}

func TestDecodeAll(t *testing.T) {
	qs, err := DecodeAll(map[string]any{
		"bar": map[string]any{"exchange": "barexchange", "exchange_type": "topic", "routing_key": "b.b.#"},
		"foo": map[string]any{"exchange": "fooexchange"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 queues, got %d", len(qs))
	}
	if qs[0].Name != "bar" || qs[1].Name != "foo" {
		t.Errorf("expected sorted result, got %s, %s", qs[0].Name, qs[1].Name)
	}
	if qs[1].RoutingKey != "foo" {
		t.Errorf("expected routing key default to name, got %s", qs[1].RoutingKey)
	}
}

func TestQueue_Clone(t *testing.T) {
	q := New("foo")
	q.Arguments = map[string]any{"x": 1}

	c := q.Clone()
	c.Arguments["x"] = 2
	c.RoutingKey = "changed"

	if q.Arguments["x"] != 1 {
		t.Error("clone should not share arguments")
	}
	if q.RoutingKey != "foo" {
		t.Error("clone should not share fields")
	}
}
