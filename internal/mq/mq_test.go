package mq

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/taskroute/internal/queues"
	"github.com/shaiso/taskroute/internal/routes"
)

// fakeChannel записывает вызовы вместо обращения к брокеру.
type fakeChannel struct {
	mu        sync.Mutex
	exchanges []string
	queues    []string
	bindings  []string
	published []publishCall

	failPublish error
}

type publishCall struct {
	exchange, key        string
	mandatory, immediate bool
	msg                  amqp.Publishing
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchanges = append(f.exchanges, name+":"+kind)
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues = append(f.queues, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bindings = append(f.bindings, name+"<-"+exchange+"["+key+"]")
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPublish != nil {
		return f.failPublish
	}
	f.published = append(f.published, publishCall{exchange, key, mandatory, immediate, msg})
	return nil
}

// fakeProvider выдаёт fakeChannel.
type fakeProvider struct {
	ch *fakeChannel
}

func (p *fakeProvider) WithChannel(ctx context.Context, fn func(ch Channel) error) error {
	return fn(p.ch)
}

func newTestProducer(t *testing.T, cfg routes.Config) (*Producer, *fakeChannel) {
	t.Helper()
	ch := &fakeChannel{}
	return NewProducer(ProducerConfig{
		Router:   routes.New(cfg),
		Provider: &fakeProvider{ch: ch},
	}), ch
}

// --- Topology Tests ---

func TestDeclareQueue(t *testing.T) {
	ch := &fakeChannel{}
	q := &queues.Queue{
		Name:       "bar",
		Exchange:   queues.Exchange{Name: "barexchange", Type: queues.ExchangeTopic},
		RoutingKey: "b.b.#",
	}

	if err := DeclareQueue(ch, q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ch.exchanges) != 1 || ch.exchanges[0] != "barexchange:topic" {
		t.Errorf("unexpected exchanges: %v", ch.exchanges)
	}
	if len(ch.queues) != 1 || ch.queues[0] != "bar" {
		t.Errorf("unexpected queues: %v", ch.queues)
	}
	if len(ch.bindings) != 1 || ch.bindings[0] != "bar<-barexchange[b.b.#]" {
		t.Errorf("unexpected bindings: %v", ch.bindings)
	}
}

func TestDeclareQueue_DefaultExchange(t *testing.T) {
	ch := &fakeChannel{}
	q := &queues.Queue{Name: "plain", RoutingKey: "plain"}

	if err := DeclareQueue(ch, q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ch.exchanges) != 0 || len(ch.bindings) != 0 {
		t.Errorf("default exchange must not be declared or bound: %v %v", ch.exchanges, ch.bindings)
	}
}

func TestDeclarer_Once(t *testing.T) {
	ch := &fakeChannel{}
	d := NewDeclarer(&fakeProvider{ch: ch})
	q := queues.New("foo")

	for i := 0; i < 3; i++ {
		if err := d.Ensure(context.Background(), q); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(ch.queues) != 1 {
		t.Errorf("expected one declaration, got %d", len(ch.queues))
	}
	if !d.Declared("foo") {
		t.Error("foo should be declared")
	}

	d.Reset()
	if d.Declared("foo") {
		t.Error("Reset should forget declarations")
	}
}

func TestSetupTopology(t *testing.T) {
	ch := &fakeChannel{}
	reg := queues.NewRegistry(queues.New("a"), queues.New("b"))

	if err := SetupTopology(context.Background(), NewDeclarer(&fakeProvider{ch: ch}), reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(ch.queues, ",") != "a,b" {
		t.Errorf("expected a,b declared, got %v", ch.queues)
	}
}

func TestTopologyInfo(t *testing.T) {
	reg := queues.NewRegistry(
		&queues.Queue{Name: "foo", Exchange: queues.Exchange{Name: "ex", Type: "fanout"}, RoutingKey: "xuzzy"},
		&queues.Queue{Name: "bar", Exchange: queues.Exchange{Name: "ex", Type: "fanout"}, RoutingKey: "b"},
	)

	info := TopologyInfo(reg)
	want := "ex (fanout)\n├── foo [routing: xuzzy]\n└── bar [routing: b]\n"
	if info != want {
		t.Errorf("unexpected topology:\n%s", info)
	}
}

// --- Publisher Tests ---

func TestBuildPublishing(t *testing.T) {
	msg := NewTaskMessage("tasks.add", []any{1, 2}, nil)

	pub, err := buildPublishing(routes.Options{
		OptPriority:     5,
		OptExpiration:   2 * time.Second,
		OptDeliveryMode: "transient",
		OptHeaders:      map[string]any{"x-origin": "test"},
	}, msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pub.Priority != 5 {
		t.Errorf("expected priority 5, got %d", pub.Priority)
	}
	if pub.Expiration != "2000" {
		t.Errorf("expected expiration 2000, got %s", pub.Expiration)
	}
	if pub.DeliveryMode != amqp.Transient {
		t.Errorf("expected transient delivery, got %d", pub.DeliveryMode)
	}
	if pub.Headers["x-origin"] != "test" {
		t.Errorf("expected header, got %v", pub.Headers)
	}
	if pub.MessageId != msg.ID || pub.Type != "tasks.add" {
		t.Errorf("unexpected ids: %s %s", pub.MessageId, pub.Type)
	}

	var decoded TaskMessage
	if err := json.Unmarshal(pub.Body, &decoded); err != nil {
		t.Fatalf("body should be JSON: %v", err)
	}
	if decoded.Task != "tasks.add" || len(decoded.Args) != 2 {
		t.Errorf("unexpected body: %+v", decoded)
	}
}

func TestBuildPublishing_InvalidPriority(t *testing.T) {
	_, err := buildPublishing(routes.Options{OptPriority: 1000}, NewTaskMessage("t", nil, nil))
	if err == nil {
		t.Error("expected error for priority out of range")
	}
}

func TestPublisher_NoQueue(t *testing.T) {
	p := NewPublisher(&fakeProvider{ch: &fakeChannel{}}, nil)
	err := p.Publish(context.Background(), routes.Options{"queue": "foo"}, NewTaskMessage("t", nil, nil))
	if !errors.Is(err, ErrNoQueue) {
		t.Errorf("expected ErrNoQueue for unexpanded destination, got %v", err)
	}
}

// --- Producer Tests ---

func TestProducer_SendTask(t *testing.T) {
	foo := &queues.Queue{
		Name:       "foo",
		Exchange:   queues.Exchange{Name: "fooexchange", Type: queues.ExchangeFanout},
		RoutingKey: "xuzzy",
	}
	p, ch := newTestProducer(t, routes.Config{
		Rules:  routes.Prepare(map[string]any{"tasks.add": "foo"}),
		Queues: queues.NewRegistry(foo),
	})

	msg, dest, err := p.SendTask(context.Background(), "tasks.add", []any{1, 2}, nil, routes.Options{
		OptMandatory: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dest.QueueName() != "foo" {
		t.Errorf("expected foo, got %s", dest.QueueName())
	}
	if len(ch.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(ch.published))
	}

	call := ch.published[0]
	if call.exchange != "fooexchange" || call.key != "xuzzy" {
		t.Errorf("unexpected address: %s/%s", call.exchange, call.key)
	}
	if !call.mandatory || call.immediate {
		t.Errorf("unexpected flags: mandatory=%v immediate=%v", call.mandatory, call.immediate)
	}
	if call.msg.MessageId != msg.ID {
		t.Errorf("expected message id %s, got %s", msg.ID, call.msg.MessageId)
	}
	if len(ch.queues) != 1 || ch.queues[0] != "foo" {
		t.Errorf("queue should be declared before publish, got %v", ch.queues)
	}

	// Повторная отправка не объявляет очередь снова.
	if _, _, err := p.SendTask(context.Background(), "tasks.add", nil, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ch.queues) != 1 {
		t.Errorf("queue should be declared once, got %v", ch.queues)
	}
}

func TestProducer_SendTask_QueueNotFound(t *testing.T) {
	p, ch := newTestProducer(t, routes.Config{})

	_, _, err := p.SendTask(context.Background(), "t", nil, nil, routes.Options{"queue": "x"})
	if !errors.Is(err, queues.ErrQueueNotFound) {
		t.Fatalf("expected ErrQueueNotFound, got %v", err)
	}
	if len(ch.published) != 0 {
		t.Error("nothing should be published")
	}
}

func TestProducer_SendTask_PublishError(t *testing.T) {
	p, ch := newTestProducer(t, routes.Config{CreateMissing: true})
	ch.failPublish = errors.New("channel closed")

	_, _, err := p.SendTask(context.Background(), "t", nil, nil, routes.Options{"queue": "q"})
	if err == nil || !strings.Contains(err.Error(), "channel closed") {
		t.Errorf("expected publish error, got %v", err)
	}
}
