package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/bargainbot/internal/aws/awstest"
	"github.com/imrishuroy/bargainbot/internal/idempotency"
	"github.com/imrishuroy/bargainbot/internal/orders"
)

type countingRecorder struct {
	mu    sync.Mutex
	count map[string]int
}

func (r *countingRecorder) Incr(_ context.Context, name string, _ map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == nil {
		r.count = map[string]int{}
	}
	r.count[name]++
	return nil
}

func sqsEvent(t *testing.T, msgs ...orders.PlacedMessage) events.SQSEvent {
	t.Helper()
	var ev events.SQSEvent
	for i, m := range msgs {
		body, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		ev.Records = append(ev.Records, events.SQSMessage{MessageId: string(rune('a' + i)), Body: string(body)})
	}
	return ev
}

func newTestProcessor() (*Processor, *awstest.Dynamo, *countingRecorder) {
	fake := awstest.NewDynamo()
	rec := &countingRecorder{}
	p := NewProcessor(fake, "idempotency", 48*time.Hour, rec, nil)
	return p, fake, rec
}

func TestWorkerProcess_Dispatches(t *testing.T) {
	p, _, rec := newTestProcessor()
	ctx := context.Background()

	err := p.Handle(ctx, sqsEvent(t, orders.PlacedMessage{OrderID: "o1", IdempotencyKey: "k1", Total: 3850, ItemCount: 2}))
	if err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}

	stored, err := p.idempStore.Get(ctx, idempotency.DispatchKey("o1"))
	if err != nil || stored == nil {
		t.Fatalf("dispatch record missing: %v", err)
	}
	if stored.Status != idempotency.StatusDone {
		t.Fatalf("expected DONE, got %s", stored.Status)
	}
	var a orders.Assignment
	if err := json.Unmarshal([]byte(stored.ResponseBody), &a); err != nil {
		t.Fatalf("stored assignment is not json: %v", err)
	}
	if a.OrderID != "o1" || a.Rider == "" || a.Status != orders.StatusDispatched {
		t.Fatalf("unexpected assignment %+v", a)
	}
	if rec.count["OrdersDispatched"] != 1 {
		t.Fatalf("expected one dispatch metric, got %v", rec.count)
	}
}

func TestWorkerProcess_DuplicateSkipped(t *testing.T) {
	p, fake, rec := newTestProcessor()
	ctx := context.Background()
	ev := sqsEvent(t, orders.PlacedMessage{OrderID: "o1", IdempotencyKey: "k1"})

	if err := p.Handle(ctx, ev); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	updates := fake.UpdateCalls
	if err := p.Handle(ctx, ev); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if fake.UpdateCalls != updates {
		t.Fatal("redelivered message was dispatched again")
	}
	if rec.count["OrdersDispatched"] != 1 {
		t.Fatalf("expected one dispatch metric, got %v", rec.count)
	}
}

func TestWorkerProcess_RetriesFailedDispatch(t *testing.T) {
	p, _, _ := newTestProcessor()
	ctx := context.Background()
	key := idempotency.DispatchKey("o1")

	if _, err := p.idempStore.CreateIfNotExists(ctx, key, "o1"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := p.idempStore.MarkFailed(ctx, key, "earlier crash"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := p.Handle(ctx, sqsEvent(t, orders.PlacedMessage{OrderID: "o1"})); err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	stored, _ := p.idempStore.Get(ctx, key)
	if stored.Status != idempotency.StatusDone {
		t.Fatalf("expected retry to complete, got %s", stored.Status)
	}
}

func TestWorkerProcess_MalformedBody(t *testing.T) {
	p, _, _ := newTestProcessor()

	ev := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m1", Body: "not json"}}}
	if err := p.Handle(context.Background(), ev); err == nil {
		t.Fatal("expected error for malformed body")
	}

	ev = events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m2", Body: `{"total":10}`}}}
	if err := p.Handle(context.Background(), ev); err == nil {
		t.Fatal("expected error for missing order id")
	}
}

func TestWorkerProcess_StoreFailure(t *testing.T) {
	p, fake, _ := newTestProcessor()
	boom := errors.New("throttled")
	fake.FailOn("PutItem", boom)

	err := p.Handle(context.Background(), sqsEvent(t, orders.PlacedMessage{OrderID: "o1"}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
