package negotiation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/imrishuroy/bargainbot/internal/negotiation"
	"github.com/imrishuroy/bargainbot/internal/oracle"
	"github.com/imrishuroy/bargainbot/internal/validation"
)

type countingRecorder struct {
	mu    sync.Mutex
	names []string
}

func (r *countingRecorder) Incr(ctx context.Context, name string, _ map[string]string) error {
	// a real publisher gives up on a finished context
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	return nil
}

func (r *countingRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// genai pulls in opencensus, whose view worker starts at init.
var ignoreOpenCensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

func waitSettled(t *testing.T, d *negotiation.Desk) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		t.Fatalf("negotiations did not settle: %v", err)
	}
}

func TestDesk_SubmitSettlesSuccess(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	rec := &countingRecorder{}
	d := negotiation.NewDesk(negotiation.DeskConfig{
		Orchestrator: negotiation.NewOrchestrator(oracle.New(scripted()), nil, nil),
		Metrics:      rec,
	})

	pending, err := d.Submit(context.Background(), "s1", negotiation.Request{ProductLink: "https://example.com/product/42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending.Status != negotiation.StatusPending {
		t.Fatalf("expected pending record, got %s", pending.Status)
	}
	waitSettled(t, d)

	got, ok := d.Sessions().Get("s1").Get(pending.ID)
	if !ok {
		t.Fatal("record missing")
	}
	if got.Status != negotiation.StatusSuccess || got.Result == nil {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Result.Negotiation.NegotiatedPrice != "UGX 450,000" {
		t.Fatalf("unexpected price %q", got.Result.Negotiation.NegotiatedPrice)
	}
	if names := rec.seen(); len(names) != 1 || names[0] != "NegotiationSucceeded" {
		t.Fatalf("unexpected metrics %v", names)
	}
}

func TestDesk_SubmitSettlesFailure(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	rec := &countingRecorder{}
	gen := scripted().Fail(oracle.FlowSuggestUpsells, errors.New("quota exceeded"))
	d := negotiation.NewDesk(negotiation.DeskConfig{
		Orchestrator: negotiation.NewOrchestrator(oracle.New(gen), nil, nil),
		Metrics:      rec,
	})

	pending, err := d.Submit(context.Background(), "s1", negotiation.Request{ProductLink: "https://example.com/product/42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitSettled(t, d)

	got, _ := d.Sessions().Get("s1").Get(pending.ID)
	if got.Status != negotiation.StatusError || got.Error != negotiation.FailureMessage || got.Result != nil {
		t.Fatalf("unexpected record: %+v", got)
	}
	if names := rec.seen(); len(names) != 1 || names[0] != "NegotiationFailed" {
		t.Fatalf("unexpected metrics %v", names)
	}
}

func TestDesk_InvalidRequestCreatesNoRecord(t *testing.T) {
	gen := scripted()
	d := negotiation.NewDesk(negotiation.DeskConfig{
		Orchestrator: negotiation.NewOrchestrator(oracle.New(gen), nil, nil),
	})

	_, err := d.Submit(context.Background(), "s1", negotiation.Request{ProductLink: "not-a-url"})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	if len(d.Sessions().Get("s1").List()) != 0 {
		t.Fatal("expected no record for invalid input")
	}
	if gen.Calls(oracle.FlowNegotiatePrice) != 0 {
		t.Fatal("oracle must not be called")
	}
}

func TestDesk_SubmitOutlivesRequestContext(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	gen := scripted().Delay(oracle.FlowNegotiatePrice, 20*time.Millisecond)
	d := negotiation.NewDesk(negotiation.DeskConfig{
		Orchestrator: negotiation.NewOrchestrator(oracle.New(gen), nil, nil),
	})

	ctx, cancel := context.WithCancel(context.Background())
	pending, err := d.Submit(ctx, "s1", negotiation.Request{ProductLink: "https://example.com/product/42"})
	cancel()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitSettled(t, d)

	got, _ := d.Sessions().Get("s1").Get(pending.ID)
	if got.Status != negotiation.StatusSuccess {
		t.Fatalf("expected success after request ended, got %+v", got)
	}
}

func TestDesk_ClearWhilePending(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	gen := scripted().Delay(oracle.FlowNegotiatePrice, 20*time.Millisecond)
	d := negotiation.NewDesk(negotiation.DeskConfig{
		Orchestrator: negotiation.NewOrchestrator(oracle.New(gen), nil, nil),
	})

	if _, err := d.Submit(context.Background(), "s1", negotiation.Request{ProductLink: "https://example.com/product/42"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d.Sessions().Get("s1").Clear()
	waitSettled(t, d)

	if got := d.Sessions().Get("s1").List(); len(got) != 0 {
		t.Fatalf("expected cleared history to stay empty, got %+v", got)
	}
}

func TestDesk_TimeoutStillCountsFailure(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	rec := &countingRecorder{}
	gen := scripted().Delay(oracle.FlowNegotiatePrice, time.Second)
	d := negotiation.NewDesk(negotiation.DeskConfig{
		Orchestrator: negotiation.NewOrchestrator(oracle.New(gen), nil, nil),
		Metrics:      rec,
		Timeout:      20 * time.Millisecond,
	})

	pending, err := d.Submit(context.Background(), "s1", negotiation.Request{ProductLink: "https://example.com/product/42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitSettled(t, d)

	got, _ := d.Sessions().Get("s1").Get(pending.ID)
	if got.Status != negotiation.StatusError {
		t.Fatalf("expected an error record, got %+v", got)
	}
	if names := rec.seen(); len(names) != 1 || names[0] != "NegotiationFailed" {
		t.Fatalf("unexpected metrics %v", names)
	}
}
