package tracking

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTicker struct {
	ch chan time.Time

	mu      sync.Mutex
	stopped bool
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time)}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// tick reports whether the driver took the tick.
func (f *fakeTicker) tick() bool {
	select {
	case f.ch <- time.Now():
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

func startFake(t *testing.T, orderID string) (*Tracker, *fakeTicker) {
	t.Helper()
	ft := newFakeTicker()
	tr := Start(orderID, WithTicker(func(time.Duration) Ticker { return ft }))
	return tr, ft
}

func next(t *testing.T, ch <-chan State) State {
	t.Helper()
	select {
	case st, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed early")
		}
		return st
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state")
	}
	return State{}
}

func TestTracker_StartsAtOrderPlaced(t *testing.T) {
	tr, _ := startFake(t, "o1")
	defer tr.Stop()

	st := tr.State()
	if st.Index != 0 || st.Milestone != "Order Placed" || st.Delivered {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	for i, c := range st.Completed {
		if c {
			t.Fatalf("milestone %d completed at start", i)
		}
	}
}

func TestTracker_AdvancesOneStepPerTick(t *testing.T) {
	tr, ft := startFake(t, "o1")
	defer tr.Stop()

	sub, _ := tr.Subscribe()
	if st := next(t, sub); st.Index != 0 {
		t.Fatalf("expected current state first, got %+v", st)
	}

	want := []string{"Rider Assigned", "Items Purchased", "Out for Delivery", "Delivered"}
	for i, name := range want {
		if !ft.tick() {
			t.Fatalf("tick %d not consumed", i+1)
		}
		st := next(t, sub)
		if st.Index != i+1 || st.Milestone != name {
			t.Fatalf("tick %d: unexpected state %+v", i+1, st)
		}
		for j := 0; j < st.Index; j++ {
			if !st.Completed[j] {
				t.Fatalf("tick %d: milestone %d not completed", i+1, j)
			}
		}
	}

	if _, ok := <-sub; ok {
		t.Fatal("expected subscription to close on delivery")
	}
	if st := tr.State(); !st.Delivered || st.Description != "Your order has been delivered." {
		t.Fatalf("unexpected final state: %+v", st)
	}
}

func TestTracker_StopsAfterDelivered(t *testing.T) {
	tr, ft := startFake(t, "o1")

	for i := 0; i < 4; i++ {
		if !ft.tick() {
			t.Fatalf("tick %d not consumed", i+1)
		}
	}
	// The tick after delivery ends the driver.
	if !ft.tick() {
		t.Fatal("fifth tick not consumed")
	}
	select {
	case <-tr.Done():
	case <-time.After(time.Second):
		t.Fatal("driver did not exit after delivery")
	}
	if !ft.isStopped() {
		t.Fatal("ticker not released")
	}
	if ft.tick() {
		t.Fatal("sixth tick consumed by a finished tracker")
	}
	if st := tr.State(); st.Index != LastIndex {
		t.Fatalf("index moved past delivered: %+v", st)
	}

	tr.Stop()
}

func TestTracker_StopIsIdempotent(t *testing.T) {
	tr, ft := startFake(t, "o1")
	sub, _ := tr.Subscribe()
	next(t, sub)

	tr.Stop()
	tr.Stop()

	if _, ok := <-sub; ok {
		t.Fatal("expected subscription closed by Stop")
	}
	if !ft.isStopped() {
		t.Fatal("ticker not released on Stop")
	}
	if ft.tick() {
		t.Fatal("stopped tracker consumed a tick")
	}
}

func TestTracker_SubscribeAfterDelivered(t *testing.T) {
	tr, ft := startFake(t, "o1")
	defer tr.Stop()
	for i := 0; i < 4; i++ {
		ft.tick()
	}
	sub, _ := tr.Subscribe()
	var last State
	for st := range sub {
		last = st
	}
	if !last.Delivered {
		t.Fatalf("expected delivered snapshot, got %+v", last)
	}
}

func TestTracker_Unsubscribe(t *testing.T) {
	tr, ft := startFake(t, "o1")
	defer tr.Stop()

	sub, unsubscribe := tr.Subscribe()
	next(t, sub)
	unsubscribe()
	unsubscribe()

	if _, ok := <-sub; ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
	if !ft.tick() {
		t.Fatal("tracker stalled after unsubscribe")
	}
}

func TestTracker_RealTicker(t *testing.T) {
	tr := Start("o1", WithInterval(time.Millisecond))
	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("tracker did not finish")
	}
	if !tr.State().Delivered {
		t.Fatal("expected delivered")
	}
	tr.Stop()
}

func TestMilestones(t *testing.T) {
	ms := Milestones()
	if len(ms) != 5 || ms[0].Name != "Order Placed" || ms[LastIndex].Name != "Delivered" {
		t.Fatalf("unexpected milestones: %+v", ms)
	}
	ms[0].Name = "changed"
	if Milestones()[0].Name != "Order Placed" {
		t.Fatal("milestones mutated through returned slice")
	}
}
