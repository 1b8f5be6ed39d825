package audit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRingSinkUnderCapacity(t *testing.T) {
	sink := NewRingSink(5)
	ctx := context.Background()

	sink.Record(ctx, Event{Type: EventTokenInvalid, Detail: "a"})
	sink.Record(ctx, Event{Type: EventOwnershipMiss, Detail: "b"})

	if sink.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", sink.Len())
	}

	events := sink.Events()
	if events[0].Detail != "a" || events[1].Detail != "b" {
		t.Errorf("events out of order: %+v", events)
	}
}

func TestRingSinkEviction(t *testing.T) {
	sink := NewRingSink(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		sink.Record(ctx, Event{Detail: fmt.Sprintf("e%d", i)})
	}

	if sink.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", sink.Len())
	}

	events := sink.Events()
	want := []string{"e2", "e3", "e4"}
	for i, w := range want {
		if events[i].Detail != w {
			t.Errorf("events[%d].Detail = %q, want %q", i, events[i].Detail, w)
		}
	}
}

func TestRingSinkCapacityClamp(t *testing.T) {
	sink := NewRingSink(0)
	sink.Record(context.Background(), Event{Detail: "only"})
	sink.Record(context.Background(), Event{Detail: "kept"})

	if sink.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", sink.Len())
	}
	if got := sink.Events()[0].Detail; got != "kept" {
		t.Errorf("kept event = %q, want %q", got, "kept")
	}
}

func TestRingSinkConcurrent(t *testing.T) {
	sink := NewRingSink(64)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sink.Record(ctx, Event{Type: EventTokenMissing, Time: time.Now()})
			}
		}()
	}
	wg.Wait()

	if sink.Len() != 64 {
		t.Errorf("Len() = %d, want 64", sink.Len())
	}
}

func TestMultiSink(t *testing.T) {
	a := NewRingSink(4)
	b := NewRingSink(4)
	multi := MultiSink{a, b}

	multi.Record(context.Background(), Event{Type: EventSubscriptionConflict})

	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("fan-out failed: a=%d b=%d", a.Len(), b.Len())
	}
}
