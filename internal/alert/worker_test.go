package alert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aegisguard/aegis/internal/model"
	"github.com/aegisguard/aegis/internal/testutil"
)

// collectingDispatcher records dispatched events for assertions.
type collectingDispatcher struct {
	mu     sync.Mutex
	events []*model.ThreatEvent
}

func (d *collectingDispatcher) DispatchThreatEvent(_ context.Context, event *model.ThreatEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *collectingDispatcher) snapshot() []*model.ThreatEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*model.ThreatEvent{}, d.events...)
}

// failingDispatcher rejects every event.
type failingDispatcher struct{}

func (failingDispatcher) DispatchThreatEvent(context.Context, *model.ThreatEvent) error {
	return errors.New("receiver unavailable")
}

func newTestRedis(t *testing.T, ctx context.Context) *redis.Client {
	t.Helper()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("failed to parse REDIS_URL: %v", err)
	}

	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to ping Redis: %v", err)
	}
	if err := testutil.FlushRedis(ctx, client); err != nil {
		t.Fatalf("failed to flush Redis: %v", err)
	}

	return client
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t, ctx)

	publisher := NewPublisher(client, quietLogger(), nil)

	streamID, err := publisher.Publish(ctx, validPayload())
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if streamID == "" {
		t.Fatal("Publish() returned empty stream ID")
	}

	length, err := client.XLen(ctx, StreamKey).Result()
	if err != nil {
		t.Fatalf("XLen() error = %v", err)
	}
	if length != 1 {
		t.Errorf("stream length = %d, want 1", length)
	}
}

func TestWorker_DispatchesPublishedEvents(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t, ctx)

	publisher := NewPublisher(client, quietLogger(), nil)

	first := validPayload()
	first.ThreatID = "threat-a"
	if _, err := publisher.Publish(ctx, first); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	second := validPayload()
	second.ThreatID = "threat-b"
	second.EventType = "threat.resolved"
	second.Status = "resolved"
	if _, err := publisher.Publish(ctx, second); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	dispatcher := &collectingDispatcher{}
	worker := NewWorker(client, dispatcher, quietLogger(), NewConsumerID(), nil)
	worker.SetBlockTimeout(100 * time.Millisecond)

	runErr := make(chan error, 1)
	go func() { runErr <- worker.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(dispatcher.snapshot()) >= 2 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := worker.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	<-runErr

	events := dispatcher.snapshot()
	if len(events) != 2 {
		t.Fatalf("dispatched %d events, want 2", len(events))
	}

	byThreat := map[string]*model.ThreatEvent{}
	for _, event := range events {
		byThreat[event.ThreatID] = event
	}
	if got := byThreat["threat-a"]; got == nil || got.Type != model.EventTypeThreatReported {
		t.Errorf("threat-a event = %+v, want threat.reported", got)
	}
	if got := byThreat["threat-b"]; got == nil || got.Type != model.EventTypeThreatResolved {
		t.Errorf("threat-b event = %+v, want threat.resolved", got)
	}

	// Everything dispatched must be acknowledged
	pending, err := client.XPending(ctx, StreamKey, ConsumerGroup).Result()
	if err != nil {
		t.Fatalf("XPending() error = %v", err)
	}
	if pending.Count != 0 {
		t.Errorf("pending count = %d, want 0", pending.Count)
	}
}

func TestWorker_DeadLettersPoisonMessages(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t, ctx)

	// Malformed JSON goes straight to the dead-letter stream
	if err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		ID:     "*",
		Values: map[string]interface{}{"payload": "{not json"},
	}).Err(); err != nil {
		t.Fatalf("XAdd() error = %v", err)
	}

	// Valid JSON with an unknown category is also poison
	if err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		ID:     "*",
		Values: map[string]interface{}{"payload": `{"et":"threat.reported","tid":"t1","oid":"o1","c":"asteroid","sv":"high","t":1}`},
	}).Err(); err != nil {
		t.Fatalf("XAdd() error = %v", err)
	}

	dispatcher := &collectingDispatcher{}
	worker := NewWorker(client, dispatcher, quietLogger(), NewConsumerID(), nil)
	worker.SetBlockTimeout(100 * time.Millisecond)

	runErr := make(chan error, 1)
	go func() { runErr <- worker.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if n, _ := client.XLen(ctx, DeadLetterStreamKey).Result(); n >= 2 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := worker.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	<-runErr

	dead, err := client.XLen(ctx, DeadLetterStreamKey).Result()
	if err != nil {
		t.Fatalf("XLen(dlq) error = %v", err)
	}
	if dead != 2 {
		t.Errorf("dead letter count = %d, want 2", dead)
	}
	if len(dispatcher.snapshot()) != 0 {
		t.Errorf("dispatched %d events, want 0", len(dispatcher.snapshot()))
	}
}

// A batch mixing a poison entry with a valid one whose dispatch fails
// must dead-letter the poison entry exactly once: only the valid entry
// may stay pending for redelivery.
func TestWorker_PoisonNotDuplicatedOnDispatchFailure(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t, ctx)

	if err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		ID:     "*",
		Values: map[string]interface{}{"payload": "{not json"},
	}).Err(); err != nil {
		t.Fatalf("XAdd() error = %v", err)
	}

	publisher := NewPublisher(client, quietLogger(), nil)
	if _, err := publisher.Publish(ctx, validPayload()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	worker := NewWorker(client, failingDispatcher{}, quietLogger(), NewConsumerID(), nil)
	worker.SetBlockTimeout(100 * time.Millisecond)
	worker.maxRetries = 1
	worker.claimInterval = time.Millisecond
	worker.claimIdle = time.Millisecond

	if err := worker.ensureConsumerGroup(ctx); err != nil {
		t.Fatalf("ensureConsumerGroup() error = %v", err)
	}

	// First pass reads both entries: the poison one is dead-lettered
	// and acknowledged, the valid one fails dispatch and stays pending.
	if err := worker.processOnce(ctx); err == nil {
		t.Fatal("processOnce() error = nil, want dispatch error")
	}

	// Second pass reclaims only the pending valid entry.
	time.Sleep(10 * time.Millisecond)
	if err := worker.processOnce(ctx); err == nil {
		t.Fatal("processOnce() retry error = nil, want dispatch error")
	}

	dead, err := client.XLen(ctx, DeadLetterStreamKey).Result()
	if err != nil {
		t.Fatalf("XLen(dlq) error = %v", err)
	}
	if dead != 1 {
		t.Errorf("dead letter count = %d, want 1", dead)
	}

	pending, err := client.XPending(ctx, StreamKey, ConsumerGroup).Result()
	if err != nil {
		t.Fatalf("XPending() error = %v", err)
	}
	if pending.Count != 1 {
		t.Errorf("pending count = %d, want 1", pending.Count)
	}
}
