package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"nodegate/internal/gateway/adapters/memory"
	"nodegate/internal/gateway/domain/entities"
	"nodegate/internal/shared/events"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func fillOutbox(t *testing.T, outbox *memory.OutboxStore, count int) {
	t.Helper()
	for i := 1; i <= count; i++ {
		event := entities.NodeEvent{
			SequenceNumber: int64(i),
			Type:           entities.NodeEventPaymentReceived,
			PaymentID:      "pay",
		}
		if err := outbox.AppendEvent(context.Background(), event, []byte(`{"payment_id":"pay"}`)); err != nil {
			t.Fatalf("AppendEvent(%d) failed: %v", i, err)
		}
	}
}

func TestPublisherDeliversInSequenceOrder(t *testing.T) {
	outbox := memory.NewOutboxStore()
	sink := memory.NewSink()
	fillOutbox(t, outbox, 3)

	publisher := OutboxPublisher{
		Outbox:    outbox,
		Publisher: sink,
		Clock:     fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		Topic:     "node.events",
	}

	delivered, err := publisher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if delivered != 3 {
		t.Fatalf("expected 3 delivered, got %d", delivered)
	}

	published := sink.Published()
	if len(published) != 3 {
		t.Fatalf("expected 3 envelopes, got %d", len(published))
	}
	for i, raw := range published {
		var envelope events.Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			t.Fatalf("envelope %d is not JSON: %v", i, err)
		}
		if envelope.SequenceNumber != int64(i+1) {
			t.Fatalf("envelope %d carries sequence %d", i, envelope.SequenceNumber)
		}
		if envelope.SourceService != "nodegate" {
			t.Fatalf("envelope source %q", envelope.SourceService)
		}
		if envelope.PayloadVersion != 1 {
			t.Fatalf("envelope payload version %d", envelope.PayloadVersion)
		}
	}
	for _, topic := range sink.Topics() {
		if topic != "node.events" {
			t.Fatalf("published to topic %q", topic)
		}
	}

	for _, entry := range outbox.Entries() {
		if entry.Status != entities.OutboxStatusDelivered {
			t.Fatalf("entry %d still %q after delivery", entry.SequenceNumber, entry.Status)
		}
		if entry.DeliveredAt == nil {
			t.Fatalf("entry %d missing delivered timestamp", entry.SequenceNumber)
		}
	}
}

func TestPublisherStopsAtFirstFailure(t *testing.T) {
	outbox := memory.NewOutboxStore()
	sink := memory.NewSink()
	fillOutbox(t, outbox, 3)

	sink.FailNext(1, errors.New("broker unavailable"))
	publisher := OutboxPublisher{Outbox: outbox, Publisher: sink}

	delivered, err := publisher.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected the publish failure to surface")
	}
	if delivered != 0 {
		t.Fatalf("nothing should be delivered past a failure, got %d", delivered)
	}

	pending, err := outbox.ListPending(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("all entries must remain pending, got %d", len(pending))
	}

	// After the sink recovers the backlog drains in order.
	delivered, err = publisher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("retry cycle failed: %v", err)
	}
	if delivered != 3 {
		t.Fatalf("expected 3 delivered on retry, got %d", delivered)
	}
	published := sink.Published()
	for i, raw := range published {
		var envelope events.Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			t.Fatalf("envelope %d is not JSON: %v", i, err)
		}
		if envelope.SequenceNumber != int64(i+1) {
			t.Fatalf("delivery order broken at index %d: sequence %d", i, envelope.SequenceNumber)
		}
	}
}

func TestPublisherSurvivesRestart(t *testing.T) {
	outbox := memory.NewOutboxStore()
	sink := memory.NewSink()
	fillOutbox(t, outbox, 2)

	first := OutboxPublisher{Outbox: outbox, Publisher: sink, BatchSize: 1}
	if _, err := first.RunOnce(context.Background()); err != nil {
		t.Fatalf("first cycle failed: %v", err)
	}

	// A fresh publisher over the same store picks up where the old one
	// stopped; nothing is re-sent and nothing is lost.
	second := OutboxPublisher{Outbox: outbox, Publisher: sink}
	delivered, err := second.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second cycle failed: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected the remaining entry only, got %d delivered", delivered)
	}
	if got := len(sink.Published()); got != 2 {
		t.Fatalf("expected 2 total envelopes across restarts, got %d", got)
	}

	pending, err := outbox.ListPending(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected an empty backlog, got %d pending", len(pending))
	}
}

func TestPublisherCountsEveryAttempt(t *testing.T) {
	outbox := memory.NewOutboxStore()
	sink := memory.NewSink()
	fillOutbox(t, outbox, 2)

	sink.FailNext(1, errors.New("broker unavailable"))
	publisher := OutboxPublisher{Outbox: outbox, Publisher: sink}

	if _, err := publisher.RunOnce(context.Background()); err == nil {
		t.Fatal("expected the publish failure to surface")
	}
	entries := outbox.Entries()
	if entries[0].AttemptCount != 1 {
		t.Fatalf("failed publish must be counted, got %d attempts", entries[0].AttemptCount)
	}
	if entries[0].Status != entities.OutboxStatusPending {
		t.Fatalf("entry must stay pending after a failed attempt, got %q", entries[0].Status)
	}
	if entries[1].AttemptCount != 0 {
		t.Fatalf("untried entry must have no attempts, got %d", entries[1].AttemptCount)
	}

	if _, err := publisher.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry cycle failed: %v", err)
	}
	entries = outbox.Entries()
	if entries[0].AttemptCount != 2 {
		t.Fatalf("delivery counts as the final attempt, got %d", entries[0].AttemptCount)
	}
	if entries[1].AttemptCount != 1 {
		t.Fatalf("first-try delivery is one attempt, got %d", entries[1].AttemptCount)
	}
}

func TestPublisherBatchSizeBoundsEachCycle(t *testing.T) {
	outbox := memory.NewOutboxStore()
	sink := memory.NewSink()
	fillOutbox(t, outbox, 5)

	publisher := OutboxPublisher{Outbox: outbox, Publisher: sink, BatchSize: 2}

	for _, want := range []int{2, 2, 1, 0} {
		delivered, err := publisher.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("cycle failed: %v", err)
		}
		if delivered != want {
			t.Fatalf("expected %d delivered this cycle, got %d", want, delivered)
		}
	}
}

func TestPublisherBackoffIsCapped(t *testing.T) {
	publisher := OutboxPublisher{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     400 * time.Millisecond,
	}

	backoff := publisher.initialBackoff()
	for _, want := range []time.Duration{
		200 * time.Millisecond,
		400 * time.Millisecond,
		400 * time.Millisecond,
	} {
		backoff = publisher.nextBackoff(backoff)
		if backoff != want {
			t.Fatalf("expected backoff %v, got %v", want, backoff)
		}
	}
}
