package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"nodegate/internal/gateway/adapters/memory"
	"nodegate/internal/gateway/domain/entities"
	"nodegate/internal/gateway/ports"
)

type ackFailingSource struct {
	*memory.Engine
	failAcks int
	ackErr   error
}

func (s *ackFailingSource) EventHandled(ctx context.Context, sequenceNumber int64) error {
	if s.failAcks > 0 {
		s.failAcks--
		return s.ackErr
	}
	return s.Engine.EventHandled(ctx, sequenceNumber)
}

func TestRecorderPersistsBeforeAck(t *testing.T) {
	engine := memory.NewEngine()
	outbox := memory.NewOutboxStore()
	recorder := EventRecorder{Source: engine, Outbox: outbox}

	amount := uint64(25_000)
	emitted := engine.EmitEvent(entities.NodeEvent{
		Type:       entities.NodeEventPaymentReceived,
		PaymentID:  "pay-1",
		AmountMsat: &amount,
	})

	if err := recorder.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	entries := outbox.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 outbox entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.SequenceNumber != emitted.SequenceNumber {
		t.Fatalf("entry sequence %d, expected %d", entry.SequenceNumber, emitted.SequenceNumber)
	}
	if entry.Status != entities.OutboxStatusPending {
		t.Fatalf("fresh entry status %q, expected pending", entry.Status)
	}

	var payload map[string]any
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["payment_id"] != "pay-1" {
		t.Fatalf("payload payment_id = %v", payload["payment_id"])
	}

	// The event was acked, so the stream is empty and a second pass blocks.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.NextEvent(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected empty event stream, got %v", err)
	}
}

func TestRecorderKeepsEntryWhenAckFails(t *testing.T) {
	engine := memory.NewEngine()
	outbox := memory.NewOutboxStore()
	source := &ackFailingSource{Engine: engine, failAcks: 1, ackErr: errors.New("engine hiccup")}
	recorder := EventRecorder{Source: source, Outbox: outbox}

	engine.EmitEvent(entities.NodeEvent{Type: entities.NodeEventChannelReady, UserChannelID: "ucid-1"})

	if err := recorder.RunOnce(context.Background()); err == nil {
		t.Fatal("expected the ack failure to surface")
	}
	if len(outbox.Entries()) != 1 {
		t.Fatalf("persisted entry must survive an ack failure, got %d entries", len(outbox.Entries()))
	}

	// The engine redelivers the unacked event; the duplicate append is a
	// no-op, so the outbox still holds exactly one entry.
	if err := recorder.RunOnce(context.Background()); err != nil {
		t.Fatalf("redelivery pass failed: %v", err)
	}
	if len(outbox.Entries()) != 1 {
		t.Fatalf("redelivery must not duplicate the entry, got %d entries", len(outbox.Entries()))
	}
}

type failingOutbox struct {
	*memory.OutboxStore
	failAppends int
	appendErr   error
}

func (o *failingOutbox) AppendEvent(ctx context.Context, event entities.NodeEvent, payload []byte) error {
	if o.failAppends > 0 {
		o.failAppends--
		return o.appendErr
	}
	return o.OutboxStore.AppendEvent(ctx, event, payload)
}

var _ ports.OutboxRepository = (*failingOutbox)(nil)

func TestRecorderDoesNotAckWhenPersistFails(t *testing.T) {
	engine := memory.NewEngine()
	outbox := &failingOutbox{OutboxStore: memory.NewOutboxStore(), failAppends: 1, appendErr: errors.New("db down")}
	recorder := EventRecorder{Source: engine, Outbox: outbox}

	emitted := engine.EmitEvent(entities.NodeEvent{Type: entities.NodeEventPaymentFailed, PaymentID: "pay-2"})

	if err := recorder.RunOnce(context.Background()); err == nil {
		t.Fatal("expected the persist failure to surface")
	}

	// The event must still be deliverable.
	redelivered, err := engine.NextEvent(context.Background())
	if err != nil {
		t.Fatalf("NextEvent failed: %v", err)
	}
	if redelivered.SequenceNumber != emitted.SequenceNumber {
		t.Fatalf("expected redelivery of sequence %d, got %d", emitted.SequenceNumber, redelivered.SequenceNumber)
	}

	if err := recorder.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry pass failed: %v", err)
	}
	if len(outbox.Entries()) != 1 {
		t.Fatalf("expected 1 outbox entry after retry, got %d", len(outbox.Entries()))
	}
}
