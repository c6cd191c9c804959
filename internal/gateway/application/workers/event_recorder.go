package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	application "nodegate/internal/gateway/application"
	"nodegate/internal/gateway/ports"
)

// EventRecorder drains the engine's event stream into the outbox. The event
// and its pending outbox entry are persisted in one unit of work BEFORE the
// engine is acked, so a crash between persist and ack only causes a
// redelivery that AppendEvent absorbs by sequence number.
type EventRecorder struct {
	Source ports.EventSource
	Outbox ports.OutboxRepository
	Logger *slog.Logger
}

type eventPayload struct {
	PaymentID      string  `json:"payment_id,omitempty"`
	PaymentHash    string  `json:"payment_hash,omitempty"`
	AmountMsat     *uint64 `json:"amount_msat,omitempty"`
	UserChannelID  string  `json:"user_channel_id,omitempty"`
	CounterpartyID string  `json:"counterparty_node_id,omitempty"`
	FeeEarnedMsat  *uint64 `json:"fee_earned_msat,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}

// Run consumes events until ctx is cancelled.
func (r EventRecorder) Run(ctx context.Context) error {
	for {
		if err := r.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// RunOnce records a single event: next -> persist -> ack.
func (r EventRecorder) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)

	event, err := r.Source.NextEvent(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(eventPayload{
		PaymentID:      event.PaymentID,
		PaymentHash:    event.PaymentHash,
		AmountMsat:     event.AmountMsat,
		UserChannelID:  event.UserChannelID,
		CounterpartyID: event.CounterpartyID,
		FeeEarnedMsat:  event.FeeEarnedMsat,
		Reason:         event.Reason,
	})
	if err != nil {
		return err
	}

	if err := r.Outbox.AppendEvent(ctx, event, payload); err != nil {
		logger.Error("event persist failed",
			"event", "gateway_event_persist_failed",
			"module", "internal/gateway",
			"layer", "worker",
			"sequence_number", event.SequenceNumber,
			"event_type", string(event.Type),
			"error", err.Error(),
		)
		return err
	}

	if err := r.Source.EventHandled(ctx, event.SequenceNumber); err != nil {
		// Already persisted; the engine will redeliver and AppendEvent will
		// no-op on the duplicate sequence number.
		logger.Warn("event ack failed",
			"event", "gateway_event_ack_failed",
			"module", "internal/gateway",
			"layer", "worker",
			"sequence_number", event.SequenceNumber,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("event recorded",
		"event", "gateway_event_recorded",
		"module", "internal/gateway",
		"layer", "worker",
		"sequence_number", event.SequenceNumber,
		"event_type", string(event.Type),
	)
	return nil
}
