package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "nodegate/internal/gateway/application"
	"nodegate/internal/gateway/ports"
	"nodegate/internal/shared/events"
)

// OutboxPublisher delivers pending outbox entries to the event sink in
// sequence order, at-least-once. A failed publish is retried with
// exponential backoff bounded by MaxBackoff; entries stay pending forever
// until the sink acknowledges them. Publish failures never surface to API
// clients, they only delay delivery.
type OutboxPublisher struct {
	Outbox         ports.OutboxRepository
	Publisher      ports.EventPublisher
	Clock          ports.Clock
	Topic          string
	BatchSize      int
	PollInterval   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Logger         *slog.Logger
}

// Run scans for pending entries until ctx is cancelled.
func (p OutboxPublisher) Run(ctx context.Context) error {
	backoff := p.initialBackoff()
	for {
		delivered, err := p.RunOnce(ctx)
		if err != nil {
			p.logPublishFailure(err)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = p.nextBackoff(backoff)
			continue
		}
		backoff = p.initialBackoff()

		wait := p.pollInterval()
		if delivered > 0 {
			// Drain without waiting while there is a backlog.
			wait = 0
		}
		if !sleep(ctx, wait) {
			return nil
		}
	}
}

// RunOnce publishes one batch of pending entries in sequence order and
// returns how many were delivered. It stops at the first failure so that
// delivery order is preserved.
func (p OutboxPublisher) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(p.Logger)
	limit := p.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := p.Topic
	if topic == "" {
		topic = "node.events"
	}

	pending, err := p.Outbox.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, entry := range pending {
		envelope, err := json.Marshal(events.Envelope{
			EventID:        entry.EventID,
			EventType:      string(entry.EventType),
			SequenceNumber: entry.SequenceNumber,
			SourceService:  "nodegate",
			ObservedAtUTC:  p.now(),
			PayloadVersion: 1,
			Payload:        json.RawMessage(entry.Payload),
		})
		if err != nil {
			return delivered, err
		}

		if err := p.Publisher.Publish(ctx, topic, envelope); err != nil {
			if attemptErr := p.Outbox.MarkAttempt(ctx, entry.EventID); attemptErr != nil {
				logger.Warn("failed attempt not recorded",
					"event", "gateway_outbox_attempt_not_recorded",
					"module", "internal/gateway",
					"layer", "worker",
					"event_id", entry.EventID,
					"error", attemptErr.Error(),
				)
			}
			return delivered, err
		}
		if err := p.Outbox.MarkDelivered(ctx, entry.EventID, p.now()); err != nil {
			return delivered, err
		}
		delivered++
	}

	if delivered > 0 {
		logger.Info("outbox publish cycle completed",
			"event", "gateway_outbox_publish_completed",
			"module", "internal/gateway",
			"layer", "worker",
			"delivered_count", delivered,
		)
	}
	return delivered, nil
}

func (p OutboxPublisher) logPublishFailure(err error) {
	application.ResolveLogger(p.Logger).Error("outbox publish failed, will retry",
		"event", "gateway_outbox_publish_failed",
		"module", "internal/gateway",
		"layer", "worker",
		"error", err.Error(),
	)
}

func (p OutboxPublisher) now() time.Time {
	if p.Clock != nil {
		return p.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (p OutboxPublisher) pollInterval() time.Duration {
	if p.PollInterval > 0 {
		return p.PollInterval
	}
	return 2 * time.Second
}

func (p OutboxPublisher) initialBackoff() time.Duration {
	if p.InitialBackoff > 0 {
		return p.InitialBackoff
	}
	return 500 * time.Millisecond
}

func (p OutboxPublisher) maxBackoff() time.Duration {
	if p.MaxBackoff > 0 {
		return p.MaxBackoff
	}
	return 30 * time.Second
}

func (p OutboxPublisher) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if bound := p.maxBackoff(); next > bound {
		return bound
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
