package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"nodegate/internal/gateway/domain/entities"
)

// OutboxStore is an in-memory OutboxRepository used by tests and local runs.
type OutboxStore struct {
	mu      sync.Mutex
	entries []entities.OutboxEntry
	seen    map[int64]bool
}

func NewOutboxStore() *OutboxStore {
	return &OutboxStore{seen: make(map[int64]bool)}
}

func (s *OutboxStore) AppendEvent(_ context.Context, event entities.NodeEvent, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[event.SequenceNumber] {
		return nil
	}
	s.seen[event.SequenceNumber] = true
	s.entries = append(s.entries, entities.OutboxEntry{
		EventID:        uuid.NewString(),
		SequenceNumber: event.SequenceNumber,
		EventType:      event.Type,
		Payload:        append([]byte(nil), payload...),
		Status:         entities.OutboxStatusPending,
		CreatedAtUnix:  event.ObservedAtUnix,
	})
	return nil
}

func (s *OutboxStore) ListPending(_ context.Context, limit int) ([]entities.OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []entities.OutboxEntry
	for _, entry := range s.entries {
		if entry.Status == entities.OutboxStatusPending {
			pending = append(pending, entry)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].SequenceNumber < pending[j].SequenceNumber
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *OutboxStore) MarkAttempt(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].EventID == eventID && s.entries[i].Status == entities.OutboxStatusPending {
			s.entries[i].AttemptCount++
			return nil
		}
	}
	return fmt.Errorf("no pending outbox entry with event id %s", eventID)
}

func (s *OutboxStore) MarkDelivered(_ context.Context, eventID string, deliveredAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].EventID == eventID {
			s.entries[i].Status = entities.OutboxStatusDelivered
			s.entries[i].DeliveredAt = &deliveredAt
			s.entries[i].AttemptCount++
			return nil
		}
	}
	return fmt.Errorf("no outbox entry with event id %s", eventID)
}

// Entries returns a snapshot of all outbox entries in append order.
func (s *OutboxStore) Entries() []entities.OutboxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.OutboxEntry(nil), s.entries...)
}
