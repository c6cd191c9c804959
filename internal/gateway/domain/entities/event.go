package entities

import "time"

type NodeEventType string

const (
	NodeEventPaymentReceived  NodeEventType = "payment_received"
	NodeEventPaymentFailed    NodeEventType = "payment_failed"
	NodeEventPaymentForwarded NodeEventType = "payment_forwarded"
	NodeEventChannelPending   NodeEventType = "channel_pending"
	NodeEventChannelReady     NodeEventType = "channel_ready"
	NodeEventChannelClosed    NodeEventType = "channel_closed"
)

// NodeEvent is an immutable occurrence observed on the engine's event stream.
// SequenceNumber is strictly increasing and assigned by the engine; it is the
// dedup key for downstream consumers.
type NodeEvent struct {
	SequenceNumber int64
	Type           NodeEventType
	PaymentID      string
	PaymentHash    string
	AmountMsat     *uint64
	UserChannelID  string
	CounterpartyID string
	FeeEarnedMsat  *uint64
	Reason         string
	ObservedAtUnix int64
}

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusDelivered OutboxStatus = "delivered"
)

// OutboxEntry wraps a NodeEvent with its delivery state. Entries are created
// in the same unit of work as the event row and only ever move
// pending -> delivered.
type OutboxEntry struct {
	EventID        string
	SequenceNumber int64
	EventType      NodeEventType
	Payload        []byte
	Status         OutboxStatus
	AttemptCount   int
	CreatedAtUnix  int64
	DeliveredAt    *time.Time
}
