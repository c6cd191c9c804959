package ports

import (
	"context"
	"fmt"
	"time"

	"nodegate/internal/gateway/domain/entities"
)

// EngineErrorCode enumerates every failure kind the payment-node engine can
// surface. The set is closed: the engine adapter maps each code to exactly
// one wire-level error kind.
type EngineErrorCode string

const (
	EngineInsufficientFunds EngineErrorCode = "insufficient_funds"
	EnginePeerUnreachable   EngineErrorCode = "peer_unreachable"
	EngineInvalidInvoice    EngineErrorCode = "invalid_invoice"
	EngineInvalidOffer      EngineErrorCode = "invalid_offer"
	EngineInvalidAddress    EngineErrorCode = "invalid_address"
	EngineChannelNotFound   EngineErrorCode = "channel_not_found"
	EnginePaymentNotFound   EngineErrorCode = "payment_not_found"
	EngineDuplicatePayment  EngineErrorCode = "duplicate_payment"
	EngineOperationTimedOut EngineErrorCode = "operation_timed_out"
	EngineOperationFailed   EngineErrorCode = "operation_failed"
)

// EngineErrorCodes lists all codes, for exhaustive-mapping tests.
var EngineErrorCodes = []EngineErrorCode{
	EngineInsufficientFunds,
	EnginePeerUnreachable,
	EngineInvalidInvoice,
	EngineInvalidOffer,
	EngineInvalidAddress,
	EngineChannelNotFound,
	EnginePaymentNotFound,
	EngineDuplicatePayment,
	EngineOperationTimedOut,
	EngineOperationFailed,
}

// EngineError is the only error type the NodeEngine implementations return
// for domain failures.
type EngineError struct {
	Code    EngineErrorCode
	Message string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine: %s: %s", e.Code, e.Message)
}

type OnchainSendParams struct {
	Address         string
	AmountSats      *uint64
	SendAll         bool
	FeeRateSatPerVB *uint64
}

type Bolt11ReceiveParams struct {
	AmountMsat  *uint64
	Description string
	ExpirySecs  uint32
}

type Bolt11SendParams struct {
	Invoice    string
	AmountMsat *uint64
}

type Bolt12ReceiveParams struct {
	AmountMsat  *uint64
	Description string
	ExpirySecs  *uint32
	Quantity    *uint64
}

type Bolt12SendParams struct {
	Offer      string
	AmountMsat *uint64
	Quantity   *uint64
	PayerNote  *string
}

type SpontaneousSendParams struct {
	NodeID     string
	AmountMsat uint64
}

type OpenChannelParams struct {
	NodePubkey             string
	Address                string
	ChannelAmountSats      uint64
	PushToCounterpartyMsat *uint64
	Config                 *entities.ChannelConfig
	AnnounceChannel        bool
}

type CloseChannelParams struct {
	UserChannelID      string
	CounterpartyNodeID string
	ForceCloseReason   string
}

type UpdateChannelConfigParams struct {
	UserChannelID      string
	CounterpartyNodeID string
	Config             entities.ChannelConfig
}

// ConnectPeerParams establishes a peer connection. A nil Persist asks the
// engine to persist the peer, matching its default for manual connects.
type ConnectPeerParams struct {
	NodePubkey string
	Address    string
	Persist    *bool
}

type VerifySignatureParams struct {
	Message   string
	Signature string
	PublicKey string
}

// NodeEngine is the capability surface the gateway consumes on the embedded
// payment-node engine. It is the only seam between the gateway and Lightning
// internals; implementations must return *EngineError for domain failures.
//
// List methods page by the engine's internal sequence number: records with
// sequence strictly greater than afterSeq, ascending, at most limit.
type NodeEngine interface {
	NodeInfo(ctx context.Context) (entities.NodeInfo, error)
	Balances(ctx context.Context) (entities.Balances, error)

	NewOnchainAddress(ctx context.Context) (string, error)
	SendOnchain(ctx context.Context, params OnchainSendParams) (txid string, err error)

	Bolt11Receive(ctx context.Context, params Bolt11ReceiveParams) (invoice string, err error)
	Bolt11Send(ctx context.Context, params Bolt11SendParams) (paymentID string, err error)
	Bolt12Receive(ctx context.Context, params Bolt12ReceiveParams) (offer string, err error)
	Bolt12Send(ctx context.Context, params Bolt12SendParams) (paymentID string, err error)
	SpontaneousSend(ctx context.Context, params SpontaneousSendParams) (paymentID string, err error)

	OpenChannel(ctx context.Context, params OpenChannelParams) (userChannelID string, err error)
	UpdateChannelConfig(ctx context.Context, params UpdateChannelConfigParams) error
	CloseChannel(ctx context.Context, params CloseChannelParams) error
	ForceCloseChannel(ctx context.Context, params CloseChannelParams) error
	ListChannels(ctx context.Context) ([]entities.Channel, error)

	ConnectPeer(ctx context.Context, params ConnectPeerParams) error
	ListPeers(ctx context.Context) ([]entities.Peer, error)

	SignMessage(ctx context.Context, message string) (signature string, err error)
	VerifySignature(ctx context.Context, params VerifySignatureParams) (valid bool, err error)

	Payment(ctx context.Context, paymentID string) (entities.Payment, error)
	ListPayments(ctx context.Context, afterSeq int64, limit int) ([]entities.Payment, error)
	ListForwardedPayments(ctx context.Context, afterSeq int64, limit int) ([]entities.ForwardedPayment, error)
}

// EventSource is the engine's restartable ordered event feed. NextEvent
// blocks until an event is available or ctx is done. The engine redelivers
// any event not yet acknowledged via EventHandled, so consumers must persist
// before acking.
type EventSource interface {
	NextEvent(ctx context.Context) (entities.NodeEvent, error)
	EventHandled(ctx context.Context, sequenceNumber int64) error
}

// OutboxRepository owns event/outbox persistence and its transaction
// boundary.
type OutboxRepository interface {
	// AppendEvent atomically persists the event and a pending outbox entry.
	// Re-appending an already persisted sequence number is a no-op, which
	// makes recorder restarts idempotent.
	AppendEvent(ctx context.Context, event entities.NodeEvent, payload []byte) error
	// ListPending returns pending entries in ascending sequence order.
	ListPending(ctx context.Context, limit int) ([]entities.OutboxEntry, error)
	// MarkAttempt records a failed publish attempt on a pending entry.
	MarkAttempt(ctx context.Context, eventID string) error
	// MarkDelivered transitions an entry pending -> delivered; the delivery
	// itself counts as the final attempt.
	MarkDelivered(ctx context.Context, eventID string, deliveredAt time.Time) error
}

// EventPublisher delivers one event's bytes to the external sink. A nil
// return means the sink acknowledged receipt.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, envelope []byte) error
}

// Clock allows deterministic testing of backoff and timestamps.
type Clock interface {
	Now() time.Time
}
