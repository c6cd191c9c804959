package entities

type PaymentDirection string

const (
	PaymentDirectionInbound  PaymentDirection = "inbound"
	PaymentDirectionOutbound PaymentDirection = "outbound"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type PaymentKind string

const (
	PaymentKindOnchain     PaymentKind = "onchain"
	PaymentKindBolt11      PaymentKind = "bolt11"
	PaymentKindBolt12      PaymentKind = "bolt12"
	PaymentKindSpontaneous PaymentKind = "spontaneous"
)

// Payment is one entry in the node's payment history. SequenceNumber is the
// engine-assigned total order key used for keyset pagination.
type Payment struct {
	PaymentID             string
	SequenceNumber        int64
	Kind                  PaymentKind
	Direction             PaymentDirection
	Status                PaymentStatus
	AmountMsat            *uint64
	PaymentHash           string
	Preimage              string
	LatestUpdateTimestamp int64
}

// ForwardedPayment is a payment routed through this node for a fee.
type ForwardedPayment struct {
	SequenceNumber          int64
	PrevChannelID           string
	NextChannelID           string
	PrevUserChannelID       string
	NextUserChannelID       string
	FeeEarnedMsat           *uint64
	SkimmedFeeMsat          *uint64
	OutboundAmountMsat      *uint64
	ClaimedFromOnchainSweep bool
}
