package entities

// ChannelConfig carries the per-channel forwarding parameters a caller may
// set at open time or change later. Nil pointer fields mean "keep the
// engine's current value".
type ChannelConfig struct {
	ForwardingFeeProportionalMillionths *uint32
	ForwardingFeeBaseMsat               *uint32
	CLTVExpiryDelta                     *uint32
	ForceCloseAvoidanceMaxFeeSats       *uint64
	AcceptUnderpayingHTLCs              *bool
}

// Channel is a bilateral payment relationship with a counterparty node.
// UserChannelID is the caller-visible identifier, stable from the open call
// through every later update/close referencing the channel.
type Channel struct {
	ChannelID                 string
	UserChannelID             string
	CounterpartyNodeID        string
	FundingTxID               string
	FundingTxIndex            uint32
	ChannelValueSats          uint64
	UnspendableReserveSats    *uint64
	OutboundCapacityMsat      uint64
	InboundCapacityMsat       uint64
	ConfirmationsRequired     *uint32
	Confirmations             *uint32
	IsOutbound                bool
	IsChannelReady            bool
	IsUsable                  bool
	IsAnnounced               bool
	NextOutboundHTLCLimitMsat uint64
	Config                    ChannelConfig
}
