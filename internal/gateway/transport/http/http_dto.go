package http

// ErrorResponse is the single error shape every endpoint returns. Code is one
// of: authentication_failed, malformed_request, unknown_operation,
// invalid_parameter, resource_not_found, engine_operation_failed,
// internal_fault.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BestBlockDTO struct {
	BlockHash string `json:"block_hash"`
	Height    uint32 `json:"height"`
}

type GetNodeInfoResponse struct {
	NodeID                          string       `json:"node_id"`
	CurrentBestBlock                BestBlockDTO `json:"current_best_block"`
	LatestLightningWalletSyncSecs   *uint64      `json:"latest_lightning_wallet_sync_timestamp,omitempty"`
	LatestOnchainWalletSyncSecs     *uint64      `json:"latest_onchain_wallet_sync_timestamp,omitempty"`
	LatestFeeRateCacheUpdateSecs    *uint64      `json:"latest_fee_rate_cache_update_timestamp,omitempty"`
	LatestNodeAnnouncementBroadcast *uint64      `json:"latest_node_announcement_broadcast_timestamp,omitempty"`
}

type GetBalancesResponse struct {
	TotalOnchainSats           uint64 `json:"total_onchain_balance_sats"`
	SpendableOnchainSats       uint64 `json:"spendable_onchain_balance_sats"`
	TotalAnchorReserveSats     uint64 `json:"total_anchor_channels_reserve_sats"`
	TotalLightningMsat         uint64 `json:"total_lightning_balance_msats"`
	MaxSendableLightningMsat   uint64 `json:"max_sendable_lightning_balance_msats"`
	MaxReceivableLightningMsat uint64 `json:"max_receivable_lightning_balance_msats"`
}

type OnchainReceiveResponse struct {
	Address string `json:"address"`
}

// OnchainSendRequest moves on-chain funds. Exactly one of AmountSats and
// SendAll must be set.
type OnchainSendRequest struct {
	Address         string  `json:"address"`
	AmountSats      *uint64 `json:"amount_sats,omitempty"`
	SendAll         bool    `json:"send_all,omitempty"`
	FeeRateSatPerVB *uint64 `json:"fee_rate_sat_per_vb,omitempty"`
}

type OnchainSendResponse struct {
	TxID string `json:"txid"`
}

// Bolt11ReceiveRequest creates an invoice. A nil AmountMsat requests a
// variable-amount invoice; that is different from an amount of zero, which is
// rejected.
type Bolt11ReceiveRequest struct {
	AmountMsat  *uint64 `json:"amount_msat,omitempty"`
	Description string  `json:"description"`
	ExpirySecs  uint32  `json:"expiry_secs"`
}

type Bolt11ReceiveResponse struct {
	Invoice string `json:"invoice"`
}

type Bolt11SendRequest struct {
	Invoice    string  `json:"invoice"`
	AmountMsat *uint64 `json:"amount_msat,omitempty"`
}

type Bolt11SendResponse struct {
	PaymentID string `json:"payment_id"`
}

type Bolt12ReceiveRequest struct {
	AmountMsat  *uint64 `json:"amount_msat,omitempty"`
	Description string  `json:"description"`
	ExpirySecs  *uint32 `json:"expiry_secs,omitempty"`
	Quantity    *uint64 `json:"quantity,omitempty"`
}

type Bolt12ReceiveResponse struct {
	Offer string `json:"offer"`
}

type Bolt12SendRequest struct {
	Offer      string  `json:"offer"`
	AmountMsat *uint64 `json:"amount_msat,omitempty"`
	Quantity   *uint64 `json:"quantity,omitempty"`
	PayerNote  *string `json:"payer_note,omitempty"`
}

type Bolt12SendResponse struct {
	PaymentID string `json:"payment_id"`
}

type SpontaneousSendRequest struct {
	NodeID     string `json:"node_id"`
	AmountMsat uint64 `json:"amount_msat"`
}

type SpontaneousSendResponse struct {
	PaymentID string `json:"payment_id"`
}

// ConnectPeerRequest establishes a peer connection. Omitted persist defers to
// the engine default of persisting manual connects.
type ConnectPeerRequest struct {
	NodePubkey string `json:"node_pubkey"`
	Address    string `json:"address"`
	Persist    *bool  `json:"persist,omitempty"`
}

type ConnectPeerResponse struct{}

type PeerDTO struct {
	NodeID      string `json:"node_id"`
	Address     string `json:"address"`
	IsPersisted bool   `json:"is_persisted"`
	IsConnected bool   `json:"is_connected"`
}

type ListPeersResponse struct {
	Peers []PeerDTO `json:"peers"`
}

type SignMessageRequest struct {
	Message string `json:"message"`
}

type SignMessageResponse struct {
	Signature string `json:"signature"`
}

type VerifySignatureRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

type VerifySignatureResponse struct {
	Valid bool `json:"valid"`
}

type ChannelConfigDTO struct {
	ForwardingFeeProportionalMillionths *uint32 `json:"forwarding_fee_proportional_millionths,omitempty"`
	ForwardingFeeBaseMsat               *uint32 `json:"forwarding_fee_base_msat,omitempty"`
	CLTVExpiryDelta                     *uint32 `json:"cltv_expiry_delta,omitempty"`
	ForceCloseAvoidanceMaxFeeSats       *uint64 `json:"force_close_avoidance_max_fee_satoshis,omitempty"`
	AcceptUnderpayingHTLCs              *bool   `json:"accept_underpaying_htlcs,omitempty"`
}

type OpenChannelRequest struct {
	NodePubkey             string            `json:"node_pubkey"`
	Address                string            `json:"address"`
	ChannelAmountSats      uint64            `json:"channel_amount_sats"`
	PushToCounterpartyMsat *uint64           `json:"push_to_counterparty_msat,omitempty"`
	ChannelConfig          *ChannelConfigDTO `json:"channel_config,omitempty"`
	AnnounceChannel        bool              `json:"announce_channel"`
}

type OpenChannelResponse struct {
	UserChannelID string `json:"user_channel_id"`
}

type UpdateChannelConfigRequest struct {
	UserChannelID      string           `json:"user_channel_id"`
	CounterpartyNodeID string           `json:"counterparty_node_id"`
	ChannelConfig      ChannelConfigDTO `json:"channel_config"`
}

type UpdateChannelConfigResponse struct{}

type CloseChannelRequest struct {
	UserChannelID      string `json:"user_channel_id"`
	CounterpartyNodeID string `json:"counterparty_node_id"`
}

type ForceCloseChannelRequest struct {
	UserChannelID      string `json:"user_channel_id"`
	CounterpartyNodeID string `json:"counterparty_node_id"`
	ForceCloseReason   string `json:"force_close_reason,omitempty"`
}

type CloseChannelResponse struct{}

type ChannelDTO struct {
	ChannelID                 string           `json:"channel_id"`
	UserChannelID             string           `json:"user_channel_id"`
	CounterpartyNodeID        string           `json:"counterparty_node_id"`
	FundingTxID               string           `json:"funding_txid,omitempty"`
	FundingTxIndex            uint32           `json:"funding_tx_index,omitempty"`
	ChannelValueSats          uint64           `json:"channel_value_sats"`
	UnspendableReserveSats    *uint64          `json:"unspendable_punishment_reserve,omitempty"`
	OutboundCapacityMsat      uint64           `json:"outbound_capacity_msat"`
	InboundCapacityMsat       uint64           `json:"inbound_capacity_msat"`
	ConfirmationsRequired     *uint32          `json:"confirmations_required,omitempty"`
	Confirmations             *uint32          `json:"confirmations,omitempty"`
	IsOutbound                bool             `json:"is_outbound"`
	IsChannelReady            bool             `json:"is_channel_ready"`
	IsUsable                  bool             `json:"is_usable"`
	IsAnnounced               bool             `json:"is_announced"`
	NextOutboundHTLCLimitMsat uint64           `json:"next_outbound_htlc_limit_msat"`
	Config                    ChannelConfigDTO `json:"channel_config"`
}

type ListChannelsResponse struct {
	Channels []ChannelDTO `json:"channels"`
}

type PaymentDTO struct {
	PaymentID             string  `json:"payment_id"`
	Kind                  string  `json:"kind"`
	Direction             string  `json:"direction"`
	Status                string  `json:"status"`
	AmountMsat            *uint64 `json:"amount_msat,omitempty"`
	PaymentHash           string  `json:"payment_hash,omitempty"`
	Preimage              string  `json:"preimage,omitempty"`
	LatestUpdateTimestamp int64   `json:"latest_update_timestamp"`
}

type GetPaymentDetailsResponse struct {
	Payment PaymentDTO `json:"payment"`
}

type ListPaymentsResponse struct {
	Payments      []PaymentDTO `json:"payments"`
	NextPageToken string       `json:"next_page_token,omitempty"`
}

type ForwardedPaymentDTO struct {
	PrevChannelID           string  `json:"prev_channel_id"`
	NextChannelID           string  `json:"next_channel_id"`
	PrevUserChannelID       string  `json:"prev_user_channel_id,omitempty"`
	NextUserChannelID       string  `json:"next_user_channel_id,omitempty"`
	FeeEarnedMsat           *uint64 `json:"fee_earned_msat,omitempty"`
	SkimmedFeeMsat          *uint64 `json:"skimmed_fee_msat,omitempty"`
	OutboundAmountMsat      *uint64 `json:"outbound_amount_forwarded_msat,omitempty"`
	ClaimedFromOnchainSweep bool    `json:"claim_from_onchain_tx"`
}

type ListForwardedPaymentsResponse struct {
	ForwardedPayments []ForwardedPaymentDTO `json:"forwarded_payments"`
	NextPageToken     string                `json:"next_page_token,omitempty"`
}
