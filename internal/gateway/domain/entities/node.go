package entities

// BestBlock is the chain tip the node wallet is synced to.
type BestBlock struct {
	BlockHash string
	Height    uint32
}

// NodeInfo is the engine's identity and sync status snapshot.
type NodeInfo struct {
	NodeID                          string
	CurrentBestBlock                BestBlock
	LatestLightningWalletSyncSecs   *uint64
	LatestOnchainWalletSyncSecs     *uint64
	LatestFeeRateCacheUpdateSecs    *uint64
	LatestNodeAnnouncementBroadcast *uint64
}

// Peer is a known Lightning peer and its connection state.
type Peer struct {
	NodeID      string
	Address     string
	IsPersisted bool
	IsConnected bool
}

// Balances aggregates on-chain and Lightning funds.
type Balances struct {
	TotalOnchainSats           uint64
	SpendableOnchainSats       uint64
	TotalAnchorReserveSats     uint64
	TotalLightningMsat         uint64
	MaxSendableLightningMsat   uint64
	MaxReceivableLightningMsat uint64
}
