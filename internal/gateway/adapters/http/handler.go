package httpadapter

import (
	"context"
	"log/slog"

	"nodegate/internal/gateway/application"
	"nodegate/internal/gateway/domain/entities"
	"nodegate/internal/gateway/ports"
	httptransport "nodegate/internal/gateway/transport/http"
)

// Handler converts between the wire DTOs and the application service. It does
// no validation of its own; the service owns request semantics.
type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GetNodeInfoHandler(ctx context.Context) (httptransport.GetNodeInfoResponse, error) {
	info, err := h.Service.NodeInfo(ctx)
	if err != nil {
		return httptransport.GetNodeInfoResponse{}, err
	}
	return httptransport.GetNodeInfoResponse{
		NodeID: info.NodeID,
		CurrentBestBlock: httptransport.BestBlockDTO{
			BlockHash: info.CurrentBestBlock.BlockHash,
			Height:    info.CurrentBestBlock.Height,
		},
		LatestLightningWalletSyncSecs:   info.LatestLightningWalletSyncSecs,
		LatestOnchainWalletSyncSecs:     info.LatestOnchainWalletSyncSecs,
		LatestFeeRateCacheUpdateSecs:    info.LatestFeeRateCacheUpdateSecs,
		LatestNodeAnnouncementBroadcast: info.LatestNodeAnnouncementBroadcast,
	}, nil
}

func (h Handler) GetBalancesHandler(ctx context.Context) (httptransport.GetBalancesResponse, error) {
	balances, err := h.Service.Balances(ctx)
	if err != nil {
		return httptransport.GetBalancesResponse{}, err
	}
	return httptransport.GetBalancesResponse{
		TotalOnchainSats:           balances.TotalOnchainSats,
		SpendableOnchainSats:       balances.SpendableOnchainSats,
		TotalAnchorReserveSats:     balances.TotalAnchorReserveSats,
		TotalLightningMsat:         balances.TotalLightningMsat,
		MaxSendableLightningMsat:   balances.MaxSendableLightningMsat,
		MaxReceivableLightningMsat: balances.MaxReceivableLightningMsat,
	}, nil
}

func (h Handler) OnchainReceiveHandler(ctx context.Context) (httptransport.OnchainReceiveResponse, error) {
	address, err := h.Service.OnchainReceive(ctx)
	if err != nil {
		return httptransport.OnchainReceiveResponse{}, err
	}
	return httptransport.OnchainReceiveResponse{Address: address}, nil
}

func (h Handler) OnchainSendHandler(ctx context.Context, req httptransport.OnchainSendRequest) (httptransport.OnchainSendResponse, error) {
	txid, err := h.Service.OnchainSend(ctx, ports.OnchainSendParams{
		Address:         req.Address,
		AmountSats:      req.AmountSats,
		SendAll:         req.SendAll,
		FeeRateSatPerVB: req.FeeRateSatPerVB,
	})
	if err != nil {
		return httptransport.OnchainSendResponse{}, err
	}
	return httptransport.OnchainSendResponse{TxID: txid}, nil
}

func (h Handler) Bolt11ReceiveHandler(ctx context.Context, req httptransport.Bolt11ReceiveRequest) (httptransport.Bolt11ReceiveResponse, error) {
	invoice, err := h.Service.Bolt11Receive(ctx, ports.Bolt11ReceiveParams{
		AmountMsat:  req.AmountMsat,
		Description: req.Description,
		ExpirySecs:  req.ExpirySecs,
	})
	if err != nil {
		return httptransport.Bolt11ReceiveResponse{}, err
	}
	return httptransport.Bolt11ReceiveResponse{Invoice: invoice}, nil
}

func (h Handler) Bolt11SendHandler(ctx context.Context, req httptransport.Bolt11SendRequest) (httptransport.Bolt11SendResponse, error) {
	paymentID, err := h.Service.Bolt11Send(ctx, ports.Bolt11SendParams{
		Invoice:    req.Invoice,
		AmountMsat: req.AmountMsat,
	})
	if err != nil {
		return httptransport.Bolt11SendResponse{}, err
	}
	return httptransport.Bolt11SendResponse{PaymentID: paymentID}, nil
}

func (h Handler) Bolt12ReceiveHandler(ctx context.Context, req httptransport.Bolt12ReceiveRequest) (httptransport.Bolt12ReceiveResponse, error) {
	offer, err := h.Service.Bolt12Receive(ctx, ports.Bolt12ReceiveParams{
		AmountMsat:  req.AmountMsat,
		Description: req.Description,
		ExpirySecs:  req.ExpirySecs,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return httptransport.Bolt12ReceiveResponse{}, err
	}
	return httptransport.Bolt12ReceiveResponse{Offer: offer}, nil
}

func (h Handler) Bolt12SendHandler(ctx context.Context, req httptransport.Bolt12SendRequest) (httptransport.Bolt12SendResponse, error) {
	paymentID, err := h.Service.Bolt12Send(ctx, ports.Bolt12SendParams{
		Offer:      req.Offer,
		AmountMsat: req.AmountMsat,
		Quantity:   req.Quantity,
		PayerNote:  req.PayerNote,
	})
	if err != nil {
		return httptransport.Bolt12SendResponse{}, err
	}
	return httptransport.Bolt12SendResponse{PaymentID: paymentID}, nil
}

func (h Handler) SpontaneousSendHandler(ctx context.Context, req httptransport.SpontaneousSendRequest) (httptransport.SpontaneousSendResponse, error) {
	paymentID, err := h.Service.SpontaneousSend(ctx, ports.SpontaneousSendParams{
		NodeID:     req.NodeID,
		AmountMsat: req.AmountMsat,
	})
	if err != nil {
		return httptransport.SpontaneousSendResponse{}, err
	}
	return httptransport.SpontaneousSendResponse{PaymentID: paymentID}, nil
}

func (h Handler) OpenChannelHandler(ctx context.Context, req httptransport.OpenChannelRequest) (httptransport.OpenChannelResponse, error) {
	userChannelID, err := h.Service.OpenChannel(ctx, ports.OpenChannelParams{
		NodePubkey:             req.NodePubkey,
		Address:                req.Address,
		ChannelAmountSats:      req.ChannelAmountSats,
		PushToCounterpartyMsat: req.PushToCounterpartyMsat,
		Config:                 channelConfigFromDTO(req.ChannelConfig),
		AnnounceChannel:        req.AnnounceChannel,
	})
	if err != nil {
		return httptransport.OpenChannelResponse{}, err
	}
	return httptransport.OpenChannelResponse{UserChannelID: userChannelID}, nil
}

func (h Handler) UpdateChannelConfigHandler(ctx context.Context, req httptransport.UpdateChannelConfigRequest) (httptransport.UpdateChannelConfigResponse, error) {
	err := h.Service.UpdateChannelConfig(ctx, ports.UpdateChannelConfigParams{
		UserChannelID:      req.UserChannelID,
		CounterpartyNodeID: req.CounterpartyNodeID,
		Config:             channelConfigValueFromDTO(req.ChannelConfig),
	})
	if err != nil {
		return httptransport.UpdateChannelConfigResponse{}, err
	}
	return httptransport.UpdateChannelConfigResponse{}, nil
}

func (h Handler) CloseChannelHandler(ctx context.Context, req httptransport.CloseChannelRequest) (httptransport.CloseChannelResponse, error) {
	err := h.Service.CloseChannel(ctx, ports.CloseChannelParams{
		UserChannelID:      req.UserChannelID,
		CounterpartyNodeID: req.CounterpartyNodeID,
	}, false)
	if err != nil {
		return httptransport.CloseChannelResponse{}, err
	}
	return httptransport.CloseChannelResponse{}, nil
}

func (h Handler) ForceCloseChannelHandler(ctx context.Context, req httptransport.ForceCloseChannelRequest) (httptransport.CloseChannelResponse, error) {
	err := h.Service.CloseChannel(ctx, ports.CloseChannelParams{
		UserChannelID:      req.UserChannelID,
		CounterpartyNodeID: req.CounterpartyNodeID,
		ForceCloseReason:   req.ForceCloseReason,
	}, true)
	if err != nil {
		return httptransport.CloseChannelResponse{}, err
	}
	return httptransport.CloseChannelResponse{}, nil
}

func (h Handler) ConnectPeerHandler(ctx context.Context, req httptransport.ConnectPeerRequest) (httptransport.ConnectPeerResponse, error) {
	err := h.Service.ConnectPeer(ctx, ports.ConnectPeerParams{
		NodePubkey: req.NodePubkey,
		Address:    req.Address,
		Persist:    req.Persist,
	})
	if err != nil {
		return httptransport.ConnectPeerResponse{}, err
	}
	return httptransport.ConnectPeerResponse{}, nil
}

func (h Handler) ListPeersHandler(ctx context.Context) (httptransport.ListPeersResponse, error) {
	peers, err := h.Service.ListPeers(ctx)
	if err != nil {
		return httptransport.ListPeersResponse{}, err
	}
	items := make([]httptransport.PeerDTO, 0, len(peers))
	for _, peer := range peers {
		items = append(items, httptransport.PeerDTO{
			NodeID:      peer.NodeID,
			Address:     peer.Address,
			IsPersisted: peer.IsPersisted,
			IsConnected: peer.IsConnected,
		})
	}
	return httptransport.ListPeersResponse{Peers: items}, nil
}

func (h Handler) SignMessageHandler(ctx context.Context, req httptransport.SignMessageRequest) (httptransport.SignMessageResponse, error) {
	signature, err := h.Service.SignMessage(ctx, req.Message)
	if err != nil {
		return httptransport.SignMessageResponse{}, err
	}
	return httptransport.SignMessageResponse{Signature: signature}, nil
}

func (h Handler) VerifySignatureHandler(ctx context.Context, req httptransport.VerifySignatureRequest) (httptransport.VerifySignatureResponse, error) {
	valid, err := h.Service.VerifySignature(ctx, ports.VerifySignatureParams{
		Message:   req.Message,
		Signature: req.Signature,
		PublicKey: req.PublicKey,
	})
	if err != nil {
		return httptransport.VerifySignatureResponse{}, err
	}
	return httptransport.VerifySignatureResponse{Valid: valid}, nil
}

func (h Handler) ListChannelsHandler(ctx context.Context) (httptransport.ListChannelsResponse, error) {
	channels, err := h.Service.ListChannels(ctx)
	if err != nil {
		return httptransport.ListChannelsResponse{}, err
	}
	items := make([]httptransport.ChannelDTO, 0, len(channels))
	for _, channel := range channels {
		items = append(items, channelToDTO(channel))
	}
	return httptransport.ListChannelsResponse{Channels: items}, nil
}

func (h Handler) GetPaymentDetailsHandler(ctx context.Context, paymentID string) (httptransport.GetPaymentDetailsResponse, error) {
	payment, err := h.Service.PaymentDetails(ctx, paymentID)
	if err != nil {
		return httptransport.GetPaymentDetailsResponse{}, err
	}
	return httptransport.GetPaymentDetailsResponse{Payment: paymentToDTO(payment)}, nil
}

func (h Handler) ListPaymentsHandler(ctx context.Context, pageToken string) (httptransport.ListPaymentsResponse, error) {
	payments, nextToken, err := h.Service.ListPayments(ctx, pageToken)
	if err != nil {
		return httptransport.ListPaymentsResponse{}, err
	}
	items := make([]httptransport.PaymentDTO, 0, len(payments))
	for _, payment := range payments {
		items = append(items, paymentToDTO(payment))
	}
	return httptransport.ListPaymentsResponse{
		Payments:      items,
		NextPageToken: nextToken,
	}, nil
}

func (h Handler) ListForwardedPaymentsHandler(ctx context.Context, pageToken string) (httptransport.ListForwardedPaymentsResponse, error) {
	forwarded, nextToken, err := h.Service.ListForwardedPayments(ctx, pageToken)
	if err != nil {
		return httptransport.ListForwardedPaymentsResponse{}, err
	}
	items := make([]httptransport.ForwardedPaymentDTO, 0, len(forwarded))
	for _, fwd := range forwarded {
		items = append(items, httptransport.ForwardedPaymentDTO{
			PrevChannelID:           fwd.PrevChannelID,
			NextChannelID:           fwd.NextChannelID,
			PrevUserChannelID:       fwd.PrevUserChannelID,
			NextUserChannelID:       fwd.NextUserChannelID,
			FeeEarnedMsat:           fwd.FeeEarnedMsat,
			SkimmedFeeMsat:          fwd.SkimmedFeeMsat,
			OutboundAmountMsat:      fwd.OutboundAmountMsat,
			ClaimedFromOnchainSweep: fwd.ClaimedFromOnchainSweep,
		})
	}
	return httptransport.ListForwardedPaymentsResponse{
		ForwardedPayments: items,
		NextPageToken:     nextToken,
	}, nil
}

func paymentToDTO(payment entities.Payment) httptransport.PaymentDTO {
	return httptransport.PaymentDTO{
		PaymentID:             payment.PaymentID,
		Kind:                  string(payment.Kind),
		Direction:             string(payment.Direction),
		Status:                string(payment.Status),
		AmountMsat:            payment.AmountMsat,
		PaymentHash:           payment.PaymentHash,
		Preimage:              payment.Preimage,
		LatestUpdateTimestamp: payment.LatestUpdateTimestamp,
	}
}

func channelToDTO(channel entities.Channel) httptransport.ChannelDTO {
	return httptransport.ChannelDTO{
		ChannelID:                 channel.ChannelID,
		UserChannelID:             channel.UserChannelID,
		CounterpartyNodeID:        channel.CounterpartyNodeID,
		FundingTxID:               channel.FundingTxID,
		FundingTxIndex:            channel.FundingTxIndex,
		ChannelValueSats:          channel.ChannelValueSats,
		UnspendableReserveSats:    channel.UnspendableReserveSats,
		OutboundCapacityMsat:      channel.OutboundCapacityMsat,
		InboundCapacityMsat:       channel.InboundCapacityMsat,
		ConfirmationsRequired:     channel.ConfirmationsRequired,
		Confirmations:             channel.Confirmations,
		IsOutbound:                channel.IsOutbound,
		IsChannelReady:            channel.IsChannelReady,
		IsUsable:                  channel.IsUsable,
		IsAnnounced:               channel.IsAnnounced,
		NextOutboundHTLCLimitMsat: channel.NextOutboundHTLCLimitMsat,
		Config: httptransport.ChannelConfigDTO{
			ForwardingFeeProportionalMillionths: channel.Config.ForwardingFeeProportionalMillionths,
			ForwardingFeeBaseMsat:               channel.Config.ForwardingFeeBaseMsat,
			CLTVExpiryDelta:                     channel.Config.CLTVExpiryDelta,
			ForceCloseAvoidanceMaxFeeSats:       channel.Config.ForceCloseAvoidanceMaxFeeSats,
			AcceptUnderpayingHTLCs:              channel.Config.AcceptUnderpayingHTLCs,
		},
	}
}

func channelConfigValueFromDTO(dto httptransport.ChannelConfigDTO) entities.ChannelConfig {
	return entities.ChannelConfig{
		ForwardingFeeProportionalMillionths: dto.ForwardingFeeProportionalMillionths,
		ForwardingFeeBaseMsat:               dto.ForwardingFeeBaseMsat,
		CLTVExpiryDelta:                     dto.CLTVExpiryDelta,
		ForceCloseAvoidanceMaxFeeSats:       dto.ForceCloseAvoidanceMaxFeeSats,
		AcceptUnderpayingHTLCs:              dto.AcceptUnderpayingHTLCs,
	}
}

func channelConfigFromDTO(dto *httptransport.ChannelConfigDTO) *entities.ChannelConfig {
	if dto == nil {
		return nil
	}
	config := channelConfigValueFromDTO(*dto)
	return &config
}
