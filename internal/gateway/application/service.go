package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nodegate/internal/gateway/domain/entities"
	domainerrors "nodegate/internal/gateway/domain/errors"
	"nodegate/internal/gateway/ports"
	"nodegate/internal/shared/pagecursor"
)

// Collection names scoping page tokens. A token issued for one collection is
// rejected by the others.
const (
	PaymentsCollection          = "payments"
	ForwardedPaymentsCollection = "forwarded_payments"
)

// Service is the engine adapter: it validates request-level invariants the
// engine cannot express as parameter checks, delegates to the engine
// capability surface, and maps every engine failure into the shared error
// taxonomy. No raw engine error leaves this layer.
type Service struct {
	Engine   ports.NodeEngine
	PageSize int
	Logger   *slog.Logger
}

func (s Service) NodeInfo(ctx context.Context) (entities.NodeInfo, error) {
	info, err := s.Engine.NodeInfo(ctx)
	if err != nil {
		return entities.NodeInfo{}, mapEngineError(err)
	}
	return info, nil
}

func (s Service) Balances(ctx context.Context) (entities.Balances, error) {
	balances, err := s.Engine.Balances(ctx)
	if err != nil {
		return entities.Balances{}, mapEngineError(err)
	}
	return balances, nil
}

func (s Service) OnchainReceive(ctx context.Context) (string, error) {
	address, err := s.Engine.NewOnchainAddress(ctx)
	if err != nil {
		return "", mapEngineError(err)
	}
	return address, nil
}

func (s Service) OnchainSend(ctx context.Context, params ports.OnchainSendParams) (string, error) {
	if params.Address == "" {
		return "", fmt.Errorf("%w: address is required", domainerrors.ErrInvalidParameter)
	}
	if params.AmountSats != nil && params.SendAll {
		return "", fmt.Errorf("%w: at most one of amount_sats and send_all may be set", domainerrors.ErrInvalidParameter)
	}
	if params.AmountSats == nil && !params.SendAll {
		return "", fmt.Errorf("%w: one of amount_sats or send_all must be set", domainerrors.ErrInvalidParameter)
	}
	if params.AmountSats != nil && *params.AmountSats == 0 {
		return "", fmt.Errorf("%w: amount_sats must be positive", domainerrors.ErrInvalidParameter)
	}
	txid, err := s.Engine.SendOnchain(ctx, params)
	if err != nil {
		return "", mapEngineError(err)
	}
	return txid, nil
}

func (s Service) Bolt11Receive(ctx context.Context, params ports.Bolt11ReceiveParams) (string, error) {
	if params.AmountMsat != nil && *params.AmountMsat == 0 {
		return "", fmt.Errorf("%w: amount_msat must be positive; omit it for a variable-amount invoice", domainerrors.ErrInvalidParameter)
	}
	if params.ExpirySecs == 0 {
		return "", fmt.Errorf("%w: expiry_secs must be positive", domainerrors.ErrInvalidParameter)
	}
	invoice, err := s.Engine.Bolt11Receive(ctx, params)
	if err != nil {
		return "", mapEngineError(err)
	}
	return invoice, nil
}

func (s Service) Bolt11Send(ctx context.Context, params ports.Bolt11SendParams) (string, error) {
	if params.Invoice == "" {
		return "", fmt.Errorf("%w: invoice is required", domainerrors.ErrInvalidParameter)
	}
	if params.AmountMsat != nil && *params.AmountMsat == 0 {
		return "", fmt.Errorf("%w: amount_msat must be positive when set", domainerrors.ErrInvalidParameter)
	}
	paymentID, err := s.Engine.Bolt11Send(ctx, params)
	if err != nil {
		return "", mapEngineError(err)
	}
	return paymentID, nil
}

func (s Service) Bolt12Receive(ctx context.Context, params ports.Bolt12ReceiveParams) (string, error) {
	if params.AmountMsat != nil && *params.AmountMsat == 0 {
		return "", fmt.Errorf("%w: amount_msat must be positive; omit it for a variable-amount offer", domainerrors.ErrInvalidParameter)
	}
	if params.Quantity != nil && params.AmountMsat == nil {
		return "", fmt.Errorf("%w: quantity can only be set for fixed-amount offers", domainerrors.ErrInvalidParameter)
	}
	offer, err := s.Engine.Bolt12Receive(ctx, params)
	if err != nil {
		return "", mapEngineError(err)
	}
	return offer, nil
}

func (s Service) Bolt12Send(ctx context.Context, params ports.Bolt12SendParams) (string, error) {
	if params.Offer == "" {
		return "", fmt.Errorf("%w: offer is required", domainerrors.ErrInvalidParameter)
	}
	if params.AmountMsat != nil && *params.AmountMsat == 0 {
		return "", fmt.Errorf("%w: amount_msat must be positive when set", domainerrors.ErrInvalidParameter)
	}
	paymentID, err := s.Engine.Bolt12Send(ctx, params)
	if err != nil {
		return "", mapEngineError(err)
	}
	return paymentID, nil
}

func (s Service) SpontaneousSend(ctx context.Context, params ports.SpontaneousSendParams) (string, error) {
	if params.NodeID == "" {
		return "", fmt.Errorf("%w: node_id is required", domainerrors.ErrInvalidParameter)
	}
	if params.AmountMsat == 0 {
		return "", fmt.Errorf("%w: amount_msat must be positive", domainerrors.ErrInvalidParameter)
	}
	paymentID, err := s.Engine.SpontaneousSend(ctx, params)
	if err != nil {
		return "", mapEngineError(err)
	}
	return paymentID, nil
}

func (s Service) OpenChannel(ctx context.Context, params ports.OpenChannelParams) (string, error) {
	if params.NodePubkey == "" {
		return "", fmt.Errorf("%w: node_pubkey is required", domainerrors.ErrInvalidParameter)
	}
	if params.Address == "" {
		return "", fmt.Errorf("%w: address is required", domainerrors.ErrInvalidParameter)
	}
	if params.ChannelAmountSats == 0 {
		return "", fmt.Errorf("%w: channel_amount_sats must be positive", domainerrors.ErrInvalidParameter)
	}
	if params.PushToCounterpartyMsat != nil && *params.PushToCounterpartyMsat >= params.ChannelAmountSats*1000 {
		return "", fmt.Errorf("%w: push_to_counterparty_msat must be below the channel amount", domainerrors.ErrInvalidParameter)
	}
	userChannelID, err := s.Engine.OpenChannel(ctx, params)
	if err != nil {
		return "", mapEngineError(err)
	}
	return userChannelID, nil
}

func (s Service) UpdateChannelConfig(ctx context.Context, params ports.UpdateChannelConfigParams) error {
	if params.UserChannelID == "" {
		return fmt.Errorf("%w: user_channel_id is required", domainerrors.ErrInvalidParameter)
	}
	if params.CounterpartyNodeID == "" {
		return fmt.Errorf("%w: counterparty_node_id is required", domainerrors.ErrInvalidParameter)
	}
	if err := s.Engine.UpdateChannelConfig(ctx, params); err != nil {
		return mapEngineError(err)
	}
	return nil
}

func (s Service) CloseChannel(ctx context.Context, params ports.CloseChannelParams, force bool) error {
	if params.UserChannelID == "" {
		return fmt.Errorf("%w: user_channel_id is required", domainerrors.ErrInvalidParameter)
	}
	if params.CounterpartyNodeID == "" {
		return fmt.Errorf("%w: counterparty_node_id is required", domainerrors.ErrInvalidParameter)
	}
	if !force && params.ForceCloseReason != "" {
		return fmt.Errorf("%w: force_close_reason can only be set when force closing", domainerrors.ErrInvalidParameter)
	}
	var err error
	if force {
		err = s.Engine.ForceCloseChannel(ctx, params)
	} else {
		err = s.Engine.CloseChannel(ctx, params)
	}
	if err != nil {
		return mapEngineError(err)
	}
	return nil
}

func (s Service) ListChannels(ctx context.Context) ([]entities.Channel, error) {
	channels, err := s.Engine.ListChannels(ctx)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return channels, nil
}

func (s Service) ConnectPeer(ctx context.Context, params ports.ConnectPeerParams) error {
	if params.NodePubkey == "" {
		return fmt.Errorf("%w: node_pubkey is required", domainerrors.ErrInvalidParameter)
	}
	if params.Address == "" {
		return fmt.Errorf("%w: address is required", domainerrors.ErrInvalidParameter)
	}
	if err := s.Engine.ConnectPeer(ctx, params); err != nil {
		return mapEngineError(err)
	}
	return nil
}

func (s Service) ListPeers(ctx context.Context) ([]entities.Peer, error) {
	peers, err := s.Engine.ListPeers(ctx)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return peers, nil
}

func (s Service) SignMessage(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", fmt.Errorf("%w: message is required", domainerrors.ErrInvalidParameter)
	}
	signature, err := s.Engine.SignMessage(ctx, message)
	if err != nil {
		return "", mapEngineError(err)
	}
	return signature, nil
}

func (s Service) VerifySignature(ctx context.Context, params ports.VerifySignatureParams) (bool, error) {
	if params.Message == "" {
		return false, fmt.Errorf("%w: message is required", domainerrors.ErrInvalidParameter)
	}
	if params.Signature == "" {
		return false, fmt.Errorf("%w: signature is required", domainerrors.ErrInvalidParameter)
	}
	if params.PublicKey == "" {
		return false, fmt.Errorf("%w: public_key is required", domainerrors.ErrInvalidParameter)
	}
	valid, err := s.Engine.VerifySignature(ctx, params)
	if err != nil {
		return false, mapEngineError(err)
	}
	return valid, nil
}

func (s Service) PaymentDetails(ctx context.Context, paymentID string) (entities.Payment, error) {
	if paymentID == "" {
		return entities.Payment{}, fmt.Errorf("%w: payment_id is required", domainerrors.ErrInvalidParameter)
	}
	payment, err := s.Engine.Payment(ctx, paymentID)
	if err != nil {
		return entities.Payment{}, mapEngineError(err)
	}
	return payment, nil
}

// ListPayments pages the payment history by sequence number. The returned
// token is present only when the page is full; its absence is the only
// reliable end-of-results signal, and its presence does not promise that
// more records exist.
func (s Service) ListPayments(ctx context.Context, pageToken string) ([]entities.Payment, string, error) {
	afterSeq, err := decodePageToken(PaymentsCollection, pageToken)
	if err != nil {
		return nil, "", err
	}
	limit := s.pageSize()
	payments, err := s.Engine.ListPayments(ctx, afterSeq, limit)
	if err != nil {
		return nil, "", mapEngineError(err)
	}
	nextToken := ""
	if len(payments) == limit {
		nextToken = pagecursor.Encode(PaymentsCollection, payments[len(payments)-1].SequenceNumber)
	}
	return payments, nextToken, nil
}

func (s Service) ListForwardedPayments(ctx context.Context, pageToken string) ([]entities.ForwardedPayment, string, error) {
	afterSeq, err := decodePageToken(ForwardedPaymentsCollection, pageToken)
	if err != nil {
		return nil, "", err
	}
	limit := s.pageSize()
	forwarded, err := s.Engine.ListForwardedPayments(ctx, afterSeq, limit)
	if err != nil {
		return nil, "", mapEngineError(err)
	}
	nextToken := ""
	if len(forwarded) == limit {
		nextToken = pagecursor.Encode(ForwardedPaymentsCollection, forwarded[len(forwarded)-1].SequenceNumber)
	}
	return forwarded, nextToken, nil
}

func (s Service) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return 100
}

func decodePageToken(collection, token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	seq, err := pagecursor.Decode(collection, token)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", domainerrors.ErrMalformedRequest, err.Error())
	}
	return seq, nil
}

// mapEngineError translates the closed EngineErrorCode set into the wire
// taxonomy. Anything that is not an EngineError is an internal fault.
func mapEngineError(err error) error {
	var engineErr *ports.EngineError
	if !errors.As(err, &engineErr) {
		return fmt.Errorf("%w: %s", domainerrors.ErrInternalFault, err.Error())
	}
	switch engineErr.Code {
	case ports.EnginePaymentNotFound, ports.EngineChannelNotFound:
		return fmt.Errorf("%w: %s", domainerrors.ErrResourceNotFound, engineErr.Message)
	case ports.EngineInvalidInvoice, ports.EngineInvalidOffer, ports.EngineInvalidAddress:
		return fmt.Errorf("%w: %s", domainerrors.ErrInvalidParameter, engineErr.Message)
	case ports.EngineInsufficientFunds,
		ports.EnginePeerUnreachable,
		ports.EngineDuplicatePayment,
		ports.EngineOperationTimedOut,
		ports.EngineOperationFailed:
		return fmt.Errorf("%w: %s", domainerrors.ErrEngineOperationFailed, engineErr.Message)
	default:
		return fmt.Errorf("%w: unrecognized engine error code %q", domainerrors.ErrInternalFault, engineErr.Code)
	}
}
