package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"nodegate/internal/gateway/domain/entities"
	"nodegate/internal/gateway/ports"
)

// Engine is an in-memory NodeEngine and EventSource. It backs deterministic
// tests of auth, pagination and error mapping, and local wiring while the
// embedded node engine integration is finalized.
type Engine struct {
	mu        sync.Mutex
	nextSeq   int64
	payments  []entities.Payment
	forwarded []entities.ForwardedPayment
	channels  map[string]entities.Channel
	peers     []entities.Peer
	nodeID    string

	// unacked engine events, oldest first; redelivered until acked
	events  []entities.NodeEvent
	eventCh chan struct{}

	failures map[string]*ports.EngineError
	calls    int
}

func NewEngine() *Engine {
	return &Engine{
		channels: make(map[string]entities.Channel),
		eventCh:  make(chan struct{}, 1),
		failures: make(map[string]*ports.EngineError),
		nodeID:   "02eec7245d6b7d2ccb30380bfbe2a3648cd7a942653f5aa340edcea1f283686619",
	}
}

// Calls reports how many engine capability calls were made. Auth tests use
// it to prove rejected requests never reach the engine.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// FailWith makes the named operation return the given engine error on its
// next calls until cleared with a nil code.
func (e *Engine) FailWith(op string, code ports.EngineErrorCode, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code == "" {
		delete(e.failures, op)
		return
	}
	e.failures[op] = &ports.EngineError{Code: code, Message: message}
}

// SeedPayment stores a payment with the next sequence number and returns it.
func (e *Engine) SeedPayment(payment entities.Payment) entities.Payment {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSeq++
	payment.SequenceNumber = e.nextSeq
	if payment.PaymentID == "" {
		payment.PaymentID = uuid.NewString()
	}
	e.payments = append(e.payments, payment)
	return payment
}

// SeedForwardedPayment stores a forwarded payment with the next sequence number.
func (e *Engine) SeedForwardedPayment(fwd entities.ForwardedPayment) entities.ForwardedPayment {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSeq++
	fwd.SequenceNumber = e.nextSeq
	e.forwarded = append(e.forwarded, fwd)
	return fwd
}

// EmitEvent queues a node event for the EventSource with the next sequence
// number and returns it.
func (e *Engine) EmitEvent(event entities.NodeEvent) entities.NodeEvent {
	e.mu.Lock()
	e.nextSeq++
	event.SequenceNumber = e.nextSeq
	e.events = append(e.events, event)
	e.mu.Unlock()

	select {
	case e.eventCh <- struct{}{}:
	default:
	}
	return event
}

func (e *Engine) begin(op string) *ports.EngineError {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.failures[op]
}

func (e *Engine) NodeInfo(_ context.Context) (entities.NodeInfo, error) {
	if err := e.begin("NodeInfo"); err != nil {
		return entities.NodeInfo{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return entities.NodeInfo{
		NodeID:           e.nodeID,
		CurrentBestBlock: entities.BestBlock{BlockHash: "0000000000000000000000000000000000000000000000000000000000000000", Height: 0},
	}, nil
}

func (e *Engine) Balances(_ context.Context) (entities.Balances, error) {
	if err := e.begin("Balances"); err != nil {
		return entities.Balances{}, err
	}
	return entities.Balances{}, nil
}

func (e *Engine) NewOnchainAddress(_ context.Context) (string, error) {
	if err := e.begin("NewOnchainAddress"); err != nil {
		return "", err
	}
	return "bcrt1q" + uuid.NewString()[:12], nil
}

func (e *Engine) SendOnchain(_ context.Context, _ ports.OnchainSendParams) (string, error) {
	if err := e.begin("SendOnchain"); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}

func (e *Engine) Bolt11Receive(_ context.Context, _ ports.Bolt11ReceiveParams) (string, error) {
	if err := e.begin("Bolt11Receive"); err != nil {
		return "", err
	}
	return "lnbcrt1" + uuid.NewString()[:16], nil
}

func (e *Engine) Bolt11Send(_ context.Context, _ ports.Bolt11SendParams) (string, error) {
	if err := e.begin("Bolt11Send"); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}

func (e *Engine) Bolt12Receive(_ context.Context, _ ports.Bolt12ReceiveParams) (string, error) {
	if err := e.begin("Bolt12Receive"); err != nil {
		return "", err
	}
	return "lno1" + uuid.NewString()[:16], nil
}

func (e *Engine) Bolt12Send(_ context.Context, _ ports.Bolt12SendParams) (string, error) {
	if err := e.begin("Bolt12Send"); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}

func (e *Engine) SpontaneousSend(_ context.Context, _ ports.SpontaneousSendParams) (string, error) {
	if err := e.begin("SpontaneousSend"); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}

func (e *Engine) OpenChannel(_ context.Context, params ports.OpenChannelParams) (string, error) {
	if err := e.begin("OpenChannel"); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	userChannelID := uuid.NewString()
	channel := entities.Channel{
		ChannelID:          uuid.NewString(),
		UserChannelID:      userChannelID,
		CounterpartyNodeID: params.NodePubkey,
		ChannelValueSats:   params.ChannelAmountSats,
		IsOutbound:         true,
		IsAnnounced:        params.AnnounceChannel,
	}
	if params.Config != nil {
		channel.Config = *params.Config
	}
	e.channels[userChannelID] = channel
	return userChannelID, nil
}

func (e *Engine) UpdateChannelConfig(_ context.Context, params ports.UpdateChannelConfigParams) error {
	if err := e.begin("UpdateChannelConfig"); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	channel, ok := e.channels[params.UserChannelID]
	if !ok {
		return &ports.EngineError{Code: ports.EngineChannelNotFound, Message: fmt.Sprintf("no channel with user_channel_id %s", params.UserChannelID)}
	}
	channel.Config = params.Config
	e.channels[params.UserChannelID] = channel
	return nil
}

func (e *Engine) CloseChannel(_ context.Context, params ports.CloseChannelParams) error {
	if err := e.begin("CloseChannel"); err != nil {
		return err
	}
	return e.removeChannel(params.UserChannelID)
}

func (e *Engine) ForceCloseChannel(_ context.Context, params ports.CloseChannelParams) error {
	if err := e.begin("ForceCloseChannel"); err != nil {
		return err
	}
	return e.removeChannel(params.UserChannelID)
}

func (e *Engine) removeChannel(userChannelID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.channels[userChannelID]; !ok {
		return &ports.EngineError{Code: ports.EngineChannelNotFound, Message: fmt.Sprintf("no channel with user_channel_id %s", userChannelID)}
	}
	delete(e.channels, userChannelID)
	return nil
}

func (e *Engine) ListChannels(_ context.Context) ([]entities.Channel, error) {
	if err := e.begin("ListChannels"); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	channels := make([]entities.Channel, 0, len(e.channels))
	for _, channel := range e.channels {
		channels = append(channels, channel)
	}
	return channels, nil
}

func (e *Engine) ConnectPeer(_ context.Context, params ports.ConnectPeerParams) error {
	if err := e.begin("ConnectPeer"); err != nil {
		return err
	}
	persist := true
	if params.Persist != nil {
		persist = *params.Persist
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.peers {
		if e.peers[i].NodeID == params.NodePubkey {
			e.peers[i].Address = params.Address
			e.peers[i].IsConnected = true
			e.peers[i].IsPersisted = persist
			return nil
		}
	}
	e.peers = append(e.peers, entities.Peer{
		NodeID:      params.NodePubkey,
		Address:     params.Address,
		IsPersisted: persist,
		IsConnected: true,
	})
	return nil
}

func (e *Engine) ListPeers(_ context.Context) ([]entities.Peer, error) {
	if err := e.begin("ListPeers"); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]entities.Peer(nil), e.peers...), nil
}

func (e *Engine) SignMessage(_ context.Context, message string) (string, error) {
	if err := e.begin("SignMessage"); err != nil {
		return "", err
	}
	return e.signature(message), nil
}

func (e *Engine) VerifySignature(_ context.Context, params ports.VerifySignatureParams) (bool, error) {
	if err := e.begin("VerifySignature"); err != nil {
		return false, err
	}
	e.mu.Lock()
	nodeID := e.nodeID
	e.mu.Unlock()
	return params.PublicKey == nodeID && params.Signature == e.signature(params.Message), nil
}

// signature is the stand-in for the node's zbase32 message signature.
func (e *Engine) signature(message string) string {
	return "memsig:" + message
}

func (e *Engine) Payment(_ context.Context, paymentID string) (entities.Payment, error) {
	if err := e.begin("Payment"); err != nil {
		return entities.Payment{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, payment := range e.payments {
		if payment.PaymentID == paymentID {
			return payment, nil
		}
	}
	return entities.Payment{}, &ports.EngineError{Code: ports.EnginePaymentNotFound, Message: fmt.Sprintf("no payment with id %s", paymentID)}
}

func (e *Engine) ListPayments(_ context.Context, afterSeq int64, limit int) ([]entities.Payment, error) {
	if err := e.begin("ListPayments"); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	var page []entities.Payment
	for _, payment := range e.payments {
		if payment.SequenceNumber <= afterSeq {
			continue
		}
		page = append(page, payment)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (e *Engine) ListForwardedPayments(_ context.Context, afterSeq int64, limit int) ([]entities.ForwardedPayment, error) {
	if err := e.begin("ListForwardedPayments"); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	var page []entities.ForwardedPayment
	for _, fwd := range e.forwarded {
		if fwd.SequenceNumber <= afterSeq {
			continue
		}
		page = append(page, fwd)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

// NextEvent returns the oldest unacked event, blocking until one exists or
// ctx is done. Unacked events are redelivered on the next call.
func (e *Engine) NextEvent(ctx context.Context) (entities.NodeEvent, error) {
	for {
		e.mu.Lock()
		if len(e.events) > 0 {
			event := e.events[0]
			e.mu.Unlock()
			return event, nil
		}
		e.mu.Unlock()

		select {
		case <-ctx.Done():
			return entities.NodeEvent{}, ctx.Err()
		case <-e.eventCh:
		}
	}
}

func (e *Engine) EventHandled(_ context.Context, sequenceNumber int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, event := range e.events {
		if event.SequenceNumber == sequenceNumber {
			e.events = append(e.events[:i], e.events[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no unacked event with sequence number %d", sequenceNumber)
}
