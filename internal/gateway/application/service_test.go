package application

import (
	"context"
	"errors"
	"testing"

	"nodegate/internal/gateway/adapters/memory"
	"nodegate/internal/gateway/domain/entities"
	domainerrors "nodegate/internal/gateway/domain/errors"
	"nodegate/internal/gateway/ports"
	"nodegate/internal/shared/pagecursor"
)

func uint64Ptr(v uint64) *uint64 {
	return &v
}

func TestOnchainSendRejectsAmountTogetherWithSendAll(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	_, err := service.OnchainSend(context.Background(), ports.OnchainSendParams{
		Address:    "bcrt1qexample",
		AmountSats: uint64Ptr(5000),
		SendAll:    true,
	})
	if !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if engine.Calls() != 0 {
		t.Fatalf("engine must not be called on invalid input, got %d calls", engine.Calls())
	}
}

func TestOnchainSendRequiresAmountOrSendAll(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	_, err := service.OnchainSend(context.Background(), ports.OnchainSendParams{
		Address: "bcrt1qexample",
	})
	if !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestOnchainSendAcceptsSendAllAlone(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	txid, err := service.OnchainSend(context.Background(), ports.OnchainSendParams{
		Address: "bcrt1qexample",
		SendAll: true,
	})
	if err != nil {
		t.Fatalf("send_all alone should be accepted: %v", err)
	}
	if txid == "" {
		t.Fatal("expected a txid")
	}
}

func TestBolt11ReceiveDistinguishesAbsentFromZeroAmount(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	// Absent amount asks for a variable-amount invoice.
	if _, err := service.Bolt11Receive(context.Background(), ports.Bolt11ReceiveParams{
		Description: "tip jar",
		ExpirySecs:  3600,
	}); err != nil {
		t.Fatalf("variable-amount invoice should be accepted: %v", err)
	}

	// An explicit zero is invalid, not equivalent to absent.
	_, err := service.Bolt11Receive(context.Background(), ports.Bolt11ReceiveParams{
		AmountMsat:  uint64Ptr(0),
		Description: "tip jar",
		ExpirySecs:  3600,
	})
	if !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for zero amount, got %v", err)
	}
}

func TestBolt12ReceiveQuantityRequiresFixedAmount(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	_, err := service.Bolt12Receive(context.Background(), ports.Bolt12ReceiveParams{
		Description: "widgets",
		Quantity:    uint64Ptr(3),
	})
	if !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestOpenChannelPushMustBeBelowChannelAmount(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	_, err := service.OpenChannel(context.Background(), ports.OpenChannelParams{
		NodePubkey:             "02abcdef",
		Address:                "127.0.0.1:9735",
		ChannelAmountSats:      100_000,
		PushToCounterpartyMsat: uint64Ptr(100_000_000),
	})
	if !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestCloseChannelRejectsForceReasonWithoutForce(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	err := service.CloseChannel(context.Background(), ports.CloseChannelParams{
		UserChannelID:      "ucid-1",
		CounterpartyNodeID: "02abcdef",
		ForceCloseReason:   "stuck htlc",
	}, false)
	if !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if engine.Calls() != 0 {
		t.Fatalf("engine must not be called on invalid input, got %d calls", engine.Calls())
	}
}

func TestListPaymentsPagesWithoutGapsOrDuplicates(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine, PageSize: 2}

	ids := make(map[string]bool)
	for i := 0; i < 3; i++ {
		p := engine.SeedPayment(entities.Payment{
			Kind:      entities.PaymentKindBolt11,
			Direction: entities.PaymentDirectionInbound,
			Status:    entities.PaymentStatusSucceeded,
		})
		ids[p.PaymentID] = true
	}

	first, token, err := service.ListPayments(context.Background(), "")
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected first page of 2, got %d", len(first))
	}
	if token == "" {
		t.Fatal("expected a next page token on a full page")
	}

	second, token2, err := service.ListPayments(context.Background(), token)
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected second page of 1, got %d", len(second))
	}
	if token2 != "" {
		t.Fatalf("expected no token on a short page, got %q", token2)
	}

	seen := make(map[string]bool)
	for _, p := range append(first, second...) {
		if seen[p.PaymentID] {
			t.Fatalf("payment %s returned twice", p.PaymentID)
		}
		seen[p.PaymentID] = true
	}
	if len(seen) != len(ids) {
		t.Fatalf("expected %d distinct payments across pages, got %d", len(ids), len(seen))
	}
}

func TestListPaymentsTokenStableAcrossConcurrentAppends(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine, PageSize: 2}

	for i := 0; i < 2; i++ {
		engine.SeedPayment(entities.Payment{Kind: entities.PaymentKindBolt11})
	}
	first, token, err := service.ListPayments(context.Background(), "")
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}

	// Records appended after the token was issued must appear on later
	// pages without disturbing anything already returned.
	appended := engine.SeedPayment(entities.Payment{Kind: entities.PaymentKindBolt12})

	second, _, err := service.ListPayments(context.Background(), token)
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(second) != 1 || second[0].PaymentID != appended.PaymentID {
		t.Fatalf("expected only the appended payment on the second page, got %+v", second)
	}
	for _, p := range first {
		if p.PaymentID == appended.PaymentID {
			t.Fatal("appended payment leaked into the first page")
		}
	}
}

func TestListPaymentsFullFinalPageEndsWithEmptyPage(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine, PageSize: 2}

	for i := 0; i < 2; i++ {
		engine.SeedPayment(entities.Payment{Kind: entities.PaymentKindBolt11})
	}

	// A full page always carries a token, even when it happens to be the
	// last page. The token promises nothing about further records.
	first, token, err := service.ListPayments(context.Background(), "")
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected a full page of 2, got %d", len(first))
	}
	if token == "" {
		t.Fatal("a full final page must still carry a token")
	}

	// Following it yields the empty terminal page: no records, no token,
	// no error.
	second, token2, err := service.ListPayments(context.Background(), token)
	if err != nil {
		t.Fatalf("terminal page failed: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected an empty terminal page, got %d payments", len(second))
	}
	if token2 != "" {
		t.Fatalf("terminal page must not carry a token, got %q", token2)
	}
}

func TestConnectPeerValidatesEndpoint(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	err := service.ConnectPeer(context.Background(), ports.ConnectPeerParams{NodePubkey: "02abcdef"})
	if !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for a missing address, got %v", err)
	}
	err = service.ConnectPeer(context.Background(), ports.ConnectPeerParams{Address: "127.0.0.1:9735"})
	if !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for a missing pubkey, got %v", err)
	}
	if engine.Calls() != 0 {
		t.Fatalf("engine must not be called on invalid input, got %d calls", engine.Calls())
	}

	if err := service.ConnectPeer(context.Background(), ports.ConnectPeerParams{
		NodePubkey: "02abcdef",
		Address:    "127.0.0.1:9735",
	}); err != nil {
		t.Fatalf("valid connect failed: %v", err)
	}
	peers, err := service.ListPeers(context.Background())
	if err != nil {
		t.Fatalf("ListPeers failed: %v", err)
	}
	if len(peers) != 1 || !peers[0].IsConnected {
		t.Fatalf("expected one connected peer, got %+v", peers)
	}
}

func TestSignAndVerifyMessageRoundTrip(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	if _, err := service.SignMessage(context.Background(), ""); !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for an empty message, got %v", err)
	}

	signature, err := service.SignMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SignMessage failed: %v", err)
	}
	if signature == "" {
		t.Fatal("expected a signature")
	}

	info, err := service.NodeInfo(context.Background())
	if err != nil {
		t.Fatalf("NodeInfo failed: %v", err)
	}

	valid, err := service.VerifySignature(context.Background(), ports.VerifySignatureParams{
		Message:   "hello",
		Signature: signature,
		PublicKey: info.NodeID,
	})
	if err != nil {
		t.Fatalf("VerifySignature failed: %v", err)
	}
	if !valid {
		t.Fatal("signature from SignMessage must verify against the node key")
	}

	valid, err = service.VerifySignature(context.Background(), ports.VerifySignatureParams{
		Message:   "tampered",
		Signature: signature,
		PublicKey: info.NodeID,
	})
	if err != nil {
		t.Fatalf("VerifySignature failed: %v", err)
	}
	if valid {
		t.Fatal("a tampered message must not verify")
	}

	if _, err := service.VerifySignature(context.Background(), ports.VerifySignatureParams{
		Message:   "hello",
		Signature: signature,
	}); !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for a missing public_key, got %v", err)
	}
}

func TestListPaymentsRejectsMalformedToken(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	_, _, err := service.ListPayments(context.Background(), "not-a-valid-token!!!")
	if !errors.Is(err, domainerrors.ErrMalformedRequest) {
		t.Fatalf("expected ErrMalformedRequest, got %v", err)
	}
	if engine.Calls() != 0 {
		t.Fatalf("engine must not be called for a malformed token, got %d calls", engine.Calls())
	}
}

func TestListPaymentsRejectsForwardedPaymentsToken(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	token := pagecursor.Encode(ForwardedPaymentsCollection, 5)
	_, _, err := service.ListPayments(context.Background(), token)
	if !errors.Is(err, domainerrors.ErrMalformedRequest) {
		t.Fatalf("expected ErrMalformedRequest, got %v", err)
	}
}

func TestPaymentDetailsNotFound(t *testing.T) {
	engine := memory.NewEngine()
	service := Service{Engine: engine}

	_, err := service.PaymentDetails(context.Background(), "missing")
	if !errors.Is(err, domainerrors.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestMapEngineErrorCoversEveryCode(t *testing.T) {
	expected := map[ports.EngineErrorCode]error{
		ports.EngineInsufficientFunds: domainerrors.ErrEngineOperationFailed,
		ports.EnginePeerUnreachable:   domainerrors.ErrEngineOperationFailed,
		ports.EngineInvalidInvoice:    domainerrors.ErrInvalidParameter,
		ports.EngineInvalidOffer:      domainerrors.ErrInvalidParameter,
		ports.EngineInvalidAddress:    domainerrors.ErrInvalidParameter,
		ports.EngineChannelNotFound:   domainerrors.ErrResourceNotFound,
		ports.EnginePaymentNotFound:   domainerrors.ErrResourceNotFound,
		ports.EngineDuplicatePayment:  domainerrors.ErrEngineOperationFailed,
		ports.EngineOperationTimedOut: domainerrors.ErrEngineOperationFailed,
		ports.EngineOperationFailed:   domainerrors.ErrEngineOperationFailed,
	}
	if len(expected) != len(ports.EngineErrorCodes) {
		t.Fatalf("expectation table covers %d codes, engine defines %d", len(expected), len(ports.EngineErrorCodes))
	}

	for _, code := range ports.EngineErrorCodes {
		mapped := mapEngineError(&ports.EngineError{Code: code, Message: "boom"})
		if !errors.Is(mapped, expected[code]) {
			t.Fatalf("code %s mapped to %v, expected %v", code, mapped, expected[code])
		}
		if errors.Is(mapped, domainerrors.ErrInternalFault) {
			t.Fatalf("code %s must not surface as an internal fault", code)
		}
	}
}

func TestMapEngineErrorUnknownFallsBackToInternalFault(t *testing.T) {
	if err := mapEngineError(errors.New("disk on fire")); !errors.Is(err, domainerrors.ErrInternalFault) {
		t.Fatalf("expected ErrInternalFault for a non-engine error, got %v", err)
	}
	if err := mapEngineError(&ports.EngineError{Code: "no_such_code"}); !errors.Is(err, domainerrors.ErrInternalFault) {
		t.Fatalf("expected ErrInternalFault for an unrecognized code, got %v", err)
	}
}

func TestServiceMapsEngineFailureFromCall(t *testing.T) {
	engine := memory.NewEngine()
	engine.FailWith("Bolt11Send", ports.EngineInsufficientFunds, "short 1000 msat")
	service := Service{Engine: engine}

	_, err := service.Bolt11Send(context.Background(), ports.Bolt11SendParams{Invoice: "lnbcrt1example"})
	if !errors.Is(err, domainerrors.ErrEngineOperationFailed) {
		t.Fatalf("expected ErrEngineOperationFailed, got %v", err)
	}
}
