package httpserver

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	httpSwagger "github.com/swaggo/http-swagger"

	"nodegate/internal/gateway"
	domainerrors "nodegate/internal/gateway/domain/errors"
	gatewayhttp "nodegate/internal/gateway/transport/http"
	_ "nodegate/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	token    string
	certFile string
	keyFile  string
	gateway  gateway.Module
}

func New(
	gatewayModule gateway.Module,
	token string,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":3002"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		token:   token,
		gateway: gatewayModule,
	}
	s.registerRoutes()
	return s
}

// UseTLS makes Start serve HTTPS with the given PEM cert/key pair.
func (s *Server) UseTLS(certFile, keyFile string) {
	s.certFile = certFile
	s.keyFile = keyFile
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
		"tls", s.certFile != "",
	)
	if s.certFile != "" && s.keyFile != "" {
		return http.ListenAndServeTLS(s.addr, s.certFile, s.keyFile, s.mux)
	}
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux, primarily for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /v1/node/info", s.authed(s.handleGetNodeInfo))
	s.mux.HandleFunc("GET /v1/node/balances", s.authed(s.handleGetBalances))

	s.mux.HandleFunc("POST /v1/onchain/receive", s.authed(s.handleOnchainReceive))
	s.mux.HandleFunc("POST /v1/onchain/send", s.authed(s.handleOnchainSend))

	s.mux.HandleFunc("POST /v1/bolt11/receive", s.authed(s.handleBolt11Receive))
	s.mux.HandleFunc("POST /v1/bolt11/send", s.authed(s.handleBolt11Send))
	s.mux.HandleFunc("POST /v1/bolt12/receive", s.authed(s.handleBolt12Receive))
	s.mux.HandleFunc("POST /v1/bolt12/send", s.authed(s.handleBolt12Send))
	s.mux.HandleFunc("POST /v1/spontaneous/send", s.authed(s.handleSpontaneousSend))

	s.mux.HandleFunc("POST /v1/peers/connect", s.authed(s.handleConnectPeer))
	s.mux.HandleFunc("GET /v1/peers", s.authed(s.handleListPeers))
	s.mux.HandleFunc("POST /v1/messages/sign", s.authed(s.handleSignMessage))
	s.mux.HandleFunc("POST /v1/messages/verify", s.authed(s.handleVerifySignature))

	s.mux.HandleFunc("POST /v1/channels/open", s.authed(s.handleOpenChannel))
	s.mux.HandleFunc("POST /v1/channels/config", s.authed(s.handleUpdateChannelConfig))
	s.mux.HandleFunc("POST /v1/channels/close", s.authed(s.handleCloseChannel))
	s.mux.HandleFunc("POST /v1/channels/force-close", s.authed(s.handleForceCloseChannel))
	s.mux.HandleFunc("GET /v1/channels", s.authed(s.handleListChannels))

	s.mux.HandleFunc("GET /v1/payments/{payment_id}", s.authed(s.handleGetPaymentDetails))
	s.mux.HandleFunc("GET /v1/payments", s.authed(s.handleListPayments))
	s.mux.HandleFunc("GET /v1/forwarded-payments", s.authed(s.handleListForwardedPayments))

	s.mux.HandleFunc("/", s.authed(s.handleUnknownOperation))
}

// authed verifies the bearer credential before the wrapped handler runs.
// Nothing downstream, the engine included, is reached on a failed check.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, credential, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			writeError(w, http.StatusUnauthorized, "authentication_failed", "missing or malformed Authorization header")
			return
		}
		credential = strings.TrimSpace(credential)
		if credential == "" ||
			subtle.ConstantTimeCompare([]byte(credential), []byte(s.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "authentication_failed", "invalid credential")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleUnknownOperation(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "unknown_operation", "no operation at "+r.URL.Path)
}

func (s *Server) handleGetNodeInfo(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gateway.Handler.GetNodeInfoHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gateway.Handler.GetBalancesHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOnchainReceive(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gateway.Handler.OnchainReceiveHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOnchainSend(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.OnchainSendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.OnchainSendHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBolt11Receive(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.Bolt11ReceiveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.Bolt11ReceiveHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBolt11Send(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.Bolt11SendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.Bolt11SendHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBolt12Receive(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.Bolt12ReceiveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.Bolt12ReceiveHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBolt12Send(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.Bolt12SendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.Bolt12SendHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSpontaneousSend(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.SpontaneousSendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.SpontaneousSendHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConnectPeer(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.ConnectPeerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.ConnectPeerHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPeers(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gateway.Handler.ListPeersHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignMessage(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.SignMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.SignMessageHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifySignature(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.VerifySignatureRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.VerifySignatureHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpenChannel(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.OpenChannelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.OpenChannelHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateChannelConfig(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.UpdateChannelConfigRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.UpdateChannelConfigHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseChannel(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.CloseChannelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.CloseChannelHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleForceCloseChannel(w http.ResponseWriter, r *http.Request) {
	var req gatewayhttp.ForceCloseChannelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.gateway.Handler.ForceCloseChannelHandler(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gateway.Handler.ListChannelsHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPaymentDetails(w http.ResponseWriter, r *http.Request) {
	paymentID := r.PathValue("payment_id")
	resp, err := s.gateway.Handler.GetPaymentDetailsHandler(r.Context(), paymentID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gateway.Handler.ListPaymentsHandler(r.Context(), r.URL.Query().Get("page_token"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListForwardedPayments(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gateway.Handler.ListForwardedPaymentsHandler(r.Context(), r.URL.Query().Get("page_token"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrAuthenticationFailed):
		writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
	case errors.Is(err, domainerrors.ErrMalformedRequest):
		writeError(w, http.StatusBadRequest, "malformed_request", err.Error())
	case errors.Is(err, domainerrors.ErrUnknownOperation):
		writeError(w, http.StatusNotFound, "unknown_operation", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
	case errors.Is(err, domainerrors.ErrResourceNotFound):
		writeError(w, http.StatusNotFound, "resource_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrEngineOperationFailed):
		writeError(w, http.StatusBadGateway, "engine_operation_failed", err.Error())
	default:
		s.logger.Error("request failed",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_fault", "internal fault")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_request", "request body must be valid JSON")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, gatewayhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
