package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dishalabs/disha/internal/chat"
	"github.com/dishalabs/disha/internal/config"
	"github.com/dishalabs/disha/internal/observability"
)

// ChatService is the single entry point a transport needs.
type ChatService interface {
	Handle(ctx context.Context, req chat.Request) (chat.Response, error)
}

type Server struct {
	cfg      config.Config
	chat     ChatService
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, chatSvc ChatService, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		chat:    chatSvc,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other websites cannot drive a user's chat
				// session if the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"history_mode": s.historyMode(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"history_mode": s.historyMode(),
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	IsGuest   bool   `json:"is_guest"`
}

type chatResponse struct {
	Reply               string `json:"reply"`
	UserID              string `json:"user_id"`
	GuardrailIntervened bool   `json:"guardrail_intervened"`
	ProcessingMS        int64  `json:"processing_ms"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}

	resp, err := s.chat.Handle(r.Context(), chat.Request{
		Message:    req.Message,
		SessionID:  req.SessionID,
		OriginHash: originHash(r),
		UserID:     req.UserID,
		IsGuest:    req.IsGuest,
	})
	if err != nil {
		status, code := statusForChatError(err)
		respondError(w, status, code, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		Reply:               resp.Reply,
		UserID:              resp.UserID,
		GuardrailIntervened: resp.GuardrailIntervened,
		ProcessingMS:        resp.Elapsed.Milliseconds(),
	})
}

// handleChatWS serves the same request/response exchange over a websocket,
// one frame per turn.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	origin := originHash(r)

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		var req chatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.writeWSError(conn, "invalid_frame", err.Error())
			continue
		}
		if strings.TrimSpace(req.SessionID) == "" {
			s.writeWSError(conn, "missing_session_id", "session_id is required")
			continue
		}

		resp, err := s.chat.Handle(r.Context(), chat.Request{
			Message:    req.Message,
			SessionID:  req.SessionID,
			OriginHash: origin,
			UserID:     req.UserID,
			IsGuest:    req.IsGuest,
		})
		if err != nil {
			_, code := statusForChatError(err)
			s.writeWSError(conn, code, err.Error())
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(chatResponse{
			Reply:               resp.Reply,
			UserID:              resp.UserID,
			GuardrailIntervened: resp.GuardrailIntervened,
			ProcessingMS:        resp.Elapsed.Milliseconds(),
		}); err != nil {
			return
		}
	}
}

func (s *Server) writeWSError(conn *websocket.Conn, code, message string) {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = conn.WriteJSON(errorResponse{Error: message, Code: code})
}

func statusForChatError(err error) (int, string) {
	if errors.Is(err, chat.ErrEmptyMessage) {
		return http.StatusBadRequest, "empty_message"
	}
	var stageErr *chat.StageError
	if errors.As(err, &stageErr) {
		return http.StatusBadGateway, "upstream_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// originHash anonymizes the client origin before it crosses into the chat
// service. Only the hash ever leaves this package.
func originHash(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	sum := sha256.Sum256([]byte(host))
	return hex.EncodeToString(sum[:])
}

func (s *Server) historyMode() string {
	if strings.TrimSpace(s.cfg.DatabaseURL) != "" {
		return "postgres"
	}
	return "in-memory"
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
