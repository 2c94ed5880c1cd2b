package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dishalabs/disha/internal/chat"
	"github.com/dishalabs/disha/internal/config"
	"github.com/dishalabs/disha/internal/observability"
)

type stubChat struct {
	resp chat.Response
	err  error
	last chat.Request
}

func (s *stubChat) Handle(_ context.Context, req chat.Request) (chat.Response, error) {
	s.last = req
	if s.err != nil {
		return chat.Response{}, s.err
	}
	return s.resp, nil
}

func TestChatEndpoint(t *testing.T) {
	svc := &stubChat{resp: chat.Response{
		Reply:   "Aim for roles that use your analysis skills.",
		UserID:  "user-1",
		Elapsed: 42 * time.Millisecond,
	}}
	srv := New(config.Config{}, svc, nil)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body, _ := json.Marshal(map[string]any{
		"message":    "What career fits a statistics degree?",
		"session_id": "s1",
		"user_id":    "user-1",
	})
	res, err := http.Post(ts.URL+"/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/chat error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var payload map[string]any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["reply"] != svc.resp.Reply {
		t.Fatalf("reply = %v, want %q", payload["reply"], svc.resp.Reply)
	}
	if payload["guardrail_intervened"] != false {
		t.Fatalf("guardrail_intervened = %v, want false", payload["guardrail_intervened"])
	}
	if payload["processing_ms"] != float64(42) {
		t.Fatalf("processing_ms = %v, want 42", payload["processing_ms"])
	}

	if svc.last.OriginHash == "" {
		t.Fatalf("origin hash not set on chat request")
	}
	if strings.Contains(svc.last.OriginHash, "127.0.0.1") {
		t.Fatalf("raw client address leaked into origin hash: %q", svc.last.OriginHash)
	}
}

func TestChatEndpointRequiresSessionID(t *testing.T) {
	srv := New(config.Config{}, &stubChat{}, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body, _ := json.Marshal(map[string]any{"message": "hello"})
	res, err := http.Post(ts.URL+"/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/chat error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestChatEndpointMapsEmptyMessage(t *testing.T) {
	srv := New(config.Config{}, &stubChat{err: chat.ErrEmptyMessage}, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body, _ := json.Marshal(map[string]any{"message": "  ", "session_id": "s1"})
	res, err := http.Post(ts.URL+"/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/chat error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	var payload errorResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "empty_message" {
		t.Fatalf("code = %q, want empty_message", payload.Code)
	}
}

func TestChatEndpointMapsStageError(t *testing.T) {
	srv := New(config.Config{}, &stubChat{err: &chat.StageError{Stage: "model"}}, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body, _ := json.Marshal(map[string]any{"message": "hi", "session_id": "s1"})
	res, err := http.Post(ts.URL+"/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/chat error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadGateway)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := New(config.Config{}, &stubChat{}, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
	}
}

func TestPerfLatencyEndpoint(t *testing.T) {
	metrics := observability.NewMetrics("test_httpapi_perf_" + time.Now().Format("150405") + "_" + time.Now().Format("000000000"))
	metrics.ObserveStage(observability.StageModel, 120*time.Millisecond)
	srv := New(config.Config{}, &stubChat{}, metrics)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/perf/latency")
	if err != nil {
		t.Fatalf("GET /v1/perf/latency error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var snap observability.StageSnapshot
	if err := json.NewDecoder(res.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("stages = %d, want 1", len(snap.Stages))
	}
	if snap.Stages[0].Stage != observability.StageModel {
		t.Fatalf("stage = %q, want %q", snap.Stages[0].Stage, observability.StageModel)
	}
}

func TestChatWebSocket(t *testing.T) {
	svc := &stubChat{resp: chat.Response{Reply: "Build a portfolio of small projects.", UserID: "user-1"}}
	srv := New(config.Config{}, svc, nil)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/chat/ws"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s error = %v", wsURL, err)
	}
	if res != nil {
		res.Body.Close()
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{
		"message":    "How do I become a designer?",
		"session_id": "s1",
		"user_id":    "user-1",
	}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var reply chatResponse
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if reply.Reply != svc.resp.Reply {
		t.Fatalf("reply = %q, want %q", reply.Reply, svc.resp.Reply)
	}

	// A frame without a session is answered with an error frame, not a
	// closed socket.
	if err := conn.WriteJSON(map[string]any{"message": "hello"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var wsErr errorResponse
	if err := conn.ReadJSON(&wsErr); err != nil {
		t.Fatalf("ReadJSON error frame: %v", err)
	}
	if wsErr.Code != "missing_session_id" {
		t.Fatalf("code = %q, want missing_session_id", wsErr.Code)
	}
}
