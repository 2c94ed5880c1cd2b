// Package chat orchestrates a single conversational turn: guardrails,
// context assembly, model or tool routing, and storage.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dishalabs/disha/internal/bedrock"
	"github.com/dishalabs/disha/internal/ephemeral"
	"github.com/dishalabs/disha/internal/guardrail"
	"github.com/dishalabs/disha/internal/memory"
	"github.com/dishalabs/disha/internal/observability"
	"github.com/dishalabs/disha/internal/policy"
	"github.com/dishalabs/disha/internal/tools"
)

// ErrEmptyMessage is returned for a blank or whitespace-only prompt.
var ErrEmptyMessage = errors.New("message must not be empty")

// ModelInvoker is the model-backed reply path.
type ModelInvoker interface {
	Invoke(ctx context.Context, messages []bedrock.Message) (bedrock.Result, error)
}

// ToolRouter is the tool-augmented reply path.
type ToolRouter interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

type Request struct {
	Message string
	// SessionID is the client-held session token. OriginHash is the
	// already-hashed network origin; the raw origin must never reach
	// this package.
	SessionID  string
	OriginHash string
	UserID     string
	IsGuest    bool
}

type Response struct {
	Reply string
	// UserID echoes the effective user ID: the caller's for authenticated
	// requests, a generated temp_ ID for guests that arrived without one.
	UserID              string
	GuardrailIntervened bool
	Elapsed             time.Duration
}

// StageError reports which pipeline stage failed and how long the turn had
// been running when it did.
type StageError struct {
	Stage   string
	Elapsed time.Duration
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("chat %s stage failed after %s: %v", e.Stage, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Config struct {
	// ContextWindow is the number of recent exchanges sent to the model.
	ContextWindow int
	// HistoryLimit bounds the persisted-history fallback for
	// authenticated users.
	HistoryLimit int
}

func (c *Config) applyDefaults() {
	if c.ContextWindow <= 0 {
		c.ContextWindow = 6
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 6
	}
}

type Service struct {
	cfg      Config
	pipeline *guardrail.Pipeline
	contexts *ephemeral.Manager
	history  memory.Store
	model    ModelInvoker
	agent    ToolRouter
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewService(cfg Config, pipeline *guardrail.Pipeline, contexts *ephemeral.Manager, history memory.Store, model ModelInvoker, agent ToolRouter, metrics *observability.Metrics) *Service {
	cfg.applyDefaults()
	return &Service{
		cfg:      cfg,
		pipeline: pipeline,
		contexts: contexts,
		history:  history,
		model:    model,
		agent:    agent,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Handle runs one chat turn. Guardrail interventions are not errors: the
// canned message comes back as a normal reply with the intervention flag
// set and nothing is stored. Storage happens strictly after a successful
// reply, so a failed turn leaves no partial writes.
func (s *Service) Handle(ctx context.Context, req Request) (Response, error) {
	start := s.now()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Response{}, ErrEmptyMessage
	}

	userID := req.UserID
	if req.IsGuest && userID == "" {
		userID = "temp_" + uuid.NewString()
	}

	scrubbed, scrubHit := policy.ScrubChanged(message)
	if scrubHit {
		s.indicate("pii_scrubbed")
	}

	verdict := s.pipeline.Evaluate(scrubbed)
	s.observeStage(observability.StageGuardrail, start)
	if verdict.Intervened {
		s.countIntervention(verdict.Reason)
		s.countRequest("guardrail")
		return Response{
			Reply:               verdict.Message,
			UserID:              userID,
			GuardrailIntervened: true,
			Elapsed:             s.now().Sub(start),
		}, nil
	}

	contextStart := s.now()
	messages, err := s.assembleContext(ctx, req, userID, scrubbed)
	s.observeStage(observability.StageContext, contextStart)
	if err != nil {
		s.countRequest("error")
		return Response{}, &StageError{Stage: "context", Elapsed: s.now().Sub(start), Err: err}
	}

	var (
		reply           string
		modelIntervened bool
		stage           string
	)
	if tools.NeedsTools(scrubbed) {
		stage = "tools"
		toolStart := s.now()
		reply, err = s.agent.Answer(ctx, scrubbed)
		s.observeStage(observability.StageTools, toolStart)
	} else {
		stage = "model"
		modelStart := s.now()
		var result bedrock.Result
		result, err = s.model.Invoke(ctx, messages)
		s.observeStage(observability.StageModel, modelStart)
		if s.metrics != nil {
			s.metrics.ObserveModelLatency(s.now().Sub(modelStart))
			if err != nil {
				s.metrics.ModelInvocations.WithLabelValues("error").Inc()
			} else {
				s.metrics.ModelInvocations.WithLabelValues("ok").Inc()
			}
		}
		if err == nil {
			text, ok := result.FirstText()
			if !ok {
				err = errors.New("model returned no text content")
			}
			reply = text
			modelIntervened = result.GuardrailIntervened
		}
	}
	if err != nil {
		s.countRequest("error")
		return Response{}, &StageError{Stage: stage, Elapsed: s.now().Sub(start), Err: err}
	}

	reply = policy.Scrub(reply)

	if modelIntervened {
		s.countIntervention("model-guardrail")
		s.countRequest("model_guardrail")
		s.observeStage(observability.StageTotal, start)
		return Response{
			Reply:               reply,
			UserID:              userID,
			GuardrailIntervened: true,
			Elapsed:             s.now().Sub(start),
		}, nil
	}

	if err := s.store(ctx, req, userID, scrubbed, reply); err != nil {
		s.countRequest("error")
		return Response{}, &StageError{Stage: "persist", Elapsed: s.now().Sub(start), Err: err}
	}

	s.countRequest("ok")
	s.observeStage(observability.StageTotal, start)
	return Response{
		Reply:   reply,
		UserID:  userID,
		Elapsed: s.now().Sub(start),
	}, nil
}

// assembleContext builds the model message list: recent exchanges first,
// the current prompt last. Ephemeral context wins outright; persisted
// history is consulted only when the ephemeral bucket is completely empty,
// and only for authenticated users. Exchanges that ended in the guardrail
// fallback are never replayed.
func (s *Service) assembleContext(ctx context.Context, req Request, userID, prompt string) ([]bedrock.Message, error) {
	ref := ephemeral.Reference(req.SessionID, req.OriginHash)

	var exchanges []ephemeral.Entry
	for _, e := range s.contexts.Retrieve(ref) {
		if e.Response == guardrail.CareerRedirectMessage {
			continue
		}
		exchanges = append(exchanges, e)
	}

	if len(exchanges) == 0 && !req.IsGuest && userID != "" && s.history != nil {
		records, err := s.history.Recent(ctx, userID, s.cfg.HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		if len(records) > 0 {
			s.indicate("history_fallback")
		}
		for _, r := range records {
			if r.Response == guardrail.CareerRedirectMessage {
				continue
			}
			exchanges = append(exchanges, ephemeral.Entry{Prompt: r.Prompt, Response: r.Response})
		}
	}

	if len(exchanges) > s.cfg.ContextWindow {
		exchanges = exchanges[len(exchanges)-s.cfg.ContextWindow:]
	}

	messages := make([]bedrock.Message, 0, len(exchanges)*2+1)
	for _, e := range exchanges {
		messages = append(messages, bedrock.Message{Role: "user", Content: e.Prompt})
		messages = append(messages, bedrock.Message{Role: "assistant", Content: e.Response})
	}
	messages = append(messages, bedrock.Message{Role: "user", Content: prompt})
	return messages, nil
}

// store appends the finished exchange to the ephemeral bucket and, for
// authenticated users, the durable history. Guests never touch durable
// storage.
func (s *Service) store(ctx context.Context, req Request, userID, prompt, reply string) error {
	ref := ephemeral.Reference(req.SessionID, req.OriginHash)
	s.contexts.Store(ref, ephemeral.Entry{
		Prompt:    prompt,
		Response:  reply,
		CreatedAt: s.now(),
	})
	if s.metrics != nil {
		s.metrics.ContextBuckets.Set(float64(s.contexts.Buckets()))
	}

	if req.IsGuest || userID == "" || s.history == nil {
		return nil
	}
	record := memory.Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Prompt:    prompt,
		Response:  reply,
		CreatedAt: s.now(),
	}
	if err := s.history.Save(ctx, record); err != nil {
		log.Printf("chat: persist history for user %s: %v", userID, err)
		s.indicate("history_save_failed")
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

func (s *Service) observeStage(stage string, since time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveStage(stage, s.now().Sub(since))
}

func (s *Service) countRequest(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ChatRequests.WithLabelValues(outcome).Inc()
}

func (s *Service) countIntervention(kind string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Interventions.WithLabelValues(kind).Inc()
}

func (s *Service) indicate(name string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveIndicator(name)
}
