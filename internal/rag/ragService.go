package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/domain/ragModel"
	"github.com/akolanti/ragchat/internal/metrics"
	"github.com/akolanti/ragchat/internal/rag/llm"
	"github.com/akolanti/ragchat/internal/usage"
	"github.com/akolanti/ragchat/pkg/logger_i"
)

type ChatRequest struct {
	Messages  []commonModels.ChatMessage
	UserId    string
	SessionId string
	Provider  string
}

// ChunkEvent is one streamed delta plus the turn's citations.
type ChunkEvent struct {
	llm.StreamChunk
	Citations []commonModels.CitationRef `json:"citations,omitempty"`
}

// EventSink receives the events of one turn, in order. A write error means
// the client is gone and nothing else will be written.
type EventSink interface {
	Chunk(event ChunkEvent) error
	End() error
	Error(message string) error
}

type UsageRecorder interface {
	LogUsage(ctx context.Context, rec usage.Record)
}

type Service struct {
	retriever *Retriever
	providers *llm.Registry
	usage     UsageRecorder
	messages  ragModel.MessageStore
	logger    *logger_i.Logger
	now       func() time.Time
	// responseTimeout bounds one provider call, from request to terminal chunk
	responseTimeout time.Duration
}

var errProviderTimeout = fmt.Errorf("%w: provider response timed out", commonModels.ErrProviderStream)

// NewService wires the orchestrator. messages may be nil to skip saving replies.
func NewService(retriever *Retriever, providers *llm.Registry, recorder UsageRecorder, messages ragModel.MessageStore) *Service {
	return &Service{
		retriever: retriever,
		providers: providers,
		usage:     recorder,
		messages:  messages,
		logger:    logger_i.NewLogger("RAG Service"),
		now:       time.Now,

		responseTimeout: config.ProviderResponseTimeout,
	}
}

// SetResponseTimeout overrides config.ProviderResponseTimeout for this service.
func (s *Service) SetResponseTimeout(d time.Duration) {
	s.responseTimeout = d
}

func ValidateChatRequest(req ChatRequest) error {
	switch {
	case len(req.Messages) == 0:
		return commonModels.Detail(commonModels.ErrValidation, "Messages are required")
	case req.UserId == "":
		return commonModels.Detail(commonModels.ErrValidation, "User ID is required")
	case req.SessionId == "":
		return commonModels.Detail(commonModels.ErrValidation, "Session ID is required")
	}
	return nil
}

// StreamChat runs one turn. It returns an error only when the request is
// rejected before anything reaches the sink; later failures are reported
// through sink.Error.
func (s *Service) StreamChat(ctx context.Context, req ChatRequest, sink EventSink) error {
	t := s.newTurn(ctx, req)

	if err := ValidateChatRequest(req); err != nil {
		t.enter(ragModel.StateFailed)
		return err
	}
	provider := s.providers.Resolve(req.Provider)
	if provider == nil {
		t.enter(ragModel.StateFailed)
		return fmt.Errorf("%w: no chat provider configured", commonModels.ErrProviderStream)
	}
	t.provider = provider
	t.log = t.log.With("provider", provider.Name(), "model", provider.Model())

	t.enter(ragModel.StateRetrieving)
	t.chunks = s.retriever.Retrieve(ctx, LastUserMessage(req.Messages), req.UserId, config.ChatRetrievalLimit)

	t.enter(ragModel.StateAugmenting)
	prompt := Augment(req.Messages, t.chunks)

	t.enter(ragModel.StateStreaming)
	final, err := s.stream(ctx, t, prompt, sink)

	// usage is accounted whenever the provider finished, even if the client left
	if final != nil {
		s.recordUsage(ctx, t, final)
	}

	switch {
	case t.disconnected:
		t.log.Info("client disconnected mid-stream", "usageLogged", final != nil)
		metrics.CaptureChatTurn(provider.Name(), "disconnected")
	case err != nil:
		t.enter(ragModel.StateFailed)
		t.log.Error("chat turn failed", "error", err)
		if werr := sink.Error(err.Error()); werr != nil {
			t.log.Warn("could not deliver error event", "error", werr)
		}
		metrics.CaptureChatTurn(provider.Name(), "failed")
	default:
		t.enter(ragModel.StateCompleted)
		metrics.CaptureChatTurn(provider.Name(), "completed")
		s.saveReply(ctx, t, final)
	}
	return nil
}

// stream forwards provider chunks to the sink. It returns the terminal chunk
// if one was seen. Leaving the range loop early closes the upstream call.
func (s *Service) stream(ctx context.Context, t *turn, prompt []commonModels.ChatMessage, sink EventSink) (*llm.StreamChunk, error) {
	metrics.StreamStarted()
	defer metrics.StreamFinished()
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_stream", time.Since(start)) }()

	citations := citationRefs(t.chunks)
	var final *llm.StreamChunk

	callCtx, cancel := context.WithTimeoutCause(ctx, s.responseTimeout, errProviderTimeout)
	defer cancel()

	for chunk, err := range t.provider.StreamChat(callCtx, prompt) {
		if err != nil {
			if ctx.Err() != nil {
				t.disconnected = true
				return final, nil
			}
			if context.Cause(callCtx) == errProviderTimeout {
				return final, errProviderTimeout
			}
			return final, err
		}

		event := ChunkEvent{StreamChunk: chunk}
		if chunk.Done {
			terminal := chunk
			final = &terminal
			t.enter(ragModel.StateFinalizing)
		} else if len(citations) > 0 {
			event.Citations = citations
		}

		if err := sink.Chunk(event); err != nil {
			t.disconnected = true
			return final, nil
		}
		if chunk.Done {
			break
		}
	}

	if final == nil {
		if ctx.Err() != nil {
			t.disconnected = true
			return nil, nil
		}
		if context.Cause(callCtx) == errProviderTimeout {
			return nil, errProviderTimeout
		}
		return nil, fmt.Errorf("%w: stream ended without a final chunk", commonModels.ErrProviderStream)
	}
	if err := sink.End(); err != nil {
		t.disconnected = true
	}
	return final, nil
}

func (s *Service) recordUsage(ctx context.Context, t *turn, final *llm.StreamChunk) {
	if s.usage == nil || final.Usage == nil {
		return
	}
	s.usage.LogUsage(context.WithoutCancel(ctx), usage.Record{
		UserId:           t.req.UserId,
		SessionId:        t.req.SessionId,
		Provider:         t.provider.Name(),
		Model:            t.provider.Model(),
		PromptTokens:     final.Usage.PromptTokens,
		CompletionTokens: final.Usage.CompletionTokens,
		TotalTokens:      final.Usage.TotalTokens,
		Ms:               s.now().Sub(t.start).Milliseconds(),
	})
}
