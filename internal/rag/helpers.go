package rag

import (
	"context"
	"time"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/domain/ragModel"
	"github.com/akolanti/ragchat/internal/rag/llm"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/google/uuid"
)

// turn is the per-request state of one chat exchange.
type turn struct {
	req          ChatRequest
	start        time.Time
	state        ragModel.TurnState
	provider     llm.Provider
	chunks       []commonModels.RetrievedChunk
	disconnected bool
	log          *logger_i.Logger
}

func (s *Service) newTurn(ctx context.Context, req ChatRequest) *turn {
	t := &turn{
		req:   req,
		start: s.now(),
		log:   s.logger.WithTrace(ctx).With("userId", req.UserId, "sessionId", req.SessionId),
	}
	t.enter(ragModel.StateValidating)
	return t
}

func (t *turn) enter(state ragModel.TurnState) {
	t.state = state
	t.log.Debug("chat turn", "state", state)
}

// saveReply stores the assistant message and one citation per supplied chunk.
func (s *Service) saveReply(ctx context.Context, t *turn, final *llm.StreamChunk) {
	if s.messages == nil {
		return
	}
	message := commonModels.Message{
		Id:        uuid.New().String(),
		SessionId: t.req.SessionId,
		Role:      commonModels.RoleAssistant,
		Content:   final.Accumulated,
		JsonPayload: map[string]any{
			"provider": t.provider.Name(),
			"model":    t.provider.Model(),
			"usage":    final.Usage,
		},
		CreatedAt: s.now().UTC(),
	}

	citations := make([]commonModels.Citation, 0, len(t.chunks))
	for _, c := range t.chunks {
		citations = append(citations, commonModels.Citation{
			Id:        uuid.New().String(),
			MessageId: message.Id,
			Type:      commonModels.CitationDoc,
			RefId:     c.DocumentId,
			ChunkId:   c.ChunkId,
			Page:      c.Position + 1,
		})
	}

	if err := s.messages.SaveMessage(context.WithoutCancel(ctx), message, citations); err != nil {
		t.log.Warn("could not save assistant message", "error", err)
	}
}
