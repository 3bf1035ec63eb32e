package postgres

import (
	"encoding/json"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

func toJSON(m map[string]any) datatypes.JSON {
	if len(m) == 0 {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func fromJSON(raw datatypes.JSON) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func toDocumentRow(doc commonModels.Document) DocumentRow {
	return DocumentRow{
		ID:          doc.Id,
		UserID:      doc.UserId,
		Name:        doc.Name,
		Type:        doc.Type,
		Size:        doc.Size,
		Status:      string(doc.Status),
		UploadedAt:  doc.UploadedAt,
		ProcessedAt: doc.ProcessedAt,
		Metadata:    toJSON(doc.Metadata),
	}
}

func (r DocumentRow) toDomain() commonModels.Document {
	return commonModels.Document{
		Id:          r.ID,
		UserId:      r.UserID,
		Name:        r.Name,
		Type:        r.Type,
		Size:        r.Size,
		Status:      commonModels.DocumentStatus(r.Status),
		UploadedAt:  r.UploadedAt,
		ProcessedAt: r.ProcessedAt,
		Metadata:    fromJSON(r.Metadata),
	}
}

// ToChunkRow is shared with the pgvector chunk store.
func ToChunkRow(chunk commonModels.Chunk) ChunkRow {
	row := ChunkRow{
		ID:          chunk.Id,
		DocumentID:  chunk.DocumentId,
		Content:     chunk.Content,
		TokenCount:  chunk.TokenCount,
		Page:        chunk.Page,
		StartOffset: chunk.Start,
		EndOffset:   chunk.End,
		Metadata:    toJSON(chunk.Metadata),
	}
	if len(chunk.Embedding) > 0 {
		vec := pgvector.NewVector(chunk.Embedding)
		row.Embedding = &vec
	}
	return row
}

func (r ChunkRow) ToDomain() commonModels.Chunk {
	chunk := commonModels.Chunk{
		Id:         r.ID,
		DocumentId: r.DocumentID,
		Content:    r.Content,
		TokenCount: r.TokenCount,
		Page:       r.Page,
		Start:      r.StartOffset,
		End:        r.EndOffset,
		Metadata:   fromJSON(r.Metadata),
	}
	if r.Embedding != nil {
		chunk.Embedding = r.Embedding.Slice()
	}
	return chunk
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r UsageLogRow) toDomain() commonModels.UsageLog {
	entry := commonModels.UsageLog{
		Id:               r.ID,
		UserId:           r.UserID,
		Provider:         r.Provider,
		Model:            r.Model,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		TotalTokens:      r.TotalTokens,
		Ms:               r.Ms,
		CostUSD:          r.CostUSD,
		Timestamp:        r.Timestamp,
	}
	if r.SessionID != nil {
		entry.SessionId = *r.SessionID
	}
	return entry
}
