package ingest

import (
	"context"
	"time"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/domain/ragModel"
	"github.com/akolanti/ragchat/internal/metrics"
	"github.com/akolanti/ragchat/internal/rag/vectorDB"
	"github.com/akolanti/ragchat/internal/worker"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/google/uuid"
)

// Upload is one document as received at the edge. Empty Name, Type and
// Size are filled from the data URL.
type Upload struct {
	UserId   string
	Name     string
	Type     string
	Size     int64
	DataURL  string
	Metadata map[string]any
}

type Result struct {
	DocumentId    string
	ChunksCreated int
}

type Status struct {
	Document   commonModels.Document
	ChunkCount int64
}

type Service struct {
	documents ragModel.DocumentStore
	chunks    vectorDB.ChunkStore
	pool      *worker.Pool
	logger    *logger_i.Logger
	now       func() time.Time
}

func NewService(documents ragModel.DocumentStore, chunks vectorDB.ChunkStore, pool *worker.Pool) *Service {
	return &Service{
		documents: documents,
		chunks:    chunks,
		pool:      pool,
		logger:    logger_i.NewLogger("Document Ingestion"),
		now:       time.Now,
	}
}

// Process decodes, stores, chunks and embeds one upload. Input problems are
// rejected before anything is written. Once the document row exists, any
// failure moves it to error.
func (s *Service) Process(ctx context.Context, upload Upload) (Result, error) {
	log := s.logger.WithTrace(ctx).With("userId", upload.UserId)

	if upload.UserId == "" {
		return Result{}, commonModels.Detail(commonModels.ErrValidation, "User ID is required")
	}
	if upload.DataURL == "" {
		return Result{}, commonModels.Detail(commonModels.ErrValidation, "No file provided")
	}

	mime, raw, err := decodeDataURL(upload.DataURL)
	if err != nil {
		log.Warn("rejecting upload", "error", err)
		return Result{}, err
	}

	doc := commonModels.Document{
		Id:         uuid.New().String(),
		UserId:     upload.UserId,
		Name:       upload.Name,
		Type:       upload.Type,
		Size:       upload.Size,
		Status:     commonModels.DocumentProcessing,
		UploadedAt: s.now().UTC(),
		Metadata:   upload.Metadata,
	}
	if doc.Type == "" {
		doc.Type = mime
	}
	if doc.Name == "" {
		doc.Name = defaultName(doc.UploadedAt.UnixMilli())
	}
	if doc.Size == 0 {
		doc.Size = int64(len(raw))
	}

	text, err := extractText(doc.Type, raw)
	if err != nil {
		log.Warn("rejecting upload", "type", doc.Type, "error", err)
		return Result{}, err
	}

	if err := s.documents.CreateDocument(ctx, doc); err != nil {
		log.Error("Error creating document", "error", err)
		return Result{}, err
	}
	log = log.With("documentId", doc.Id)

	chunks, err := s.index(ctx, doc, text)
	if err != nil {
		log.Error("Error processing document", "error", err)
		s.fail(ctx, doc.Id)
		return Result{}, err
	}

	log.Info("Document processed", "chunks", len(chunks))
	return Result{DocumentId: doc.Id, ChunksCreated: len(chunks)}, nil
}

func (s *Service) index(ctx context.Context, doc commonModels.Document, text string) ([]commonModels.Chunk, error) {
	log := s.logger.WithTrace(ctx).With("documentId", doc.Id)

	chunks := buildChunks(doc.Id, text)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, failed := s.pool.EmbedAll(ctx, texts)
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	if failed > 0 {
		log.Warn("some chunks stored without embedding", "failed", failed, "total", len(chunks))
	}

	if len(chunks) > 0 {
		if err := s.chunks.InsertChunks(ctx, doc, chunks); err != nil {
			return nil, err
		}
	}
	metrics.CaptureIngestedChunks(len(chunks)-failed, failed)

	if err := s.documents.MarkCompleted(ctx, doc.Id, s.now().UTC()); err != nil {
		return nil, err
	}
	if publisher, ok := s.chunks.(vectorDB.StatusPublisher); ok {
		if err := publisher.PublishDocumentStatus(ctx, doc.Id, commonModels.DocumentCompleted); err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

// fail is best effort, the caller already has the real error.
func (s *Service) fail(ctx context.Context, documentId string) {
	ctx = context.WithoutCancel(ctx)
	log := s.logger.WithTrace(ctx).With("documentId", documentId)
	if err := s.documents.MarkFailed(ctx, documentId); err != nil {
		log.Warn("could not mark document failed", "error", err)
	}
	if publisher, ok := s.chunks.(vectorDB.StatusPublisher); ok {
		if err := publisher.PublishDocumentStatus(ctx, documentId, commonModels.DocumentError); err != nil {
			log.Warn("could not publish failed status", "error", err)
		}
	}
}

func (s *Service) Status(ctx context.Context, documentId string) (Status, error) {
	doc, err := s.documents.GetDocument(ctx, documentId)
	if err != nil {
		return Status{}, err
	}
	count, err := s.chunks.CountChunks(ctx, documentId)
	if err != nil {
		return Status{}, err
	}
	return Status{Document: doc, ChunkCount: count}, nil
}
