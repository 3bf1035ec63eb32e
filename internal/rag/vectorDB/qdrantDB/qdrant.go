package qdrantDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

var logger = logger_i.NewLogger("Qdrant")

const (
	fieldUserId        = "user_id"
	fieldDocumentId    = "document_id"
	fieldDocumentTitle = "document_title"
	fieldStatus        = "document_status"
	fieldContent       = "content"
	fieldTokenCount    = "token_count"
	fieldPage          = "page"
	fieldStart         = "start"
	fieldEnd           = "end"
)

// Store keeps every chunk as a point under the named vector "content".
// Chunks without an embedding become vectorless points, so they stay
// readable by id but never match a query.
type Store struct {
	client     *qdrant.Client
	collection string
}

func NewStore(ctx context.Context, cfg config.QdrantConfig) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		APIKey:   cfg.APIKey,
		UseTLS:   cfg.UseTLS,
		PoolSize: uint(cfg.PoolSize),
		GrpcOptions: []grpc.DialOption{
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                config.QdrantKeepAliveTimeout,
				Timeout:             config.QdrantConnectionTimeout,
				PermitWithoutStream: true,
			}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not instantiate qdrant: %w", err)
	}

	if err := createCollection(ctx, client, cfg.Collection); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not create collection %s: %w", cfg.Collection, err)
	}

	go closeQdrant(ctx, client)
	logger.Info("Qdrant connected", "collection", cfg.Collection)
	return &Store{client: client, collection: cfg.Collection}, nil
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			config.QdrantVectorName: {
				Size:     uint64(config.EmbeddingOutputDimensionality),
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return err
	}

	for _, field := range []string{fieldUserId, fieldDocumentId, fieldStatus} {
		_, err = client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) InsertChunks(ctx context.Context, doc commonModels.Document, chunks []commonModels.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		vectors := map[string]*qdrant.Vector{}
		if len(chunk.Embedding) > 0 {
			vectors[config.QdrantVectorName] = qdrant.NewVector(chunk.Embedding...)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.Id),
			Vectors: qdrant.NewVectorsMap(vectors),
			Payload: qdrant.NewValueMap(map[string]any{
				fieldUserId:        doc.UserId,
				fieldDocumentId:    doc.Id,
				fieldDocumentTitle: doc.Name,
				fieldStatus:        string(doc.Status),
				fieldContent:       chunk.Content,
				fieldTokenCount:    chunk.TokenCount,
				fieldPage:          chunk.Page,
				fieldStart:         chunk.Start,
				fieldEnd:           chunk.End,
			}),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant upsert: %v", commonModels.ErrPersistence, err)
	}
	return nil
}

func (s *Store) SimilaritySearch(ctx context.Context, vector []float32, userId string, limit int) ([]commonModels.ScoredChunk, error) {
	if limit <= 0 {
		return []commonModels.ScoredChunk{}, nil
	}
	result, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Using:          qdrant.PtrOf(config.QdrantVectorName),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldUserId, userId),
				qdrant.NewMatch(fieldStatus, string(commonModels.DocumentCompleted)),
			},
		},
		Limit:       qdrant.PtrOf(uint64(limit)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant query: %v", commonModels.ErrRetrieval, err)
	}

	hits := make([]commonModels.ScoredChunk, 0, len(result))
	for _, hit := range result {
		hits = append(hits, commonModels.ScoredChunk{
			ChunkId:       hit.GetId().GetUuid(),
			DocumentId:    hit.Payload[fieldDocumentId].GetStringValue(),
			DocumentTitle: hit.Payload[fieldDocumentTitle].GetStringValue(),
			Content:       hit.Payload[fieldContent].GetStringValue(),
			Page:          int(hit.Payload[fieldPage].GetIntegerValue()),
			Similarity:    float64(hit.GetScore()),
		})
	}
	return hits, nil
}

// PublishDocumentStatus copies the document status onto every point of the document.
func (s *Store) PublishDocumentStatus(ctx context.Context, documentId string, status commonModels.DocumentStatus) error {
	_, err := s.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: s.collection,
		Payload:        qdrant.NewValueMap(map[string]any{fieldStatus: string(status)}),
		PointsSelector: qdrant.NewPointsSelectorFilter(documentFilter(documentId)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant set payload: %v", commonModels.ErrPersistence, err)
	}
	return nil
}

func (s *Store) CountChunks(ctx context.Context, documentId string) (int64, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         documentFilter(documentId),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: qdrant count: %v", commonModels.ErrPersistence, err)
	}
	return int64(count), nil
}

func (s *Store) GetChunk(ctx context.Context, chunkId string) (commonModels.Chunk, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(chunkId)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return commonModels.Chunk{}, fmt.Errorf("%w: qdrant get: %v", commonModels.ErrPersistence, err)
	}
	if len(points) == 0 {
		return commonModels.Chunk{}, commonModels.ErrNotFound
	}
	payload := points[0].GetPayload()
	return commonModels.Chunk{
		Id:         chunkId,
		DocumentId: payload[fieldDocumentId].GetStringValue(),
		Content:    payload[fieldContent].GetStringValue(),
		TokenCount: int(payload[fieldTokenCount].GetIntegerValue()),
		Page:       int(payload[fieldPage].GetIntegerValue()),
		Start:      int(payload[fieldStart].GetIntegerValue()),
		End:        int(payload[fieldEnd].GetIntegerValue()),
	}, nil
}

func documentFilter(documentId string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(fieldDocumentId, documentId)},
	}
}
