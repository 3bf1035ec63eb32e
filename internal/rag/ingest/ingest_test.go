package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/akolanti/ragchat/internal/data/store"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/worker"
)

type mockEmbedder struct {
	OnGetEmbedding func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	return m.OnGetEmbedding(ctx, text)
}

type failingChunks struct {
	*store.InMemoryCorpus
}

func (f failingChunks) InsertChunks(context.Context, commonModels.Document, []commonModels.Chunk) error {
	return commonModels.ErrPersistence
}

func textDataURL(text string) string {
	return "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte(text))
}

func newTestService(embed func(ctx context.Context, text string) ([]float32, error)) (*Service, *store.InMemoryCorpus) {
	corpus := store.NewInMemoryCorpus()
	pool := worker.NewPool(&mockEmbedder{OnGetEmbedding: embed}, 2)
	return NewService(corpus, corpus, pool), corpus
}

func unitVector(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func TestDecodeDataURL(t *testing.T) {
	mime, raw, err := decodeDataURL(textDataURL("hi there"))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if mime != "text/plain" || string(raw) != "hi there" {
		t.Errorf("got %q %q", mime, raw)
	}

	for _, bad := range []string{"hello", "data:text/plain,abc", "data:;base64,abc", "data:text/plain;base64,@@@"} {
		if _, _, err := decodeDataURL(bad); !errors.Is(err, commonModels.ErrInvalidPayload) {
			t.Errorf("decodeDataURL(%q) = %v, want ErrInvalidPayload", bad, err)
		}
	}
}

func TestExtractText(t *testing.T) {
	if _, err := extractText("application/pdf", nil); err == nil || err.Error() != "PDF processing not yet implemented" {
		t.Errorf("pdf: got %v", err)
	}
	if _, err := extractText("image/png", nil); !errors.Is(err, commonModels.ErrUnsupportedMediaType) {
		t.Errorf("png: got %v", err)
	}
}

func TestBuildChunks(t *testing.T) {
	text := "One. Two! Three? Four. Five.   Six.\nSeven."
	chunks := buildChunks("doc-1", text)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "One. Two. Three" {
		t.Errorf("chunk 0 content = %q", chunks[0].Content)
	}
	if chunks[2].Content != "Seven." {
		t.Errorf("chunk 2 content = %q", chunks[2].Content)
	}
	if chunks[1].Page != 2 || chunks[1].Start != 3 || chunks[1].End != 5 {
		t.Errorf("chunk 1 position = page %d [%d,%d]", chunks[1].Page, chunks[1].Start, chunks[1].End)
	}
	if chunks[2].Start != 6 || chunks[2].End != 6 {
		t.Errorf("last chunk range = [%d,%d]", chunks[2].Start, chunks[2].End)
	}
	if got := chunks[2].Metadata["sentence_range"]; !reflect.DeepEqual(got, []int{6, 6}) {
		t.Errorf("sentence_range = %v", got)
	}
	if len(buildChunks("doc-1", "   ")) != 0 {
		t.Error("blank text should produce no chunks")
	}
}

func TestProcess_PlainTextDocument(t *testing.T) {
	svc, corpus := newTestService(unitVector)
	ctx := context.Background()

	text := "Hello world. This is a test. Another sentence."
	result, err := svc.Process(ctx, Upload{UserId: "user-1", Name: "notes.txt", DataURL: textDataURL(text)})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.ChunksCreated != 1 {
		t.Fatalf("expected 1 chunk, got %d", result.ChunksCreated)
	}

	status, err := svc.Status(ctx, result.DocumentId)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	doc := status.Document
	if doc.Status != commonModels.DocumentCompleted || doc.ProcessedAt == nil {
		t.Errorf("document not completed: %+v", doc)
	}
	if doc.Type != "text/plain" || doc.Size != int64(len(text)) {
		t.Errorf("type/size defaults not applied: %s %d", doc.Type, doc.Size)
	}
	if status.ChunkCount != 1 {
		t.Errorf("chunk count = %d", status.ChunkCount)
	}

	hits, _ := corpus.SimilaritySearch(ctx, []float32{1, 0, 0}, "user-1", 5)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	chunk, _ := corpus.GetChunk(ctx, hits[0].ChunkId)
	want := (len(text) + 3) / 4
	if chunk.TokenCount != want {
		t.Errorf("token count = %d, want %d", chunk.TokenCount, want)
	}
}

func TestProcess_DefaultName(t *testing.T) {
	svc, _ := newTestService(unitVector)
	result, err := svc.Process(context.Background(), Upload{UserId: "u", DataURL: textDataURL("Just one.")})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	status, _ := svc.Status(context.Background(), result.DocumentId)
	if !strings.HasPrefix(status.Document.Name, "document_") {
		t.Errorf("name = %q", status.Document.Name)
	}
}

func TestProcess_EmbeddingFailureDegrades(t *testing.T) {
	var calls int64
	svc, corpus := newTestService(func(_ context.Context, text string) ([]float32, error) {
		atomic.AddInt64(&calls, 1)
		if strings.HasPrefix(text, "Bad") {
			return nil, commonModels.ErrEmbedding
		}
		return []float32{0, 1, 0}, nil
	})
	ctx := context.Background()

	text := "Good one. Good two. Good three. Bad four. Bad five. Bad six."
	result, err := svc.Process(ctx, Upload{UserId: "u", DataURL: textDataURL(text)})
	if err != nil {
		t.Fatalf("embedding failures must not fail ingestion: %v", err)
	}
	if result.ChunksCreated != 2 || atomic.LoadInt64(&calls) != 2 {
		t.Fatalf("chunks=%d calls=%d", result.ChunksCreated, calls)
	}

	status, _ := svc.Status(ctx, result.DocumentId)
	if status.ChunkCount != 2 || status.Document.Status != commonModels.DocumentCompleted {
		t.Errorf("unexpected status %+v", status)
	}
	hits, _ := corpus.SimilaritySearch(ctx, []float32{0, 1, 0}, "u", 10)
	if len(hits) != 1 {
		t.Errorf("chunk without embedding must not be searchable, got %d hits", len(hits))
	}
}

func TestProcess_RejectsBeforePersistence(t *testing.T) {
	svc, corpus := newTestService(unitVector)
	ctx := context.Background()

	tests := []struct {
		name   string
		upload Upload
		kind   error
	}{
		{"missing user", Upload{DataURL: textDataURL("x.")}, commonModels.ErrValidation},
		{"missing file", Upload{UserId: "u"}, commonModels.ErrValidation},
		{"not a data url", Upload{UserId: "u", DataURL: "hello"}, commonModels.ErrInvalidPayload},
		{"pdf", Upload{UserId: "u", DataURL: "data:application/pdf;base64,JVBERi0="}, commonModels.ErrUnsupportedMediaType},
		{"declared type wins", Upload{UserId: "u", Type: "image/png", DataURL: textDataURL("x.")}, commonModels.ErrUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Process(ctx, tt.upload)
			if !errors.Is(err, tt.kind) {
				t.Errorf("got %v, want %v", err, tt.kind)
			}
		})
	}

	hits, _ := corpus.SimilaritySearch(ctx, []float32{1, 0, 0}, "u", 10)
	if len(hits) != 0 {
		t.Error("rejected uploads must not write anything")
	}
}

func TestProcess_StorageFailureMarksError(t *testing.T) {
	corpus := store.NewInMemoryCorpus()
	pool := worker.NewPool(&mockEmbedder{OnGetEmbedding: unitVector}, 1)
	svc := NewService(corpus, failingChunks{corpus}, pool)
	ctx := context.Background()

	_, err := svc.Process(ctx, Upload{UserId: "u", Name: "doc", DataURL: textDataURL("A. B. C.")})
	if !errors.Is(err, commonModels.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if commonModels.HttpStatus(err) != 500 {
		t.Errorf("storage failure should map to 500")
	}
}

func TestStatus_UnknownDocument(t *testing.T) {
	svc, _ := newTestService(unitVector)
	_, err := svc.Status(context.Background(), "nope")
	if !errors.Is(err, commonModels.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
