package ingest

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/akolanti/ragchat/internal/domain/commonModels"
	"github.com/akolanti/ragchat/internal/rag/llm"
	"github.com/google/uuid"
)

const (
	mimeText = "text/plain"
	mimePDF  = "application/pdf"
)

var (
	dataURLPattern  = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)
	sentencePattern = regexp.MustCompile(`[.!?]+\s+`)
)

// decodeDataURL splits "data:<mime>;base64,<payload>" into its mime and bytes.
func decodeDataURL(dataURL string) (string, []byte, error) {
	matches := dataURLPattern.FindStringSubmatch(dataURL)
	if matches == nil {
		return "", nil, commonModels.Detail(commonModels.ErrInvalidPayload, "Invalid file data format")
	}
	raw, err := base64.StdEncoding.DecodeString(matches[2])
	if err != nil {
		// clients sometimes drop the padding
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(matches[2], "="))
		if err != nil {
			return "", nil, commonModels.Detail(commonModels.ErrInvalidPayload, "Invalid file data format")
		}
	}
	return matches[1], raw, nil
}

// extractText only understands plain text for now.
func extractText(mime string, raw []byte) (string, error) {
	switch mime {
	case mimeText:
		if !utf8.Valid(raw) {
			return strings.ToValidUTF8(string(raw), "�"), nil
		}
		return string(raw), nil
	case mimePDF:
		return "", commonModels.Detail(commonModels.ErrUnsupportedMediaType, "PDF processing not yet implemented")
	default:
		return "", commonModels.Detail(commonModels.ErrUnsupportedMediaType, "Unsupported file type")
	}
}

func splitSentences(text string) []string {
	parts := sentencePattern.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// buildChunks groups sentences SentencesPerChunk at a time. Page is the
// 1-based group number, Start/End the inclusive sentence range.
func buildChunks(documentId string, text string) []commonModels.Chunk {
	sentences := splitSentences(text)
	chunks := make([]commonModels.Chunk, 0, len(sentences)/config.SentencesPerChunk+1)

	for i := 0; i < len(sentences); i += config.SentencesPerChunk {
		end := min(i+config.SentencesPerChunk, len(sentences))
		content := strings.TrimSpace(strings.Join(sentences[i:end], ". "))
		if content == "" {
			continue
		}
		last := end - 1
		chunks = append(chunks, commonModels.Chunk{
			Id:         uuid.New().String(),
			DocumentId: documentId,
			Content:    content,
			TokenCount: llm.EstimateTokens(content),
			Page:       i/config.SentencesPerChunk + 1,
			Start:      i,
			End:        last,
			Metadata:   map[string]any{"sentence_range": []int{i, last}},
		})
	}
	return chunks
}

func defaultName(unixMillis int64) string {
	return fmt.Sprintf("document_%d", unixMillis)
}
