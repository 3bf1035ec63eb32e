package rag

import (
	"fmt"
	"strings"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
)

const systemPreamble = `You are Dahlia, an AI legal research assistant. Answer the user's question using the documents below when they are relevant. If the documents do not contain the answer, say so, then answer from general knowledge and make clear which parts are not supported by the documents.

Relevant documents:`

const citationInstruction = `When you use information from a document, cite it inline with the literal format [Document N], where N is the document number shown above.`

// Augment puts the retrieved chunks into a system prompt. With no chunks the
// input is returned as is. An existing leading system message is replaced,
// otherwise the prompt is prepended.
func Augment(messages []commonModels.ChatMessage, chunks []commonModels.RetrievedChunk) []commonModels.ChatMessage {
	if len(chunks) == 0 {
		return messages
	}

	system := commonModels.ChatMessage{Role: commonModels.RoleSystem, Content: buildSystemPrompt(chunks)}
	if len(messages) > 0 && messages[0].Role == commonModels.RoleSystem {
		out := make([]commonModels.ChatMessage, len(messages))
		copy(out, messages)
		out[0] = system
		return out
	}
	out := make([]commonModels.ChatMessage, 0, len(messages)+1)
	out = append(out, system)
	return append(out, messages...)
}

func buildSystemPrompt(chunks []commonModels.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Document %d: %s]\n%s", i+1, c.DocumentTitle, c.Content)
	}
	b.WriteString("\n\n")
	b.WriteString(citationInstruction)
	return b.String()
}

// LastUserMessage is the retrieval query, empty when the user has not spoken.
func LastUserMessage(messages []commonModels.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == commonModels.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func citationRefs(chunks []commonModels.RetrievedChunk) []commonModels.CitationRef {
	if len(chunks) == 0 {
		return nil
	}
	refs := make([]commonModels.CitationRef, 0, len(chunks))
	for _, c := range chunks {
		refs = append(refs, commonModels.CitationRef{
			Type:  commonModels.CitationDoc,
			Id:    c.DocumentId,
			Title: c.DocumentTitle,
			Page:  c.Position + 1,
		})
	}
	return refs
}
