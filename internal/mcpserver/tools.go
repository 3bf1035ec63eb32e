package mcpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/akolanti/ragchat/internal/config"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SearchInput struct {
	UserId string `json:"user_id" jsonschema:"owner of the documents to search"`
	Query  string `json:"query" jsonschema:"natural language query"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of chunks before thresholding (default 5)"`
}

type SearchOutput struct {
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

type SearchResult struct {
	DocumentId    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	ChunkId       string  `json:"chunk_id"`
	Page          int     `json:"page"`
	Similarity    float64 `json:"similarity"`
	Content       string  `json:"content"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search a user's completed documents by meaning. Only chunks at or above the similarity threshold are returned.",
	}, s.handleSearch)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.UserId) == "" {
		return nil, SearchOutput{}, errors.New("user_id is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = config.ChatRetrievalLimit
	}

	chunks := s.retriever.Retrieve(ctx, input.Query, input.UserId, min(limit, config.MaxSearchLimit))
	output := SearchOutput{Results: make([]SearchResult, len(chunks)), Count: len(chunks)}
	for i, c := range chunks {
		output.Results[i] = SearchResult{
			DocumentId:    c.DocumentId,
			DocumentTitle: c.DocumentTitle,
			ChunkId:       c.ChunkId,
			Page:          c.Position + 1,
			Similarity:    c.Similarity,
			Content:       c.Content,
		}
	}
	return nil, output, nil
}
