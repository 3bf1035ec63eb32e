package mcpserver

import (
	"net/http"

	"github.com/akolanti/ragchat/internal/rag"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "1.0.0"

// Server exposes retrieval to MCP clients.
type Server struct {
	retriever *rag.Retriever
	server    *mcp.Server
}

func NewServer(retriever *rag.Retriever) *Server {
	s := &Server{
		retriever: retriever,
		server:    mcp.NewServer(&mcp.Implementation{Name: "ragchat", Version: Version}, nil),
	}
	s.registerTools()
	return s
}

// Handler serves the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}
