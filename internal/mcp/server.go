// Package mcp exposes document lookup and chat as MCP tools over stdio, so
// AI agents can query the same documents the widget serves.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ukidney/docchat/internal/access"
	"github.com/ukidney/docchat/internal/chat"
	"github.com/ukidney/docchat/internal/resolver"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes document tools.
type Server struct {
	resolver  *resolver.Resolver
	guard     *access.Guard
	chat      chat.Backend
	embedding string
	model     string
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(res *resolver.Resolver, guard *access.Guard, chatBackend chat.Backend, embedding, model string) *Server {
	s := &Server{
		resolver:  res,
		guard:     guard,
		chat:      chatBackend,
		embedding: embedding,
		model:     model,
	}

	s.mcp = server.NewMCPServer(
		"docchat",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
	s.mcp.AddTool(getDocumentTool, s.handleGetDocument)
	s.mcp.AddTool(askDocumentTool, s.handleAskDocument)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
