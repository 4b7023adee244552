package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apppublic "connect-arena/internal/app/public"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the read-only query surface as MCP tools over streamable
// HTTP.
type Server struct {
	publicSvc *apppublic.Service

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(publicSvc *apppublic.Service) *Server {
	mcpSrv := server.NewMCPServer(
		"connect-arena",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		publicSvc:  publicSvc,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerPublicTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"game://{game_id}",
			"game",
			mcp.WithTemplateDescription("Finished game record, or the live view of a game in progress"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := string(request.Params.URI)
			gameID := strings.TrimPrefix(raw, "game://")
			if gameID == raw || gameID == "" {
				return nil, apppublic.ErrInvalidRequest
			}
			resp, err := s.publicSvc.Game(ctx, gameID)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(resp)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}
