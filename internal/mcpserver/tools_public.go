package mcpserver

import (
	"context"

	"connect-arena/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPublicTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_leaderboard",
			mcp.WithDescription("Wins per username, draws excluded, most wins first"),
			mcp.WithNumber("limit", mcp.Description("Number of rows, default 20, max 100")),
		),
		s.handleGetLeaderboard,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_game",
			mcp.WithDescription("Look up a game by id: the finished record, or the live view while it is being played"),
			mcp.WithString("game_id", mcp.Required(), mcp.Description("Game id")),
		),
		s.handleGetGame,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_completed_games",
			mcp.WithDescription("Most recently finished games, newest first"),
		),
		s.handleListCompletedGames,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"live_stats",
			mcp.WithDescription("Players waiting for an opponent and sessions in progress"),
		),
		s.handleLiveStats,
	)
}

func (s *Server) handleGetLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", store.DefaultLeaderboardLimit)
	if limit < 0 {
		return toolError("invalid_request", "limit must be positive"), nil
	}
	resp, err := s.publicSvc.Leaderboard(ctx, limit)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := request.RequireString("game_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, err := s.publicSvc.Game(ctx, gameID)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleListCompletedGames(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.publicSvc.CompletedGames(ctx)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleLiveStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.publicSvc.Stats()), nil
}
