package mcpserver

import (
	"context"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"ihaboard/internal/errors"
	"ihaboard/internal/imageboard"
	"ihaboard/internal/service"
)

const defaultHistoryLimit = 20

func (s *Server) registerSearchTools() {
	s.mcp.AddTool(mcp.NewTool("search_board",
		mcp.WithDescription("Search an imageboard by tags and return normalized results (results, total_data, parser, status_code)"),
		mcp.WithString("board", mcp.Description("Board name (use list_boards to see available boards)"), mcp.Required()),
		mcp.WithString("tags", mcp.Description(`Tags joined by "+" or spaces, e.g. "hatsune_miku+1girl"`)),
		mcp.WithBoolean("random", mcp.Description("Return a random selection instead of the newest posts")),
	), s.handleSearchBoard)

	s.mcp.AddTool(mcp.NewTool("list_boards",
		mcp.WithDescription("List the supported imageboards and whether they support random search"),
	), s.handleListBoards)

	s.mcp.AddTool(mcp.NewTool("search_history",
		mcp.WithDescription("Show recent searches, newest first"),
		mcp.WithString("board", mcp.Description("Only show searches of this board (optional)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 20)")),
	), s.handleSearchHistory)

	s.mcp.AddTool(mcp.NewTool("preview_mapping",
		mcp.WithDescription("Map one raw upstream record through a board's mapping without calling the upstream"),
		mcp.WithString("board", mcp.Description("Board whose mapping to apply"), mcp.Required()),
		mcp.WithString("recordJSON", mcp.Description("Raw upstream record as a JSON object"), mcp.Required()),
	), s.handlePreviewMapping)
}

func (s *Server) handleSearchBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	board, _ := args["board"].(string)
	tags, _ := args["tags"].(string)
	random, _ := args["random"].(bool)
	if board == "" {
		return nil, errors.New("board is required")
	}

	env, err := s.search.Search(ctx, service.SearchRequest{
		Board:  board,
		Tags:   imageboard.SplitTags(tags),
		Random: random,
		Origin: service.OriginMCP,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "search %s", board)
	}
	return jsonResult(env)
}

func (s *Server) handleListBoards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.search.Boards())
}

func (s *Server) handleSearchHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	board, _ := args["board"].(string)
	limit := defaultHistoryLimit
	if n, ok := args["limit"].(float64); ok && n >= 1 {
		limit = int(math.Min(n, 1000))
	}

	entries, err := s.search.History(ctx, board, limit)
	if err != nil {
		return nil, err
	}
	return jsonResult(entries)
}

func (s *Server) handlePreviewMapping(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	board, _ := args["board"].(string)
	raw, _ := args["recordJSON"].(string)
	if board == "" || raw == "" {
		return nil, errors.New("board and recordJSON are required")
	}

	record, err := parseRecord(raw)
	if err != nil {
		return nil, err
	}
	mapped, err := s.search.PreviewMapping(board, record)
	if err != nil {
		return nil, errors.Wrap(err, "preview mapping")
	}
	return jsonResult(mapped)
}
