package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("find_images",
		mcp.WithPromptDescription("Turn a plain description into tag searches across the supported boards"),
		mcp.WithArgument("description",
			mcp.ArgumentDescription("What the images should show"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("board",
			mcp.ArgumentDescription("Board to search (optional, defaults to danbooru)"),
		),
	), s.handleFindImagesPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tune_mapping",
		mcp.WithPromptDescription("Check a board mapping against a raw upstream record"),
		mcp.WithArgument("board",
			mcp.ArgumentDescription("Board whose mapping to check"),
			mcp.RequiredArgument(),
		),
	), s.handleTuneMappingPrompt)
}

func (s *Server) handleFindImagesPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	description := req.Params.Arguments["description"]
	board := req.Params.Arguments["board"]
	if board == "" {
		board = "danbooru"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Find images of: %s", description),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Find images matching "%s" on %s. Follow these steps:

1. Translate the description into board tags (lowercase, words joined by underscores, e.g. "blue_eyes")
2. Call search_board with board "%s" and the tags joined by "+"
3. If nothing comes back, drop the least important tag and search again
4. Summarize the results by id with their thumbnail and source

Use list_boards first if you are unsure the board exists.`, description, board, board),
				},
			},
		},
	}, nil
}

func (s *Server) handleTuneMappingPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	board := req.Params.Arguments["board"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Check the %s mapping", board),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Review the output mapping of the %s board.

1. Read the resource ihaboard://mapping/%s to see the active rules
2. Rules look like "source_key", or "++<delim>++source_key" to split a string into a list
3. Ask me for one raw upstream record, then call preview_mapping with it
4. Point out fields that came back empty or keys the record does not have`, board, board),
				},
			},
		},
	}, nil
}
