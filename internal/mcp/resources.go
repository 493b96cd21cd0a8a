package mcpserver

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"ihaboard/internal/errors"
	"ihaboard/internal/imageboard"
	"ihaboard/internal/mapping"
)

const (
	boardsURI     = "ihaboard://boards"
	mappingPrefix = "ihaboard://mapping/"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(mcp.NewResource(
		boardsURI,
		"Supported Boards",
		mcp.WithMIMEType("application/json"),
	), s.handleBoardsResource)

	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			mappingPrefix+"{board}",
			"Active Board Mapping",
		),
		s.handleMappingResource,
	)
}

func (s *Server) handleBoardsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(boardsURI, s.search.Boards())
}

func (s *Server) handleMappingResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	board := strings.TrimPrefix(uri, mappingPrefix)
	if board == "" || board == uri {
		return nil, errors.Newf("could not extract board from URI: %s", uri)
	}
	spec, ok := s.search.Specs().Lookup(board)
	if !ok {
		return nil, errors.Wrapf(imageboard.ErrUnknownBoard, "no mapping for %q", board)
	}
	return jsonResource(uri, mapping.Describe(spec))
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := marshalJSON(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
