package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ihaboard/internal/imageboard"
	_ "ihaboard/internal/imageboard/boards"
	"ihaboard/internal/service"
)

const posts = `[{
	"id": 7, "tag_string": "1girl solo", "tag_string_character": "hatsune_miku",
	"tag_string_meta": "", "tag_string_artist": "kei", "source": null,
	"preview_file_url": "p", "file_url": "f",
	"image_width": 10, "image_height": 20, "file_ext": "png", "file_size": 30
}]`

func newTestServer(t *testing.T) (*Server, func() string) {
	t.Helper()
	var lastQuery atomic.Value
	lastQuery.Store("")
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastQuery.Store(r.URL.RawQuery)
		w.Write([]byte(posts))
	}))
	t.Cleanup(upstream.Close)

	svc := service.NewSearchService(nil, &service.MockEmitter{}, imageboard.Options{})
	svc.SetBaseURL("danbooru", upstream.URL)
	return New(Deps{Search: svc}), func() string { return lastQuery.Load().(string) }
}

func callTool(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestSearchBoardTool(t *testing.T) {
	s, lastQuery := newTestServer(t)

	res, err := s.handleSearchBoard(context.Background(), callTool(map[string]any{
		"board": "danbooru",
		"tags":  "hatsune_miku 1girl",
	}))
	require.NoError(t, err)
	assert.Equal(t, "limit=10&tags=hatsune_miku+1girl", lastQuery())

	var env struct {
		Results    []map[string]any `json:"results"`
		TotalData  int              `json:"total_data"`
		Parser     string           `json:"parser"`
		StatusCode int              `json:"status_code"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &env))
	assert.Equal(t, 200, env.StatusCode)
	assert.Equal(t, "danbooru", env.Parser)
	require.Equal(t, 1, env.TotalData)
	assert.Equal(t, "hatsune_miku", env.Results[0]["title"])
}

func TestSearchBoardToolRandom(t *testing.T) {
	s, lastQuery := newTestServer(t)

	_, err := s.handleSearchBoard(context.Background(), callTool(map[string]any{
		"board":  "danbooru",
		"tags":   "Blue_Eyes",
		"random": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, "limit=10&tags=blue_eyes+order%3Arandom", lastQuery())
}

func TestSearchBoardToolErrors(t *testing.T) {
	s, _ := newTestServer(t)

	_, err := s.handleSearchBoard(context.Background(), callTool(map[string]any{}))
	assert.Error(t, err)

	_, err = s.handleSearchBoard(context.Background(), callTool(map[string]any{"board": "nope"}))
	assert.ErrorIs(t, err, imageboard.ErrUnknownBoard)

	_, err = s.handleSearchBoard(context.Background(), callTool(map[string]any{
		"board": "zerochan", "random": true,
	}))
	assert.ErrorIs(t, err, imageboard.ErrRandomUnsupported)
}

func TestListBoardsTool(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleListBoards(context.Background(), callTool(nil))
	require.NoError(t, err)

	var infos []imageboard.Info
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &infos))
	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Subset(t, names, []string{"danbooru", "safebooru", "zerochan"})
}

func TestSearchHistoryToolWithoutStore(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleSearchHistory(context.Background(), callTool(map[string]any{"limit": float64(5)}))
	require.NoError(t, err)
	assert.Equal(t, "[]", resultText(t, res))
}

func TestPreviewMappingTool(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handlePreviewMapping(context.Background(), callTool(map[string]any{
		"board":      "zerochan",
		"recordJSON": `{"id": 12345678901234567, "tag": "Miku", "tags": ["a"], "source": null, "thumbnail": "t", "width": 1, "height": 2}`,
	}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, `"id": 12345678901234567`)
	assert.Contains(t, text, `"source": ""`)

	_, err = s.handlePreviewMapping(context.Background(), callTool(map[string]any{
		"board": "zerochan", "recordJSON": `[1, 2]`,
	}))
	assert.Error(t, err)

	_, err = s.handlePreviewMapping(context.Background(), callTool(map[string]any{
		"board": "zerochan", "recordJSON": `{"id": 1}`,
	}))
	assert.Error(t, err)
}

func TestMappingResource(t *testing.T) {
	s, _ := newTestServer(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "ihaboard://mapping/danbooru"
	contents, err := s.handleMappingResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.Contains(t, text.Text, `"tags": "++ ++tag_string"`)

	req.Params.URI = "ihaboard://mapping/nope"
	_, err = s.handleMappingResource(context.Background(), req)
	assert.ErrorIs(t, err, imageboard.ErrUnknownBoard)
}

func TestFindImagesPrompt(t *testing.T) {
	s, _ := newTestServer(t)

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"description": "a cat"}
	res, err := s.handleFindImagesPrompt(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Contains(t, res.Messages[0].Content.(mcp.TextContent).Text, `board "danbooru"`)
}
