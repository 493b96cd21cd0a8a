package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ihaboard/internal/config"
	"ihaboard/internal/domain"
)

const danbooruPosts = `[{
	"id": 4242, "tag_string": "1girl 初音ミク", "tag_string_character": "hatsune_miku",
	"tag_string_meta": "", "tag_string_artist": "kei", "source": null,
	"preview_file_url": "https://cdn.example/p/4242.jpg", "file_url": "https://cdn.example/f/4242.png",
	"image_width": 10, "image_height": 20, "file_ext": "png", "file_size": 30
}]`

const zerochanListing = `{"items": [
	{"id": 3001, "width": 1000, "height": 1400, "thumbnail": "t", "source": "",
	 "tag": "Hatsune Miku", "tags": ["Hatsune Miku"]}
]}`

type fixture struct {
	app       *App
	handler   http.Handler
	lastQuery atomic.Value
}

func newFixture(t *testing.T, mappingFile string) *fixture {
	t.Helper()
	f := &fixture{}
	f.lastQuery.Store("")

	upstream := http.NewServeMux()
	upstream.HandleFunc("/posts.json", func(w http.ResponseWriter, r *http.Request) {
		f.lastQuery.Store(r.URL.RawQuery)
		if strings.Contains(r.URL.RawQuery, "broken") {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(danbooruPosts))
	})
	upstream.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		f.lastQuery.Store(r.URL.RawQuery)
		_, _ = w.Write([]byte(zerochanListing))
	})
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Server: config.ServerConfig{Addr: "127.0.0.1:0"},
		HTTP:   config.HTTPConfig{UserAgent: "ihaboard-test", TimeoutSeconds: 5, MaxBodyBytes: 1 << 20},
		Boards: config.BoardsConfig{Limit: 10, DanbooruURL: srv.URL, ZerochanURL: srv.URL},
		Mapping: config.MappingConfig{File: mappingFile},
		History: domain.StoreConfig{
			Driver: domain.StoreDriverSQLite,
			DSN:    filepath.Join(t.TempDir(), "history.db"),
		},
	}

	f.app = New(cfg, nil)
	require.NoError(t, f.app.Startup(context.Background()))
	t.Cleanup(func() { f.app.Shutdown(context.Background()) })
	f.handler = f.app.Handler()
	return f
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestDanbooruRoute(t *testing.T) {
	f := newFixture(t, "")

	rec := f.get(t, "/danbooru?search=hatsune_miku+1girl")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "limit=10&tags=hatsune_miku+1girl", f.lastQuery.Load())

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "{\n    \"results\": ["), body)
	assert.Contains(t, body, "https://cdn.example/f/4242.png")
	assert.Contains(t, body, "初音ミク")

	env := decodeBody(t, rec)
	assert.Equal(t, "danbooru", env["parser"])
	assert.EqualValues(t, 1, env["total_data"])
	assert.EqualValues(t, 200, env["status_code"])
	result := env["results"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"1girl", "初音ミク"}, result["tags"])
	assert.Equal(t, "", result["source"])
}

func TestSafebooruRoute(t *testing.T) {
	f := newFixture(t, "")

	rec := f.get(t, "/safebooru?search=1girl+rating:explicit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "limit=10&tags=1girl+rating%3Asafe", f.lastQuery.Load())
}

func TestRandomFlag(t *testing.T) {
	f := newFixture(t, "")

	f.get(t, "/danbooru?search=Blue_Eyes&random=YES")
	assert.Equal(t, "limit=10&tags=blue_eyes+order%3Arandom", f.lastQuery.Load())

	f.get(t, "/danbooru?search=Blue_Eyes&random=maybe")
	assert.Equal(t, "limit=10&tags=Blue_Eyes", f.lastQuery.Load())
}

func TestZerochanRoute(t *testing.T) {
	f := newFixture(t, "")

	rec := f.get(t, "/zerochan?search=Hatsune_Miku")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "json&s=id&l=10", f.lastQuery.Load())
	assert.Equal(t, "zerochan", decodeBody(t, rec)["parser"])

	rec = f.get(t, "/zerochan?random=1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.EqualValues(t, 400, decodeBody(t, rec)["status_code"])
}

func TestUpstreamFailureEnvelope(t *testing.T) {
	f := newFixture(t, "")

	rec := f.get(t, "/boards/danbooru?search=broken")
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeBody(t, rec)
	assert.Equal(t, "error occured.", env["message"])
	assert.EqualValues(t, 503, env["status_code"])
	assert.Empty(t, env["results"])
	assert.NotContains(t, env, "parser")
}

func TestUnknownBoard(t *testing.T) {
	f := newFixture(t, "")

	rec := f.get(t, "/boards/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 404, body["status_code"])
	assert.Contains(t, body["message"], "unknown board")
}

func TestBoardsRoute(t *testing.T) {
	f := newFixture(t, "")

	rec := f.get(t, "/boards")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BoardsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	paths := map[string]string{}
	for _, b := range resp.Boards {
		paths[b.Name] = b.Path
	}
	assert.Equal(t, "/boards/danbooru", paths["danbooru"])
	assert.Contains(t, paths, "zerochan")
}

func TestHistoryRoute(t *testing.T) {
	f := newFixture(t, "")

	f.get(t, "/danbooru?search=a")
	f.get(t, "/zerochan?search=b")

	rec := f.get(t, "/history")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []domain.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "http", e.Origin)
	}

	rec = f.get(t, "/history?board=zerochan&limit=5")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"b"}, entries[0].Tags)

	rec = f.get(t, "/history?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMappingFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
boards:
  danbooru:
    title: tag_string_character
    id: id
`), 0o644))

	f := newFixture(t, path)

	rec := f.get(t, "/danbooru")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "{\n            \"title\": \"hatsune_miku\",\n            \"id\": 4242\n        }")
}

func TestStartupBadMappingFile(t *testing.T) {
	cfg := &config.Config{
		Boards:  config.BoardsConfig{Limit: 10},
		Mapping: config.MappingConfig{File: filepath.Join(t.TempDir(), "missing.yaml")},
		History: domain.StoreConfig{Driver: domain.StoreDriverNone},
	}
	a := New(cfg, nil)
	assert.Error(t, a.Startup(context.Background()))
}

func TestToRealBool(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", "y", "Y", "yes", "Yes"} {
		assert.True(t, ToRealBool(s), s)
	}
	for _, s := range []string{"", "0", "false", "n", "no", "on", "2"} {
		assert.False(t, ToRealBool(s), s)
	}
}
