package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ihaboard/internal/errors"
)

func danbooruPost(id int, tags string) map[string]any {
	return map[string]any{
		"id":                   float64(id),
		"tag_string":           tags,
		"tag_string_character": "hatsune_miku",
		"source":               nil,
		"file_url":             fmt.Sprintf("https://cdn.example/%d.png", id),
		"image_width":          1024.0,
		"image_height":         768.0,
	}
}

func testSpec(t *testing.T) *Spec {
	t.Helper()
	spec, err := NewBuilder().
		Field("id", "id").
		Field("tags", "++ ++tag_string").
		Field("title", "tag_string_character").
		Field("source", "source").
		Nested("image_info",
			Inner("w", "image_width"),
			Inner("h", "image_height"),
		).
		Build()
	require.NoError(t, err)
	return spec
}

func TestApply_SingleObject(t *testing.T) {
	out, err := Apply(context.Background(), danbooruPost(1, "1girl solo smile"), testSpec(t))
	require.NoError(t, err)
	require.Len(t, out, 1)

	rec := out[0]
	assert.Equal(t, []string{"id", "tags", "title", "source", "image_info"}, Keys(rec))

	tags, _ := rec.Get("tags")
	assert.Equal(t, []string{"1girl", "solo", "smile"}, tags)
	title, _ := rec.Get("title")
	assert.Equal(t, "hatsune_miku", title)
	source, _ := rec.Get("source")
	assert.Equal(t, "", source)

	info, ok := rec.Get("image_info")
	require.True(t, ok)
	inner, ok := info.(*Record)
	require.True(t, ok)
	assert.Equal(t, []string{"w", "h"}, Keys(inner))
	w, _ := inner.Get("w")
	assert.Equal(t, 1024.0, w)
}

func TestApply_PreservesCountAndOrder(t *testing.T) {
	const n = 64
	batch := make([]any, n)
	for i := range batch {
		batch[i] = danbooruPost(i, fmt.Sprintf("tag_%d", i))
	}

	out, err := Apply(context.Background(), batch, testSpec(t))
	require.NoError(t, err)
	require.Len(t, out, n)

	ids := make([]any, n)
	want := make([]any, n)
	for i, rec := range out {
		ids[i], _ = rec.Get("id")
		want[i] = float64(i)
	}
	assert.ElementsMatch(t, want, ids)
	assert.Equal(t, want, ids)
}

func TestApply_EmptyBatch(t *testing.T) {
	out, err := Apply(context.Background(), []any{}, testSpec(t))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestApply_MissingKeyFailsBatch(t *testing.T) {
	bad := danbooruPost(2, "x")
	delete(bad, "tag_string_character")
	batch := []any{danbooruPost(1, "a"), bad, danbooruPost(3, "c")}

	out, err := Apply(context.Background(), batch, testSpec(t))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrUnknownSourceKey))
	assert.Contains(t, err.Error(), "tag_string_character")
}

func TestApply_InvalidBatch(t *testing.T) {
	tests := []struct {
		name  string
		batch any
	}{
		{"string", "posts"},
		{"number", 3.0},
		{"nil", nil},
		{"array with scalar", []any{danbooruPost(1, "a"), "oops"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(context.Background(), tt.batch, testSpec(t))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRecord))
		})
	}
}

func TestApply_NilSpec(t *testing.T) {
	_, err := Apply(context.Background(), danbooruPost(1, "a"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidMappingSpec))
}

func TestApply_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Apply(ctx, []any{danbooruPost(1, "a")}, testSpec(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestApply_ListRule(t *testing.T) {
	spec, err := NewBuilder().
		List("urls", "file_url", "++ ++tag_string").
		Build()
	require.NoError(t, err)

	out, err := Apply(context.Background(), danbooruPost(7, "a b"), spec)
	require.NoError(t, err)

	urls, _ := out[0].Get("urls")
	assert.Equal(t, []any{"https://cdn.example/7.png", []string{"a", "b"}}, urls)
}

func TestApply_SpecSharedAcrossCalls(t *testing.T) {
	spec := testSpec(t)
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := Apply(context.Background(), []any{danbooruPost(i, "a b")}, spec)
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-done)
	}
}

func TestRecord_MarshalJSONKeepsOrder(t *testing.T) {
	out, err := Apply(context.Background(), danbooruPost(5, "a"), testSpec(t))
	require.NoError(t, err)

	data, err := json.Marshal(out[0])
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":5,"tags":["a"],"title":"hatsune_miku","source":"","image_info":{"w":1024,"h":768}}`,
		string(data))
	assert.Regexp(t, `^\{"id":5,"tags":.*"image_info":\{"w":1024,"h":768\}\}$`, string(data))
}

func TestToMap(t *testing.T) {
	out, err := Apply(context.Background(), danbooruPost(5, "a"), testSpec(t))
	require.NoError(t, err)

	m := ToMap(out[0])
	assert.Equal(t, map[string]any{"w": 1024.0, "h": 768.0}, m["image_info"])
}

func TestNewSpec_Validation(t *testing.T) {
	_, err := NewSpec(Field{Name: "a", Rule: Plain("x")}, Field{Name: "a", Rule: Plain("y")})
	assert.True(t, errors.Is(err, ErrInvalidMappingSpec))

	_, err = NewSpec(Field{Name: "", Rule: Plain("x")})
	assert.True(t, errors.Is(err, ErrInvalidMappingSpec))

	_, err = NewSpec(Field{Name: "a"})
	assert.True(t, errors.Is(err, ErrInvalidMappingSpec))

	_, err = NewBuilder().Field("a", "++ ++").Build()
	assert.True(t, errors.Is(err, ErrInvalidMappingSpec))

	spec, err := NewSpec()
	require.NoError(t, err)
	assert.Equal(t, 0, spec.Len())
}
