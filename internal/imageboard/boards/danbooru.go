package boards

import (
	"context"
	"strconv"

	"ihaboard/internal/imageboard"
	"ihaboard/internal/mapping"
)

// ── Danbooru ───────────────────────────────────────────────
// posts.json search. The safe variant ("safebooru") strips rating
// tags from the query and pins rating:safe.

const DanbooruURL = "https://danbooru.donmai.us"

func init() {
	imageboard.Register(imageboard.Info{
		Name:        "danbooru",
		Description: "Danbooru post search",
		BaseURL:     DanbooruURL,
		Random:      true,
	}, func(opts imageboard.Options) (imageboard.Board, error) {
		return NewDanbooru(opts, false), nil
	})
	imageboard.Register(imageboard.Info{
		Name:        "safebooru",
		Description: "Danbooru post search restricted to rating:safe",
		BaseURL:     DanbooruURL,
		Random:      true,
	}, func(opts imageboard.Options) (imageboard.Board, error) {
		return NewDanbooru(opts, true), nil
	})
}

// Danbooru searches Danbooru's posts.json.
type Danbooru struct {
	base
	safe bool
}

// NewDanbooru opens a Danbooru board. safe enables family-friendly mode.
func NewDanbooru(opts imageboard.Options, safe bool) *Danbooru {
	name := "danbooru"
	if safe {
		name = "safebooru"
	}
	return &Danbooru{
		base: newBase(name, "danbooru", DanbooruURL, mapping.DanbooruSpec(), opts),
		safe: safe,
	}
}

// Search runs a tag search.
func (d *Danbooru) Search(ctx context.Context, tags []string) (*imageboard.Envelope, error) {
	if d.safe {
		tags = imageboard.SafeTags(tags, imageboard.SafeTag)
	}
	params := &imageboard.Params{}
	params.Add("limit", strconv.Itoa(d.limit))
	if joined := imageboard.JoinTags(tags); joined != "" {
		params.AddRaw("tags", joined)
	}
	return d.run(ctx, "posts.json", params)
}

// RandomSearch runs Search ordered randomly.
func (d *Danbooru) RandomSearch(ctx context.Context, tags []string) (*imageboard.Envelope, error) {
	return d.Search(ctx, imageboard.RandomTags(tags))
}
