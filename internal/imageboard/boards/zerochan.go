package boards

import (
	"context"
	"strconv"

	"ihaboard/internal/imageboard"
	"ihaboard/internal/mapping"
)

const ZerochanURL = "https://www.zerochan.net"

func init() {
	imageboard.Register(imageboard.Info{
		Name:        "zerochan",
		Description: "Zerochan tag listing",
		BaseURL:     ZerochanURL,
	}, func(opts imageboard.Options) (imageboard.Board, error) {
		return NewZerochan(opts), nil
	})
}

// Zerochan searches Zerochan's JSON listing. The tag list is the path;
// the posts sit under "items".
type Zerochan struct {
	base
}

func NewZerochan(opts imageboard.Options) *Zerochan {
	b := newBase("zerochan", "zerochan", ZerochanURL, mapping.ZerochanSpec(), opts)
	b.dataPath = "items"
	return &Zerochan{base: b}
}

func (z *Zerochan) Search(ctx context.Context, tags []string) (*imageboard.Envelope, error) {
	params := &imageboard.Params{}
	params.Flag("json")
	params.Add("s", "id")
	params.Add("l", strconv.Itoa(z.limit))
	return z.run(ctx, imageboard.JoinTags(tags), params)
}

func (z *Zerochan) RandomSearch(context.Context, []string) (*imageboard.Envelope, error) {
	return nil, imageboard.ErrRandomUnsupported
}
