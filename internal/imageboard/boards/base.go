package boards

import (
	"context"
	"time"

	"ihaboard/internal/errors"
	"ihaboard/internal/imageboard"
	"ihaboard/internal/logger"
	"ihaboard/internal/mapping"
)

// DefaultLimit is how many posts a search asks for.
const DefaultLimit = 10

// base holds what every board shares: the fetch client, the mapping
// and the parser tag written into success envelopes.
type base struct {
	name     string
	parser   string
	client   *imageboard.Client
	spec     *mapping.Spec
	limit    int
	dataPath string
}

func newBase(name, parser, defaultURL string, defaultSpec *mapping.Spec, opts imageboard.Options) base {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}
	spec := opts.Spec
	if spec == nil {
		spec = defaultSpec
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return base{
		name:   name,
		parser: parser,
		client: imageboard.NewClient(baseURL, opts.ClientOptions()...),
		spec:   spec,
		limit:  limit,
	}
}

func (b *base) Name() string { return b.name }

func (b *base) Close() error { return b.client.Close() }

// run fetches path, maps the listing and builds the envelope.
// Upstream non-200 becomes a failure envelope, not an error.
func (b *base) run(ctx context.Context, path string, params *imageboard.Params) (*imageboard.Envelope, error) {
	start := time.Now()
	data, status, err := imageboard.RequestJSON(ctx, b.client, imageboard.MethodGet, path, params)
	if err != nil {
		return nil, errors.Wrapf(err, "%s search", b.name)
	}
	if status != 200 {
		logger.Logger.Warnw("Upstream returned non-200",
			"board", b.name, "status", status, "duration", time.Since(start))
		return imageboard.FailureEnvelope(status), nil
	}

	listing := imageboard.NavigatePath(data, b.dataPath)
	if listing == nil {
		return imageboard.SuccessEnvelope(b.parser, nil), nil
	}
	results, err := mapping.Apply(ctx, listing, b.spec)
	if err != nil {
		return nil, errors.Wrapf(err, "%s mapping", b.name)
	}

	logger.Logger.Debugw("Board search done",
		"board", b.name, "results", len(results), "duration", time.Since(start))
	return imageboard.SuccessEnvelope(b.parser, results), nil
}
