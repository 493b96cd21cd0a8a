package imageboard

import (
	"context"
	"net/url"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"ihaboard/internal/errors"
	"ihaboard/internal/mapping"
)

// ── Board ──────────────────────────────────────────────────
// A Board is one upstream imageboard service. Implementations live in
// imageboard/boards, one file per service, registered from init().

var (
	// ErrRandomUnsupported is returned by boards without a random search.
	ErrRandomUnsupported = errors.New("random search not supported")
	// ErrUnknownBoard is returned by Open for an unregistered name.
	ErrUnknownBoard = errors.New("unknown board")
)

// FailureMessage is the generic message carried by failure envelopes.
const FailureMessage = "error occured."

// Board searches one upstream service and returns normalized envelopes.
type Board interface {
	Name() string
	Search(ctx context.Context, tags []string) (*Envelope, error)
	RandomSearch(ctx context.Context, tags []string) (*Envelope, error)
	Close() error
}

// Options carries everything a board needs to open.
type Options struct {
	// BaseURL overrides the board's default upstream.
	BaseURL      string
	Limit        int
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	// Spec overrides the board's built-in mapping.
	Spec *mapping.Spec
}

// ClientOptions turns Options into Fetch client options.
func (o Options) ClientOptions() []ClientOption {
	return []ClientOption{
		WithUserAgent(o.UserAgent),
		WithTimeout(o.Timeout),
		WithMaxBodyBytes(o.MaxBodyBytes),
	}
}

// ── Envelope ───────────────────────────────────────────────

// Envelope is the response returned for every search call.
// Message is set only on failure; Parser only on success.
type Envelope struct {
	Results    []*mapping.Record `json:"results"`
	TotalData  int               `json:"total_data"`
	Parser     string            `json:"parser,omitempty"`
	Message    string            `json:"message,omitempty"`
	StatusCode int               `json:"status_code"`
}

// OK reports whether the upstream answered 200.
func (e *Envelope) OK() bool { return e.StatusCode == 200 }

// SuccessEnvelope wraps mapped results.
func SuccessEnvelope(parser string, results []*mapping.Record) *Envelope {
	if results == nil {
		results = []*mapping.Record{}
	}
	return &Envelope{
		Results:    results,
		TotalData:  len(results),
		Parser:     parser,
		StatusCode: 200,
	}
}

// FailureEnvelope reports a non-200 upstream status.
func FailureEnvelope(status int) *Envelope {
	return &Envelope{
		Results:    []*mapping.Record{},
		TotalData:  0,
		Message:    FailureMessage,
		StatusCode: status,
	}
}

// ── Tags ───────────────────────────────────────────────────

const (
	RandomTag = "order:random"
	SafeTag   = "rating:safe"
)

// SplitTags splits a tag query into tags. Tags are separated by "+"
// or whitespace, since a decoded query string turns "+" into a space.
func SplitTags(query string) []string {
	return strings.FieldsFunc(query, func(r rune) bool {
		return r == '+' || unicode.IsSpace(r)
	})
}

// CleanTags drops empty tags.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// JoinTags escapes each non-empty tag and joins them with a literal "+".
func JoinTags(tags []string) string {
	clean := CleanTags(tags)
	for i, t := range clean {
		clean[i] = url.QueryEscape(t)
	}
	return strings.Join(clean, "+")
}

// SafeTags drops every tag mentioning a rating and appends safeTag.
func SafeTags(tags []string, safeTag string) []string {
	out := make([]string, 0, len(tags)+1)
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), "rating:") {
			continue
		}
		out = append(out, t)
	}
	return append(out, safeTag)
}

// RandomTags lower-cases tags and appends order:random unless present.
func RandomTags(tags []string) []string {
	out := make([]string, len(tags), len(tags)+1)
	for i, t := range tags {
		out[i] = strings.ToLower(t)
	}
	if !slices.Contains(out, RandomTag) {
		out = append(out, RandomTag)
	}
	return out
}

// ── Registry ───────────────────────────────────────────────

// Factory opens a board with the given options.
type Factory func(Options) (Board, error)

// Info describes a registered board.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	BaseURL     string `json:"baseUrl"`
	Random      bool   `json:"random"`
}

type registration struct {
	info    Info
	factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = map[string]registration{}
)

// Register adds a board factory. Called from init() in each board file.
func Register(info Info, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[info.Name] = registration{info: info, factory: f}
}

// Open opens the named board.
func Open(name string, opts Options) (Board, error) {
	registryMu.RLock()
	reg, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.WithHintf(
			errors.Wrapf(ErrUnknownBoard, "%q", name),
			"known boards: %s", strings.Join(Names(), ", "))
	}
	return reg.factory(opts)
}

// Lookup returns the registration info for name.
func Lookup(name string) (Info, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[name]
	return reg.info, ok
}

// List returns every registered board, sorted by name.
func List() []Info {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Info, 0, len(registry))
	for _, reg := range registry {
		out = append(out, reg.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered board names, sorted.
func Names() []string {
	infos := List()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}
