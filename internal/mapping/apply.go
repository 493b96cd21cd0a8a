package mapping

import (
	"context"

	"golang.org/x/sync/errgroup"

	"ihaboard/internal/errors"
)

// ── Engine ─────────────────────────────────────────────────
// Apply maps a decoded batch through a Spec. Records are resolved
// independently, one goroutine each. Results come back in input order.
// A failure on any record fails the whole batch.

// Apply maps batch (one JSON object or an array of objects) through spec.
func Apply(ctx context.Context, batch any, spec *Spec) ([]*Record, error) {
	if spec == nil {
		return nil, errors.Wrap(ErrInvalidMappingSpec, "nil spec")
	}
	sources, err := Batch(batch)
	if err != nil {
		return nil, err
	}

	out := make([]*Record, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := ApplyOne(src, spec)
			if err != nil {
				return errors.Wrapf(err, "record %d", i)
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyOne maps a single source record through spec.
func ApplyOne(src map[string]any, spec *Spec) (*Record, error) {
	rec := NewRecord()
	for _, f := range spec.fields {
		v, err := f.Rule.resolveField(src)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", f.Name)
		}
		rec.Set(f.Name, v)
	}
	return rec, nil
}

// Batch normalizes a decoded JSON value into a slice of source records.
// A lone object is a batch of one.
func Batch(v any) ([]map[string]any, error) {
	switch data := v.(type) {
	case map[string]any:
		return []map[string]any{data}, nil
	case []map[string]any:
		return data, nil
	case []any:
		out := make([]map[string]any, 0, len(data))
		for i, item := range data {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidRecord, "element %d is %T, want object", i, item)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, errors.Wrapf(ErrInvalidRecord, "batch is %T, want object or array", v)
	}
}
