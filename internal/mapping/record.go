package mapping

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ── Record ─────────────────────────────────────────────────
// Normalized output of one source record. Keys keep the Spec's
// declaration order so the JSON output is stable.

// Record is a normalized record: output field → resolved value.
// Nested rules produce *Record values.
type Record = orderedmap.OrderedMap[string, any]

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return orderedmap.New[string, any]()
}

// Keys returns the record's keys in insertion order.
func Keys(r *Record) []string {
	keys := make([]string, 0, r.Len())
	for pair := r.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// ToMap converts a record (and nested records) into plain maps.
// Order is lost; used where callers need map semantics.
func ToMap(r *Record) map[string]any {
	out := make(map[string]any, r.Len())
	for pair := r.Oldest(); pair != nil; pair = pair.Next() {
		if inner, ok := pair.Value.(*Record); ok {
			out[pair.Key] = ToMap(inner)
			continue
		}
		out[pair.Key] = pair.Value
	}
	return out
}
