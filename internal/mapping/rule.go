package mapping

import (
	"strings"

	"ihaboard/internal/errors"
)

// ── Rules ──────────────────────────────────────────────────
// A rule tells the engine where an output field comes from.
// Rules are parsed once when a Spec is built and never re-parsed
// while records are being mapped.
//
// String syntax (kept for mapping files):
//
//	"tag_string"        plain: copy the value of tag_string
//	"++ ++tag_string"   split: split tag_string on " "
//
// In the split form the delimiter is the character right after "++"
// and the source key starts at the fifth character.

var (
	// ErrInvalidMappingSpec marks a malformed rule or spec.
	ErrInvalidMappingSpec = errors.New("invalid mapping spec")
	// ErrUnknownSourceKey marks a declared source key missing from a record.
	ErrUnknownSourceKey = errors.New("unknown source key")
	// ErrInvalidRecord marks a source record the engine cannot read.
	ErrInvalidRecord = errors.New("invalid source record")
)

const (
	splitMarker = "++"
	// keyOffset is where the source key begins in a split rule, in characters.
	keyOffset = 5
)

// Kind distinguishes plain lookups from split lookups.
type Kind int

const (
	KindPlain Kind = iota
	KindSplit
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindSplit:
		return "split"
	default:
		return "unknown"
	}
}

// Scalar resolves one source key to one value.
type Scalar struct {
	Kind      Kind
	Key       string
	Delimiter string // set only for KindSplit; always one character
}

// Plain returns a rule copying key unchanged.
func Plain(key string) Scalar {
	return Scalar{Kind: KindPlain, Key: key}
}

// Split returns a rule splitting the string at key on delim.
func Split(delim rune, key string) Scalar {
	return Scalar{Kind: KindSplit, Key: key, Delimiter: string(delim)}
}

// ParseRule parses the string form of a scalar rule.
func ParseRule(s string) (Scalar, error) {
	if s == "" {
		return Scalar{}, errors.Wrap(ErrInvalidMappingSpec, "empty rule")
	}
	if !strings.HasPrefix(s, splitMarker) {
		return Plain(s), nil
	}

	chars := []rune(s)
	if len(chars) <= keyOffset {
		return Scalar{}, errors.WithHint(
			errors.Wrapf(ErrInvalidMappingSpec, "split rule %q has no source key", s),
			`split rules look like "++ ++tag_string": marker, delimiter, marker, key`)
	}
	return Split(chars[2], string(chars[keyOffset:])), nil
}

// MustParseRule is ParseRule for rules known at compile time.
func MustParseRule(s string) Scalar {
	r, err := ParseRule(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String renders the rule back into its string form.
func (r Scalar) String() string {
	if r.Kind == KindSplit {
		return splitMarker + r.Delimiter + splitMarker + r.Key
	}
	return r.Key
}

func (r Scalar) validate() error {
	if r.Key == "" {
		return errors.Wrap(ErrInvalidMappingSpec, "rule has an empty source key")
	}
	if r.Kind == KindSplit && len([]rune(r.Delimiter)) != 1 {
		return errors.Wrapf(ErrInvalidMappingSpec, "rule %q: delimiter must be one character", r.Key)
	}
	return nil
}

// resolve looks the rule up in src.
// Absent keys fail; null resolves to "" whether or not a delimiter is set.
func (r Scalar) resolve(src map[string]any) (any, error) {
	v, ok := src[r.Key]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSourceKey, "%q", r.Key)
	}
	if v == nil {
		return "", nil
	}
	if r.Kind != KindSplit {
		return v, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidRecord, "%q is %T, cannot split on %q", r.Key, v, r.Delimiter)
	}
	return strings.Split(s, r.Delimiter), nil
}

// ── Field rules ────────────────────────────────────────────

// Rule is the rule attached to one output field: Scalar, List or Nested.
type Rule interface {
	resolveField(src map[string]any) (any, error)
	validate() error
}

func (r Scalar) resolveField(src map[string]any) (any, error) { return r.resolve(src) }

// List resolves each element independently into an ordered slice.
// Split elements stay nested: the result is not flattened.
type List []Scalar

func (l List) resolveField(src map[string]any) (any, error) {
	out := make([]any, 0, len(l))
	for _, r := range l {
		v, err := r.resolve(src)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (l List) validate() error {
	for _, r := range l {
		if err := r.validate(); err != nil {
			return err
		}
	}
	return nil
}

// InnerField is one entry of a Nested rule.
type InnerField struct {
	Name string
	Rule Scalar
}

// Inner builds an InnerField from the string rule syntax.
func Inner(name, rule string) InnerField {
	return InnerField{Name: name, Rule: MustParseRule(rule)}
}

// Nested maps inner fields from the same source record, one level deep.
type Nested []InnerField

func (n Nested) resolveField(src map[string]any) (any, error) {
	out := NewRecord()
	for _, f := range n {
		v, err := f.Rule.resolve(src)
		if err != nil {
			return nil, errors.Wrapf(err, "inner field %q", f.Name)
		}
		out.Set(f.Name, v)
	}
	return out, nil
}

func (n Nested) validate() error {
	seen := make(map[string]bool, len(n))
	for _, f := range n {
		if f.Name == "" {
			return errors.Wrap(ErrInvalidMappingSpec, "nested rule has an empty inner field name")
		}
		if seen[f.Name] {
			return errors.Wrapf(ErrInvalidMappingSpec, "duplicate inner field %q", f.Name)
		}
		seen[f.Name] = true
		if err := f.Rule.validate(); err != nil {
			return errors.Wrapf(err, "inner field %q", f.Name)
		}
	}
	return nil
}
