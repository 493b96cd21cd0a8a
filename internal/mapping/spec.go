package mapping

import (
	"ihaboard/internal/errors"
)

// Field is one declared output field and its rule.
type Field struct {
	Name string
	Rule Rule
}

// Spec is an ordered set of output fields.
// A Spec never changes after NewSpec returns, so one Spec can be
// shared by any number of concurrent Apply calls.
type Spec struct {
	fields []Field
}

// NewSpec validates fields and returns a Spec preserving their order.
func NewSpec(fields ...Field) (*Spec, error) {
	seen := make(map[string]bool, len(fields))
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, errors.Wrap(ErrInvalidMappingSpec, "empty output field name")
		}
		if seen[f.Name] {
			return nil, errors.Wrapf(ErrInvalidMappingSpec, "duplicate output field %q", f.Name)
		}
		seen[f.Name] = true
		if f.Rule == nil {
			return nil, errors.Wrapf(ErrInvalidMappingSpec, "field %q has no rule", f.Name)
		}
		if err := f.Rule.validate(); err != nil {
			return nil, errors.Wrapf(err, "field %q", f.Name)
		}
		out = append(out, f)
	}
	return &Spec{fields: out}, nil
}

// Fields returns a copy of the declared fields in order.
func (s *Spec) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// FieldNames returns the declared output field names in order.
func (s *Spec) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Len reports the number of declared output fields.
func (s *Spec) Len() int { return len(s.fields) }

// ── Builder ────────────────────────────────────────────────

// Builder assembles a Spec from string rules, keeping the first error.
//
//	spec, err := mapping.NewBuilder().
//		Field("id", "id").
//		Field("tags", "++ ++tag_string").
//		Nested("image_info", mapping.Inner("w", "image_width")).
//		Build()
type Builder struct {
	fields []Field
	err    error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Field adds a scalar field from its string rule.
func (b *Builder) Field(name, rule string) *Builder {
	if b.err != nil {
		return b
	}
	r, err := ParseRule(rule)
	if err != nil {
		b.err = errors.Wrapf(err, "field %q", name)
		return b
	}
	b.fields = append(b.fields, Field{Name: name, Rule: r})
	return b
}

// List adds a list field; each rule is resolved independently.
func (b *Builder) List(name string, rules ...string) *Builder {
	if b.err != nil {
		return b
	}
	list := make(List, 0, len(rules))
	for _, s := range rules {
		r, err := ParseRule(s)
		if err != nil {
			b.err = errors.Wrapf(err, "field %q", name)
			return b
		}
		list = append(list, r)
	}
	b.fields = append(b.fields, Field{Name: name, Rule: list})
	return b
}

// Nested adds a one-level nested object field.
func (b *Builder) Nested(name string, inner ...InnerField) *Builder {
	if b.err != nil {
		return b
	}
	b.fields = append(b.fields, Field{Name: name, Rule: Nested(inner)})
	return b
}

// Build validates and returns the Spec.
func (b *Builder) Build() (*Spec, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewSpec(b.fields...)
}

// MustBuild is Build for specs known at compile time.
func (b *Builder) MustBuild() *Spec {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// Describe renders spec back into rule syntax: field → rule string,
// list rules as string slices, nested rules as inner records.
func Describe(spec *Spec) *Record {
	out := NewRecord()
	for _, f := range spec.fields {
		switch r := f.Rule.(type) {
		case Scalar:
			out.Set(f.Name, r.String())
		case List:
			rules := make([]string, len(r))
			for i, s := range r {
				rules[i] = s.String()
			}
			out.Set(f.Name, rules)
		case Nested:
			inner := NewRecord()
			for _, in := range r {
				inner.Set(in.Name, in.Rule.String())
			}
			out.Set(f.Name, inner)
		}
	}
	return out
}
