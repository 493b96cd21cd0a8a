package mapping

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"ihaboard/internal/errors"
)

// ── Mapping files ──────────────────────────────────────────
// A mapping file declares one Spec per board:
//
//	boards:
//	  danbooru:
//	    id: id
//	    tags: "++ ++tag_string"
//	    urls: [file_url, preview_file_url]
//	    image_info:
//	      w: image_width
//	      h: image_height
//
// Scalars are rules, sequences are list rules, mappings are nested
// rules (one level only). Field order follows the file.

// Specs maps a board name to its Spec.
type Specs map[string]*Spec

// Lookup returns the Spec registered for board.
func (s Specs) Lookup(board string) (*Spec, bool) {
	spec, ok := s[board]
	return spec, ok
}

// Names returns the board names in sorted order.
func (s Specs) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new Specs with other's entries replacing s's.
func (s Specs) Merge(other Specs) Specs {
	out := make(Specs, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

type mappingFile struct {
	Boards yaml.Node `yaml:"boards"`
}

// LoadFile reads and parses a mapping file.
func LoadFile(path string) (Specs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read mapping file %q", path)
	}
	specs, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse mapping file %q", path)
	}
	return specs, nil
}

// Parse parses mapping file contents.
func Parse(data []byte) (Specs, error) {
	var mf mappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "unmarshal YAML"), ErrInvalidMappingSpec)
	}
	if mf.Boards.Kind != yaml.MappingNode || len(mf.Boards.Content) == 0 {
		return nil, errors.Wrap(ErrInvalidMappingSpec, "no boards declared")
	}

	specs := make(Specs, len(mf.Boards.Content)/2)
	for i := 0; i+1 < len(mf.Boards.Content); i += 2 {
		name := mf.Boards.Content[i].Value
		if _, dup := specs[name]; dup {
			return nil, errors.Wrapf(ErrInvalidMappingSpec, "line %d: board %q defined more than once", mf.Boards.Content[i].Line, name)
		}
		spec, err := parseSpecNode(mf.Boards.Content[i+1])
		if err != nil {
			return nil, errors.Wrapf(err, "board %q", name)
		}
		specs[name] = spec
	}
	return specs, nil
}

func parseSpecNode(node *yaml.Node) (*Spec, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.Wrapf(ErrInvalidMappingSpec, "line %d: expected a mapping of fields", node.Line)
	}

	fields := make([]Field, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		rule, err := parseRuleNode(node.Content[i+1])
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", name)
		}
		fields = append(fields, Field{Name: name, Rule: rule})
	}
	return NewSpec(fields...)
}

func parseRuleNode(node *yaml.Node) (Rule, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return ParseRule(node.Value)

	case yaml.SequenceNode:
		list := make(List, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, errors.Wrapf(ErrInvalidMappingSpec, "line %d: list rules hold plain rules only", item.Line)
			}
			r, err := ParseRule(item.Value)
			if err != nil {
				return nil, err
			}
			list = append(list, r)
		}
		return list, nil

	case yaml.MappingNode:
		nested := make(Nested, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			inner, val := node.Content[i], node.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return nil, errors.WithHint(
					errors.Wrapf(ErrInvalidMappingSpec, "line %d: inner field %q is not a plain rule", val.Line, inner.Value),
					"nested rules go one level deep")
			}
			r, err := ParseRule(val.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "inner field %q", inner.Value)
			}
			nested = append(nested, InnerField{Name: inner.Value, Rule: r})
		}
		return nested, nil

	default:
		return nil, errors.Wrapf(ErrInvalidMappingSpec, "line %d: unsupported rule", node.Line)
	}
}

// ── Built-in specs ─────────────────────────────────────────

// DanbooruSpec is the mapping for Danbooru's posts.json schema.
func DanbooruSpec() *Spec {
	return NewBuilder().
		Field("id", "id").
		Field("title", "tag_string_character").
		Field("tags", "++ ++tag_string").
		Field("meta", "++ ++tag_string_meta").
		Field("artist", "++ ++tag_string_artist").
		Field("source", "source").
		Field("thumbnail", "preview_file_url").
		Field("image_url", "file_url").
		Nested("image_info",
			Inner("w", "image_width"),
			Inner("h", "image_height"),
			Inner("e", "file_ext"),
			Inner("s", "file_size"),
		).
		MustBuild()
}

// ZerochanSpec is the mapping for Zerochan's JSON listing items.
func ZerochanSpec() *Spec {
	return NewBuilder().
		Field("id", "id").
		Field("title", "tag").
		Field("tags", "tags").
		Field("source", "source").
		Field("thumbnail", "thumbnail").
		Nested("image_info",
			Inner("w", "width"),
			Inner("h", "height"),
		).
		MustBuild()
}

// DefaultSpecs returns the built-in spec for every known board.
func DefaultSpecs() Specs {
	danbooru := DanbooruSpec()
	return Specs{
		"danbooru":  danbooru,
		"safebooru": danbooru,
		"zerochan":  ZerochanSpec(),
	}
}
