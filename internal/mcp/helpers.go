package mcpserver

import (
	"encoding/json"

	"ihaboard/internal/errors"
	"ihaboard/internal/imageboard"
)

// parseRecord parses a pasted upstream record. Numbers stay json.Number.
func parseRecord(data string) (map[string]any, error) {
	v, err := imageboard.Decode([]byte(data))
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.WrapInvalidRequest(imageboard.ErrInvalidJSON, "recordJSON must be a JSON object")
	}
	return m, nil
}

// marshalJSON serializes a value to indented JSON bytes.
func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal json")
	}
	return data, nil
}
