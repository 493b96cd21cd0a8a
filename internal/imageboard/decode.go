package imageboard

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"ihaboard/internal/errors"
)

// ErrInvalidJSON marks a body that is not a JSON object or array.
var ErrInvalidJSON = errors.New("invalid JSON data")

// Decode parses a response body. Only a top-level object or array is
// accepted. Numbers decode as json.Number so ids survive untouched.
func Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode body"), ErrInvalidJSON)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Wrap(ErrInvalidJSON, "trailing data after JSON value")
	}

	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	default:
		return nil, errors.Wrapf(ErrInvalidJSON, "top-level %T, want object or array", v)
	}
}

// RequestJSON fetches path and decodes the body. The status code is
// returned alongside so callers can tell upstream failures apart.
// A non-200 body is not decoded.
func RequestJSON(ctx context.Context, c *Client, method Method, path string, params *Params) (any, int, error) {
	resp, err := c.Fetch(ctx, method, path, params)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != 200 {
		return nil, resp.StatusCode, nil
	}
	data, err := Decode(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

// NavigatePath walks a dot-separated path into nested objects.
// An empty path returns obj unchanged; a missing step returns nil.
func NavigatePath(obj any, path string) any {
	if path == "" {
		return obj
	}
	current := obj
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}
