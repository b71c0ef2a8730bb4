package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelopeKeys are tried, in order, when a list comes wrapped in an object.
var envelopeKeys = []string{"data", "items", "results"}

// decodeList accepts a bare JSON array or an object wrapping one under key.
func decodeList[T any](raw []byte, key string) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	switch raw[0] {
	case '[':
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return out, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		for _, k := range append([]string{key}, envelopeKeys...) {
			if inner, ok := obj[k]; ok {
				return decodeList[T](inner, "")
			}
		}
		return nil, fmt.Errorf("%w: object has no %q list", ErrDecode, key)
	}
	return nil, fmt.Errorf("%w: expected list", ErrDecode)
}

// decodeOne accepts a bare object or one wrapped under key.
func decodeOne[T any](raw []byte, key string) (T, error) {
	var zero T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return zero, fmt.Errorf("%w: empty body", ErrDecode)
	}
	if key != "" && raw[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return zero, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if inner, ok := obj[key]; ok && len(bytes.TrimSpace(inner)) > 0 && inner[0] == '{' {
			raw = inner
		}
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}
