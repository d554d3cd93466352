package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/slicemap/internal/canon"
)

// marshalValue converts a record payload or state to canonical JSON TEXT.
func marshalValue(v any) (string, error) {
	data, err := canon.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalValue parses canonical JSON TEXT. Numbers decode as int, the
// only number kind canonical JSON admits, instead of float64.
func unmarshalValue(data string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return intNumbers(v)
}

func intNumbers(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %q: %w", x, err)
		}
		return int(n), nil
	case map[string]any:
		for k, e := range x {
			conv, err := intNumbers(e)
			if err != nil {
				return nil, err
			}
			x[k] = conv
		}
		return x, nil
	case []any:
		for i, e := range x {
			conv, err := intNumbers(e)
			if err != nil {
				return nil, err
			}
			x[i] = conv
		}
		return x, nil
	default:
		return v, nil
	}
}
