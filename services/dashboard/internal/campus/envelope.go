package campus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload is returned when a response body has none of the shapes
// the API is known to use.
var ErrMalformedPayload = errors.New("malformed payload")

// List keys used by the object form of the list envelope.
const (
	keyOrders       = "orders"
	keyRiders       = "riders"
	keyVendors      = "vendors"
	keyProducts     = "products"
	keyUniversities = "universities"
)

// decodeList accepts either a bare JSON array or an object carrying the array
// under key. Any other shape is rejected. Elements that do not decode are
// reported to skip, when set, and left out of the result.
func decodeList[T any](raw []byte, key string, skip func(index int, err error)) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}

	switch raw[0] {
	case '[':
		return decodeElements[T](raw, skip)

	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}

		inner, ok := wrapper[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformedPayload, key)
		}
		inner = bytes.TrimSpace(inner)
		if bytes.Equal(inner, []byte("null")) {
			return []T{}, nil
		}
		if len(inner) == 0 || inner[0] != '[' {
			return nil, fmt.Errorf("%w: %q is not a list", ErrMalformedPayload, key)
		}

		return decodeElements[T](inner, skip)
	}

	return nil, fmt.Errorf("%w: unexpected %q", ErrMalformedPayload, raw[:1])
}

func decodeElements[T any](raw []byte, skip func(index int, err error)) ([]T, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	items := make([]T, 0, len(elements))
	for i, element := range elements {
		var item T
		if err := json.Unmarshal(element, &item); err != nil {
			if skip != nil {
				skip(i, err)
			}
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// decodeObject decodes a single JSON object into dest.
func decodeObject(raw []byte, dest any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return fmt.Errorf("%w: expected object", ErrMalformedPayload)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
