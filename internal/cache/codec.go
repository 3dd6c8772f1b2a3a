package cache

import (
	"encoding/json"
	"fmt"
)

// encodeValue serializes a value for backends that store text. Strings pass
// through untouched; everything else is JSON-encoded.
func encodeValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("encode cache value: %w", err)
		}
		return string(encoded), nil
	}
}

// decodeValue reverses encodeValue. Payloads that are not valid JSON are
// returned as the raw string, matching the string passthrough on encode.
func decodeValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}
