package reconcile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Coerce converts a loosely typed secondary value into a float. Strings may
// carry thousands separators or a trailing percent sign. A nil input yields
// (nil, nil); anything else that cannot be converted is an error.
func Coerce(v interface{}) (*float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("COERCION_FAILED: %q: %w", string(x), err)
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("COERCION_FAILED: %q: %w", x, err)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("COERCION_FAILED: unsupported type %T", v)
	}
	return &f, nil
}
