package form

import (
	"encoding/json"
	"strings"
)

// Some wire fields (customFields, occasionally multiselect) carry arrays as
// JSON-encoded strings. DecodeJSONList and EncodeJSONList are the explicit
// serialization contract for those fields; no other read site parses them
// ad hoc.

// DecodeJSONList parses a JSON-array string. The second return is false when
// the string is not a JSON array.
func DecodeJSONList(s string) ([]any, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}
	var list []any
	if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
		return nil, false
	}
	return list, true
}

// EncodeJSONList renders a list as the JSON string the wire format expects.
func EncodeJSONList(list any) (string, error) {
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
