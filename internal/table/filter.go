// Package table holds the client-side state engine for one data table:
// filter and visibility resolution, permission gating, and the Store that
// serializes state into backend list requests.
package table

import (
	"encoding/json"
)

// Operator enumerates the comparison operators a filter entry may declare.
type Operator string

const (
	OpEqual              Operator = "equal"
	OpNotEqual           Operator = "notEqual"
	OpStartsWith         Operator = "startsWith"
	OpEndsWith           Operator = "endsWith"
	OpSubstring          Operator = "substring"
	OpRegexp             Operator = "regexp"
	OpBetween            Operator = "between"
	OpGreaterThan        Operator = "greaterThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpLessThan           Operator = "lessThan"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
	OpIn                 Operator = "in"

	// OpContains is the default assumed for bare scalar filter values during
	// serialization.
	OpContains Operator = "contains"
)

// Range is a {from, to} filter value for between-style operators.
type Range struct {
	From any `json:"from,omitempty"`
	To   any `json:"to,omitempty"`
}

// FilterValue is one filter entry: the value to match and how to match it.
type FilterValue struct {
	Value    any      `json:"value"`
	Operator Operator `json:"operator,omitempty"`
}

// Filters maps column keys to their active filter entries. Entries with
// empty values are never stored; UpdateFilters is the single mutation point
// and enforces that.
type Filters map[string]FilterValue

// UpdateFilters returns a new filter map with the entry for key set, or
// removed when the value is empty (nil, empty string, empty list, or a range
// with both ends empty). Both the debounced typing path and the immediate
// select/date/switch path must funnel through here so the serialized filter
// set never asks the backend to match empty criteria.
func UpdateFilters(existing Filters, key string, value FilterValue) Filters {
	next := make(Filters, len(existing)+1)
	for k, v := range existing {
		next[k] = v
	}
	if emptyFilterValue(value.Value) {
		delete(next, key)
		return next
	}
	next[key] = value
	return next
}

func emptyFilterValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case Range:
		return emptyFilterValue(x.From) && emptyFilterValue(x.To)
	case *Range:
		return x == nil || (emptyFilterValue(x.From) && emptyFilterValue(x.To))
	case map[string]any:
		for _, mv := range x {
			if !emptyFilterValue(mv) {
				return false
			}
		}
		return true
	}
	return false
}

// Serialize renders the non-empty filter set as the JSON-encoded filter
// parameter of the list endpoint, defaulting bare entries to the contains
// operator. An empty map serializes to "".
func (f Filters) Serialize() (string, error) {
	if len(f) == 0 {
		return "", nil
	}
	normalized := make(map[string]FilterValue, len(f))
	for k, v := range f {
		if v.Operator == "" {
			v.Operator = OpContains
		}
		normalized[k] = v
	}
	b, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
