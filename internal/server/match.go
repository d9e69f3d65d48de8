package server

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matthewbaird/backoffice/internal/schema"
	"github.com/matthewbaird/backoffice/internal/table"
)

// matchFilters reports whether a row satisfies every filter entry. Keys are
// dotted paths into the document.
func matchFilters(row schema.Row, filters map[string]table.FilterValue) bool {
	for key, f := range filters {
		got, _ := row.Path(key)
		if !matchValue(got, f) {
			return false
		}
	}
	return true
}

func matchValue(got any, f table.FilterValue) bool {
	op := f.Operator
	if op == "" {
		op = table.OpContains
	}

	switch op {
	case table.OpContains, table.OpSubstring:
		return strings.Contains(
			strings.ToLower(schema.Stringify(got)),
			strings.ToLower(schema.Stringify(f.Value)),
		)
	case table.OpEqual:
		return schema.Stringify(got) == schema.Stringify(f.Value)
	case table.OpNotEqual:
		return schema.Stringify(got) != schema.Stringify(f.Value)
	case table.OpStartsWith:
		return strings.HasPrefix(schema.Stringify(got), schema.Stringify(f.Value))
	case table.OpEndsWith:
		return strings.HasSuffix(schema.Stringify(got), schema.Stringify(f.Value))
	case table.OpRegexp:
		re, err := regexp.Compile(schema.Stringify(f.Value))
		return err == nil && re.MatchString(schema.Stringify(got))
	case table.OpGreaterThan:
		return compareOrdered(got, f.Value) > 0
	case table.OpGreaterThanOrEqual:
		return compareOrdered(got, f.Value) >= 0
	case table.OpLessThan:
		return compareOrdered(got, f.Value) < 0
	case table.OpLessThanOrEqual:
		return compareOrdered(got, f.Value) <= 0
	case table.OpBetween:
		return matchBetween(got, f.Value)
	case table.OpIn:
		return matchIn(got, f.Value)
	}
	return false
}

// matchBetween treats the filter value as a {from, to} pair; an empty end
// leaves that side unbounded.
func matchBetween(got, bounds any) bool {
	m, ok := bounds.(map[string]any)
	if !ok {
		return false
	}
	if from, ok := m["from"]; ok && !emptyBound(from) {
		if compareOrdered(got, from) < 0 {
			return false
		}
	}
	if to, ok := m["to"]; ok && !emptyBound(to) {
		if compareOrdered(got, to) > 0 {
			return false
		}
	}
	return true
}

func emptyBound(v any) bool {
	return v == nil || schema.Stringify(v) == ""
}

func matchIn(got, want any) bool {
	target := schema.Stringify(got)
	switch list := want.(type) {
	case []any:
		for _, v := range list {
			if schema.Stringify(v) == target {
				return true
			}
		}
	case []string:
		for _, v := range list {
			if v == target {
				return true
			}
		}
	}
	return false
}

// compareOrdered compares numerically when both sides parse as numbers and
// lexically otherwise, so date strings order correctly.
func compareOrdered(a, b any) int {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(schema.Stringify(a), schema.Stringify(b))
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}
