package schema

import (
	"strconv"
	"strings"
)

// ResolvedSortKey derives the wire-level sort key for the column, suitable
// for the backend's sortField parameter. Multi-key results are comma-joined
// and share one sort direction.
//
// Resolution order:
//  1. An explicit SortKey wins. A single entry is trusted verbatim; multiple
//     entries are each run through the prefix rule and comma-joined.
//  2. Compound columns sort by their first primary key: Primary.SortKey if
//     set, else the first Primary.Keys entry, else the column's own Key.
//     The prefix rule applies.
//  3. Plain columns sort by their own Key, unprefixed.
func (c Column) ResolvedSortKey() string {
	if len(c.SortKey) == 1 {
		return c.SortKey[0]
	}
	if len(c.SortKey) > 1 {
		keys := make([]string, len(c.SortKey))
		for i, k := range c.SortKey {
			keys[i] = c.prefixSortKey(k)
		}
		return strings.Join(keys, ",")
	}
	if c.Type == TypeCompound || c.Type == TypeCustom {
		return c.prefixSortKey(c.firstPrimaryKey())
	}
	return c.Key
}

// firstPrimaryKey picks the leading primary sort field of a compound (or
// custom) column, falling back to the column key when the config names none.
func (c Column) firstPrimaryKey() string {
	if c.Compound == nil {
		return c.Key
	}
	if p := c.Compound.Primary; p != nil {
		if len(p.SortKey) > 0 {
			return p.SortKey[0]
		}
		if len(p.Keys) > 0 {
			return p.Keys[0]
		}
	}
	return c.Key
}

// prefixSortKey namespaces key under the column key. DisablePrefixSort opts
// out, except for TypeCustom columns which are always prefixed.
func (c Column) prefixSortKey(key string) string {
	if c.DisablePrefixSort && c.Type != TypeCustom {
		return key
	}
	return c.Key + "." + key
}

// SortField is one option exposed in the sort UI.
type SortField struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SortableFields enumerates the sort options for a column list: one entry
// per sortable plain column, plus one entry per compound subfield (primary,
// secondary, each metadata item) whose own Sortable is not explicitly false.
// Compound entries are labeled "<column title> (<subfield title>)".
func SortableFields(columns []Column) []SortField {
	var fields []SortField
	for _, c := range columns {
		if c.Type == TypeCompound && c.Compound != nil {
			fields = append(fields, compoundSortFields(c)...)
			continue
		}
		if !c.Sortable {
			continue
		}
		fields = append(fields, SortField{ID: c.ResolvedSortKey(), Label: c.Title})
	}
	return fields
}

func compoundSortFields(c Column) []SortField {
	if !c.Sortable {
		return nil
	}
	var fields []SortField
	cc := c.Compound
	if p := cc.Primary; p != nil && sortableFlag(p.Sortable) && len(p.Keys) > 0 {
		fields = append(fields, SortField{
			ID:    c.prefixSortKey(c.firstPrimaryKey()),
			Label: compoundLabel(c.Title, firstTitle(p.Titles)),
		})
	}
	if s := cc.Secondary; s != nil && sortableFlag(s.Sortable) && s.Key != "" {
		fields = append(fields, SortField{
			ID:    c.prefixSortKey(s.Key),
			Label: compoundLabel(c.Title, s.Title),
		})
	}
	for _, m := range cc.Metadata {
		if !sortableFlag(m.Sortable) || m.Key == "" {
			continue
		}
		fields = append(fields, SortField{
			ID:    c.prefixSortKey(m.Key),
			Label: compoundLabel(c.Title, m.Title),
		})
	}
	return fields
}

// sortableFlag interprets the tri-state subfield flag: nil means sortable.
func sortableFlag(b *bool) bool { return b == nil || *b }

func firstTitle(titles []string) string {
	if len(titles) == 0 {
		return ""
	}
	return titles[0]
}

func compoundLabel(column, sub string) string {
	if sub == "" {
		return column
	}
	return column + " (" + sub + ")"
}

// Stringify renders a scalar wire value as a string. Numbers keep their
// JSON representation (no trailing ".000000" on integral floats).
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return ""
	}
}
