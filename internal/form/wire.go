package form

import (
	"github.com/matthewbaird/backoffice/internal/schema"
)

// ToWireValues prepares a submitted form value map for the create/update
// endpoints: multiselect items collapse to stringified id lists, select
// objects to their id string, tags default to an empty list. Columns with a
// BaseKey have their processed value re-keyed under it. Optional fields
// whose value is missing — or empty-string, for non-rating types — are
// pruned so the backend never receives a spurious empty value.
func ToWireValues(values map[string]any, columns []schema.Column) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	for _, c := range columns {
		if c.Type == schema.TypeCompound && c.Compound != nil {
			applyCompoundWire(out, c)
			continue
		}
		applyWireField(out, c.Key, c.Type, c.Optional, c.BaseKey)
	}
	return out
}

func applyCompoundWire(out map[string]any, c schema.Column) {
	cc := c.Compound
	if img := cc.Image; img != nil {
		applyWireField(out, img.Key, schema.TypeImage, true, "")
	}
	if p := cc.Primary; p != nil {
		for _, key := range p.Keys {
			applyWireField(out, key, schema.TypeText, !p.Required, "")
		}
	}
	if s := cc.Secondary; s != nil && s.Key != "" {
		applyWireField(out, s.Key, schema.TypeText, true, "")
	}
	for _, m := range cc.Metadata {
		if m.Key == "" {
			continue
		}
		typ := m.Type
		if typ == "" {
			typ = schema.TypeText
		}
		applyWireField(out, m.Key, typ, true, "")
	}
}

func applyWireField(out map[string]any, key string, typ schema.ColumnType, optional bool, baseKey string) {
	v, present := out[key]

	switch typ {
	case schema.TypeMultiselect:
		if present {
			v = multiselectWireValue(v)
		}
	case schema.TypeSelect:
		if present {
			v = selectWireValue(v)
		}
	case schema.TypeTags:
		if !present || v == nil {
			v, present = []string{}, true
		}
	}

	if optional && prunable(typ, v, present) {
		delete(out, key)
		return
	}
	if present {
		out[key] = v
	}

	if baseKey != "" && baseKey != key {
		if v, ok := out[key]; ok {
			out[baseKey] = v
			delete(out, key)
		}
	}
}

// prunable reports whether an optional field's value should be dropped from
// the payload. Rating fields keep empty strings (only nil prunes) so an
// explicit zero never silently vanishes into a default.
func prunable(typ schema.ColumnType, v any, present bool) bool {
	if !present || v == nil {
		return true
	}
	if typ == schema.TypeRating {
		return false
	}
	s, ok := v.(string)
	return ok && s == ""
}

// multiselectWireValue collapses form items to their stringified ids.
func multiselectWireValue(v any) []string {
	switch x := v.(type) {
	case []schema.Item:
		ids := make([]string, len(x))
		for i, item := range x {
			ids[i] = item.ID
		}
		return ids
	case []any:
		ids := make([]string, 0, len(x))
		for _, el := range x {
			switch item := el.(type) {
			case schema.Item:
				ids = append(ids, item.ID)
			case map[string]any:
				ids = append(ids, schema.Stringify(item["id"]))
			default:
				ids = append(ids, schema.Stringify(item))
			}
		}
		return ids
	case []string:
		return x
	}
	return []string{}
}

// selectWireValue collapses an object-valued selection to its id string.
func selectWireValue(v any) any {
	switch x := v.(type) {
	case schema.Item:
		return x.ID
	case map[string]any:
		if id, ok := x["id"]; ok {
			return schema.Stringify(id)
		}
	}
	return v
}
