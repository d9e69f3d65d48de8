// Package form converts rows between wire format and form-editable values.
// ToFormValues prefills a form from a fetched row; ToWireValues prepares a
// submitted value map for the create/update endpoints. The two transforms
// are inverses up to normalization (multiselect entries round-trip through
// {id, name} pairs, optional empties are pruned from the wire payload).
package form

import (
	"time"

	"github.com/matthewbaird/backoffice/internal/schema"
)

// wireDateLayouts are the row-side date representations we accept.
var wireDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// formDateLayout is the form-side date representation.
const formDateLayout = "2006-01-02"

// ToFormValues maps a wire-format row onto the flat form value map for the
// given columns. Compound subfields contribute entries under their own keys,
// regardless of form eligibility — eligibility gating belongs to the render
// and validation layers.
func ToFormValues(row schema.Row, columns []schema.Column) map[string]any {
	values := make(map[string]any)
	for _, c := range columns {
		switch c.Type {
		case schema.TypeActions, schema.TypeSelectInternal:
			continue
		case schema.TypeCompound:
			if c.Compound != nil {
				compoundFormValues(row, c, values)
			}
		default:
			raw, _ := row.Path(c.Key)
			values[c.Key] = formValue(c.Type, raw, c.Options, c.IDKey)
		}
	}
	return values
}

func compoundFormValues(row schema.Row, c schema.Column, values map[string]any) {
	cc := c.Compound
	if img := cc.Image; img != nil {
		raw, _ := row.Path(img.Key)
		values[img.Key] = formValue(schema.TypeImage, raw, nil, "")
	}
	if p := cc.Primary; p != nil {
		for _, key := range p.Keys {
			raw, _ := row.Path(key)
			values[key] = formValue(schema.TypeText, raw, nil, "")
		}
	}
	if s := cc.Secondary; s != nil && s.Key != "" {
		raw, _ := row.Path(s.Key)
		values[s.Key] = formValue(schema.TypeText, raw, nil, "")
	}
	for _, m := range cc.Metadata {
		if m.Key == "" {
			continue
		}
		typ := m.Type
		if typ == "" {
			typ = schema.TypeText
		}
		raw, _ := row.Path(m.Key)
		values[m.Key] = formValue(typ, raw, m.Options, "")
	}
}

// formValue applies the per-type wire->form mapping.
func formValue(typ schema.ColumnType, raw any, options []schema.Option, idKey string) any {
	switch typ {
	case schema.TypeMultiselect:
		return multiselectFormValue(raw, options)
	case schema.TypeSelect:
		return selectFormValue(raw, idKey)
	case schema.TypeDate:
		return dateFormValue(raw)
	case schema.TypeTags:
		if tags, ok := toStringSlice(raw); ok {
			return tags
		}
		return []string{}
	case schema.TypeImage:
		if raw == nil {
			return nil
		}
		return raw
	case schema.TypeCustomFields:
		return customFieldsFormValue(raw)
	case schema.TypeRating:
		return raw
	case schema.TypeBoolean, schema.TypeToggle:
		if raw == nil {
			return false
		}
		return raw
	default:
		if raw == nil {
			return ""
		}
		return raw
	}
}

// multiselectFormValue normalizes a wire multiselect value — possibly a
// JSON-encoded string — into {id, name} items. Object entries keep their
// name when present, fall back to a "<duration> <timeframe>" display name,
// then to the id. Scalar entries look their label up in the options list.
func multiselectFormValue(raw any, options []schema.Option) []schema.Item {
	if s, ok := raw.(string); ok {
		if decoded, ok := DecodeJSONList(s); ok {
			raw = decoded
		}
	}
	list, ok := raw.([]any)
	if !ok {
		if items, isItems := raw.([]schema.Item); isItems {
			return items
		}
		if strs, isStrs := toStringSlice(raw); isStrs {
			anys := make([]any, len(strs))
			for i, s := range strs {
				anys[i] = s
			}
			list = anys
		} else {
			return []schema.Item{}
		}
	}
	items := make([]schema.Item, 0, len(list))
	for _, el := range list {
		switch x := el.(type) {
		case map[string]any:
			id, ok := x["id"]
			if !ok {
				continue
			}
			item := schema.Item{ID: schema.Stringify(id)}
			if name, ok := x["name"].(string); ok && name != "" {
				item.Name = name
			} else if d, ok := x["duration"]; ok {
				if tf, ok := x["timeframe"]; ok {
					item.Name = schema.Stringify(d) + " " + schema.Stringify(tf)
				}
			}
			if item.Name == "" {
				item.Name = item.ID
			}
			items = append(items, item)
		case schema.Item:
			items = append(items, x)
		default:
			id := schema.Stringify(x)
			items = append(items, schema.Item{ID: id, Name: optionLabel(options, id)})
		}
	}
	return items
}

func optionLabel(options []schema.Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// selectFormValue extracts the id reference from a select cell. Object cells
// yield their idKey property stringified; scalars stringify directly.
func selectFormValue(raw any, idKey string) string {
	if m, ok := raw.(map[string]any); ok && idKey != "" {
		return schema.Stringify(m[idKey])
	}
	if raw == nil {
		return ""
	}
	return schema.Stringify(raw)
}

func dateFormValue(raw any) string {
	switch x := raw.(type) {
	case nil:
		return ""
	case time.Time:
		return x.Format(formDateLayout)
	case string:
		if x == "" {
			return ""
		}
		for _, layout := range wireDateLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t.Format(formDateLayout)
			}
		}
		return x
	}
	return ""
}

func customFieldsFormValue(raw any) []any {
	if s, ok := raw.(string); ok {
		if decoded, ok := DecodeJSONList(s); ok {
			return decoded
		}
		return []any{}
	}
	if list, ok := raw.([]any); ok {
		return list
	}
	return []any{}
}

func toStringSlice(raw any) ([]string, bool) {
	switch x := raw.(type) {
	case []string:
		return x, true
	case []any:
		out := make([]string, len(x))
		for i, v := range x {
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
