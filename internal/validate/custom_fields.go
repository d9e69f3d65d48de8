package validate

import (
	"fmt"

	"github.com/matthewbaird/backoffice/internal/schema"
)

// customFieldsValidator checks a list of user-defined field definitions:
// every entry needs a non-empty name and title, a known input kind, and a
// boolean required flag. Wire payloads carry the list JSON-encoded; decoding
// happens in the form transformer before validation runs.
func customFieldsValidator(f schema.FormField) Validator {
	return func(value any) (any, error) {
		if value == nil {
			if f.Optional || !f.Required {
				return nil, nil
			}
			return nil, fmt.Errorf("%s is required", f.Title)
		}
		defs, ok := toCustomFields(value)
		if !ok {
			return nil, fmt.Errorf("%s must be a list of field definitions", f.Title)
		}
		for i, d := range defs {
			if d.Name == "" {
				return nil, fmt.Errorf("%s: field %d needs a name", f.Title, i+1)
			}
			if d.Title == "" {
				return nil, fmt.Errorf("%s: field %d needs a title", f.Title, i+1)
			}
			if !d.Type.Valid() {
				return nil, fmt.Errorf("%s: field %d has unknown type %q", f.Title, i+1, d.Type)
			}
		}
		return defs, nil
	}
}

func toCustomFields(value any) ([]schema.CustomField, bool) {
	switch x := value.(type) {
	case []schema.CustomField:
		return x, true
	case []any:
		defs := make([]schema.CustomField, 0, len(x))
		for _, v := range x {
			m, ok := v.(map[string]any)
			if !ok {
				if d, isDef := v.(schema.CustomField); isDef {
					defs = append(defs, d)
					continue
				}
				return nil, false
			}
			d := schema.CustomField{}
			if s, ok := m["name"].(string); ok {
				d.Name = s
			}
			if s, ok := m["title"].(string); ok {
				d.Title = s
			}
			if s, ok := m["type"].(string); ok {
				d.Type = schema.CustomFieldKind(s)
			}
			if b, ok := m["required"].(bool); ok {
				d.Required = b
			}
			defs = append(defs, d)
		}
		return defs, true
	}
	return nil, false
}
