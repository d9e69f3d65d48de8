// Package validate builds field-validation schemas from column definitions.
// A generated Schema maps each form-field key to a validator that checks and
// coerces the submitted value; Apply runs the whole schema against a value
// map and collects per-field error messages for the form layer.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matthewbaird/backoffice/internal/schema"
)

// Validator checks a single form value. It returns the (possibly coerced)
// value on success, or an error whose message is surfaced as the field-level
// validation error.
type Validator func(value any) (any, error)

// Schema is an ordered set of per-field validators. Order follows field
// registration so error reporting and form rendering agree.
type Schema struct {
	fields map[string]Validator
	order  []string
}

// NewSchema returns an empty validation schema.
func NewSchema() *Schema {
	return &Schema{fields: make(map[string]Validator)}
}

// Field registers a validator under the given key, keeping first-seen order.
func (s *Schema) Field(key string, v Validator) {
	if _, exists := s.fields[key]; !exists {
		s.order = append(s.order, key)
	}
	s.fields[key] = v
}

// Keys returns the field keys in registration order.
func (s *Schema) Keys() []string {
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// Validate runs a single field's validator. Unknown keys pass through
// unchanged.
func (s *Schema) Validate(key string, value any) (any, error) {
	v, ok := s.fields[key]
	if !ok {
		return value, nil
	}
	return v(value)
}

// Apply validates values against every registered field and returns the
// coerced value map plus a field->message error map. Fields whose validator
// collapses the value to nil (optional empties) are omitted from the result.
func (s *Schema) Apply(values map[string]any) (map[string]any, map[string]string) {
	out := make(map[string]any, len(s.order))
	errs := make(map[string]string)
	for _, key := range s.order {
		coerced, err := s.fields[key](values[key])
		if err != nil {
			errs[key] = err.Error()
			continue
		}
		if coerced != nil {
			out[key] = coerced
		}
	}
	if len(errs) == 0 {
		return out, nil
	}
	return out, errs
}

// SchemaFor generates the validation schema for a form over the given
// columns in the given mode. Compound subfields contribute flat entries
// under their own keys; compound columns themselves never appear.
func SchemaFor(columns []schema.Column, mode schema.FormMode) *Schema {
	s := NewSchema()
	for _, f := range schema.FormFields(columns, mode) {
		s.Field(f.Key, ForField(f))
	}
	return s
}

// ForField builds the validator for one flattened form field, wiring the
// per-type base rule and, when present, the field's custom validation hook.
// Email fields keep their format rule unrefined.
func ForField(f schema.FormField) Validator {
	base := baseValidator(f)
	if f.Validate == nil || f.Type == schema.TypeEmail {
		return base
	}
	custom := f.Validate
	return func(value any) (any, error) {
		coerced, err := base(value)
		if err != nil {
			return nil, err
		}
		if msg := custom(coerced); msg != "" {
			return nil, fmt.Errorf("%s", msg)
		}
		return coerced, nil
	}
}

func baseValidator(f schema.FormField) Validator {
	switch f.Type {
	case schema.TypeNumber:
		return numberValidator(f)
	case schema.TypeDate:
		return dateValidator(f)
	case schema.TypeBoolean, schema.TypeToggle:
		return boolValidator(f)
	case schema.TypeImage:
		return imageValidator(f)
	case schema.TypeEmail:
		return emailValidator(f)
	case schema.TypeTags:
		return tagsValidator(f)
	case schema.TypeSelect:
		return selectValidator(f)
	case schema.TypeMultiselect:
		return multiselectValidator(f)
	case schema.TypeRating:
		return ratingValidator(f)
	case schema.TypeCustomFields:
		return customFieldsValidator(f)
	default:
		return textValidator(f)
	}
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// numberValidator coerces numeric strings to numbers. The optional variant
// collapses missing and empty values to nil.
func numberValidator(f schema.FormField) Validator {
	return func(value any) (any, error) {
		if isEmpty(value) {
			if f.Optional || !f.Required {
				return nil, nil
			}
			return nil, fmt.Errorf("%s is required", f.Title)
		}
		n, ok := toNumber(value)
		if !ok {
			return nil, fmt.Errorf("%s must be a number", f.Title)
		}
		return n, nil
	}
}

func toNumber(value any) (float64, bool) {
	switch x := value.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// dateLayouts are accepted by date fields; form values use the first.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

func dateValidator(f schema.FormField) Validator {
	return func(value any) (any, error) {
		if isEmpty(value) {
			if f.Optional || !f.Required {
				return nil, nil
			}
			return nil, fmt.Errorf("%s is required", f.Title)
		}
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a date string", f.Title)
		}
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, s); err == nil {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%s must be a valid date", f.Title)
	}
}

func boolValidator(f schema.FormField) Validator {
	return func(value any) (any, error) {
		if value == nil {
			if f.Optional || !f.Required {
				return nil, nil
			}
			return nil, fmt.Errorf("%s is required", f.Title)
		}
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%s must be a boolean", f.Title)
		}
		return b, nil
	}
}

var imagePathPattern = regexp.MustCompile(`^(https?://|/)`)

// imageValidator accepts a binary File or a string URL/relative path. The
// optional variant additionally accepts nil and the empty string.
func imageValidator(f schema.FormField) Validator {
	return func(value any) (any, error) {
		if isEmpty(value) {
			if f.Optional || !f.Required {
				return nil, nil
			}
			return nil, fmt.Errorf("%s is required", f.Title)
		}
		switch x := value.(type) {
		case schema.File:
			return x, nil
		case *schema.File:
			return x, nil
		case string:
			if imagePathPattern.MatchString(x) {
				return x, nil
			}
			return nil, fmt.Errorf("%s must be an image file or URL", f.Title)
		}
		return nil, fmt.Errorf("%s must be an image file or URL", f.Title)
	}
}

func emailValidator(f schema.FormField) Validator {
	return func(value any) (any, error) {
		if isEmpty(value) {
			if f.Optional || !f.Required {
				return nil, nil
			}
			return nil, fmt.Errorf("%s is required", f.Title)
		}
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string", f.Title)
		}
		if addr, err := mail.ParseAddress(s); err != nil || addr.Address != s {
			return nil, fmt.Errorf("%s must be a valid email address", f.Title)
		}
		return s, nil
	}
}

func tagsValidator(f schema.FormField) Validator {
	return func(value any) (any, error) {
		if value == nil {
			if f.Optional || !f.Required {
				return nil, nil
			}
			return nil, fmt.Errorf("%s is required", f.Title)
		}
		switch x := value.(type) {
		case []string:
			return x, nil
		case []any:
			tags := make([]string, len(x))
			for i, v := range x {
				s, ok := v.(string)
				if !ok {
					return nil, fmt.Errorf("%s must be a list of strings", f.Title)
				}
				tags[i] = s
			}
			return tags, nil
		}
		return nil, fmt.Errorf("%s must be a list of strings", f.Title)
	}
}

func selectValidator(f schema.FormField) Validator {
	return func(value any) (any, error) {
		if isEmpty(value) {
			if f.Optional || !f.Required {
				return nil, nil
			}
			return nil, fmt.Errorf("%s is required", f.Title)
		}
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string", f.Title)
		}
		return s, nil
	}
}

// multiselectValidator accepts a list of {id, name?} entries. IDs may arrive
// as strings or numbers and are normalized to strings.
func multiselectValidator(f schema.FormField) Validator {
	return func(value any) (any, error) {
		if value == nil {
			if f.Optional || !f.Required {
				return nil, nil
			}
			return nil, fmt.Errorf("%s is required", f.Title)
		}
		items, ok := toItems(value)
		if !ok {
			return nil, fmt.Errorf("%s must be a list of selections", f.Title)
		}
		return items, nil
	}
}

func toItems(value any) ([]schema.Item, bool) {
	switch x := value.(type) {
	case []schema.Item:
		return x, true
	case []any:
		items := make([]schema.Item, 0, len(x))
		for _, v := range x {
			m, ok := v.(map[string]any)
			if !ok {
				if it, isItem := v.(schema.Item); isItem {
					items = append(items, it)
					continue
				}
				return nil, false
			}
			id, ok := m["id"]
			if !ok {
				return nil, false
			}
			item := schema.Item{ID: schema.Stringify(id)}
			if name, ok := m["name"].(string); ok {
				item.Name = name
			}
			items = append(items, item)
		}
		return items, true
	}
	return nil, false
}

// ratingValidator enforces the 1..5 bound whenever a value is present, in
// both the required and optional variants.
func ratingValidator(f schema.FormField) Validator {
	return func(value any) (any, error) {
		if value == nil {
			if f.Optional || !f.Required {
				return nil, nil
			}
			return nil, fmt.Errorf("%s is required", f.Title)
		}
		n, ok := toNumber(value)
		if !ok {
			return nil, fmt.Errorf("%s must be a number", f.Title)
		}
		if n < 1 || n > 5 {
			return nil, fmt.Errorf("%s must be between 1 and 5", f.Title)
		}
		return n, nil
	}
}

func textValidator(f schema.FormField) Validator {
	return func(value any) (any, error) {
		if value == nil {
			value = ""
		}
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string", f.Title)
		}
		if f.Required && len(s) == 0 {
			return nil, fmt.Errorf("%s is required", f.Title)
		}
		if s == "" && f.Optional {
			return nil, nil
		}
		return s, nil
	}
}
