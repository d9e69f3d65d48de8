package schema

// FormMode selects which flag family gates a field's presence in a form.
// Create and edit are independently evaluated passes: a column excluded from
// the create form may still appear in edit, and vice versa.
type FormMode int

const (
	ModeCreate FormMode = iota
	ModeEdit
)

// FormField is one flattened, form-editable field derived from the column
// list. Compound subfields flatten to independent entries under their own
// keys; compound columns never appear as a single field themselves.
type FormField struct {
	Key      string
	Title    string
	Type     ColumnType
	Required bool
	Optional bool
	Options  []Option
	Validate ValidateFunc
	IDKey    string
	BaseKey  string

	// FromCompound marks fields expanded out of a compound column.
	FromCompound bool
	// ImageFallback carries the compound image fallback, when applicable.
	ImageFallback string
}

// FormEligible reports whether the column's own flags admit it to a form in
// the given mode. Callers must separately hold the matching table permission;
// flag and permission are AND-ed, here we only answer for the flag.
//
// Compound columns are eligible iff at least one of their subfields is.
func (c Column) FormEligible(mode FormMode) bool {
	switch c.Type {
	case TypeActions, TypeSelectInternal:
		return false
	case TypeCompound:
		if c.Compound == nil {
			return false
		}
		return len(compoundFormFields(c, mode)) > 0
	}
	return flagFor(mode, c.UsedInCreate, c.Editable)
}

// FormFields flattens the columns into the ordered field list for a form in
// the given mode, applying the eligibility flags at every level.
func FormFields(columns []Column, mode FormMode) []FormField {
	var fields []FormField
	for _, c := range columns {
		switch c.Type {
		case TypeActions, TypeSelectInternal:
			continue
		case TypeCompound:
			if c.Compound != nil {
				fields = append(fields, compoundFormFields(c, mode)...)
			}
		default:
			if !flagFor(mode, c.UsedInCreate, c.Editable) {
				continue
			}
			fields = append(fields, FormField{
				Key:      c.Key,
				Title:    c.Title,
				Type:     c.Type,
				Required: c.Required,
				Optional: c.Optional,
				Options:  c.Options,
				Validate: c.Validate,
				IDKey:    c.IDKey,
				BaseKey:  c.BaseKey,
			})
		}
	}
	return fields
}

func compoundFormFields(c Column, mode FormMode) []FormField {
	cc := c.Compound
	var fields []FormField
	if img := cc.Image; img != nil && flagFor(mode, img.UsedInCreate, img.Editable) {
		fields = append(fields, FormField{
			Key:           img.Key,
			Title:         c.Title,
			Type:          TypeImage,
			Optional:      true,
			FromCompound:  true,
			ImageFallback: img.Fallback,
		})
	}
	if p := cc.Primary; p != nil && flagFor(mode, p.UsedInCreate, p.Editable) {
		for i, key := range p.Keys {
			title := c.Title
			if i < len(p.Titles) {
				title = p.Titles[i]
			}
			fields = append(fields, FormField{
				Key:          key,
				Title:        title,
				Type:         TypeText,
				Required:     p.Required,
				Validate:     c.Validate,
				FromCompound: true,
			})
		}
	}
	if s := cc.Secondary; s != nil && s.Key != "" && flagFor(mode, s.UsedInCreate, s.Editable) {
		fields = append(fields, FormField{
			Key:          s.Key,
			Title:        s.Title,
			Type:         TypeText,
			Optional:     true,
			FromCompound: true,
		})
	}
	for _, m := range cc.Metadata {
		if m.Key == "" || !flagFor(mode, m.UsedInCreate, m.Editable) {
			continue
		}
		typ := m.Type
		if typ == "" {
			typ = TypeText
		}
		fields = append(fields, FormField{
			Key:          m.Key,
			Title:        m.Title,
			Type:         typ,
			Optional:     true,
			Options:      m.Options,
			FromCompound: true,
		})
	}
	return fields
}

func flagFor(mode FormMode, create, edit bool) bool {
	if mode == ModeCreate {
		return create
	}
	return edit
}
