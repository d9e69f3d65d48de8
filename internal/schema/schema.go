// Package schema defines the column and table configuration model for the
// backoffice data-table engine. A Table is pure data: pages declare columns,
// permissions, and behavior flags, and the resolvers in this package and its
// siblings (validate, form, table) derive everything else from it — wire
// query parameters, form validation schemas, visible column sets, and sort
// keys.
package schema

import "strings"

// ColumnType enumerates the closed set of column kinds. Every resolver in
// the engine switches exhaustively on this type so that a new kind cannot
// silently fall through to a default branch.
type ColumnType string

const (
	TypeText           ColumnType = "text"
	TypeTextarea       ColumnType = "textarea"
	TypeEmail          ColumnType = "email"
	TypeNumber         ColumnType = "number"
	TypeRating         ColumnType = "rating"
	TypeDate           ColumnType = "date"
	TypeBoolean        ColumnType = "boolean"
	TypeToggle         ColumnType = "toggle"
	TypeSelect         ColumnType = "select"
	TypeMultiselect    ColumnType = "multiselect"
	TypeTags           ColumnType = "tags"
	TypeImage          ColumnType = "image"
	TypeCompound       ColumnType = "compound"
	TypeCustomFields   ColumnType = "customFields"
	TypeActions        ColumnType = "actions"
	TypeSelectInternal ColumnType = "select-internal"
	TypeCustom         ColumnType = "custom"
)

// columnTypes is the authoritative set used for config validation.
var columnTypes = map[ColumnType]bool{
	TypeText: true, TypeTextarea: true, TypeEmail: true, TypeNumber: true,
	TypeRating: true, TypeDate: true, TypeBoolean: true, TypeToggle: true,
	TypeSelect: true, TypeMultiselect: true, TypeTags: true, TypeImage: true,
	TypeCompound: true, TypeCustomFields: true, TypeActions: true,
	TypeSelectInternal: true, TypeCustom: true,
}

// Valid reports whether t is a known column type.
func (t ColumnType) Valid() bool { return columnTypes[t] }

// DefaultPriority is assumed when a column declares no priority.
// Priority 1 columns are always shown; higher values are hidden first on
// narrow viewports.
const DefaultPriority = 5

// Option is one choice of a select or multiselect column.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// FieldEndpoint describes where a select column fetches its options from.
type FieldEndpoint struct {
	URL         string            `json:"url"`
	Method      string            `json:"method,omitempty"` // defaults to GET
	QueryParams map[string]string `json:"query_params,omitempty"`
	Body        map[string]any    `json:"body,omitempty"`
}

// DynamicSelect declares a cascading select: whenever the watched form field
// changes, Endpoint maps its new value to the endpoint that supplies the
// refreshed option list.
type DynamicSelect struct {
	RefreshOn string
	Endpoint  func(watched any) *FieldEndpoint
}

// ValidateFunc is a custom per-field validation hook. It returns an error
// message, or "" when the value is acceptable.
type ValidateFunc func(value any) string

// Column describes one logical field of a tabular resource.
//
// Key uses dotted paths to address nested row fields
// (e.g. "author.user.firstName"). SortKey, when set, overrides sort-key
// derivation: a single entry is used verbatim, multiple entries are each
// prefixed and comma-joined (see ResolvedSortKey).
type Column struct {
	Key   string
	Type  ColumnType
	Title string

	Sortable     bool
	Filterable   bool
	Editable     bool
	UsedInCreate bool
	Required     bool
	Optional     bool

	// ExpandedOnly columns render only in the row-detail view, never as a
	// table column.
	ExpandedOnly bool

	// DisablePrefixSort suppresses the "<key>." namespace on derived sort
	// keys. Ignored for TypeCustom, which is always prefixed.
	DisablePrefixSort bool

	// Priority controls responsive visibility; zero means DefaultPriority.
	Priority int

	SortKey []string

	Compound *CompoundConfig

	Validate ValidateFunc

	Options       []Option
	Endpoint      *FieldEndpoint
	DynamicSelect *DynamicSelect

	// IDKey names the property extracted from object-valued select cells.
	IDKey string
	// BaseKey, when set, re-keys the submitted value on the wire payload.
	BaseKey string
}

// EffectivePriority returns the column's priority, substituting the default
// for the zero value.
func (c Column) EffectivePriority() int {
	if c.Priority == 0 {
		return DefaultPriority
	}
	return c.Priority
}

// CompoundImage is the optional avatar/logo subfield of a compound column.
type CompoundImage struct {
	Key          string
	Fallback     string
	Editable     bool
	UsedInCreate bool
}

// CompoundPrimary holds the headline subfield(s) of a compound column. When
// Keys has more than one entry, each maps to an independent form field with
// the matching title.
type CompoundPrimary struct {
	Keys         []string
	Titles       []string
	SortKey      []string
	Sortable     *bool // nil means sortable
	Editable     bool
	UsedInCreate bool
	Required     bool
}

// CompoundSecondary is the optional subtitle subfield of a compound column.
type CompoundSecondary struct {
	Key          string
	Title        string
	Sortable     *bool
	Editable     bool
	UsedInCreate bool
}

// MetadataField is one auxiliary badge/field of a compound column, each
// independently include/excludable from forms.
type MetadataField struct {
	Key          string
	Title        string
	Type         ColumnType // zero value renders as text
	Options      []Option
	Sortable     *bool
	Editable     bool
	UsedInCreate bool
}

// CompoundConfig is the sub-schema of a compound column: several underlying
// row fields aggregated into one visual unit.
type CompoundConfig struct {
	Image     *CompoundImage
	Primary   *CompoundPrimary
	Secondary *CompoundSecondary
	Metadata  []MetadataField
}

// PermissionActions holds the permission strings checked for each table
// capability.
type PermissionActions struct {
	Access string
	View   string
	Create string
	Edit   string
	Delete string
}

// Table is the per-table configuration a page supplies to the engine.
type Table struct {
	Name     string
	Endpoint string
	Columns  []Column

	Permissions PermissionActions

	CanCreate bool
	CanEdit   bool
	CanDelete bool
	CanView   bool

	// IsParanoid enables soft-delete semantics: rows are flagged deleted,
	// restorable, and removable for good only via a forced delete.
	IsParanoid bool

	// Direct navigation links used in lieu of drawers when set.
	CreateLink string
	EditLink   string
	ViewLink   string

	// EditCondition, when set, gates edit eligibility per row.
	EditCondition func(Row) bool
}

// Column returns the column with the given key, if present.
func (t Table) Column(key string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Row is a single wire-format record. Nested fields are addressed with
// dotted paths via Path.
type Row map[string]any

// ID returns the row's identifier as a string, or "" when absent.
func (r Row) ID() string {
	v, ok := r["id"]
	if !ok {
		return ""
	}
	return Stringify(v)
}

// Path resolves a dotted path against the row, descending through nested
// maps. It returns false when any segment is missing or a non-map value is
// reached before the final segment.
func (r Row) Path(key string) (any, bool) {
	if !strings.Contains(key, ".") {
		v, ok := r[key]
		return v, ok
	}
	parts := strings.Split(key, ".")
	var cur any = map[string]any(r)
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			if rm, isRow := cur.(Row); isRow {
				m = map[string]any(rm)
			} else {
				return nil, false
			}
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
