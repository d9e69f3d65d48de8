// Package cueload reads declarative table definitions written in CUE and
// turns them into schema.Table values. Table configs live in a CUE package
// with a top-level "tables" struct keyed by resource name.
package cueload

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/matthewbaird/backoffice/internal/schema"
)

// Load builds the CUE package in dir and decodes its tables.
func Load(dir string) ([]schema.Table, error) {
	insts := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(insts) == 0 {
		return nil, fmt.Errorf("no CUE instances found in %s", dir)
	}
	if insts[0].Err != nil {
		return nil, fmt.Errorf("loading CUE: %w", insts[0].Err)
	}
	val := cuecontext.New().BuildInstance(insts[0])
	if val.Err() != nil {
		return nil, fmt.Errorf("building CUE value: %w", val.Err())
	}
	return Decode(val)
}

// Compile decodes tables from CUE source text. Used by tests and tooling
// that hold the definition in memory.
func Compile(src string) ([]schema.Table, error) {
	val := cuecontext.New().CompileString(src)
	if val.Err() != nil {
		return nil, fmt.Errorf("compiling CUE: %w", val.Err())
	}
	return Decode(val)
}

// Decode extracts the tables struct from a built CUE value. Tables come out
// sorted by name so generation output is stable.
func Decode(val cue.Value) ([]schema.Table, error) {
	tablesVal := val.LookupPath(cue.ParsePath("tables"))
	if tablesVal.Err() != nil {
		return nil, fmt.Errorf("missing tables struct: %w", tablesVal.Err())
	}

	var defs map[string]tableDef
	if err := tablesVal.Decode(&defs); err != nil {
		return nil, fmt.Errorf("decoding tables: %w", err)
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	tables := make([]schema.Table, 0, len(names))
	for _, name := range names {
		t, err := defs[name].toTable(name)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

type tableDef struct {
	Endpoint    string         `json:"endpoint"`
	Permissions permissionsDef `json:"permissions"`
	CanCreate   bool           `json:"canCreate"`
	CanEdit     bool           `json:"canEdit"`
	CanDelete   bool           `json:"canDelete"`
	CanView     bool           `json:"canView"`
	IsParanoid  bool           `json:"isParanoid"`
	CreateLink  string         `json:"createLink"`
	EditLink    string         `json:"editLink"`
	ViewLink    string         `json:"viewLink"`
	Columns     []columnDef    `json:"columns"`
}

type permissionsDef struct {
	Access string `json:"access"`
	View   string `json:"view"`
	Create string `json:"create"`
	Edit   string `json:"edit"`
	Delete string `json:"delete"`
}

type columnDef struct {
	Key               string       `json:"key"`
	Type              string       `json:"type"`
	Title             string       `json:"title"`
	Sortable          bool         `json:"sortable"`
	Filterable        bool         `json:"filterable"`
	Editable          bool         `json:"editable"`
	UsedInCreate      bool         `json:"usedInCreate"`
	Required          bool         `json:"required"`
	Optional          bool         `json:"optional"`
	ExpandedOnly      bool         `json:"expandedOnly"`
	DisablePrefixSort bool         `json:"disablePrefixSort"`
	Priority          int          `json:"priority"`
	SortKey           []string     `json:"sortKey"`
	IDKey             string       `json:"idKey"`
	BaseKey           string       `json:"baseKey"`
	Options           []optionDef  `json:"options"`
	Endpoint          *endpointDef `json:"endpoint"`
	Compound          *compoundDef `json:"compound"`
}

type optionDef struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type endpointDef struct {
	URL         string            `json:"url"`
	Method      string            `json:"method"`
	QueryParams map[string]string `json:"queryParams"`
}

type compoundDef struct {
	Image     *compoundImageDef   `json:"image"`
	Primary   *compoundPrimaryDef `json:"primary"`
	Secondary *subfieldDef        `json:"secondary"`
	Metadata  []metadataDef       `json:"metadata"`
}

type compoundImageDef struct {
	Key          string `json:"key"`
	Fallback     string `json:"fallback"`
	Editable     bool   `json:"editable"`
	UsedInCreate bool   `json:"usedInCreate"`
}

type compoundPrimaryDef struct {
	Keys         []string `json:"keys"`
	Titles       []string `json:"titles"`
	SortKey      []string `json:"sortKey"`
	Sortable     *bool    `json:"sortable"`
	Editable     bool     `json:"editable"`
	UsedInCreate bool     `json:"usedInCreate"`
	Required     bool     `json:"required"`
}

type subfieldDef struct {
	Key          string `json:"key"`
	Title        string `json:"title"`
	Sortable     *bool  `json:"sortable"`
	Editable     bool   `json:"editable"`
	UsedInCreate bool   `json:"usedInCreate"`
}

type metadataDef struct {
	Key          string      `json:"key"`
	Title        string      `json:"title"`
	Type         string      `json:"type"`
	Options      []optionDef `json:"options"`
	Sortable     *bool       `json:"sortable"`
	Editable     bool        `json:"editable"`
	UsedInCreate bool        `json:"usedInCreate"`
}

func (d tableDef) toTable(name string) (schema.Table, error) {
	if d.Endpoint == "" {
		return schema.Table{}, fmt.Errorf("endpoint is required")
	}
	columns := make([]schema.Column, 0, len(d.Columns))
	for i, cd := range d.Columns {
		c, err := cd.toColumn()
		if err != nil {
			return schema.Table{}, fmt.Errorf("column %d: %w", i, err)
		}
		columns = append(columns, c)
	}
	return schema.Table{
		Name:     name,
		Endpoint: d.Endpoint,
		Columns:  columns,
		Permissions: schema.PermissionActions{
			Access: d.Permissions.Access,
			View:   d.Permissions.View,
			Create: d.Permissions.Create,
			Edit:   d.Permissions.Edit,
			Delete: d.Permissions.Delete,
		},
		CanCreate:  d.CanCreate,
		CanEdit:    d.CanEdit,
		CanDelete:  d.CanDelete,
		CanView:    d.CanView,
		IsParanoid: d.IsParanoid,
		CreateLink: d.CreateLink,
		EditLink:   d.EditLink,
		ViewLink:   d.ViewLink,
	}, nil
}

func (d columnDef) toColumn() (schema.Column, error) {
	if d.Key == "" {
		return schema.Column{}, fmt.Errorf("key is required")
	}
	typ := schema.ColumnType(d.Type)
	if d.Type == "" {
		typ = schema.TypeText
	} else if !typ.Valid() {
		return schema.Column{}, fmt.Errorf("unknown column type %q", d.Type)
	}

	c := schema.Column{
		Key:               d.Key,
		Type:              typ,
		Title:             d.Title,
		Sortable:          d.Sortable,
		Filterable:        d.Filterable,
		Editable:          d.Editable,
		UsedInCreate:      d.UsedInCreate,
		Required:          d.Required,
		Optional:          d.Optional,
		ExpandedOnly:      d.ExpandedOnly,
		DisablePrefixSort: d.DisablePrefixSort,
		Priority:          d.Priority,
		SortKey:           d.SortKey,
		IDKey:             d.IDKey,
		BaseKey:           d.BaseKey,
		Options:           toOptions(d.Options),
	}
	if d.Endpoint != nil {
		c.Endpoint = &schema.FieldEndpoint{
			URL:         d.Endpoint.URL,
			Method:      d.Endpoint.Method,
			QueryParams: d.Endpoint.QueryParams,
		}
	}
	if d.Compound != nil {
		c.Compound = d.Compound.toConfig()
	}
	return c, nil
}

func toOptions(defs []optionDef) []schema.Option {
	if len(defs) == 0 {
		return nil
	}
	options := make([]schema.Option, len(defs))
	for i, d := range defs {
		options[i] = schema.Option{Value: d.Value, Label: d.Label}
	}
	return options
}

func (d compoundDef) toConfig() *schema.CompoundConfig {
	cc := &schema.CompoundConfig{}
	if d.Image != nil {
		cc.Image = &schema.CompoundImage{
			Key:          d.Image.Key,
			Fallback:     d.Image.Fallback,
			Editable:     d.Image.Editable,
			UsedInCreate: d.Image.UsedInCreate,
		}
	}
	if d.Primary != nil {
		cc.Primary = &schema.CompoundPrimary{
			Keys:         d.Primary.Keys,
			Titles:       d.Primary.Titles,
			SortKey:      d.Primary.SortKey,
			Sortable:     d.Primary.Sortable,
			Editable:     d.Primary.Editable,
			UsedInCreate: d.Primary.UsedInCreate,
			Required:     d.Primary.Required,
		}
	}
	if d.Secondary != nil {
		cc.Secondary = &schema.CompoundSecondary{
			Key:          d.Secondary.Key,
			Title:        d.Secondary.Title,
			Sortable:     d.Secondary.Sortable,
			Editable:     d.Secondary.Editable,
			UsedInCreate: d.Secondary.UsedInCreate,
		}
	}
	for _, m := range d.Metadata {
		cc.Metadata = append(cc.Metadata, schema.MetadataField{
			Key:          m.Key,
			Title:        m.Title,
			Type:         schema.ColumnType(m.Type),
			Options:      toOptions(m.Options),
			Sortable:     m.Sortable,
			Editable:     m.Editable,
			UsedInCreate: m.UsedInCreate,
		})
	}
	return cc
}
