// cmd/tablegen resolves CUE table definitions into JSON table schemas.
//
// It reads a CUE package of table configs, runs the same resolvers the
// runtime uses (sort keys, sortable fields, responsive visibility, form
// fields), and writes one JSON artifact per table. Frontends consume these
// artifacts instead of re-deriving the configuration.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/matthewbaird/backoffice/internal/cueload"
	"github.com/matthewbaird/backoffice/internal/schema"
	"github.com/matthewbaird/backoffice/internal/table"
)

// TableArtifact is the resolved, frontend-ready form of one table config.
type TableArtifact struct {
	Name           string             `json:"name"`
	Endpoint       string             `json:"endpoint"`
	IsParanoid     bool               `json:"is_paranoid"`
	Columns        []ColumnArtifact   `json:"columns"`
	SortableFields []schema.SortField `json:"sortable_fields"`
	Visibility     Visibility         `json:"visibility"`
	CreateForm     []FormFieldDef     `json:"create_form"`
	EditForm       []FormFieldDef     `json:"edit_form"`
}

// ColumnArtifact carries the per-column facts a renderer needs, with the
// sort key already resolved.
type ColumnArtifact struct {
	Key        string `json:"key"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Priority   int    `json:"priority"`
	SortKey    string `json:"sort_key,omitempty"`
	Sortable   bool   `json:"sortable"`
	Filterable bool   `json:"filterable"`
}

// Visibility lists the default visible column keys per viewport.
type Visibility struct {
	Desktop []string `json:"desktop"`
	Tablet  []string `json:"tablet"`
	Mobile  []string `json:"mobile"`
}

// FormFieldDef is one resolved form field.
type FormFieldDef struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Optional bool   `json:"optional"`
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("tablegen: ")

	configDir := flag.String("config", "./tables", "directory containing the CUE table definitions")
	outDir := flag.String("out", "./gen/tables", "output directory for JSON artifacts")
	flag.Parse()

	tables, err := cueload.Load(*configDir)
	if err != nil {
		log.Fatalf("loading table definitions: %v", err)
	}
	if len(tables) == 0 {
		log.Fatal("no tables defined")
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}

	for _, t := range tables {
		artifact := resolve(t)
		path := filepath.Join(*outDir, t.Name+".json")
		if err := writeJSON(path, artifact); err != nil {
			log.Fatalf("writing %s: %v", path, err)
		}
		log.Printf("wrote %s (%d columns, %d sortable fields)",
			path, len(artifact.Columns), len(artifact.SortableFields))
	}
}

// resolve runs the runtime resolvers over one table definition.
func resolve(t schema.Table) TableArtifact {
	artifact := TableArtifact{
		Name:           t.Name,
		Endpoint:       t.Endpoint,
		IsParanoid:     t.IsParanoid,
		SortableFields: schema.SortableFields(t.Columns),
		Visibility: Visibility{
			Desktop: visibleKeys(t.Columns, table.Desktop),
			Tablet:  visibleKeys(t.Columns, table.Tablet),
			Mobile:  visibleKeys(t.Columns, table.Mobile),
		},
		CreateForm: formFields(t.Columns, schema.ModeCreate),
		EditForm:   formFields(t.Columns, schema.ModeEdit),
	}

	for _, c := range t.Columns {
		col := ColumnArtifact{
			Key:        c.Key,
			Type:       string(c.Type),
			Title:      c.Title,
			Priority:   c.EffectivePriority(),
			Sortable:   c.Sortable,
			Filterable: c.Filterable,
		}
		if c.Sortable {
			col.SortKey = c.ResolvedSortKey()
		}
		artifact.Columns = append(artifact.Columns, col)
	}
	return artifact
}

// visibleKeys resolves the default visible set: every non-detail-only
// column, filtered by the viewport's priority budget.
func visibleKeys(columns []schema.Column, vp table.Viewport) []string {
	requested := make([]string, 0, len(columns))
	for _, c := range columns {
		if !c.ExpandedOnly {
			requested = append(requested, c.Key)
		}
	}
	visible := table.VisibleColumns(columns, requested, vp)
	keys := make([]string, len(visible))
	for i, c := range visible {
		keys[i] = c.Key
	}
	return keys
}

func formFields(columns []schema.Column, mode schema.FormMode) []FormFieldDef {
	var defs []FormFieldDef
	for _, f := range schema.FormFields(columns, mode) {
		defs = append(defs, FormFieldDef{
			Key:      f.Key,
			Title:    f.Title,
			Type:     string(f.Type),
			Required: f.Required,
			Optional: f.Optional,
		})
	}
	return defs
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}
