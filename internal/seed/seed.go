// Package seed provides demo data seeding for the records database.
package seed

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/matthewbaird/backoffice/internal/schema"
	"github.com/matthewbaird/backoffice/internal/server"
)

// Records inserts the demo rows for one resource. If the resource already
// holds any rows (idempotent check), seeding is skipped.
func Records(ctx context.Context, store *server.RecordStore, resource string, rows []schema.Row, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}

	_, total, err := store.List(ctx, resource, server.ListQuery{Page: 1, PerPage: 1, ShowDeleted: true})
	if err != nil {
		return fmt.Errorf("checking %s: %w", resource, err)
	}
	if total > 0 {
		log.WithFields(logrus.Fields{"resource": resource, "count": total}).
			Info("already seeded, skipping")
		return nil
	}

	for _, row := range rows {
		if err := store.Insert(ctx, resource, row); err != nil {
			return fmt.Errorf("seeding %s row %s: %w", resource, row.ID(), err)
		}
	}
	log.WithFields(logrus.Fields{"resource": resource, "count": len(rows)}).
		Info("seeded demo rows")
	return nil
}

// DemoPosts is a small deterministic dataset for the built-in posts table.
func DemoPosts() []schema.Row {
	return []schema.Row{
		{
			"id": "7c9a1c2e-0001-4000-8000-000000000001", "title": "Welcome to the backoffice",
			"status": "published", "publishedAt": "2026-01-05",
			"author": map[string]any{"firstName": "Ada", "lastName": "Lovelace"},
		},
		{
			"id": "7c9a1c2e-0001-4000-8000-000000000002", "title": "Quarterly roadmap",
			"status": "draft",
			"author": map[string]any{"firstName": "Grace", "lastName": "Hopper"},
		},
		{
			"id": "7c9a1c2e-0001-4000-8000-000000000003", "title": "Release notes 1.4",
			"status": "published", "publishedAt": "2026-03-18",
			"author": map[string]any{"firstName": "Edsger", "lastName": "Dijkstra"},
		},
		{
			"id": "7c9a1c2e-0001-4000-8000-000000000004", "title": "Archived migration guide",
			"status": "archived", "publishedAt": "2025-06-30",
			"author": map[string]any{"firstName": "Ada", "lastName": "Lovelace"},
		},
	}
}
