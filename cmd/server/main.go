// cmd/server runs the reference backend over a sqlite records store.
//
// Table definitions come from a CUE package (see cmd/tablegen for the
// authoring format); without one the server falls back to a built-in demo
// table so it is runnable out of the box.
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/backoffice/internal/config"
	"github.com/matthewbaird/backoffice/internal/cueload"
	"github.com/matthewbaird/backoffice/internal/schema"
	"github.com/matthewbaird/backoffice/internal/seed"
	"github.com/matthewbaird/backoffice/internal/server"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	tablesDir := flag.String("tables", "./tables", "directory containing CUE table definitions")
	seedDemo := flag.Bool("seed", false, "seed demo rows on startup")
	flag.Parse()

	log := logrus.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tables := loadTables(log, *tablesDir)

	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("opening database")
	}
	db.SetMaxOpenConns(1)
	defer db.Close()

	store := server.NewRecordStore(db)
	if err := store.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("running migration")
	}

	if *seedDemo {
		if err := seed.Records(ctx, store, "posts", seed.DemoPosts(), log); err != nil {
			log.WithError(err).Fatal("seeding demo rows")
		}
	}

	srv := server.New(store, tables, log)
	if err := srv.Run(ctx, cfg.Addr); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func loadTables(log *logrus.Logger, dir string) []schema.Table {
	if _, err := os.Stat(dir); err != nil {
		log.WithField("dir", dir).Warn("no table definitions found, using demo table")
		return demoTables()
	}
	tables, err := cueload.Load(dir)
	if err != nil {
		log.WithError(err).Fatal("loading table definitions")
	}
	return tables
}

// demoTables is the built-in fallback resource.
func demoTables() []schema.Table {
	return []schema.Table{{
		Name:       "posts",
		Endpoint:   "/api/admin/posts",
		IsParanoid: true,
		CanCreate:  true,
		CanEdit:    true,
		CanDelete:  true,
		Columns: []schema.Column{
			{
				Key: "title", Title: "Title", Type: schema.TypeText,
				Required: true, UsedInCreate: true, Editable: true,
				Sortable: true, Filterable: true,
			},
			{
				Key: "status", Title: "Status", Type: schema.TypeSelect,
				Optional: true, UsedInCreate: true, Editable: true, Filterable: true,
				Options: []schema.Option{
					{Value: "draft", Label: "Draft"},
					{Value: "published", Label: "Published"},
				},
			},
			{
				Key: "publishedAt", Title: "Published", Type: schema.TypeDate,
				Optional: true, UsedInCreate: true, Editable: true, Sortable: true,
			},
		},
	}}
}
