// Package analytics resolves a nested KPI/chart dashboard configuration
// into analytics requests and caches responses per timeframe.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matthewbaird/backoffice/internal/client"
)

// Item is one KPI or chart configuration. An Item with Metric set is a KPI;
// one with Metrics set is a chart. The two are split into separate request
// lists by Flatten.
type Item struct {
	ID      string         `json:"id"`
	Title   string         `json:"title,omitempty"`
	Type    string         `json:"type,omitempty"`
	Metric  string         `json:"metric,omitempty"`
	Metrics []string       `json:"metrics,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// Group is one dashboard row: either a single full-width item or a
// side-by-side row of items.
type Group struct {
	Item *Item
	Row  []Item
}

// Flatten walks the nested group list and splits it into the flat KPI and
// chart lists the analytics endpoint expects.
func Flatten(groups []Group) (kpis, charts []Item) {
	add := func(it Item) {
		if it.Metric != "" {
			kpis = append(kpis, it)
			return
		}
		if len(it.Metrics) > 0 {
			charts = append(charts, it)
		}
	}
	for _, g := range groups {
		if g.Item != nil {
			add(*g.Item)
		}
		for _, it := range g.Row {
			add(it)
		}
	}
	return kpis, charts
}

// cacheTTL is how long one timeframe's response is served from memory.
const cacheTTL = 5 * time.Minute

// Config identifies the analytics source a dashboard reads.
type Config struct {
	Endpoint    string // e.g. /api/admin/analysis
	Model       string
	ModelConfig map[string]any
	DB          string
	Keyspace    string
	Groups      []Group
}

// Fetcher is the analytics transport; *client.Client satisfies it.
type Fetcher interface {
	Analytics(ctx context.Context, path string, body any) (client.AnalyticsResult, error)
}

// request is the wire body of one analytics call.
type request struct {
	Model       string         `json:"model"`
	ModelConfig map[string]any `json:"modelConfig,omitempty"`
	Timeframe   string         `json:"timeframe"`
	Charts      []Item         `json:"charts"`
	KPIs        []Item         `json:"kpis"`
	DB          string         `json:"db,omitempty"`
	Keyspace    string         `json:"keyspace,omitempty"`
}

type cacheEntry struct {
	result  client.AnalyticsResult
	expires time.Time
}

// Resolver fetches dashboard data per timeframe with an in-memory cache.
// A repeat request inside the cache window is served without a network call;
// any fetch error drops the whole cache so no stale partial state survives.
type Resolver struct {
	cfg Config
	api Fetcher
	log logrus.FieldLogger

	// now is injected in tests to step through the cache window.
	now func() time.Time

	mu        sync.Mutex
	cache     map[string]cacheEntry
	lastError string
}

// NewResolver builds a resolver for one dashboard configuration.
func NewResolver(cfg Config, api Fetcher, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{
		cfg:   cfg,
		api:   api,
		log:   log.WithField("model", cfg.Model),
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
}

// Fetch returns the dashboard data for a timeframe, from cache when fresh.
func (r *Resolver) Fetch(ctx context.Context, timeframe string) (client.AnalyticsResult, error) {
	r.mu.Lock()
	if entry, ok := r.cache[timeframe]; ok && r.now().Before(entry.expires) {
		r.mu.Unlock()
		return entry.result, nil
	}
	r.mu.Unlock()

	kpis, charts := Flatten(r.cfg.Groups)
	body := request{
		Model:       r.cfg.Model,
		ModelConfig: r.cfg.ModelConfig,
		Timeframe:   timeframe,
		Charts:      charts,
		KPIs:        kpis,
		DB:          r.cfg.DB,
		Keyspace:    r.cfg.Keyspace,
	}

	result, err := r.api.Analytics(ctx, r.cfg.Endpoint, body)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		// Drop everything; a retry rebuilds from scratch.
		r.cache = make(map[string]cacheEntry)
		r.lastError = err.Error()
		r.log.WithError(err).Warn("analytics fetch failed")
		return client.AnalyticsResult{}, err
	}
	r.lastError = ""
	r.cache[timeframe] = cacheEntry{result: result, expires: r.now().Add(cacheTTL)}
	return result, nil
}

// Error returns the last fetch error message, or "".
func (r *Resolver) Error() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}
