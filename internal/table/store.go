package table

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/matthewbaird/backoffice/internal/client"
	"github.com/matthewbaird/backoffice/internal/eventbus"
	"github.com/matthewbaird/backoffice/internal/schema"
)

// API is the backend surface the store drives. *client.Client satisfies it;
// tests substitute fakes.
type API interface {
	List(ctx context.Context, endpoint string, q client.Query) (client.ListResult, error)
	Delete(ctx context.Context, endpoint, id string, opts client.DeleteOptions) error
	BulkDelete(ctx context.Context, endpoint string, ids []string, opts client.DeleteOptions) error
}

// SortEntry is one active sort key with its direction. Multi-key sorts share
// one direction; the entries stay parallel when serialized.
type SortEntry struct {
	ID   string
	Desc bool
}

// DefaultPageSize is used until a page size is set.
const DefaultPageSize = 10

// filterDebounce coalesces typing into one request; discrete filter changes
// (select, date, switch) bypass it.
const filterDebounce = 400 * time.Millisecond

// Store is the single source of truth for one mounted table: pagination,
// sorting, filters, selection, column visibility, permissions, and the
// fetched page of rows. It is created per table mount and reset on unmount.
//
// All state transitions happen under one mutex; network round-trips run
// outside it. Overlapping fetches are dropped by the loading guard, and a
// monotonic sequence number discards responses that arrive after a newer
// fetch has started, so a slow early request can never overwrite a fresher
// page.
type Store struct {
	cfg  schema.Table
	api  API
	user User
	log  logrus.FieldLogger

	perms Permissions

	mu          sync.Mutex
	page        int
	pageSize    int
	totalItems  int
	totalPages  int
	sorting     []SortEntry
	filters     Filters
	selected    map[string]bool
	showDeleted bool
	visible     []string
	data        []schema.Row
	loading     bool
	lastError   string

	fetchSeq  uint64
	debouncer *Debouncer

	// events, when set, receives a notification after every completed
	// fetch and row action.
	events eventbus.Publisher
}

// NewStore builds a store for the table configuration, computing permissions
// once and defaulting the visible column set to every non-detail-only
// column.
func NewStore(cfg schema.Table, api API, user User, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Store{
		cfg:  cfg,
		api:  api,
		user: user,
		log:  log.WithField("table", cfg.Name),
		perms: resolvePermissions(user, tableCapabilities{
			accessAction: cfg.Permissions.Access,
			viewAction:   cfg.Permissions.View,
			createAction: cfg.Permissions.Create,
			editAction:   cfg.Permissions.Edit,
			deleteAction: cfg.Permissions.Delete,
			canCreate:    cfg.CanCreate,
			canEdit:      cfg.CanEdit,
			canDelete:    cfg.CanDelete,
			canView:      cfg.CanView,
		}),
		page:      1,
		pageSize:  DefaultPageSize,
		filters:   Filters{},
		selected:  make(map[string]bool),
		debouncer: NewDebouncer(filterDebounce),
	}
	for _, c := range cfg.Columns {
		if !c.ExpandedOnly {
			s.visible = append(s.visible, c.Key)
		}
	}
	return s
}

// SetEvents attaches a state-change publisher. Call before Init.
func (s *Store) SetEvents(pub eventbus.Publisher) {
	s.events = pub
}

func (s *Store) publish(ctx context.Context, evt eventbus.Event) {
	if s.events == nil {
		return
	}
	evt.Table = s.cfg.Name
	s.events.Publish(ctx, evt)
}

// Permissions returns the capability flags computed at construction.
func (s *Store) Permissions() Permissions { return s.perms }

// Init performs the automatic initial fetch. Missing access or view
// permission suppresses it.
func (s *Store) Init(ctx context.Context) error {
	if !s.perms.Access || !s.perms.View {
		s.log.Debug("initial fetch suppressed by permissions")
		return nil
	}
	return s.FetchData(ctx)
}

// Close cancels pending debounced work. Call on table unmount.
func (s *Store) Close() {
	s.debouncer.Stop()
}

// FetchData serializes the current state into one list request and stores
// the response. Re-entrant calls while a fetch is in flight are dropped. On
// any error the data clears to empty and the message is kept for the error
// banner; the loading flag clears regardless of outcome.
func (s *Store) FetchData(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.fetchSeq++
	seq := s.fetchSeq
	q, err := s.buildQueryLocked()
	if err != nil {
		s.loading = false
		s.lastError = err.Error()
		s.mu.Unlock()
		return err
	}
	endpoint := s.cfg.Endpoint
	s.mu.Unlock()

	result, err := s.api.List(ctx, endpoint, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.fetchSeq {
		// A newer fetch superseded this one; its response owns the state.
		return nil
	}
	s.loading = false
	if err != nil {
		s.data = nil
		s.lastError = err.Error()
		s.log.WithError(err).Warn("list fetch failed")
		s.publish(ctx, eventbus.Event{Type: eventbus.FetchFailed, Error: err.Error()})
		return err
	}
	s.lastError = ""
	s.data = result.Items
	s.totalItems = result.Pagination.TotalItems
	s.totalPages = result.Pagination.TotalPages
	s.publish(ctx, eventbus.Event{Type: eventbus.DataLoaded, TotalItems: s.totalItems})
	return nil
}

// supersedeLocked invalidates an in-flight fetch so a state mutation can
// start a fresh one. The superseded response is discarded on arrival by the
// sequence check; without this, a slow early request could land after a
// faster later one and overwrite the fresher page.
func (s *Store) supersedeLocked() {
	if s.loading {
		s.fetchSeq++
		s.loading = false
	}
}

// buildQueryLocked snapshots the current state as request parameters.
func (s *Store) buildQueryLocked() (client.Query, error) {
	filter, err := s.filters.Serialize()
	if err != nil {
		return client.Query{}, err
	}
	q := client.Query{
		Page:        s.page,
		PerPage:     s.pageSize,
		Filter:      filter,
		ShowDeleted: s.showDeleted,
	}
	if len(s.sorting) > 0 {
		ids := make([]string, len(s.sorting))
		orders := make([]string, len(s.sorting))
		for i, e := range s.sorting {
			ids[i] = e.ID
			orders[i] = "asc"
			if e.Desc {
				orders[i] = "desc"
			}
		}
		q.SortField = strings.Join(ids, ",")
		q.SortOrder = strings.Join(orders, ",")
	}
	return q, nil
}

// HandleSort reacts to a header click: same column toggles direction, a new
// column resets to ascending on its resolved key(s). Non-sortable columns
// no-op. Matching is composite-key string equality, so a multi-key column
// toggles as one unit.
func (s *Store) HandleSort(ctx context.Context, col schema.Column) error {
	if !col.Sortable {
		return nil
	}
	resolved := col.ResolvedSortKey()
	if resolved == "" {
		return nil
	}

	s.mu.Lock()
	current := make([]string, len(s.sorting))
	for i, e := range s.sorting {
		current[i] = e.ID
	}
	keys := strings.Split(resolved, ",")
	if strings.Join(current, ",") == resolved {
		for i := range s.sorting {
			s.sorting[i].Desc = !s.sorting[i].Desc
		}
	} else {
		s.sorting = make([]SortEntry, len(keys))
		for i, k := range keys {
			s.sorting[i] = SortEntry{ID: k}
		}
	}
	s.page = 1
	s.supersedeLocked()
	s.mu.Unlock()

	return s.FetchData(ctx)
}

// Sorting returns a copy of the active sort entries.
func (s *Store) Sorting() []SortEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SortEntry, len(s.sorting))
	copy(out, s.sorting)
	return out
}

// SetFilter applies a filter change immediately: discrete inputs (select,
// date, switch) funnel through here.
func (s *Store) SetFilter(ctx context.Context, key string, value FilterValue) error {
	s.mu.Lock()
	s.filters = UpdateFilters(s.filters, key, value)
	s.page = 1
	s.supersedeLocked()
	s.mu.Unlock()
	s.publish(ctx, eventbus.Event{Type: eventbus.FilterChange})
	return s.FetchData(ctx)
}

// SetFilterDebounced coalesces typing into one request after a quiet
// interval. Tests flush deterministically via FlushFilters.
func (s *Store) SetFilterDebounced(ctx context.Context, key string, value FilterValue) {
	s.debouncer.Do(func() {
		if err := s.SetFilter(ctx, key, value); err != nil {
			s.log.WithError(err).Warn("debounced filter fetch failed")
		}
	})
}

// FlushFilters runs any pending debounced filter update immediately.
func (s *Store) FlushFilters() {
	s.debouncer.Flush()
}

// Filters returns a copy of the active filter map.
func (s *Store) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Filters, len(s.filters))
	for k, v := range s.filters {
		out[k] = v
	}
	return out
}

// SetPage moves to a page and refetches.
func (s *Store) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.page = page
	s.supersedeLocked()
	s.mu.Unlock()
	return s.FetchData(ctx)
}

// SetPageSize changes the page size, resets to the first page, and
// refetches.
func (s *Store) SetPageSize(ctx context.Context, size int) error {
	if size < 1 {
		size = DefaultPageSize
	}
	s.mu.Lock()
	s.pageSize = size
	s.page = 1
	s.supersedeLocked()
	s.mu.Unlock()
	return s.FetchData(ctx)
}

// SetShowDeleted toggles soft-deleted row visibility and refetches.
func (s *Store) SetShowDeleted(ctx context.Context, show bool) error {
	s.mu.Lock()
	s.showDeleted = show
	s.page = 1
	s.supersedeLocked()
	s.mu.Unlock()
	return s.FetchData(ctx)
}

// Page returns the current page number.
func (s *Store) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// TotalItems returns the backend-reported total row count.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalItems
}

// TotalPages returns the backend-reported page count.
func (s *Store) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPages
}

// Data returns the current page of rows.
func (s *Store) Data() []schema.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.Row, len(s.data))
	copy(out, s.data)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Error returns the last fetch error message, or "".
func (s *Store) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// ToggleRow flips a row's selection.
func (s *Store) ToggleRow(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected[id] {
		delete(s.selected, id)
		return
	}
	s.selected[id] = true
}

// SelectAll marks every row on the current page selected.
func (s *Store) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.data {
		if id := row.ID(); id != "" {
			s.selected[id] = true
		}
	}
}

// ClearSelection drops all selections.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]bool)
}

// SelectedRows returns the selected row ids in page order, then any
// selections no longer on the page.
func (s *Store) SelectedRows() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	seen := make(map[string]bool, len(s.selected))
	for _, row := range s.data {
		id := row.ID()
		if s.selected[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	for id := range s.selected {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}

// SetVisibleColumns replaces the requested-visible key set.
func (s *Store) SetVisibleColumns(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = append([]string(nil), keys...)
}

// VisibleColumns resolves the actually rendered columns for a viewport.
func (s *Store) VisibleColumns(vp Viewport) []schema.Column {
	s.mu.Lock()
	requested := append([]string(nil), s.visible...)
	s.mu.Unlock()
	return VisibleColumns(s.cfg.Columns, requested, vp)
}

// HiddenColumns resolves the columns relegated to the row-detail expansion
// for a viewport.
func (s *Store) HiddenColumns(vp Viewport) []schema.Column {
	return HiddenColumns(s.cfg.Columns, s.VisibleColumns(vp))
}

// CanViewRow reports whether the per-row detail action is offered. The view
// permission alone gates fetching; the detail action also needs the table's
// canView capability.
func (s *Store) CanViewRow() bool {
	return s.perms.ViewRow
}

// CanEditRow combines the edit capability with the table's per-row edit
// condition.
func (s *Store) CanEditRow(row schema.Row) bool {
	if !s.perms.Edit {
		return false
	}
	if s.cfg.EditCondition != nil {
		return s.cfg.EditCondition(row)
	}
	return true
}
