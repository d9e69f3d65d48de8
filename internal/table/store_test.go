package table

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/backoffice/internal/client"
	"github.com/matthewbaird/backoffice/internal/eventbus"
	"github.com/matthewbaird/backoffice/internal/schema"
)

// fakeAPI records list calls and serves canned or scripted responses.
type fakeAPI struct {
	mu      sync.Mutex
	queries []client.Query
	deletes []deleteCall
	bulks   []bulkCall

	result client.ListResult
	err    error

	// respond, when set, is consulted per call and may block.
	respond func(call int, q client.Query) (client.ListResult, error)
}

type deleteCall struct {
	id   string
	opts client.DeleteOptions
}

type bulkCall struct {
	ids  []string
	opts client.DeleteOptions
}

func (f *fakeAPI) List(ctx context.Context, endpoint string, q client.Query) (client.ListResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	call := len(f.queries)
	respond := f.respond
	result, err := f.result, f.err
	f.mu.Unlock()
	if respond != nil {
		return respond(call, q)
	}
	return result, err
}

func (f *fakeAPI) Delete(ctx context.Context, endpoint, id string, opts client.DeleteOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, deleteCall{id: id, opts: opts})
	return nil
}

func (f *fakeAPI) BulkDelete(ctx context.Context, endpoint string, ids []string, opts client.DeleteOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulks = append(f.bulks, bulkCall{ids: ids, opts: opts})
	return nil
}

func (f *fakeAPI) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeAPI) lastQuery() client.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func testTable() schema.Table {
	return schema.Table{
		Name:     "posts",
		Endpoint: "/api/admin/posts",
		Columns: []schema.Column{
			{Key: "title", Title: "Title", Type: schema.TypeText, Sortable: true, Filterable: true},
			{Key: "status", Title: "Status", Type: schema.TypeSelect, Filterable: true},
			{
				Key: "author", Title: "Author", Type: schema.TypeCompound, Sortable: true,
				SortKey: []string{"firstName", "lastName"},
			},
		},
		Permissions: schema.PermissionActions{
			Access: "posts.access", View: "posts.view", Delete: "posts.delete",
		},
		CanDelete:  true,
		IsParanoid: true,
	}
}

func superAdmin() User { return User{ID: "u1", Role: Role{Name: "Super Admin"}} }

func newTestStore(api API) *Store {
	return NewStore(testTable(), api, superAdmin(), nil)
}

func TestFetchDataSerializesState(t *testing.T) {
	api := &fakeAPI{result: client.ListResult{
		Items:      []schema.Row{{"id": "1", "title": "hello"}},
		Pagination: client.Pagination{TotalItems: 1, TotalPages: 1},
	}}
	s := newTestStore(api)
	ctx := context.Background()

	require.NoError(t, s.FetchData(ctx))
	q := api.lastQuery()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.PerPage)
	assert.Empty(t, q.SortField)
	assert.Empty(t, q.Filter)
	assert.False(t, q.ShowDeleted)

	assert.Equal(t, 1, s.TotalItems())
	require.Len(t, s.Data(), 1)
	assert.False(t, s.Loading())
	assert.Empty(t, s.Error())
}

func TestFetchDataErrorClearsData(t *testing.T) {
	api := &fakeAPI{result: client.ListResult{Items: []schema.Row{{"id": "1"}}}}
	s := newTestStore(api)
	ctx := context.Background()

	require.NoError(t, s.FetchData(ctx))
	require.Len(t, s.Data(), 1)

	api.mu.Lock()
	api.err = errors.New("boom")
	api.mu.Unlock()

	assert.Error(t, s.FetchData(ctx))
	assert.Empty(t, s.Data())
	assert.Equal(t, "boom", s.Error())
	assert.False(t, s.Loading())
}

func TestFetchDataIdempotentGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{}
	api.respond = func(call int, q client.Query) (client.ListResult, error) {
		close(started)
		<-release
		return client.ListResult{Items: []schema.Row{}}, nil
	}
	s := newTestStore(api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.FetchData(ctx) }()
	<-started

	// Second call while the first is unresolved is dropped.
	require.NoError(t, s.FetchData(ctx))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, api.listCalls())
}

func TestStaleResponseDiscarded(t *testing.T) {
	slowRelease := make(chan struct{})
	slowStarted := make(chan struct{})
	api := &fakeAPI{}
	api.respond = func(call int, q client.Query) (client.ListResult, error) {
		if call == 1 {
			close(slowStarted)
			<-slowRelease
			return client.ListResult{Items: []schema.Row{{"id": "stale"}}}, nil
		}
		return client.ListResult{Items: []schema.Row{{"id": "fresh"}}}, nil
	}
	s := newTestStore(api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.FetchData(ctx) }()
	<-slowStarted

	// A filter change supersedes the in-flight fetch and issues a new one.
	require.NoError(t, s.SetFilter(ctx, "title", FilterValue{Value: "go", Operator: OpSubstring}))
	require.Len(t, s.Data(), 1)
	assert.Equal(t, "fresh", s.Data()[0].ID())

	// The slow response lands afterwards and must not overwrite fresh state.
	close(slowRelease)
	require.NoError(t, <-done)
	require.Len(t, s.Data(), 1)
	assert.Equal(t, "fresh", s.Data()[0].ID())
}

func TestHandleSort(t *testing.T) {
	api := &fakeAPI{result: client.ListResult{Items: []schema.Row{}}}
	s := newTestStore(api)
	ctx := context.Background()
	titleCol := testTable().Columns[0]
	authorCol := testTable().Columns[2]

	t.Run("first click sorts ascending", func(t *testing.T) {
		require.NoError(t, s.HandleSort(ctx, titleCol))
		assert.Equal(t, []SortEntry{{ID: "title"}}, s.Sorting())
		q := api.lastQuery()
		assert.Equal(t, "title", q.SortField)
		assert.Equal(t, "asc", q.SortOrder)
	})

	t.Run("second click toggles to descending", func(t *testing.T) {
		require.NoError(t, s.HandleSort(ctx, titleCol))
		assert.Equal(t, []SortEntry{{ID: "title", Desc: true}}, s.Sorting())
		assert.Equal(t, "desc", api.lastQuery().SortOrder)
	})

	t.Run("multi-key column sorts as one unit", func(t *testing.T) {
		require.NoError(t, s.HandleSort(ctx, authorCol))
		q := api.lastQuery()
		assert.Equal(t, "author.firstName,author.lastName", q.SortField)
		assert.Equal(t, "asc,asc", q.SortOrder)

		require.NoError(t, s.HandleSort(ctx, authorCol))
		assert.Equal(t, "desc,desc", api.lastQuery().SortOrder)
	})

	t.Run("non-sortable column no-ops", func(t *testing.T) {
		before := api.listCalls()
		require.NoError(t, s.HandleSort(ctx, testTable().Columns[1]))
		assert.Equal(t, before, api.listCalls())
	})
}

func TestFilterSerialization(t *testing.T) {
	api := &fakeAPI{result: client.ListResult{Items: []schema.Row{}}}
	s := newTestStore(api)
	ctx := context.Background()

	require.NoError(t, s.SetFilter(ctx, "status", FilterValue{Value: "published", Operator: OpEqual}))
	q := api.lastQuery()
	require.NotEmpty(t, q.Filter)

	var decoded map[string]FilterValue
	require.NoError(t, json.Unmarshal([]byte(q.Filter), &decoded))
	assert.Equal(t, "published", decoded["status"].Value)
	assert.Equal(t, OpEqual, decoded["status"].Operator)

	t.Run("clearing the filter empties the parameter", func(t *testing.T) {
		require.NoError(t, s.SetFilter(ctx, "status", FilterValue{Value: ""}))
		assert.Empty(t, api.lastQuery().Filter)
	})
}

func TestDebouncedFilter(t *testing.T) {
	api := &fakeAPI{result: client.ListResult{Items: []schema.Row{}}}
	s := newTestStore(api)
	ctx := context.Background()

	s.SetFilterDebounced(ctx, "title", FilterValue{Value: "g"})
	s.SetFilterDebounced(ctx, "title", FilterValue{Value: "go"})
	assert.Equal(t, 0, api.listCalls())

	s.FlushFilters()
	assert.Equal(t, 1, api.listCalls())
	assert.Equal(t, FilterValue{Value: "go"}, s.Filters()["title"])
}

func TestPermissionsSuppressInitialFetch(t *testing.T) {
	api := &fakeAPI{result: client.ListResult{Items: []schema.Row{}}}
	nobody := User{ID: "u2", Role: Role{Name: "Guest"}}
	s := NewStore(testTable(), api, nobody, nil)

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, 0, api.listCalls())
	assert.False(t, s.Permissions().Access)
}

func TestRowActions(t *testing.T) {
	api := &fakeAPI{result: client.ListResult{Items: []schema.Row{}}}
	s := newTestStore(api)
	ctx := context.Background()

	require.NoError(t, s.HandleDelete(ctx, "7"))
	require.NoError(t, s.HandleRestore(ctx, "7"))
	require.NoError(t, s.HandlePermanentDelete(ctx, "7"))

	require.Len(t, api.deletes, 3)
	assert.Equal(t, client.DeleteOptions{}, api.deletes[0].opts)
	assert.Equal(t, client.DeleteOptions{Restore: true}, api.deletes[1].opts)
	assert.Equal(t, client.DeleteOptions{Force: true}, api.deletes[2].opts)

	// Every handler refetches on success.
	assert.Equal(t, 3, api.listCalls())
}

func TestBulkActions(t *testing.T) {
	api := &fakeAPI{result: client.ListResult{
		Items: []schema.Row{{"id": "1"}, {"id": "2"}},
	}}
	s := newTestStore(api)
	ctx := context.Background()

	require.NoError(t, s.FetchData(ctx))
	s.SelectAll()
	require.Equal(t, []string{"1", "2"}, s.SelectedRows())

	require.NoError(t, s.HandleBulkDelete(ctx))
	require.Len(t, api.bulks, 1)
	assert.Equal(t, []string{"1", "2"}, api.bulks[0].ids)
	assert.Empty(t, s.SelectedRows())

	t.Run("empty selection skips the request", func(t *testing.T) {
		before := len(api.bulks)
		require.NoError(t, s.HandleBulkRestore(ctx))
		assert.Equal(t, before, len(api.bulks))
	})
}

func TestShowDeleted(t *testing.T) {
	api := &fakeAPI{result: client.ListResult{Items: []schema.Row{}}}
	s := newTestStore(api)
	ctx := context.Background()

	require.NoError(t, s.SetShowDeleted(ctx, true))
	assert.True(t, api.lastQuery().ShowDeleted)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []eventbus.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]eventbus.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func TestStorePublishesEvents(t *testing.T) {
	api := &fakeAPI{result: client.ListResult{
		Items:      []schema.Row{{"id": "1"}},
		Pagination: client.Pagination{TotalItems: 1, TotalPages: 1},
	}}
	s := newTestStore(api)
	pub := &recordingPublisher{}
	s.SetEvents(pub)
	ctx := context.Background()

	require.NoError(t, s.FetchData(ctx))
	require.NoError(t, s.HandleDelete(ctx, "1"))

	assert.Equal(t, []eventbus.EventType{
		eventbus.DataLoaded,
		eventbus.RowDeleted,
		eventbus.DataLoaded,
	}, pub.types())
	assert.Equal(t, "posts", pub.events[0].Table)
	assert.Equal(t, []string{"1"}, pub.events[1].RowIDs)
}

func TestDebouncerFlushAndStop(t *testing.T) {
	d := NewDebouncer(time.Hour)
	ran := 0
	d.Do(func() { ran++ })
	d.Do(func() { ran++ })
	d.Flush()
	assert.Equal(t, 1, ran)

	d.Do(func() { ran++ })
	d.Stop()
	d.Flush()
	assert.Equal(t, 1, ran)
}
