package table

import (
	"context"

	"github.com/matthewbaird/backoffice/internal/client"
	"github.com/matthewbaird/backoffice/internal/eventbus"
)

// Row action handlers. Each issues one DELETE-verb request (restore and
// force flags distinguish soft-restore and hard-delete) and refetches on
// success so the table resynchronizes with the backend.

// HandleDelete soft-deletes one row (hard on non-paranoid tables).
func (s *Store) HandleDelete(ctx context.Context, id string) error {
	return s.rowAction(ctx, id, client.DeleteOptions{})
}

// HandleRestore brings one soft-deleted row back.
func (s *Store) HandleRestore(ctx context.Context, id string) error {
	return s.rowAction(ctx, id, client.DeleteOptions{Restore: true})
}

// HandlePermanentDelete removes one row for good.
func (s *Store) HandlePermanentDelete(ctx context.Context, id string) error {
	return s.rowAction(ctx, id, client.DeleteOptions{Force: true})
}

func (s *Store) rowAction(ctx context.Context, id string, opts client.DeleteOptions) error {
	if !s.perms.Delete {
		return nil
	}
	if err := s.api.Delete(ctx, s.cfg.Endpoint, id, opts); err != nil {
		s.setError(err)
		return err
	}
	s.mu.Lock()
	delete(s.selected, id)
	s.mu.Unlock()
	evtType := eventbus.RowDeleted
	if opts.Restore {
		evtType = eventbus.RowRestored
	}
	s.publish(ctx, eventbus.Event{Type: evtType, RowIDs: []string{id}})
	return s.FetchData(ctx)
}

// HandleBulkDelete soft-deletes every selected row in one batched request.
func (s *Store) HandleBulkDelete(ctx context.Context) error {
	return s.bulkAction(ctx, client.DeleteOptions{})
}

// HandleBulkRestore restores every selected row.
func (s *Store) HandleBulkRestore(ctx context.Context) error {
	return s.bulkAction(ctx, client.DeleteOptions{Restore: true})
}

// HandleBulkPermanentDelete removes every selected row for good.
func (s *Store) HandleBulkPermanentDelete(ctx context.Context) error {
	return s.bulkAction(ctx, client.DeleteOptions{Force: true})
}

// bulkAction issues one batched request for the current selection. The
// contract defines no per-item partial success: the batch succeeds or fails
// as a whole, and the selection only clears on success.
func (s *Store) bulkAction(ctx context.Context, opts client.DeleteOptions) error {
	if !s.perms.Delete {
		return nil
	}
	ids := s.SelectedRows()
	if len(ids) == 0 {
		return nil
	}
	if err := s.api.BulkDelete(ctx, s.cfg.Endpoint, ids, opts); err != nil {
		s.setError(err)
		return err
	}
	s.ClearSelection()
	s.publish(ctx, eventbus.Event{Type: eventbus.BulkAction, RowIDs: ids})
	return s.FetchData(ctx)
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
	s.log.WithError(err).Warn("row action failed")
}
