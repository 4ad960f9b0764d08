// Package memory is an in-memory store.Store for tests and local runs.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/erazemk/menjava/internal/model"
	"github.com/erazemk/menjava/internal/store"
)

// Store keeps items and exchange requests in maps. Atomic holds the write
// lock for the whole unit and applies staged writes only when fn succeeds.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	items    map[int64]model.Item
	requests map[string]model.ExchangeRequest
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:   1,
		items:    make(map[int64]model.Item),
		requests: make(map[string]model.ExchangeRequest),
	}
}

// AddItem lists item, assigning an ID when it has none. Status defaults to
// Available.
func (s *Store) AddItem(item model.Item) model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == 0 {
		item.ID = s.nextID
	}
	if item.ID >= s.nextID {
		s.nextID = item.ID + 1
	}
	if item.Status == "" {
		item.Status = model.ItemAvailable
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
		item.UpdatedAt = item.CreatedAt
	}
	item = cloneItem(item)
	s.items[item.ID] = item
	return cloneItem(item)
}

func (s *Store) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&txn{s: s}).GetItem(ctx, id)
}

func (s *Store) ListItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&txn{s: s}).ListItems(ctx, filter)
}

func (s *Store) SetItemStatus(ctx context.Context, id int64, status model.ItemStatus) error {
	return s.Atomic(ctx, func(tx store.Tx) error {
		return tx.SetItemStatus(ctx, id, status)
	})
}

func (s *Store) GetRequest(ctx context.Context, id string) (*model.ExchangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&txn{s: s}).GetRequest(ctx, id)
}

func (s *Store) SaveRequest(ctx context.Context, req *model.ExchangeRequest) error {
	return s.Atomic(ctx, func(tx store.Tx) error {
		return tx.SaveRequest(ctx, req)
	})
}

func (s *Store) ListRequests(ctx context.Context, filter model.RequestFilter) ([]model.ExchangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&txn{s: s}).ListRequests(ctx, filter)
}

// Atomic runs fn against a staging view. Nothing fn writes is visible to
// other callers until it returns nil.
func (s *Store) Atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &txn{
		s:        s,
		items:    make(map[int64]model.Item),
		requests: make(map[string]model.ExchangeRequest),
	}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}

	for id, item := range t.items {
		s.items[id] = item
	}
	for id, req := range t.requests {
		s.requests[id] = req
	}
	return nil
}

// txn reads through its staged writes to the committed maps. The caller
// holds s.mu.
type txn struct {
	s        *Store
	items    map[int64]model.Item
	requests map[string]model.ExchangeRequest
}

func (t *txn) item(id int64) (model.Item, bool) {
	if item, ok := t.items[id]; ok {
		return item, true
	}
	item, ok := t.s.items[id]
	return item, ok
}

func (t *txn) request(id string) (model.ExchangeRequest, bool) {
	if req, ok := t.requests[id]; ok {
		return req, true
	}
	req, ok := t.s.requests[id]
	return req, ok
}

func (t *txn) GetItem(_ context.Context, id int64) (*model.Item, error) {
	item, ok := t.item(id)
	if !ok {
		return nil, nil
	}
	item = cloneItem(item)
	return &item, nil
}

func (t *txn) ListItems(_ context.Context, filter model.ItemFilter) ([]model.Item, error) {
	ids := make([]int64, 0, len(t.s.items)+len(t.items))
	for id := range t.s.items {
		ids = append(ids, id)
	}
	for id := range t.items {
		if _, ok := t.s.items[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		item, _ := t.item(id)
		if filter.Match(item) {
			out = append(out, cloneItem(item))
		}
	}
	return out, nil
}

func (t *txn) SetItemStatus(_ context.Context, id int64, status model.ItemStatus) error {
	item, ok := t.item(id)
	if !ok {
		return fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	item.Status = status
	item.UpdatedAt = time.Now().UTC()
	t.items[id] = item
	return nil
}

func (t *txn) GetRequest(_ context.Context, id string) (*model.ExchangeRequest, error) {
	req, ok := t.request(id)
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (t *txn) SaveRequest(_ context.Context, req *model.ExchangeRequest) error {
	if req == nil || req.ID == "" {
		return fmt.Errorf("%w: exchange request without id", model.ErrInvalidRequest)
	}
	t.requests[req.ID] = *req
	return nil
}

func (t *txn) ListRequests(_ context.Context, filter model.RequestFilter) ([]model.ExchangeRequest, error) {
	seen := make(map[string]bool, len(t.requests))
	var all []model.ExchangeRequest
	for id, req := range t.requests {
		seen[id] = true
		all = append(all, req)
	}
	for id, req := range t.s.requests {
		if !seen[id] {
			all = append(all, req)
		}
	}

	out := make([]model.ExchangeRequest, 0, len(all))
	for _, req := range all {
		if filter.RequesterID != 0 && req.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.RequestedOwnerID != 0 {
			item, ok := t.item(req.RequestedItemID)
			if !ok || item.OwnerID != filter.RequestedOwnerID {
				continue
			}
		}
		out = append(out, req)
	}

	slices.SortFunc(out, func(a, b model.ExchangeRequest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func cloneItem(item model.Item) model.Item {
	item.Tags = slices.Clone(item.Tags)
	if item.DeletedAt != nil {
		t := *item.DeletedAt
		item.DeletedAt = &t
	}
	return item
}
