package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/menjava/internal/model"
)

// SQLite adapts the package functions to the Store contract. Driver errors
// come back wrapped in model.ErrCatalogUnavailable or model.ErrStoreUnavailable.
type SQLite struct {
	view
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// NewSQLite returns a Store backed by db.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{view: view{q: db}, db: db}
}

// Atomic runs fn inside one database transaction. The transaction is
// rolled back if fn fails or ctx is cancelled before commit.
func (s *SQLite) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", model.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	if err := fn(view{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", model.ErrStoreUnavailable, err)
	}
	return nil
}

// view implements Tx over either the pool or a transaction.
type view struct {
	q DBTX
}

func (v view) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := GetItem(ctx, v.q, id)
	if err != nil {
		return nil, model.Unavailable(model.ErrCatalogUnavailable, err)
	}
	return item, nil
}

func (v view) ListItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	items, err := ListItems(ctx, v.q, filter)
	if err != nil {
		return nil, model.Unavailable(model.ErrCatalogUnavailable, err)
	}
	return items, nil
}

func (v view) SetItemStatus(ctx context.Context, id int64, status model.ItemStatus) error {
	ok, err := SetItemStatus(ctx, v.q, id, status)
	if err != nil {
		return model.Unavailable(model.ErrCatalogUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (v view) GetRequest(ctx context.Context, id string) (*model.ExchangeRequest, error) {
	req, err := GetRequest(ctx, v.q, id)
	if err != nil {
		return nil, model.Unavailable(model.ErrStoreUnavailable, err)
	}
	return req, nil
}

func (v view) SaveRequest(ctx context.Context, req *model.ExchangeRequest) error {
	if err := SaveRequest(ctx, v.q, req); err != nil {
		return model.Unavailable(model.ErrStoreUnavailable, err)
	}
	return nil
}

func (v view) ListRequests(ctx context.Context, filter model.RequestFilter) ([]model.ExchangeRequest, error) {
	reqs, err := ListRequests(ctx, v.q, filter)
	if err != nil {
		return nil, model.Unavailable(model.ErrStoreUnavailable, err)
	}
	return reqs, nil
}
