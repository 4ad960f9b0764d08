// Package store persists the catalog, exchange requests and accounts in
// SQLite, and defines the collaborator contracts the matching engine and the
// exchange controller consume.
package store

import (
	"context"
	"database/sql"

	"github.com/erazemk/menjava/internal/model"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Catalog is read and availability access to listed items. GetItem returns
// (nil, nil) for unknown ids; SetItemStatus fails with model.ErrNotFound.
type Catalog interface {
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	ListItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error)
	SetItemStatus(ctx context.Context, id int64, status model.ItemStatus) error
}

// Requests stores exchange request records keyed by id. GetRequest returns
// (nil, nil) for unknown ids; SaveRequest inserts or replaces.
type Requests interface {
	GetRequest(ctx context.Context, id string) (*model.ExchangeRequest, error)
	SaveRequest(ctx context.Context, req *model.ExchangeRequest) error
	ListRequests(ctx context.Context, filter model.RequestFilter) ([]model.ExchangeRequest, error)
}

// Tx is the view a unit of work runs against.
type Tx interface {
	Catalog
	Requests
}

// Store is a Tx that can also run fn atomically: either every write made
// through the Tx passed to fn is committed, or none is. Readers never observe
// a partially applied unit.
type Store interface {
	Tx
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}
