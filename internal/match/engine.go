package match

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/erazemk/menjava/internal/metrics"
	"github.com/erazemk/menjava/internal/model"
)

// DefaultLimit is the number of suggestions returned when the caller does
// not ask for a specific amount.
const DefaultLimit = 5

// Catalog is the read side of the item catalog the engine draws from.
// GetItem returns (nil, nil) for unknown ids.
type Catalog interface {
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	ListItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error)
}

// Engine suggests exchange partners for catalog items.
type Engine struct {
	catalog Catalog
}

// NewEngine creates an engine reading from catalog.
func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Suggest returns up to limit candidates for the item targetID, best first.
// Equal scores keep the catalog's listing order. An unknown target yields no
// suggestions and no error. Catalog failures are returned as
// model.ErrCatalogUnavailable and never come with partial results.
func (e *Engine) Suggest(ctx context.Context, targetID int64, limit int) (results []Result, err error) {
	start := time.Now()
	defer func() { metrics.ObserveSuggest(time.Since(start), len(results), err) }()

	if limit <= 0 {
		return []Result{}, nil
	}

	target, err := e.catalog.GetItem(ctx, targetID)
	if err != nil {
		return nil, model.Unavailable(model.ErrCatalogUnavailable, err)
	}
	if target == nil || target.DeletedAt != nil {
		return []Result{}, nil
	}

	candidates, err := e.catalog.ListItems(ctx, model.ItemFilter{
		Status:         model.ItemAvailable,
		ExcludeOwnerID: target.OwnerID,
	})
	if err != nil {
		return nil, model.Unavailable(model.ErrCatalogUnavailable, err)
	}

	results = make([]Result, 0, len(candidates))
	for _, c := range candidates {
		if !eligible(*target, c) {
			continue
		}
		results = append(results, Score(*target, c))
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return b.Score - a.Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	slog.Debug("suggestions computed", "item", targetID, "candidates", len(candidates), "returned", len(results))
	return results, nil
}

// eligible re-checks the candidate predicate regardless of what the catalog
// filtered.
func eligible(target, c model.Item) bool {
	return c.ID != target.ID &&
		c.OwnerID != target.OwnerID &&
		c.Status == model.ItemAvailable &&
		c.DeletedAt == nil
}
