// Package exchange drives exchange requests through their lifecycle:
// Pending, then Accepted or Rejected, and finally Completed.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/menjava/internal/metrics"
	"github.com/erazemk/menjava/internal/model"
	"github.com/erazemk/menjava/internal/store"
)

// Controller creates exchange requests and applies events to them.
// Transitions on the same request are serialized; different requests
// proceed independently.
type Controller struct {
	store store.Store
	locks *keyLock
	now   func() time.Time
	newID func() string
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now as the source of request timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDs replaces the random UUID generator for request ids.
func WithIDs(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// New creates a controller over s.
func New(s store.Store, opts ...Option) *Controller {
	c := &Controller{
		store: s,
		locks: newKeyLock(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create records a Pending request from requesterID offering offeredItemID
// for requestedItemID. The two items must have different owners and the
// requester must not own the requested one. Ownership of the offered item is
// checked by the caller.
func (c *Controller) Create(ctx context.Context, requesterID, requestedItemID, offeredItemID int64, message string) (_ *model.ExchangeRequest, err error) {
	defer func() { metrics.ObserveCreate(err) }()

	if requestedItemID == offeredItemID {
		return nil, fmt.Errorf("%w: requested and offered item are the same", model.ErrInvalidRequest)
	}

	var req *model.ExchangeRequest
	err = c.store.Atomic(ctx, func(tx store.Tx) error {
		requested, err := liveItem(ctx, tx, requestedItemID)
		if err != nil {
			return err
		}
		offered, err := liveItem(ctx, tx, offeredItemID)
		if err != nil {
			return err
		}
		if requested.OwnerID == requesterID {
			return fmt.Errorf("%w: item %d already belongs to the requester", model.ErrInvalidRequest, requestedItemID)
		}
		if requested.OwnerID == offered.OwnerID {
			return fmt.Errorf("%w: items %d and %d have the same owner", model.ErrInvalidRequest, requestedItemID, offeredItemID)
		}
		if requested.Status != model.ItemAvailable {
			return fmt.Errorf("%w: item %d is %s", model.ErrInvalidRequest, requestedItemID, requested.Status)
		}

		now := c.now().UTC()
		req = &model.ExchangeRequest{
			ID:              c.newID(),
			RequesterID:     requesterID,
			RequestedItemID: requestedItemID,
			OfferedItemID:   offeredItemID,
			Status:          model.RequestPending,
			Message:         message,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.SaveRequest(ctx, req); err != nil {
			return model.Unavailable(model.ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("exchange request created", "id", req.ID, "requester", requesterID,
		"requested_item", requestedItemID, "offered_item", offeredItemID)
	return req, nil
}

// Transition applies ev to the request id and returns the updated record.
// Events not allowed from the current status fail with
// model.ErrInvalidTransition and leave the record untouched, as do accept and
// complete once either item has gone out in another exchange. Completing a
// request marks both items Exchanged in the same unit of work.
func (c *Controller) Transition(ctx context.Context, id string, ev model.Event) (_ *model.ExchangeRequest, err error) {
	defer func() { metrics.ObserveTransition(string(ev), err) }()

	unlock := c.locks.Lock(id)
	defer unlock()

	var req *model.ExchangeRequest
	err = c.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		req, err = tx.GetRequest(ctx, id)
		if err != nil {
			return model.Unavailable(model.ErrStoreUnavailable, err)
		}
		if req == nil {
			return fmt.Errorf("exchange request %s: %w", id, model.ErrNotFound)
		}

		next, ok := model.NextStatus(req.Status, ev)
		if !ok {
			return fmt.Errorf("%w: cannot %s a %s request", model.ErrInvalidTransition, ev, req.Status)
		}

		if next != model.RequestRejected {
			if err := notExchanged(ctx, tx, req); err != nil {
				return err
			}
		}
		if ev == model.EventComplete {
			for _, itemID := range []int64{req.RequestedItemID, req.OfferedItemID} {
				if err := tx.SetItemStatus(ctx, itemID, model.ItemExchanged); err != nil {
					return model.Unavailable(model.ErrCatalogUnavailable, err)
				}
			}
		}

		req.Status = next
		req.UpdatedAt = c.stamp(req.UpdatedAt)
		if err := tx.SaveRequest(ctx, req); err != nil {
			return model.Unavailable(model.ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("exchange request transitioned", "id", id, "event", ev, "status", req.Status)
	return req, nil
}

// Get returns the request id.
func (c *Controller) Get(ctx context.Context, id string) (*model.ExchangeRequest, error) {
	req, err := c.store.GetRequest(ctx, id)
	if err != nil {
		return nil, model.Unavailable(model.ErrStoreUnavailable, err)
	}
	if req == nil {
		return nil, fmt.Errorf("exchange request %s: %w", id, model.ErrNotFound)
	}
	return req, nil
}

// ListSent returns the requests made by requesterID, newest first.
func (c *Controller) ListSent(ctx context.Context, requesterID int64) ([]model.ExchangeRequest, error) {
	return c.list(ctx, model.RequestFilter{RequesterID: requesterID})
}

// ListReceived returns the requests for items ownerID owns, newest first.
func (c *Controller) ListReceived(ctx context.Context, ownerID int64) ([]model.ExchangeRequest, error) {
	return c.list(ctx, model.RequestFilter{RequestedOwnerID: ownerID})
}

func (c *Controller) list(ctx context.Context, filter model.RequestFilter) ([]model.ExchangeRequest, error) {
	reqs, err := c.store.ListRequests(ctx, filter)
	if err != nil {
		return nil, model.Unavailable(model.ErrStoreUnavailable, err)
	}
	if reqs == nil {
		reqs = []model.ExchangeRequest{}
	}
	return reqs, nil
}

// Authorize checks that actorID owns the item requested by request id, which
// is the only party allowed to accept, reject or complete it.
func (c *Controller) Authorize(ctx context.Context, actorID int64, id string) error {
	req, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	item, err := c.store.GetItem(ctx, req.RequestedItemID)
	if err != nil {
		return model.Unavailable(model.ErrCatalogUnavailable, err)
	}
	if item == nil || item.OwnerID != actorID {
		return fmt.Errorf("%w: user %d does not own item %d", model.ErrForbidden, actorID, req.RequestedItemID)
	}
	return nil
}

// stamp returns the current time, bumped past prev so UpdatedAt never goes
// backwards.
func (c *Controller) stamp(prev time.Time) time.Time {
	now := c.now().UTC()
	if !now.After(prev) {
		return prev.UTC().Add(time.Nanosecond)
	}
	return now
}

// notExchanged fails when either item of req already went out in another
// exchange.
func notExchanged(ctx context.Context, tx store.Tx, req *model.ExchangeRequest) error {
	for _, id := range []int64{req.RequestedItemID, req.OfferedItemID} {
		item, err := tx.GetItem(ctx, id)
		if err != nil {
			return model.Unavailable(model.ErrCatalogUnavailable, err)
		}
		if item != nil && item.Status == model.ItemExchanged {
			return fmt.Errorf("%w: item %d has already been exchanged", model.ErrInvalidTransition, id)
		}
	}
	return nil
}

func liveItem(ctx context.Context, tx store.Tx, id int64) (*model.Item, error) {
	item, err := tx.GetItem(ctx, id)
	if err != nil {
		return nil, model.Unavailable(model.ErrCatalogUnavailable, err)
	}
	if item == nil || item.DeletedAt != nil {
		return nil, fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	return item, nil
}
