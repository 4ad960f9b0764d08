package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/menjava/internal/db"
	"github.com/erazemk/menjava/internal/model"
)

func TestSaveAndGetRequest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana := mustUser(t, database, "ana")
	bor := mustUser(t, database, "bor")
	wanted := mustItem(t, database, bor.ID, "Gatsby")
	offered := mustItem(t, database, ana.ID, "Physics")

	created := time.Date(2024, 4, 12, 14, 25, 0, 123456789, time.UTC)
	req := &model.ExchangeRequest{
		ID:              "req-1",
		RequesterID:     ana.ID,
		RequestedItemID: wanted.ID,
		OfferedItemID:   offered.ID,
		Status:          model.RequestPending,
		Message:         "Need it for ENG201",
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	if err := SaveRequest(ctx, database, req); err != nil {
		t.Fatalf("SaveRequest: %v", err)
	}

	got, err := GetRequest(ctx, database, "req-1")
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.Status != model.RequestPending || got.Message != req.Message {
		t.Errorf("unexpected request %+v", got)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(created) {
		t.Errorf("timestamps did not round-trip: %v %v", got.CreatedAt, got.UpdatedAt)
	}

	// Saving again updates status and timestamp, never the parties.
	req.Status = model.RequestAccepted
	req.UpdatedAt = created.Add(time.Minute)
	req.RequesterID = bor.ID
	if err := SaveRequest(ctx, database, req); err != nil {
		t.Fatalf("SaveRequest update: %v", err)
	}
	got, _ = GetRequest(ctx, database, "req-1")
	if got.Status != model.RequestAccepted || !got.UpdatedAt.Equal(req.UpdatedAt) || got.RequesterID != ana.ID {
		t.Errorf("unexpected request after update %+v", got)
	}

	missing, err := GetRequest(ctx, database, "nope")
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for missing request, got %v, %v", missing, err)
	}
}

func TestSaveRequestRejectsSameItem(t *testing.T) {
	database := db.NewTestDB(t)
	ana := mustUser(t, database, "ana")
	item := mustItem(t, database, ana.ID, "Only")

	now := time.Now()
	err := SaveRequest(context.Background(), database, &model.ExchangeRequest{
		ID: "same", RequesterID: ana.ID, RequestedItemID: item.ID, OfferedItemID: item.ID,
		Status: model.RequestPending, CreatedAt: now, UpdatedAt: now,
	})
	if err == nil {
		t.Error("expected CHECK constraint to reject identical items")
	}
}

func TestListRequestsSentAndReceived(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana := mustUser(t, database, "ana")
	bor := mustUser(t, database, "bor")
	cene := mustUser(t, database, "cene")

	anaBook := mustItem(t, database, ana.ID, "Algorithms")
	borBook := mustItem(t, database, bor.ID, "Gatsby")
	ceneBook := mustItem(t, database, cene.ID, "Physics")

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	save := func(id string, requester, requested, offered int64, status model.RequestStatus, at time.Time) {
		t.Helper()
		err := SaveRequest(ctx, database, &model.ExchangeRequest{
			ID: id, RequesterID: requester, RequestedItemID: requested, OfferedItemID: offered,
			Status: status, CreatedAt: at, UpdatedAt: at,
		})
		if err != nil {
			t.Fatalf("SaveRequest(%s): %v", id, err)
		}
	}
	save("a", ana.ID, borBook.ID, anaBook.ID, model.RequestPending, base)
	save("b", ana.ID, ceneBook.ID, anaBook.ID, model.RequestRejected, base.Add(time.Hour))
	save("c", cene.ID, borBook.ID, ceneBook.ID, model.RequestPending, base.Add(2*time.Hour))

	sent, err := ListRequests(ctx, database, model.RequestFilter{RequesterID: ana.ID})
	if err != nil {
		t.Fatalf("ListRequests sent: %v", err)
	}
	if len(sent) != 2 || sent[0].ID != "b" || sent[1].ID != "a" {
		t.Errorf("expected ana's requests newest first, got %v", sent)
	}

	received, _ := ListRequests(ctx, database, model.RequestFilter{RequestedOwnerID: bor.ID})
	if len(received) != 2 || received[0].ID != "c" || received[1].ID != "a" {
		t.Errorf("expected two requests for bor's book, got %v", received)
	}

	pending, _ := ListRequests(ctx, database, model.RequestFilter{RequestedOwnerID: bor.ID, Status: model.RequestPending})
	if len(pending) != 2 {
		t.Errorf("expected 2 pending received, got %d", len(pending))
	}

	none, _ := ListRequests(ctx, database, model.RequestFilter{RequestedOwnerID: ana.ID})
	if len(none) != 0 {
		t.Errorf("expected nothing received by ana, got %v", none)
	}
}
