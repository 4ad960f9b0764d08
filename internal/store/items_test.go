package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/menjava/internal/db"
	"github.com/erazemk/menjava/internal/model"
)

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "ana")

	item, err := CreateItem(ctx, database, model.Item{
		OwnerID:   owner.ID,
		Title:     "Calculus: Early Transcendentals",
		Author:    "James Stewart",
		Condition: model.ConditionAcceptable,
		Tags:      []string{"Mathematics", "Calculus", "Mathematics"},
		GroupCode: "MATH101",
		Year:      2015,
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Status != model.ItemAvailable {
		t.Errorf("expected status Available, got %q", item.Status)
	}
	if len(item.Tags) != 2 || item.Tags[0] != "Mathematics" || item.Tags[1] != "Calculus" {
		t.Errorf("expected de-duplicated tags, got %v", item.Tags)
	}
	if item.GroupCode != "MATH101" || item.Year != 2015 || item.Author != "James Stewart" {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestCreateItemOptionalFieldsEmpty(t *testing.T) {
	database := db.NewTestDB(t)
	owner := mustUser(t, database, "ana")

	item := mustItem(t, database, owner.ID, "Untagged")
	if item.Tags == nil || len(item.Tags) != 0 {
		t.Errorf("expected empty non-nil tags, got %#v", item.Tags)
	}
	if item.GroupCode != "" || item.Year != 0 {
		t.Errorf("expected absent group and year, got %q %d", item.GroupCode, item.Year)
	}
}

func TestCreateItemRejectsUnknownCondition(t *testing.T) {
	database := db.NewTestDB(t)
	owner := mustUser(t, database, "ana")

	_, err := CreateItem(context.Background(), database, model.Item{
		OwnerID: owner.ID, Title: "Mystery", Condition: "Mint",
	})
	if !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestListItemsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana := mustUser(t, database, "ana")
	bor := mustUser(t, database, "bor")

	gatsby := mustItem(t, database, ana.ID, "The Great Gatsby", "Fiction", "Classics")
	physics := mustItem(t, database, bor.ID, "Principles of Physics", "Physics", "Science")
	chem := mustItem(t, database, bor.ID, "Organic Chemistry", "Chemistry", "Science")
	SetItemStatus(ctx, database, chem.ID, model.ItemReserved)

	tests := []struct {
		name   string
		filter model.ItemFilter
		want   []int64
	}{
		{"all", model.ItemFilter{}, []int64{gatsby.ID, physics.ID, chem.ID}},
		{"owner", model.ItemFilter{OwnerID: bor.ID}, []int64{physics.ID, chem.ID}},
		{"exclude owner", model.ItemFilter{ExcludeOwnerID: bor.ID}, []int64{gatsby.ID}},
		{"status", model.ItemFilter{Status: model.ItemAvailable}, []int64{gatsby.ID, physics.ID}},
		{"tag any-of", model.ItemFilter{Tags: []string{"Classics", "Chemistry"}}, []int64{gatsby.ID, chem.ID}},
		{"condition", model.ItemFilter{Conditions: []model.Condition{model.ConditionNew}}, nil},
		{"query title", model.ItemFilter{Query: "great"}, []int64{gatsby.ID}},
		{"query tag", model.ItemFilter{Query: "scien"}, []int64{physics.ID, chem.ID}},
		{"query wildcard is literal", model.ItemFilter{Query: "%"}, nil},
	}

	for _, tt := range tests {
		items, err := ListItems(ctx, database, tt.filter)
		if err != nil {
			t.Fatalf("%s: ListItems: %v", tt.name, err)
		}
		var got []int64
		for _, it := range items {
			got = append(got, it.ID)
		}
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
				break
			}
		}
	}
}

func TestUpdateItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "ana")
	item := mustItem(t, database, owner.ID, "Draft")

	item.Title = "Psychology"
	item.Condition = model.ConditionVeryGood
	item.Tags = []string{"Psychology"}
	item.GroupCode = "PSY101"
	if err := UpdateItem(ctx, database, *item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Title != "Psychology" || got.Condition != model.ConditionVeryGood ||
		got.GroupCode != "PSY101" || got.Status != model.ItemAvailable {
		t.Errorf("unexpected item after update: %+v", got)
	}
}

func TestUpdateItemKeepsStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "ana")
	item := mustItem(t, database, owner.ID, "Calculus")

	// A stale copy read before the item was exchanged.
	stale := *item
	if _, err := SetItemStatus(ctx, database, item.ID, model.ItemExchanged); err != nil {
		t.Fatalf("SetItemStatus: %v", err)
	}

	stale.Title = "Calculus, 2nd edition"
	if err := UpdateItem(ctx, database, stale); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.ItemExchanged {
		t.Errorf("expected status %s, got %s", model.ItemExchanged, got.Status)
	}
	if got.Title != "Calculus, 2nd edition" {
		t.Errorf("expected updated title, got %q", got.Title)
	}
}

func TestSetItemStatusMissing(t *testing.T) {
	database := db.NewTestDB(t)

	ok, err := SetItemStatus(context.Background(), database, 404, model.ItemExchanged)
	if err != nil {
		t.Fatalf("SetItemStatus: %v", err)
	}
	if ok {
		t.Error("expected no row to be updated")
	}
}

func TestSoftDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "ana")

	item := mustItem(t, database, owner.ID, "Delete Me")
	DeleteItem(ctx, database, item.ID)

	items, _ := ListItems(ctx, database, model.ItemFilter{})
	if len(items) != 0 {
		t.Errorf("expected 0 items after soft delete, got %d", len(items))
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got == nil || got.DeletedAt == nil {
		t.Error("expected soft-deleted item to still be fetchable by ID")
	}
}

func TestItemCover(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "ana")

	item := mustItem(t, database, owner.ID, "Covered")
	SetItemCover(ctx, database, item.ID, []byte("jpeg bytes"), "image/jpeg")

	data, mime, err := GetItemCover(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItemCover: %v", err)
	}
	if string(data) != "jpeg bytes" || mime != "image/jpeg" {
		t.Errorf("unexpected cover %q %q", data, mime)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.CoverMime != "image/jpeg" {
		t.Errorf("expected cover mime on item, got %q", got.CoverMime)
	}
}
