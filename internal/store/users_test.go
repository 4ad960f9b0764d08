package store

import (
	"context"
	"testing"

	"github.com/erazemk/menjava/internal/db"
	"github.com/erazemk/menjava/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "ana", "Ana K.", "hash123", model.RoleMember)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "ana" || user.DisplayName != "Ana K." {
		t.Errorf("unexpected user %+v", user)
	}
	if user.Role != model.RoleMember {
		t.Errorf("expected role member, got %q", user.Role)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.PasswordHash != "hash123" {
		t.Errorf("expected password hash to round-trip, got %q", got.PasswordHash)
	}

	missing, err := GetUser(ctx, database, 999)
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for missing user, got %v, %v", missing, err)
	}
}

func TestGetUserByUsernameSkipsDeleted(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustUser(t, database, "bojan")
	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	got, err := GetUserByUsername(ctx, database, "bojan")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got != nil {
		t.Error("expected deleted user to be invisible to login lookups")
	}

	// The username is free again.
	if _, err := CreateUser(ctx, database, "bojan", "", "hash", model.RoleMember); err != nil {
		t.Errorf("expected username reuse after delete: %v", err)
	}
}

func TestDeleteUserWithdrawsAvailableListings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustUser(t, database, "cene")
	kept := mustItem(t, database, user.ID, "Traded Away")
	mustItem(t, database, user.ID, "Still Listed")
	if _, err := SetItemStatus(ctx, database, kept.ID, model.ItemExchanged); err != nil {
		t.Fatal(err)
	}

	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	items, _ := ListItems(ctx, database, model.ItemFilter{OwnerID: user.ID})
	if len(items) != 1 || items[0].ID != kept.ID {
		t.Errorf("expected only the exchanged item to remain listed, got %v", items)
	}

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}
}

func TestUpdateUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := mustUser(t, database, "dora")
	if err := UpdateUser(ctx, database, user.ID, "Dora", model.RoleModerator); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if err := UpdateUserPassword(ctx, database, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.Role != model.RoleModerator || got.DisplayName != "Dora" || got.PasswordHash != "newhash" {
		t.Errorf("unexpected user after update: %+v", got)
	}
}
