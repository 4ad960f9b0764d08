package store

import (
	"context"
	"testing"

	"github.com/erazemk/menjava/internal/db"
)

func TestGetJWTSecretGeneratesOnce(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}

	second, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("expected the stored secret to be reused, got %q and %q", first, second)
	}
}

func TestGetSettingMissing(t *testing.T) {
	database := db.NewTestDB(t)

	_, ok, err := GetSetting(context.Background(), database, "nope")
	if err != nil || ok {
		t.Errorf("expected missing setting, got ok=%v err=%v", ok, err)
	}
}
