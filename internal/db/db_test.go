package db

import (
	"net/url"
	"strings"
	"testing"
)

func TestDSNCarriesPragmasAndTxLock(t *testing.T) {
	dsn := DSN("market.sqlite3")

	path, query, ok := strings.Cut(dsn, "?")
	if !ok || path != "market.sqlite3" {
		t.Fatalf("unexpected DSN %q", dsn)
	}
	q, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("parsing DSN query: %v", err)
	}
	if q.Get("_txlock") != "immediate" {
		t.Errorf("expected immediate transactions, got %q", q.Get("_txlock"))
	}
	if len(q["_pragma"]) != len(pragmas) {
		t.Errorf("expected %d pragmas, got %v", len(pragmas), q["_pragma"])
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	database := NewTestDB(t)

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	var n int
	err := database.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'items', 'exchange_requests', 'settings', 'revoked_tokens')`,
	).Scan(&n)
	if err != nil {
		t.Fatalf("counting tables: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 tables, got %d", n)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(
		`INSERT INTO items (owner_id, title, condition) VALUES (999, 'Orphan', 'Good')`,
	)
	if err == nil {
		t.Error("expected foreign key violation for unknown owner")
	}
}
