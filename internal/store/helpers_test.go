package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/erazemk/menjava/internal/model"
)

func mustUser(t *testing.T, db DBTX, username string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), db, username, "", "hash", model.RoleMember)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

func mustItem(t *testing.T, db DBTX, owner int64, title string, tags ...string) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), db, model.Item{
		OwnerID:   owner,
		Title:     title,
		Condition: model.ConditionGood,
		Tags:      tags,
	})
	if err != nil {
		t.Fatalf("CreateItem(%s): %v", title, err)
	}
	return item
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}
