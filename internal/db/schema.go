package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    display_name  TEXT,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('admin', 'moderator', 'member')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    owner_id    INTEGER NOT NULL REFERENCES users(id),
    title       TEXT NOT NULL,
    author      TEXT,
    description TEXT,
    condition   TEXT NOT NULL CHECK (condition IN ('New', 'Like New', 'Very Good', 'Good', 'Acceptable', 'Poor')),
    tags        TEXT NOT NULL DEFAULT '[]',
    group_code  TEXT,
    year        INTEGER,
    status      TEXT NOT NULL DEFAULT 'Available' CHECK (status IN ('Available', 'Reserved', 'Exchanged')),
    cover       BLOB,
    cover_mime  TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);
CREATE INDEX IF NOT EXISTS idx_items_status ON items(status) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS exchange_requests (
    id                TEXT PRIMARY KEY,
    requester_id      INTEGER NOT NULL REFERENCES users(id),
    requested_item_id INTEGER NOT NULL REFERENCES items(id),
    offered_item_id   INTEGER NOT NULL REFERENCES items(id),
    status            TEXT NOT NULL CHECK (status IN ('Pending', 'Accepted', 'Rejected', 'Completed')),
    message           TEXT,
    created_at        DATETIME NOT NULL,
    updated_at        DATETIME NOT NULL,
    CHECK (requested_item_id <> offered_item_id)
);

CREATE INDEX IF NOT EXISTS idx_requests_requester ON exchange_requests(requester_id);
CREATE INDEX IF NOT EXISTS idx_requests_requested_item ON exchange_requests(requested_item_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations are applied in order after the schema. Each must be idempotent.
// Append new migrations at the end.
var migrations = []string{
	// Listings created before group codes were searchable had NULL and ''
	// mixed; normalize to NULL so "no group" never matches "no group".
	`UPDATE items SET group_code = NULL WHERE group_code = ''`,
}

// EnsureSchema creates all tables and indexes if they don't already exist
// and applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
