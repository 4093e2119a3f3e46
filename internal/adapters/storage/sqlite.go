package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS punishments (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	action       TEXT NOT NULL,
	moderator_id TEXT NOT NULL,
	date         TIMESTAMP NOT NULL,
	duration     REAL NOT NULL DEFAULT 0,
	reason       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_punishments_user ON punishments (user_id);

CREATE TABLE IF NOT EXISTS tags (
	tag      TEXT PRIMARY KEY,
	content  TEXT NOT NULL,
	owner_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_prefs (
	user_id TEXT NOT NULL,
	key     TEXT NOT NULL,
	value   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, key)
);`

// Open opens (creating if needed) the bot's sqlite database and applies the
// schema.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}
