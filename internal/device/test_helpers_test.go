package device

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates an in-memory SQLite database with the full schema and one
// registered account to own test devices.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			gender TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			avatar TEXT,
			time_zone TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE devices (
			uuid TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			owner_email TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (owner_email) REFERENCES users(email)
		) STRICT;

		CREATE TABLE status_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_uuid TEXT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('ON', 'OFF')),
			recorded_at TEXT NOT NULL,
			FOREIGN KEY (device_uuid) REFERENCES devices(uuid) ON DELETE CASCADE
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating test schema: %v", err)
	}

	if _, err := db.Exec(
		`INSERT INTO users (id, first_name, last_name, gender, email, password, token)
		 VALUES ('usr-1', 'Ada', 'Lovelace', 'female', 'ada@example.com', 'hunter2', 'tok-1')`,
	); err != nil {
		t.Fatalf("seeding test user: %v", err)
	}

	return db
}
