package database

// Schema holds the DDL for the abandoned cart store. Timestamps are stored as
// RFC3339 strings for portability between sqlite3 and libsql.
const Schema = `
CREATE TABLE IF NOT EXISTS abandoned_carts (
	token            TEXT PRIMARY KEY,
	session_id       TEXT NOT NULL,
	user_id          TEXT,
	email            TEXT,
	phone            TEXT,
	cart_json        TEXT NOT NULL,
	total            REAL NOT NULL DEFAULT 0,
	item_count       INTEGER NOT NULL DEFAULT 0,
	discount_code    TEXT,
	status           TEXT NOT NULL DEFAULT 'active',
	order_id         TEXT,
	reminder_sent_at TEXT,
	recovered_at     TEXT,
	converted_at     TEXT,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_abandoned_carts_session
	ON abandoned_carts (session_id, status);

CREATE INDEX IF NOT EXISTS idx_abandoned_carts_reminder
	ON abandoned_carts (status, reminder_sent_at, updated_at);
`

// EnsureSchema creates the abandoned cart tables when missing.
func (db *DB) EnsureSchema() error {
	_, err := db.Exec(Schema)
	return err
}
