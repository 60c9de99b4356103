package sqlstore

import (
	"context"
	"strings"
)

// schemas contain the SQL statements to set up the database schema per driver.
// These run on startup to ensure tables exist.
// Tables are ordered so foreign keys only reference earlier tables.
// Timestamps are unix seconds; deleted_at marks soft-deleted rows.
var schemas = map[string]string{
	DriverSQLite: `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    firebase_uid TEXT NOT NULL UNIQUE,
    phone_number TEXT NOT NULL DEFAULT '',
    username TEXT,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    profile_image TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER
);

CREATE TABLE IF NOT EXISTS split_bills (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    host_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
    withdrawal_method TEXT NOT NULL,
    withdrawal_number TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    total INTEGER NOT NULL,
    subtotal INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER
);

CREATE TABLE IF NOT EXISTS bills (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
    split_bill_id INTEGER NOT NULL REFERENCES split_bills(id) ON DELETE RESTRICT,
    status TEXT NOT NULL DEFAULT 'PENDING',
    amount INTEGER NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER
);

CREATE TABLE IF NOT EXISTS payments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    bill_id INTEGER NOT NULL REFERENCES bills(id) ON DELETE RESTRICT,
    status TEXT NOT NULL,
    method TEXT NOT NULL DEFAULT '',
    reference_no TEXT NOT NULL DEFAULT '',
    expiry_date INTEGER NOT NULL DEFAULT 0,
    paid_at INTEGER,
    number TEXT NOT NULL DEFAULT '',
    amount INTEGER NOT NULL,
    payment_url TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER
);

CREATE TABLE IF NOT EXISTS payouts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    split_bill_id INTEGER NOT NULL UNIQUE REFERENCES split_bills(id) ON DELETE RESTRICT,
    external_id TEXT NOT NULL DEFAULT '',
    reference_id TEXT NOT NULL,
    amount INTEGER NOT NULL,
    status TEXT NOT NULL,
    channel_code TEXT NOT NULL DEFAULT '',
    account_number TEXT NOT NULL DEFAULT '',
    account_holder_name TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
` + commonIndexes,

	DriverPostgres: `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    firebase_uid TEXT NOT NULL UNIQUE,
    phone_number TEXT NOT NULL DEFAULT '',
    username TEXT,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    profile_image TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    deleted_at BIGINT
);

CREATE TABLE IF NOT EXISTS split_bills (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    host_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
    withdrawal_method TEXT NOT NULL,
    withdrawal_number TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    total BIGINT NOT NULL,
    subtotal BIGINT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    deleted_at BIGINT
);

CREATE TABLE IF NOT EXISTS bills (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
    split_bill_id BIGINT NOT NULL REFERENCES split_bills(id) ON DELETE RESTRICT,
    status TEXT NOT NULL DEFAULT 'PENDING',
    amount BIGINT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    deleted_at BIGINT
);

CREATE TABLE IF NOT EXISTS payments (
    id BIGSERIAL PRIMARY KEY,
    bill_id BIGINT NOT NULL REFERENCES bills(id) ON DELETE RESTRICT,
    status TEXT NOT NULL,
    method TEXT NOT NULL DEFAULT '',
    reference_no TEXT NOT NULL DEFAULT '',
    expiry_date BIGINT NOT NULL DEFAULT 0,
    paid_at BIGINT,
    number TEXT NOT NULL DEFAULT '',
    amount BIGINT NOT NULL,
    payment_url TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    deleted_at BIGINT
);

CREATE TABLE IF NOT EXISTS payouts (
    id BIGSERIAL PRIMARY KEY,
    split_bill_id BIGINT NOT NULL UNIQUE REFERENCES split_bills(id) ON DELETE RESTRICT,
    external_id TEXT NOT NULL DEFAULT '',
    reference_id TEXT NOT NULL,
    amount BIGINT NOT NULL,
    status TEXT NOT NULL,
    channel_code TEXT NOT NULL DEFAULT '',
    account_number TEXT NOT NULL DEFAULT '',
    account_holder_name TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);
` + commonIndexes,
}

// One live bill per (user, split bill) and one payment per bill; both only
// among rows that are not soft-deleted.
const commonIndexes = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username) WHERE username IS NOT NULL AND deleted_at IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS unique_user_id_and_split_bill_id_if_not_deleted ON bills(user_id, split_bill_id) WHERE deleted_at IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS unique_bill_id_if_not_deleted ON payments(bill_id) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_bills_split_bill_id ON bills(split_bill_id);
CREATE INDEX IF NOT EXISTS idx_payments_reference_no ON payments(reference_no);
CREATE INDEX IF NOT EXISTS idx_split_bills_name ON split_bills(name);
`

// Migrate executes the schema setup. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemas[s.driver], ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
