package journal

// Schema is the SQLite DDL for the order journal.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	time        TEXT NOT NULL,
	account_key TEXT NOT NULL,
	uic         INTEGER NOT NULL,
	side        TEXT NOT NULL,
	order_type  TEXT NOT NULL,
	quantity    REAL NOT NULL,
	price       REAL NOT NULL,
	order_id    TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	resolved_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_account ON orders(account_key);
CREATE INDEX IF NOT EXISTS idx_orders_order_id ON orders(order_id);
`
