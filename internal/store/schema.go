package store

// SQL schema definitions for the durable board store. A single SQLite file
// holds one notes table per namespace plus a registry that tracks which
// namespaces exist. Namespaces are created on the fly the first time a new
// store identifier is seen, through a versioned migration step recorded in
// schema_meta.

// RegistrySchema bootstraps the namespace registry. schema_meta holds a
// single row whose version increments on every namespace migration,
// mirroring a version-upgrade style store open.
const RegistrySchema = `
CREATE TABLE IF NOT EXISTS schema_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    version INTEGER NOT NULL
);
INSERT OR IGNORE INTO schema_meta (id, version) VALUES (1, 1);

CREATE TABLE IF NOT EXISTS namespaces (
    name TEXT PRIMARY KEY,
    table_name TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);
`

// namespaceTableSchema is the per-namespace notes table, keyed by note id.
// Timestamps are canonical RFC 3339 strings; spatial columns are nullable
// because records created before those fields existed lack them.
const namespaceTableSchema = `
CREATE TABLE IF NOT EXISTS %[1]s (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    color TEXT NOT NULL,
    priority TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    pos_x REAL,
    pos_y REAL,
    width REAL,
    height REAL
);
`

// namespaceMigrations contains idempotent ALTER TABLE statements that bring
// namespace tables created before the spatial columns existed up to the
// current shape. SQLite ADD COLUMN errors when the column already exists,
// so duplicate column errors are caught and ignored on apply.
var namespaceMigrations = []string{
	`ALTER TABLE %[1]s ADD COLUMN pos_x REAL`,
	`ALTER TABLE %[1]s ADD COLUMN pos_y REAL`,
	`ALTER TABLE %[1]s ADD COLUMN width REAL`,
	`ALTER TABLE %[1]s ADD COLUMN height REAL`,
}
