package store

import (
	"database/sql"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	// SQLiteDriverName is the project-specific SQLCipher-capable driver.
	// Databases opened without a key pragma behave as plain SQLite.
	SQLiteDriverName = "sqlite3_sticky_idea_pad"
)

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{})
}
