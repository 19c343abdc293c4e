// Package storetest provides in-memory store fixtures for tests.
package storetest

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/edwardcox/sticky-idea-pad/internal/store"
)

// counter gives each in-memory database a unique name so shared-cache
// connections from different tests never collide.
var counter atomic.Int64

// NewInMemory creates an in-memory board store with the registry schema
// initialized. Each call returns a completely isolated database.
func NewInMemory() (*store.Store, error) {
	name := fmt.Sprintf("boardtest%d", counter.Add(1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	sqlDB, err := sql.Open(store.SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory board database: %w", err)
	}

	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(4)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping in-memory board database: %w", err)
	}

	if err := applyFastSQLitePragmas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply fast SQLite pragmas: %w", err)
	}

	if _, err := sqlDB.Exec(store.RegistrySchema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize registry schema: %w", err)
	}

	return store.NewFromSQL(sqlDB), nil
}

func applyFastSQLitePragmas(sqlDB *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=MEMORY",
		"PRAGMA synchronous=OFF",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}
