// Package store implements the durable per-user note storage. Each
// namespace (one per user) maps to its own table in a shared SQLite file;
// opening a namespace that does not exist yet runs a versioned migration
// that adds it without touching previously created namespaces.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/edwardcox/sticky-idea-pad/internal/errs"
	"github.com/edwardcox/sticky-idea-pad/internal/obs"
)

const (
	// BoardDBName is the filename of the shared board database.
	BoardDBName = "board.db"

	// MaxOpenConns keeps the connection count low: SQLite is single-writer
	// and every caller shares one local file.
	MaxOpenConns = 4

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns = 1
)

// Record is the serialized form of a note as it exists on disk. Dates are
// canonical RFC 3339 strings; spatial fields are nil when the record
// predates them. Deserialization and self-healing of these fields belong
// to the repository layer.
type Record struct {
	ID        string
	Title     string
	Content   string
	Color     string
	Priority  string
	CreatedAt string
	UpdatedAt string
	PosX      *float64
	PosY      *float64
	Width     *float64
	Height    *float64
}

// Store is a namespaced key-value persistence adapter over SQLite.
// All methods are safe for concurrent use.
type Store struct {
	db  *sql.DB
	log interface {
		Debug(msg string, args ...any)
		Warn(msg string, args ...any)
	}

	// mu serializes namespace migrations; migrated tracks namespaces whose
	// legacy-column migration already ran this session.
	mu       sync.Mutex
	migrated map[string]string
}

// Open opens (creating if needed) the board database under dataDir. When
// keyHex is non-empty the file is encrypted with SQLCipher. Any failure to
// create or open the underlying engine is reported as an unavailable
// error; callers should detect that once and skip persistence for the
// session rather than retrying.
func Open(dataDir, keyHex string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, errs.Wrap(errs.Unavailable, "storage unavailable", err)
	}

	dsn := filepath.Join(dataDir, BoardDBName)
	if keyHex != "" {
		dsn = fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dsn, keyHex)
	}
	dsn = appendSQLiteParams(dsn, sqliteCommonParams())

	db, err := sql.Open(SQLiteDriverName, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "storage unavailable", err)
	}

	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)

	// A wrong key or a denied file both surface here.
	var sqliteVersion string
	if err := db.QueryRow("SELECT sqlite_version()").Scan(&sqliteVersion); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.Unavailable, "storage unavailable", err)
	}

	if _, err := db.Exec(RegistrySchema); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.Unavailable, "storage unavailable", err)
	}

	return NewFromSQL(db), nil
}

// NewFromSQL wraps an existing connection whose registry schema is already
// initialized. Used by tests with in-memory databases.
func NewFromSQL(db *sql.DB) *Store {
	return &Store{
		db:       db,
		log:      obs.Pkg("store"),
		migrated: make(map[string]string),
	}
}

// DB returns the underlying sql.DB for direct access when needed.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetAll returns every record in the namespace, newest first. A namespace
// that has never been written returns an empty slice.
func (s *Store) GetAll(ctx context.Context, namespace string) ([]Record, error) {
	table, err := s.ensureNamespace(ctx, namespace)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, title, content, color, priority, created_at, updated_at,
		        pos_x, pos_y, width, height
		 FROM %s ORDER BY created_at DESC, id`, table))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to read notes", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var posX, posY, width, height sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Title, &r.Content, &r.Color, &r.Priority,
			&r.CreatedAt, &r.UpdatedAt, &posX, &posY, &width, &height); err != nil {
			return nil, errs.Wrap(errs.Internal, "failed to scan note record", err)
		}
		r.PosX = nullableFloat(posX)
		r.PosY = nullableFloat(posY)
		r.Width = nullableFloat(width)
		r.Height = nullableFloat(height)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to iterate note records", err)
	}
	return records, nil
}

// PutAll replaces the entire contents of the namespace with records,
// atomically.
func (s *Store) PutAll(ctx context.Context, namespace string, records []Record) error {
	table, err := s.ensureNamespace(ctx, namespace)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to begin save", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
		return errs.Wrap(errs.Internal, "failed to clear namespace", err)
	}
	for _, r := range records {
		if err := execPut(ctx, tx, table, r); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.Internal, "failed to commit save", err)
	}
	return nil
}

// Put upserts a single record by id.
func (s *Store) Put(ctx context.Context, namespace string, r Record) error {
	table, err := s.ensureNamespace(ctx, namespace)
	if err != nil {
		return err
	}
	return execPut(ctx, s.db, table, r)
}

// Get returns a single record by id, or a not_found error.
func (s *Store) Get(ctx context.Context, namespace, id string) (Record, error) {
	table, err := s.ensureNamespace(ctx, namespace)
	if err != nil {
		return Record{}, err
	}

	var r Record
	var posX, posY, width, height sql.NullFloat64
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT id, title, content, color, priority, created_at, updated_at,
		        pos_x, pos_y, width, height
		 FROM %s WHERE id = ?`, table), id).
		Scan(&r.ID, &r.Title, &r.Content, &r.Color, &r.Priority,
			&r.CreatedAt, &r.UpdatedAt, &posX, &posY, &width, &height)
	if err == sql.ErrNoRows {
		return Record{}, errs.New(errs.NotFound, "note not found: "+id)
	}
	if err != nil {
		return Record{}, errs.Wrap(errs.Internal, "failed to read note record", err)
	}
	r.PosX = nullableFloat(posX)
	r.PosY = nullableFloat(posY)
	r.Width = nullableFloat(width)
	r.Height = nullableFloat(height)
	return r, nil
}

// Delete removes a record by id. Deleting an id that does not exist is a
// no-op, not an error: the in-memory collection is the source of truth for
// presence.
func (s *Store) Delete(ctx context.Context, namespace, id string) error {
	table, err := s.ensureNamespace(ctx, namespace)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id); err != nil {
		return errs.Wrap(errs.Internal, "failed to delete note record", err)
	}
	return nil
}

// Namespaces returns every registered namespace name.
func (s *Store) Namespaces(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM namespaces ORDER BY name`)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to list namespaces", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errs.Wrap(errs.Internal, "failed to scan namespace", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SchemaVersion returns the current registry schema version. The version
// increments every time a namespace migration runs.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	var version int64
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_meta WHERE id = 1`).Scan(&version); err != nil {
		return 0, errs.Wrap(errs.Internal, "failed to read schema version", err)
	}
	return version, nil
}

// ensureNamespace resolves the table for namespace using a two-phase open:
// look the namespace up in the registry; when it is missing, run a
// versioned migration that adds the table and registers it, then retry the
// lookup. Existing namespaces get the idempotent legacy-column migrations
// applied once per session.
func (s *Store) ensureNamespace(ctx context.Context, namespace string) (string, error) {
	if namespace == "" {
		return "", errs.New(errs.InvalidArgument, "namespace is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if table, ok := s.migrated[namespace]; ok {
		return table, nil
	}

	table, found, err := s.lookupNamespace(ctx, namespace)
	if err != nil {
		return "", err
	}
	if !found {
		if err := s.migrateNewNamespace(ctx, namespace); err != nil {
			return "", err
		}
		table, found, err = s.lookupNamespace(ctx, namespace)
		if err != nil {
			return "", err
		}
		if !found {
			return "", errs.New(errs.Internal, "namespace migration did not register the namespace")
		}
	}

	if err := s.applyLegacyMigrations(ctx, table); err != nil {
		return "", err
	}
	s.migrated[namespace] = table
	return table, nil
}

func (s *Store) lookupNamespace(ctx context.Context, namespace string) (table string, found bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT table_name FROM namespaces WHERE name = ?`, namespace).Scan(&table)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrap(errs.Internal, "failed to look up namespace", err)
	}
	return quoteIdent(table), true, nil
}

// migrateNewNamespace performs the version-upgrade step that adds a new
// namespace: bump the schema version, create the table, register it. The
// whole step is one transaction so a partial migration can never lose or
// shadow previously created namespaces.
func (s *Store) migrateNewNamespace(ctx context.Context, namespace string) error {
	table := tableNameFor(namespace)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to begin namespace migration", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE schema_meta SET version = version + 1 WHERE id = 1`); err != nil {
		return errs.Wrap(errs.Internal, "failed to bump schema version", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(namespaceTableSchema, quoteIdent(table))); err != nil {
		return errs.Wrap(errs.Internal, "failed to create namespace table", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO namespaces (name, table_name, created_at) VALUES (?, ?, ?)`,
		namespace, table, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return errs.Wrap(errs.Internal, "failed to register namespace", err)
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.Internal, "failed to commit namespace migration", err)
	}

	s.log.Debug("created namespace", "namespace", namespace, "table", table)
	return nil
}

// applyLegacyMigrations adds the spatial columns to namespace tables
// created before those columns existed. Duplicate column errors mean the
// column is already there and are ignored.
func (s *Store) applyLegacyMigrations(ctx context.Context, table string) error {
	for _, stmt := range namespaceMigrations {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(stmt, table)); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return errs.Wrap(errs.Internal, "namespace migration failed", err)
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execPut(ctx context.Context, db execer, table string, r Record) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, title, content, color, priority, created_at, updated_at,
		                 pos_x, pos_y, width, height)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     title = excluded.title,
		     content = excluded.content,
		     color = excluded.color,
		     priority = excluded.priority,
		     created_at = excluded.created_at,
		     updated_at = excluded.updated_at,
		     pos_x = excluded.pos_x,
		     pos_y = excluded.pos_y,
		     width = excluded.width,
		     height = excluded.height`, table),
		r.ID, r.Title, r.Content, r.Color, r.Priority, r.CreatedAt, r.UpdatedAt,
		nullableArg(r.PosX), nullableArg(r.PosY), nullableArg(r.Width), nullableArg(r.Height))
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to write note record", err)
	}
	return nil
}

// tableNameFor derives a safe table identifier from a namespace name.
// Anything outside [A-Za-z0-9_] is folded to underscore.
func tableNameFor(namespace string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, namespace)
	return "ns_" + sanitized
}

func quoteIdent(name string) string {
	if strings.HasPrefix(name, `"`) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullableArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func sqliteCommonParams() string {
	return "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
}

func appendSQLiteParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}
