package session

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"ideabridge.org/internal/market"
	"ideabridge.org/internal/migrate"
)

// ErrNoSession is returned by Store.Load when nothing is persisted.
var ErrNoSession = errors.New("no stored session")

// Record is the persisted credential and cached profile.
type Record struct {
	Token   string
	User    market.User
	SavedAt time.Time
}

// Store persists at most one Record.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
	Close() error
}

// OpenStore returns the store for driver: "memory", "sqlite3" or "pgx".
// SQL stores are migrated before they are returned.
func OpenStore(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite3", "pgx":
	default:
		return nil, fmt.Errorf("unsupported session driver %q", driver)
	}
	if driver == "sqlite3" {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	st := NewSQLStore(db, driver)
	if err := st.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return st, nil
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return nil
}

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// SQLStore keeps the session in a single-row table.
type SQLStore struct {
	db     *sql.DB
	driver string
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Migrate creates the sessions table when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	return migrate.NewManager(s.db, s.driver, fsys, migrate.WithMigrationsTable("session_migrations")).Up(ctx)
}

func (s *SQLStore) ph(n int) string { return migrate.Placeholder(s.driver, n) }

func (s *SQLStore) Load(ctx context.Context) (Record, error) {
	var (
		rec      Record
		userJSON string
		savedAt  string
	)
	err := s.db.QueryRowContext(ctx,
		`select token, user_json, saved_at from sessions order by saved_at desc limit 1`,
	).Scan(&rec.Token, &userJSON, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNoSession
	}
	if err != nil {
		return Record{}, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal([]byte(userJSON), &rec.User); err != nil {
		return Record{}, fmt.Errorf("decode cached user: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
		rec.SavedAt = t
	}
	return rec, nil
}

// Save replaces any stored session with rec.
func (s *SQLStore) Save(ctx context.Context, rec Record) error {
	userJSON, err := json.Marshal(rec.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from sessions`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	insert := fmt.Sprintf(`insert into sessions(id, token, user_json, saved_at) values (%s, %s, %s, %s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4))
	if _, err := tx.ExecContext(ctx, insert,
		uuid.NewString(), rec.Token, string(userJSON), rec.SavedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `delete from sessions`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return Record{}, ErrNoSession
	}
	return *m.rec, nil
}

func (m *MemoryStore) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}
	m.rec = &rec
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }
