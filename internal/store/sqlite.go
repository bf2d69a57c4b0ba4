package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/playok/resmon/internal/model"
)

// DefaultRetentionCap is the maximum number of alert records kept.
const DefaultRetentionCap = 10000

// Store provides database operations.
type Store struct {
	db           *sql.DB
	dbPath       string
	retentionCap int64
	logger       *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRetentionCap overrides the alert retention cap.
func WithRetentionCap(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.retentionCap = n
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New opens (or creates) the SQLite database and runs migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite single-writer
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	s := &Store{
		db:           db,
		dbPath:       dbPath,
		retentionCap: DefaultRetentionCap,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func dsn(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

// DBPath returns the database file path.
func (s *Store) DBPath() string { return s.dbPath }

// RetentionCap returns the maximum number of alert records kept.
func (s *Store) RetentionCap() int64 { return s.retentionCap }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return model.NewPersistenceError("ping", err)
	}
	return nil
}

// --- Settings ---

// GetSetting returns a setting value, or "" when the key is absent.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", model.NewPersistenceError("get setting "+key, err)
	}
	return val, nil
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return model.NewPersistenceError("set setting "+key, err)
	}
	return nil
}
