package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/common"
)

const kvTable = "kv_store"

// KVStore persists opaque values under string keys. Put replaces the whole
// value in one statement.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

type sqlKVStore struct {
	db     *DB
	logger *slog.Logger
}

// NewSQLKVStore creates the backing table if needed and returns a KVStore on db.
func NewSQLKVStore(ctx context.Context, db *DB, logger *slog.Logger) (KVStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &sqlKVStore{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sqlKVStore) migrate(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + kvTable + ` (
	store_key  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`
	if err := s.db.Driver.Exec(ctx, ddl, []any{}, nil); err != nil {
		s.logger.Error("failed to create kv table", "error", err)
		return common.NewAppError("STORE_ERROR", "create "+kvTable, fmt.Errorf("%w: %v", common.ErrStore, err))
	}
	return nil
}

func (s *sqlKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args := entsql.Dialect(s.db.Dialect).
		Select("payload").
		From(entsql.Table(kvTable)).
		Where(entsql.EQ("store_key", key)).
		Query()

	var rows entsql.Rows
	if err := s.db.Driver.Query(ctx, query, args, &rows); err != nil {
		s.logger.Error("failed to read key", "key", key, "error", err)
		return nil, false, fmt.Errorf("%w: get %s: %v", common.ErrStore, key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, false, fmt.Errorf("%w: get %s: %v", common.ErrStore, key, err)
		}
		return nil, false, nil
	}
	var payload string
	if err := rows.Scan(&payload); err != nil {
		return nil, false, fmt.Errorf("%w: scan %s: %v", common.ErrStore, key, err)
	}
	return []byte(payload), true, nil
}

func (s *sqlKVStore) Put(ctx context.Context, key string, value []byte) error {
	query, args := entsql.Dialect(s.db.Dialect).
		Insert(kvTable).
		Columns("store_key", "payload", "updated_at").
		Values(key, string(value), time.Now().UTC().Format(time.RFC3339Nano)).
		OnConflict(
			entsql.ConflictColumns("store_key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if err := s.db.Driver.Exec(ctx, query, args, nil); err != nil {
		s.logger.Error("failed to write key", "key", key, "error", err)
		return fmt.Errorf("%w: put %s: %v", common.ErrStore, key, err)
	}
	s.logger.Debug("stored key", "key", key, "bytes", len(value))
	return nil
}

// MemoryStore is a process-local KVStore.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

// OpenKVStore builds the KVStore selected by cfg. The returned close func is
// never nil.
func OpenKVStore(ctx context.Context, cfg Config, logger *slog.Logger) (KVStore, func(), error) {
	if cfg.Driver == "memory" {
		return NewMemoryStore(), func() {}, nil
	}
	db, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, func() {}, err
	}
	store, err := NewSQLKVStore(ctx, db, logger)
	if err != nil {
		db.Close(logger)
		return nil, func() {}, err
	}
	return store, func() { db.Close(logger) }, nil
}

// ConfigFromStore maps the application store section onto a repository Config.
func ConfigFromStore(sc common.StoreConfig) Config {
	return Config{
		Driver:          sc.Driver,
		DSN:             sc.DSN,
		MaxConns:        sc.MaxConns,
		MinConns:        sc.MinConns,
		MaxConnLifetime: sc.MaxConnLifetime,
		MaxConnIdleTime: sc.MaxConnIdleTime,
		DialTimeout:     sc.DialTimeout,
	}
}
