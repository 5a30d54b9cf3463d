package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"PriceTicker/internal/model"
)

// SQLiteStore persists the selected pair to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS selection (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			base       TEXT NOT NULL,
			quote      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveSelection(q model.PriceQuery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO selection (id, base, quote, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET base = excluded.base, quote = excluded.quote, updated_at = excluded.updated_at`,
		q.Base, q.Quote, time.Now().Unix(),
	)
	return err
}

func (s *SQLiteStore) LoadSelection() (model.PriceQuery, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var q model.PriceQuery
	err := s.db.QueryRow(`SELECT base, quote FROM selection WHERE id = 1`).Scan(&q.Base, &q.Quote)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PriceQuery{}, false, nil
	}
	if err != nil {
		return model.PriceQuery{}, false, fmt.Errorf("load selection: %w", err)
	}
	return q, true, nil
}

func (s *SQLiteStore) Close() error {
	log.Info().Msg("closing sqlite store")
	return s.db.Close()
}
