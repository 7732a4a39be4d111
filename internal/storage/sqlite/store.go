package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/trendscout/horizon/internal/storage"
)

// Store is a SQLite implementation of SignalStore.
type Store struct {
	db *sql.DB
}

var _ storage.SignalStore = (*Store)(nil)

// New creates a new SQLite store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			archetype TEXT NOT NULL DEFAULT '',
			hook TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			mission TEXT NOT NULL DEFAULT '',
			lenses TEXT NOT NULL DEFAULT '',
			score_evocativeness INTEGER NOT NULL DEFAULT 0,
			score_novelty INTEGER NOT NULL DEFAULT 0,
			score_evidence INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_created ON signals(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) AppendSignal(ctx context.Context, rec *storage.SignalRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now()

	query := `INSERT INTO signals (id, title, score, archetype, hook, url, mission, lenses,
	          score_evocativeness, score_novelty, score_evidence, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.Score, rec.Archetype, rec.Hook, rec.URL,
		rec.Mission, rec.Lenses,
		rec.ScoreEvocativeness, rec.ScoreNovelty, rec.ScoreEvidence,
		rec.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save signal: %w", err)
	}

	return nil
}

func (s *Store) ListSignals(ctx context.Context) ([]*storage.SignalRecord, error) {
	query := `SELECT id, title, score, archetype, hook, url, mission, lenses,
	          score_evocativeness, score_novelty, score_evidence, created_at
	          FROM signals ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []*storage.SignalRecord
	for rows.Next() {
		var rec storage.SignalRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Score, &rec.Archetype,
			&rec.Hook, &rec.URL, &rec.Mission, &rec.Lenses,
			&rec.ScoreEvocativeness, &rec.ScoreNovelty, &rec.ScoreEvidence,
			&rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, &rec)
	}

	return signals, rows.Err()
}

func (s *Store) ListRecentTitles(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT title FROM signals ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}

	return titles, rows.Err()
}

func (s *Store) DeleteSignal(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM signals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete signal: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
