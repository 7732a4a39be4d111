// Package memory is the in-memory SignalStore used when no database path is
// configured or the SQLite store fails to open. It keeps the chat flow alive
// without persistence rather than failing requests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trendscout/horizon/internal/storage"
)

// Store is an in-memory implementation of SignalStore.
type Store struct {
	mu      sync.RWMutex
	signals []*storage.SignalRecord
}

var _ storage.SignalStore = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{}
}

func (s *Store) AppendSignal(ctx context.Context, rec *storage.SignalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now()

	stored := *rec
	s.signals = append(s.signals, &stored)
	return nil
}

func (s *Store) ListSignals(ctx context.Context) ([]*storage.SignalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first
	result := make([]*storage.SignalRecord, 0, len(s.signals))
	for i := len(s.signals) - 1; i >= 0; i-- {
		rec := *s.signals[i]
		result = append(result, &rec)
	}
	return result, nil
}

func (s *Store) ListRecentTitles(ctx context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	var titles []string
	for i := len(s.signals) - 1; i >= 0 && len(titles) < limit; i-- {
		titles = append(titles, s.signals[i].Title)
	}
	return titles, nil
}

func (s *Store) DeleteSignal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.signals {
		if rec.ID == id {
			s.signals = append(s.signals[:i], s.signals[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) Close() error {
	return nil
}
