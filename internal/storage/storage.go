// Package storage defines the persistence boundary for saved signals.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a signal id has no matching record.
var ErrNotFound = errors.New("signal not found")

// SignalRecord is one saved signal row. The column layout mirrors the
// external signal board: title, composite score, archetype, hook, source
// URL, mission/lens tags, and the three sub-scores behind the composite.
type SignalRecord struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Score              int       `json:"score"`
	Archetype          string    `json:"archetype"`
	Hook               string    `json:"hook"`
	URL                string    `json:"url"`
	Mission            string    `json:"mission,omitempty"`
	Lenses             string    `json:"lenses,omitempty"`
	ScoreEvocativeness int       `json:"score_evocativeness,omitempty"`
	ScoreNovelty       int       `json:"score_novelty,omitempty"`
	ScoreEvidence      int       `json:"score_evidence,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// SignalStore persists saved signals and serves the dedupe title window.
// Implementations are selected once at startup; callers never branch on
// which backend is live.
type SignalStore interface {
	// AppendSignal saves one signal. The store assigns CreatedAt (and ID
	// when empty).
	AppendSignal(ctx context.Context, rec *SignalRecord) error

	// ListSignals returns saved signals, newest first.
	ListSignals(ctx context.Context) ([]*SignalRecord, error)

	// ListRecentTitles returns up to limit titles of the most recently
	// saved signals, newest first. Used to seed the prompt blocklist.
	ListRecentTitles(ctx context.Context, limit int) ([]string, error)

	// DeleteSignal removes a signal by id.
	DeleteSignal(ctx context.Context, id string) error

	Close() error
}
