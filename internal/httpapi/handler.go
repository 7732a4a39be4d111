// Package httpapi exposes the REST surface consumed by the scanner frontend.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trendscout/horizon/internal/scan"
	"github.com/trendscout/horizon/internal/server"
	"github.com/trendscout/horizon/internal/storage"
)

// Scanner runs one chat query against the remote assistant.
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) (*scan.Result, error)
}

type Handler struct {
	scanner  Scanner
	store    storage.SignalStore
	boardURL string
	logger   *slog.Logger
}

func NewHandler(scanner Scanner, store storage.SignalStore, boardURL string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		scanner:  scanner,
		store:    store,
		boardURL: boardURL,
		logger:   logger,
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/config", h.HandleConfig)
	r.Get("/api/saved", h.HandleListSaved)
	r.Post("/api/save", h.HandleSave)
	r.Delete("/api/saved/{id}", h.HandleDelete)
	r.Post("/api/chat", h.HandleChat)
}

// HandleConfig returns public config for the frontend.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"board_url": h.boardURL})
}

// HandleListSaved returns saved signals, newest first. Storage failure
// degrades to an empty list so the frontend keeps rendering.
func (h *Handler) HandleListSaved(w http.ResponseWriter, r *http.Request) {
	signals, err := h.store.ListSignals(r.Context())
	if err != nil {
		h.logger.Warn("list signals failed", slog.String("error", err.Error()))
		server.AddError(r.Context(), err)
		writeJSON(w, http.StatusOK, []*storage.SignalRecord{})
		return
	}
	if signals == nil {
		signals = []*storage.SignalRecord{}
	}
	writeJSON(w, http.StatusOK, signals)
}

// SaveSignalRequest is the POST /api/save payload.
type SaveSignalRequest struct {
	Title              string `json:"title"`
	Score              int    `json:"score"`
	Archetype          string `json:"archetype"`
	Hook               string `json:"hook"`
	URL                string `json:"url"`
	Mission            string `json:"mission"`
	Lenses             string `json:"lenses"`
	ScoreEvocativeness int    `json:"score_evocativeness"`
	ScoreNovelty       int    `json:"score_novelty"`
	ScoreEvidence      int    `json:"score_evidence"`
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	rec := &storage.SignalRecord{
		Title:              req.Title,
		Score:              req.Score,
		Archetype:          req.Archetype,
		Hook:               req.Hook,
		URL:                req.URL,
		Mission:            req.Mission,
		Lenses:             req.Lenses,
		ScoreEvocativeness: req.ScoreEvocativeness,
		ScoreNovelty:       req.ScoreNovelty,
		ScoreEvidence:      req.ScoreEvidence,
	}

	if err := h.store.AppendSignal(r.Context(), rec); err != nil {
		h.logger.Error("save signal failed", slog.String("error", err.Error()))
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "id": rec.ID})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.store.DeleteSignal(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "signal not found")
		return
	}
	if err != nil {
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ChatRequest is the POST /api/chat payload.
type ChatRequest struct {
	Message     string   `json:"message"`
	TimeFilter  string   `json:"time_filter"`
	SourceTypes []string `json:"source_types"`
	TechMode    bool     `json:"tech_mode"`
}

// HandleChat proxies one query to the assistant run orchestrator. Terminal
// run failures come back as a 200 text result; only run-start/transport
// failures surface as server errors, and a poll timeout maps to 504.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TimeFilter == "" {
		req.TimeFilter = "Past Year"
	}

	result, err := h.scanner.Scan(r.Context(), scan.Request{
		Message:     req.Message,
		TimeFilter:  req.TimeFilter,
		SourceTypes: req.SourceTypes,
		TechMode:    req.TechMode,
	})
	if err != nil {
		server.AddError(r.Context(), err)
		if errors.Is(err, scan.ErrScanTimeout) {
			writeError(w, http.StatusGatewayTimeout, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	server.AddLogField(r.Context(), "scan_outcome", result.UIType)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
