package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/trendscout/horizon/internal/scan"
	"github.com/trendscout/horizon/internal/storage"
	"github.com/trendscout/horizon/internal/storage/memory"
)

type fakeScanner struct {
	gotReq scan.Request
	result *scan.Result
	err    error
}

func (f *fakeScanner) Scan(ctx context.Context, req scan.Request) (*scan.Result, error) {
	f.gotReq = req
	return f.result, f.err
}

type failingStore struct {
	storage.SignalStore
}

func (f *failingStore) ListSignals(ctx context.Context) ([]*storage.SignalRecord, error) {
	return nil, errors.New("store offline")
}

func newTestRouter(scanner Scanner, store storage.SignalStore) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(scanner, store, "https://example.com/board", nil).Register(r)
	return r
}

func TestHandleConfig(t *testing.T) {
	r := newTestRouter(&fakeScanner{}, memory.New())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["board_url"] != "https://example.com/board" {
		t.Errorf("board_url = %v", body["board_url"])
	}
}

func TestSaveAndListAndDelete(t *testing.T) {
	store := memory.New()
	r := newTestRouter(&fakeScanner{}, store)

	payload := `{"title":"Ocean batteries","score":75,"archetype":"Weak Signal","hook":"h","url":"https://example.com/a"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/save", bytes.NewBufferString(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var saveResp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &saveResp)
	if saveResp["status"] != "success" || saveResp["id"] == "" {
		t.Fatalf("save response = %v", saveResp)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/saved", nil))

	var listed []storage.SignalRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "Ocean batteries" {
		t.Fatalf("listed = %+v", listed)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/saved/"+saveResp["id"], nil))
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/saved/"+saveResp["id"], nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestHandleSave_Validation(t *testing.T) {
	r := newTestRouter(&fakeScanner{}, memory.New())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/save", bytes.NewBufferString(`{"score":5}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing title", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/save", bytes.NewBufferString(`{not json`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for malformed body", rec.Code)
	}
}

func TestHandleListSaved_StorageFailureDegrades(t *testing.T) {
	r := newTestRouter(&fakeScanner{}, &failingStore{memory.New()})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/saved", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when storage fails", rec.Code)
	}
	var listed []storage.SignalRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("listed = %+v, want empty", listed)
	}
}

func TestHandleChat_SignalList(t *testing.T) {
	scanner := &fakeScanner{
		result: &scan.Result{
			UIType: "signal_list",
			Items: []scan.SignalCard{{
				"title":     "AI fridges",
				"final_url": "https://example.com/a",
				"ui_type":   "signal_card",
			}},
		},
	}
	r := newTestRouter(scanner, memory.New())

	payload := `{"message":"scan agriculture","time_filter":"Past Month","source_types":["Patents"],"tech_mode":true}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if scanner.gotReq.TimeFilter != "Past Month" || !scanner.gotReq.TechMode {
		t.Errorf("scan request = %+v", scanner.gotReq)
	}

	var result scan.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.UIType != "signal_list" || len(result.Items) != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.Content != "" {
		t.Errorf("text content set alongside signal_list: %q", result.Content)
	}
}

func TestHandleChat_DefaultTimeFilter(t *testing.T) {
	scanner := &fakeScanner{result: &scan.Result{UIType: "text", Content: "ok"}}
	r := newTestRouter(scanner, memory.New())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"message":"scan"}`)))

	if scanner.gotReq.TimeFilter != "Past Year" {
		t.Errorf("time filter = %q, want default Past Year", scanner.gotReq.TimeFilter)
	}
}

func TestHandleChat_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"run start failure", errors.New("create run: remote down"), http.StatusInternalServerError},
		{"scan timeout", fmt.Errorf("run stuck: %w", scan.ErrScanTimeout), http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeScanner{err: tt.err}, memory.New())

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"message":"scan"}`)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] == "" {
				t.Error("error payload missing")
			}
		})
	}
}

func TestHandleChat_MalformedBody(t *testing.T) {
	r := newTestRouter(&fakeScanner{}, memory.New())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
