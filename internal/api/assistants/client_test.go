package assistants

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/trendscout/horizon/internal/testutil"
)

func TestClient_CreateThreadAndRun(t *testing.T) {
	var gotPath, gotBeta, gotAuth string
	var gotBody createThreadAndRunRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBeta = r.Header.Get("OpenAI-Beta")
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Run{ID: "run_1", ThreadID: "thread_1", Status: RunStatusQueued})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	run, err := client.CreateThreadAndRun(context.Background(), "asst_1", "find signals")
	if err != nil {
		t.Fatalf("CreateThreadAndRun() error = %v", err)
	}

	if gotPath != "/threads/runs" {
		t.Errorf("path = %v, want /threads/runs", gotPath)
	}
	if gotBeta != "assistants=v2" {
		t.Errorf("OpenAI-Beta = %v, want assistants=v2", gotBeta)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %v, want Bearer test-key", gotAuth)
	}
	if gotBody.AssistantID != "asst_1" {
		t.Errorf("assistant_id = %v, want asst_1", gotBody.AssistantID)
	}
	if len(gotBody.Thread.Messages) != 1 || gotBody.Thread.Messages[0].Content != "find signals" {
		t.Errorf("thread messages = %+v, want one user message", gotBody.Thread.Messages)
	}
	if run.ID != "run_1" || run.ThreadID != "thread_1" {
		t.Errorf("run = %+v, want run_1/thread_1", run)
	}
}

func TestClient_GetRun_RequiresAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/threads/thread_1/runs/run_1" {
			t.Errorf("path = %v", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Run{
			ID:       "run_1",
			ThreadID: "thread_1",
			Status:   RunStatusRequiresAction,
			RequiredAction: &RequiredAction{
				Type: "submit_tool_outputs",
				SubmitToolOutputs: &SubmitToolOutputs{
					ToolCalls: []ToolCall{{
						ID:   "call_1",
						Type: "function",
						Function: FunctionCall{
							Name:      "display_signal_card",
							Arguments: `{"title":"AI fridges"}`,
						},
					}},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	run, err := client.GetRun(context.Background(), "thread_1", "run_1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}

	if run.Status != RunStatusRequiresAction {
		t.Errorf("status = %v, want requires_action", run.Status)
	}
	calls := run.RequiredAction.SubmitToolOutputs.ToolCalls
	if len(calls) != 1 || calls[0].Function.Name != "display_signal_card" {
		t.Errorf("tool calls = %+v, want one display_signal_card call", calls)
	}
}

func TestClient_SubmitToolOutputs(t *testing.T) {
	var gotBody submitToolOutputsRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/threads/thread_1/runs/run_1/submit_tool_outputs" {
			t.Errorf("path = %v", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Run{ID: "run_1", ThreadID: "thread_1", Status: RunStatusInProgress})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	outputs := []ToolOutput{{ToolCallID: "call_1", Output: `{"status":"displayed"}`}}
	if _, err := client.SubmitToolOutputs(context.Background(), "thread_1", "run_1", outputs); err != nil {
		t.Fatalf("SubmitToolOutputs() error = %v", err)
	}

	if len(gotBody.ToolOutputs) != 1 || gotBody.ToolOutputs[0].ToolCallID != "call_1" {
		t.Errorf("tool_outputs = %+v, want echo of call_1", gotBody.ToolOutputs)
	}
}

func TestClient_ListMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/threads/thread_1/messages" {
			t.Errorf("path = %v", r.URL.Path)
		}
		json.NewEncoder(w).Encode(MessageList{Data: []Message{
			{ID: "msg_2", Role: "assistant", Content: []ContentBlock{{Type: "text", Text: &TextBlock{Value: "latest"}}}},
			{ID: "msg_1", Role: "user", Content: []ContentBlock{{Type: "text", Text: &TextBlock{Value: "older"}}}},
		}})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	list, err := client.ListMessages(context.Background(), "thread_1")
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}

	text, ok := list.FirstText()
	if !ok || text != "latest" {
		t.Errorf("FirstText() = %q, %v; want latest, true", text, ok)
	}
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"run_not_found","message":"No run found"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := client.GetRun(context.Background(), "thread_x", "run_x")
	if err == nil {
		t.Fatal("GetRun() error = nil, want APIError")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "run_not_found" {
		t.Errorf("apiErr = %+v, want 404/run_not_found", apiErr)
	}
}

func TestFirstText_Empty(t *testing.T) {
	var list *MessageList
	if _, ok := list.FirstText(); ok {
		t.Error("FirstText() on nil list = true, want false")
	}

	list = &MessageList{}
	if _, ok := list.FirstText(); ok {
		t.Error("FirstText() on empty list = true, want false")
	}
}

// TestClient_Live exercises the real API through the VCR recorder. Run with
// VCR_MODE=record and a real OPENAI_API_KEY to refresh the cassette.
func TestClient_Live(t *testing.T) {
	if os.Getenv("VCR_MODE") != "record" {
		if _, err := os.Stat(filepath.Join("testdata", "fixtures", "assistants_run.yaml")); err != nil {
			t.Skip("no cassette recorded; set VCR_MODE=record with OPENAI_API_KEY to create one")
		}
	} else if os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("OPENAI_API_KEY not set")
	}

	recorder, cleanup := testutil.NewVCRRecorder(t, "assistants_run")
	defer cleanup()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = "test-key"
	}
	assistantID := os.Getenv("ASSISTANT_ID")
	if assistantID == "" {
		assistantID = "asst_test"
	}

	client := NewClient(apiKey, WithHTTPClient(testutil.VCRHTTPClient(recorder)))

	run, err := client.CreateThreadAndRun(context.Background(), assistantID, "Scan for one weak signal about battery recycling.")
	if err != nil {
		t.Fatalf("CreateThreadAndRun() error = %v", err)
	}
	if run.ID == "" || run.ThreadID == "" {
		t.Errorf("run = %+v, want populated ids", run)
	}
}
