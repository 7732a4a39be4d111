package assistants

import (
	"encoding/json"
	"fmt"
)

// RunStatus is the lifecycle state of a remote run. The remote service owns
// the authoritative state machine; this enum is a client-side reflection.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
)

// IsTerminal reports whether the run can make no further progress.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

// Run is one remote conversational exchange. Held only for the duration of
// a single chat request, never persisted.
type Run struct {
	ID             string          `json:"id"`
	ThreadID       string          `json:"thread_id"`
	Status         RunStatus       `json:"status"`
	RequiredAction *RequiredAction `json:"required_action,omitempty"`
	LastError      *RunError       `json:"last_error,omitempty"`
}

type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RequiredAction struct {
	Type              string             `json:"type"`
	SubmitToolOutputs *SubmitToolOutputs `json:"submit_tool_outputs,omitempty"`
}

type SubmitToolOutputs struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

// ToolCall is one function-invocation request surfaced by a run in the
// requires_action state. ID must be echoed back when reporting output.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name string `json:"name"`
	// Arguments is a JSON object encoded as a string, per the vendor wire
	// format.
	Arguments string `json:"arguments"`
}

type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// Message is one thread message. Content arrives as typed blocks; only text
// blocks are meaningful here.
type Message struct {
	ID      string         `json:"id"`
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

type ContentBlock struct {
	Type string     `json:"type"`
	Text *TextBlock `json:"text,omitempty"`
}

type TextBlock struct {
	Value string `json:"value"`
}

// MessageList is the vendor's message listing envelope, most-recent-first.
type MessageList struct {
	Data []Message `json:"data"`
}

// FirstText returns the text of the most recent message, or "" and false
// when the list is empty or the message carries no text block.
func (l *MessageList) FirstText() (string, bool) {
	if l == nil || len(l.Data) == 0 {
		return "", false
	}
	for _, block := range l.Data[0].Content {
		if block.Type == "text" && block.Text != nil {
			return block.Text.Value, true
		}
	}
	return "", false
}

type createThreadAndRunRequest struct {
	AssistantID string        `json:"assistant_id"`
	Thread      threadRequest `json:"thread"`
}

type threadRequest struct {
	Messages []threadMessage `json:"messages"`
}

type threadMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type submitToolOutputsRequest struct {
	ToolOutputs []ToolOutput `json:"tool_outputs"`
}

// APIError is a decoded vendor error response.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assistants API error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// ParseErrorResponse decodes a non-2xx body into an APIError, returning nil
// when the body does not carry the vendor error envelope.
func ParseErrorResponse(statusCode int, body []byte) *APIError {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return nil
	}
	envelope.Error.StatusCode = statusCode
	return envelope.Error
}
