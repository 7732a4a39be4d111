package scan

// SignalCard is the normalized output of one display_signal_card tool call.
// It keeps whatever fields the assistant supplied; NormalizeCard guarantees
// final_url and ui_type on top of them.
type SignalCard map[string]any

// Result is the terminal output of one scan: exactly one of Items (ui_type
// "signal_list") or Content (ui_type "text") is populated.
type Result struct {
	UIType  string       `json:"ui_type"`
	Items   []SignalCard `json:"items,omitempty"`
	Content string       `json:"content,omitempty"`
}

const (
	uiTypeSignalList = "signal_list"
	uiTypeText       = "text"
	uiTypeSignalCard = "signal_card"
)

// Fallback copy for runs that end without usable output.
const (
	fallbackNoSignals = "Scan complete, but no signals generated."
	fallbackRunFailed = "I encountered an error processing that signal."
)

func signalListResult(items []SignalCard) *Result {
	return &Result{UIType: uiTypeSignalList, Items: items}
}

func textResult(content string) *Result {
	return &Result{UIType: uiTypeText, Content: content}
}
