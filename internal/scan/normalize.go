package scan

import "strings"

const searchURLPrefix = "https://www.google.com/search?q="

// NormalizeCard turns decoded tool-call arguments into a presentable signal
// card. It is total: whatever the arguments hold, the returned card carries a
// non-empty final_url (the supplied sourceURL/url, else a web search over the
// title) and the signal_card ui_type. Deterministic in its inputs, so
// re-normalizing an already-normalized card with a source URL is a no-op for
// final_url.
func NormalizeCard(args map[string]any) SignalCard {
	card := SignalCard{}
	for k, v := range args {
		card[k] = v
	}

	url := stringField(card, "sourceURL")
	if url == "" {
		url = stringField(card, "url")
	}
	if url == "" {
		query := strings.ReplaceAll(stringField(card, "title"), " ", "+")
		url = searchURLPrefix + query
	}

	card["final_url"] = url
	card["ui_type"] = uiTypeSignalCard
	return card
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
