package scan

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	saltMin = 1000
	saltMax = 9999
)

// PromptInput is everything the composer folds into the outbound query.
type PromptInput struct {
	Message     string
	TimeFilter  string
	SourceTypes []string
	TechMode    bool
	// PriorTitles seeds the dedupe blocklist; blanks and the literal
	// "Title" header value are stripped before use.
	PriorTitles []string
}

// ComposePrompt builds the query sent to the assistant. Clause order is
// fixed: message, technical constraint, source-type priority, time horizon,
// randomizing salt, dedupe blocklist. The salt discourages the remote model
// from repeating cached outputs across near-identical queries.
//
// rng may be nil, in which case the shared math/rand source draws the salt.
// A *rand.Rand is not safe for concurrent use, so callers handling parallel
// requests should pass nil.
func ComposePrompt(in PromptInput, rng *rand.Rand) string {
	var b strings.Builder
	b.WriteString(in.Message)

	if in.TechMode {
		b.WriteString("\n\nCONSTRAINT: This is a TECHNICAL HORIZON SCAN. Focus ONLY on emerging hardware, software, materials, or biotech. Ignore purely cultural trends.")
	}

	if len(in.SourceTypes) > 0 {
		b.WriteString("\n\nCONSTRAINT: Prioritize findings from these specific source types: ")
		b.WriteString(strings.Join(in.SourceTypes, ", "))
		b.WriteString(".")
	}

	fmt.Fprintf(&b, "\n\nCONSTRAINT: Time Horizon is '%s'. Ensure signals are recent.", in.TimeFilter)

	salt := saltMin
	if rng != nil {
		salt += rng.Intn(saltMax - saltMin + 1)
	} else {
		salt += rand.Intn(saltMax - saltMin + 1)
	}
	fmt.Fprintf(&b, "\n\n[System Note: Random Seed %d]", salt)

	if blocklist := cleanTitles(in.PriorTitles); len(blocklist) > 0 {
		quoted := make([]string, len(blocklist))
		for i, t := range blocklist {
			quoted[i] = fmt.Sprintf("%q", t)
		}
		b.WriteString("\n\nIMPORTANT: Do NOT return these titles (user has already saved them): ")
		b.WriteString(strings.Join(quoted, ", "))
	}

	return b.String()
}

// cleanTitles drops blank entries and the column-header value "Title" that
// leaks in when the backing store is a spreadsheet export.
func cleanTitles(titles []string) []string {
	var out []string
	for _, t := range titles {
		if strings.TrimSpace(t) == "" || strings.EqualFold(t, "title") {
			continue
		}
		out = append(out, t)
	}
	return out
}
