// Package tokens estimates prompt sizes before they are sent to the remote
// assistant. Estimates feed logging only; a failed count never blocks a scan.
package tokens

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// PromptSoftBudget is the token count above which the composed prompt is
// worth a warning. The dedupe blocklist is the usual culprit when a prompt
// grows past it.
const PromptSoftBudget = 4000

// Estimator counts tokens with the cl100k_base encoding the assistant models
// use, falling back to a characters/4 heuristic when the codec is
// unavailable.
type Estimator struct {
	once  sync.Once
	codec tokenizer.Codec
}

// NewEstimator creates an Estimator. The codec is loaded lazily on first use.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate returns the approximate token count of text. Never fails.
func (e *Estimator) Estimate(text string) int {
	e.once.Do(func() {
		codec, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			e.codec = codec
		}
	})

	if e.codec != nil {
		if ids, _, err := e.codec.Encode(text); err == nil {
			return len(ids)
		}
	}

	// Rough heuristic: one token per four characters of English text.
	return len(text) / 4
}
