// Package scan drives one horizon-scan exchange against the remote
// assistant: prompt composition, the run poll loop, tool-call normalization,
// and result shaping.
package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trendscout/horizon/internal/api/assistants"
	"github.com/trendscout/horizon/internal/tokens"
)

// ErrScanTimeout marks a run that never reached a handled state within the
// poll budget. The remote service imposes no such bound itself.
var ErrScanTimeout = errors.New("scan timed out waiting for run to progress")

// toolDisplaySignalCard is the only tool this orchestrator handles; calls to
// any other function are ignored without error.
const toolDisplaySignalCard = "display_signal_card"

// toolOutputDisplayed acknowledges a rendered card back to the run.
const toolOutputDisplayed = `{"status": "displayed"}`

// RunDriver is the slice of the assistants client the orchestrator needs.
type RunDriver interface {
	CreateThreadAndRun(ctx context.Context, assistantID, prompt string) (*assistants.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*assistants.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistants.ToolOutput) (*assistants.Run, error)
	ListMessages(ctx context.Context, threadID string) (*assistants.MessageList, error)
}

// TitleSource supplies previously saved titles for the dedupe blocklist.
type TitleSource interface {
	ListRecentTitles(ctx context.Context, limit int) ([]string, error)
}

// Request is one incoming chat query with its scan constraints.
type Request struct {
	Message     string
	TimeFilter  string
	SourceTypes []string
	TechMode    bool
}

// Options tune the poll loop.
type Options struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
	DedupeLimit  int
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = 2 * time.Minute
	}
	if o.DedupeLimit <= 0 {
		o.DedupeLimit = 50
	}
	return o
}

// Orchestrator runs the client-side reflection of the remote run state
// machine. One Scan call per incoming chat request; no state is shared
// between requests.
type Orchestrator struct {
	driver      RunDriver
	titles      TitleSource
	assistantID string
	opts        Options
	logger      *slog.Logger
	estimator   *tokens.Estimator
}

// New creates an orchestrator bound to one assistant identity. titles may be
// nil, in which case no blocklist is composed.
func New(driver RunDriver, titles TitleSource, assistantID string, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		driver:      driver,
		titles:      titles,
		assistantID: assistantID,
		opts:        opts.withDefaults(),
		logger:      logger,
		estimator:   tokens.NewEstimator(),
	}
}

// Scan submits the query to the remote assistant and drives the run until a
// usable outcome. Errors are returned only when no run context exists to
// recover into (run creation failure) or the remote calls themselves fail;
// terminal run failures degrade into a text Result.
func (o *Orchestrator) Scan(ctx context.Context, req Request) (*Result, error) {
	prompt := o.composePrompt(ctx, req)

	promptTokens := o.estimator.Estimate(prompt)
	o.logger.Info("starting scan",
		slog.String("time_filter", req.TimeFilter),
		slog.Bool("tech_mode", req.TechMode),
		slog.Int("source_types", len(req.SourceTypes)),
		slog.Int("prompt_tokens", promptTokens),
	)
	if promptTokens > tokens.PromptSoftBudget {
		o.logger.Warn("composed prompt exceeds soft token budget",
			slog.Int("prompt_tokens", promptTokens),
			slog.Int("budget", tokens.PromptSoftBudget),
		)
	}

	run, err := o.driver.CreateThreadAndRun(ctx, o.assistantID, prompt)
	if err != nil {
		// No run exists yet, so there is nothing to degrade into.
		return nil, fmt.Errorf("create run: %w", err)
	}

	return o.pollUntilDone(ctx, run)
}

// composePrompt folds the dedupe blocklist into the prompt. Title fetch
// failure is swallowed: losing dedupe context must never block the scan.
func (o *Orchestrator) composePrompt(ctx context.Context, req Request) string {
	var prior []string
	if o.titles != nil {
		titles, err := o.titles.ListRecentTitles(ctx, o.opts.DedupeLimit)
		if err != nil {
			o.logger.Warn("dedupe title fetch failed, continuing without blocklist",
				slog.String("error", err.Error()))
		} else {
			prior = titles
		}
	}

	return ComposePrompt(PromptInput{
		Message:     req.Message,
		TimeFilter:  req.TimeFilter,
		SourceTypes: req.SourceTypes,
		TechMode:    req.TechMode,
		PriorTitles: prior,
	}, nil)
}

func (o *Orchestrator) pollUntilDone(ctx context.Context, run *assistants.Run) (*Result, error) {
	deadline := time.Now().Add(o.opts.PollTimeout)

	for {
		current, err := o.driver.GetRun(ctx, run.ThreadID, run.ID)
		if err != nil {
			return nil, fmt.Errorf("poll run %s: %w", run.ID, err)
		}

		switch current.Status {
		case assistants.RunStatusRequiresAction:
			result, err := o.handleRequiredAction(ctx, current)
			if err != nil {
				return nil, err
			}
			if result != nil {
				return result, nil
			}
			// No usable tool call this round; keep polling.

		case assistants.RunStatusCompleted:
			return o.fetchFinalMessage(ctx, current)

		case assistants.RunStatusFailed, assistants.RunStatusCancelled, assistants.RunStatusExpired:
			if current.LastError != nil {
				o.logger.Warn("run ended in terminal failure",
					slog.String("run_id", current.ID),
					slog.String("status", string(current.Status)),
					slog.String("code", current.LastError.Code),
					slog.String("message", current.LastError.Message),
				)
			}
			return textResult(fallbackRunFailed), nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("run %s stuck in %s: %w", current.ID, current.Status, ErrScanTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.opts.PollInterval):
		}
	}
}

// handleRequiredAction dispatches the run's pending tool calls. It returns a
// signal_list result as soon as any card was produced: the caller gets its
// cards without waiting for the remote run to reach completed. That early
// return is deliberate (latency over run-completeness bookkeeping), not a
// missing wait.
func (o *Orchestrator) handleRequiredAction(ctx context.Context, run *assistants.Run) (*Result, error) {
	if run.RequiredAction == nil || run.RequiredAction.SubmitToolOutputs == nil {
		return nil, nil
	}

	var cards []SignalCard
	var outputs []assistants.ToolOutput

	for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
		if call.Function.Name != toolDisplaySignalCard {
			continue
		}

		var args map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			// A malformed call is a local fault of that call only.
			o.logger.Warn("skipping tool call with malformed arguments",
				slog.String("call_id", call.ID),
				slog.String("error", err.Error()))
			continue
		}

		cards = append(cards, NormalizeCard(args))
		outputs = append(outputs, assistants.ToolOutput{
			ToolCallID: call.ID,
			Output:     toolOutputDisplayed,
		})
	}

	if len(outputs) > 0 {
		if _, err := o.driver.SubmitToolOutputs(ctx, run.ThreadID, run.ID, outputs); err != nil {
			return nil, fmt.Errorf("submit tool outputs for run %s: %w", run.ID, err)
		}
	}

	if len(cards) > 0 {
		return signalListResult(cards), nil
	}
	return nil, nil
}

func (o *Orchestrator) fetchFinalMessage(ctx context.Context, run *assistants.Run) (*Result, error) {
	messages, err := o.driver.ListMessages(ctx, run.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("list messages for thread %s: %w", run.ThreadID, err)
	}

	if text, ok := messages.FirstText(); ok {
		return textResult(text), nil
	}
	return textResult(fallbackNoSignals), nil
}
