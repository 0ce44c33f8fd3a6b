package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/shorts-planner/internal/brief"
	"github.com/jonathan/shorts-planner/internal/llm"
)

// Defaults for retry behavior. Rate-limit windows on the free tier reset on
// the order of tens of seconds, hence the backoff magnitude.
const (
	DefaultMaxAttemptsPerModel = 3
	DefaultBackoff             = 20 * time.Second
)

// ProgressEvent reports one state transition of a running pipeline.
type ProgressEvent struct {
	State   State  `json:"state"`
	Model   string `json:"model,omitempty"`
	Attempt int    `json:"attempt,omitempty"`
	Message string `json:"message,omitempty"`
}

// ProgressCallback is called on every state transition when configured.
type ProgressCallback func(event ProgressEvent)

// Options configures an Orchestrator run.
type Options struct {
	// Models is the priority-ordered candidate list. Earlier entries are
	// preferred; later ones are fallbacks.
	Models []string
	// MaxAttemptsPerModel bounds retries against one model on rate limiting
	// before advancing to the next candidate.
	MaxAttemptsPerModel int
	// Backoff is the delay between retries against the same model.
	Backoff time.Duration
	// Variant selects the single- or dual-engine output contract.
	Variant brief.Variant
	// OnProgress observes state transitions; may be nil.
	OnProgress ProgressCallback
}

// Result is the outcome of a successful run: the filtered brief, which model
// produced it, and the backend's token counters for cost accounting.
type Result struct {
	Brief *brief.CreativeBrief
	Model string
	Usage llm.TokenUsage
}

// Orchestrator walks one source video through prompt building, generation,
// extraction, and tag filtering, handling rate limits and dead models along
// the way. It is synchronous: Run blocks until a terminal state.
type Orchestrator struct {
	client llm.Client
	opts   Options

	// sleep is the cancellable backoff delay; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Orchestrator. Zero option fields take defaults; an empty
// model list makes every run fail with ExhaustedError.
func New(client llm.Client, opts Options) *Orchestrator {
	if opts.MaxAttemptsPerModel <= 0 {
		opts.MaxAttemptsPerModel = DefaultMaxAttemptsPerModel
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.Variant == "" {
		opts.Variant = brief.VariantSingle
	}
	return &Orchestrator{client: client, opts: opts, sleep: sleepContext}
}

// errModelExhausted signals internally that the current candidate is done
// for and the orchestrator should advance to the next one.
var errModelExhausted = errors.New("candidate model exhausted")

// Run executes the pipeline for one source video. On success it returns the
// brief produced by the first model that answered well. Terminal failures
// are *RunError (unknown generation error, malformed output) or
// *ExhaustedError (every candidate rejected). A malformed response is never
// re-parsed or retried; re-running the whole pipeline re-prompts instead.
func (o *Orchestrator) Run(ctx context.Context, media brief.SourceMedia) (*Result, error) {
	prompt := brief.BuildPrompt(media, o.opts.Variant)

	var trail []Attempt
	for _, model := range o.opts.Models {
		o.emit(StateSelectingModel, model, 0, "trying candidate model")

		raw, err := o.requestModel(ctx, model, prompt, &trail)
		if err != nil {
			if errors.Is(err, errModelExhausted) {
				continue
			}
			var gerr *llm.GenerationError
			if errors.As(err, &gerr) {
				runErr := &RunError{State: StateRequesting, Model: model, Err: err}
				o.emit(StateFailed, model, 0, runErr.Error())
				return nil, runErr
			}
			// Context cancellation and other non-generation errors
			// propagate untouched.
			return nil, err
		}

		o.emit(StateExtracting, model, 0, "parsing structured payload")
		rb, err := brief.ExtractBrief(raw.Text)
		if err != nil {
			runErr := &RunError{State: StateExtracting, Model: model, Err: err}
			o.emit(StateFailed, model, 0, runErr.Error())
			return nil, runErr
		}

		o.emit(StateFiltering, model, 0, "applying tag policy")
		result := &Result{Brief: rb.Brief(), Model: model, Usage: raw.Usage}
		o.emit(StateSucceeded, model, 0, "brief ready")
		return result, nil
	}

	exhausted := &ExhaustedError{Trail: trail}
	o.emit(StateFailed, "", 0, exhausted.Error())
	return nil, exhausted
}

// requestModel issues up to MaxAttemptsPerModel calls against one model.
// Rate-limited and transient failures retry after a cancellable backoff;
// an unavailable model is abandoned immediately. Both paths append to the
// trail and return errModelExhausted. Unknown errors return as-is.
func (o *Orchestrator) requestModel(ctx context.Context, model, prompt string, trail *[]Attempt) (*llm.RawResponse, error) {
	for attempt := 1; attempt <= o.opts.MaxAttemptsPerModel; attempt++ {
		o.emit(StateRequesting, model, attempt, "")

		raw, err := o.client.Generate(ctx, model, prompt)
		if err == nil {
			return raw, nil
		}

		var gerr *llm.GenerationError
		if !errors.As(err, &gerr) {
			return nil, err
		}

		switch gerr.Kind {
		case llm.KindRateLimited, llm.KindTransient:
			if attempt == o.opts.MaxAttemptsPerModel {
				*trail = append(*trail, Attempt{Model: model, Attempts: attempt, Kind: gerr.Kind, Err: err})
				return nil, errModelExhausted
			}
			o.emit(StateRequesting, model, attempt, fmt.Sprintf("%s; backing off %s", gerr.Kind, o.opts.Backoff))
			if serr := o.sleep(ctx, o.opts.Backoff); serr != nil {
				return nil, serr
			}
		case llm.KindModelUnavailable:
			*trail = append(*trail, Attempt{Model: model, Attempts: attempt, Kind: gerr.Kind, Err: err})
			return nil, errModelExhausted
		default:
			return nil, err
		}
	}
	// Unreachable: the rate-limited arm returns on the final attempt.
	return nil, errModelExhausted
}

func (o *Orchestrator) emit(state State, model string, attempt int, message string) {
	if o.opts.OnProgress != nil {
		o.opts.OnProgress(ProgressEvent{State: state, Model: model, Attempt: attempt, Message: message})
	}
}

// sleepContext waits for d or until the context is cancelled, whichever
// comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
