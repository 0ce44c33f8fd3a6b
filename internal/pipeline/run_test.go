package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/shorts-planner/internal/brief"
	"github.com/jonathan/shorts-planner/internal/llm"
)

const goodResponse = "```json\n" + `{
	"titleEnglish": "Glitter Slime Squeeze",
	"titleLocal": "超療癒史萊姆",
	"primaryPrompt": "photorealistic macro shot of glitter slime, 4k, slow motion",
	"scriptEnglish": "0-3s press, 3-6s pull, 6-9s swirl",
	"scriptLocal": "0-3秒壓,3-6秒拉,6-9秒漩渦",
	"tags": "#Slime #Veo #Relax",
	"comment": "留言告訴我你的感覺"
}` + "\n```"

// scriptedClient returns canned responses per model, in order, and records
// every call.
type scriptedClient struct {
	responses map[string][]scriptedResponse
	calls     []string
}

type scriptedResponse struct {
	raw *llm.RawResponse
	err error
}

func (c *scriptedClient) Generate(_ context.Context, model, _ string) (*llm.RawResponse, error) {
	c.calls = append(c.calls, model)
	queue := c.responses[model]
	if len(queue) == 0 {
		return nil, fmt.Errorf("unscripted call for model %s", model)
	}
	next := queue[0]
	c.responses[model] = queue[1:]
	return next.raw, next.err
}

func (c *scriptedClient) Close() error { return nil }

func succeed(text string) scriptedResponse {
	return scriptedResponse{raw: &llm.RawResponse{
		Text:  text,
		Usage: llm.TokenUsage{Input: 100, Output: 200, Total: 300},
	}}
}

func fail(model string, kind llm.ErrorKind) scriptedResponse {
	return scriptedResponse{err: &llm.GenerationError{Kind: kind, Model: model, Cause: errors.New("scripted failure")}}
}

func newTestOrchestrator(client llm.Client, opts Options) *Orchestrator {
	o := New(client, opts)
	o.sleep = func(_ context.Context, _ time.Duration) error { return nil }
	return o
}

func testMedia() brief.SourceMedia {
	return brief.SourceMedia{ID: "dQw4w9WgXcQ", Title: "Rainbow slime", Channel: "Calm Corner"}
}

func TestRun_SuccessFirstModel(t *testing.T) {
	client := &scriptedClient{responses: map[string][]scriptedResponse{
		"flash": {succeed(goodResponse)},
	}}
	o := newTestOrchestrator(client, Options{Models: []string{"flash"}})

	result, err := o.Run(context.Background(), testMedia())
	require.NoError(t, err)

	assert.Equal(t, "flash", result.Model)
	assert.Equal(t, "Glitter Slime Squeeze", result.Brief.TitleEnglish)
	// Vendor tag dropped, marker appended
	assert.Equal(t, []string{"#Slime", "#Relax", "#AI"}, result.Brief.Tags)
	assert.Equal(t, int32(300), result.Usage.Total)
	assert.Equal(t, []string{"flash"}, client.calls)
}

func TestRun_FallsBackOnUnavailableModel(t *testing.T) {
	client := &scriptedClient{responses: map[string][]scriptedResponse{
		"retired": {fail("retired", llm.KindModelUnavailable)},
		"flash":   {succeed(goodResponse)},
	}}
	o := newTestOrchestrator(client, Options{Models: []string{"retired", "flash"}})

	result, err := o.Run(context.Background(), testMedia())
	require.NoError(t, err)

	assert.Equal(t, "flash", result.Model)
	// Unavailable model is abandoned after a single call
	assert.Equal(t, []string{"retired", "flash"}, client.calls)
}

func TestRun_RetriesRateLimitedThenSucceeds(t *testing.T) {
	client := &scriptedClient{responses: map[string][]scriptedResponse{
		"flash": {
			fail("flash", llm.KindRateLimited),
			fail("flash", llm.KindRateLimited),
			succeed(goodResponse),
		},
	}}

	var slept []time.Duration
	o := New(client, Options{Models: []string{"flash"}, MaxAttemptsPerModel: 3, Backoff: 20 * time.Second})
	o.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	result, err := o.Run(context.Background(), testMedia())
	require.NoError(t, err)

	assert.Equal(t, "flash", result.Model)
	assert.Equal(t, []string{"flash", "flash", "flash"}, client.calls)
	assert.Equal(t, []time.Duration{20 * time.Second, 20 * time.Second}, slept)
}

func TestRun_ExhaustsAllModels(t *testing.T) {
	client := &scriptedClient{responses: map[string][]scriptedResponse{
		"flash": {
			fail("flash", llm.KindRateLimited),
			fail("flash", llm.KindRateLimited),
		},
		"pro": {fail("pro", llm.KindModelUnavailable)},
	}}
	o := newTestOrchestrator(client, Options{Models: []string{"flash", "pro"}, MaxAttemptsPerModel: 2})

	_, err := o.Run(context.Background(), testMedia())
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	require.Len(t, exhausted.Trail, 2)

	assert.Equal(t, "flash", exhausted.Trail[0].Model)
	assert.Equal(t, 2, exhausted.Trail[0].Attempts)
	assert.Equal(t, llm.KindRateLimited, exhausted.Trail[0].Kind)

	assert.Equal(t, "pro", exhausted.Trail[1].Model)
	assert.Equal(t, 1, exhausted.Trail[1].Attempts)
	assert.Equal(t, llm.KindModelUnavailable, exhausted.Trail[1].Kind)
}

func TestRun_NoCandidateModels(t *testing.T) {
	client := &scriptedClient{responses: map[string][]scriptedResponse{}}
	o := newTestOrchestrator(client, Options{})

	_, err := o.Run(context.Background(), testMedia())
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Empty(t, exhausted.Trail)
	assert.Equal(t, "no candidate models to try", err.Error())
	assert.Empty(t, client.calls)
}

func TestRun_UnknownErrorFailsImmediately(t *testing.T) {
	client := &scriptedClient{responses: map[string][]scriptedResponse{
		"flash": {fail("flash", llm.KindUnknown)},
		"pro":   {succeed(goodResponse)},
	}}
	o := newTestOrchestrator(client, Options{Models: []string{"flash", "pro"}})

	_, err := o.Run(context.Background(), testMedia())
	require.Error(t, err)

	// No fallback and no retry for unclassified errors
	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, StateRequesting, runErr.State)
	assert.Equal(t, "flash", runErr.Model)
	assert.Equal(t, []string{"flash"}, client.calls)
}

func TestRun_MalformedOutputFailsWithoutRetry(t *testing.T) {
	client := &scriptedClient{responses: map[string][]scriptedResponse{
		"flash": {succeed("I'm sorry, I can't produce JSON today.")},
	}}
	o := newTestOrchestrator(client, Options{Models: []string{"flash"}})

	_, err := o.Run(context.Background(), testMedia())
	require.Error(t, err)

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, StateExtracting, runErr.State)

	var merr *brief.MalformedOutputError
	assert.True(t, errors.As(err, &merr))
	// The model answered once and is never re-asked
	assert.Equal(t, []string{"flash"}, client.calls)
}

func TestRun_ContextCancelledDuringBackoff(t *testing.T) {
	client := &scriptedClient{responses: map[string][]scriptedResponse{
		"flash": {
			fail("flash", llm.KindRateLimited),
			succeed(goodResponse),
		},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	o := New(client, Options{Models: []string{"flash"}})
	o.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := o.Run(ctx, testMedia())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"flash"}, client.calls)
}

func TestRun_EmitsProgressEvents(t *testing.T) {
	client := &scriptedClient{responses: map[string][]scriptedResponse{
		"flash": {succeed(goodResponse)},
	}}

	var states []State
	o := newTestOrchestrator(client, Options{
		Models: []string{"flash"},
		OnProgress: func(ev ProgressEvent) {
			states = append(states, ev.State)
		},
	})

	_, err := o.Run(context.Background(), testMedia())
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateSelectingModel,
		StateRequesting,
		StateExtracting,
		StateFiltering,
		StateSucceeded,
	}, states)
}

func TestSleepContext(t *testing.T) {
	t.Run("elapses", func(t *testing.T) {
		err := sleepContext(context.Background(), time.Millisecond)
		assert.NoError(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := sleepContext(ctx, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
