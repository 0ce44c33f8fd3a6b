package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/shorts-planner/internal/brief"
	"github.com/jonathan/shorts-planner/internal/llm"
	"github.com/jonathan/shorts-planner/internal/media"
	"github.com/jonathan/shorts-planner/internal/pipeline"
	"github.com/jonathan/shorts-planner/internal/sink"
	"github.com/jonathan/shorts-planner/internal/store"
)

// GenerateRequest is the request body for POST /generate. Exactly one of
// video_url and query must be set.
type GenerateRequest struct {
	VideoURL string `json:"video_url" validate:"omitempty,url"`
	Query    string `json:"query" validate:"omitempty,min=2"`
	Variant  string `json:"variant" validate:"omitempty,oneof=single dual"`
}

// GenerateResponse is the response body for a successful POST /generate.
type GenerateResponse struct {
	RunID    string               `json:"run_id,omitempty"`
	Model    string               `json:"model"`
	Brief    *brief.CreativeBrief `json:"brief"`
	Usage    llm.TokenUsage       `json:"usage"`
	Source   brief.SourceMedia    `json:"source"`
	Appended bool                 `json:"appended"`
}

// handleGenerate runs the pipeline synchronously and returns the finished
// brief.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGenerateRequest(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	source, err := s.resolveMedia(ctx, req)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	resp, err := s.runPipeline(ctx, req, *source, nil)
	if err != nil {
		status, body := pipelineErrorResponse(err)
		s.jsonResponse(w, status, body)
		return
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleGenerateStream runs the pipeline and streams progress events over
// SSE, ending with a "complete" event carrying the brief or an "error" event.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGenerateRequest(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := r.Context()
	source, err := s.resolveMedia(ctx, req)
	if err != nil {
		sse.WriteError(err.Error())
		return
	}
	sse.WriteEvent("source", source) //nolint:errcheck

	// The orchestrator is synchronous, so progress callbacks run on this
	// goroutine and can write to the stream directly.
	onProgress := func(ev pipeline.ProgressEvent) {
		sse.WriteEvent("progress", ev) //nolint:errcheck
	}

	resp, err := s.runPipeline(ctx, req, *source, onProgress)
	if err != nil {
		_, body := pipelineErrorResponse(err)
		sse.WriteEvent("error", body) //nolint:errcheck
		return
	}

	sse.WriteEvent("complete", resp) //nolint:errcheck
}

// handleModels reports the candidate models in the order the pipeline would
// try them.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.candidateModels(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string][]string{"models": models})
}

// decodeGenerateRequest parses and validates the request body. On failure it
// writes the error response and returns ok=false.
func (s *Server) decodeGenerateRequest(w http.ResponseWriter, r *http.Request) (GenerateRequest, bool) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	if (req.VideoURL == "") == (req.Query == "") {
		s.errorResponse(w, http.StatusBadRequest, "exactly one of 'video_url' and 'query' must be set")
		return req, false
	}
	return req, true
}

// resolveMedia turns the request's source selector into video metadata.
func (s *Server) resolveMedia(ctx context.Context, req GenerateRequest) (*brief.SourceMedia, error) {
	if s.deps.Lookup == nil {
		return nil, fmt.Errorf("media lookup is not configured")
	}

	if req.VideoURL != "" {
		id := media.ExtractVideoID(req.VideoURL)
		if id == "" {
			return nil, fmt.Errorf("no video ID found in URL %q", req.VideoURL)
		}
		return s.deps.Lookup.LookupVideo(ctx, id)
	}

	results, err := s.deps.Lookup.Search(ctx, req.Query, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no video found for query %q", req.Query)
	}
	return &results[0], nil
}

// candidateModels returns the priority-ordered model list for a run.
func (s *Server) candidateModels(ctx context.Context) ([]string, error) {
	if len(s.deps.Models) > 0 {
		return append([]string(nil), s.deps.Models...), nil
	}
	available, err := s.deps.Directory.UsableModels(ctx)
	if err != nil {
		return nil, err
	}
	return llm.Prioritize(available, s.deps.Preferred), nil
}

// runPipeline executes one run, recording it in the optional store and
// appending the finished row to the optional sink.
func (s *Server) runPipeline(ctx context.Context, req GenerateRequest, source brief.SourceMedia, onProgress pipeline.ProgressCallback) (*GenerateResponse, error) {
	models, err := s.candidateModels(ctx)
	if err != nil {
		return nil, err
	}

	variant := s.deps.Variant
	if req.Variant != "" {
		variant = brief.Variant(req.Variant)
	}

	var runID string
	if s.deps.Store != nil {
		id, err := s.deps.Store.CreateRun(ctx, source.ID)
		if err != nil {
			log.Printf("run history unavailable: %v", err)
		} else {
			runID = id.String()
		}
	}

	orch := pipeline.New(s.deps.Client, pipeline.Options{
		Models:              models,
		MaxAttemptsPerModel: s.deps.MaxAttemptsPerModel,
		Backoff:             s.deps.Backoff,
		Variant:             variant,
		OnProgress:          onProgress,
	})

	result, err := orch.Run(ctx, source)
	if err != nil {
		s.finishRun(ctx, runID, store.StatusFailed, "")
		return nil, err
	}

	resp := &GenerateResponse{
		RunID:  runID,
		Model:  result.Model,
		Brief:  result.Brief,
		Usage:  result.Usage,
		Source: source,
	}

	if s.deps.Sink != nil {
		row := sink.BuildRow(result.Brief, source, time.Now())
		if err := s.deps.Sink.Append(ctx, row); err != nil {
			// The brief is still returned; the caller can re-append.
			log.Printf("sheet append failed: %v", err)
		} else {
			resp.Appended = true
		}
	}

	if s.deps.Store != nil && runID != "" {
		if id, perr := uuid.Parse(runID); perr == nil {
			if err := s.deps.Store.SaveBrief(ctx, id, result.Brief); err != nil {
				log.Printf("brief history write failed: %v", err)
			}
		}
	}
	s.finishRun(ctx, runID, store.StatusSucceeded, result.Model)

	return resp, nil
}

func (s *Server) finishRun(ctx context.Context, runID, status, model string) {
	if s.deps.Store == nil || runID == "" {
		return
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return
	}
	if err := s.deps.Store.CompleteRun(ctx, id, status, model); err != nil {
		log.Printf("run history update failed: %v", err)
	}
}

// pipelineErrorResponse maps pipeline failures to HTTP responses: malformed
// model output and exhausted candidates are upstream faults, not client ones.
func pipelineErrorResponse(err error) (int, map[string]any) {
	var exhausted *pipeline.ExhaustedError
	if errors.As(err, &exhausted) {
		trail := make([]map[string]any, 0, len(exhausted.Trail))
		for _, a := range exhausted.Trail {
			trail = append(trail, map[string]any{
				"model":    a.Model,
				"attempts": a.Attempts,
				"kind":     string(a.Kind),
			})
		}
		return http.StatusServiceUnavailable, map[string]any{
			"error": "all candidate models exhausted",
			"trail": trail,
		}
	}

	var malformed *brief.MalformedOutputError
	if errors.As(err, &malformed) {
		body := map[string]any{"error": malformed.Error()}
		if len(malformed.Missing) > 0 {
			body["missing"] = malformed.Missing
		}
		return http.StatusBadGateway, body
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, map[string]any{"error": err.Error()}
	}

	return http.StatusBadGateway, map[string]any{"error": err.Error()}
}
