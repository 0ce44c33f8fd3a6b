package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// TokenUsage carries the backend's token counters for one call. The pipeline
// passes these through for cost accounting and never interprets them.
type TokenUsage struct {
	Input  int32 `json:"input"`
	Output int32 `json:"output"`
	Total  int32 `json:"total"`
}

// RawResponse is the unparsed result of one generation call. It lives only
// until extraction succeeds or the attempt is abandoned.
type RawResponse struct {
	Text  string
	Usage TokenUsage
}

// Client is the generation backend abstraction. The orchestrator depends on
// this interface so tests can substitute a scripted implementation.
type Client interface {
	// Generate invokes the named model with a prompt and returns its raw
	// text. Failures are *GenerationError values classified by kind.
	Generate(ctx context.Context, model, prompt string) (*RawResponse, error)
	// Close releases any resources held by the client.
	Close() error
}

// GeminiClient implements Client on the Google Gemini API.
type GeminiClient struct {
	client      *genai.Client
	temperature *float32
	topP        *float32
	topK        *int32
}

// Option configures sampling parameters on a GeminiClient.
type Option func(*GeminiClient)

// WithTemperature sets the sampling temperature for every request.
func WithTemperature(t float32) Option {
	return func(c *GeminiClient) { c.temperature = &t }
}

// WithTopP sets the nucleus sampling parameter for every request.
func WithTopP(p float32) Option {
	return func(c *GeminiClient) { c.topP = &p }
}

// WithTopK sets the top-k sampling parameter for every request.
func WithTopK(k int32) Option {
	return func(c *GeminiClient) { c.topK = &k }
}

// NewGeminiClient creates a Gemini-backed generation client authenticated
// with an API key.
func NewGeminiClient(ctx context.Context, apiKey string, opts ...Option) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &GeminiClient{client: client}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate invokes the named model with the prompt. A fresh model handle is
// configured per call, so swapping models between attempts never reuses
// request state.
func (c *GeminiClient) Generate(ctx context.Context, model, prompt string) (*RawResponse, error) {
	handle := c.client.GenerativeModel(model)
	if c.temperature != nil {
		handle.SetTemperature(*c.temperature)
	}
	if c.topP != nil {
		handle.SetTopP(*c.topP)
	}
	if c.topK != nil {
		handle.SetTopK(*c.topK)
	}

	resp, err := handle.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &GenerationError{Kind: classify(err), Model: model, Cause: err}
	}

	text, err := textFromResponse(resp)
	if err != nil {
		return nil, &GenerationError{Kind: KindUnknown, Model: model, Cause: err}
	}

	out := &RawResponse{Text: text}
	if resp.UsageMetadata != nil {
		out.Usage = TokenUsage{
			Input:  resp.UsageMetadata.PromptTokenCount,
			Output: resp.UsageMetadata.CandidatesTokenCount,
			Total:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	return out, nil
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// listGenerativeModels queries the backend's capability listing and keeps
// only models that can generate free-form text from a prompt.
func (c *GeminiClient) listGenerativeModels(ctx context.Context) ([]string, error) {
	it := c.client.ListModels(ctx)
	var infos []*genai.ModelInfo
	for {
		info, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, &CapabilityDiscoveryError{Message: "model listing call failed; check the API credential", Cause: err}
		}
		infos = append(infos, info)
	}
	return filterGenerative(infos), nil
}

// filterGenerative keeps model names whose capability set includes content
// generation, in the order the backend returned them. The "models/" prefix
// is trimmed; callers deal in bare identifiers.
func filterGenerative(infos []*genai.ModelInfo) []string {
	var out []string
	for _, info := range infos {
		for _, method := range info.SupportedGenerationMethods {
			if method == "generateContent" {
				out = append(out, strings.TrimPrefix(info.Name, "models/"))
				break
			}
		}
	}
	return out
}

// textFromResponse concatenates the text parts of the first candidate.
func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
