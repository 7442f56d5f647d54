package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient implements VisionClient against the Gemini API. This is the
// primary provider: the directory-matching prompts were written for Gemini
// and it handles both text and business-card images.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed client.
// baseURL overrides the API endpoint — useful for proxies and tests.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(baseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(baseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) ProviderName() string { return "gemini" }
func (g *GeminiClient) ModelName() string    { return g.model }

func (g *GeminiClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		g.generationConfig(opts),
	)
	if err != nil {
		return "", classifyGeminiErr(err)
	}
	return resp.Text(), nil
}

func (g *GeminiClient) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.generationConfig(StructuredOptions()))
	if err != nil {
		return "", classifyGeminiErr(err)
	}
	return resp.Text(), nil
}

func (g *GeminiClient) generationConfig(opts Options) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		MaxOutputTokens: opts.MaxOutputTokens,
		CandidateCount:  1,
	}
}

// classifyGeminiErr maps SDK failures onto the pipeline's error taxonomy:
// 429 becomes ErrQuotaExceeded, everything else is a TransportError.
func classifyGeminiErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return fmt.Errorf("gemini: %w", ErrQuotaExceeded)
	}
	return &TransportError{Provider: "gemini", Err: err}
}
