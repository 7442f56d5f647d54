// Package llm provides a provider-agnostic interface for the generative
// model calls the matching pipeline depends on. Gemini is the primary
// provider; OpenAI and Anthropic implement the same interface so swapping
// providers is a config change, not a code change.
package llm

import (
	"context"
	"strings"
)

// Options carries per-call sampling parameters. Call sites set these
// explicitly: matching and refinement run cool (0.2), freeform answers
// run warmer (0.7).
type Options struct {
	Temperature     float32
	MaxOutputTokens int32
}

// DefaultOptions are the sampling parameters for freeform generation.
func DefaultOptions() Options {
	return Options{Temperature: 0.7, MaxOutputTokens: 1024}
}

// StructuredOptions are the sampling parameters for calls whose output
// must be parsed as JSON.
func StructuredOptions() Options {
	return Options{Temperature: 0.2, MaxOutputTokens: 2048}
}

// Client is the interface for text generation providers.
//
// Go interface design tip: keep interfaces small. One generation method
// plus two identity methods is all the pipeline needs to work against
// any provider.
type Client interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	ProviderName() string
	ModelName() string
}

// VisionClient is implemented by providers that also accept an image
// alongside the prompt. Card extraction requires one of these.
type VisionClient interface {
	Client
	GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// CleanJSON strips the markdown fences and label prefixes models wrap
// around JSON payloads, then trims surrounding prose down to the outermost
// object or array. It never fails — if no JSON-looking payload is found,
// the trimmed input is returned and the caller's json.Unmarshal reports
// the problem.
func CleanJSON(text string) string {
	s := strings.TrimSpace(text)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	// A "json" language label survives fence stripping ("```json\n{...}").
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end > start {
		return s[start : end+1]
	}
	return s
}
