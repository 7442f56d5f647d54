package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/bizmatch-service/internal/model"
)

// TokenSource supplies a short-lived bearer token for the sibling
// extraction service. The audience is the service's own URL.
type TokenSource func(ctx context.Context, audience string) (string, error)

// StaticToken returns a TokenSource that always yields the same token.
// Used when the credential comes from configuration rather than a
// platform identity endpoint.
func StaticToken(token string) TokenSource {
	return func(context.Context, string) (string, error) {
		return token, nil
	}
}

// RemoteExtractor calls the sibling card-extraction service over HTTP.
type RemoteExtractor struct {
	endpoint   string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRemoteExtractor creates an extractor that delegates to the service
// at endpoint, authenticating each call with a token from tokens.
func NewRemoteExtractor(endpoint string, tokens TokenSource, timeout time.Duration, logger *zap.Logger) *RemoteExtractor {
	return &RemoteExtractor{
		endpoint:   endpoint,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// extractRequest is the sibling service's request body.
type extractRequest struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"image_url"`
}

// extractResponse wraps the sibling service's reply: a JSON-encoded
// CardInfo carried as a string.
type extractResponse struct {
	Response string `json:"response"`
}

// Extract posts the image URL to the sibling service. Fail-soft: auth
// failures, non-2xx responses and unparsable replies all collapse to the
// all-null CardInfo.
func (r *RemoteExtractor) Extract(ctx context.Context, imageURL string) model.CardInfo {
	card, err := r.extract(ctx, imageURL)
	if err != nil {
		r.logger.Warn("remote card extraction failed",
			zap.String("image_url", imageURL),
			zap.Error(err),
		)
		return model.EmptyCardInfo()
	}
	return card
}

func (r *RemoteExtractor) extract(ctx context.Context, imageURL string) (model.CardInfo, error) {
	none := model.EmptyCardInfo()

	token, err := r.tokens(ctx, r.endpoint)
	if err != nil {
		return none, fmt.Errorf("fetching identity token: %w", err)
	}

	body, err := json.Marshal(extractRequest{Prompt: Prompt, ImageURL: imageURL})
	if err != nil {
		return none, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return none, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return none, fmt.Errorf("calling extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return none, fmt.Errorf("extraction service returned HTTP %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return none, fmt.Errorf("reading response: %w", err)
	}

	var wrapped extractResponse
	if err := json.Unmarshal(respBody, &wrapped); err != nil {
		return none, fmt.Errorf("parsing response envelope: %w", err)
	}

	card, _ := ParseCard(wrapped.Response)
	return card, nil
}
