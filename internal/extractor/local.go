package extractor

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/bizmatch-service/internal/llm"
	"github.com/fleveque/bizmatch-service/internal/model"
)

// maxImageBytes caps card-image downloads.
const maxImageBytes = 10 << 20

// Service extracts card details by downloading the image and calling a
// vision-capable model client directly. It also backs the card-extraction
// HTTP endpoint, which supplies its own prompt via Describe.
type Service struct {
	client     llm.VisionClient
	httpClient *http.Client
	logger     *zap.Logger
}

// NewService creates a local extraction service. timeout bounds the whole
// download-plus-inference budget per call.
func NewService(client llm.VisionClient, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		client:     client,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Extract runs the fixed extraction prompt against the image. Fail-soft:
// all failures collapse to the all-null CardInfo.
func (s *Service) Extract(ctx context.Context, imageURL string) model.CardInfo {
	text, err := s.Describe(ctx, imageURL, Prompt)
	if err != nil {
		s.logger.Warn("card extraction failed",
			zap.String("image_url", imageURL),
			zap.Error(err),
		)
		return model.EmptyCardInfo()
	}

	card, ok := ParseCard(text)
	if !ok {
		s.logger.Warn("card extraction returned unparsable output",
			zap.String("image_url", imageURL),
		)
	}
	return card
}

// Describe downloads the image and asks the model about it with an
// arbitrary prompt, returning the raw model text.
func (s *Service) Describe(ctx context.Context, imageURL, prompt string) (string, error) {
	data, mimeType, err := s.download(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("downloading card image: %w", err)
	}
	return s.client.GenerateWithImage(ctx, prompt, data, mimeType)
}

func (s *Service) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	u, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil {
		return nil, "", fmt.Errorf("parsing image URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, "", fmt.Errorf("image URL missing scheme or host")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("downloading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, u.String())
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("reading body: %w", err)
	}

	return data, imageMIMEType(resp.Header.Get("Content-Type"), u.Path), nil
}

// imageMIMEType picks a MIME type from the response header, falling back
// to the URL's file extension, then to image/jpeg.
func imageMIMEType(contentType, urlPath string) string {
	if ct := strings.TrimSpace(strings.Split(contentType, ";")[0]); strings.HasPrefix(ct, "image/") {
		return ct
	}
	if byExt := mime.TypeByExtension(path.Ext(urlPath)); strings.HasPrefix(byExt, "image/") {
		return byExt
	}
	return "image/jpeg"
}
