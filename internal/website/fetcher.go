// Package website fetches and sanitizes visible text from business
// websites so it can be fed into refinement prompts. The fetcher is
// deliberately fail-soft: every failure mode becomes an empty string,
// because a missing website must never abort a resolution.
package website

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	// userAgent mimics a browser; several small-business sites refuse
	// requests from obvious bots.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// maxBodyBytes caps how much HTML we pull before parsing.
	maxBodyBytes = 2 << 20
)

// Fetcher retrieves the visible text content of a page, bounded in size.
type Fetcher struct {
	client   *http.Client
	insecure *http.Client
	maxChars int
	logger   *zap.Logger
}

// NewFetcher creates a Fetcher with the given per-request timeout and
// output character budget.
func NewFetcher(timeout time.Duration, maxChars int, logger *zap.Logger) *Fetcher {
	insecureTransport := http.DefaultTransport.(*http.Transport).Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		insecure: &http.Client{Timeout: timeout, Transport: insecureTransport},
		maxChars: maxChars,
		logger:   logger,
	}
}

// Fetch returns the sanitized visible text of the page at rawURL, or ""
// on any failure. TLS verification is on by default; if the first attempt
// fails purely on a certificate error the fetch is retried once without
// verification — content availability wins over strict transport security
// for this read-only scrape.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	body, err := f.get(ctx, f.client, u.String())
	if err != nil {
		var certErr *tls.CertificateVerificationError
		if errors.As(err, &certErr) {
			f.logger.Debug("retrying without TLS verification",
				zap.String("url", u.String()),
			)
			body, err = f.get(ctx, f.insecure, u.String())
		}
	}
	if err != nil {
		f.logger.Debug("website fetch failed",
			zap.String("url", u.String()),
			zap.Error(err),
		)
		return ""
	}

	text, err := extractText(body)
	if err != nil {
		f.logger.Debug("website parse failed",
			zap.String("url", u.String()),
			zap.Error(err),
		)
		return ""
	}

	return truncate(text, f.maxChars)
}

func (f *Fetcher) get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New("HTTP " + resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// extractText strips script/style markup and collapses the remaining
// visible text into single-space-separated words.
func extractText(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, iframe").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	// strings.Fields splits on any whitespace run, so joining collapses
	// newlines, tabs and repeated spaces in one pass.
	return strings.Join(strings.Fields(text), " "), nil
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
