// Package handler contains HTTP request handlers.
// In Gin, a handler is any function with signature func(*gin.Context).
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/bizmatch-service/internal/llm"
	"github.com/fleveque/bizmatch-service/internal/resolver"
)

// throttledMessage is the fixed user-facing body for provider quota
// exhaustion. Clients may retry after a delay.
const throttledMessage = "The service is temporarily unavailable due to high demand. Please try again in a moment."

// QueryHandler serves the query-resolution endpoint.
type QueryHandler struct {
	resolver *resolver.Resolver
	logger   *zap.Logger
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(res *resolver.Resolver, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		resolver: res,
		logger:   logger,
	}
}

// Resolve runs one query resolution.
// Route: POST /api/v1/query (also /api/v1/query/*prompt)
func (h *QueryHandler) Resolve(c *gin.Context) {
	prompt := extractPrompt(c)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No prompt provided"})
		return
	}

	env, err := h.resolver.Resolve(c.Request.Context(), prompt)
	if err != nil {
		h.respondError(c, prompt, err)
		return
	}

	c.JSON(http.StatusOK, env)
}

// respondError maps the pipeline's error taxonomy onto HTTP statuses.
// Detail goes to the log; clients get opaque messages.
func (h *QueryHandler) respondError(c *gin.Context, prompt string, err error) {
	var malformed *llm.MalformedOutputError

	switch {
	case errors.Is(err, llm.ErrQuotaExceeded):
		h.logger.Warn("model quota exceeded", zap.String("query", prompt))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": throttledMessage})

	case errors.As(err, &malformed):
		h.logger.Error("model returned unparsable output",
			zap.String("query", prompt),
			zap.String("raw_output", malformed.RawText),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "model response could not be parsed"})

	default:
		h.logger.Error("query resolution failed",
			zap.String("query", prompt),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
	}
}

// extractPrompt pulls the user query out of the request. Sources are
// checked in a fixed precedence order — JSON body, query string, request
// path, X-Prompt header — and the first non-empty value wins.
func extractPrompt(c *gin.Context) string {
	// JSON body: {"query": ...} or {"prompt": ...}. The body is read
	// leniently — a missing or non-JSON body just falls through to the
	// next source.
	if body, err := c.GetRawData(); err == nil && len(body) > 0 {
		var payload struct {
			Query  string `json:"query"`
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			if payload.Query != "" {
				return payload.Query
			}
			if payload.Prompt != "" {
				return payload.Prompt
			}
		}
	}

	if q := c.Query("query"); q != "" {
		return q
	}
	if q := c.Query("prompt"); q != "" {
		return q
	}

	// Wildcard path remainder: POST /api/v1/query/plumber%20near%20me
	if p := strings.TrimPrefix(c.Param("prompt"), "/"); p != "" {
		return p
	}

	return c.GetHeader("X-Prompt")
}

// MethodNotAllowed is the catch-all for non-POST requests to POST-only
// routes: 405 plus a usage example so browser pokes get a useful hint.
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{
		"error": "method not allowed",
		"usage": gin.H{
			"method": http.MethodPost,
			"path":   "/api/v1/query",
			"body":   gin.H{"query": "plumber in davidson"},
		},
	})
}
