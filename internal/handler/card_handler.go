package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/bizmatch-service/internal/extractor"
	"github.com/fleveque/bizmatch-service/internal/llm"
)

// CardHandler serves the card-extraction endpoint — the "sibling service"
// the resolver's remote extractor talks to. It wraps an image-capable
// model and always replies with a schema-complete CardInfo JSON string.
type CardHandler struct {
	cards  *extractor.Service
	logger *zap.Logger
}

// NewCardHandler creates a CardHandler.
func NewCardHandler(cards *extractor.Service, logger *zap.Logger) *CardHandler {
	return &CardHandler{
		cards:  cards,
		logger: logger,
	}
}

type cardRequest struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"image_url"`
}

// Extract runs the caller's prompt against the image at image_url.
// Route: POST /api/v1/card
//
// The response is {"response": "<JSON-encoded CardInfo>"} — parse failures
// in the model output degrade to the all-null record, so the inner payload
// always carries exactly the six documented keys.
func (h *CardHandler) Extract(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" || req.ImageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Please provide both prompt and image_url in the request body",
		})
		return
	}

	// The format contract is appended to every caller prompt so the
	// output stays parseable regardless of what the caller asked.
	fullPrompt := req.Prompt + " " + extractor.FormatInstructions

	text, err := h.cards.Describe(c.Request.Context(), req.ImageURL, fullPrompt)
	if err != nil {
		if errors.Is(err, llm.ErrQuotaExceeded) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": throttledMessage})
			return
		}
		h.logger.Error("card extraction failed",
			zap.String("image_url", req.ImageURL),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}

	card, ok := extractor.ParseCard(text)
	if !ok {
		h.logger.Warn("card model output was not valid JSON, returning nulls",
			zap.String("image_url", req.ImageURL),
		)
	}

	payload, err := json.Marshal(card)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": string(payload)})
}
