// Package extractor turns business-card images into the fixed six-field
// CardInfo record. Extraction is fail-soft end to end: any failure —
// download, auth, transport, parse — produces the all-null record, never
// an error. Callers branch on field nullity, not on failure.
package extractor

import (
	"context"
	"encoding/json"

	"github.com/fleveque/bizmatch-service/internal/llm"
	"github.com/fleveque/bizmatch-service/internal/model"
)

// FormatInstructions pins any card prompt to the six-field JSON schema.
// The extraction endpoint appends this to caller-supplied prompts too.
const FormatInstructions = "Return ONLY a clean JSON string without any markdown formatting, code blocks, or special characters. " +
	"The response should be a single line, directly parseable as JSON. " +
	"For any fields where information is not found, use null instead of omitting the field. " +
	"Always include all fields in the response: business_name, owner_name, phone_number, email, address, and any_other_details."

// Prompt is the fixed extraction prompt. It is not user-controllable and
// names exactly the six fields of the output schema.
const Prompt = "Extract the business card details from this image. " + FormatInstructions

// Extractor extracts card details from an image URL.
type Extractor interface {
	Extract(ctx context.Context, imageURL string) model.CardInfo
}

// Disabled is the Extractor used when neither a sibling service nor a
// vision-capable model is configured. Candidates keep their card links
// but enrichment yields only nulls.
type Disabled struct{}

func (Disabled) Extract(context.Context, string) model.CardInfo {
	return model.EmptyCardInfo()
}

// ParseCard parses model output into a CardInfo, backfilling every missing
// key with null. Unparsable output yields the all-null record. The second
// return value reports whether the text parsed as JSON at all.
func ParseCard(text string) (model.CardInfo, bool) {
	var card model.CardInfo
	if err := json.Unmarshal([]byte(llm.CleanJSON(text)), &card); err != nil {
		return model.EmptyCardInfo(), false
	}
	// Unmarshal leaves absent keys as nil pointers, so the struct is
	// already schema-complete.
	return card, true
}
