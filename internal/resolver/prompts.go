package resolver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fleveque/bizmatch-service/internal/model"
)

// offlineSystemPrompt is the documented fallback when the system-prompt
// document cannot be fetched. The pipeline always gets some string.
const offlineSystemPrompt = `You are a helpful assistant for a local business directory. ` +
	`The directory service is currently offline, so answer from the directory context provided below only. ` +
	`Be direct and concise, and never invent businesses that are not in the context.`

// matchInstructions pins the initial call to the response shape the
// resolver parses. The model must only return businesses present in the
// directory snapshot.
const matchInstructions = `Search the business directory above and return every business that matches the query.
Only include businesses that actually appear in the directory — never invent entries.

Return ONLY a clean JSON object without any markdown formatting or code blocks, with exactly this shape:
{
  "matched_businesses": [
    {"business_link": "<website URL or null>", "card_link": "<business card image URL or null>", "business_info": {<any structured details from the directory>}}
  ],
  "best_match": {"business_link": "<URL or null>", "card_link": "<URL or null>", "business_name": "<name or null>", "reason": "<one sentence>"}
}

If nothing matches, return {"matched_businesses": [], "best_match": null}.`

// buildMatchPrompt assembles the directory-augmented initial prompt:
// system prompt, directory snapshot, user query, fixed instructions.
func buildMatchPrompt(systemPrompt, directorySnapshot, query string) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\nBUSINESS DIRECTORY:\n")
	sb.WriteString(directorySnapshot)
	sb.WriteString("\n\nUSER QUERY: ")
	sb.WriteString(query)
	sb.WriteString("\n\n")
	sb.WriteString(matchInstructions)
	return sb.String()
}

// siteText pairs a business link with the sanitized text fetched from it.
// A slice keeps the model's original candidate ordering in the prompt.
type siteText struct {
	Link string
	Text string
}

// buildWebsiteRefinePrompt asks the model to pick the single best match
// from fetched website content. Website text is higher-fidelity than card
// text, so this is the preferred refinement path.
func buildWebsiteRefinePrompt(query string, sites []siteText) string {
	var sb strings.Builder
	sb.WriteString("USER QUERY: ")
	sb.WriteString(query)
	sb.WriteString("\n\nWEBSITE CONTENT BY BUSINESS:\n")
	for _, s := range sites {
		fmt.Fprintf(&sb, "\n%s:\n%s\n", s.Link, s.Text)
	}
	sb.WriteString("\nBased on the website content above, pick the single business most relevant to the user query.\n")
	sb.WriteString(`Return ONLY a clean JSON object without markdown formatting: {"business_link": "<URL>", "business_name": "<name>", "reason": "<one sentence>"}`)
	return sb.String()
}

// cardEntry pairs a card link with its extracted details.
type cardEntry struct {
	CardLink string
	Card     model.CardInfo
}

// buildCardRefinePrompt is the fallback refinement path used when no
// website text is available: pick the best card instead.
func buildCardRefinePrompt(query string, cards []cardEntry) string {
	var sb strings.Builder
	sb.WriteString("USER QUERY: ")
	sb.WriteString(query)
	sb.WriteString("\n\nEXTRACTED BUSINESS CARDS:\n")
	for _, c := range cards {
		details, err := json.Marshal(c.Card)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "\n%s: %s\n", c.CardLink, details)
	}
	sb.WriteString("\nBased on the card details above, pick the single business most relevant to the user query.\n")
	sb.WriteString(`Return ONLY a clean JSON object without markdown formatting: {"card_link": "<URL>", "business_name": "<name>", "reason": "<one sentence>"}`)
	return sb.String()
}
