// Package model defines the core data types for the business-matching
// service. In Go, we use structs instead of classes. Struct tags (the
// `json:"..."` annotations) tell serialization libraries how to map fields.
package model

// MatchCandidate is one business entry returned by the model's initial
// matching pass. Enrichment attaches card details and website text in place.
// Link fields are pointers so that "the model gave us nothing" serializes
// as an explicit null rather than an empty string.
type MatchCandidate struct {
	BusinessLink *string        `json:"business_link"`
	CardLink     *string        `json:"card_link"`
	BusinessInfo map[string]any `json:"business_info,omitempty"`
	CardInfo     *CardInfo      `json:"card_info,omitempty"`
	WebsiteText  string         `json:"website_text,omitempty"`
}

// HasCardLink reports whether the candidate carries a non-empty card image URL.
func (m *MatchCandidate) HasCardLink() bool {
	return m.CardLink != nil && *m.CardLink != ""
}

// HasBusinessLink reports whether the candidate carries a non-empty website URL.
func (m *MatchCandidate) HasBusinessLink() bool {
	return m.BusinessLink != nil && *m.BusinessLink != ""
}

// BestMatch is the single candidate the model selected as most relevant,
// with a natural-language justification.
type BestMatch struct {
	BusinessLink *string `json:"business_link"`
	CardLink     *string `json:"card_link"`
	BusinessName *string `json:"business_name"`
	Reason       *string `json:"reason"`
}

// ResultEnvelope is the response body for a resolved query.
// Invariant: MatchCount always equals len(MatchedBusinesses).
type ResultEnvelope struct {
	MatchedBusinesses []MatchCandidate `json:"matched_businesses"`
	MatchCount        int              `json:"match_count"`
	BestMatch         *BestMatch       `json:"best_match"`
}
