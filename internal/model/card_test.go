package model

import (
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }

// The card schema contract: serialized output always carries exactly the
// six documented keys, each a string or null — never absent.
func TestCardInfo_AlwaysSixKeys(t *testing.T) {
	cases := map[string]CardInfo{
		"empty":   EmptyCardInfo(),
		"partial": {BusinessName: strPtr("Plumb Co"), PhoneNumber: strPtr("555-0134")},
		"full": {
			BusinessName:    strPtr("Plumb Co"),
			OwnerName:       strPtr("Ada Smith"),
			PhoneNumber:     strPtr("555-0134"),
			Email:           strPtr("ada@plumbco.example"),
			Address:         strPtr("1 Main St"),
			AnyOtherDetails: strPtr("24/7 emergency service"),
		},
	}

	want := []string{"business_name", "owner_name", "phone_number", "email", "address", "any_other_details"}

	for name, card := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(card)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			var keys map[string]any
			if err := json.Unmarshal(data, &keys); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if len(keys) != len(want) {
				t.Errorf("expected %d keys, got %d: %s", len(want), len(keys), data)
			}
			for _, k := range want {
				if _, ok := keys[k]; !ok {
					t.Errorf("missing key %q in %s", k, data)
				}
			}
		})
	}
}

func TestCardInfo_MissingKeysUnmarshalAsNil(t *testing.T) {
	var card CardInfo
	if err := json.Unmarshal([]byte(`{"business_name": "Plumb Co"}`), &card); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if card.BusinessName == nil || *card.BusinessName != "Plumb Co" {
		t.Errorf("expected business_name to survive, got %v", card.BusinessName)
	}
	if card.OwnerName != nil || card.Email != nil {
		t.Error("expected absent keys to be nil")
	}
	if card.IsEmpty() {
		t.Error("card with a business name should not be empty")
	}
}

func TestCardInfo_IsEmpty(t *testing.T) {
	if !EmptyCardInfo().IsEmpty() {
		t.Error("EmptyCardInfo should be empty")
	}
	if (CardInfo{Address: strPtr("1 Main St")}).IsEmpty() {
		t.Error("card with an address should not be empty")
	}
}

func TestMatchCandidate_LinkHelpers(t *testing.T) {
	empty := ""
	link := "https://plumbco.example"

	c := MatchCandidate{}
	if c.HasCardLink() || c.HasBusinessLink() {
		t.Error("nil links should report false")
	}

	c = MatchCandidate{BusinessLink: &empty, CardLink: &link}
	if c.HasBusinessLink() {
		t.Error("empty business link should report false")
	}
	if !c.HasCardLink() {
		t.Error("non-empty card link should report true")
	}
}
