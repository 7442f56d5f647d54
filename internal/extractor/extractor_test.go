package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/bizmatch-service/internal/llm"
	"github.com/fleveque/bizmatch-service/internal/model"
)

func TestParseCard(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		card, ok := ParseCard(`{"business_name": "Plumb Co", "phone_number": "555-0134"}`)
		if !ok {
			t.Fatal("expected parse to succeed")
		}
		if card.BusinessName == nil || *card.BusinessName != "Plumb Co" {
			t.Errorf("business_name = %v", card.BusinessName)
		}
		if card.OwnerName != nil {
			t.Error("absent owner_name should be nil")
		}
	})

	t.Run("fenced json", func(t *testing.T) {
		card, ok := ParseCard("```json\n{\"email\": \"ada@plumbco.example\"}\n```")
		if !ok {
			t.Fatal("expected parse to succeed")
		}
		if card.Email == nil || *card.Email != "ada@plumbco.example" {
			t.Errorf("email = %v", card.Email)
		}
	})

	t.Run("unparsable output yields all nulls", func(t *testing.T) {
		card, ok := ParseCard("I could not read the card, sorry.")
		if ok {
			t.Error("expected parse to fail")
		}
		if !card.IsEmpty() {
			t.Errorf("expected all-null card, got %+v", card)
		}
	})

	t.Run("explicit nulls", func(t *testing.T) {
		card, ok := ParseCard(`{"business_name": null, "owner_name": null, "phone_number": null, "email": null, "address": null, "any_other_details": null}`)
		if !ok {
			t.Fatal("expected parse to succeed")
		}
		if !card.IsEmpty() {
			t.Errorf("expected all-null card, got %+v", card)
		}
	})
}

// fakeVision is a scripted VisionClient for local-extraction tests.
type fakeVision struct {
	response string
	err      error
	gotMIME  string
}

func (f *fakeVision) Generate(context.Context, string, llm.Options) (string, error) {
	return f.response, f.err
}

func (f *fakeVision) GenerateWithImage(_ context.Context, _ string, _ []byte, mimeType string) (string, error) {
	f.gotMIME = mimeType
	return f.response, f.err
}

func (f *fakeVision) ProviderName() string { return "fake" }
func (f *fakeVision) ModelName() string    { return "fake-vision" }

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("not really a png"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestServiceExtract_Success(t *testing.T) {
	srv := imageServer(t)
	vision := &fakeVision{response: `{"business_name": "Plumb Co"}`}
	svc := NewService(vision, 5*time.Second, zap.NewNop())

	card := svc.Extract(context.Background(), srv.URL+"/card.png")

	if card.BusinessName == nil || *card.BusinessName != "Plumb Co" {
		t.Errorf("business_name = %v", card.BusinessName)
	}
	if vision.gotMIME != "image/png" {
		t.Errorf("expected content-type MIME to win, got %q", vision.gotMIME)
	}
}

func TestServiceExtract_FailSoft(t *testing.T) {
	srv := imageServer(t)

	cases := []struct {
		name     string
		vision   *fakeVision
		imageURL string
	}{
		{"model error", &fakeVision{err: errors.New("boom")}, srv.URL + "/card.jpg"},
		{"unparsable output", &fakeVision{response: "no card visible"}, srv.URL + "/card.jpg"},
		{"bad image url", &fakeVision{response: `{}`}, "not-a-url"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.vision, 5*time.Second, zap.NewNop())
			card := svc.Extract(context.Background(), tc.imageURL)
			if !card.IsEmpty() {
				t.Errorf("expected all-null card, got %+v", card)
			}
		})
	}
}

func TestRemoteExtract_Success(t *testing.T) {
	inner, _ := json.Marshal(model.CardInfo{BusinessName: strPtr("Plumb Co")})

	var gotAuth, gotPrompt string
	sibling := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Prompt   string `json:"prompt"`
			ImageURL string `json:"image_url"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotPrompt = req.Prompt

		_ = json.NewEncoder(w).Encode(map[string]string{"response": string(inner)})
	}))
	defer sibling.Close()

	ext := NewRemoteExtractor(sibling.URL, StaticToken("tok-123"), 5*time.Second, zap.NewNop())
	card := ext.Extract(context.Background(), "https://x/card.jpg")

	if gotAuth != "Bearer tok-123" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotPrompt != Prompt {
		t.Errorf("expected the fixed extraction prompt, got %q", gotPrompt)
	}
	if card.BusinessName == nil || *card.BusinessName != "Plumb Co" {
		t.Errorf("business_name = %v", card.BusinessName)
	}
}

func TestRemoteExtract_FailSoft(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		sibling := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "denied", http.StatusForbidden)
		}))
		defer sibling.Close()

		ext := NewRemoteExtractor(sibling.URL, StaticToken("tok"), 5*time.Second, zap.NewNop())
		if card := ext.Extract(context.Background(), "https://x/card.jpg"); !card.IsEmpty() {
			t.Errorf("expected all-null card, got %+v", card)
		}
	})

	t.Run("garbled envelope", func(t *testing.T) {
		sibling := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer sibling.Close()

		ext := NewRemoteExtractor(sibling.URL, StaticToken("tok"), 5*time.Second, zap.NewNop())
		if card := ext.Extract(context.Background(), "https://x/card.jpg"); !card.IsEmpty() {
			t.Errorf("expected all-null card, got %+v", card)
		}
	})

	t.Run("token source failure", func(t *testing.T) {
		failing := func(context.Context, string) (string, error) {
			return "", errors.New("identity endpoint unavailable")
		}
		ext := NewRemoteExtractor("http://localhost:0", failing, 5*time.Second, zap.NewNop())
		if card := ext.Extract(context.Background(), "https://x/card.jpg"); !card.IsEmpty() {
			t.Errorf("expected all-null card, got %+v", card)
		}
	})
}

func strPtr(s string) *string { return &s }
