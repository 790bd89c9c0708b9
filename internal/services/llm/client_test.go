package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func completionPayload(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": content},
			},
		},
	}
}

func TestClientComplete(t *testing.T) {
	var gotAuth string
	var gotBody chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if err := json.NewEncoder(w).Encode(completionPayload("a shimmering arpeggio passage")); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	content, err := client.Complete(context.Background(), "system text", "user text")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if content != "a shimmering arpeggio passage" {
		t.Fatalf("unexpected content %q", content)
	}
	if gotAuth != "Bearer test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody.Temperature != defaultTemperature {
		t.Fatalf("expected default temperature, got %v", gotBody.Temperature)
	}
	if gotBody.MaxTokens != defaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", gotBody.MaxTokens)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages %+v", gotBody.Messages)
	}
}

func TestClientCompleteHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected completion to fail")
	}
}

func TestClientCompleteEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionPayload(""))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestClientCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "demo"})
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestStripQuotes(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`"quoted scene"`, "quoted scene"},
		{`'quoted scene'`, "quoted scene"},
		{`""nested""`, `"nested"`},
		{`plain scene`, "plain scene"},
		{`"mismatched'`, `"mismatched'`},
		{`"`, `"`},
	}
	for _, tc := range cases {
		if got := StripQuotes(tc.in); got != tc.want {
			t.Fatalf("StripQuotes(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
