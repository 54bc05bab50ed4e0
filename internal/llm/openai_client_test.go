package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/csheth/disputedesk/internal/dispute"
	"github.com/csheth/disputedesk/internal/drafter"
)

func TestOpenAIClientGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.Model != "gpt-test" || len(payload.Messages) != 2 {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		if !strings.Contains(payload.Messages[1].Content, "Acme Watches") {
			t.Fatalf("prompt should carry the store sign-off: %s", payload.Messages[1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{\"choices\":[{\"message\":{\"content\":\"```\\nDear customer,\\nSorry!\\n```\"}}]}"))
	}))
	defer server.Close()

	client := &openAIClient{
		apiKey:  "sk-test",
		model:   "gpt-test",
		base:    server.URL + "/v1",
		client:  server.Client(),
		prompts: promptBuilder{drafter: drafter.New("Acme Watches")},
	}
	got, err := client.Generate(context.Background(), dispute.SampleDisputes()[1])
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got != "Dear customer,\nSorry!" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestOpenAIClientNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := &openAIClient{apiKey: "k", model: "m", base: server.URL, client: server.Client()}
	if _, err := client.Generate(context.Background(), dispute.SampleDisputes()[0]); err == nil {
		t.Fatal("expected an error when no choices are returned")
	}
}
