package llm

import (
	"strings"
	"testing"

	"github.com/csheth/disputedesk/internal/dispute"
	"github.com/csheth/disputedesk/internal/drafter"
)

func TestBuildResponsePromptNonDelivery(t *testing.T) {
	t.Parallel()

	d := dispute.SampleDisputes()[0]
	prompt := buildResponsePrompt(d, drafter.New(""), "")
	for _, want := range []string{
		"Reason: Item not received",
		"Amount: USD 299.99",
		"Carrier: USPS",
		"Shipped: 2025-02-01",
		"Respond by: 2025-02-15 10:30 UTC",
		"2 business days",
		"Reference draft",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "Seller evidence") {
		t.Fatal("prompt should omit the evidence section when none is given")
	}
}

func TestBuildResponsePromptWithoutShipment(t *testing.T) {
	t.Parallel()

	d := dispute.SampleDisputes()[1]
	prompt := buildResponsePrompt(d, drafter.New(""), "Photo shows a black watch.")
	for _, want := range []string{
		"no tracking information on file",
		"blue one instead of black",
		"Seller evidence (excerpt):\nPhoto shows a black watch.",
		"30% discount",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestCleanResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "  Hello there  ", "Hello there"},
		{"fenced", "```text\nHello\n\nBye\n```", "Hello\n\nBye"},
		{"subject line", "Subject: Re: dispute\n\nHello", "Hello"},
		{"collapses spaces", "Hello   there\t friend", "Hello there friend"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := cleanResponse(tt.raw); got != tt.want {
				t.Fatalf("cleanResponse(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClipText(t *testing.T) {
	t.Parallel()

	if got := clipText("  abcdef  ", 3); got != "abc" {
		t.Fatalf("clipText() = %q", got)
	}
	if got := clipText("héllo", 10); got != "héllo" {
		t.Fatalf("clipText() = %q", got)
	}
}
