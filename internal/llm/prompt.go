package llm

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/dispute"
	"github.com/csheth/disputedesk/internal/drafter"
)

var (
	whitespaceRe = regexp.MustCompile(`[ \t]+`)
	fenceRe      = regexp.MustCompile("(?s)^```[a-zA-Z]*\n(.*?)\n?```$")
	subjectRe    = regexp.MustCompile(`(?i)^subject:[^\n]*\n+`)
)

func clipText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

type promptBuilder struct {
	drafter  drafter.Drafter
	evidence Evidence
	log      zerolog.Logger
}

func newPromptBuilder(cfg Config) promptBuilder {
	return promptBuilder{
		drafter:  drafter.New(cfg.StoreName),
		evidence: cfg.Evidence,
		log:      cfg.Logger,
	}
}

// build assembles the generation prompt. Evidence that cannot be loaded is skipped so a
// broken link never blocks drafting.
func (p promptBuilder) build(ctx context.Context, d dispute.Dispute) string {
	excerpt := ""
	if p.evidence != nil {
		text, err := p.evidence.Excerpt(ctx, d)
		if err != nil {
			p.log.Warn().Err(err).Str("dispute_id", d.ID).Msg("evidence unavailable; drafting without it")
		} else {
			excerpt = clipText(text, maxEvidenceChars)
		}
	}
	return buildResponsePrompt(d, p.drafter, excerpt)
}

func buildResponsePrompt(d dispute.Dispute, dr drafter.Drafter, evidence string) string {
	var b strings.Builder
	b.WriteString("You are a customer-support specialist answering a payment dispute on behalf of an online store.\n")
	b.WriteString("Write a courteous, factual reply addressed to the buyer. Do not invent facts that are not listed below.\n")
	b.WriteString("Reply with the message body only: no subject line, no markdown.\n\n")

	b.WriteString("Dispute facts:\n")
	writeFact(&b, "Dispute ID", d.ID)
	writeFact(&b, "Status", string(d.Status))
	writeFact(&b, "Reason", d.Reason)
	writeFact(&b, "Amount", d.FormatAmount())
	writeFact(&b, "Buyer", d.BuyerEmail)
	writeFact(&b, "Item", d.Details.Order.ItemName)
	if !d.Details.Order.OrderDate.IsZero() {
		writeFact(&b, "Ordered", d.Details.Order.OrderDate.String())
	}
	if d.Details.HasShipment() {
		writeFact(&b, "Carrier", d.Details.ShippingCarrier)
		writeFact(&b, "Tracking number", d.Details.TrackingNumber)
		if d.Details.ShippingDate != nil {
			writeFact(&b, "Shipped", d.Details.ShippingDate.String())
		}
	} else {
		b.WriteString("- Shipment: no tracking information on file\n")
	}
	writeFact(&b, "Respond by", d.ResponseDueDate.UTC().Format("2006-01-02 15:04 MST"))

	if complaint := clipText(d.Details.BuyerComplaint, maxComplaintChars); complaint != "" {
		b.WriteString("\nBuyer complaint:\n")
		b.WriteString(complaint)
		b.WriteString("\n")
	}
	if evidence = strings.TrimSpace(evidence); evidence != "" {
		b.WriteString("\nSeller evidence (excerpt):\n")
		b.WriteString(evidence)
		b.WriteString("\n")
	}

	b.WriteString("\nGuidance: ")
	b.WriteString(guidance(drafter.Classify(d.Reason)))
	b.WriteString("\n\nReference draft (improve on it, keep the same sign-off):\n")
	b.WriteString(dr.Draft(d))
	return b.String()
}

func writeFact(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	b.WriteString("- ")
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func guidance(category drafter.Category) string {
	switch category {
	case drafter.NonDelivery:
		return "confirm the shipment details, point the buyer to the carrier's tracking page and propose waiting 2 business days before opening a carrier investigation."
	case drafter.NotAsDescribed:
		return "apologize, acknowledge the mismatch and offer a full refund on return with shipping covered, a 30% discount to keep the item, or an expedited exchange."
	default:
		return "acknowledge the buyer's reason, summarise the order and offer a refund or a follow-up investigation."
	}
}

// cleanResponse strips wrappers models sometimes add around the message body.
func cleanResponse(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	text = subjectRe.ReplaceAllString(text, "")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(whitespaceRe.ReplaceAllString(line, " "), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
