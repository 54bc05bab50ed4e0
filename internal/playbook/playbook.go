package playbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/csheth/disputedesk/internal/dispute"
	"github.com/csheth/disputedesk/internal/drafter"
)

var thirtyPercent = decimal.RequireFromString("0.30")

// Step represents one actionable check before the response goes out.
type Step struct {
	Title       string
	Description string
}

// Build returns the response checklist for d. The first step always states the deadline
// relative to now.
func Build(d dispute.Dispute, now time.Time) []Step {
	steps := []Step{deadlineStep(d, now)}
	switch drafter.Classify(d.Reason) {
	case drafter.NonDelivery:
		steps = append(steps, nonDeliverySteps(d)...)
	case drafter.NotAsDescribed:
		steps = append(steps, notAsDescribedSteps(d)...)
	default:
		steps = append(steps, generalSteps(d)...)
	}
	return append(steps, Step{
		Title:       "Review the draft",
		Description: "Read the response once as the buyer would. Remove placeholders and sign with your store name.",
	})
}

func deadlineStep(d dispute.Dispute, now time.Time) Step {
	due := d.ResponseDueDate.UTC().Format("Jan 2 15:04 MST")
	switch {
	case d.Overdue(now):
		return Step{
			Title:       "Deadline passed",
			Description: fmt.Sprintf("The response was due %s. Submit as soon as possible; the case may already be escalated.", due),
		}
	case d.DueWithin(now, 48*time.Hour):
		return Step{
			Title:       "Respond today",
			Description: fmt.Sprintf("Due %s, %s from now.", due, humanizeDuration(d.ResponseDueDate.Sub(now))),
		}
	default:
		return Step{
			Title:       "Deadline",
			Description: fmt.Sprintf("Due %s, %s from now.", due, humanizeDuration(d.ResponseDueDate.Sub(now))),
		}
	}
}

func nonDeliverySteps(d dispute.Dispute) []Step {
	details := d.Details
	if !details.HasShipment() {
		return []Step{
			{
				Title:       "Find the shipment",
				Description: "No tracking is on file. Get the carrier and tracking number from fulfilment before promising a delivery date.",
			},
			{
				Title:       "Plan the fallback",
				Description: fmt.Sprintf("If the parcel cannot be traced, prepare a refund of %s or a reshipment.", d.FormatAmount()),
			},
		}
	}
	shipped := "the ship date"
	if details.ShippingDate != nil {
		shipped = details.ShippingDate.String()
	}
	return []Step{
		{
			Title:       "Check carrier tracking",
			Description: fmt.Sprintf("Look up %s on the %s site and note the latest scan since %s.", details.TrackingNumber, details.ShippingCarrier, shipped),
		},
		{
			Title:       "Attach proof of shipment",
			Description: "Upload the label or postage receipt so the tracking number is backed by a document.",
		},
		{
			Title:       "Set a follow-up",
			Description: "The draft promises an investigation after 2 business days. Put a reminder on that date.",
		},
	}
}

func notAsDescribedSteps(d dispute.Dispute) []Step {
	item := strings.TrimSpace(d.Details.Order.ItemName)
	if item == "" {
		item = "the item"
	}
	return []Step{
		{
			Title:       "Compare with the listing",
			Description: fmt.Sprintf("Check the listing photos and description for %s against the buyer's complaint.", item),
		},
		{
			Title:       "Confirm what shipped",
			Description: "Ask the warehouse which variant was picked. A wrong-variant shipment favours the exchange option.",
		},
		{
			Title:       "Price the options",
			Description: fmt.Sprintf("Full refund is %s plus return postage; the 30%% discount is %s.", d.FormatAmount(), discount(d)),
		},
	}
}

func generalSteps(d dispute.Dispute) []Step {
	return []Step{
		{
			Title:       "Read the complaint",
			Description: fmt.Sprintf("Reason given: %q. Match it against the order record before replying.", strings.TrimSpace(d.Reason)),
		},
		{
			Title:       "Gather records",
			Description: "Collect the invoice, shipping confirmation and any earlier messages with the buyer.",
		},
	}
}

func discount(d dispute.Dispute) string {
	amount := d.Amount.Mul(thirtyPercent).StringFixed(2)
	if d.Currency == "" {
		return amount
	}
	return d.Currency + " " + amount
}

func humanizeDuration(d time.Duration) string {
	if d < time.Hour {
		return "under an hour"
	}
	hours := int(d.Hours())
	if hours < 48 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%d days", hours/24)
}
