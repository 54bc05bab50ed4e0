package drafter

import (
	"context"
	"fmt"
	"strings"

	"github.com/csheth/disputedesk/internal/dispute"
)

// DefaultStoreName is the signature placeholder used when no store name is configured.
const DefaultStoreName = "[Your Store Name]"

// Category groups dispute reasons that share a response template.
type Category int

const (
	General Category = iota
	NonDelivery
	NotAsDescribed
)

func (c Category) String() string {
	switch c {
	case NonDelivery:
		return "non-delivery"
	case NotAsDescribed:
		return "not-as-described"
	default:
		return "general"
	}
}

// Classify maps a free-text or coded reason onto a Category. Every reason maps somewhere;
// anything unrecognised is General.
func Classify(reason string) Category {
	normalized := strings.ToLower(strings.TrimSpace(reason))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	switch {
	case strings.Contains(normalized, "not as described"),
		strings.Contains(normalized, "significantly different"),
		strings.Contains(normalized, "not match"):
		return NotAsDescribed
	case strings.Contains(normalized, "not received"),
		strings.Contains(normalized, "not delivered"),
		strings.Contains(normalized, "non delivery"),
		strings.Contains(normalized, "never arrived"):
		return NonDelivery
	default:
		return General
	}
}

// Drafter renders the canned first draft of a dispute response.
type Drafter struct {
	StoreName string
}

// New returns a Drafter signing with storeName, or DefaultStoreName when blank.
func New(storeName string) Drafter {
	return Drafter{StoreName: storeName}
}

// Draft is a pure function of d: the same dispute always yields the same text.
func (dr Drafter) Draft(d dispute.Dispute) string {
	switch Classify(d.Reason) {
	case NonDelivery:
		if d.Details.HasShipment() {
			return dr.nonDelivery(d)
		}
		return dr.nonDeliveryUntracked(d)
	case NotAsDescribed:
		return dr.notAsDescribed(d)
	default:
		return dr.general(d)
	}
}

// Edit replaces the current draft text. No history is kept.
func Edit(current, next string) string {
	return next
}

func (dr Drafter) signature() string {
	name := strings.TrimSpace(dr.StoreName)
	if name == "" {
		name = DefaultStoreName
	}
	return "Best regards,\n" + name
}

func (dr Drafter) nonDelivery(d dispute.Dispute) string {
	details := d.Details
	shipped := ""
	if details.ShippingDate != nil {
		shipped = details.ShippingDate.String()
	}
	return fmt.Sprintf(`Dear %s,

I understand your concern about not receiving your %s. I can confirm that your order was shipped on %s via %s with tracking number %s.

According to our records, the package is still in transit. You can track your delivery at %s's website using the tracking number provided.

If you don't receive the package within the next 2 business days, please let us know and we'll initiate an investigation with the carrier.

%s`,
		d.BuyerEmail,
		itemName(d),
		shipped,
		details.ShippingCarrier,
		details.TrackingNumber,
		details.ShippingCarrier,
		dr.signature(),
	)
}

func (dr Drafter) nonDeliveryUntracked(d dispute.Dispute) string {
	return fmt.Sprintf(`Dear %s,

I understand your concern about not receiving your %s. We are tracing the shipment with our fulfilment team and will share the carrier and tracking details as soon as they are confirmed.

If you don't receive the package within the next 2 business days, please let us know and we'll initiate an investigation with the carrier.

%s`,
		d.BuyerEmail,
		itemName(d),
		dr.signature(),
	)
}

func (dr Drafter) notAsDescribed(d dispute.Dispute) string {
	return fmt.Sprintf(`Dear %s,

I apologize for the inconvenience regarding your %s. I understand that the item you received did not match what you ordered.

We take product accuracy very seriously and I'd like to resolve this situation immediately. I can offer you the following options:

1. Return the item for a full refund (we'll cover shipping costs)
2. Keep the item with a 30%% discount
3. Exchange it for the correct item (we'll expedite shipping)

Please let me know which option you prefer and we'll process it right away.

%s`,
		d.BuyerEmail,
		itemName(d),
		dr.signature(),
	)
}

func (dr Drafter) general(d dispute.Dispute) string {
	reason := strings.TrimSpace(d.Reason)
	if reason == "" {
		reason = "your recent order"
	}
	return fmt.Sprintf(`Dear %s,

Thank you for contacting us about your %s (%s). We have received your dispute regarding "%s" and are reviewing the details of your order.

We'd like to make this right. We can issue a refund, or, if you prefer, investigate further and follow up with a resolution within 2 business days.

Please reply with any additional information that would help us resolve this quickly.

%s`,
		d.BuyerEmail,
		itemName(d),
		d.FormatAmount(),
		reason,
		dr.signature(),
	)
}

func itemName(d dispute.Dispute) string {
	if name := strings.TrimSpace(d.Details.Order.ItemName); name != "" {
		return name
	}
	return "order"
}

// Template serves drafts as a response generator. It never fails.
type Template struct {
	Drafter Drafter
}

func (t Template) Generate(ctx context.Context, d dispute.Dispute) (string, error) {
	return t.Drafter.Draft(d), nil
}

func (t Template) Name() string {
	return "Template"
}
