package dispute

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("dispute: not found")
	ErrInvalid  = errors.New("dispute: invalid record")
)

// Status is the lifecycle state reported by the system of record. Unknown values are kept verbatim.
type Status string

const (
	StatusOpen                     Status = "OPEN"
	StatusUnderReview              Status = "UNDER_REVIEW"
	StatusWaitingForSellerResponse Status = "WAITING_FOR_SELLER_RESPONSE"
	StatusResolved                 Status = "RESOLVED"
)

// Dispute is one buyer-initiated payment dispute. It is read-only for this program.
type Dispute struct {
	ID              string          `json:"id"`
	Status          Status          `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Reason          string          `json:"reason"`
	BuyerEmail      string          `json:"buyer_email"`
	CreatedAt       time.Time       `json:"created_at"`
	ResponseDueDate time.Time       `json:"response_due_date"`
	Details         Details         `json:"details"`

	// decodeErr is set by DecodeList for a record it could not parse.
	decodeErr error
}

// Details carries the shipment, complaint and order context for a dispute.
type Details struct {
	TrackingNumber  string `json:"tracking_number,omitempty"`
	ShippingCarrier string `json:"shipping_carrier,omitempty"`
	ShippingDate    *Date  `json:"shipping_date,omitempty"`
	BuyerComplaint  string `json:"buyer_complaint"`
	Order           Order  `json:"order_details"`
	EvidenceURL     string `json:"evidence_url,omitempty"`
}

// Order describes the purchase the dispute was opened against.
type Order struct {
	ItemName  string          `json:"item_name"`
	ItemPrice decimal.Decimal `json:"item_price"`
	OrderDate Date            `json:"order_date"`
}

// HasShipment reports whether enough shipping metadata exists to cite it to the buyer.
func (d Details) HasShipment() bool {
	return strings.TrimSpace(d.TrackingNumber) != "" && strings.TrimSpace(d.ShippingCarrier) != ""
}

// Validate checks the invariants a record must satisfy before it is shown.
func (d Dispute) Validate() error {
	if d.decodeErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, d.ID, d.decodeErr)
	}
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalid)
	}
	if d.CreatedAt.IsZero() || d.ResponseDueDate.IsZero() {
		return fmt.Errorf("%w: %s: missing created or due timestamp", ErrInvalid, d.ID)
	}
	if !d.ResponseDueDate.After(d.CreatedAt) {
		return fmt.Errorf("%w: %s: response due %s is not after creation %s", ErrInvalid, d.ID,
			d.ResponseDueDate.Format(time.RFC3339), d.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// FormatAmount renders the amount the way the table shows it, eg. "USD 299.99".
func (d Dispute) FormatAmount() string {
	return strings.TrimSpace(d.Currency + " " + d.Amount.StringFixed(2))
}

// Overdue reports whether the response window has closed.
func (d Dispute) Overdue(now time.Time) bool {
	return !d.ResponseDueDate.IsZero() && now.After(d.ResponseDueDate)
}

// DueWithin reports whether the response is due in the next window but not yet overdue.
func (d Dispute) DueWithin(now time.Time, window time.Duration) bool {
	if d.Overdue(now) || d.ResponseDueDate.IsZero() {
		return false
	}
	return d.ResponseDueDate.Sub(now) <= window
}

// Find returns the dispute with the given id.
func Find(disputes []Dispute, id string) (Dispute, bool) {
	for _, d := range disputes {
		if d.ID == id {
			return d, true
		}
	}
	return Dispute{}, false
}

const dateLayout = "2006-01-02"

// Date is a calendar date. It decodes both "2006-01-02" and RFC 3339 values.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	value := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if value == "" || value == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			d.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("dispute: invalid date %q", value)
}
