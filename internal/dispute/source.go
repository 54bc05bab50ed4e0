package dispute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Source retrieves the current dispute list from a system of record.
type Source interface {
	ListDisputes(ctx context.Context) ([]Dispute, error)
}

// Store loads disputes from a Source and hands back only records that pass validation.
type Store struct {
	source Source
	log    zerolog.Logger
}

// NewStore wraps source. Invalid or duplicate records are logged on log and skipped.
func NewStore(source Source, log zerolog.Logger) *Store {
	return &Store{source: source, log: log}
}

// Load retrieves the dispute list, keeping the order reported by the source.
func (s *Store) Load(ctx context.Context) ([]Dispute, error) {
	if s.source == nil {
		return nil, fmt.Errorf("dispute: load: no source configured")
	}
	records, err := s.source.ListDisputes(ctx)
	if err != nil {
		return nil, fmt.Errorf("dispute: load: %w", err)
	}
	out := make([]Dispute, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, record := range records {
		if err := record.Validate(); err != nil {
			s.log.Warn().Err(err).Str("dispute_id", record.ID).Msg("skipping invalid dispute")
			continue
		}
		if seen[record.ID] {
			s.log.Warn().Str("dispute_id", record.ID).Msg("skipping duplicate dispute")
			continue
		}
		seen[record.ID] = true
		out = append(out, record)
	}
	s.log.Debug().Int("received", len(records)).Int("kept", len(out)).Msg("disputes loaded")
	return out, nil
}

// SampleSource serves the built-in demo disputes after an optional simulated latency.
type SampleSource struct {
	Latency time.Duration
}

func (s SampleSource) ListDisputes(ctx context.Context) ([]Dispute, error) {
	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return SampleDisputes(), nil
}

// FileSource reads disputes from a JSON file holding either an array or {"items": [...]}.
type FileSource struct {
	Path string
}

func (s FileSource) ListDisputes(ctx context.Context) ([]Dispute, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return DecodeList(data)
}

// DecodeList parses a dispute list payload. Both a bare array and an {"items": [...]} envelope
// are accepted; an empty payload yields no disputes. A record that does not parse is kept in
// place with only its id, and fails Validate, so one bad record does not sink the list.
func DecodeList(data []byte) ([]Dispute, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var raws []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("dispute: decode list: %w", err)
		}
	} else {
		var envelope struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("dispute: decode list: %w", err)
		}
		raws = envelope.Items
	}
	if raws == nil {
		return nil, nil
	}
	list := make([]Dispute, 0, len(raws))
	for i, raw := range raws {
		list = append(list, decodeRecord(i, raw))
	}
	return list, nil
}

func decodeRecord(index int, raw json.RawMessage) Dispute {
	var d Dispute
	err := json.Unmarshal(raw, &d)
	if err == nil {
		return d
	}
	var header struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &header)
	return Dispute{ID: header.ID, decodeErr: fmt.Errorf("record %d: %w", index, err)}
}

// SampleDisputes returns the two demo disputes used when no real source is configured.
func SampleDisputes() []Dispute {
	shipped := NewDate(2025, time.February, 1)
	return []Dispute{
		{
			ID:              "PP-D-1234",
			Status:          StatusOpen,
			Amount:          decimal.RequireFromString("299.99"),
			Currency:        "USD",
			Reason:          "Item not received",
			BuyerEmail:      "buyer@example.com",
			CreatedAt:       time.Date(2025, time.February, 8, 10, 30, 0, 0, time.UTC),
			ResponseDueDate: time.Date(2025, time.February, 15, 10, 30, 0, 0, time.UTC),
			Details: Details{
				TrackingNumber:  "USP123456789",
				ShippingCarrier: "USPS",
				ShippingDate:    &shipped,
				BuyerComplaint:  "I never received my package. It's been a week since the expected delivery date.",
				Order: Order{
					ItemName:  "Wireless Headphones",
					ItemPrice: decimal.RequireFromString("299.99"),
					OrderDate: NewDate(2025, time.January, 28),
				},
			},
		},
		{
			ID:              "PP-D-5678",
			Status:          StatusUnderReview,
			Amount:          decimal.RequireFromString("149.50"),
			Currency:        "USD",
			Reason:          "Item not as described",
			BuyerEmail:      "customer@example.com",
			CreatedAt:       time.Date(2025, time.February, 7, 15, 45, 0, 0, time.UTC),
			ResponseDueDate: time.Date(2025, time.February, 14, 15, 45, 0, 0, time.UTC),
			Details: Details{
				BuyerComplaint: "The product color is different from what was advertised. I received a blue one instead of black.",
				Order: Order{
					ItemName:  "Designer Watch",
					ItemPrice: decimal.RequireFromString("149.50"),
					OrderDate: NewDate(2025, time.February, 5),
				},
			},
		},
	}
}
