package journal

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/desk"
)

// Sink records every attempt made through Next. Journal write failures are logged and never
// change the outcome reported to the caller.
type Sink struct {
	Next desk.Sink
	Path string
	Log  zerolog.Logger
	Now  func() time.Time

	mu sync.Mutex
}

func (s *Sink) SubmitResponse(ctx context.Context, sub desk.Submission) error {
	err := s.Next.SubmitResponse(ctx, sub)
	entry := Entry{
		EntryType: EntrySubmitted,
		DisputeID: sub.DisputeID,
		RequestID: sub.RequestID,
		Text:      sub.Text,
		At:        s.now(),
	}
	if err != nil {
		entry.EntryType = EntryFailed
		entry.Error = err.Error()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if appendErr := Append(s.Path, entry); appendErr != nil {
		s.Log.Warn().Err(appendErr).Str("path", s.Path).Str("dispute_id", sub.DisputeID).Msg("journal write failed")
	}
	return err
}

func (s *Sink) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
