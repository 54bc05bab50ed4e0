package desk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/csheth/disputedesk/internal/dispute"
	"github.com/csheth/disputedesk/internal/drafter"
)

var (
	// ErrStale marks a completion whose operation was cancelled or superseded.
	ErrStale = errors.New("desk: stale result")
	// ErrEmptyDraft is returned when submitting a blank response.
	ErrEmptyDraft = errors.New("desk: draft is empty")
)

// State is the position of a session in the drafting workflow.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
	StateGenerating
	StateDrafting
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	case StateGenerating:
		return "generating"
	case StateDrafting:
		return "drafting"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Ticket identifies one in-flight operation. Completions carrying an older ticket are dropped.
type Ticket uint64

// Draft is the response being written for exactly one dispute.
type Draft struct {
	Dispute   dispute.Dispute
	Suggested string
	Text      string
	Generator string

	// requestID is reused while the text sent last time is unchanged, so a retry after a lost
	// reply is deduplicated by the sink.
	requestID string
	sentText  string
}

// Edited reports whether the user changed the suggested text.
func (d Draft) Edited() bool {
	return d.Text != d.Suggested
}

// Suggestion is the output of a response generator.
type Suggestion struct {
	Text      string
	Generator string
}

// Submission is the final text handed to the sink. RequestID is the idempotency key: the
// same draft text resubmitted after a failure carries the same key.
type Submission struct {
	DisputeID string
	Text      string
	RequestID string
}

// Session holds the process-local view state. It is not safe for concurrent use; callers
// drive it from a single goroutine and run the slow parts elsewhere.
type Session struct {
	state    State
	disputes []dispute.Dispute
	filter   string
	pending  dispute.Dispute
	draft    *Draft
	lastErr  *Error
	ticket   Ticket
	fallback drafter.Drafter
	newID    func() string
}

// NewSession returns an idle session. fallback seeds the draft when generation fails.
func NewSession(fallback drafter.Drafter) *Session {
	return &Session{state: StateIdle, fallback: fallback, newID: uuid.NewString}
}

func (s *Session) State() State { return s.state }

// Busy reports whether an operation is in flight.
func (s *Session) Busy() bool {
	switch s.state {
	case StateLoading, StateGenerating, StateSubmitting:
		return true
	default:
		return false
	}
}

func (s *Session) Disputes() []dispute.Dispute { return s.disputes }

func (s *Session) Filter() string { return s.filter }

// SetFilter changes the active query. Allowed in any state.
func (s *Session) SetFilter(query string) {
	s.filter = query
}

// Visible returns the disputes matching the active filter, in list order.
func (s *Session) Visible() []dispute.Dispute {
	return dispute.Filter(s.filter, s.disputes)
}

// Dispute looks up a dispute in the full list.
func (s *Session) Dispute(id string) (dispute.Dispute, bool) {
	return dispute.Find(s.disputes, id)
}

// Draft returns a copy of the active draft.
func (s *Session) Draft() (Draft, bool) {
	if s.draft == nil {
		return Draft{}, false
	}
	return *s.draft, true
}

// Pending returns the dispute whose suggestion is being generated.
func (s *Session) Pending() (dispute.Dispute, bool) {
	if s.state != StateGenerating {
		return dispute.Dispute{}, false
	}
	return s.pending, true
}

// Err returns the latest error shown in the banner.
func (s *Session) Err() *Error { return s.lastErr }

// DismissError hides the banner. A failed refresh returns to Loaded with the previous list.
func (s *Session) DismissError() {
	s.lastErr = nil
	if s.state == StateError {
		s.state = StateLoaded
	}
}

func (s *Session) nextTicket() Ticket {
	s.ticket++
	return s.ticket
}

func (s *Session) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, s.state)
}

func (s *Session) current(t Ticket, want State) bool {
	return s.state == want && t == s.ticket
}

// BeginRefresh moves to Loading.
func (s *Session) BeginRefresh() (Ticket, error) {
	switch s.state {
	case StateIdle, StateLoaded, StateError:
	default:
		return 0, s.invalid("refresh")
	}
	s.state = StateLoading
	return s.nextTicket(), nil
}

// CompleteRefresh stores the retrieved list, or records a RetrievalError and keeps the
// previous list.
func (s *Session) CompleteRefresh(t Ticket, disputes []dispute.Dispute, err error) error {
	if !s.current(t, StateLoading) {
		return ErrStale
	}
	if err != nil {
		s.lastErr = newError(KindRetrieval, err)
		s.state = StateError
		return s.lastErr
	}
	s.disputes = disputes
	if s.lastErr != nil && s.lastErr.Kind == KindRetrieval {
		s.lastErr = nil
	}
	s.state = StateLoaded
	return nil
}

// BeginDraft selects a dispute for response and moves to Generating.
func (s *Session) BeginDraft(id string) (Ticket, dispute.Dispute, error) {
	if s.state != StateLoaded {
		return 0, dispute.Dispute{}, s.invalid("respond")
	}
	d, ok := s.Dispute(id)
	if !ok {
		return 0, dispute.Dispute{}, fmt.Errorf("desk: respond to %s: %w", id, dispute.ErrNotFound)
	}
	s.pending = d
	s.state = StateGenerating
	return s.nextTicket(), d, nil
}

// CompleteDraft populates the draft. When generation fails the GenerationError is recorded and
// the draft is seeded from the deterministic template so the user can still respond.
func (s *Session) CompleteDraft(t Ticket, suggestion Suggestion, err error) error {
	if !s.current(t, StateGenerating) {
		return ErrStale
	}
	if err == nil && strings.TrimSpace(suggestion.Text) == "" {
		err = errors.New("generator returned an empty response")
	}
	if err != nil {
		s.lastErr = newError(KindGeneration, err)
		suggestion = Suggestion{Text: s.fallback.Draft(s.pending), Generator: "Template (fallback)"}
	}
	s.draft = &Draft{
		Dispute:   s.pending,
		Suggested: suggestion.Text,
		Text:      suggestion.Text,
		Generator: suggestion.Generator,
	}
	s.pending = dispute.Dispute{}
	s.state = StateDrafting
	if err != nil {
		return s.lastErr
	}
	return nil
}

// EditDraft replaces the draft text.
func (s *Session) EditDraft(text string) error {
	if s.state != StateDrafting || s.draft == nil {
		return s.invalid("edit")
	}
	s.draft.Text = drafter.Edit(s.draft.Text, text)
	return nil
}

// BeginSubmit moves to Submitting and returns the text to deliver.
func (s *Session) BeginSubmit() (Ticket, Submission, error) {
	if s.state != StateDrafting || s.draft == nil {
		return 0, Submission{}, s.invalid("submit")
	}
	if strings.TrimSpace(s.draft.Text) == "" {
		return 0, Submission{}, ErrEmptyDraft
	}
	if s.draft.requestID == "" || s.draft.sentText != s.draft.Text {
		s.draft.requestID = s.newID()
		s.draft.sentText = s.draft.Text
	}
	s.state = StateSubmitting
	return s.nextTicket(), Submission{
		DisputeID: s.draft.Dispute.ID,
		Text:      s.draft.Text,
		RequestID: s.draft.requestID,
	}, nil
}

// CompleteSubmit clears the draft on success. On failure the draft is kept for another
// attempt and a SubmissionError is recorded.
func (s *Session) CompleteSubmit(t Ticket, err error) error {
	if !s.current(t, StateSubmitting) {
		return ErrStale
	}
	if err != nil {
		s.lastErr = newError(KindSubmission, err)
		s.state = StateDrafting
		return s.lastErr
	}
	s.draft = nil
	if s.lastErr != nil && s.lastErr.Kind != KindRetrieval {
		s.lastErr = nil
	}
	s.state = StateLoaded
	return nil
}

// Cancel discards the draft, or abandons a generation in flight.
func (s *Session) Cancel() error {
	switch s.state {
	case StateGenerating, StateDrafting:
	default:
		return s.invalid("cancel")
	}
	s.draft = nil
	s.pending = dispute.Dispute{}
	s.state = StateLoaded
	return nil
}
