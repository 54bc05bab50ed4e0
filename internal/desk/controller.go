package desk

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/dispute"
	"github.com/csheth/disputedesk/internal/drafter"
)

// Generator produces a suggested response for a dispute.
type Generator interface {
	Generate(ctx context.Context, d dispute.Dispute) (string, error)
	Name() string
}

// Sink accepts the final response text for a dispute. Implementations that talk to a remote
// API should use sub.RequestID as the idempotency key.
type Sink interface {
	SubmitResponse(ctx context.Context, sub Submission) error
}

// Options configures a Controller. Nil collaborators fall back to the template generator and
// a log-only sink.
type Options struct {
	Store     *dispute.Store
	Generator Generator
	Sink      Sink
	Drafter   drafter.Drafter
	Logger    zerolog.Logger
}

// Controller binds the session to its collaborators.
type Controller struct {
	session   *Session
	store     *dispute.Store
	generator Generator
	sink      Sink
	log       zerolog.Logger
}

func New(opts Options) *Controller {
	gen := opts.Generator
	if gen == nil {
		gen = drafter.Template{Drafter: opts.Drafter}
	}
	sink := opts.Sink
	if sink == nil {
		sink = LogSink{Log: opts.Logger}
	}
	store := opts.Store
	if store == nil {
		store = dispute.NewStore(dispute.SampleSource{}, opts.Logger)
	}
	return &Controller{
		session:   NewSession(opts.Drafter),
		store:     store,
		generator: gen,
		sink:      sink,
		log:       opts.Logger,
	}
}

func (c *Controller) Session() *Session { return c.session }

func (c *Controller) GeneratorName() string { return c.generator.Name() }

// Load fetches the dispute list without touching session state.
func (c *Controller) Load(ctx context.Context) ([]dispute.Dispute, error) {
	return c.store.Load(ctx)
}

// Generate asks the generator for a suggestion without touching session state.
func (c *Controller) Generate(ctx context.Context, d dispute.Dispute) (Suggestion, error) {
	text, err := c.generator.Generate(ctx, d)
	return Suggestion{Text: text, Generator: c.generator.Name()}, err
}

// Deliver hands a submission to the sink without touching session state.
func (c *Controller) Deliver(ctx context.Context, sub Submission) error {
	return c.sink.SubmitResponse(ctx, sub)
}

// Refresh reloads the dispute list and blocks until it is done.
func (c *Controller) Refresh(ctx context.Context) error {
	ticket, err := c.session.BeginRefresh()
	if err != nil {
		return err
	}
	list, loadErr := c.Load(ctx)
	return c.report("refresh", c.session.CompleteRefresh(ticket, list, loadErr))
}

// SelectForResponse opens a draft for id and waits for the suggestion.
func (c *Controller) SelectForResponse(ctx context.Context, id string) error {
	ticket, d, err := c.session.BeginDraft(id)
	if err != nil {
		return err
	}
	suggestion, genErr := c.Generate(ctx, d)
	return c.report("generate", c.session.CompleteDraft(ticket, suggestion, genErr))
}

func (c *Controller) EditDraft(text string) error {
	return c.session.EditDraft(text)
}

// Submit delivers the current draft text and blocks until the sink answers.
func (c *Controller) Submit(ctx context.Context) error {
	ticket, sub, err := c.session.BeginSubmit()
	if err != nil {
		return err
	}
	deliverErr := c.Deliver(ctx, sub)
	if err := c.report("submit", c.session.CompleteSubmit(ticket, deliverErr)); err != nil {
		return err
	}
	c.log.Info().Str("dispute_id", sub.DisputeID).Msg("response submitted")
	return nil
}

func (c *Controller) Cancel() error {
	return c.session.Cancel()
}

func (c *Controller) report(op string, err error) error {
	var deskErr *Error
	if errors.As(err, &deskErr) {
		c.log.Error().Err(deskErr.Err).Str("op", op).Str("kind", deskErr.Kind.String()).Msg(deskErr.Error())
	}
	return err
}
