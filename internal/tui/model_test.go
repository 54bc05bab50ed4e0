package tui

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/desk"
	"github.com/csheth/disputedesk/internal/dispute"
	"github.com/csheth/disputedesk/internal/drafter"
)

var testNow = time.Date(2025, time.February, 10, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	disputes []dispute.Dispute
	err      error
}

func (f *fakeSource) ListDisputes(context.Context) ([]dispute.Dispute, error) {
	return f.disputes, f.err
}

type fakeGenerator struct {
	text   string
	err    error
	ctxErr error
}

func (f *fakeGenerator) Generate(ctx context.Context, _ dispute.Dispute) (string, error) {
	f.ctxErr = ctx.Err()
	return f.text, f.err
}

func (f *fakeGenerator) Name() string { return "Fake LLM" }

type recordingSink struct {
	calls []desk.Submission
	err   error
}

func (r *recordingSink) SubmitResponse(_ context.Context, sub desk.Submission) error {
	r.calls = append(r.calls, sub)
	return r.err
}

type fixture struct {
	model  *model
	source *fakeSource
	gen    *fakeGenerator
	sink   *recordingSink
}

func newTestModel(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		source: &fakeSource{disputes: dispute.SampleDisputes()},
		gen:    &fakeGenerator{text: "Hello, your package is on its way."},
		sink:   &recordingSink{},
	}
	ctrl := desk.New(desk.Options{
		Store:     dispute.NewStore(f.source, zerolog.Nop()),
		Generator: f.gen,
		Sink:      f.sink,
		Drafter:   drafter.New("Test Shop"),
		Logger:    zerolog.Nop(),
	})
	m, ok := New(Config{Controller: ctrl, Logger: zerolog.Nop(), Now: func() time.Time { return testNow }}).(*model)
	if !ok {
		t.Fatalf("New returned unexpected type")
	}
	f.model = m
	return f
}

// loaded returns a fixture whose initial refresh already completed.
func loaded(t *testing.T) *fixture {
	t.Helper()
	f := newTestModel(t)
	f.pump(f.model.Init())
	if got := f.model.session.State(); got != desk.StateLoaded {
		t.Fatalf("state after init = %s, want loaded", got)
	}
	return f
}

// pump runs cmd and feeds any job messages it yields back into the model. Commands returned
// by the model itself, such as cursor blinks, are not followed.
func (f *fixture) pump(cmd tea.Cmd) {
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case jobSignalMsg, jobResultEnvelope:
			f.model.Update(msg)
		}
	}
}

func (f *fixture) press(keys ...tea.KeyMsg) tea.Cmd {
	var last tea.Cmd
	for _, k := range keys {
		_, last = f.model.Update(k)
	}
	return last
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	case spinner.TickMsg:
		return nil
	}
	// tea.Sequence wraps its commands in an unexported slice type.
	v := reflect.ValueOf(msg)
	if v.Kind() == reflect.Slice && v.Type().Elem() == reflect.TypeOf(tea.Cmd(nil)) {
		var out []tea.Msg
		for i := 0; i < v.Len(); i++ {
			out = append(out, collect(v.Index(i).Interface().(tea.Cmd))...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyMsg(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func TestInitLoadsDisputes(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	if rows := f.model.table.Rows(); len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	view := f.model.View()
	for _, want := range []string{"PP-D-1234", "Wireless Headphones", "Loaded 2 disputes.", "Generator Fake LLM"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestRefreshFailureShowsDismissableBanner(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	f.source.err = errors.New("connection refused")
	f.pump(f.press(runes("r")))

	if f.model.session.State() != desk.StateError {
		t.Fatalf("state = %s, want error", f.model.session.State())
	}
	view := f.model.View()
	if !strings.Contains(view, "Failed to fetch disputes") || !strings.Contains(view, "connection refused") {
		t.Fatalf("banner missing:\n%s", view)
	}
	if len(f.model.table.Rows()) != 2 {
		t.Fatalf("previous rows should be kept")
	}

	f.press(runes("x"))
	if strings.Contains(f.model.View(), "Failed to fetch disputes") {
		t.Fatal("banner should be dismissed")
	}
	if f.model.session.State() != desk.StateLoaded {
		t.Fatalf("state = %s, want loaded", f.model.session.State())
	}
}

func TestEnterDraftsResponse(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	cmd := f.press(keyMsg(tea.KeyEnter))
	if f.model.session.State() != desk.StateGenerating {
		t.Fatalf("state = %s, want generating", f.model.session.State())
	}
	if !strings.Contains(f.model.View(), "Drafting a response for PP-D-1234") {
		t.Fatalf("generating status missing:\n%s", f.model.View())
	}
	f.pump(cmd)

	if f.model.focus != focusDraft {
		t.Fatalf("focus = %v, want draft", f.model.focus)
	}
	if got := f.model.draft.Value(); got != f.gen.text {
		t.Fatalf("draft = %q", got)
	}
	view := f.model.View()
	if !strings.Contains(view, "Response for PP-D-1234") || !strings.Contains(view, "Before you send") {
		t.Fatalf("draft panel missing:\n%s", view)
	}
}

func TestSubmitSendsEditedText(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	f.pump(f.press(keyMsg(tea.KeyEnter)))
	f.press(runes(" Thanks!"))
	f.pump(f.press(keyMsg(tea.KeyCtrlS)))

	if len(f.sink.calls) != 1 {
		t.Fatalf("sink calls = %d, want 1", len(f.sink.calls))
	}
	got := f.sink.calls[0]
	if got.DisputeID != "PP-D-1234" || got.Text != f.gen.text+" Thanks!" {
		t.Fatalf("submitted %+v", got)
	}
	if f.model.session.State() != desk.StateLoaded || f.model.focus != focusTable {
		t.Fatalf("state = %s focus = %v after submit", f.model.session.State(), f.model.focus)
	}
	if !strings.Contains(f.model.View(), "Response submitted for PP-D-1234.") {
		t.Fatalf("confirmation missing:\n%s", f.model.View())
	}
	if !strings.Contains(f.model.View(), "Submitted 1") {
		t.Fatalf("meter should count the submission")
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	f.sink.err = errors.New("503 service unavailable")
	f.pump(f.press(keyMsg(tea.KeyEnter)))
	f.pump(f.press(keyMsg(tea.KeyCtrlS)))

	if f.model.session.State() != desk.StateDrafting {
		t.Fatalf("state = %s, want drafting", f.model.session.State())
	}
	if f.model.draft.Value() != f.gen.text {
		t.Fatalf("draft lost: %q", f.model.draft.Value())
	}
	if !strings.Contains(f.model.View(), "Failed to submit response") {
		t.Fatalf("submission banner missing:\n%s", f.model.View())
	}

	f.sink.err = nil
	f.pump(f.press(keyMsg(tea.KeyCtrlS)))
	if len(f.sink.calls) != 2 || f.model.session.Err() != nil {
		t.Fatalf("retry should succeed and clear the banner: calls=%d err=%v", len(f.sink.calls), f.model.session.Err())
	}
}

func TestGenerationFailureFallsBackToTemplate(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	f.gen.err = errors.New("model not loaded")
	f.pump(f.press(keyMsg(tea.KeyEnter)))

	if f.model.session.State() != desk.StateDrafting {
		t.Fatalf("state = %s, want drafting", f.model.session.State())
	}
	if !strings.Contains(f.model.draft.Value(), "Test Shop") {
		t.Fatalf("template draft expected, got %q", f.model.draft.Value())
	}
	view := f.model.View()
	if !strings.Contains(view, "Failed to generate AI response") || !strings.Contains(view, "Template (fallback)") {
		t.Fatalf("fallback not surfaced:\n%s", view)
	}
}

func TestEscDiscardsDraftAndDropsLateSuggestion(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	cmd := f.press(keyMsg(tea.KeyEnter))
	f.press(keyMsg(tea.KeyEsc))
	if f.model.session.State() != desk.StateLoaded {
		t.Fatalf("state = %s, want loaded", f.model.session.State())
	}

	f.pump(cmd)
	if !errors.Is(f.gen.ctxErr, context.Canceled) {
		t.Fatalf("generation context err = %v, want canceled", f.gen.ctxErr)
	}
	if _, ok := f.model.session.Draft(); ok {
		t.Fatal("late suggestion should be dropped")
	}
	if f.model.focus != focusTable {
		t.Fatalf("focus = %v, want table", f.model.focus)
	}
}

func TestFilterNarrowsRows(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	f.press(runes("/"))
	if f.model.focus != focusFilter {
		t.Fatalf("focus = %v, want filter", f.model.focus)
	}
	f.press(runes("customer"))
	if rows := f.model.table.Rows(); len(rows) != 1 || rows[0][0] != "PP-D-5678" {
		t.Fatalf("filtered rows = %v", rows)
	}
	if !strings.Contains(f.model.View(), "Matching 1") {
		t.Fatalf("meter should show matches")
	}

	f.press(runes("zzz"))
	if !strings.Contains(f.model.View(), "No disputes match") {
		t.Fatalf("empty filter message missing:\n%s", f.model.View())
	}

	f.press(keyMsg(tea.KeyEsc))
	if len(f.model.table.Rows()) != 2 || f.model.session.Filter() != "" {
		t.Fatalf("esc should clear the filter")
	}
}

func TestAppKeysRunBeforeTable(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	f.press(runes("?"))
	if !f.model.helpVisible {
		t.Fatal("? should toggle help")
	}

	cmd := f.press(runes("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should return tea.Quit")
	}
	if f.model.jobs.root.Err() == nil {
		t.Fatal("quitting should cancel running jobs")
	}
}

func TestKeyLegendFollowsSessionState(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	view := f.model.View()
	if !strings.Contains(view, "respond") || strings.Contains(view, "back to draft") {
		t.Fatalf("table legend should offer respond only:\n%s", view)
	}
	if f.press(keyMsg(tea.KeyTab)); f.model.focus != focusTable {
		t.Fatal("tab without a draft should do nothing")
	}

	f.pump(f.press(keyMsg(tea.KeyEnter)))
	if !strings.Contains(f.model.View(), "submit response") {
		t.Fatalf("draft legend missing:\n%s", f.model.View())
	}
	f.press(keyMsg(tea.KeyTab))
	if f.model.focus != focusTable || !strings.Contains(f.model.View(), "back to draft") {
		t.Fatalf("table legend should offer the way back, focus = %v:\n%s", f.model.focus, f.model.View())
	}
	f.press(keyMsg(tea.KeyTab))
	if f.model.focus != focusDraft {
		t.Fatalf("tab should return to the draft, focus = %v", f.model.focus)
	}
}

func TestRespondWhileDraftingIsRejected(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	f.pump(f.press(keyMsg(tea.KeyEnter)))
	f.press(keyMsg(tea.KeyTab))
	if f.model.focus != focusTable {
		t.Fatalf("tab should return to the list")
	}
	f.press(keyMsg(tea.KeyDown), keyMsg(tea.KeyEnter))
	if !strings.Contains(f.model.infoMessage, "Cannot respond while drafting") {
		t.Fatalf("info = %q", f.model.infoMessage)
	}
	if draft, _ := f.model.session.Draft(); draft.Dispute.ID != "PP-D-1234" {
		t.Fatalf("draft should still target the first dispute, got %s", draft.Dispute.ID)
	}
}

func TestEmptyDraftIsNotSubmitted(t *testing.T) {
	t.Parallel()

	f := loaded(t)
	f.pump(f.press(keyMsg(tea.KeyEnter)))
	f.model.draft.SetValue("   ")
	f.press(keyMsg(tea.KeyCtrlS))

	if len(f.sink.calls) != 0 {
		t.Fatal("blank draft must not reach the sink")
	}
	if f.model.infoMessage != "Write a response before submitting." {
		t.Fatalf("info = %q", f.model.infoMessage)
	}
}

func TestDueCellMarksDeadlines(t *testing.T) {
	t.Parallel()

	d := dispute.SampleDisputes()[0]
	if got := dueCell(d, d.ResponseDueDate.Add(-24*time.Hour)); !strings.HasSuffix(got, "soon") {
		t.Fatalf("dueCell = %q, want soon marker", got)
	}
	if got := dueCell(d, d.ResponseDueDate.Add(time.Hour)); !strings.HasSuffix(got, "!overdue") {
		t.Fatalf("dueCell = %q, want overdue marker", got)
	}
	if got := dueCell(d, d.CreatedAt); strings.Contains(got, "soon") || strings.Contains(got, "overdue") {
		t.Fatalf("dueCell = %q, want plain date", got)
	}
}
