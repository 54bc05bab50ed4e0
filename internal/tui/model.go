package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/desk"
	"github.com/csheth/disputedesk/internal/dispute"
	"github.com/csheth/disputedesk/internal/playbook"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Controller *desk.Controller
	Logger     zerolog.Logger
	// Now is used for deadline badges. Defaults to time.Now.
	Now func() time.Time
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Controller == nil {
		config.Controller = desk.New(desk.Options{Logger: config.Logger})
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	layout := newPageLayout()

	tbl := table.New(
		table.WithColumns(tableColumns(layout.contentWidth)),
		table.WithHeight(layout.tableHeight),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = tableHeader
	styles.Selected = tableSelected
	styles.Cell = tableCell
	tbl.SetStyles(styles)

	filter := textinput.New()
	filter.Placeholder = filterPlaceholder
	filter.Prompt = "/ "
	filter.CharLimit = 80
	filter.Width = 48

	draft := textarea.New()
	draft.Placeholder = draftPlaceholder
	draft.CharLimit = 0
	draft.ShowLineNumbers = false
	draft.SetWidth(layout.contentWidth - 4)
	draft.SetHeight(layout.draftHeight)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(layout.contentWidth-4, layout.panelHeight)
	vp.MouseWheelEnabled = true

	legend := help.New()
	legend.FullSeparator = "   "
	legend.Styles.FullKey = keyStyle
	legend.Styles.FullDesc = keyDescStyle
	legend.Styles.FullSeparator = keyDescStyle

	return &model{
		config:  config,
		ctrl:    config.Controller,
		session: config.Controller.Session(),
		jobs:    newJobBus(config.Logger),
		log:     config.Logger,
		layout:  layout,
		focus:   focusTable,
		table:   tbl,
		filter:  filter,
		draft:   draft,
		spinner: spin,
		detail:  vp,
		keys:    defaultKeyMap(),
		legend:  legend,
	}
}

type model struct {
	config  Config
	ctrl    *desk.Controller
	session *desk.Session
	jobs    *jobBus
	log     zerolog.Logger
	layout  pageLayout

	focus   focusArea
	table   table.Model
	filter  textinput.Model
	draft   textarea.Model
	spinner spinner.Model
	detail  viewport.Model
	keys    keyMap
	legend  help.Model

	steps       []playbook.Step
	detailID    string
	lastJob     jobSnapshot
	submitted   int
	infoMessage string
	helpVisible bool
}

func (m *model) Init() tea.Cmd {
	return m.startRefresh()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.session.Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.applyLayout()
		return m, nil
	case jobSignalMsg:
		m.lastJob = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		m.lastJob = msg.Snapshot
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case disputesLoadedMsg:
		return m.handleDisputesLoaded(msg)
	case draftReadyMsg:
		return m.handleDraftReady(msg)
	case submitResultMsg:
		return m.handleSubmitResult(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusFilter:
		m.filter, cmd = m.filter.Update(msg)
	case focusDraft:
		m.draft, cmd = m.draft.Update(msg)
	}
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}
	switch m.focus {
	case focusFilter:
		return m.handleFilterKey(msg)
	case focusDraft:
		return m.handleDraftKey(msg)
	default:
		return m.handleTableKey(msg)
	}
}

// handleTableKey runs the application shortcuts first so the table never sees them.
func (m *model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.syncKeys()
	k := m.keys.Table
	switch {
	case key.Matches(msg, k.Quit):
		return m.quit()
	case key.Matches(msg, k.Refresh):
		return m, m.startRefresh()
	case key.Matches(msg, k.Filter):
		m.focus = focusFilter
		m.table.Blur()
		return m, m.filter.Focus()
	case key.Matches(msg, k.Dismiss):
		m.session.DismissError()
		return m, nil
	case key.Matches(msg, k.Help):
		m.helpVisible = !m.helpVisible
		return m, nil
	case key.Matches(msg, k.Respond):
		return m.startDraft()
	case key.Matches(msg, k.BackToDraft):
		m.focus = focusDraft
		m.table.Blur()
		return m, m.draft.Focus()
	case key.Matches(msg, k.Cancel):
		return m.cancelDraft()
	case key.Matches(msg, k.Scroll):
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	case msg.String() == "tab", msg.String() == "esc":
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.refreshDetail()
	return m, cmd
}

// syncKeys enables the table bindings that apply to the current session state.
func (m *model) syncKeys() {
	_, hasDraft := m.session.Draft()
	m.keys.setSession(hasDraft && m.session.State() == desk.StateDrafting, m.session.State() == desk.StateGenerating)
}

func (m *model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Filter.Keep):
		m.focusTable()
		return m, nil
	case key.Matches(msg, m.keys.Filter.Clear):
		m.filter.SetValue("")
		m.session.SetFilter("")
		m.syncTable()
		m.focusTable()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != m.session.Filter() {
		m.session.SetFilter(m.filter.Value())
		m.syncTable()
	}
	return m, cmd
}

func (m *model) handleDraftKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Draft.Submit):
		return m.submitDraft()
	case key.Matches(msg, m.keys.Draft.Discard):
		return m.cancelDraft()
	case key.Matches(msg, m.keys.Draft.Leave):
		m.draft.Blur()
		m.focusTable()
		return m, nil
	}
	if m.session.State() != desk.StateDrafting {
		return m, nil
	}
	var cmd tea.Cmd
	m.draft, cmd = m.draft.Update(msg)
	if err := m.session.EditDraft(m.draft.Value()); err != nil {
		m.log.Debug().Err(err).Msg("draft edit ignored")
	}
	return m, cmd
}

func (m *model) focusTable() {
	m.focus = focusTable
	m.filter.Blur()
	m.table.Focus()
}

func (m *model) quit() (tea.Model, tea.Cmd) {
	m.jobs.Shutdown()
	return m, tea.Quit
}

func (m *model) startRefresh() tea.Cmd {
	ticket, err := m.session.BeginRefresh()
	if err != nil {
		m.infoMessage = transitionMessage(err)
		return nil
	}
	m.infoMessage = ""
	return tea.Batch(m.jobs.Start(jobKindRefresh, refreshJob(m.ctrl, ticket)), m.spinner.Tick)
}

func (m *model) startDraft() (tea.Model, tea.Cmd) {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		m.infoMessage = "No dispute selected."
		return m, nil
	}
	ticket, d, err := m.session.BeginDraft(row[0])
	if err != nil {
		m.infoMessage = transitionMessage(err)
		return m, nil
	}
	m.infoMessage = ""
	m.steps = playbook.Build(d, m.config.Now())
	m.refreshDetail()
	return m, tea.Batch(m.jobs.Start(jobKindGenerate, generateJob(m.ctrl, ticket, d)), m.spinner.Tick)
}

func (m *model) submitDraft() (tea.Model, tea.Cmd) {
	if m.session.State() == desk.StateDrafting {
		if err := m.session.EditDraft(m.draft.Value()); err != nil {
			m.infoMessage = transitionMessage(err)
			return m, nil
		}
	}
	ticket, sub, err := m.session.BeginSubmit()
	switch {
	case errors.Is(err, desk.ErrEmptyDraft):
		m.infoMessage = "Write a response before submitting."
		return m, nil
	case err != nil:
		m.infoMessage = transitionMessage(err)
		return m, nil
	}
	m.infoMessage = ""
	m.draft.Blur()
	return m, tea.Batch(m.jobs.Start(jobKindSubmit, submitJob(m.ctrl, ticket, sub)), m.spinner.Tick)
}

func (m *model) cancelDraft() (tea.Model, tea.Cmd) {
	state := m.session.State()
	switch state {
	case desk.StateGenerating, desk.StateDrafting:
	default:
		return m, nil
	}
	if err := m.session.Cancel(); err != nil {
		m.infoMessage = transitionMessage(err)
		return m, nil
	}
	if state == desk.StateGenerating && m.jobs.Cancel(jobKindGenerate) {
		m.log.Debug().Msg("generation cancelled")
	}
	m.draft.Reset()
	m.draft.Blur()
	m.steps = nil
	m.focusTable()
	m.infoMessage = "Draft discarded."
	m.refreshDetail()
	return m, nil
}

func (m *model) handleDisputesLoaded(msg disputesLoadedMsg) (tea.Model, tea.Cmd) {
	err := m.session.CompleteRefresh(msg.ticket, msg.disputes, msg.err)
	if errors.Is(err, desk.ErrStale) {
		return m, nil
	}
	m.syncTable()
	if err != nil {
		m.log.Error().Err(msg.err).Str("op", "refresh").Msg("failed to fetch disputes")
		return m, nil
	}
	m.log.Info().Int("count", len(msg.disputes)).Msg("disputes loaded")
	m.infoMessage = fmt.Sprintf("Loaded %d disputes.", len(msg.disputes))
	return m, nil
}

func (m *model) handleDraftReady(msg draftReadyMsg) (tea.Model, tea.Cmd) {
	err := m.session.CompleteDraft(msg.ticket, msg.suggestion, msg.err)
	if errors.Is(err, desk.ErrStale) {
		m.log.Debug().Str("dispute_id", msg.disputeID).Msg("dropped stale suggestion")
		return m, nil
	}
	draft, ok := m.session.Draft()
	if !ok {
		return m, nil
	}
	m.draft.SetValue(draft.Text)
	m.focus = focusDraft
	m.table.Blur()
	if err != nil {
		m.log.Error().Err(msg.err).Str("op", "generate").Str("dispute_id", msg.disputeID).Msg("failed to generate response")
		m.infoMessage = "Started from the built-in template. Edit it before submitting."
	} else {
		m.infoMessage = fmt.Sprintf("Suggestion ready from %s. Ctrl+S submits, Esc discards.", draft.Generator)
	}
	m.refreshDetail()
	return m, m.draft.Focus()
}

func (m *model) handleSubmitResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	err := m.session.CompleteSubmit(msg.ticket, msg.err)
	if errors.Is(err, desk.ErrStale) {
		return m, nil
	}
	if err != nil {
		m.log.Error().Err(msg.err).Str("op", "submit").Str("dispute_id", msg.disputeID).Msg("failed to submit response")
		m.focus = focusDraft
		return m, m.draft.Focus()
	}
	m.log.Info().Str("dispute_id", msg.disputeID).Msg("response submitted")
	m.submitted++
	m.draft.Reset()
	m.draft.Blur()
	m.steps = nil
	m.focusTable()
	m.infoMessage = fmt.Sprintf("Response submitted for %s.", msg.disputeID)
	m.refreshDetail()
	return m, nil
}

// syncTable rebuilds the rows from the visible disputes and keeps the cursor on the same
// dispute when it is still listed.
func (m *model) syncTable() {
	var selected string
	if row := m.table.SelectedRow(); len(row) > 0 {
		selected = row[0]
	}
	visible := m.session.Visible()
	now := m.config.Now()
	rows := make([]table.Row, 0, len(visible))
	cursor := 0
	for i, d := range visible {
		if d.ID == selected {
			cursor = i
		}
		rows = append(rows, table.Row{
			d.ID,
			string(d.Status),
			d.FormatAmount(),
			d.Reason,
			d.BuyerEmail,
			dueCell(d, now),
		})
	}
	m.table.SetRows(rows)
	m.table.SetCursor(cursor)
	m.refreshDetail()
}

func (m *model) applyLayout() {
	m.table.SetColumns(tableColumns(m.layout.contentWidth))
	m.table.SetHeight(m.layout.tableHeight)
	m.table.SetWidth(m.layout.contentWidth)
	m.draft.SetWidth(m.layout.contentWidth - 4)
	m.draft.SetHeight(m.layout.draftHeight)
	m.detail.Width = m.layout.contentWidth - 4
	m.detail.Height = m.layout.panelHeight
	m.detailID = ""
	m.refreshDetail()
}

// focusedDispute is the dispute the detail panel describes: the draft's dispute while
// responding, otherwise the row under the cursor.
func (m *model) focusedDispute() (dispute.Dispute, bool) {
	if draft, ok := m.session.Draft(); ok {
		return draft.Dispute, true
	}
	if pending, ok := m.session.Pending(); ok {
		return pending, true
	}
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return dispute.Dispute{}, false
	}
	return m.session.Dispute(row[0])
}

func (m *model) refreshDetail() {
	d, ok := m.focusedDispute()
	if !ok {
		m.detailID = ""
		m.detail.SetContent(helperStyle.Render("Select a dispute to see its details."))
		return
	}
	m.detail.SetContent(m.detailContent(d))
	if d.ID != m.detailID {
		m.detail.GotoTop()
		m.detailID = d.ID
	}
}

func transitionMessage(err error) string {
	if errors.Is(err, desk.ErrInvalidTransition) {
		msg := strings.TrimPrefix(err.Error(), desk.ErrInvalidTransition.Error()+": ")
		return strings.ToUpper(msg[:1]) + msg[1:] + "."
	}
	if errors.Is(err, dispute.ErrNotFound) {
		return "That dispute is no longer listed. Press r to refresh."
	}
	return err.Error()
}
