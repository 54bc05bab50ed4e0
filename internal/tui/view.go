package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/disputedesk/internal/desk"
	"github.com/csheth/disputedesk/internal/dispute"
)

func (m *model) View() string {
	parts := []string{m.heroView(), m.sessionMeterView()}
	if banner := m.errorBannerView(); banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, m.listView(), m.workspaceView())
	if status := m.statusLine(); status != "" {
		parts = append(parts, status)
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	parts = append(parts, m.keyLegendView())
	if m.helpVisible {
		parts = append(parts, m.helpView())
	}
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	title := heroBoxStyle.Render(heroTitleStyle.Render("DisputeDesk"))
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", taglineStyle.Render(heroTagline))
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func (m *model) sessionMeterView() string {
	visible := len(m.session.Visible())
	total := len(m.session.Disputes())
	stats := []string{
		fmt.Sprintf("State %s", strings.ToUpper(m.session.State().String())),
		fmt.Sprintf("Disputes %d", total),
	}
	if m.session.Filter() != "" {
		stats = append(stats, fmt.Sprintf("Matching %d", visible))
	}
	if overdue := m.overdueCount(); overdue > 0 {
		stats = append(stats, fmt.Sprintf("Overdue %d", overdue))
	}
	stats = append(stats,
		fmt.Sprintf("Submitted %d", m.submitted),
		fmt.Sprintf("Generator %s", m.ctrl.GeneratorName()),
	)
	if m.lastJob.ID != "" && m.lastJob.Status != jobStatusRunning {
		stats = append(stats, fmt.Sprintf("Last %s %s in %s", m.lastJob.Kind, m.lastJob.Status, m.lastJob.Duration.Round(time.Millisecond)))
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) overdueCount() int {
	now := m.config.Now()
	count := 0
	for _, d := range m.session.Disputes() {
		if d.Overdue(now) {
			count++
		}
	}
	return count
}

func (m *model) errorBannerView() string {
	err := m.session.Err()
	if err == nil {
		return ""
	}
	lines := []string{
		bannerTitleStyle.Render(err.Error()),
		helperStyle.Render(wordwrap.String(err.Detail(), m.layout.contentWidth-6)),
		helperStyle.Render("Press x to dismiss."),
	}
	return bannerStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) listView() string {
	var b strings.Builder
	header := sectionHeaderStyle.Render("Disputes")
	if m.focus == focusFilter || m.session.Filter() != "" {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, "  ", m.filter.View())
	}
	b.WriteString(header)
	b.WriteRune('\n')

	switch {
	case m.session.State() == desk.StateLoading && len(m.session.Disputes()) == 0:
		b.WriteString(helperStyle.Render(fmt.Sprintf("%s Fetching disputes…", m.spinner.View())))
		return b.String()
	case len(m.session.Disputes()) == 0:
		b.WriteString(helperStyle.Render("No disputes to show. Press r to refresh."))
		return b.String()
	case len(m.session.Visible()) == 0:
		b.WriteString(helperStyle.Render(fmt.Sprintf("No disputes match %q. Press / to change the filter.", m.session.Filter())))
		return b.String()
	}
	b.WriteString(m.table.View())
	return b.String()
}

func (m *model) workspaceView() string {
	switch m.session.State() {
	case desk.StateDrafting, desk.StateSubmitting:
		return m.draftView()
	}
	if _, ok := m.focusedDispute(); !ok {
		return ""
	}
	return panelStyle.Render(m.detail.View())
}

func (m *model) draftView() string {
	draft, ok := m.session.Draft()
	if !ok {
		return ""
	}
	var b strings.Builder
	title := fmt.Sprintf("Response for %s", draft.Dispute.ID)
	b.WriteString(sectionHeaderStyle.Render(title))
	b.WriteString(helperStyle.Render(fmt.Sprintf("  via %s", draft.Generator)))
	if draft.Edited() {
		b.WriteString(helperStyle.Render("  (edited)"))
	}
	b.WriteRune('\n')
	b.WriteString(m.draft.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render(fmt.Sprintf("%d characters  •  ctrl+s submit  •  esc discard  •  tab back to list", len([]rune(m.draft.Value())))))
	if steps := m.stepsView(); steps != "" {
		b.WriteString("\n\n")
		b.WriteString(steps)
	}
	style := panelStyle
	if m.focus == focusDraft {
		style = activePanel
	}
	return style.Render(b.String())
}

func (m *model) stepsView() string {
	if len(m.steps) == 0 {
		return ""
	}
	wrap := m.wrapWidth(10)
	lines := []string{sectionHeaderStyle.Render("Before you send")}
	for i, step := range m.steps {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, stepTitleStyle.Render(step.Title)))
		lines = append(lines, indentMultiline(helperStyle.Render(wordwrap.String(step.Description, wrap)), "   "))
	}
	return strings.Join(lines, "\n")
}

func (m *model) statusLine() string {
	switch m.session.State() {
	case desk.StateLoading:
		if len(m.session.Disputes()) == 0 {
			return ""
		}
		return helperStyle.Render(fmt.Sprintf("%s Refreshing disputes…", m.spinner.View()))
	case desk.StateGenerating:
		pending, _ := m.session.Pending()
		return helperStyle.Render(fmt.Sprintf("%s Drafting a response for %s with %s… (esc to cancel)", m.spinner.View(), pending.ID, m.ctrl.GeneratorName()))
	case desk.StateSubmitting:
		return helperStyle.Render(fmt.Sprintf("%s Submitting response…", m.spinner.View()))
	default:
		return ""
	}
}

func (m *model) detailContent(d dispute.Dispute) string {
	now := m.config.Now()
	wrap := m.wrapWidth(4)
	var b strings.Builder
	b.WriteString(titleStyle.Render(d.ID))
	b.WriteString("  ")
	b.WriteString(statusStyle(d.Status).Render(string(d.Status)))
	if badge := dueBadge(d, now); badge != "" {
		b.WriteString("  ")
		b.WriteString(badge)
	}
	b.WriteRune('\n')

	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteRune('\n')
	}
	field("Amount", d.FormatAmount())
	field("Buyer", d.BuyerEmail)
	field("Reason", d.Reason)
	field("Opened", d.CreatedAt.UTC().Format("Jan 2 2006 15:04 MST"))
	field("Due", d.ResponseDueDate.UTC().Format("Jan 2 2006 15:04 MST"))
	order := d.Details.Order
	if order.ItemName != "" {
		item := order.ItemName
		if !order.ItemPrice.IsZero() {
			item += fmt.Sprintf(" • %s %s", d.Currency, order.ItemPrice.StringFixed(2))
		}
		if !order.OrderDate.IsZero() {
			item += " • ordered " + order.OrderDate.String()
		}
		field("Item", item)
	}
	if d.Details.HasShipment() {
		shipped := fmt.Sprintf("%s %s", d.Details.ShippingCarrier, d.Details.TrackingNumber)
		if d.Details.ShippingDate != nil && !d.Details.ShippingDate.IsZero() {
			shipped += " • shipped " + d.Details.ShippingDate.String()
		}
		field("Shipping", shipped)
	} else {
		field("Shipping", helperStyle.Render("no tracking on file"))
	}
	field("Evidence", d.Details.EvidenceURL)

	if complaint := strings.TrimSpace(d.Details.BuyerComplaint); complaint != "" {
		b.WriteRune('\n')
		b.WriteString(sectionHeaderStyle.Render("Buyer complaint"))
		b.WriteRune('\n')
		b.WriteString(indentMultiline(wordwrap.String(complaint, wrap), "  "))
		b.WriteRune('\n')
	}
	if m.session.State() == desk.StateGenerating {
		if steps := m.stepsView(); steps != "" {
			b.WriteRune('\n')
			b.WriteString(steps)
		}
	}
	return b.String()
}

func statusStyle(status dispute.Status) lipgloss.Style {
	switch status {
	case dispute.StatusResolved:
		return statusDoneStyle
	default:
		return statusOpenStyle
	}
}

func dueBadge(d dispute.Dispute, now time.Time) string {
	switch {
	case d.Overdue(now):
		return overdueStyle.Render("OVERDUE")
	case d.DueWithin(now, dueSoonWindowHours*time.Hour):
		return dueSoonStyle.Render("DUE SOON")
	default:
		return ""
	}
}

// dueCell is the plain-text deadline shown in the table; table cells cannot carry styles.
func dueCell(d dispute.Dispute, now time.Time) string {
	due := d.ResponseDueDate.UTC().Format("Jan 02 15:04")
	switch {
	case d.Overdue(now):
		return due + " !overdue"
	case d.DueWithin(now, dueSoonWindowHours*time.Hour):
		return due + " soon"
	default:
		return due
	}
}

func (m *model) keyLegendView() string {
	m.syncKeys()
	m.legend.Width = m.layout.contentWidth - 6
	rows := []string{
		sectionHeaderStyle.Render("Keys"),
		m.legend.FullHelpView(m.keys.legend(m.focus)),
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) helpView() string {
	lines := []string{
		sectionHeaderStyle.Render("How DisputeDesk works"),
		helperStyle.Render("• enter on a dispute asks the generator for a suggested response; esc abandons it."),
		helperStyle.Render("• edit the suggestion freely, then ctrl+s sends exactly what you see to the dispute API."),
		helperStyle.Render("• when generation fails you get the built-in template so you can still respond in time."),
		helperStyle.Render("• a failed submission keeps your draft; fix the problem and press ctrl+s again."),
		helperStyle.Render("• / filters by dispute id, buyer email or reason. r reloads the list, x hides the error banner."),
	}
	return helpBoxStyle.Render(strings.Join(lines, "\n"))
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.detail.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}
