package tui

import "github.com/charmbracelet/bubbles/table"

type pageLayout struct {
	windowWidth  int
	windowHeight int
	contentWidth int
	tableHeight  int
	panelHeight  int
	draftHeight  int
}

func newPageLayout() pageLayout {
	return pageLayout{
		contentWidth: 96,
		tableHeight:  8,
		panelHeight:  12,
		draftHeight:  8,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.contentWidth = innerWidth
	// hero, meter, filter, legend and the blank lines between them
	const chrome = 16
	usable := height - chrome
	if usable < 14 {
		usable = 14
	}
	l.tableHeight = usable * 2 / 5
	if l.tableHeight < 5 {
		l.tableHeight = 5
	}
	l.panelHeight = usable - l.tableHeight
	if l.panelHeight < 8 {
		l.panelHeight = 8
	}
	l.draftHeight = l.panelHeight / 2
	if l.draftHeight < 4 {
		l.draftHeight = 4
	}
}

// tableColumns splits width between the dispute columns. Reason and buyer share what the fixed
// columns leave over.
func tableColumns(width int) []table.Column {
	const (
		idWidth     = 16
		statusWidth = 28
		amountWidth = 14
		dueWidth    = 22
		cellPadding = 12
	)
	flexible := width - idWidth - statusWidth - amountWidth - dueWidth - cellPadding
	if flexible < 24 {
		flexible = 24
	}
	reasonWidth := flexible / 2
	buyerWidth := flexible - reasonWidth
	return []table.Column{
		{Title: "ID", Width: idWidth},
		{Title: "Status", Width: statusWidth},
		{Title: "Amount", Width: amountWidth},
		{Title: "Reason", Width: reasonWidth},
		{Title: "Buyer", Width: buyerWidth},
		{Title: "Respond by", Width: dueWidth},
	}
}
