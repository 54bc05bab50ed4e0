package tui

type focusArea int

const (
	focusTable focusArea = iota
	focusFilter
	focusDraft
)

const heroTagline = "Answer buyer disputes before the clock runs out."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	dueSoonWindowHours        = 48
)

const (
	filterPlaceholder = "Filter by id, buyer email or reason…"
	draftPlaceholder  = "Write the response the buyer will read…"
)
