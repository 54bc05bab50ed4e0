package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Underline(true)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	labelStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147")).Width(10)
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	overdueStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dueSoonStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	stepTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	bannerTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	heroAccentColor        = lipgloss.Color("#ff8c00")
	heroEmberColor         = lipgloss.Color("#2b1400")
	heroTextColor          = lipgloss.Color("#fff4d0")
	heroSecondaryTextColor = lipgloss.Color("#ffb347")

	heroTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	heroBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Foreground(heroTextColor).Background(heroEmberColor).Padding(0, 2)
	taglineStyle    = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4")).PaddingRight(2)
	legendBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 2)
	helpBoxStyle    = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	bannerStyle     = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("9")).Padding(0, 1)
	panelStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	activePanel     = panelStyle.Copy().BorderForeground(heroAccentColor)
	tableHeader     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("#56526e"))
	tableSelected   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	tableCell       = lipgloss.NewStyle().Padding(0, 1)
	statusOpenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd166"))
	statusDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
)
