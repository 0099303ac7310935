package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorBorder    = lipgloss.Color("238")
)

// CardBox frames one rendered card.
var CardBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorBorder).
	Padding(0, 1)

// CardTitle style for the card headline.
var CardTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

// CardMeta style for the date/type line.
var CardMeta = lipgloss.NewStyle().
	Foreground(colorSecondary)

// CardExcerpt style for the card body.
var CardExcerpt = lipgloss.NewStyle().
	Foreground(lipgloss.Color("250"))

// AnalysisBadge marks documents that have an analysed counterpart.
var AnalysisBadge = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// SelectedGutter is drawn beside every line of the selected card.
var SelectedGutter = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// LoadMoreButton style for the load-more control.
var LoadMoreButton = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 2)

// LoadMoreFocused style for the load-more control when selected.
var LoadMoreFocused = LoadMoreButton.
	Background(colorPrimary).
	Bold(true)

// CompleteMarker style for the "all loaded" line.
var CompleteMarker = lipgloss.NewStyle().
	Foreground(colorMuted).
	Italic(true).
	Padding(0, 2)

// TabActive style for the visible group's tab.
var TabActive = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// TabInactive style for hidden groups.
var TabInactive = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// TabBroken style for groups whose source could not be read.
var TabBroken = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Strikethrough(true).
	Padding(0, 1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// WarningStyle for non-fatal notices.
var WarningStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("214")).
	Padding(0, 1)

// HelpStyle for help text and placeholders.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// SearchBar style for the global search input bar.
var SearchBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("240")).
	Padding(0, 1)

// SearchBarPrompt style for the "/" prompt.
var SearchBarPrompt = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// SearchBarCount style for the match count.
var SearchBarCount = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ViewerTitle style for the document viewer header.
var ViewerTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headings inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
