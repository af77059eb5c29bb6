package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tguerin/timekeep/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// SessionStatusPill returns a colored indicator for a session status.
func SessionStatusPill(status domain.SessionStatus) string {
	switch status {
	case domain.SessionDraft:
		return StyleYellow.Render("● draft")
	case domain.SessionAdjusted:
		return StyleBlue.Render("● adjusted")
	case domain.SessionSent:
		return StyleGreen.Render("● sent")
	default:
		return StyleDim.Render("● " + string(status))
	}
}

// SummaryStatusPill returns a colored indicator for a day's summary status.
func SummaryStatusPill(status domain.SummaryStatus) string {
	switch status {
	case domain.SummaryPending:
		return StyleYellow.Render("● pending")
	case domain.SummaryReady:
		return StyleBlue.Render("● ready")
	case domain.SummarySent:
		return StyleGreen.Render("● sent")
	default:
		return StyleDim.Render("● " + string(status))
	}
}

// Header renders a section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
