package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// accountColors tells merged-inbox rows apart by owning account.
var accountColors = []lipgloss.Color{
	"#2563eb", // blue
	"#16a34a", // green
	"#dc2626", // red
	"#9333ea", // purple
	"#ea580c", // orange
	"#0891b2", // cyan
	"#c026d3", // fuchsia
	"#ca8a04", // yellow
}

// AccountColor returns the legend color for the account at position i in
// the account list. Colors repeat after eight accounts.
func AccountColor(i int) lipgloss.Color {
	if i < 0 {
		i = -i
	}
	return accountColors[i%len(accountColors)]
}

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TitleStyle renders a view title above its content.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// DimmedStyle is used for secondary text such as snippets and timestamps.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// UnreadStyle marks unread messages and notifications.
var UnreadStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// ErrorStyle is used for error placeholders and alerts.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// WarningStyle is used for non-fatal notices.
var WarningStyle = lipgloss.NewStyle().
	Foreground(ColorYellow)

// SuccessStyle is used for confirmations.
var SuccessStyle = lipgloss.NewStyle().
	Foreground(ColorGreen)

// TabStyle and ActiveTabStyle render tab headers such as the list types.
var (
	TabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorGray)

	ActiveTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(ColorBlue).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(ColorBlue)
)

// SyncStatusStyle returns a color-coded style for an account sync status.
// Accounts needing re-authentication are always shown as errors.
func SyncStatusStyle(status string, needsReauth bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	if needsReauth {
		return base.Foreground(ColorRed)
	}

	switch status {
	case "SYNCING":
		return base.Foreground(ColorYellow)
	case "IDLE":
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// ProviderStyle returns a color-coded style for the given mail provider label.
func ProviderStyle(provider string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch provider {
	case "GMAIL", "gmail":
		return base.Foreground(ColorRed)
	case "OUTLOOK", "outlook":
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorMagenta)
	}
}

// UnreadCountStyle colors a per-sender unread count by severity.
func UnreadCountStyle(count int64) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case count > 10:
		return base.Foreground(ColorRed)
	case count > 5:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}

// ToastStyle returns the style for a toast of the given kind.
func ToastStyle(kind string) lipgloss.Style {
	base := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())

	switch kind {
	case "success":
		return base.BorderForeground(ColorGreen).Foreground(ColorGreen)
	case "error":
		return base.BorderForeground(ColorRed).Foreground(ColorRed)
	case "warning":
		return base.BorderForeground(ColorYellow).Foreground(ColorYellow)
	default:
		return base.BorderForeground(ColorBlue).Foreground(ColorBlue)
	}
}
