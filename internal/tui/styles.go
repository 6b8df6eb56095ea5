package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/resttrackr/internal/model"
)

type palette struct {
	primary, secondary, accent, muted       lipgloss.Color
	success, warning, err, fg, subtle, high lipgloss.Color
}

var palettes = map[model.Theme]palette{
	model.ThemeDark: {
		primary:   "#2EC4B6",
		secondary: "#6C63FF",
		accent:    "#FF6B6B",
		muted:     "#666666",
		success:   "#2ECC71",
		warning:   "#F39C12",
		err:       "#E74C3C",
		fg:        "#C0CAF5",
		subtle:    "#414868",
		high:      "#7AA2F7",
	},
	model.ThemeLight: {
		primary:   "#0E7C73",
		secondary: "#4B44C8",
		accent:    "#C0392B",
		muted:     "#8A8A8A",
		success:   "#1E8449",
		warning:   "#B9770E",
		err:       "#A93226",
		fg:        "#1A1B26",
		subtle:    "#C8CCD8",
		high:      "#2E59C9",
	},
}

// Color palette
var (
	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorMuted     lipgloss.Color
	colorSuccess   lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color
	colorFg        lipgloss.Color
	colorSubtle    lipgloss.Color
	colorHighlight lipgloss.Color
)

// Styles
var (
	activeTabStyle    lipgloss.Style
	inactiveTabStyle  lipgloss.Style
	panelStyle        lipgloss.Style
	activePanelStyle  lipgloss.Style
	bannerStyle       lipgloss.Style
	bigNumberStyle    lipgloss.Style
	titleStyle        lipgloss.Style
	subtitleStyle     lipgloss.Style
	accentStyle       lipgloss.Style
	successStyle      lipgloss.Style
	warningStyle      lipgloss.Style
	errorStyle        lipgloss.Style
	mutedStyle        lipgloss.Style
	highlightStyle    lipgloss.Style
	headerStyle       lipgloss.Style
	footerStyle       lipgloss.Style
	selectedItemStyle lipgloss.Style
	normalItemStyle   lipgloss.Style
)

var currentTheme model.Theme

func init() {
	applyTheme(model.ThemeDark)
}

// applyTheme rebuilds every style from the theme's palette. Unknown themes
// fall back to dark.
func applyTheme(t model.Theme) {
	p, ok := palettes[t]
	if !ok {
		t = model.ThemeDark
		p = palettes[t]
	}
	currentTheme = t

	colorPrimary = p.primary
	colorSecondary = p.secondary
	colorAccent = p.accent
	colorMuted = p.muted
	colorSuccess = p.success
	colorWarning = p.warning
	colorError = p.err
	colorFg = p.fg
	colorSubtle = p.subtle
	colorHighlight = p.high

	// Tabs
	activeTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorPrimary).
		Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)

	bannerStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorWarning).
		Foreground(colorWarning).
		Padding(0, 2)

	bigNumberStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Align(lipgloss.Center)

	// Text
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	accentStyle = lipgloss.NewStyle().Foreground(colorAccent)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().Foreground(colorSecondary).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	normalItemStyle = lipgloss.NewStyle().Foreground(colorFg)
}

// typeColors gives every activity type a stable color in charts and lists.
var typeColors = map[model.ActivityType]lipgloss.Color{
	model.TypePhysical:  "#2ECC71",
	model.TypeMental:    "#7AA2F7",
	model.TypeEmotional: "#FF6B6B",
	model.TypeSocial:    "#F39C12",
	model.TypeSensory:   "#9B59B6",
	model.TypeSpiritual: "#E8C547",
	model.TypeCreative:  "#FF8FAB",
	model.TypeOutdoor:   "#27AE60",
	model.TypePassive:   "#3498DB",
}

func typeDot(t model.ActivityType) string {
	c, ok := typeColors[t]
	if !ok {
		c = colorMuted
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}
