package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kostyay/keyresolver/internal/config"
	"github.com/kostyay/keyresolver/internal/output"
)

// Theme-aware style getters

// HeaderStyle returns the style for the main header title.
func HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Header.TitleFg))
}

// FooterStyle returns the style for footer text.
func FooterStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Footer.FgColor))
}

// FooterKeyStyle returns the style for keyboard shortcut keys in footer.
func FooterKeyStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Footer.KeyFgColor))
}

// FooterDescStyle returns the style for key descriptions in footer.
func FooterDescStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Footer.DescFgColor))
}

// FooterGroupStyle returns the style for group labels in the help modal.
func FooterGroupStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Footer.GroupFgColor)).
		Bold(true)
}

// StatusStyle returns the style for status bar text.
func StatusStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Status.FgColor))
}

// EmptyStyle returns the style for empty state messages.
func EmptyStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Status.FgColor)).
		Italic(true)
}

// ErrorStyle returns the style for error messages.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Status.ErrorColor)).
		Bold(true)
}

// TargetStyle returns the style for unfocused targets.
func TargetStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.List.FgColor))
}

// FocusedTargetStyle returns the style for the focused target.
func FocusedTargetStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.List.CursorFgColor)).
		Background(lipgloss.Color(config.CurrentTheme.Styles.List.CursorBgColor)).
		Bold(true)
}

// PathStyle returns the style for element paths under each target.
func PathStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.List.PathFgColor))
}

// PanelHeadingStyle returns the style for the resolver panel heading.
func PanelHeadingStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Panel.HeadingFgColor)).
		Bold(true)
}

// KeystrokeStyle returns the style for keystrokes in the panel and log.
func KeystrokeStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Panel.KeystrokeFgColor)).
		Bold(true)
}

// SourceStyle returns the style for binding sources.
func SourceStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Panel.SourceFgColor))
}

// RowStyle returns the style for a resolver panel row of the given kind.
func RowStyle(kind output.RowKind) lipgloss.Style {
	panel := config.CurrentTheme.Styles.Panel
	style := lipgloss.NewStyle()
	switch kind {
	case output.RowUsed:
		return style.Foreground(lipgloss.Color(panel.UsedFgColor)).Bold(true)
	case output.RowUnused:
		return style.Foreground(lipgloss.Color(panel.UnusedFgColor))
	case output.RowUnmatched:
		return style.Foreground(lipgloss.Color(panel.UnmatchedFgColor))
	case output.RowPartial:
		return style.Foreground(lipgloss.Color(panel.PartialFgColor))
	}
	return style
}

// LiveIndicatorStyle returns the style for the watch indicator (green).
func LiveIndicatorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Header.LiveFg)).
		Bold(true)
}

// WarnStyle returns the style for warning/attention text (amber).
func WarnStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Header.WarnFg))
}

// StatsStyle returns the style for muted stats text.
func StatsStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Header.StatsFg))
}

// BorderStyle returns the style for borders.
func BorderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Border.FgColor))
}

// ActiveBorderStyle returns the style for the border of the resolver panel.
func ActiveBorderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Border.ActiveFgColor))
}

// DimmedStyle returns a style for dimmed background content when modal is visible.
func DimmedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(config.CurrentTheme.Styles.Modal.DimmedFgColor)).
		Faint(true)
}

// RenderFrameWithTitle renders content in a frame with a centered title on the top border.
// Uses heavy box drawing for modal prominence.
func RenderFrameWithTitle(content string, title string, width, height int) string {
	borderColor := lipgloss.Color(config.CurrentTheme.Styles.Modal.BorderFgColor)
	titleColor := lipgloss.Color(config.CurrentTheme.Styles.Modal.AccentFgColor)
	return renderFrameWithColors(content, title, width, height, borderColor, titleColor)
}

// splitLines splits a string into lines.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Use lipgloss to measure visible width (handles ANSI escape codes)
	visibleWidth := lipgloss.Width(s)
	if visibleWidth >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleWidth)
}

// centeredBorder builds a horizontal border line with title centered in it.
func centeredBorder(left, right, horizontal, title string, innerWidth int, borderStyle, titleStyle lipgloss.Style) string {
	titleWithPadding := " " + title + " "
	remainingWidth := innerWidth - lipgloss.Width(titleWithPadding)
	if remainingWidth < 0 {
		remainingWidth = 0
		titleWithPadding = truncate(titleWithPadding, innerWidth)
	}
	leftPad := remainingWidth / 2
	rightPad := remainingWidth - leftPad

	line := borderStyle.Render(left)
	line += borderStyle.Render(strings.Repeat(horizontal, leftPad))
	line += titleStyle.Render(titleWithPadding)
	line += borderStyle.Render(strings.Repeat(horizontal, rightPad))
	line += borderStyle.Render(right)
	return line
}

// renderFrameWithColors renders a frame with specified border and title colors.
func renderFrameWithColors(content, title string, width, height int, borderColor, titleColor lipgloss.Color) string {
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(titleColor).Bold(true)

	innerWidth := max(width-2, 0)

	// Heavy box drawing characters for modal prominence
	topBorder := centeredBorder("┏", "┓", "━", title, innerWidth, borderStyle, titleStyle)
	bottomBorder := borderStyle.Render("┗" + strings.Repeat("━", innerWidth) + "┛")

	contentStyle := lipgloss.NewStyle().
		Width(innerWidth).
		Height(max(height-2, 0)).
		Padding(0, 1)

	var result strings.Builder
	result.WriteString(topBorder)
	result.WriteString("\n")

	for _, line := range splitLines(contentStyle.Render(content)) {
		result.WriteString(borderStyle.Render("┃"))
		result.WriteString(padRight(line, innerWidth))
		result.WriteString(borderStyle.Render("┃"))
		result.WriteString("\n")
	}

	result.WriteString(bottomBorder)
	return result.String()
}
