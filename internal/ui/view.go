package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/kostyay/keyresolver/internal/output"
)

// Layout constants for fixed header/footer with scrollable content.
const (
	headerHeight       = 3 // double-line box header (top border + content + bottom border)
	footerHeight       = 2 // status + keybindings
	frameHeight        = 2 // top and bottom border
	panelHeadingHeight = 1 // resolver heading, frozen above the rows
	minLogLines        = 4
	linesPerTarget     = 2 // name + element path
)

// workspaceHeight is the height of the framed target list.
func (m Model) workspaceHeight() int {
	return frameHeight + linesPerTarget*len(m.targets)
}

// logLines is the number of command log rows. The log takes the panel's
// space while the panel is hidden.
func (m Model) logLines() int {
	if m.panelVisible {
		return minLogLines
	}
	return max(m.height-headerHeight-footerHeight-m.workspaceHeight()-frameHeight, 1)
}

// fixedHeight is everything except the scrollable panel rows.
func (m Model) fixedHeight() int {
	return headerHeight + footerHeight + m.workspaceHeight() + frameHeight + minLogLines + frameHeight + panelHeadingHeight
}

// renderHeader renders the industrial-style header with watch indicator and stats.
func (m Model) renderHeader() string {
	borderStyle := BorderStyle()
	statsStyle := StatsStyle()
	warnStyle := WarnStyle()

	innerWidth := max(m.width-2, 0)

	topBorder := centeredBorder("╔", "╗", "═", "KEYRESOLVER", innerWidth, borderStyle, HeaderStyle())

	watchText := statsStyle.Render("○ STATIC")
	if m.watch {
		watchText = LiveIndicatorStyle().Render("◉ WATCH")
	}

	panelState := "off"
	if m.panelVisible {
		panelState = "on"
	}
	statsText := statsStyle.Render(fmt.Sprintf("  %s   focus: %s   resolver: %s",
		formatCount(m.registry.Len(), "binding"), m.Focused().Name, panelState))

	rightContent := ""
	if pending := m.registry.Pending(); pending != "" {
		rightContent = warnStyle.Render(fmt.Sprintf("   … %s", pending))
	} else if m.lastError != nil {
		rightContent = warnStyle.Render(fmt.Sprintf("   ⚠ %s", truncate(m.lastError.Error(), 40)))
	}

	content := truncate(watchText+statsText+rightContent, max(innerWidth-2, 0))
	contentLine := borderStyle.Render("║") + " " + padRight(content, max(innerWidth-2, 0)) + " " + borderStyle.Render("║")

	bottomBorder := borderStyle.Render("╚" + strings.Repeat("═", innerWidth) + "╝")

	return topBorder + "\n" + contentLine + "\n" + bottomBorder
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	// Wait for viewport to be initialized
	if !m.ready {
		return EmptyStyle().Render("Initializing...")
	}

	baseContent := m.renderBaseView()

	if m.helpMode {
		return m.overlayModal(baseContent, m.renderHelpModalContent(), "Keyboard Shortcuts", 60)
	}
	if m.editMode {
		return m.overlayModal(baseContent, m.renderEditModalContent(), "Edit Target", max(m.width*70/100, 40))
	}
	return baseContent
}

// renderBaseView renders the main UI without modals.
func (m Model) renderBaseView() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.renderFrame("workspace", m.renderTargetLines(), BorderStyle()))
	b.WriteString("\n")

	b.WriteString(m.renderFrame(fmt.Sprintf("commands: %d", len(m.log)), m.renderLogLines(m.logLines()), BorderStyle()))
	b.WriteString("\n")

	if m.panelVisible {
		lines := []string{PanelHeadingStyle().Render(output.Heading(m.snapshot))}
		lines = append(lines, strings.Split(m.viewport.View(), "\n")...)
		b.WriteString(m.renderFrame("key binding resolver", lines, ActiveBorderStyle()))
		b.WriteString("\n")
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

// renderFrame renders lines inside a rounded frame with a centered title.
func (m Model) renderFrame(title string, lines []string, borderStyle lipgloss.Style) string {
	titleStyle := HeaderStyle()
	innerWidth := max(m.width-2, 0)
	lineWidth := max(innerWidth-2, 0)

	var result strings.Builder
	result.WriteString(centeredBorder("╭", "╮", "─", title, innerWidth, borderStyle, titleStyle))
	result.WriteString("\n")

	for _, line := range lines {
		result.WriteString(borderStyle.Render("│"))
		result.WriteString(" ")
		result.WriteString(cell(line, lineWidth))
		result.WriteString(" ")
		result.WriteString(borderStyle.Render("│"))
		result.WriteString("\n")
	}

	result.WriteString(borderStyle.Render("╰" + strings.Repeat("─", innerWidth) + "╯"))
	return result.String()
}

// renderTargetLines lists the workspace targets, two lines each.
func (m Model) renderTargetLines() []string {
	lines := make([]string, 0, linesPerTarget*len(m.targets))
	for i, t := range m.targets {
		if i == m.cursor {
			lines = append(lines, FocusedTargetStyle().Render("▸ "+t.Name))
		} else {
			lines = append(lines, TargetStyle().Render("  "+t.Name))
		}
		lines = append(lines, PathStyle().Render("    "+t.String()))
	}
	return lines
}

// renderLogLines renders the most recent dispatched commands, newest last.
func (m Model) renderLogLines(n int) []string {
	lines := make([]string, 0, n)
	if len(m.log) == 0 {
		lines = append(lines, EmptyStyle().Render("No commands dispatched yet"))
	}
	start := max(len(m.log)-n, 0)
	for _, e := range m.log[start:] {
		lines = append(lines,
			KeystrokeStyle().Render(cell(e.Keystrokes, 16))+" "+
				TargetStyle().Render(cell(e.Command, 40))+" "+
				PathStyle().Render(e.Target))
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return lines
}

// renderPanelRows renders the classification as colored rows, in the order
// used, unused, unmatched. Partial snapshots show only partial rows.
func (m Model) renderPanelRows(width int) string {
	rows := output.Rows(m.snapshot)
	if len(rows) == 0 {
		if m.snapshot.HasKeystrokes() {
			return EmptyStyle().Render("No bindings for these keystrokes")
		}
		return ""
	}

	const (
		kindWidth   = 10
		sourceWidth = 8
		gap         = 1
	)
	keysWidth := 0
	if m.snapshot.IsPartial() {
		keysWidth = 18
	}
	rest := max(width-kindWidth-sourceWidth-keysWidth-4*gap, 8)
	commandWidth := rest * 45 / 100
	selectorWidth := rest - commandWidth

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		style := RowStyle(r.Kind)
		b := r.Binding

		var line strings.Builder
		line.WriteString(style.Render(cell(string(r.Kind), kindWidth)))
		line.WriteString(" ")
		line.WriteString(style.Render(cell(b.Command, commandWidth)))
		line.WriteString(" ")
		if keysWidth > 0 {
			line.WriteString(KeystrokeStyle().Render(cell(b.Keystrokes, keysWidth)))
			line.WriteString(" ")
		}
		line.WriteString(style.Render(cell(b.Selector, selectorWidth)))
		line.WriteString(" ")
		line.WriteString(SourceStyle().Render(cell(b.Source, sourceWidth)))
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// updateViewportContent renders the panel rows into the viewport.
// MUST be called from Update() (not View()) so viewport knows content height for scrolling.
func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderPanelRows(m.viewport.Width))
	m.viewport.GotoTop()
}

// renderFooter renders the two-row footer with status and keybindings.
func (m Model) renderFooter() string {
	var b strings.Builder

	switch {
	case m.lastError != nil:
		b.WriteString(ErrorStyle().Width(m.width).Render(truncate("⚠ "+m.lastError.Error(), m.width)))
	case m.status != "":
		b.WriteString(StatusStyle().Width(m.width).Render(truncate(m.status, m.width)))
	default:
		b.WriteString(StatusStyle().Width(m.width).Render(fmt.Sprintf("Focus: %s. Press keys to resolve them.", m.Focused().Name)))
	}
	b.WriteString("\n")

	b.WriteString(FooterStyle().Width(m.width).Render(truncate(m.renderKeybindingsText(), m.width)))
	return b.String()
}

// renderKeybindingsText returns the workspace keybindings in modern minimal style.
// Keys come from the registry so user overrides show up here.
func (m Model) renderKeybindingsText() string {
	keyStyle := FooterKeyStyle()
	descStyle := FooterDescStyle()

	btn := func(key, label string) string {
		return keyStyle.Render(key) + " " + descStyle.Render(label)
	}

	parts := make([]string, 0, len(workspaceCommands))
	for _, c := range workspaceCommands {
		if keys := m.keysFor(c.Command); keys != "" {
			parts = append(parts, btn(keys, c.Label))
		}
	}
	return strings.Join(parts, descStyle.Render("  ·  "))
}

// keysFor returns the keystrokes of the most recently registered binding for command.
func (m Model) keysFor(command string) string {
	bindings := m.registry.Bindings()
	for i := len(bindings) - 1; i >= 0; i-- {
		if bindings[i].Command == command {
			return bindings[i].Keystrokes
		}
	}
	return ""
}

// overlayModal renders a modal on top of background content with dimmed backdrop.
func (m Model) overlayModal(background, content, title string, modalWidth int) string {
	if m.width < modalWidth+4 {
		modalWidth = m.width - 4
	}

	contentLines := strings.Split(content, "\n")
	modalHeight := len(contentLines) + 4

	framedModal := RenderFrameWithTitle(content, title, modalWidth, modalHeight)
	modalLines := strings.Split(framedModal, "\n")

	leftPad := max((m.width-modalWidth-4)/2, 0)
	topPad := max((m.height-modalHeight)/2, 0)

	bgLines := strings.Split(background, "\n")
	for len(bgLines) < m.height {
		bgLines = append(bgLines, "")
	}

	dimStyle := DimmedStyle()
	for i := range bgLines {
		bgLines[i] = dimStyle.Render(ansi.Strip(bgLines[i]))
	}

	for i, modalLine := range modalLines {
		bgIdx := topPad + i
		if bgIdx >= 0 && bgIdx < len(bgLines) {
			leftBg := ""
			if leftPad > 0 {
				leftBg = dimStyle.Render(strings.Repeat(" ", leftPad))
			}
			bgLines[bgIdx] = leftBg + modalLine
		}
	}

	return strings.Join(bgLines[:m.height], "\n")
}

// renderHelpModalContent returns the help modal content.
func (m Model) renderHelpModalContent() string {
	keyStyle := FooterKeyStyle()
	descStyle := FooterDescStyle()
	groupStyle := FooterGroupStyle()

	lines := []string{groupStyle.Render("Workspace")}
	for _, c := range workspaceCommands {
		keys := m.keysFor(c.Command)
		if keys == "" {
			keys = "unbound"
		}
		lines = append(lines, keyStyle.Render(cell(keys, 10))+descStyle.Render(" "+c.Desc))
	}

	lines = append(lines, "", groupStyle.Render("Resolver rows"))
	for _, k := range []struct {
		kind output.RowKind
		desc string
	}{
		{output.RowUsed, "Binding that ran"},
		{output.RowUnused, "Matched the target but lost"},
		{output.RowUnmatched, "Same keystrokes, other targets"},
		{output.RowPartial, "Waiting for more keystrokes"},
	} {
		lines = append(lines, RowStyle(k.kind).Render(cell(string(k.kind), 10))+descStyle.Render(" "+k.desc))
	}

	lines = append(lines, "", keyStyle.Render("Esc")+descStyle.Render(" Close"))
	return strings.Join(lines, "\n")
}

// renderEditModalContent returns the target editor content.
func (m Model) renderEditModalContent() string {
	keyStyle := FooterKeyStyle()
	descStyle := FooterDescStyle()

	lines := []string{
		descStyle.Render("Element path of " + m.Focused().Name + ", root first:"),
		"",
		m.input.View(),
		"",
	}
	if m.lastError != nil {
		lines = append(lines, ErrorStyle().Render(m.lastError.Error()), "")
	}
	lines = append(lines, keyStyle.Render("↵")+descStyle.Render(" Apply  ")+keyStyle.Render("Esc")+descStyle.Render(" Cancel"))
	return strings.Join(lines, "\n")
}
