package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kostyay/keyresolver/internal/keymap"
	"github.com/kostyay/keyresolver/internal/model"
)

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("keyresolver"),
		m.watchCmd(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.editMode {
			return m.updateEdit(msg)
		}
		if m.helpMode {
			switch {
			case matchKey(msg.String(), KeyQuitAlt):
				return m.quit()
			case matchKey(msg.String(), KeyCancel, KeyConfirm, KeyClose):
				m.helpMode = false
			}
			return m, nil
		}
		return m.handleKey(msg)

	case PartialTimeoutMsg:
		if msg.Seq != m.timeoutSeq || m.registry.Pending() == "" {
			return m, nil
		}
		if _, err := m.registry.Timeout(); err != nil {
			m.lastError = err
			return m, nil
		}
		return m.afterResolve()

	case KeymapChangedMsg:
		n, err := m.registry.Reload(model.SourceUser, msg.Path)
		if err != nil {
			log.Printf("reload %s: %v", msg.Path, err)
			m.lastError = fmt.Errorf("reload %s: %w", filepath.Base(msg.Path), err)
		} else {
			m.lastError = nil
			m.status = fmt.Sprintf("Reloaded %s (%s)", filepath.Base(msg.Path), formatCount(n, "binding"))
		}
		return m, m.watchCmd()

	case WatchErrMsg:
		m.watch = false
		if errors.Is(msg.Err, context.Canceled) {
			return m, nil
		}
		log.Printf("keymap watcher stopped: %v", msg.Err)
		m.lastError = fmt.Errorf("watch keymap: %w", msg.Err)
		return m, nil
	}

	return m, nil
}

// handleKey delivers one key press to the focused target.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	stroke := ""
	if !msg.Paste && !(msg.Type == tea.KeyRunes && len(msg.Runes) > 1) {
		stroke = keystrokeFromKey(key)
	}
	if stroke == "" {
		if matchKey(key, KeyQuitAlt) {
			return m.quit()
		}
		return m, nil
	}

	ev := keymap.KeyEvent{Keystroke: stroke, Kind: model.KeyDown, Target: m.Focused()}
	if err := m.registry.HandleKey(ev); err != nil {
		m.lastError = err
	} else if m.showReleases {
		// Terminals report no key releases, so one is synthesized after each press.
		ev.Kind = model.KeyUp
		if err := m.registry.HandleKey(ev); err != nil {
			m.lastError = err
		}
	}

	next, cmd := m.afterResolve()
	if matchKey(key, KeyQuitAlt) && !next.quitting {
		return next.quit()
	}
	return next, cmd
}

// afterResolve picks up the new snapshot, runs dispatched commands and
// schedules the partial match timeout.
func (m Model) afterResolve() (Model, tea.Cmd) {
	m.snapshot = m.engine.Snapshot()

	entries, errs := m.dispatch.drain()
	if len(errs) > 0 {
		m.lastError = errs[len(errs)-1]
	}

	var cmds []tea.Cmd
	if pending := m.registry.Pending(); pending != "" {
		m.timeoutSeq++
		m.status = fmt.Sprintf("%s (waiting for next keystroke)", pending)
		cmds = append(cmds, m.timeoutCmd())
	}
	for _, e := range entries {
		var cmd tea.Cmd
		m, cmd = m.execute(e)
		cmds = append(cmds, cmd)
	}

	m.updateViewportContent()
	return m, tea.Batch(cmds...)
}

// execute runs a dispatched command. Workspace commands act on the model;
// the rest are only logged.
func (m Model) execute(e LogEntry) (Model, tea.Cmd) {
	m.appendLog(e)
	m.status = fmt.Sprintf("%s → %s", e.Keystrokes, e.Command)

	switch e.Command {
	case CommandQuit:
		return m.quit()
	case CommandHelp:
		m.helpMode = true
	case CommandTogglePanel:
		m.togglePanel()
	case CommandFocusNext:
		m.focus(m.cursor + 1)
	case CommandFocusPrevious:
		m.focus(m.cursor - 1)
	case CommandEditTarget:
		m.editMode = true
		m.input.SetValue(m.Focused().String())
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	case CommandClearLog:
		m.log = nil
		m.status = "Log cleared"
	}
	return m, nil
}

func (m *Model) appendLog(e LogEntry) {
	m.log = append(m.log, e)
	if len(m.log) > MaxLogEntries {
		m.log = slices.Clone(m.log[len(m.log)-MaxLogEntries:])
	}
}

// focus moves focus to target i, wrapping around. A pending sequence belongs
// to the old target, so it is dropped.
func (m *Model) focus(i int) {
	n := len(m.targets)
	m.cursor = ((i % n) + n) % n
	m.registry.ClearPending()
}

// togglePanel attaches or detaches the resolver panel and persists the choice.
// A detached panel stops classifying keys until it is shown again.
func (m *Model) togglePanel() {
	if m.engine.Running() {
		m.engine.Stop()
		m.panelVisible = false
	} else {
		if err := m.engine.Start(); err != nil {
			m.lastError = err
			return
		}
		m.panelVisible = true
		m.snapshot = m.engine.Snapshot()
	}

	m.settings.PanelVisible = m.panelVisible
	if err := m.persist(m.settings); err != nil {
		m.lastError = fmt.Errorf("save settings: %w", err)
	}
	m.resize()
}

// updateEdit handles keys while the target editor is open.
func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); {
	case matchKey(key, KeyQuitAlt):
		return m.quit()
	case matchKey(key, KeyCancel):
		m.editMode = false
		m.input.Blur()
		return m, nil
	case matchKey(key, KeyConfirm):
		t, err := keymap.ParseTarget(m.input.Value())
		if err != nil {
			m.lastError = err
			return m, nil
		}
		name := m.Focused().Name
		if name == "" {
			name = t.Focused().String()
		}
		m.targets = slices.Clone(m.targets)
		m.targets[m.cursor] = t.Named(name)
		m.registry.ClearPending()
		m.editMode = false
		m.input.Blur()
		m.lastError = nil
		m.status = fmt.Sprintf("Target %s updated", name)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

// timeoutCmd resolves the pending sequence once the partial timeout elapses.
func (m Model) timeoutCmd() tea.Cmd {
	seq := m.timeoutSeq
	return tea.Tick(m.partialTimeout, func(time.Time) tea.Msg {
		return PartialTimeoutMsg{Seq: seq}
	})
}

// watchCmd waits for the next change to the user keymap.
func (m Model) watchCmd() tea.Cmd {
	if !m.watch {
		return nil
	}
	ctx, path := m.ctx, m.userKeymap
	return func() tea.Msg {
		if err := keymap.WaitForChange(ctx, path); err != nil {
			return WatchErrMsg{Err: err}
		}
		return KeymapChangedMsg{Path: path}
	}
}

// resize lays out the viewport that scrolls the resolver panel rows.
func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}

	viewportHeight := max(m.height-m.fixedHeight(), 1)
	viewportWidth := max(m.width-4, 1)

	if !m.ready {
		m.viewport = viewport.New(viewportWidth, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight
	}
	m.updateViewportContent()
}
