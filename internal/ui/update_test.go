package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kostyay/keyresolver/internal/config"
	"github.com/kostyay/keyresolver/internal/model"
)

var (
	keyCtrlK = tea.KeyMsg{Type: tea.KeyCtrlK}
	keyCtrlU = tea.KeyMsg{Type: tea.KeyCtrlU}
	keyCtrlC = tea.KeyMsg{Type: tea.KeyCtrlC}
	keyCtrlE = tea.KeyMsg{Type: tea.KeyCtrlE}
	keyCtrlL = tea.KeyMsg{Type: tea.KeyCtrlL}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyF1    = tea.KeyMsg{Type: tea.KeyF1}
	keyF2    = tea.KeyMsg{Type: tea.KeyF2}
	keyF3    = tea.KeyMsg{Type: tea.KeyF3}
	keyF4    = tea.KeyMsg{Type: tea.KeyF4}
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// send delivers messages in order and returns the final model and command.
func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func lastCommand(m Model) string {
	if len(m.Log()) == 0 {
		return ""
	}
	return m.Log()[len(m.Log())-1].Command
}

func TestKeystrokeFromKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ctrl+k", "ctrl-k"},
		{"alt+a", "alt-a"},
		{"ctrl+shift+up", "ctrl-shift-up"},
		{"shift+tab", "shift-tab"},
		{" ", "space"},
		{"ctrl+ ", "ctrl-space"},
		{"f2", "f2"},
		{"enter", "enter"},
		{"A", "A"},
		{"-", "-"},
		{"alt+-", "alt--"},
		{"+", "+"},
		{"ctrl++", "ctrl-+"},
		{"é", "é"},
		{"[abc]", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := keystrokeFromKey(tt.in); got != tt.want {
				t.Errorf("keystrokeFromKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUpdate_MultiStrokeSequence(t *testing.T) {
	m := createTestModel(t)

	m, cmd := send(m, keyCtrlK)
	if cmd == nil {
		t.Error("a partial match should schedule a timeout")
	}
	if m.registry.Pending() != "ctrl-k" {
		t.Errorf("Pending() = %q, want 'ctrl-k'", m.registry.Pending())
	}
	if !m.Snapshot().IsPartial() {
		t.Fatal("snapshot should be partial after ctrl-k")
	}
	if !strings.Contains(m.Status(), "waiting") {
		t.Errorf("Status() = %q, want a waiting hint", m.Status())
	}

	m, _ = send(m, keyCtrlU)
	s := m.Snapshot()
	if s.Keystrokes != "ctrl-k ctrl-u" {
		t.Errorf("Keystrokes = %q, want 'ctrl-k ctrl-u'", s.Keystrokes)
	}
	if s.Used == nil || s.Used.Command != "editor:upper-case" {
		t.Errorf("Used = %v, want editor:upper-case", s.Used)
	}
	if got := lastCommand(m); got != "editor:upper-case" {
		t.Errorf("last dispatched = %q, want editor:upper-case", got)
	}
}

func TestUpdate_PartialTimeout(t *testing.T) {
	m := createTestModel(t)
	m, _ = send(m, keyCtrlK)

	// A stale timeout leaves the sequence pending.
	m, _ = send(m, PartialTimeoutMsg{Seq: m.timeoutSeq - 1})
	if m.registry.Pending() == "" {
		t.Fatal("stale timeout should be ignored")
	}

	m, _ = send(m, PartialTimeoutMsg{Seq: m.timeoutSeq})
	if m.registry.Pending() != "" {
		t.Error("timeout should clear the pending sequence")
	}
	s := m.Snapshot()
	if s.Used == nil || s.Used.Command != "editor:cut-to-end-of-line" {
		t.Errorf("Used = %v, want editor:cut-to-end-of-line", s.Used)
	}
	if got := lastCommand(m); got != "editor:cut-to-end-of-line" {
		t.Errorf("last dispatched = %q", got)
	}
}

func TestUpdate_ShadowedBinding(t *testing.T) {
	m := createTestModel(t)
	m, _ = send(m, keyF4) // Vim Editor
	m, _ = send(m, keyCtrlK)
	m, _ = send(m, PartialTimeoutMsg{Seq: m.timeoutSeq})

	s := m.Snapshot()
	if s.Used == nil || s.Used.Command != "vim-mode:digraph" {
		t.Fatalf("Used = %v, want vim-mode:digraph", s.Used)
	}
	if len(s.Unused) != 1 || s.Unused[0].Command != "editor:cut-to-end-of-line" {
		t.Errorf("Unused = %v, want [editor:cut-to-end-of-line]", s.Unused)
	}
}

func TestUpdate_NoMatch(t *testing.T) {
	m := createTestModel(t)
	m, _ = send(m, runeKey('x'))

	s := m.Snapshot()
	if s.Keystrokes != "x" || s.Used != nil {
		t.Errorf("snapshot = %+v, want keystrokes 'x' and no winner", s)
	}
	if len(m.Log()) != 0 {
		t.Errorf("Log() = %v, want empty", m.Log())
	}
}

func TestUpdate_FocusWraps(t *testing.T) {
	m := createTestModel(t)

	m, _ = send(m, keyF3)
	if m.Focused().Name != "Find Bar" {
		t.Errorf("after focus-previous Focused() = %q, want 'Find Bar'", m.Focused().Name)
	}
	m, _ = send(m, keyF4)
	if m.Focused().Name != "Text Editor" {
		t.Errorf("after focus-next Focused() = %q, want 'Text Editor'", m.Focused().Name)
	}
}

func TestUpdate_BrokenSequenceClearsPending(t *testing.T) {
	m := createTestModel(t)
	m, _ = send(m, keyCtrlK)

	// No binding starts with "ctrl-k f4", so the sequence ends without a match.
	m, _ = send(m, keyF4)
	if m.Focused().Name != "Text Editor" {
		t.Errorf("f4 inside a sequence should not move focus, got %q", m.Focused().Name)
	}
	if m.registry.Pending() != "" {
		t.Errorf("Pending() = %q, want empty", m.registry.Pending())
	}
}

func TestUpdate_TogglePanel(t *testing.T) {
	var saved []config.Settings
	m := createTestModel(t, func(o *Options) {
		o.Persist = func(s *config.Settings) error {
			saved = append(saved, *s)
			return nil
		}
	})

	m, _ = send(m, keyF2)
	if m.PanelVisible() {
		t.Fatal("panel should be hidden after toggle")
	}
	if m.engine.Running() {
		t.Error("engine should stop when the panel is hidden")
	}
	if len(saved) != 1 || saved[0].PanelVisible {
		t.Errorf("saved = %+v, want one save with PanelVisible=false", saved)
	}
	if m.Snapshot().Keystrokes != "f2" {
		t.Errorf("Keystrokes = %q, want 'f2'", m.Snapshot().Keystrokes)
	}

	// Keys pressed while hidden are not classified.
	m, _ = send(m, runeKey('x'))
	if m.Snapshot().Keystrokes != "f2" {
		t.Errorf("hidden panel snapshot changed to %q", m.Snapshot().Keystrokes)
	}

	m, _ = send(m, keyF2)
	if !m.PanelVisible() || !m.engine.Running() {
		t.Error("panel should be visible and subscribed after second toggle")
	}
	if len(saved) != 2 || !saved[1].PanelVisible {
		t.Errorf("saved = %+v, want second save with PanelVisible=true", saved)
	}
}

func TestUpdate_TogglePanelPersistError(t *testing.T) {
	m := createTestModel(t, func(o *Options) {
		o.Persist = func(*config.Settings) error { return errors.New("disk full") }
	})

	m, _ = send(m, keyF2)
	if m.PanelVisible() {
		t.Error("panel should still toggle when saving fails")
	}
	if m.lastError == nil || !strings.Contains(m.lastError.Error(), "disk full") {
		t.Errorf("lastError = %v, want save error", m.lastError)
	}
}

func TestUpdate_HelpModal(t *testing.T) {
	m := createTestModel(t)

	m, _ = send(m, keyF1)
	if !m.helpMode {
		t.Fatal("f1 should open help")
	}

	// Keys do not reach the registry while help is open.
	m, _ = send(m, keyF4)
	if m.Focused().Name != "Text Editor" {
		t.Error("help modal should swallow keys")
	}

	m, _ = send(m, keyEsc)
	if m.helpMode {
		t.Error("esc should close help")
	}
}

func TestUpdate_EditTarget(t *testing.T) {
	m := createTestModel(t)

	m, _ = send(m, keyCtrlE)
	if !m.editMode {
		t.Fatal("ctrl-e should open the target editor")
	}
	if m.input.Value() != m.Focused().String() {
		t.Errorf("input = %q, want %q", m.input.Value(), m.Focused().String())
	}

	m.input.SetValue("atom-workspace atom-panel.left div.tree-view")
	m, _ = send(m, keyEnter)
	if m.editMode {
		t.Fatal("enter should apply a valid path")
	}
	if got := m.Focused(); got.Name != "Text Editor" || got.String() != "atom-workspace atom-panel.left div.tree-view" {
		t.Errorf("Focused() = %q %q", got.Name, got.String())
	}

	m, _ = send(m, keyEnter)
	if got := lastCommand(m); got != "tree-view:open-selected-entry" {
		t.Errorf("enter on the edited target dispatched %q", got)
	}
}

func TestUpdate_EditTargetInvalidPath(t *testing.T) {
	m := createTestModel(t)
	before := m.Focused().String()

	m, _ = send(m, keyCtrlE)
	m.input.SetValue(".no-tag")
	m, _ = send(m, keyEnter)
	if !m.editMode {
		t.Error("invalid path should keep the editor open")
	}
	if m.lastError == nil {
		t.Error("invalid path should report an error")
	}

	m, _ = send(m, keyEsc)
	if m.editMode {
		t.Error("esc should close the editor")
	}
	if m.Focused().String() != before {
		t.Errorf("target changed to %q after cancel", m.Focused().String())
	}
}

func TestUpdate_EditTargetDoesNotMutateOptions(t *testing.T) {
	targets := testTargets()
	m := createTestModel(t, func(o *Options) { o.Targets = targets })

	m, _ = send(m, keyCtrlE)
	m.input.SetValue("atom-workspace div.tree-view")
	send(m, keyEnter)

	if targets[0].String() != "atom-workspace atom-pane atom-text-editor.editor" {
		t.Errorf("caller's targets were modified: %q", targets[0].String())
	}
}

func TestUpdate_ClearLog(t *testing.T) {
	m := createTestModel(t)
	m, _ = send(m, keyF4, keyF3)
	if len(m.Log()) != 2 {
		t.Fatalf("Log() has %d entries, want 2", len(m.Log()))
	}

	m, _ = send(m, keyCtrlL)
	if len(m.Log()) != 0 {
		t.Errorf("Log() = %v, want empty", m.Log())
	}
}

func TestUpdate_LogIsBounded(t *testing.T) {
	m := createTestModel(t)
	for i := 0; i < MaxLogEntries+5; i++ {
		m, _ = send(m, keyF4)
	}
	if len(m.Log()) != MaxLogEntries {
		t.Errorf("Log() has %d entries, want %d", len(m.Log()), MaxLogEntries)
	}
}

func TestUpdate_CtrlCQuits(t *testing.T) {
	m := createTestModel(t)

	m, cmd := send(m, keyCtrlC)
	if !m.quitting {
		t.Error("ctrl+c should quit")
	}
	if cmd == nil {
		t.Error("ctrl+c should return a command")
	}
	if got := lastCommand(m); got != CommandQuit {
		t.Errorf("last dispatched = %q, want %q", got, CommandQuit)
	}
}

func TestUpdate_CtrlCQuitsWhenUnbound(t *testing.T) {
	m := createTestModel(t)
	if _, err := m.registry.Add(model.SourceUser, "atom-workspace", "ctrl-c", "unset!"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	m, _ = send(m, keyCtrlC)
	if !m.quitting {
		t.Error("ctrl+c should quit even when unbound")
	}
	if len(m.Log()) != 0 {
		t.Errorf("unset! should not be dispatched, got %v", m.Log())
	}
}

func TestUpdate_PasteIgnored(t *testing.T) {
	m := createTestModel(t)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc"), Paste: true})
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("xyz")})
	if m.Snapshot().HasKeystrokes() {
		t.Errorf("pasted text should not be resolved, got %q", m.Snapshot().Keystrokes)
	}
}

func TestUpdate_ShowReleases(t *testing.T) {
	m := createTestModel(t, func(o *Options) {
		o.Settings = &config.Settings{PanelVisible: true, PartialTimeoutMs: 1000, ShowReleases: true}
	})
	if _, err := m.registry.Add(model.SourceUser, "atom-text-editor", "^x", "editor:released"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	m, _ = send(m, runeKey('x'))
	if got := lastCommand(m); got != "editor:released" {
		t.Errorf("last dispatched = %q, want editor:released", got)
	}
	s := m.Snapshot()
	if s.Used == nil || s.Used.Keystrokes != "^x" {
		t.Errorf("Used = %v, want the ^x release binding", s.Used)
	}
}

func TestUpdate_ReleasesOffByDefault(t *testing.T) {
	m := createTestModel(t)
	if _, err := m.registry.Add(model.SourceUser, "atom-text-editor", "^x", "editor:released"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	m, _ = send(m, runeKey('x'))
	if len(m.Log()) != 0 {
		t.Errorf("Log() = %v, want empty", m.Log())
	}
}

func TestUpdate_KeymapChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keymap.yaml")
	if err := os.WriteFile(path, []byte("atom-workspace:\n  f5: user:reload-test\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	m := createTestModel(t)
	before := m.registry.Len()

	m, cmd := send(m, KeymapChangedMsg{Path: path})
	if cmd != nil {
		t.Error("no watch command expected when watching is off")
	}
	if m.registry.Len() != before+1 {
		t.Errorf("Len() = %d, want %d", m.registry.Len(), before+1)
	}
	if !strings.Contains(m.Status(), "Reloaded keymap.yaml") {
		t.Errorf("Status() = %q", m.Status())
	}

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyF5})
	if got := lastCommand(m); got != "user:reload-test" {
		t.Errorf("last dispatched = %q, want user:reload-test", got)
	}
}

func TestUpdate_KeymapChangedInvalidKeepsBindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keymap.yaml")
	if err := os.WriteFile(path, []byte("atom-workspace: [broken\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	m := createTestModel(t)
	before := m.registry.Len()

	m, _ = send(m, KeymapChangedMsg{Path: path})
	if m.lastError == nil {
		t.Error("invalid keymap should report an error")
	}
	if m.registry.Len() != before {
		t.Errorf("Len() = %d, want %d", m.registry.Len(), before)
	}
}

func TestUpdate_KeymapChangedRewatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keymap.yaml")
	m := createTestModel(t, func(o *Options) {
		o.UserKeymap = path
		o.Watch = true
	})

	_, cmd := send(m, KeymapChangedMsg{Path: path})
	if cmd == nil {
		t.Error("a reload should re-arm the watcher")
	}
}

func TestUpdate_WatchErr(t *testing.T) {
	m := createTestModel(t, func(o *Options) {
		o.UserKeymap = filepath.Join(t.TempDir(), "keymap.yaml")
		o.Watch = true
	})

	stopped, _ := send(m, WatchErrMsg{Err: context.Canceled})
	if stopped.watch || stopped.lastError != nil {
		t.Errorf("cancel should stop quietly: watch=%v err=%v", stopped.watch, stopped.lastError)
	}

	failed, _ := send(m, WatchErrMsg{Err: errors.New("too many open files")})
	if failed.watch {
		t.Error("watch should stop after an error")
	}
	if failed.lastError == nil {
		t.Error("watch error should be reported")
	}
}

func TestUpdate_WindowSize(t *testing.T) {
	m := createTestModel(t)

	m, _ = send(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	if !m.ready {
		t.Fatal("model should be ready after a window size message")
	}
	if m.viewport.Width != 96 {
		t.Errorf("viewport.Width = %d, want 96", m.viewport.Width)
	}
	if want := 40 - m.fixedHeight(); m.viewport.Height != want {
		t.Errorf("viewport.Height = %d, want %d", m.viewport.Height, want)
	}

	m, _ = send(m, tea.WindowSizeMsg{Width: 20, Height: 5})
	if m.viewport.Height != 1 {
		t.Errorf("viewport.Height = %d, want minimum 1", m.viewport.Height)
	}
}
