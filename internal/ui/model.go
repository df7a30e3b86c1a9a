package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kostyay/keyresolver/internal/config"
	"github.com/kostyay/keyresolver/internal/keymap"
	"github.com/kostyay/keyresolver/internal/model"
	"github.com/kostyay/keyresolver/internal/resolver"
)

// MaxLogEntries bounds the dispatched command log.
const MaxLogEntries = 50

// ErrNoTargets is returned by NewModel when the workspace has nothing to focus.
var ErrNoTargets = errors.New("workspace has no targets")

// Options configures a Model.
type Options struct {
	Registry       *keymap.Registry
	Targets        []*keymap.Target
	PartialTimeout time.Duration

	// UserKeymap is reloaded into the user source whenever it changes, if Watch is set.
	UserKeymap string
	Watch      bool

	// Settings defaults to config.CurrentSettings. Persist defaults to config.SaveSettings.
	Settings *config.Settings
	Persist  func(*config.Settings) error
}

// LogEntry is one dispatched command.
type LogEntry struct {
	Keystrokes string
	Command    string
	Target     string
	At         time.Time
}

// dispatcher collects the commands the registry selects while a key is handled.
// Registry callbacks run synchronously inside HandleKey, on the Update goroutine.
type dispatcher struct {
	commands []LogEntry
	errs     []error
	subs     model.CompositeDisposable
}

func (d *dispatcher) onFullMatch(n model.FullMatch) {
	if n.Binding == nil {
		return
	}
	switch n.Binding.Command {
	case keymap.CommandUnset, keymap.CommandAbort:
		return
	}
	target := ""
	if n.Target != nil {
		target = n.Target.String()
	}
	d.commands = append(d.commands, LogEntry{
		Keystrokes: n.Keystrokes,
		Command:    n.Binding.Command,
		Target:     target,
		At:         time.Now(),
	})
}

func (d *dispatcher) onError(err error) {
	d.errs = append(d.errs, err)
}

// drain returns and clears what was collected since the last call.
func (d *dispatcher) drain() ([]LogEntry, []error) {
	cmds, errs := d.commands, d.errs
	d.commands, d.errs = nil, nil
	return cmds, errs
}

// Model is the workspace: a list of focusable targets, a command log and
// the key binding resolver panel.
type Model struct {
	ctx      context.Context
	registry *keymap.Registry
	engine   *resolver.Engine
	dispatch *dispatcher

	snapshot model.Snapshot
	targets  []*keymap.Target
	cursor   int
	log      []LogEntry

	settings       *config.Settings
	persist        func(*config.Settings) error
	panelVisible   bool
	showReleases   bool
	partialTimeout time.Duration
	timeoutSeq     int

	userKeymap string
	watch      bool

	status    string
	lastError error
	helpMode  bool
	editMode  bool
	input     textinput.Model

	quitting bool
	width    int
	height   int
	viewport viewport.Model
	ready    bool
}

// NewModel wires a registry into a workspace model.
// The resolver engine is subscribed immediately when the panel is visible.
func NewModel(ctx context.Context, opts Options) (Model, error) {
	if opts.Registry == nil {
		return Model{}, errors.New("registry is required")
	}
	if len(opts.Targets) == 0 {
		return Model{}, ErrNoTargets
	}
	settings := opts.Settings
	if settings == nil {
		settings = config.CurrentSettings
	}
	if settings == nil {
		settings = config.DefaultSettings()
	}
	persist := opts.Persist
	if persist == nil {
		persist = config.SaveSettings
	}
	timeout := opts.PartialTimeout
	if timeout <= 0 {
		timeout = time.Duration(settings.PartialTimeoutMs) * time.Millisecond
	}
	if timeout <= 0 {
		timeout = config.DefaultPartialTimeoutMs * time.Millisecond
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d := &dispatcher{}
	full, err := opts.Registry.OnFullMatch(d.onFullMatch)
	if err != nil {
		return Model{}, fmt.Errorf("subscribe dispatcher: %w", err)
	}
	d.subs.Add(full)

	engine := resolver.New(opts.Registry, resolver.WithErrorHandler(d.onError))
	if settings.PanelVisible {
		if err := engine.Start(); err != nil {
			d.subs.Dispose()
			return Model{}, fmt.Errorf("start resolver: %w", err)
		}
	}

	input := textinput.New()
	input.Prompt = "target: "
	input.CharLimit = 512

	return Model{
		ctx:            ctx,
		registry:       opts.Registry,
		engine:         engine,
		dispatch:       d,
		snapshot:       engine.Snapshot(),
		targets:        opts.Targets,
		settings:       settings,
		persist:        persist,
		panelVisible:   settings.PanelVisible,
		showReleases:   settings.ShowReleases,
		partialTimeout: timeout,
		userKeymap:     opts.UserKeymap,
		watch:          opts.Watch && opts.UserKeymap != "",
		input:          input,
	}, nil
}

// Close releases the resolver and dispatcher subscriptions.
func (m Model) Close() {
	m.engine.Stop()
	m.dispatch.subs.Dispose()
}

// Focused returns the target keys are delivered to.
func (m Model) Focused() *keymap.Target {
	return m.targets[m.cursor]
}

// Snapshot returns the classification currently shown in the panel.
func (m Model) Snapshot() model.Snapshot {
	return m.snapshot
}

// PanelVisible reports whether the resolver panel is attached.
func (m Model) PanelVisible() bool {
	return m.panelVisible
}

// Log returns the dispatched commands, oldest first.
func (m Model) Log() []LogEntry {
	return m.log
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// Ensure Model implements tea.Model.
var _ tea.Model = Model{}
