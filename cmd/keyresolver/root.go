package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kostyay/keyresolver/internal/config"
	"github.com/kostyay/keyresolver/internal/keymap"
	"github.com/kostyay/keyresolver/internal/model"
	"github.com/kostyay/keyresolver/internal/ui"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyresolver",
		Short: "Key binding resolver - see which binding handles a keystroke and why",
		Long: `keyresolver is a TUI workspace for exploring keymaps. Every key you press is
resolved against the focused target and the resolver panel shows the binding
that won, the ones it shadowed and the ones that did not apply.

  keyresolver                                   # interactive workspace
  keyresolver --keys "ctrl-k ctrl-u"            # resolve and print, no TUI
  keyresolver --json                            # every binding as JSON
  keyresolver --yaml > merged.yaml              # every binding as one keymap file
  keyresolver resolve ctrl-k --target "atom-workspace atom-text-editor.vim-mode"
  keyresolver bindings --keys enter --target "atom-workspace atom-text-editor.mini"`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runRoot,
	}

	pf := cmd.PersistentFlags()
	pf.StringSlice("keymap", nil, "Extra keymap file, loaded under its base name as source (repeatable)")
	pf.String("user-keymap", "", "User keymap file (default keymap.yaml in the config directory)")
	pf.Bool("no-core", false, "Do not load the built-in keymap")
	pf.Int("keymap-priority", keymap.PriorityPackage, "Priority of --keymap sources over core (0) and user (100) bindings")
	pf.Bool("json", false, "Output in JSON format (for scripting/agent consumption)")
	pf.String("log-file", "", "Write debug logs to this file")

	f := cmd.Flags()
	f.Bool("watch", true, "Reload the user keymap when it changes")
	f.StringSlice("workspace", nil, `Workspace target as "Name=element path" (repeatable)`)
	f.String("skin", "", fmt.Sprintf("Color skin, one of %v", config.SkinNames()))
	f.Duration("partial-timeout", 0, "How long a partial sequence waits for the next keystroke")
	f.String("keys", "", "Resolve this keystroke sequence and print the result instead of starting the TUI")
	f.String("target", "", "Element path the keys are sent to (default: first workspace target)")
	f.Bool("release", false, "Send the last keystroke as a key release")
	f.Bool("yaml", false, "Print every binding as a keymap file instead of starting the TUI")

	cmd.AddCommand(newResolveCmd(), newBindingsCmd())
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, reg, cleanup, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	// JSON mode: explicit flag or non-TTY stdout
	asJSON := cfg.Output.JSON || !isTerminal(out)
	if cfg.Query.Keys != "" {
		return printResolution(out, reg, cfg, asJSON)
	}
	if cfg.Output.YAML {
		return printBindings(out, reg, cfg, false)
	}
	if asJSON {
		return printBindings(out, reg, cfg, true)
	}
	return runTUI(cmd.Context(), reg, cfg)
}

// prepare loads the configuration, routes the standard logger and builds the registry.
// cleanup closes the registry and the log file.
func prepare(cmd *cobra.Command) (config.Config, *keymap.Registry, func(), error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	closeLog, err := setupLogging(cfg.Output.LogFile)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	reg, err := buildRegistry(cfg)
	if err != nil {
		closeLog()
		return config.Config{}, nil, nil, err
	}
	return cfg, reg, func() {
		reg.Close()
		closeLog()
	}, nil
}

func runTUI(ctx context.Context, reg *keymap.Registry, cfg config.Config) error {
	if err := config.InitSettings(); err != nil {
		log.Printf("load settings: %v", err)
	}
	if err := config.InitTheme(cfg.TUI.Skin); err != nil {
		return fmt.Errorf("load skin: %w", err)
	}
	targets, err := cfg.Targets()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	settings := config.CurrentSettings
	m, err := ui.NewModel(ctx, ui.Options{
		Registry:       reg,
		Targets:        targets,
		PartialTimeout: cfg.PartialTimeout(settings),
		UserKeymap:     cfg.Keymap.User,
		Watch:          cfg.Keymap.Watch && dirExists(filepath.Dir(cfg.Keymap.User)),
		Settings:       settings,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run workspace: %w", err)
	}
	return nil
}

// buildRegistry loads the built-in keymap, every --keymap file and the user keymap, in that order.
func buildRegistry(cfg config.Config) (*keymap.Registry, error) {
	reg := keymap.NewRegistry()
	if !cfg.Keymap.NoCore {
		reg = keymap.NewDefaultRegistry()
		log.Printf("keymap %s: %d built-in bindings", model.SourceCore, reg.Len())
	}
	for _, path := range cfg.Keymap.Files {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("keymap: %w", err)
		}
		km, err := keymap.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("keymap: %w", err)
		}
		source := sourceName(path)
		if source != model.SourceCore && source != model.SourceUser {
			reg.SetSourcePriority(source, cfg.Keymap.Priority)
		}
		added, err := reg.Load(source, km)
		if err != nil {
			return nil, fmt.Errorf("keymap %s: %w", path, err)
		}
		log.Printf("keymap %s: %d bindings from %s", source, len(added), path)
	}
	if cfg.Keymap.User != "" {
		n, err := reg.Reload(model.SourceUser, cfg.Keymap.User)
		if err != nil {
			return nil, fmt.Errorf("user keymap: %w", err)
		}
		log.Printf("keymap %s: %d bindings from %s", model.SourceUser, n, cfg.Keymap.User)
	}
	return reg, nil
}

// sourceName names the source of a keymap file after its base name without extension.
func sourceName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// setupLogging sends the standard logger to path, or discards it so nothing
// is written over the TUI.
func setupLogging(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "keyresolver")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return func() { _ = f.Close() }, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
