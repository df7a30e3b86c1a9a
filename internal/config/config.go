// Package config holds keyresolver configuration: persisted settings and skins under the
// user config directory, and the runtime Config assembled from flags, environment and defaults.
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kostyay/keyresolver/internal/keymap"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "KEYRESOLVER"

// Config holds all runtime configuration.
type Config struct {
	Keymap KeymapConfig `mapstructure:"keymap"`
	TUI    TUIConfig    `mapstructure:"tui"`
	Query  QueryConfig  `mapstructure:"query"`
	Output OutputConfig `mapstructure:"output"`
}

// KeymapConfig selects which keymaps are loaded into the registry.
type KeymapConfig struct {
	Files    []string `mapstructure:"files"`    // Extra keymaps, each loaded under its base name as source
	User     string   `mapstructure:"user"`     // User keymap, loaded under the "user" source
	NoCore   bool     `mapstructure:"no_core"`  // Skip the built-in keymap
	Priority int      `mapstructure:"priority"` // Tie-break rank of Files sources; core is 0, user 100
	Watch    bool     `mapstructure:"watch"`    // Reload the user keymap when it changes
}

// TUIConfig holds interactive workspace settings.
type TUIConfig struct {
	Targets        []string      `mapstructure:"targets"`         // "Name=element path" workspace targets
	Skin           string        `mapstructure:"skin"`            // Embedded skin name; empty uses skin.yaml or the default
	PartialTimeout time.Duration `mapstructure:"partial_timeout"` // Zero uses settings.yaml
}

// QueryConfig holds the inputs of the non-interactive commands.
type QueryConfig struct {
	Keys    string `mapstructure:"keys"`    // Keystroke sequence
	Target  string `mapstructure:"target"`  // Element path; empty picks the first workspace target when resolving
	Release bool   `mapstructure:"release"` // Send the last stroke as a key release
	Pending bool   `mapstructure:"pending"` // Leave an unfinished sequence pending instead of timing it out
}

// OutputConfig holds output settings.
type OutputConfig struct {
	JSON    bool   `mapstructure:"json"`     // Machine-readable output
	YAML    bool   `mapstructure:"yaml"`     // Binding lists as a loadable keymap file
	LogFile string `mapstructure:"log_file"` // Debug log destination; empty discards logs
}

// DefaultTargets is the workspace shown when no targets are configured.
var DefaultTargets = []string{
	"Text Editor=atom-workspace.platform-linux atom-pane atom-text-editor.editor",
	"Vim Editor=atom-workspace.platform-linux atom-pane atom-text-editor.editor.vim-mode",
	"Find Bar=atom-workspace.platform-linux atom-panel.bottom atom-text-editor.editor.mini",
	"Tree View=atom-workspace.platform-linux atom-panel.left div.tree-view",
	"Other Pane=atom-workspace.platform-linux atom-pane.other-pane",
}

// DefaultUserKeymap returns the user keymap path under the config directory.
func DefaultUserKeymap() string {
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "keymap.yaml")
}

// Load builds a Config using Viper with precedence: flags > env > defaults.
// It binds flags from the command (and its parents) and fails fast on invalid values.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindFlagsRecursive(v, cmd); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers default values with Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("keymap.files", []string{})
	v.SetDefault("keymap.user", DefaultUserKeymap())
	v.SetDefault("keymap.no_core", false)
	v.SetDefault("keymap.priority", keymap.PriorityPackage)
	v.SetDefault("keymap.watch", true)

	v.SetDefault("tui.targets", DefaultTargets)
	v.SetDefault("tui.skin", "")
	v.SetDefault("tui.partial_timeout", time.Duration(0))

	v.SetDefault("query.keys", "")
	v.SetDefault("query.target", "")
	v.SetDefault("query.release", false)
	v.SetDefault("query.pending", false)

	v.SetDefault("output.json", false)
	v.SetDefault("output.yaml", false)
	v.SetDefault("output.log_file", "")
}

// bindFlagsRecursive binds flags from cmd and all parents so Viper sees them.
// When a parent declares a flag of the same name, the one closest to cmd wins.
func bindFlagsRecursive(v *viper.Viper, cmd *cobra.Command) error {
	bound := make(map[string]bool)
	for c := cmd; c != nil; c = c.Parent() {
		if err := bindFlagSet(v, c.Flags(), bound); err != nil {
			return err
		}
		if err := bindFlagSet(v, c.PersistentFlags(), bound); err != nil {
			return err
		}
	}
	return nil
}

// flagToKey maps flag names to nested config keys.
var flagToKey = map[string]string{
	"keymap":          "keymap.files",
	"user-keymap":     "keymap.user",
	"no-core":         "keymap.no_core",
	"keymap-priority": "keymap.priority",
	"watch":           "keymap.watch",
	"workspace":       "tui.targets",
	"skin":            "tui.skin",
	"partial-timeout": "tui.partial_timeout",
	"keys":            "query.keys",
	"target":          "query.target",
	"release":         "query.release",
	"pending":         "query.pending",
	"json":            "output.json",
	"yaml":            "output.yaml",
	"log-file":        "output.log_file",
}

// bindFlagSet binds known flags to their config keys, skipping keys already bound.
func bindFlagSet(v *viper.Viper, fs *pflag.FlagSet, bound map[string]bool) error {
	if fs == nil {
		return nil
	}
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagToKey[f.Name]
		if !ok || err != nil || bound[key] {
			return
		}
		bound[key] = true
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("flag --%s: %w", f.Name, bindErr)
		}
	})
	return err
}

// Validate enforces correctness and fails fast on invalid configuration.
func (c Config) Validate() error {
	if c.TUI.PartialTimeout < 0 {
		return fmt.Errorf("tui.partial_timeout must be >= 0")
	}
	for _, f := range c.Keymap.Files {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("keymap.files must not contain empty paths")
		}
	}
	if c.Output.JSON && c.Output.YAML {
		return fmt.Errorf("output.json and output.yaml are mutually exclusive")
	}
	if c.TUI.Skin != "" && !slices.Contains(SkinNames(), c.TUI.Skin) {
		return fmt.Errorf("tui.skin %q is not one of %v", c.TUI.Skin, SkinNames())
	}
	if _, err := c.Targets(); err != nil {
		return err
	}
	if c.Query.Target != "" {
		if _, err := keymap.ParseTarget(c.Query.Target); err != nil {
			return fmt.Errorf("query.target: %w", err)
		}
	}
	return nil
}

// Targets parses the configured workspace targets. An entry without "Name=" is named by its
// focused element.
func (c Config) Targets() ([]*keymap.Target, error) {
	entries := c.TUI.Targets
	if len(entries) == 0 {
		entries = DefaultTargets
	}
	targets := make([]*keymap.Target, 0, len(entries))
	for _, entry := range entries {
		name, path, found := strings.Cut(entry, "=")
		if !found {
			path, name = name, ""
		}
		t, err := keymap.ParseTarget(path)
		if err != nil {
			return nil, fmt.Errorf("tui.targets %q: %w", entry, err)
		}
		if name = strings.TrimSpace(name); name == "" {
			name = t.Focused().String()
		}
		targets = append(targets, t.Named(name))
	}
	return targets, nil
}

// PartialTimeout returns the configured pending-sequence timeout, falling back to settings.
func (c Config) PartialTimeout(s *Settings) time.Duration {
	if c.TUI.PartialTimeout > 0 {
		return c.TUI.PartialTimeout
	}
	if s != nil && s.PartialTimeoutMs > 0 {
		return time.Duration(s.PartialTimeoutMs) * time.Millisecond
	}
	return DefaultPartialTimeoutMs * time.Millisecond
}
