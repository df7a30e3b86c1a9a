package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kostyay/keyresolver/internal/config"
	"github.com/kostyay/keyresolver/internal/keymap"
	"github.com/kostyay/keyresolver/internal/model"
	"github.com/kostyay/keyresolver/internal/output"
	"github.com/kostyay/keyresolver/internal/resolver"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve KEYSTROKE...",
		Short: "Resolve a keystroke sequence and print what the resolver panel shows",
		Long: `Send each keystroke to the target and print the final resolution: the binding
used, the bindings it shadowed and the bindings that did not apply to the target.

An unfinished sequence is resolved as if the partial timeout elapsed unless
--pending is given.

  keyresolver resolve ctrl-k ctrl-u
  keyresolver resolve ctrl-k --target "atom-workspace atom-pane atom-text-editor.vim-mode" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runResolve,
	}
	cmd.Flags().String("target", "", "Element path the keys are sent to (default: first workspace target)")
	cmd.Flags().Bool("release", false, "Send the last keystroke as a key release")
	cmd.Flags().Bool("pending", false, "Leave an unfinished sequence pending")
	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, reg, cleanup, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	cfg.Query.Keys = strings.Join(args, " ")

	return printResolution(cmd.OutOrStdout(), reg, cfg, cfg.Output.JSON)
}

func printResolution(w io.Writer, reg *keymap.Registry, cfg config.Config, asJSON bool) error {
	target, err := queryTarget(cfg)
	if err != nil {
		return err
	}
	snapshot, err := resolveKeys(reg, cfg.Query, target)
	if err != nil {
		return err
	}
	if asJSON {
		return output.RenderJSON(w, snapshot, target.String())
	}
	if _, err := fmt.Fprintf(w, "Target: %s\n", target); err != nil {
		return err
	}
	return output.RenderText(w, snapshot)
}

// queryTarget parses --target, falling back to the first workspace target.
func queryTarget(cfg config.Config) (*keymap.Target, error) {
	if cfg.Query.Target != "" {
		return keymap.ParseTarget(cfg.Query.Target)
	}
	targets, err := cfg.Targets()
	if err != nil {
		return nil, err
	}
	return targets[0], nil
}

// resolveKeys replays q.Keys against target with a resolver subscribed and
// returns its final snapshot.
func resolveKeys(reg *keymap.Registry, q config.QueryConfig, target *keymap.Target) (model.Snapshot, error) {
	strokes, err := keymap.ParseKeystrokes(q.Keys)
	if err != nil {
		return model.Snapshot{}, err
	}

	var errs []error
	engine := resolver.New(reg, resolver.WithErrorHandler(func(err error) {
		errs = append(errs, err)
	}))
	if err := engine.Start(); err != nil {
		return model.Snapshot{}, err
	}
	defer engine.Stop()

	presses := strokes
	if q.Release {
		presses = strokes[:len(strokes)-1]
	}
	for _, ks := range presses {
		if err := reg.HandleKey(keymap.KeyEvent{Keystroke: ks.String(), Kind: model.KeyDown, Target: target}); err != nil {
			return model.Snapshot{}, err
		}
	}
	// A release never completes a pending sequence, so the presses are settled first.
	if !q.Pending || q.Release {
		if _, err := reg.Timeout(); err != nil {
			return model.Snapshot{}, err
		}
	}
	if q.Release {
		last := strokes[len(strokes)-1]
		if err := reg.HandleKey(keymap.KeyEvent{Keystroke: last.String(), Kind: model.KeyUp, Target: target}); err != nil {
			return model.Snapshot{}, err
		}
	}

	if err := errors.Join(errs...); err != nil {
		return model.Snapshot{}, fmt.Errorf("resolve %q: %w", q.Keys, err)
	}
	return engine.Snapshot(), nil
}
