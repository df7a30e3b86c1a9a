package main

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/kostyay/keyresolver/internal/config"
	"github.com/kostyay/keyresolver/internal/keymap"
	"github.com/kostyay/keyresolver/internal/model"
	"github.com/kostyay/keyresolver/internal/output"
)

var errTargetNeedsKeys = errors.New("--target requires --keys")

func newBindingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "List registered key bindings",
		Long: `Without --keys every binding is listed in registration order. With --keys only
the bindings for that sequence are listed; adding --target orders them the way
resolution walks from the focused element up to the root.

With --yaml the list is written as a keymap file that can be loaded back with
--keymap or used as the user keymap.`,
		Args: cobra.NoArgs,
		RunE: runBindings,
	}
	cmd.Flags().String("keys", "", "Only list bindings for this keystroke sequence")
	cmd.Flags().String("target", "", "Element path used to order the bindings (requires --keys)")
	cmd.Flags().Bool("yaml", false, "Write the bindings as a keymap file")
	return cmd
}

func runBindings(cmd *cobra.Command, _ []string) error {
	cfg, reg, cleanup, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return printBindings(cmd.OutOrStdout(), reg, cfg, cfg.Output.JSON)
}

func printBindings(w io.Writer, reg *keymap.Registry, cfg config.Config, asJSON bool) error {
	bindings, err := findBindings(reg, cfg.Query)
	if err != nil {
		return err
	}
	switch {
	case cfg.Output.YAML:
		data, err := keymap.Marshal(reg.Export(bindings))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case asJSON:
		return output.RenderBindingsJSON(w, bindings)
	}
	return output.RenderBindingsText(w, bindings)
}

func findBindings(reg *keymap.Registry, q config.QueryConfig) ([]*model.KeyBinding, error) {
	if q.Keys == "" {
		if q.Target != "" {
			return nil, errTargetNeedsKeys
		}
		return reg.Bindings(), nil
	}
	filter := model.Filter{Keystrokes: q.Keys}
	if q.Target != "" {
		t, err := keymap.ParseTarget(q.Target)
		if err != nil {
			return nil, err
		}
		filter.Target = t
	}
	return reg.FindBindings(filter)
}
