package keymap

import (
	_ "embed"
	"fmt"

	"github.com/kostyay/keyresolver/internal/model"
)

//go:embed keymaps/core.yaml
var coreKeymap []byte

// Core returns the built-in keymap.
func Core() Keymap {
	km, err := Parse(coreKeymap)
	if err != nil {
		panic(fmt.Sprintf("built-in keymap: %v", err))
	}
	return km
}

// NewDefaultRegistry returns a registry with the built-in keymap loaded under the core source.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	if _, err := r.Load(model.SourceCore, Core()); err != nil {
		panic(fmt.Sprintf("built-in keymap: %v", err))
	}
	return r
}
