package model

import (
	"fmt"
)

// Well-known binding sources.
const (
	SourceCore = "core"
	SourceUser = "user"
)

// KeyBinding is a (command, keystrokes, selector, source) tuple registered with a match engine.
// Bindings are compared by pointer identity: two bindings with identical fields are still
// distinct entries.
type KeyBinding struct {
	Command    string // e.g. editor:cut-to-end-of-line
	Keystrokes string // normalized, strokes separated by a single space
	Selector   string // e.g. atom-text-editor.vim-mode
	Source     string // e.g. core, user
	Index      int    // registration order assigned by the match engine
}

// String returns a compact description for logs.
func (b *KeyBinding) String() string {
	if b == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %q %s (%s)", b.Keystrokes, b.Selector, b.Command, b.Source)
}

// Target identifies the element a keyboard event was delivered to.
// The concrete type belongs to the match engine.
type Target interface {
	String() string
}

// Filter describes a FindBindings query. A nil Target means no target restriction.
type Filter struct {
	Keystrokes string
	Target     Target
}

// EventKind distinguishes key presses from key releases.
type EventKind int

const (
	KindUnknown EventKind = iota // zero value, never valid in a notification
	KeyDown
	KeyUp
)

// String returns a human-readable name for the EventKind.
func (k EventKind) String() string {
	switch k {
	case KeyDown:
		return "keydown"
	case KeyUp:
		return "keyup"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Valid reports whether k is KeyDown or KeyUp.
func (k EventKind) Valid() bool {
	return k == KeyDown || k == KeyUp
}

// IdentitySet is a set of bindings keyed by pointer identity.
type IdentitySet map[*KeyBinding]struct{}

// NewIdentitySet builds a set from the given bindings.
func NewIdentitySet(bindings ...*KeyBinding) IdentitySet {
	s := make(IdentitySet, len(bindings))
	for _, b := range bindings {
		s[b] = struct{}{}
	}
	return s
}

// Has reports whether b is in the set.
func (s IdentitySet) Has(b *KeyBinding) bool {
	_, ok := s[b]
	return ok
}

// Without returns the bindings not present in any of the excluded sets, preserving order.
// The result is never nil.
func Without(bindings []*KeyBinding, excluded ...IdentitySet) []*KeyBinding {
	result := make([]*KeyBinding, 0, len(bindings))
outer:
	for _, b := range bindings {
		for _, set := range excluded {
			if set.Has(b) {
				continue outer
			}
		}
		result = append(result, b)
	}
	return result
}
