package model

// Snapshot is the classification of the latest accepted notification.
// It is replaced wholesale on every update and never merged.
type Snapshot struct {
	Keystrokes string        // empty means no keys pressed yet
	Used       *KeyBinding   // binding the match engine selected, if any
	Unused     []*KeyBinding // same keystrokes and target as Used, but lost
	Unmatched  []*KeyBinding // same keystrokes, other targets
	Partial    []*KeyBinding // pending bindings whose prefix matches Keystrokes
}

// EmptySnapshot returns the snapshot an engine starts with.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Unused:    []*KeyBinding{},
		Unmatched: []*KeyBinding{},
		Partial:   []*KeyBinding{},
	}
}

// HasKeystrokes reports whether any keys have been pressed.
func (s Snapshot) HasKeystrokes() bool {
	return s.Keystrokes != ""
}

// IsPartial reports whether the snapshot describes a partial match.
func (s Snapshot) IsPartial() bool {
	return len(s.Partial) > 0
}

// Clone returns a copy whose slices can be modified without affecting s.
// The bindings themselves are shared.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Keystrokes: s.Keystrokes,
		Used:       s.Used,
		Unused:     cloneBindings(s.Unused),
		Unmatched:  cloneBindings(s.Unmatched),
		Partial:    cloneBindings(s.Partial),
	}
}

// All returns Used followed by Unused and Unmatched.
func (s Snapshot) All() []*KeyBinding {
	all := make([]*KeyBinding, 0, 1+len(s.Unused)+len(s.Unmatched))
	if s.Used != nil {
		all = append(all, s.Used)
	}
	all = append(all, s.Unused...)
	all = append(all, s.Unmatched...)
	return all
}

func cloneBindings(bindings []*KeyBinding) []*KeyBinding {
	out := make([]*KeyBinding, len(bindings))
	copy(out, bindings)
	return out
}
