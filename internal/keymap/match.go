package keymap

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kostyay/keyresolver/internal/model"
)

// Commands with special meaning during resolution.
const (
	// CommandUnset hides lower bindings on the same element; resolution continues at the parent.
	CommandUnset = "unset!"
	// CommandAbort stops resolution without running anything.
	CommandAbort = "abort!"
)

// KeyEvent is a single keyboard event delivered to a target.
type KeyEvent struct {
	Keystroke string
	Kind      model.EventKind
	Target    *Target
}

// HandleKey feeds one keyboard event into the registry and notifies subscribers of the outcome.
//
// Key presses accumulate into a pending sequence while the sequence is a strict prefix of
// some binding reachable from the target. Key releases resolve "^key" bindings and never
// touch the pending sequence.
func (r *Registry) HandleKey(ev KeyEvent) error {
	if !ev.Kind.Valid() {
		return fmt.Errorf("%w: event kind %v", ErrInvalidKeystroke, ev.Kind)
	}
	if strings.ContainsAny(strings.TrimSpace(ev.Keystroke), " \t") {
		return fmt.Errorf("%w: %q is a sequence, not a keystroke", ErrInvalidKeystroke, ev.Keystroke)
	}
	ks, err := ParseKeystroke(ev.Keystroke)
	if err != nil {
		return err
	}
	target := ev.Target
	if target != nil && len(target.Path) == 0 {
		target = nil
	}

	var n model.Notification
	if ev.Kind == model.KeyUp {
		ks.Up = true
		n, err = r.release(ks.String(), target)
	} else {
		ks.Up = false
		n, err = r.press(ks.String(), target)
	}
	if err != nil {
		return err
	}
	r.subs.emit(n)
	return nil
}

func (r *Registry) release(stroke string, target *Target) (model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	if winner, ok := r.resolveLocked(stroke, target); ok {
		return model.FullMatch{Keystrokes: stroke, Binding: winner, Target: asModelTarget(target), Kind: model.KeyUp}, nil
	}
	return model.NoMatch{Keystrokes: stroke, Target: asModelTarget(target), Kind: model.KeyUp}, nil
}

func (r *Registry) press(stroke string, target *Target) (model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	r.pending = append(r.pending, stroke)
	r.pendingTarget = target
	seq := strings.Join(r.pending, " ")

	if partial := r.partialLocked(r.pending, target); len(partial) > 0 {
		return model.PartialMatch{Keystrokes: seq, Bindings: partial}, nil
	}
	return r.finishLocked(seq, target), nil
}

// Timeout resolves the pending sequence as if no further key will arrive.
// It returns false when nothing was pending.
func (r *Registry) Timeout() (bool, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false, ErrClosed
	}
	if len(r.pending) == 0 {
		r.mu.Unlock()
		return false, nil
	}
	n := r.finishLocked(strings.Join(r.pending, " "), r.pendingTarget)
	r.mu.Unlock()

	r.subs.emit(n)
	return true, nil
}

// ClearPending drops the pending sequence without notifying anyone.
func (r *Registry) ClearPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
	r.pendingTarget = nil
}

// Pending returns the strokes typed so far in an unfinished sequence.
func (r *Registry) Pending() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return strings.Join(r.pending, " ")
}

// finishLocked resolves seq, clears the pending state and returns the notification to emit.
func (r *Registry) finishLocked(seq string, target *Target) model.Notification {
	r.pending = nil
	r.pendingTarget = nil
	if winner, ok := r.resolveLocked(seq, target); ok {
		return model.FullMatch{Keystrokes: seq, Binding: winner, Target: asModelTarget(target), Kind: model.KeyDown}
	}
	return model.NoMatch{Keystrokes: seq, Target: asModelTarget(target), Kind: model.KeyDown}
}

// resolveLocked picks the binding for seq on target. An abort! binding wins like any other;
// an unset! binding hides the rest of its element.
func (r *Registry) resolveLocked(seq string, target *Target) (*model.KeyBinding, bool) {
	if target == nil {
		return nil, false
	}
	var candidates []*entry
	for _, e := range r.entries {
		if e.binding.Keystrokes == seq {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	for _, level := range r.walkLocked(target, candidates) {
		for _, m := range level {
			if m.entry.binding.Command == CommandUnset {
				break
			}
			return m.entry.binding, true
		}
	}
	return nil, false
}

// partialLocked returns bindings reachable from target whose strokes strictly extend typed.
func (r *Registry) partialLocked(typed []string, target *Target) []*model.KeyBinding {
	if target == nil {
		return nil
	}
	var candidates []*entry
	for _, e := range r.entries {
		if len(e.strokes) > len(typed) && slices.Equal(e.strokes[:len(typed)], typed) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	var out []*model.KeyBinding
	for _, level := range r.walkLocked(target, candidates) {
		for _, m := range level {
			if m.entry.binding.Command == CommandUnset {
				break
			}
			out = append(out, m.entry.binding)
		}
	}
	return out
}

// asModelTarget keeps a nil *Target from becoming a non-nil interface.
func asModelTarget(t *Target) model.Target {
	if t == nil {
		return nil
	}
	return t
}
