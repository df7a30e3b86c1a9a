package resolver

import (
	"fmt"

	"github.com/kostyay/keyresolver/internal/model"
)

// FindFunc queries the match engine for bindings matching a filter.
type FindFunc func(model.Filter) ([]*model.KeyBinding, error)

// Reduce computes the snapshot that follows prev after notification n.
//
// It returns accepted=false for notifications that carry no diagnostic value
// (key releases without a resolved binding). On error the returned snapshot is prev;
// a snapshot is never partially updated.
func Reduce(prev model.Snapshot, n model.Notification, find FindFunc) (model.Snapshot, bool, error) {
	switch n := n.(type) {
	case model.FullMatch:
		return reduceFullMatch(prev, n, find)
	case model.PartialMatch:
		return reducePartialMatch(prev, n)
	case model.NoMatch:
		return reduceNoMatch(prev, n, find)
	default:
		return prev, false, fmt.Errorf("%w: unsupported type %T", ErrInvalidNotification, n)
	}
}

func reduceFullMatch(prev model.Snapshot, n model.FullMatch, find FindFunc) (model.Snapshot, bool, error) {
	if err := validate(n.Keystrokes, n.Kind); err != nil {
		return prev, false, fmt.Errorf("full match: %w", err)
	}
	if n.Kind == model.KeyUp && n.Binding == nil {
		return prev, false, nil
	}
	if find == nil {
		return prev, false, fmt.Errorf("full match: %w: no binding query", ErrInvalidNotification)
	}

	winner := model.NewIdentitySet(n.Binding)

	onTarget, err := find(model.Filter{Keystrokes: n.Keystrokes, Target: n.Target})
	if err != nil {
		return prev, false, fmt.Errorf("%w: %q on %v: %w", ErrQuery, n.Keystrokes, n.Target, err)
	}
	unused := model.Without(onTarget, winner)

	global, err := find(model.Filter{Keystrokes: n.Keystrokes})
	if err != nil {
		return prev, false, fmt.Errorf("%w: %q: %w", ErrQuery, n.Keystrokes, err)
	}
	unmatched := model.Without(global, winner, model.NewIdentitySet(unused...))

	return model.Snapshot{
		Keystrokes: n.Keystrokes,
		Used:       n.Binding,
		Unused:     unused,
		Unmatched:  unmatched,
		Partial:    []*model.KeyBinding{},
	}, true, nil
}

func reducePartialMatch(prev model.Snapshot, n model.PartialMatch) (model.Snapshot, bool, error) {
	if n.Keystrokes == "" {
		return prev, false, fmt.Errorf("partial match: %w: missing keystrokes", ErrInvalidNotification)
	}
	partial := make([]*model.KeyBinding, len(n.Bindings))
	copy(partial, n.Bindings)

	return model.Snapshot{
		Keystrokes: n.Keystrokes,
		Unused:     []*model.KeyBinding{},
		Unmatched:  []*model.KeyBinding{},
		Partial:    partial,
	}, true, nil
}

func reduceNoMatch(prev model.Snapshot, n model.NoMatch, find FindFunc) (model.Snapshot, bool, error) {
	if err := validate(n.Keystrokes, n.Kind); err != nil {
		return prev, false, fmt.Errorf("no match: %w", err)
	}
	if n.Kind == model.KeyUp {
		return prev, false, nil
	}
	if find == nil {
		return prev, false, fmt.Errorf("no match: %w: no binding query", ErrInvalidNotification)
	}

	onTarget, err := find(model.Filter{Keystrokes: n.Keystrokes, Target: n.Target})
	if err != nil {
		return prev, false, fmt.Errorf("%w: %q on %v: %w", ErrQuery, n.Keystrokes, n.Target, err)
	}
	unused := model.Without(onTarget)

	global, err := find(model.Filter{Keystrokes: n.Keystrokes})
	if err != nil {
		return prev, false, fmt.Errorf("%w: %q: %w", ErrQuery, n.Keystrokes, err)
	}
	unmatched := model.Without(global, model.NewIdentitySet(unused...))

	return model.Snapshot{
		Keystrokes: n.Keystrokes,
		Unused:     unused,
		Unmatched:  unmatched,
		Partial:    []*model.KeyBinding{},
	}, true, nil
}

func validate(keystrokes string, kind model.EventKind) error {
	if keystrokes == "" {
		return fmt.Errorf("%w: missing keystrokes", ErrInvalidNotification)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: event kind %v", ErrInvalidNotification, kind)
	}
	return nil
}
