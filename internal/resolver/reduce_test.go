package resolver

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kostyay/keyresolver/internal/model"
)

func binding(command, selector, source string) *model.KeyBinding {
	return &model.KeyBinding{Command: command, Keystrokes: "ctrl-k", Selector: selector, Source: source}
}

func staticFind(onTarget, global []*model.KeyBinding) FindFunc {
	return func(f model.Filter) ([]*model.KeyBinding, error) {
		if f.Target != nil {
			return onTarget, nil
		}
		return global, nil
	}
}

func TestReduce_FullMatchSplitsUnusedAndUnmatched(t *testing.T) {
	a := binding("a", "atom-text-editor", "user")
	b := binding("b", "atom-text-editor.vim-mode", "core")
	c := binding("c", ".other-pane", "core")

	next, accepted, err := Reduce(model.EmptySnapshot(), model.FullMatch{
		Keystrokes: "ctrl-k",
		Binding:    b,
		Target:     fakeTarget("atom-text-editor.vim-mode"),
		Kind:       model.KeyDown,
	}, staticFind([]*model.KeyBinding{b, a}, []*model.KeyBinding{a, b, c}))

	require.NoError(t, err)
	require.True(t, accepted)
	assert.Equal(t, "ctrl-k", next.Keystrokes)
	assert.Same(t, b, next.Used)
	assert.Equal(t, []*model.KeyBinding{a}, next.Unused)
	assert.Equal(t, []*model.KeyBinding{c}, next.Unmatched)
	assert.Empty(t, next.Partial)
	assert.NotNil(t, next.Partial)
}

func TestReduce_FullMatchKeepsFieldIdenticalTwins(t *testing.T) {
	winner := binding("same", "div", "user")
	twin := binding("same", "div", "user")

	next, _, err := Reduce(model.EmptySnapshot(), model.FullMatch{
		Keystrokes: "ctrl-k",
		Binding:    winner,
		Target:     fakeTarget("div"),
		Kind:       model.KeyDown,
	}, staticFind([]*model.KeyBinding{winner, twin}, []*model.KeyBinding{winner, twin}))

	require.NoError(t, err)
	require.Len(t, next.Unused, 1)
	assert.Same(t, twin, next.Unused[0])
	assert.Empty(t, next.Unmatched)
}

func TestReduce_FullMatchPreservesQueryOrder(t *testing.T) {
	x := binding("x", "a", "core")
	y := binding("y", "b", "core")
	z := binding("z", "c", "core")
	w := binding("w", "d", "core")

	next, _, err := Reduce(model.EmptySnapshot(), model.FullMatch{
		Keystrokes: "ctrl-k",
		Binding:    w,
		Target:     fakeTarget("d"),
		Kind:       model.KeyDown,
	}, staticFind([]*model.KeyBinding{z, w, x}, []*model.KeyBinding{x, y, z, w}))

	require.NoError(t, err)
	assert.Equal(t, []*model.KeyBinding{z, x}, next.Unused)
	assert.Equal(t, []*model.KeyBinding{y}, next.Unmatched)
}

func TestReduce_FullMatchKeyUpWithoutBindingIgnored(t *testing.T) {
	prev := model.Snapshot{Keystrokes: "ctrl-x", Partial: []*model.KeyBinding{binding("p", "div", "core")}}
	called := false
	find := func(model.Filter) ([]*model.KeyBinding, error) {
		called = true
		return nil, nil
	}

	next, accepted, err := Reduce(prev, model.FullMatch{Keystrokes: "ctrl-k", Kind: model.KeyUp}, find)

	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, prev, next)
	assert.False(t, called, "ignored notifications must not query the match engine")
}

func TestReduce_FullMatchKeyUpWithBindingAccepted(t *testing.T) {
	b := binding("b", "div", "core")
	next, accepted, err := Reduce(model.EmptySnapshot(), model.FullMatch{
		Keystrokes: "^ctrl",
		Binding:    b,
		Target:     fakeTarget("div"),
		Kind:       model.KeyUp,
	}, staticFind([]*model.KeyBinding{b}, []*model.KeyBinding{b}))

	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Same(t, b, next.Used)
}

func TestReduce_FullMatchNilBindingOnKeyDown(t *testing.T) {
	a := binding("a", "div", "core")
	next, accepted, err := Reduce(model.EmptySnapshot(), model.FullMatch{
		Keystrokes: "ctrl-k",
		Target:     fakeTarget("div"),
		Kind:       model.KeyDown,
	}, staticFind([]*model.KeyBinding{a}, []*model.KeyBinding{a}))

	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Nil(t, next.Used)
	assert.Equal(t, []*model.KeyBinding{a}, next.Unused)
	assert.Empty(t, next.Unmatched)
}

func TestReduce_PartialMatchClearsEverythingElse(t *testing.T) {
	a := binding("a", "div", "user")
	b := binding("b", "div", "core")
	prev := model.Snapshot{Keystrokes: "ctrl-k", Used: a, Unused: []*model.KeyBinding{b}, Unmatched: []*model.KeyBinding{b}}
	pending := []*model.KeyBinding{a, b}

	next, accepted, err := Reduce(prev, model.PartialMatch{Keystrokes: "ctrl-k", Bindings: pending}, nil)

	require.NoError(t, err)
	require.True(t, accepted)
	assert.Nil(t, next.Used)
	assert.Empty(t, next.Unused)
	assert.Empty(t, next.Unmatched)
	assert.Equal(t, pending, next.Partial)
	assert.True(t, next.IsPartial())

	pending[0] = b
	assert.Same(t, a, next.Partial[0], "snapshot must not alias the notification slice")
}

func TestReduce_NoMatch(t *testing.T) {
	a := binding("a", "div", "user")
	c := binding("c", ".other", "core")
	prev := model.Snapshot{Keystrokes: "ctrl-k", Partial: []*model.KeyBinding{a}}

	next, accepted, err := Reduce(prev, model.NoMatch{
		Keystrokes: "ctrl-k",
		Target:     fakeTarget("div"),
		Kind:       model.KeyDown,
	}, staticFind([]*model.KeyBinding{a}, []*model.KeyBinding{a, c}))

	require.NoError(t, err)
	require.True(t, accepted)
	assert.Nil(t, next.Used)
	assert.Equal(t, []*model.KeyBinding{a}, next.Unused)
	assert.Equal(t, []*model.KeyBinding{c}, next.Unmatched)
	assert.Empty(t, next.Partial)
}

func TestReduce_NoMatchKeyUpIgnored(t *testing.T) {
	prev := model.Snapshot{Keystrokes: "ctrl-x"}
	next, accepted, err := Reduce(prev, model.NoMatch{Keystrokes: "ctrl-k", Kind: model.KeyUp}, nil)

	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, prev, next)
}

func TestReduce_QueryFailureKeepsPrevious(t *testing.T) {
	boom := errors.New("boom")
	prev := model.Snapshot{Keystrokes: "ctrl-x"}

	tests := []struct {
		name     string
		n        model.Notification
		failOnNo int
	}{
		{"full match target query", model.FullMatch{Keystrokes: "ctrl-k", Kind: model.KeyDown, Target: fakeTarget("div")}, 1},
		{"full match global query", model.FullMatch{Keystrokes: "ctrl-k", Kind: model.KeyDown, Target: fakeTarget("div")}, 2},
		{"no match target query", model.NoMatch{Keystrokes: "ctrl-k", Kind: model.KeyDown, Target: fakeTarget("div")}, 1},
		{"no match global query", model.NoMatch{Keystrokes: "ctrl-k", Kind: model.KeyDown, Target: fakeTarget("div")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			find := func(model.Filter) ([]*model.KeyBinding, error) {
				calls++
				if calls == tt.failOnNo {
					return nil, boom
				}
				return []*model.KeyBinding{binding("a", "div", "core")}, nil
			}

			next, accepted, err := Reduce(prev, tt.n, find)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrQuery)
			assert.ErrorIs(t, err, boom)
			assert.False(t, accepted)
			assert.Equal(t, prev, next)
		})
	}
}

func TestReduce_InvalidNotifications(t *testing.T) {
	tests := []struct {
		name string
		n    model.Notification
	}{
		{"full match without keystrokes", model.FullMatch{Kind: model.KeyDown}},
		{"full match without kind", model.FullMatch{Keystrokes: "ctrl-k"}},
		{"no match without keystrokes", model.NoMatch{Kind: model.KeyDown}},
		{"no match without kind", model.NoMatch{Keystrokes: "ctrl-k"}},
		{"partial match without keystrokes", model.PartialMatch{}},
		{"nil notification", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := model.Snapshot{Keystrokes: "prev"}
			next, accepted, err := Reduce(prev, tt.n, staticFind(nil, nil))
			assert.ErrorIs(t, err, ErrInvalidNotification)
			assert.False(t, accepted)
			assert.Equal(t, prev, next)
		})
	}
}

func TestReduce_LatestNotificationWins(t *testing.T) {
	a := binding("a", "div", "core")
	find := staticFind([]*model.KeyBinding{a}, []*model.KeyBinding{a})

	s, _, err := Reduce(model.EmptySnapshot(), model.PartialMatch{Keystrokes: "ctrl-k", Bindings: []*model.KeyBinding{a}}, find)
	require.NoError(t, err)
	require.True(t, s.IsPartial())

	s, _, err = Reduce(s, model.FullMatch{Keystrokes: "ctrl-k ctrl-u", Binding: a, Target: fakeTarget("div"), Kind: model.KeyDown}, find)
	require.NoError(t, err)
	assert.False(t, s.IsPartial())
	assert.Equal(t, "ctrl-k ctrl-u", s.Keystrokes)

	s, _, err = Reduce(s, model.NoMatch{Keystrokes: "ctrl-j", Target: fakeTarget("div"), Kind: model.KeyDown}, find)
	require.NoError(t, err)
	assert.Nil(t, s.Used)
	assert.Equal(t, "ctrl-j", s.Keystrokes)
}

// TestReduce_FullMatchProperties checks disjointness and containment over random overlapping sets.
func TestReduce_FullMatchProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 500; iter++ {
		pool := make([]*model.KeyBinding, 1+rng.Intn(12))
		for i := range pool {
			// Few distinct field values so that field-identical twins are common.
			pool[i] = binding("cmd", []string{"div", "span"}[rng.Intn(2)], "core")
		}

		var global, onTarget []*model.KeyBinding
		for _, b := range pool {
			if rng.Intn(4) == 0 {
				continue
			}
			global = append(global, b)
			if rng.Intn(2) == 0 {
				onTarget = append(onTarget, b)
			}
		}
		var winner *model.KeyBinding
		if len(onTarget) > 0 && rng.Intn(5) != 0 {
			winner = onTarget[rng.Intn(len(onTarget))]
		}

		next, accepted, err := Reduce(model.EmptySnapshot(), model.FullMatch{
			Keystrokes: "ctrl-k",
			Binding:    winner,
			Target:     fakeTarget("div"),
			Kind:       model.KeyDown,
		}, staticFind(onTarget, global))
		require.NoError(t, err)
		require.True(t, accepted)

		seen := map[*model.KeyBinding]string{}
		mark := func(b *model.KeyBinding, set string) {
			if prevSet, ok := seen[b]; ok && prevSet != set {
				t.Fatalf("iteration %d: binding %p in both %s and %s", iter, b, prevSet, set)
			}
			seen[b] = set
		}
		if next.Used != nil {
			mark(next.Used, "used")
		}
		for _, b := range next.Unused {
			mark(b, "unused")
		}
		for _, b := range next.Unmatched {
			mark(b, "unmatched")
		}

		globalSet := model.NewIdentitySet(global...)
		for b := range seen {
			if !globalSet.Has(b) {
				t.Fatalf("iteration %d: binding %p not returned by the global query", iter, b)
			}
		}
		assert.Len(t, next.Unused, len(onTarget)-boolToInt(winner != nil))
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
