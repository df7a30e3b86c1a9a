package resolver

import (
	"errors"

	"github.com/kostyay/keyresolver/internal/model"
)

// fakeTarget is a test double for model.Target.
type fakeTarget string

func (t fakeTarget) String() string { return string(t) }

// fakeEngine is a test double for MatchEngine.
type fakeEngine struct {
	full    []func(model.FullMatch)
	partial []func(model.PartialMatch)
	none    []func(model.NoMatch)

	// onTarget and global answer FindBindings by filter shape.
	onTarget []*model.KeyBinding
	global   []*model.KeyBinding
	findErr  error
	queries  []model.Filter

	// failAt makes the n-th subscription (1-based) fail.
	failAt     int
	subscribed int
	disposed   int
}

var errSubscribe = errors.New("subscribe failed")

func (f *fakeEngine) subscribe() (model.Disposable, error) {
	f.subscribed++
	if f.failAt != 0 && f.subscribed == f.failAt {
		return nil, errSubscribe
	}
	return model.DisposableFunc(func() { f.disposed++ }), nil
}

func (f *fakeEngine) OnFullMatch(cb func(model.FullMatch)) (model.Disposable, error) {
	d, err := f.subscribe()
	if err == nil {
		f.full = append(f.full, cb)
	}
	return d, err
}

func (f *fakeEngine) OnPartialMatch(cb func(model.PartialMatch)) (model.Disposable, error) {
	d, err := f.subscribe()
	if err == nil {
		f.partial = append(f.partial, cb)
	}
	return d, err
}

func (f *fakeEngine) OnNoMatch(cb func(model.NoMatch)) (model.Disposable, error) {
	d, err := f.subscribe()
	if err == nil {
		f.none = append(f.none, cb)
	}
	return d, err
}

func (f *fakeEngine) FindBindings(filter model.Filter) ([]*model.KeyBinding, error) {
	f.queries = append(f.queries, filter)
	if f.findErr != nil {
		return nil, f.findErr
	}
	if filter.Target != nil {
		return f.onTarget, nil
	}
	return f.global, nil
}

func (f *fakeEngine) emitFull(n model.FullMatch) {
	for _, cb := range f.full {
		cb(n)
	}
}

func (f *fakeEngine) emitPartial(n model.PartialMatch) {
	for _, cb := range f.partial {
		cb(n)
	}
}

func (f *fakeEngine) emitNone(n model.NoMatch) {
	for _, cb := range f.none {
		cb(n)
	}
}
