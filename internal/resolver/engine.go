// Package resolver classifies which key binding fired for a keystroke sequence and which
// registered bindings were shadowed, matched elsewhere, or are still pending.
//
// The Engine consumes the decisions of an external match engine and never re-implements
// matching. Every accepted notification replaces the current snapshot wholesale.
package resolver

import (
	"fmt"
	"log"
	"sync"

	"github.com/kostyay/keyresolver/internal/model"
)

// MatchEngine is the key binding engine whose decisions are classified.
type MatchEngine interface {
	OnFullMatch(func(model.FullMatch)) (model.Disposable, error)
	OnPartialMatch(func(model.PartialMatch)) (model.Disposable, error)
	OnNoMatch(func(model.NoMatch)) (model.Disposable, error)
	FindBindings(model.Filter) ([]*model.KeyBinding, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithOnChange registers a callback fired once per accepted update.
// It runs synchronously after the snapshot has been replaced.
func WithOnChange(fn func(model.Snapshot)) Option {
	return func(e *Engine) {
		e.onChange = fn
	}
}

// WithErrorHandler replaces the default handler, which logs errors.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Engine) {
		e.onError = fn
	}
}

// Engine turns match engine notifications into snapshots.
type Engine struct {
	source MatchEngine

	mu       sync.Mutex
	snapshot model.Snapshot

	// lifecycle guards subs; held only by Start and Stop.
	lifecycle sync.Mutex
	subs      *model.CompositeDisposable

	onChange func(model.Snapshot)
	onError  func(error)
}

// New creates an Engine reading from source. It does not subscribe until Start.
func New(source MatchEngine, opts ...Option) *Engine {
	e := &Engine{
		source:   source,
		snapshot: model.EmptySnapshot(),
		onError: func(err error) {
			log.Printf("resolver: %v", err)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start subscribes to the full, partial and no-match streams.
// If any subscription fails, those already acquired are released and the error is returned.
func (e *Engine) Start() error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.subs != nil {
		return ErrAlreadyStarted
	}

	subs := &model.CompositeDisposable{}
	steps := []struct {
		name      string
		subscribe func() (model.Disposable, error)
	}{
		{"full match", func() (model.Disposable, error) { return e.source.OnFullMatch(e.HandleFullMatch) }},
		{"partial match", func() (model.Disposable, error) { return e.source.OnPartialMatch(e.HandlePartialMatch) }},
		{"no match", func() (model.Disposable, error) { return e.source.OnNoMatch(e.HandleNoMatch) }},
	}
	for _, step := range steps {
		d, err := step.subscribe()
		if err != nil {
			subs.Dispose()
			return fmt.Errorf("subscribe %s: %w", step.name, err)
		}
		subs.Add(d)
	}

	e.subs = subs
	return nil
}

// Stop releases all subscriptions. It is idempotent and safe on a never-started engine.
func (e *Engine) Stop() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.subs == nil {
		return
	}
	e.subs.Dispose()
	e.subs = nil
}

// Running reports whether the engine holds subscriptions.
func (e *Engine) Running() bool {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()
	return e.subs != nil
}

// Snapshot returns a copy of the current classification.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Clone()
}

// HandleFullMatch classifies a full match notification.
func (e *Engine) HandleFullMatch(n model.FullMatch) {
	e.apply(n)
}

// HandlePartialMatch classifies a partial match notification.
func (e *Engine) HandlePartialMatch(n model.PartialMatch) {
	e.apply(n)
}

// HandleNoMatch classifies a no-match notification.
func (e *Engine) HandleNoMatch(n model.NoMatch) {
	e.apply(n)
}

func (e *Engine) apply(n model.Notification) {
	next, accepted, err := e.reduce(n)
	if err != nil {
		if e.onError != nil {
			e.onError(err)
		}
		return
	}
	if accepted && e.onChange != nil {
		e.onChange(next)
	}
}

// reduce replaces the snapshot under the lock; callbacks run after it is released.
func (e *Engine) reduce(n model.Notification) (model.Snapshot, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, accepted, err := Reduce(e.snapshot, n, e.source.FindBindings)
	if err != nil || !accepted {
		return model.Snapshot{}, false, err
	}
	e.snapshot = next
	return next.Clone(), true, nil
}
