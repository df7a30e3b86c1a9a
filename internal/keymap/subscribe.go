package keymap

import (
	"sync"

	"github.com/kostyay/keyresolver/internal/model"
)

// subscribers keeps match callbacks keyed by subscription id so that disposal
// removes exactly one registration.
type subscribers struct {
	mu      sync.Mutex
	nextID  int
	full    map[int]func(model.FullMatch)
	partial map[int]func(model.PartialMatch)
	none    map[int]func(model.NoMatch)
	order   []int
}

func newSubscribers() *subscribers {
	return &subscribers{
		full:    make(map[int]func(model.FullMatch)),
		partial: make(map[int]func(model.PartialMatch)),
		none:    make(map[int]func(model.NoMatch)),
	}
}

func (s *subscribers) add(register func(id int)) model.Disposable {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	register(id)
	s.order = append(s.order, id)
	s.mu.Unlock()

	return model.DisposableFunc(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.full, id)
		delete(s.partial, id)
		delete(s.none, id)
	})
}

func (s *subscribers) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.full)
	clear(s.partial)
	clear(s.none)
	s.order = nil
}

// idsLocked returns live subscription ids in subscription order.
func (s *subscribers) idsLocked() []int {
	live := s.order[:0]
	for _, id := range s.order {
		_, f := s.full[id]
		_, p := s.partial[id]
		_, n := s.none[id]
		if f || p || n {
			live = append(live, id)
		}
	}
	s.order = live
	return append([]int(nil), live...)
}

func (s *subscribers) emit(n model.Notification) {
	s.mu.Lock()
	var calls []func()
	for _, id := range s.idsLocked() {
		switch n := n.(type) {
		case model.FullMatch:
			if cb, ok := s.full[id]; ok {
				calls = append(calls, func() { cb(n) })
			}
		case model.PartialMatch:
			if cb, ok := s.partial[id]; ok {
				calls = append(calls, func() { cb(n) })
			}
		case model.NoMatch:
			if cb, ok := s.none[id]; ok {
				calls = append(calls, func() { cb(n) })
			}
		}
	}
	s.mu.Unlock()

	for _, call := range calls {
		call()
	}
}

// OnFullMatch registers cb for resolved keystroke sequences.
func (r *Registry) OnFullMatch(cb func(model.FullMatch)) (model.Disposable, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.subs.add(func(id int) { r.subs.full[id] = cb }), nil
}

// OnPartialMatch registers cb for sequences that are a strict prefix of some binding.
func (r *Registry) OnPartialMatch(cb func(model.PartialMatch)) (model.Disposable, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.subs.add(func(id int) { r.subs.partial[id] = cb }), nil
}

// OnNoMatch registers cb for sequences that matched nothing.
func (r *Registry) OnNoMatch(cb func(model.NoMatch)) (model.Disposable, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.subs.add(func(id int) { r.subs.none[id] = cb }), nil
}

// Close drops all subscriptions. Later subscriptions and key events fail with ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.pending = nil
	r.pendingTarget = nil
	r.mu.Unlock()
	r.subs.clear()
}

func (r *Registry) checkOpen() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	return nil
}
