package model

import (
	"sync"
)

// Notification is one of FullMatch, PartialMatch or NoMatch.
type Notification interface {
	notification()
}

// FullMatch reports that keystrokes resolved to Binding, or explicitly to none.
type FullMatch struct {
	Keystrokes string
	Binding    *KeyBinding // nil when no binding was selected
	Target     Target
	Kind       EventKind
}

// PartialMatch reports that the typed keystrokes are a strict prefix of Bindings.
type PartialMatch struct {
	Keystrokes string
	Bindings   []*KeyBinding
}

// NoMatch reports that no binding matched the keystrokes.
type NoMatch struct {
	Keystrokes string
	Target     Target
	Kind       EventKind
}

func (FullMatch) notification()    {}
func (PartialMatch) notification() {}
func (NoMatch) notification()      {}

// Disposable releases a subscription or other resource.
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a function to Disposable. The function runs at most once.
func DisposableFunc(fn func()) Disposable {
	return &funcDisposable{fn: fn}
}

type funcDisposable struct {
	once sync.Once
	fn   func()
}

func (d *funcDisposable) Dispose() {
	d.once.Do(func() {
		if d.fn != nil {
			d.fn()
		}
	})
}

// CompositeDisposable groups disposables that are released together.
// After Dispose, further additions are disposed immediately.
type CompositeDisposable struct {
	mu       sync.Mutex
	items    []Disposable
	disposed bool
}

// Add appends d to the group.
func (c *CompositeDisposable) Add(d Disposable) {
	if d == nil {
		return
	}
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		d.Dispose()
		return
	}
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Len returns the number of held disposables.
func (c *CompositeDisposable) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Dispose releases every held disposable in reverse order of acquisition.
// Calling it more than once is a no-op.
func (c *CompositeDisposable) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	items := c.items
	c.items = nil
	c.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		items[i].Dispose()
	}
}
