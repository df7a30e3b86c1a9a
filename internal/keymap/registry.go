package keymap

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kostyay/keyresolver/internal/model"
)

// Registry errors.
var (
	ErrClosed        = errors.New("registry closed")
	ErrForeignTarget = errors.New("target not created by this package")
)

// Source priorities. Higher wins when specificity ties.
const (
	PriorityCore    = 0
	PriorityPackage = 50
	PriorityUser    = 100
)

// entry is a registered binding with its parsed forms.
type entry struct {
	binding  *model.KeyBinding
	selector *Selector
	strokes  []string
}

// Registry holds key bindings and resolves keystrokes against targets.
// It notifies subscribers of full, partial and failed matches.
type Registry struct {
	mu sync.RWMutex

	entries    []*entry
	nextIndex  int
	priorities map[string]int

	// pending holds the strokes of an unfinished multi-stroke sequence.
	pending       []string
	pendingTarget *Target

	subs   *subscribers
	closed bool
}

// NewRegistry creates an empty registry with the default source priorities.
func NewRegistry() *Registry {
	return &Registry{
		priorities: map[string]int{
			model.SourceCore: PriorityCore,
			model.SourceUser: PriorityUser,
		},
		subs: newSubscribers(),
	}
}

// SetSourcePriority sets the tie-break priority for a source.
func (r *Registry) SetSourcePriority(source string, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.priorities[source] = priority
}

func (r *Registry) priorityLocked(source string) int {
	if p, ok := r.priorities[source]; ok {
		return p
	}
	return PriorityPackage
}

// Add registers a single binding and returns it.
func (r *Registry) Add(source, selector, keystrokes, command string) (*model.KeyBinding, error) {
	e, err := newEntry(source, Entry{Selector: selector, Keystrokes: keystrokes, Command: command})
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(e)
	return e.binding, nil
}

// Load registers every entry of km under source. Either all entries are added or none.
func (r *Registry) Load(source string, km Keymap) ([]*model.KeyBinding, error) {
	parsed, err := parseEntries(source, km)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendAllLocked(parsed), nil
}

// ReplaceSource atomically removes all bindings of source and loads km in their place.
// On a parse error the registry is left unchanged.
func (r *Registry) ReplaceSource(source string, km Keymap) ([]*model.KeyBinding, error) {
	parsed, err := parseEntries(source, km)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeSourceLocked(source)
	return r.appendAllLocked(parsed), nil
}

// RemoveSource removes all bindings of source and returns how many were removed.
func (r *Registry) RemoveSource(source string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeSourceLocked(source)
}

func (r *Registry) removeSourceLocked(source string) int {
	kept := r.entries[:0:0]
	for _, e := range r.entries {
		if e.binding.Source != source {
			kept = append(kept, e)
		}
	}
	removed := len(r.entries) - len(kept)
	r.entries = kept
	return removed
}

func (r *Registry) appendAllLocked(parsed []*entry) []*model.KeyBinding {
	added := make([]*model.KeyBinding, len(parsed))
	for i, e := range parsed {
		r.appendLocked(e)
		added[i] = e.binding
	}
	return added
}

func (r *Registry) appendLocked(e *entry) {
	e.binding.Index = r.nextIndex
	r.nextIndex++
	r.entries = append(r.entries, e)
}

// Bindings returns all bindings in registration order.
func (r *Registry) Bindings() []*model.KeyBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.KeyBinding, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.binding
	}
	return out
}

// Len returns the number of registered bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Export converts bindings to a keymap in the order given. When several bindings share a
// selector and keystrokes only the one that resolution prefers is kept, so the keymap
// loads back without duplicate keys.
func (r *Registry) Export(bindings []*model.KeyBinding) Keymap {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type slot struct{ selector, keystrokes string }
	at := make(map[slot]int, len(bindings))
	kept := make([]*model.KeyBinding, 0, len(bindings))
	for _, b := range bindings {
		k := slot{b.Selector, b.Keystrokes}
		i, ok := at[k]
		if !ok {
			at[k] = len(kept)
			kept = append(kept, b)
			continue
		}
		if r.prefersLocked(b, kept[i]) {
			kept[i] = b
		}
	}

	km := make(Keymap, len(kept))
	for i, b := range kept {
		km[i] = Entry{Selector: b.Selector, Keystrokes: b.Keystrokes, Command: b.Command}
	}
	return km
}

// prefersLocked reports whether a wins over b when both have the same selector.
func (r *Registry) prefersLocked(a, b *model.KeyBinding) bool {
	if pa, pb := r.priorityLocked(a.Source), r.priorityLocked(b.Source); pa != pb {
		return pa > pb
	}
	return a.Index > b.Index
}

// FindBindings returns bindings whose keystrokes equal filter.Keystrokes.
//
// Without a target the result is in registration order. With a target the registry walks
// from the focused element to the root; at each element it appends the bindings whose
// selector matches that element, most specific first. Each binding appears once.
func (r *Registry) FindBindings(filter model.Filter) ([]*model.KeyBinding, error) {
	keystrokes, err := NormalizeKeystrokes(filter.Keystrokes)
	if err != nil {
		return nil, err
	}
	target, err := asTarget(filter.Target)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*entry
	for _, e := range r.entries {
		if e.binding.Keystrokes == keystrokes {
			candidates = append(candidates, e)
		}
	}

	out := make([]*model.KeyBinding, 0, len(candidates))
	if target == nil {
		for _, e := range candidates {
			out = append(out, e.binding)
		}
		return out, nil
	}
	for _, level := range r.walkLocked(target, candidates) {
		for _, m := range level {
			out = append(out, m.entry.binding)
		}
	}
	return out, nil
}

// ranked is an entry matched against one element of a target path.
type ranked struct {
	entry       *entry
	specificity Specificity
	priority    int
}

// walkLocked groups candidates by the element they match, focused element first.
// Within a group, entries are ordered by specificity, source priority, then most recent
// registration. An entry is assigned to the innermost element it matches.
func (r *Registry) walkLocked(target *Target, candidates []*entry) [][]ranked {
	seen := make(map[*entry]bool, len(candidates))
	nodes := elementNodes(target.Path)
	levels := make([][]ranked, 0, len(target.Path))
	for idx := len(target.Path) - 1; idx >= 0; idx-- {
		var level []ranked
		for _, e := range candidates {
			if seen[e] {
				continue
			}
			sp, ok := e.selector.match(nodes[idx])
			if !ok {
				continue
			}
			seen[e] = true
			level = append(level, ranked{entry: e, specificity: sp, priority: r.priorityLocked(e.binding.Source)})
		}
		sort.SliceStable(level, func(i, j int) bool {
			return level[i].before(level[j])
		})
		levels = append(levels, level)
	}
	return levels
}

func (a ranked) before(b ranked) bool {
	if c := a.specificity.Compare(b.specificity); c != 0 {
		return c > 0
	}
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.entry.binding.Index > b.entry.binding.Index
}

func asTarget(t model.Target) (*Target, error) {
	if t == nil {
		return nil, nil
	}
	target, ok := t.(*Target)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrForeignTarget, t)
	}
	if target == nil || len(target.Path) == 0 {
		return nil, nil
	}
	return target, nil
}

func parseEntries(source string, km Keymap) ([]*entry, error) {
	parsed := make([]*entry, 0, len(km))
	for i, ke := range km {
		e, err := newEntry(source, ke)
		if err != nil {
			return nil, fmt.Errorf("%s keymap entry %d: %w", source, i, err)
		}
		parsed = append(parsed, e)
	}
	return parsed, nil
}

func newEntry(source string, ke Entry) (*entry, error) {
	if ke.Command == "" {
		return nil, fmt.Errorf("%q on %q: empty command", ke.Keystrokes, ke.Selector)
	}
	sel, err := ParseSelector(ke.Selector)
	if err != nil {
		return nil, err
	}
	strokes, err := ParseKeystrokes(ke.Keystrokes)
	if err != nil {
		return nil, fmt.Errorf("%q on %q: %w", ke.Keystrokes, ke.Selector, err)
	}
	parts := make([]string, len(strokes))
	for i, ks := range strokes {
		parts[i] = ks.String()
	}
	return &entry{
		binding: &model.KeyBinding{
			Command:    ke.Command,
			Keystrokes: joinStrokes(strokes),
			Selector:   sel.String(),
			Source:     source,
		},
		selector: sel,
		strokes:  parts,
	}, nil
}
