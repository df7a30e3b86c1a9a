package keymap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ErrInvalidSelector is returned for selectors that are not valid CSS.
var ErrInvalidSelector = errors.New("invalid selector")

// Specificity orders selectors the way CSS does: ids, then classes, attributes and
// pseudo-classes, then tags.
type Specificity struct {
	IDs     int
	Classes int
	Tags    int
}

func specificityOf(s cascadia.Specificity) Specificity {
	return Specificity{IDs: s[0], Classes: s[1], Tags: s[2]}
}

// Compare returns -1, 0 or 1 when s is less than, equal to or greater than o.
func (s Specificity) Compare(o Specificity) int {
	switch {
	case s.IDs != o.IDs:
		return sign(s.IDs - o.IDs)
	case s.Classes != o.Classes:
		return sign(s.Classes - o.Classes)
	default:
		return sign(s.Tags - o.Tags)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Selector is a parsed comma separated CSS selector list.
type Selector struct {
	source string
	group  cascadia.SelectorGroup
}

// ParseSelector parses a CSS selector list such as "atom-text-editor:not([mini])".
func ParseSelector(s string) (*Selector, error) {
	source := strings.TrimSpace(s)
	if source == "" {
		return nil, fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}
	group, err := cascadia.ParseGroup(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, s, err)
	}
	return &Selector{source: source, group: group}, nil
}

// String returns the selector as written.
func (s *Selector) String() string {
	return s.source
}

// match reports whether the selector matches n and, if so, the specificity of the most
// specific matching alternative.
func (s *Selector) match(n *html.Node) (Specificity, bool) {
	var best Specificity
	matched := false
	for _, sel := range s.group {
		if !sel.Match(n) {
			continue
		}
		specificity := specificityOf(sel.Specificity())
		if !matched || specificity.Compare(best) > 0 {
			best = specificity
		}
		matched = true
	}
	return best, matched
}

// elementNodes builds a chain of html elements for path under a document node so that
// selectors see each element's ancestors. nodes[i] stands for path[i].
func elementNodes(path []Element) []*html.Node {
	parent := &html.Node{Type: html.DocumentNode}
	nodes := make([]*html.Node, len(path))
	for i, e := range path {
		n := &html.Node{Type: html.ElementNode, Data: strings.ToLower(e.Tag), Attr: e.htmlAttrs()}
		parent.AppendChild(n)
		nodes[i] = n
		parent = n
	}
	return nodes
}
