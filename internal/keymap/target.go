package keymap

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// ErrInvalidTarget is returned when a target path cannot be parsed.
var ErrInvalidTarget = errors.New("invalid target")

// Attr is an element attribute other than id and class.
type Attr struct {
	Name  string
	Value string
}

// Element is one node of a target path.
type Element struct {
	Tag     string
	ID      string
	Classes []string
	Attrs   []Attr
}

// HasClass reports whether the element carries class cls.
func (e Element) HasClass(cls string) bool {
	return slices.Contains(e.Classes, cls)
}

// String renders the element as a compound selector.
func (e Element) String() string {
	var b strings.Builder
	b.WriteString(e.Tag)
	if e.ID != "" {
		b.WriteString("#" + e.ID)
	}
	for _, c := range e.Classes {
		b.WriteString("." + c)
	}
	for _, a := range e.Attrs {
		if a.Value == "" {
			fmt.Fprintf(&b, "[%s]", a.Name)
		} else {
			fmt.Fprintf(&b, "[%s=%s]", a.Name, a.Value)
		}
	}
	return b.String()
}

func (e Element) htmlAttrs() []html.Attribute {
	attrs := make([]html.Attribute, 0, len(e.Attrs)+2)
	if e.ID != "" {
		attrs = append(attrs, html.Attribute{Key: "id", Val: e.ID})
	}
	if len(e.Classes) > 0 {
		attrs = append(attrs, html.Attribute{Key: "class", Val: strings.Join(e.Classes, " ")})
	}
	for _, a := range e.Attrs {
		attrs = append(attrs, html.Attribute{Key: strings.ToLower(a.Name), Val: a.Value})
	}
	return attrs
}

// Target is the focused element together with its ancestors, root first.
type Target struct {
	Name string
	Path []Element
}

// ParseTarget parses a space separated element path such as
// "atom-workspace atom-pane atom-text-editor.editor.vim-mode[mini]".
// Attribute values may not contain spaces.
func ParseTarget(s string) (*Target, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidTarget)
	}
	t := &Target{Path: make([]Element, 0, len(fields))}
	for _, f := range fields {
		e, err := parseElement(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
		}
		t.Path = append(t.Path, e)
	}
	return t, nil
}

func parseElement(s string) (Element, error) {
	var e Element
	i := identEnd(s, 0)
	e.Tag = s[:i]
	if e.Tag == "" {
		return Element{}, fmt.Errorf("element %q needs a tag", s)
	}

	for i < len(s) {
		switch s[i] {
		case '.', '#':
			j := identEnd(s, i+1)
			name := s[i+1 : j]
			if name == "" {
				return Element{}, fmt.Errorf("bad name in %q", s)
			}
			if s[i] == '.' {
				e.Classes = append(e.Classes, name)
			} else if e.ID != "" {
				return Element{}, fmt.Errorf("two ids in %q", s)
			} else {
				e.ID = name
			}
			i = j
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return Element{}, fmt.Errorf("unterminated attribute in %q", s)
			}
			a, err := parseAttr(s[i+1 : i+end])
			if err != nil {
				return Element{}, fmt.Errorf("%v in %q", err, s)
			}
			e.Attrs = append(e.Attrs, a)
			i += end + 1
		default:
			return Element{}, fmt.Errorf("unexpected %q in %q", s[i], s)
		}
	}
	return e, nil
}

func parseAttr(s string) (Attr, error) {
	name, value, _ := strings.Cut(s, "=")
	if name == "" || identEnd(name, 0) != len(name) {
		return Attr{}, fmt.Errorf("bad attribute %q", s)
	}
	if name == "id" || name == "class" {
		return Attr{}, fmt.Errorf("use # or . for %q", name)
	}
	return Attr{Name: name, Value: strings.Trim(value, `"'`)}, nil
}

func identEnd(s string, i int) int {
	for i < len(s) {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_' {
			i++
			continue
		}
		break
	}
	return i
}

// Named returns a copy of t with the given display name.
func (t *Target) Named(name string) *Target {
	c := *t
	c.Name = name
	return &c
}

// Focused returns the innermost element.
func (t *Target) Focused() Element {
	return t.Path[len(t.Path)-1]
}

// String renders the path root first.
func (t *Target) String() string {
	if t == nil {
		return "<none>"
	}
	parts := make([]string, len(t.Path))
	for i, e := range t.Path {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}
