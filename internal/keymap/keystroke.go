package keymap

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Keystroke parse errors.
var (
	ErrEmptyKeystroke   = errors.New("empty keystroke")
	ErrInvalidKeystroke = errors.New("invalid keystroke")
)

// Keystroke is a single key press or release with modifiers, e.g. "ctrl-shift-K" or "^ctrl".
type Keystroke struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Cmd   bool
	Up    bool // key release, written with a leading "^"
	Key   string
}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"meta":    "alt",
	"shift":   "shift",
	"cmd":     "cmd",
	"super":   "cmd",
}

var keyAliases = map[string]string{
	" ":      "space",
	"esc":    "escape",
	"return": "enter",
	"del":    "delete",
	"pgup":   "pageup",
	"pgdown": "pagedown",
}

// ParseKeystroke parses one keystroke in "mod-mod-key" notation.
//
// Modifiers are normalized to the order ctrl, alt, shift, cmd. A single uppercase letter
// implies shift, and shift with a single lowercase letter uppercases it.
func ParseKeystroke(s string) (Keystroke, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Keystroke{}, ErrEmptyKeystroke
	}

	var ks Keystroke
	if len(s) > 1 && s[0] == '^' {
		ks.Up = true
		s = s[1:]
	}

	var mods []string
	switch {
	case s == "-":
		ks.Key = "-"
	case strings.HasSuffix(s, "--"):
		ks.Key = "-"
		mods = strings.Split(strings.TrimSuffix(s, "--"), "-")
	default:
		parts := strings.Split(s, "-")
		ks.Key = parts[len(parts)-1]
		mods = parts[:len(parts)-1]
	}

	if ks.Key == "" {
		return Keystroke{}, fmt.Errorf("%w: %q has no key", ErrInvalidKeystroke, s)
	}

	for _, m := range mods {
		name, ok := modifierAliases[strings.ToLower(m)]
		if !ok {
			return Keystroke{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidKeystroke, m, s)
		}
		switch name {
		case "ctrl":
			ks.Ctrl = true
		case "alt":
			ks.Alt = true
		case "shift":
			ks.Shift = true
		case "cmd":
			ks.Cmd = true
		}
	}

	ks.Key = normalizeKey(ks.Key)
	if r, size := utf8.DecodeRuneInString(ks.Key); size == len(ks.Key) && unicode.IsLetter(r) {
		switch {
		case unicode.IsUpper(r):
			ks.Shift = true
		case ks.Shift:
			ks.Key = string(unicode.ToUpper(r))
		}
	}

	return ks, nil
}

func normalizeKey(key string) string {
	if alias, ok := keyAliases[strings.ToLower(key)]; ok {
		return alias
	}
	if utf8.RuneCountInString(key) > 1 {
		return strings.ToLower(key)
	}
	return key
}

// String renders the keystroke in canonical form.
func (k Keystroke) String() string {
	var b strings.Builder
	if k.Up {
		b.WriteByte('^')
	}
	if k.Ctrl {
		b.WriteString("ctrl-")
	}
	if k.Alt {
		b.WriteString("alt-")
	}
	if k.Shift {
		b.WriteString("shift-")
	}
	if k.Cmd {
		b.WriteString("cmd-")
	}
	b.WriteString(k.Key)
	return b.String()
}

// ParseKeystrokes parses a whitespace separated sequence of keystrokes.
func ParseKeystrokes(s string) ([]Keystroke, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, ErrEmptyKeystroke
	}
	strokes := make([]Keystroke, 0, len(fields))
	for _, f := range fields {
		ks, err := ParseKeystroke(f)
		if err != nil {
			return nil, err
		}
		strokes = append(strokes, ks)
	}
	return strokes, nil
}

// NormalizeKeystrokes returns the canonical form of a keystroke sequence.
func NormalizeKeystrokes(s string) (string, error) {
	strokes, err := ParseKeystrokes(s)
	if err != nil {
		return "", err
	}
	return joinStrokes(strokes), nil
}

func joinStrokes(strokes []Keystroke) string {
	parts := make([]string, len(strokes))
	for i, ks := range strokes {
		parts[i] = ks.String()
	}
	return strings.Join(parts, " ")
}
