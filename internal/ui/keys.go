package ui

import "strings"

// Workspace commands handled by the model itself. Everything else is logged.
const (
	CommandQuit          = "app:quit"
	CommandHelp          = "app:help"
	CommandTogglePanel   = "key-binding-resolver:toggle"
	CommandFocusPrevious = "app:focus-previous"
	CommandFocusNext     = "app:focus-next"
	CommandEditTarget    = "app:edit-target"
	CommandClearLog      = "app:clear-log"
)

// Keybinding represents a keyboard shortcut with its display name.
type Keybinding struct {
	Key  string // bubbletea key string to match
	Desc string // description for help display
}

// Modal keybindings. These bypass the registry while a modal owns the keyboard.
var (
	KeyConfirm = Keybinding{Key: "enter", Desc: "Apply"}
	KeyCancel  = Keybinding{Key: "esc", Desc: "Cancel"}
	KeyQuitAlt = Keybinding{Key: "ctrl+c", Desc: "Quit"}
	KeyClose   = Keybinding{Key: "q", Desc: "Close"}
)

// matchKey checks if the input matches the keybinding.
func matchKey(input string, keys ...Keybinding) bool {
	for _, k := range keys {
		if input == k.Key {
			return true
		}
	}
	return false
}

// teaKeyAliases maps bubbletea key names that differ from keymap notation.
// The keymap parser normalizes the rest (esc, pgup, uppercase letters).
var teaKeyAliases = map[string]string{
	" ":     "space",
	"space": "space",
}

// keystrokeFromKey converts a bubbletea key string such as "ctrl+k" or "alt+A"
// to keymap notation ("ctrl-k", "alt-shift-A"). It returns "" for input that is
// not a single keystroke, such as pasted text.
func keystrokeFromKey(s string) string {
	if s == "" || strings.HasPrefix(s, "[") && len(s) > 2 {
		return ""
	}

	var mods []string
	key := s
	switch {
	case s == "+":
	case strings.HasSuffix(s, "++"):
		key = "+"
		mods = strings.Split(strings.TrimSuffix(s, "++"), "+")
	default:
		parts := strings.Split(s, "+")
		key = parts[len(parts)-1]
		mods = parts[:len(parts)-1]
	}
	if alias, ok := teaKeyAliases[key]; ok {
		key = alias
	}
	if strings.ContainsAny(key, " \t") || len([]rune(key)) > 1 && !isNamedKey(key) {
		return ""
	}
	return strings.Join(append(mods, key), "-")
}

// isNamedKey reports whether key is a named key like "enter" or "f12" rather
// than several typed characters.
func isNamedKey(key string) bool {
	for _, r := range key {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// workspaceCommands are shown in the footer and help modal, in this order.
var workspaceCommands = []struct {
	Command string
	Label   string // footer label
	Desc    string // help modal description
}{
	{CommandTogglePanel, "resolver", "Show or hide the key binding resolver"},
	{CommandFocusPrevious, "prev", "Focus the previous target"},
	{CommandFocusNext, "next", "Focus the next target"},
	{CommandEditTarget, "edit", "Edit the focused element path"},
	{CommandClearLog, "clear", "Clear the command log"},
	{CommandHelp, "help", "Show this help"},
	{CommandQuit, "quit", "Quit"},
}
