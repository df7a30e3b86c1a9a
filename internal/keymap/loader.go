package keymap

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidKeymap is returned for keymap files that do not follow the selector/keystrokes/command layout.
var ErrInvalidKeymap = errors.New("invalid keymap")

// Entry is one binding as written in a keymap file.
type Entry struct {
	Selector   string
	Keystrokes string
	Command    string
}

// Keymap is an ordered list of entries. File order is registration order.
type Keymap []Entry

// Parse reads a keymap in the layout
//
//	atom-text-editor:
//	  ctrl-k: editor:cut-to-end-of-line
//	  ctrl-k ctrl-u: editor:upper-case
//
// keeping selectors and keystrokes in file order.
func Parse(data []byte) (Keymap, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeymap, err)
	}
	if len(doc.Content) == 0 {
		return Keymap{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: top level must map selectors to bindings", ErrInvalidKeymap, root.Line)
	}

	var km Keymap
	for i := 0; i+1 < len(root.Content); i += 2 {
		selNode, bindings := root.Content[i], root.Content[i+1]
		if bindings.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: line %d: %q must map keystrokes to commands", ErrInvalidKeymap, bindings.Line, selNode.Value)
		}
		for j := 0; j+1 < len(bindings.Content); j += 2 {
			keys, cmd := bindings.Content[j], bindings.Content[j+1]
			if keys.Kind != yaml.ScalarNode || cmd.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: line %d: binding under %q must be keystrokes: command", ErrInvalidKeymap, keys.Line, selNode.Value)
			}
			km = append(km, Entry{Selector: selNode.Value, Keystrokes: keys.Value, Command: cmd.Value})
		}
	}
	return km, nil
}

// LoadFile reads and parses a keymap file. A missing file yields an empty keymap.
func LoadFile(path string) (Keymap, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is the user's own keymap
	if err != nil {
		if os.IsNotExist(err) {
			return Keymap{}, nil
		}
		return nil, err
	}
	km, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return km, nil
}

// Marshal writes km back in the layout Parse reads. Selectors appear in first-use order.
func Marshal(km Keymap) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	groups := map[string]*yaml.Node{}
	for _, e := range km {
		g, ok := groups[e.Selector]
		if !ok {
			g = &yaml.Node{Kind: yaml.MappingNode}
			groups[e.Selector] = g
			root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: e.Selector}, g)
		}
		g.Content = append(g.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Keystrokes},
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Command},
		)
	}
	return yaml.Marshal(root)
}
