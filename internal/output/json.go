package output

import (
	"encoding/json"
	"io"

	"github.com/kostyay/keyresolver/internal/model"
)

// JSONBinding represents a key binding in JSON output.
type JSONBinding struct {
	Command    string `json:"command"`
	Keystrokes string `json:"keystrokes"`
	Selector   string `json:"selector"`
	Source     string `json:"source"`
}

// JSONOutput is the root JSON output structure for a resolution.
type JSONOutput struct {
	Keystrokes       string        `json:"keystrokes"`
	Target           string        `json:"target,omitempty"`
	Partial          bool          `json:"partial"`
	Used             *JSONBinding  `json:"used"`
	Unused           []JSONBinding `json:"unused"`
	Unmatched        []JSONBinding `json:"unmatched"`
	PartiallyMatched []JSONBinding `json:"partiallyMatched"`
}

// NewJSONOutput converts a snapshot. target is informational and may be empty.
func NewJSONOutput(snapshot model.Snapshot, target string) JSONOutput {
	out := JSONOutput{
		Keystrokes:       snapshot.Keystrokes,
		Target:           target,
		Partial:          snapshot.IsPartial(),
		Unused:           jsonBindings(snapshot.Unused),
		Unmatched:        jsonBindings(snapshot.Unmatched),
		PartiallyMatched: jsonBindings(snapshot.Partial),
	}
	if snapshot.Used != nil {
		used := jsonBinding(snapshot.Used)
		out.Used = &used
	}
	return out
}

// RenderJSON writes the snapshot as JSON to the writer.
func RenderJSON(w io.Writer, snapshot model.Snapshot, target string) error {
	return encode(w, NewJSONOutput(snapshot, target))
}

// RenderBindingsJSON writes a binding list as a JSON array.
func RenderBindingsJSON(w io.Writer, bindings []*model.KeyBinding) error {
	return encode(w, jsonBindings(bindings))
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func jsonBinding(b *model.KeyBinding) JSONBinding {
	return JSONBinding{
		Command:    b.Command,
		Keystrokes: b.Keystrokes,
		Selector:   b.Selector,
		Source:     b.Source,
	}
}

// jsonBindings never returns nil so empty lists encode as [].
func jsonBindings(bindings []*model.KeyBinding) []JSONBinding {
	out := make([]JSONBinding, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, jsonBinding(b))
	}
	return out
}
