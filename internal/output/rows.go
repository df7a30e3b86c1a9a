package output

import (
	"github.com/kostyay/keyresolver/internal/model"
)

// RowKind classifies a binding row the way the resolver panel colours it.
type RowKind string

const (
	RowUsed      RowKind = "used"
	RowUnused    RowKind = "unused"
	RowUnmatched RowKind = "unmatched"
	RowPartial   RowKind = "partial"
)

// Row is one binding in display order.
type Row struct {
	Kind    RowKind
	Binding *model.KeyBinding
}

// Rows flattens a snapshot in panel order. A partial snapshot shows only its candidates;
// otherwise the winner comes first, then unused, then unmatched bindings.
func Rows(s model.Snapshot) []Row {
	if s.IsPartial() {
		rows := make([]Row, 0, len(s.Partial))
		for _, b := range s.Partial {
			rows = append(rows, Row{Kind: RowPartial, Binding: b})
		}
		return rows
	}

	rows := make([]Row, 0, 1+len(s.Unused)+len(s.Unmatched))
	if s.Used != nil {
		rows = append(rows, Row{Kind: RowUsed, Binding: s.Used})
	}
	for _, b := range s.Unused {
		rows = append(rows, Row{Kind: RowUnused, Binding: b})
	}
	for _, b := range s.Unmatched {
		rows = append(rows, Row{Kind: RowUnmatched, Binding: b})
	}
	return rows
}

// Heading returns the panel title line for a snapshot.
func Heading(s model.Snapshot) string {
	switch {
	case !s.HasKeystrokes():
		return "Key Binding Resolver: Press any key:"
	case s.IsPartial():
		return "Key Binding Resolver: " + s.Keystrokes + " (partial)"
	default:
		return "Key Binding Resolver: " + s.Keystrokes
	}
}
