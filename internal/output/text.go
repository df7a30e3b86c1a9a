package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kostyay/keyresolver/internal/model"
)

// RenderText writes the snapshot as a heading followed by a table of its rows.
// Partial snapshots include a keystrokes column, as the resolver panel does.
func RenderText(w io.Writer, snapshot model.Snapshot) error {
	if _, err := fmt.Fprintln(w, Heading(snapshot)); err != nil {
		return err
	}
	rows := Rows(snapshot)
	if len(rows) == 0 {
		return nil
	}

	partial := snapshot.IsPartial()
	headers := []string{"KIND", "COMMAND", "SELECTOR", "SOURCE"}
	if partial {
		headers = []string{"KIND", "COMMAND", "KEYSTROKES", "SELECTOR", "SOURCE"}
	}

	t := newTable(headers...)
	for _, r := range rows {
		b := r.Binding
		if partial {
			t.Row(string(r.Kind), b.Command, b.Keystrokes, b.Selector, b.Source)
		} else {
			t.Row(string(r.Kind), b.Command, b.Selector, b.Source)
		}
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// RenderBindingsText writes a binding list in the order given.
func RenderBindingsText(w io.Writer, bindings []*model.KeyBinding) error {
	if len(bindings) == 0 {
		_, err := fmt.Fprintln(w, "No bindings.")
		return err
	}
	t := newTable("#", "KEYSTROKES", "COMMAND", "SELECTOR", "SOURCE")
	for i, b := range bindings {
		t.Row(fmt.Sprint(i+1), b.Keystrokes, b.Command, b.Selector, b.Source)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func newTable(headers ...string) *table.Table {
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cell.Bold(true)
			}
			return cell
		})
}
