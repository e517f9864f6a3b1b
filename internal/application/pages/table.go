package pages

import (
	"strings"

	"squad/internal/domain/access"
)

// Cell is one rendered value.
type Cell struct {
	Text     string
	Href     string // set when the value links to another record
	Markdown bool   // Text is markdown source
}

// Column describes one table column or detail field.
// Resource is the resource the value comes from; an empty Resource means the
// page's own record, which the page gate already covers.
type Column[T any] struct {
	Header   string
	Resource access.Resource
	Sort     string // store sort key; empty when the column is not sortable
	Cell     func(T) Cell
}

// Row is one rendered table row.
type Row struct {
	ID       string
	Cells    []Cell
	EditHref string
	ViewHref string
}

// Table is a rendered table: data headers plus rows, with the row actions
// the actor may use.
type Table struct {
	Headers    []string
	Sorts      []string // parallel to Headers
	Rows       []Row
	ShowEdit   bool
	ShowView   bool
	ShowDelete bool
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Field is one rendered detail field.
type Field struct {
	Label string
	Cell  Cell
}

func canRead(c access.Checker, res access.Resource) bool {
	return res == "" || c.HasAccess(res, access.OpRead, access.ScopeProject)
}

func can(c access.Checker, res access.Resource, op access.Operation) bool {
	return c.HasAccess(res, op, access.ScopeProject)
}

// visibleColumns drops columns whose resource the actor cannot read.
func visibleColumns[T any](c access.Checker, cols []Column[T]) []Column[T] {
	out := make([]Column[T], 0, len(cols))
	for _, col := range cols {
		if canRead(c, col.Resource) {
			out = append(out, col)
		}
	}
	return out
}

// buildTable renders items through the visible columns.
// INVARIANT: every row has exactly len(Headers) cells
func buildTable[T any](c access.Checker, res access.Resource, base string, cols []Column[T], items []T, id func(T) string) Table {
	cols = visibleColumns(c, cols)
	t := Table{
		Headers:    make([]string, len(cols)),
		Sorts:      make([]string, len(cols)),
		Rows:       make([]Row, 0, len(items)),
		ShowEdit:   can(c, res, access.OpUpdate),
		ShowView:   can(c, res, access.OpRead),
		ShowDelete: can(c, res, access.OpDelete),
	}
	for i, col := range cols {
		t.Headers[i] = col.Header
		t.Sorts[i] = col.Sort
	}
	for _, it := range items {
		rowID := id(it)
		row := Row{ID: rowID, Cells: make([]Cell, len(cols))}
		for i, col := range cols {
			row.Cells[i] = col.Cell(it)
		}
		if t.ShowEdit {
			row.EditHref = base + "/edit/" + rowID
		}
		if t.ShowView {
			row.ViewHref = base + "/view/" + rowID
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// readable filters relation names down to those the actor may read.
// Relation names are resource names, optionally nested ("player.user") or
// counted ("training_plan.count"); a nested name needs READ on every segment.
func readable(c access.Checker, names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if relationReadable(c, n) {
			out = append(out, n)
		}
	}
	return out
}

func relationReadable(c access.Checker, name string) bool {
	for _, seg := range strings.Split(strings.TrimSuffix(name, ".count"), ".") {
		if !canRead(c, access.Resource(seg)) {
			return false
		}
	}
	return true
}
