package view

import (
	"slices"

	"github.com/umputun/jobtrack/app/store"
)

// Reorder moves the dragged column to the index the target column had before the move.
// Returns a new layout and false if nothing changed (same column, or either one not in the layout).
func Reorder(layout []store.Column, dragged, target store.Column) ([]store.Column, bool) {
	res := slices.Clone(layout)
	if dragged == target {
		return res, false
	}
	from, to := slices.Index(res, dragged), slices.Index(res, target)
	if from < 0 || to < 0 {
		return res, false
	}
	res = slices.Delete(res, from, from+1)
	res = slices.Insert(res, to, dragged)
	return res, true
}

// VisibleColumns returns the layout without unknown columns, in layout order
func VisibleColumns(layout []store.Column) []store.Column {
	res := make([]store.Column, 0, len(layout))
	for _, c := range layout {
		if c.Known() && !slices.Contains(res, c) {
			res = append(res, c)
		}
	}
	return res
}
