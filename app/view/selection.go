package view

import "slices"

// Selection is the set of checked rows, kept in the order ids were selected
type Selection struct {
	ids []string
}

// NewSelection makes a selection of given ids, duplicates and empty ids dropped
func NewSelection(ids ...string) Selection {
	res := Selection{}
	for _, id := range ids {
		if id != "" && !slices.Contains(res.ids, id) {
			res.ids = append(res.ids, id)
		}
	}
	return res
}

// Has reports whether id is selected
func (s Selection) Has(id string) bool { return slices.Contains(s.ids, id) }

// Len returns number of selected ids
func (s Selection) Len() int { return len(s.ids) }

// IDs returns a copy of the selected ids
func (s Selection) IDs() []string { return slices.Clone(s.ids) }

// ToggleAll clears the selection if every visible row is already selected,
// otherwise selects exactly the visible rows
func (s Selection) ToggleAll(visible []string) Selection {
	if s.AllSelected(visible) {
		return Selection{}
	}
	return NewSelection(visible...)
}

// AllSelected reports whether there are visible rows and all of them are selected
func (s Selection) AllSelected(visible []string) bool {
	if len(visible) == 0 {
		return false
	}
	for _, id := range visible {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Clear returns an empty selection
func (s Selection) Clear() Selection { return Selection{} }

// Retain drops ids not present in existing, used after jobs were deleted
func (s Selection) Retain(existing []string) Selection {
	return Selection{ids: slices.DeleteFunc(slices.Clone(s.ids), func(v string) bool {
		return !slices.Contains(existing, v)
	})}
}

// Without returns ids of the selection not present in ids, order kept
func (s Selection) Without(ids []string) []string {
	return slices.DeleteFunc(slices.Clone(s.ids), func(v string) bool { return slices.Contains(ids, v) })
}
