package admin

import "sort"

// Selection tracks the set of selected document ids on the current page of
// results. It exists only for the lifetime of a page view and is always a
// subset of the currently visible ids.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Toggle flips the selection state of id.
func (s *Selection) Toggle(id string) {
	if s.Has(id) {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
}

// Count returns the number of selected ids.
func (s *Selection) Count() int { return len(s.ids) }

// IDs returns the selected ids in sorted order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear empties the selection. Called after bulk actions complete.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// AllSelected reports whether every visible id is selected. An empty page
// never counts as all-selected.
func (s *Selection) AllSelected(visible []string) bool {
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

// Indeterminate reports whether some but not all visible ids are selected,
// which the select-all control renders as the indeterminate visual.
func (s *Selection) Indeterminate(visible []string) bool {
	return s.Count() > 0 && !s.AllSelected(visible)
}

// ToggleSelectAll selects every visible id, or clears the selection when
// everything visible is already selected. The indeterminate state resolves
// to select-all, matching the checkbox convention.
func (s *Selection) ToggleSelectAll(visible []string) {
	if s.AllSelected(visible) {
		s.Clear()
		return
	}
	for _, id := range visible {
		s.ids[id] = struct{}{}
	}
}

// Prune drops every selected id that is no longer visible, keeping the
// selection a subset of the post-filter page.
func (s *Selection) Prune(visible []string) {
	keep := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		keep[id] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}
