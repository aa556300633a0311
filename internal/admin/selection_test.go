package admin

import (
	"reflect"
	"testing"
)

func TestSelectionToggle(t *testing.T) {
	s := NewSelection()

	s.Toggle("a")
	if !s.Has("a") {
		t.Error("Has(a) = false after toggle on")
	}
	s.Toggle("a")
	if s.Has("a") {
		t.Error("Has(a) = true after toggle off")
	}
}

func TestSelectionDeselectOneLeavesIndeterminate(t *testing.T) {
	visible := []string{"a", "b", "c", "d"}
	s := NewSelection()

	s.ToggleSelectAll(visible)
	if s.Count() != 4 {
		t.Fatalf("Count() = %d after select all, want 4", s.Count())
	}
	if !s.AllSelected(visible) {
		t.Fatal("AllSelected() = false after select all")
	}

	s.Toggle("b")
	if s.Count() != 3 {
		t.Errorf("Count() = %d after deselecting one, want 3", s.Count())
	}
	if s.AllSelected(visible) {
		t.Error("AllSelected() = true with one deselected")
	}
	if !s.Indeterminate(visible) {
		t.Error("Indeterminate() = false with partial selection")
	}
}

func TestSelectionToggleSelectAllFromIndeterminate(t *testing.T) {
	visible := []string{"a", "b", "c"}
	s := NewSelection()
	s.Toggle("a")

	// Indeterminate resolves to select-all, not clear.
	s.ToggleSelectAll(visible)
	if !s.AllSelected(visible) {
		t.Error("AllSelected() = false, want all selected from indeterminate")
	}

	s.ToggleSelectAll(visible)
	if s.Count() != 0 {
		t.Errorf("Count() = %d after toggling off, want 0", s.Count())
	}
}

func TestSelectionEmptyPageNeverAllSelected(t *testing.T) {
	s := NewSelection()
	if s.AllSelected(nil) {
		t.Error("AllSelected(nil) = true, want false for empty page")
	}
}

func TestSelectionPruneKeepsSubset(t *testing.T) {
	s := NewSelection()
	s.Toggle("a")
	s.Toggle("b")
	s.Toggle("c")

	s.Prune([]string{"b", "c", "d"})

	if got, want := s.IDs(), []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() after prune = %v, want %v", got, want)
	}
}

func TestSelectionClear(t *testing.T) {
	s := NewSelection()
	s.Toggle("a")
	s.Toggle("b")
	s.Clear()
	if s.Count() != 0 {
		t.Errorf("Count() = %d after clear, want 0", s.Count())
	}
}
