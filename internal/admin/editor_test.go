package admin

import (
	"context"
	"errors"
	"testing"
)

func TestFieldCommitInvokesUpdate(t *testing.T) {
	var saved string
	f := NewField(FieldConfig{
		Name: "title",
		Kind: FieldText,
		Update: func(ctx context.Context, value string) error {
			saved = value
			return nil
		},
	}, "Foo")

	f.BeginEdit()
	f.SetDraft("Bar")
	if err := f.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if saved != "Bar" {
		t.Errorf("update called with %q, want %q", saved, "Bar")
	}
	if f.Value() != "Bar" {
		t.Errorf("Value() = %q, want %q", f.Value(), "Bar")
	}
	if f.Phase() != PhaseViewing {
		t.Errorf("Phase() = %s, want viewing", f.Phase())
	}
}

func TestFieldCancelNeverInvokesUpdate(t *testing.T) {
	calls := 0
	f := NewField(FieldConfig{
		Name: "title",
		Kind: FieldText,
		Update: func(ctx context.Context, value string) error {
			calls++
			return nil
		},
	}, "Foo")

	f.BeginEdit()
	f.SetDraft("Bar")
	f.Cancel()

	if calls != 0 {
		t.Errorf("update called %d times after cancel, want 0", calls)
	}
	if f.Value() != "Foo" {
		t.Errorf("Value() = %q, want %q", f.Value(), "Foo")
	}
	if f.Phase() != PhaseViewing {
		t.Errorf("Phase() = %s, want viewing", f.Phase())
	}
}

func TestFieldUnchangedDraftCommitsTrivially(t *testing.T) {
	calls := 0
	f := NewField(FieldConfig{
		Name: "title",
		Kind: FieldText,
		Update: func(ctx context.Context, value string) error {
			calls++
			return nil
		},
	}, "Foo")

	f.BeginEdit()
	if err := f.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if calls != 0 {
		t.Errorf("update called %d times for unchanged draft, want 0", calls)
	}
	if f.Phase() != PhaseViewing {
		t.Errorf("Phase() = %s, want viewing", f.Phase())
	}
}

func TestFieldRevertOnFailure(t *testing.T) {
	f := NewField(FieldConfig{
		Name:            "title",
		Kind:            FieldText,
		RevertOnFailure: true,
		Update: func(ctx context.Context, value string) error {
			return errors.New("upstream unavailable")
		},
	}, "Foo")

	f.BeginEdit()
	f.SetDraft("Bar")
	if err := f.Commit(context.Background()); err == nil {
		t.Fatal("Commit() error = nil, want failure")
	}

	if f.Value() != "Foo" {
		t.Errorf("Value() = %q after failed save, want %q", f.Value(), "Foo")
	}
	if f.Phase() != PhaseViewing {
		t.Errorf("Phase() = %s, want viewing", f.Phase())
	}
}

func TestFieldStaysEditableOnFailure(t *testing.T) {
	f := NewField(FieldConfig{
		Name: "intro",
		Kind: FieldRichText,
		Update: func(ctx context.Context, value string) error {
			return errors.New("upstream unavailable")
		},
	}, "Foo")

	f.BeginEdit()
	f.SetDraft("Bar")
	if err := f.Commit(context.Background()); err == nil {
		t.Fatal("Commit() error = nil, want failure")
	}

	if f.Phase() != PhaseEditing {
		t.Errorf("Phase() = %s, want editing", f.Phase())
	}
	if f.Draft() != "Bar" {
		t.Errorf("Draft() = %q after failed save, want %q preserved", f.Draft(), "Bar")
	}
	if f.Value() != "Foo" {
		t.Errorf("Value() = %q, want %q", f.Value(), "Foo")
	}
}

func TestFieldCommitOutsideEditMode(t *testing.T) {
	f := NewField(FieldConfig{Name: "title", Kind: FieldText}, "Foo")
	if err := f.Commit(context.Background()); err == nil {
		t.Error("Commit() in viewing phase should error")
	}
}

func TestFieldSetDraftOutsideEditMode(t *testing.T) {
	f := NewField(FieldConfig{Name: "title", Kind: FieldText}, "Foo")
	f.SetDraft("Bar")
	if f.Draft() != "" {
		t.Errorf("Draft() = %q, want empty outside edit mode", f.Draft())
	}
}
