// Package admin implements the document administration surface: the inline
// field editor, page selection set, list filters, edit audit trail and the
// admin HTTP API.
package admin

import (
	"context"
	"fmt"
	"log"
)

// FieldKind selects the editing control for a field.
type FieldKind int

const (
	// FieldText is a plain text input (e.g. title).
	FieldText FieldKind = iota
	// FieldSelect is a fixed-choice enum (e.g. visibility, owner).
	FieldSelect
	// FieldSelectOrText is a preset list with a free-text escape hatch
	// (e.g. category).
	FieldSelectOrText
	// FieldRichText is a multi-line rich text value (e.g. intro message).
	FieldRichText
)

// Phase is the editing lifecycle of one field. A field is in exactly one
// phase; "saving while not editing" cannot be expressed.
type Phase int

const (
	PhaseViewing Phase = iota
	PhaseEditing
	PhaseSaving
)

func (p Phase) String() string {
	switch p {
	case PhaseViewing:
		return "viewing"
	case PhaseEditing:
		return "editing"
	case PhaseSaving:
		return "saving"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// UpdateFunc persists a committed value. It is invoked only when the new
// value differs from the original.
type UpdateFunc func(ctx context.Context, value string) error

// FieldConfig parameterizes one editable field. One engine replaces the four
// near-identical per-field implementations of the original admin grid.
type FieldConfig struct {
	Name    string
	Kind    FieldKind
	Options []string // preset choices for select kinds

	// RevertOnFailure restores the original value display after a failed
	// save instead of staying in edit mode. Title and enum fields revert;
	// free-text fields keep the draft so the user can retry.
	RevertOnFailure bool

	Update UpdateFunc
}

// Field is the state machine behind one inline-editable cell.
type Field struct {
	cfg   FieldConfig
	value string
	draft string
	phase Phase
}

// NewField creates a field displaying the given committed value.
func NewField(cfg FieldConfig, value string) *Field {
	return &Field{cfg: cfg, value: value, phase: PhaseViewing}
}

// Value returns the committed (displayed) value.
func (f *Field) Value() string { return f.value }

// Draft returns the in-progress edit buffer.
func (f *Field) Draft() string { return f.draft }

// Phase returns the current lifecycle phase.
func (f *Field) Phase() Phase { return f.phase }

// Kind returns the configured field kind.
func (f *Field) Kind() FieldKind { return f.cfg.Kind }

// Options returns the preset choices for select kinds.
func (f *Field) Options() []string { return f.cfg.Options }

// BeginEdit switches the field into edit mode, seeding the draft with the
// current value. No-op outside the viewing phase.
func (f *Field) BeginEdit() {
	if f.phase != PhaseViewing {
		return
	}
	f.draft = f.value
	f.phase = PhaseEditing
}

// SetDraft replaces the edit buffer. No-op outside the editing phase.
func (f *Field) SetDraft(s string) {
	if f.phase != PhaseEditing {
		return
	}
	f.draft = s
}

// Cancel leaves edit mode without invoking the update callback, restoring
// the original value display. Escape always takes this path.
func (f *Field) Cancel() {
	if f.phase != PhaseEditing {
		return
	}
	f.draft = ""
	f.phase = PhaseViewing
}

// Commit attempts to persist the draft. An unchanged draft commits
// trivially without invoking the callback. On failure the field either
// reverts or stays editable with the draft intact, per its configuration.
func (f *Field) Commit(ctx context.Context) error {
	if f.phase != PhaseEditing {
		return fmt.Errorf("commit outside edit mode (phase %s)", f.phase)
	}

	if f.draft == f.value {
		f.phase = PhaseViewing
		f.draft = ""
		return nil
	}

	f.phase = PhaseSaving
	err := f.cfg.Update(ctx, f.draft)
	if err != nil {
		log.Printf("admin: saving %s: %v", f.cfg.Name, err)
		if f.cfg.RevertOnFailure {
			f.draft = ""
			f.phase = PhaseViewing
		} else {
			f.phase = PhaseEditing
		}
		return err
	}

	f.value = f.draft
	f.draft = ""
	f.phase = PhaseViewing
	return nil
}
