package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ukidney/docchat/internal/db"
)

// AuditEntry records one admin field edit.
type AuditEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
	Slug      string    `json:"document_slug"`
	Field     string    `json:"field"`
	Previous  string    `json:"previous_value"`
	New       string    `json:"new_value"`
}

// Audit persists the edit trail.
type Audit struct {
	db *db.DB
}

// NewAudit creates an audit store. database may be nil to disable auditing.
func NewAudit(database *db.DB) *Audit {
	return &Audit{db: database}
}

// Record writes one edit entry.
func (a *Audit) Record(ctx context.Context, actorID, slug, field, previous, newValue string) error {
	if a.db == nil {
		return nil
	}
	if actorID == "" {
		actorID = "anonymous"
	}
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO edit_audit (id, timestamp, actor_id, document_slug, field, previous_value, new_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), time.Now().Unix(), actorID, slug, field, previous, newValue,
	)
	if err != nil {
		return fmt.Errorf("recording edit audit: %w", err)
	}
	return nil
}

// Recent returns the newest entries for slug, most recent first.
func (a *Audit) Recent(ctx context.Context, slug string, limit int) ([]AuditEntry, error) {
	if a.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT id, timestamp, actor_id, document_slug, field, previous_value, new_value
		 FROM edit_audit WHERE document_slug = ? ORDER BY timestamp DESC, id LIMIT ?`,
		slug, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing edit audit: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.ActorID, &e.Slug, &e.Field, &e.Previous, &e.New); err != nil {
			return nil, fmt.Errorf("scanning edit audit: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
