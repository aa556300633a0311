package admin

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ukidney/docchat/internal/upstream"
)

// Backend is the subset of the upstream client the admin API needs.
type Backend interface {
	OwnerDocuments(ctx context.Context, owner string) ([]upstream.DocumentConfig, error)
	UpdateDocument(ctx context.Context, slug, field string, value any) error
	DeleteDocument(ctx context.Context, slug string) error
	CanEditDocument(ctx context.Context, slug string) (bool, error)
	AccessibleOwners(ctx context.Context) ([]string, error)
}

// Invalidator drops cached document state after an edit.
type Invalidator interface {
	InvalidateDocument(slug string)
}

// ActorSource identifies the acting admin user for the audit trail.
type ActorSource interface {
	UserID() string
}

// Handler serves the admin JSON API.
type Handler struct {
	backend    Backend
	invalidate Invalidator
	audit      *Audit
	actors     ActorSource
}

// NewHandler creates the admin API handler. invalidate and actors may be nil.
func NewHandler(backend Backend, invalidate Invalidator, audit *Audit, actors ActorSource) *Handler {
	return &Handler{backend: backend, invalidate: invalidate, audit: audit, actors: actors}
}

// RegisterRoutes mounts the admin API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/documents", h.handleList)
		r.Put("/documents/{slug}", h.handleUpdate)
		r.Post("/documents/bulk-delete", h.handleBulkDelete)
		r.Get("/documents/{slug}/audit", h.handleAudit)
		r.Get("/owners", h.handleOwners)
	})
}

type listResponse struct {
	Documents []upstream.DocumentConfig `json:"documents"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, `{"error":"owner parameter is required"}`, http.StatusBadRequest)
		return
	}

	docs, err := h.backend.OwnerDocuments(r.Context(), owner)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadGateway)
		return
	}

	filters := FiltersFromQuery(r.URL.Query())
	docs = filters.Apply(docs)

	writeJSON(w, http.StatusOK, listResponse{Documents: docs})
}

type updateRequest struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Previous string `json:"previous,omitempty"`
}

type updateResponse struct {
	OK    bool   `json:"ok"`
	Value string `json:"value"`
	Phase string `json:"phase"`
	Draft string `json:"draft,omitempty"`
	Error string `json:"error,omitempty"`
}

// editableFields maps the field names the grid edits to their editing
// behavior. Title and enum fields revert on a failed save; free-text fields
// keep the draft so the client can offer a retry.
var editableFields = map[string]FieldConfig{
	"title":          {Name: "title", Kind: FieldText, RevertOnFailure: true},
	"subtitle":       {Name: "subtitle", Kind: FieldText},
	"category":       {Name: "category", Kind: FieldSelectOrText, Options: []string{"Guidelines", "Review", "Trial", "Consensus"}},
	"access_level":   {Name: "access_level", Kind: FieldSelect, Options: []string{"public", "passcode", "authenticated", "restricted"}, RevertOnFailure: true},
	"owner":          {Name: "owner", Kind: FieldSelect, RevertOnFailure: true},
	"welcomeMessage": {Name: "welcomeMessage", Kind: FieldRichText},
	"introMessage":   {Name: "introMessage", Kind: FieldRichText},
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Field == "" {
		http.Error(w, `{"error":"field is required"}`, http.StatusBadRequest)
		return
	}
	cfg, ok := editableFields[req.Field]
	if !ok {
		http.Error(w, `{"error":"field `+req.Field+` is not editable"}`, http.StatusBadRequest)
		return
	}

	canEdit, err := h.backend.CanEditDocument(r.Context(), slug)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadGateway)
		return
	}
	if !canEdit {
		http.Error(w, `{"error":"not allowed to edit this document"}`, http.StatusForbidden)
		return
	}

	updated := false
	cfg.Update = func(ctx context.Context, value string) error {
		updated = true
		return h.backend.UpdateDocument(ctx, slug, req.Field, value)
	}

	// The request replays one edit cycle against the field engine, so the
	// commit semantics (unchanged values skipped, failure revert-or-retry)
	// match the inline grid exactly.
	field := NewField(cfg, req.Previous)
	field.BeginEdit()
	field.SetDraft(req.Value)
	if err := field.Commit(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, updateResponse{
			Value: field.Value(),
			Phase: field.Phase().String(),
			Draft: field.Draft(),
			Error: err.Error(),
		})
		return
	}

	if !updated {
		// Unchanged value: no upstream call, no invalidation, no audit row.
		writeJSON(w, http.StatusOK, updateResponse{OK: true, Value: field.Value(), Phase: field.Phase().String()})
		return
	}

	if h.invalidate != nil {
		h.invalidate.InvalidateDocument(slug)
	}

	if h.audit != nil {
		actor := ""
		if h.actors != nil {
			actor = h.actors.UserID()
		}
		if err := h.audit.Record(r.Context(), actor, slug, req.Field, req.Previous, req.Value); err != nil {
			// The edit itself succeeded; a failed audit write is logged only.
			log.Printf("admin: audit record for %s: %v", slug, err)
		}
	}

	writeJSON(w, http.StatusOK, updateResponse{OK: true, Value: field.Value(), Phase: field.Phase().String()})
}

type bulkDeleteRequest struct {
	Slugs []string `json:"slugs"`
	Owner string   `json:"owner,omitempty"`
}

type bulkDeleteResponse struct {
	Deleted int      `json:"deleted"`
	Failed  []string `json:"failed,omitempty"`
}

func (h *Handler) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	sel := NewSelection()
	for _, slug := range req.Slugs {
		if !sel.Has(slug) {
			sel.Toggle(slug)
		}
	}

	// When the request names the owner page it came from, the selection is
	// pruned to that owner's documents so stale ids cannot delete documents
	// outside the page.
	if req.Owner != "" {
		docs, err := h.backend.OwnerDocuments(r.Context(), req.Owner)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadGateway)
			return
		}
		visible := make([]string, len(docs))
		for i, d := range docs {
			visible[i] = d.Slug
		}
		sel.Prune(visible)
	}

	if sel.Count() == 0 {
		http.Error(w, `{"error":"no documents selected"}`, http.StatusBadRequest)
		return
	}

	resp := bulkDeleteResponse{}
	for _, slug := range sel.IDs() {
		canEdit, err := h.backend.CanEditDocument(r.Context(), slug)
		if err != nil || !canEdit {
			if err != nil {
				log.Printf("admin: edit check for %s: %v", slug, err)
			}
			resp.Failed = append(resp.Failed, slug)
			continue
		}
		if err := h.backend.DeleteDocument(r.Context(), slug); err != nil {
			log.Printf("admin: deleting %s: %v", slug, err)
			resp.Failed = append(resp.Failed, slug)
			continue
		}
		resp.Deleted++
		if h.invalidate != nil {
			h.invalidate.InvalidateDocument(slug)
		}
	}
	sel.Clear()

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if h.audit == nil {
		writeJSON(w, http.StatusOK, []AuditEntry{})
		return
	}

	entries, err := h.audit.Recent(r.Context(), slug, 20)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.backend.AccessibleOwners(r.Context())
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadGateway)
		return
	}
	if owners == nil {
		owners = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"owners": owners})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
