package resolver

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/ukidney/docchat/internal/cache"
	"github.com/ukidney/docchat/internal/upstream"
)

// Backend is the subset of the upstream client the resolver needs.
type Backend interface {
	Documents(ctx context.Context, slugs []string) ([]upstream.DocumentConfig, error)
	OwnerDocuments(ctx context.Context, owner string) ([]upstream.DocumentConfig, error)
	Owners(ctx context.Context) (map[string]upstream.OwnerInfo, error)
}

// Resolver turns normalized requests into validated document configurations,
// reading through the TTL cache and falling back to the built-in table when
// the upstream API is unreachable.
type Resolver struct {
	backend  Backend
	cache    *cache.Store
	docTTL   time.Duration
	ownerTTL time.Duration

	// gen counts Resolve calls. A resolution carries the generation it was
	// started with; once a newer call begins, older in-flight results are
	// stale and must not overwrite newer state.
	gen atomic.Uint64
}

// New creates a resolver. docTTL and ownerTTL bound the cache windows for
// document and owner lookups respectively.
func New(backend Backend, store *cache.Store, docTTL, ownerTTL time.Duration) *Resolver {
	return &Resolver{
		backend:  backend,
		cache:    store,
		docTTL:   docTTL,
		ownerTTL: ownerTTL,
	}
}

// Resolution is the outcome of resolving one request: the subset of
// requested documents that exist, in request order.
type Resolution struct {
	Documents  []upstream.DocumentConfig
	Generation uint64
}

// Latest reports whether res is still the newest resolution. Stale
// resolutions are discarded by the caller instead of overwriting the view
// produced by a newer request.
func (r *Resolver) Latest(res *Resolution) bool {
	return res != nil && res.Generation == r.gen.Load()
}

// Resolve fetches every requested document. Unknown slugs are dropped with a
// warning; the view proceeds with whatever validated. When no doc slugs are
// given but an owner is, the owner's full document list is resolved instead.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	gen := r.gen.Add(1)

	if len(req.Docs) == 0 && req.Owner != "" {
		docs, err := r.ownerDocuments(ctx, req.Owner, req.Refresh)
		if err != nil {
			return nil, err
		}
		return &Resolution{Documents: docs, Generation: gen}, nil
	}

	docs := make([]upstream.DocumentConfig, 0, len(req.Docs))
	for _, slug := range req.Docs {
		doc, err := r.Document(ctx, slug, req.Refresh)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			log.Printf("resolver: unknown document %q, skipping", slug)
			continue
		}
		docs = append(docs, *doc)
	}

	return &Resolution{Documents: docs, Generation: gen}, nil
}

// Document returns the configuration for slug, or nil when the document does
// not exist. Results are cached; forceRefresh bypasses the cache window.
// Upstream transport failure degrades to the built-in fallback table.
func (r *Resolver) Document(ctx context.Context, slug string, forceRefresh bool) (*upstream.DocumentConfig, error) {
	key := "doc:" + slug

	if !forceRefresh {
		var cached upstream.DocumentConfig
		if r.cache.Get(key, r.docTTL, &cached) {
			return &cached, nil
		}
	}

	docs, err := r.backend.Documents(ctx, []string{slug})
	if err != nil {
		if doc, ok := fallbackDocument(slug); ok {
			log.Printf("resolver: upstream unreachable, using fallback for %q: %v", slug, err)
			return doc, nil
		}
		return nil, err
	}

	if len(docs) == 0 {
		return nil, nil
	}

	doc := docs[0]
	if err := r.cache.Put(key, doc); err != nil {
		log.Printf("resolver: caching %q: %v", slug, err)
	}
	return &doc, nil
}

// DocumentExists reports whether slug resolves to a known document.
func (r *Resolver) DocumentExists(ctx context.Context, slug string) bool {
	doc, err := r.Document(ctx, slug, false)
	return err == nil && doc != nil
}

// OwnerBranding returns the branding record for ownerSlug, or nil when the
// owner is unrecognized. The full owners table is cached as one entry.
func (r *Resolver) OwnerBranding(ctx context.Context, ownerSlug string) (*upstream.OwnerInfo, error) {
	owners, err := r.owners(ctx)
	if err != nil {
		return nil, err
	}
	info, ok := owners[ownerSlug]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func (r *Resolver) owners(ctx context.Context) (map[string]upstream.OwnerInfo, error) {
	var cached map[string]upstream.OwnerInfo
	if r.cache.Get("owners", r.ownerTTL, &cached) {
		return cached, nil
	}

	owners, err := r.backend.Owners(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Put("owners", owners); err != nil {
		log.Printf("resolver: caching owners: %v", err)
	}
	return owners, nil
}

func (r *Resolver) ownerDocuments(ctx context.Context, owner string, forceRefresh bool) ([]upstream.DocumentConfig, error) {
	key := "ownerdocs:" + owner

	if !forceRefresh {
		var cached []upstream.DocumentConfig
		if r.cache.Get(key, r.docTTL, &cached) {
			return cached, nil
		}
	}

	docs, err := r.backend.OwnerDocuments(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Put(key, docs); err != nil {
		log.Printf("resolver: caching owner docs %q: %v", owner, err)
	}
	return docs, nil
}

// InvalidateDocument drops the cached entry for slug, forcing the next read
// to refetch. Called after an admin edit.
func (r *Resolver) InvalidateDocument(slug string) {
	r.cache.Invalidate("doc:" + slug)
	r.cache.InvalidatePrefix("ownerdocs:")
}
