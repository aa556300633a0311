package admin

import (
	"net/url"

	"github.com/ukidney/docchat/internal/upstream"
)

// Filters narrows the admin document list. Zero values mean "no filter".
type Filters struct {
	Status     string // "active" or "inactive"
	Visibility string // matches access_level
	Category   string
	Owner      string
}

// FiltersFromQuery reads filter parameters from the request query.
func FiltersFromQuery(q url.Values) Filters {
	return Filters{
		Status:     q.Get("status"),
		Visibility: q.Get("visibility"),
		Category:   q.Get("category"),
		Owner:      q.Get("owner"),
	}
}

// Apply returns the documents matching every set filter, preserving order.
func (f Filters) Apply(docs []upstream.DocumentConfig) []upstream.DocumentConfig {
	out := make([]upstream.DocumentConfig, 0, len(docs))
	for _, d := range docs {
		if !f.matches(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (f Filters) matches(d upstream.DocumentConfig) bool {
	switch f.Status {
	case "active":
		if !d.Active {
			return false
		}
	case "inactive":
		if d.Active {
			return false
		}
	}

	if f.Visibility != "" && d.AccessLevel != f.Visibility {
		return false
	}
	if f.Category != "" && d.Category != f.Category {
		return false
	}
	if f.Owner != "" && d.Owner != f.Owner {
		return false
	}
	return true
}
