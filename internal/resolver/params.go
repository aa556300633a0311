package resolver

import (
	"net/url"
	"strings"
)

// Request is the normalized form of a widget page request, parsed from the
// incoming query string.
type Request struct {
	Docs      []string
	Owner     string
	Passcode  string
	Embedding string
	Model     string
	Method    string

	Refresh          bool
	Debug            bool
	BackButton       bool
	OwnerLink        bool
	DocumentSelector *bool // nil means "use the document's own setting"
}

// ParseQuery normalizes the recognized query parameters. The doc parameter
// accepts multiple slugs joined by "+"; after URL decoding that separator may
// arrive as a literal plus or as a space, so both are accepted. Empty
// segments are dropped and surrounding whitespace trimmed.
func ParseQuery(q url.Values) Request {
	req := Request{
		Docs:      SplitSlugs(q.Get("doc")),
		Owner:     strings.TrimSpace(q.Get("owner")),
		Passcode:  q.Get("passcode"),
		Embedding: strings.TrimSpace(q.Get("embedding")),
		Model:     strings.TrimSpace(q.Get("model")),
		Method:    strings.TrimSpace(q.Get("method")),

		Refresh:    parseBool(q.Get("refresh")),
		Debug:      parseBool(q.Get("debug")),
		BackButton: parseBool(q.Get("back-button")),
		OwnerLink:  parseBool(q.Get("owner_link")),
	}

	if v := q.Get("document_selector"); v != "" {
		b := parseBool(v)
		req.DocumentSelector = &b
	}

	return req
}

// SplitSlugs splits a multi-document parameter into individual slugs,
// dropping duplicates while keeping first-seen order.
func SplitSlugs(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '+' || r == ' ' || r == '\t'
	})
	slugs := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		slugs = append(slugs, p)
	}
	return slugs
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
