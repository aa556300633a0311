package resolver

import "github.com/ukidney/docchat/internal/upstream"

// fallbackDocuments is a built-in document table used when the upstream
// documents API is unreachable. It keeps the chat shell partially usable
// offline: titles and welcome copy render, while retrieval-backed answers
// remain unavailable until connectivity returns.
var fallbackDocuments = map[string]upstream.DocumentConfig{
	"kdigo-ckd-2024": {
		Slug:           "kdigo-ckd-2024",
		Title:          "KDIGO 2024 CKD Guideline",
		Category:       "Guidelines",
		Year:           2024,
		Owner:          "ukidney",
		WelcomeMessage: "the KDIGO 2024 Clinical Practice Guideline for CKD",
		Active:         true,
	},
	"anemia-in-ckd": {
		Slug:           "anemia-in-ckd",
		Title:          "Anemia in CKD",
		Category:       "Guidelines",
		Owner:          "ukidney",
		WelcomeMessage: "the anemia management guideline",
		Active:         true,
	},
	"transplant-handbook": {
		Slug:           "transplant-handbook",
		Title:          "Kidney Transplant Handbook",
		Category:       "Handbooks",
		Owner:          "ukidney",
		WelcomeMessage: "the kidney transplant handbook",
		Active:         true,
	},
}

// fallbackDocument returns the built-in configuration for slug, if any.
func fallbackDocument(slug string) (*upstream.DocumentConfig, bool) {
	doc, ok := fallbackDocuments[slug]
	if !ok {
		return nil, false
	}
	return &doc, true
}
