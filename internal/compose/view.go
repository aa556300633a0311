// Package compose builds the widget view model from validated document
// configurations: combined titles, welcome copy, covers, keyword cloud,
// downloads and owner branding.
package compose

import (
	"html/template"
	"strings"

	"github.com/ukidney/docchat/internal/markdown"
	"github.com/ukidney/docchat/internal/upstream"
)

// Tile is one cover card in the multi-document grid.
type Tile struct {
	Slug     string
	Title    string
	Subtitle string
	Cover    string
}

// Meta is the page metadata applied to the rendered view.
type Meta struct {
	Title       string
	Description string
}

// View is the fully composed widget page model. It is only ever built from
// documents whose access checks have all been granted.
type View struct {
	Title   string
	Welcome string
	Meta    Meta

	Multi bool
	Tiles []Tile

	// Intro is rendered for a single document always, and for multiple
	// documents only when every intro message is byte-identical.
	Intro     template.HTML
	ShowIntro bool

	Keywords  []upstream.Keyword
	Downloads []upstream.Download

	ShowPubMed bool
	PMID       string

	Branding     Branding
	ShowSelector bool

	// ShowBack renders the back affordance; OwnerURL, when set, links the
	// owner logo to the owner's catalog page.
	ShowBack bool
	OwnerURL string
}

// CombinedTitle joins document titles for the page header.
func CombinedTitle(docs []upstream.DocumentConfig) string {
	titles := make([]string, 0, len(docs))
	for _, d := range docs {
		titles = append(titles, d.Title)
	}
	return strings.Join(titles, " + ")
}

// CombinedWelcome joins per-document welcome fragments into one sentence.
func CombinedWelcome(docs []upstream.DocumentConfig) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.WelcomeMessage != "" {
			parts = append(parts, d.WelcomeMessage)
		}
	}
	return strings.Join(parts, " and ")
}

// sharedIntro returns the common intro message when all documents carry the
// exact same one, and "" otherwise. Exact string equality is deliberate:
// near-duplicates would read as a glitch when shown once for both documents.
func sharedIntro(docs []upstream.DocumentConfig) string {
	if len(docs) == 0 {
		return ""
	}
	first := docs[0].IntroMessage
	for _, d := range docs[1:] {
		if d.IntroMessage != first {
			return ""
		}
	}
	return first
}

// Build composes the view for one or more granted documents. branding comes
// from the first document's owner; placeholder substitutes for missing cover
// images.
func Build(docs []upstream.DocumentConfig, owner *upstream.OwnerInfo, placeholder string, selectorOverride *bool) View {
	v := View{
		Title:    CombinedTitle(docs),
		Welcome:  CombinedWelcome(docs),
		Multi:    len(docs) > 1,
		Branding: BrandingFor(owner),
	}

	v.Meta = Meta{
		Title:       v.Title,
		Description: "Chat with " + v.Welcome,
	}

	for _, d := range docs {
		cover := d.Cover
		if cover == "" {
			cover = placeholder
		}
		v.Tiles = append(v.Tiles, Tile{
			Slug:     d.Slug,
			Title:    d.Title,
			Subtitle: d.Subtitle,
			Cover:    cover,
		})
	}

	if intro := sharedIntro(docs); intro != "" {
		v.Intro = markdown.RenderOrPlain(intro)
		v.ShowIntro = true
	}

	if len(docs) == 1 {
		v.Keywords = docs[0].Keywords
		v.Downloads = docs[0].Downloads
	}

	if len(docs) > 0 {
		if pmid := docs[0].PMID(); pmid != "" {
			v.ShowPubMed = true
			v.PMID = pmid
		}
		v.ShowSelector = docs[0].ShowDocumentSelector
	}
	if selectorOverride != nil {
		v.ShowSelector = *selectorOverride
	}

	return v
}
