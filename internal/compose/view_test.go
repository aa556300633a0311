package compose

import (
	"strings"
	"testing"

	"github.com/ukidney/docchat/internal/upstream"
)

func TestCombinedTitle(t *testing.T) {
	docs := []upstream.DocumentConfig{
		{Title: "CKD Guideline"},
		{Title: "Anemia Guideline"},
	}
	if got := CombinedTitle(docs); got != "CKD Guideline + Anemia Guideline" {
		t.Errorf("combined title: got %q", got)
	}
}

func TestCombinedWelcome(t *testing.T) {
	docs := []upstream.DocumentConfig{
		{WelcomeMessage: "the CKD guideline"},
		{WelcomeMessage: "the anemia guideline"},
	}
	if got := CombinedWelcome(docs); got != "the CKD guideline and the anemia guideline" {
		t.Errorf("combined welcome: got %q", got)
	}
}

func TestSharedIntroShownWhenIdentical(t *testing.T) {
	docs := []upstream.DocumentConfig{
		{Slug: "a", IntroMessage: "Welcome to the corpus."},
		{Slug: "b", IntroMessage: "Welcome to the corpus."},
	}
	v := Build(docs, nil, "/ph.png", nil)
	if !v.ShowIntro {
		t.Errorf("identical intros must be shown")
	}
}

func TestSharedIntroOmittedWhenDistinct(t *testing.T) {
	docs := []upstream.DocumentConfig{
		{Slug: "a", IntroMessage: "Welcome to A."},
		{Slug: "b", IntroMessage: "Welcome to B."},
	}
	v := Build(docs, nil, "/ph.png", nil)
	if v.ShowIntro {
		t.Errorf("distinct intros must be omitted")
	}
}

func TestCoverPlaceholder(t *testing.T) {
	docs := []upstream.DocumentConfig{{Slug: "a", Title: "A"}}
	v := Build(docs, nil, "/static/img/placeholder.png", nil)
	if len(v.Tiles) != 1 || v.Tiles[0].Cover != "/static/img/placeholder.png" {
		t.Errorf("placeholder not applied: %+v", v.Tiles)
	}

	docs[0].Cover = "/covers/a.jpg"
	v = Build(docs, nil, "/static/img/placeholder.png", nil)
	if v.Tiles[0].Cover != "/covers/a.jpg" {
		t.Errorf("real cover overridden: %+v", v.Tiles)
	}
}

func TestKeywordsAndDownloadsSingleOnly(t *testing.T) {
	single := []upstream.DocumentConfig{{
		Slug:      "a",
		Keywords:  []upstream.Keyword{{Term: "ckd", Weight: 3}},
		Downloads: []upstream.Download{{Title: "PDF", URL: "/a.pdf"}},
	}}
	v := Build(single, nil, "/ph.png", nil)
	if len(v.Keywords) != 1 || len(v.Downloads) != 1 {
		t.Errorf("single doc should carry keywords and downloads: %+v", v)
	}

	multi := append(single, upstream.DocumentConfig{Slug: "b"})
	v = Build(multi, nil, "/ph.png", nil)
	if len(v.Keywords) != 0 || len(v.Downloads) != 0 {
		t.Errorf("multi view should omit per-doc keywords/downloads")
	}
	if !v.Multi {
		t.Errorf("multi flag not set")
	}
}

func TestPubMedAffordance(t *testing.T) {
	docs := []upstream.DocumentConfig{{
		Slug:     "a",
		Metadata: map[string]string{"pmid": "12345678"},
	}}
	v := Build(docs, nil, "/ph.png", nil)
	if !v.ShowPubMed || v.PMID != "12345678" {
		t.Errorf("pubmed affordance: %+v", v)
	}

	docs[0].Metadata = nil
	v = Build(docs, nil, "/ph.png", nil)
	if v.ShowPubMed {
		t.Errorf("pubmed shown without pmid")
	}
}

func TestSelectorOverride(t *testing.T) {
	docs := []upstream.DocumentConfig{{Slug: "a", ShowDocumentSelector: true}}

	v := Build(docs, nil, "/ph.png", nil)
	if !v.ShowSelector {
		t.Errorf("document setting should apply when no override")
	}

	off := false
	v = Build(docs, nil, "/ph.png", &off)
	if v.ShowSelector {
		t.Errorf("override false should win")
	}
}

func TestRenderWidget(t *testing.T) {
	docs := []upstream.DocumentConfig{{
		Slug:           "a",
		Title:          "CKD Guideline",
		WelcomeMessage: "the CKD guideline",
		IntroMessage:   "This assistant answers from the **2024 guideline**.",
	}}
	owner := &upstream.OwnerInfo{Slug: "ukidney", Name: "UKidney", Logo: "/logos/ukidney.svg", AccentColor: "#1a73e8"}

	var sb strings.Builder
	if err := Render(&sb, Build(docs, owner, "/ph.png", nil)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, "CKD Guideline") {
		t.Errorf("title missing")
	}
	if !strings.Contains(out, "/logos/ukidney.svg") {
		t.Errorf("owner logo missing")
	}
	if !strings.Contains(out, "--accent: #1a73e8") {
		t.Errorf("accent variable missing: %s", out[:200])
	}
	if !strings.Contains(out, "<strong>2024 guideline</strong>") {
		t.Errorf("intro markdown not rendered")
	}
}

func TestRenderEmptyNotice(t *testing.T) {
	var sb strings.Builder
	if err := RenderEmpty(&sb, EmptyView{ShowNotice: true}); err != nil {
		t.Fatalf("RenderEmpty failed: %v", err)
	}
	if !strings.Contains(sb.String(), "Please specify a document") {
		t.Errorf("notice missing")
	}

	sb.Reset()
	RenderEmpty(&sb, EmptyView{ShowNotice: false})
	if strings.Contains(sb.String(), "Please specify a document") {
		t.Errorf("notice shown when suppressed")
	}
}
