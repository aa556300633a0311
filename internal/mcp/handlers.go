package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ukidney/docchat/internal/access"
	"github.com/ukidney/docchat/internal/chat"
	"github.com/ukidney/docchat/internal/resolver"
	"github.com/ukidney/docchat/internal/upstream"
)

// handleListDocuments lists the documents of one owner.
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := request.RequireString("owner")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: owner"), nil
	}

	res, err := s.resolver.Resolve(ctx, resolver.Request{Owner: owner})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing documents failed: %v", err)), nil
	}
	if len(res.Documents) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No documents found for owner %q.", owner)), nil
	}

	// The listing honors the same per-document checks as the widget; entries
	// the caller cannot access are omitted.
	slugs := make([]string, len(res.Documents))
	for i, d := range res.Documents {
		slugs[i] = d.Slug
	}
	results, all := s.guard.CheckAll(ctx, slugs, "")
	if !all {
		visible := res.Documents[:0:0]
		for i, cr := range results {
			if cr.Granted() {
				visible = append(visible, res.Documents[i])
			}
		}
		res.Documents = visible
	}
	if len(res.Documents) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No accessible documents for owner %q.", owner)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d document(s) for %s:\n", len(res.Documents), owner))
	for _, d := range res.Documents {
		sb.WriteString(fmt.Sprintf("\n- %s: %s", d.Slug, d.Title))
		if d.Category != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", d.Category))
		}
		if d.Year != 0 {
			sb.WriteString(fmt.Sprintf(", %d", d.Year))
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetDocument returns one document's configuration as readable text.
func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := request.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: doc"), nil
	}
	passcode := request.GetString("passcode", "")

	if res := s.guard.Check(ctx, slug, passcode); !res.Granted() {
		return mcp.NewToolResultError(accessMessage(res)), nil
	}

	doc, err := s.resolver.Document(ctx, slug, false)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetching document failed: %v", err)), nil
	}
	if doc == nil {
		return mcp.NewToolResultError(fmt.Sprintf("No document found with slug %q.", slug)), nil
	}

	return mcp.NewToolResultText(formatDocument(doc)), nil
}

// handleAskDocument runs one question through the chat backend after checking
// access for every requested document.
func (s *Server) handleAskDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := request.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: doc"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}
	passcode := request.GetString("passcode", "")

	slugs := resolver.SplitSlugs(doc)
	if len(slugs) == 0 {
		return mcp.NewToolResultError("doc must name at least one document"), nil
	}

	results, all := s.guard.CheckAll(ctx, slugs, passcode)
	if !all {
		blocker, _ := access.FirstBlocker(results)
		return mcp.NewToolResultError(accessMessage(blocker)), nil
	}

	sess := chat.NewSession(s.chat, chat.Options{
		Docs:      slugs,
		Passcode:  passcode,
		Embedding: s.embedding,
		Model:     s.model,
	})
	answer, err := sess.Send(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
	}
	return mcp.NewToolResultText(answer), nil
}

func accessMessage(blocker access.Result) string {
	switch blocker.State {
	case access.StatePasscodeRequired:
		if blocker.Incorrect {
			return fmt.Sprintf("The passcode for %q was not recognized.", blocker.Slug)
		}
		return fmt.Sprintf("Document %q requires a passcode. Pass it via the passcode parameter.", blocker.Slug)
	case access.StateAuthRequired:
		return fmt.Sprintf("Document %q requires an authenticated session.", blocker.Slug)
	case access.StateNotFound:
		return fmt.Sprintf("Document %q does not exist.", blocker.Slug)
	case access.StateFailed:
		return fmt.Sprintf("The permission check for %q failed: %v", blocker.Slug, blocker.Err)
	default:
		return fmt.Sprintf("Access to %q is denied.", blocker.Slug)
	}
}

func formatDocument(d *upstream.DocumentConfig) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Slug: %s\nTitle: %s\n", d.Slug, d.Title))
	if d.Subtitle != "" {
		sb.WriteString(fmt.Sprintf("Subtitle: %s\n", d.Subtitle))
	}
	if d.Category != "" {
		sb.WriteString(fmt.Sprintf("Category: %s\n", d.Category))
	}
	if d.Year != 0 {
		sb.WriteString(fmt.Sprintf("Year: %d\n", d.Year))
	}
	if d.Owner != "" {
		sb.WriteString(fmt.Sprintf("Owner: %s\n", d.Owner))
	}
	if d.AccessLevel != "" {
		sb.WriteString(fmt.Sprintf("Access level: %s\n", d.AccessLevel))
	}
	if pmid := d.PMID(); pmid != "" {
		sb.WriteString(fmt.Sprintf("PubMed ID: %s\n", pmid))
	}
	if d.WelcomeMessage != "" {
		sb.WriteString(fmt.Sprintf("\nWelcome: %s\n", d.WelcomeMessage))
	}
	if d.IntroMessage != "" {
		sb.WriteString(fmt.Sprintf("\nIntro:\n%s\n", d.IntroMessage))
	}
	if len(d.Keywords) > 0 {
		terms := make([]string, 0, len(d.Keywords))
		for _, k := range d.Keywords {
			terms = append(terms, k.Term)
		}
		sb.WriteString(fmt.Sprintf("\nKeywords: %s\n", strings.Join(terms, ", ")))
	}
	if len(d.Downloads) > 0 {
		sb.WriteString("\nDownloads:\n")
		for _, dl := range d.Downloads {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", dl.Title, dl.URL))
		}
	}
	return sb.String()
}
