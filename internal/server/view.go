package server

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ukidney/docchat/internal/access"
	"github.com/ukidney/docchat/internal/compose"
	"github.com/ukidney/docchat/internal/resolver"
	"github.com/ukidney/docchat/internal/upstream"
)

// handleView renders the widget page: empty shell without a document, an
// access page when any check blocks, the composed widget otherwise.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	req := resolver.ParseQuery(r.URL.Query())

	if len(req.Docs) == 0 && req.Owner == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := compose.RenderEmpty(w, compose.EmptyView{ShowNotice: s.takeNotice()}); err != nil {
			log.Printf("server: rendering empty shell: %v", err)
		}
		return
	}

	start := time.Now()
	ctx := r.Context()

	if len(req.Docs) > 0 {
		results, all := s.guard.CheckAll(ctx, req.Docs, req.Passcode)
		if !all {
			blocker, _ := access.FirstBlocker(results)
			s.renderAccessPage(w, r, req, blocker)
			return
		}
	}

	res, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		log.Printf("server: resolving %v: %v", req.Docs, err)
		s.renderErrorPage(w, http.StatusBadGateway, compose.ErrorView{
			Heading: "Service Unavailable",
			Message: "The document service could not be reached. Please try again shortly.",
		})
		return
	}
	if !s.resolver.Latest(res) {
		log.Printf("server: resolution for %v superseded by a newer request", req.Docs)
	}

	if len(req.Docs) == 0 && len(res.Documents) > 0 {
		// Owner catalogs run the same per-document checks as direct slug
		// requests; documents the caller cannot see are omitted from the view.
		slugs := make([]string, len(res.Documents))
		for i, d := range res.Documents {
			slugs[i] = d.Slug
		}
		results, all := s.guard.CheckAll(ctx, slugs, req.Passcode)
		if !all {
			granted := make([]upstream.DocumentConfig, 0, len(res.Documents))
			for i, cr := range results {
				if cr.Granted() {
					granted = append(granted, res.Documents[i])
					continue
				}
				log.Printf("server: omitting %q from owner view: %s", cr.Slug, cr.State)
			}
			if len(granted) == 0 {
				blocker, _ := access.FirstBlocker(results)
				s.renderAccessPage(w, r, req, blocker)
				return
			}
			res.Documents = granted
		}
	}

	if len(res.Documents) == 0 {
		s.renderErrorPage(w, http.StatusNotFound, compose.ErrorView{
			Heading: "Document Not Found",
			Message: "None of the requested documents exist.",
		})
		return
	}

	ownerSlug := req.Owner
	if ownerSlug == "" {
		ownerSlug = res.Documents[0].Owner
	}
	var owner *upstream.OwnerInfo
	if ownerSlug != "" {
		owner, err = s.resolver.OwnerBranding(ctx, ownerSlug)
		if err != nil {
			// Branding is cosmetic; an unreachable owner table falls back to
			// the unbranded default.
			log.Printf("server: owner branding for %q: %v", ownerSlug, err)
			owner = nil
		}
	}

	view := compose.Build(res.Documents, owner, s.cfg.PlaceholderImage, req.DocumentSelector)
	view.ShowBack = req.BackButton
	if req.OwnerLink && ownerSlug != "" {
		view.OwnerURL = "/view?owner=" + url.QueryEscape(ownerSlug)
	}
	log.Printf("server: composed %d document(s) in %s", len(res.Documents), time.Since(start).Round(time.Millisecond))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := compose.Render(w, view); err != nil {
		log.Printf("server: rendering widget: %v", err)
	}
}

// handlePasscodeSubmit validates a submitted passcode and, on success,
// redirects back to the view with the passcode appended so subsequent loads
// skip the prompt.
func (s *Server) handlePasscodeSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	doc := strings.TrimSpace(r.PostFormValue("doc"))
	passcode := r.PostFormValue("passcode")

	slugs := resolver.SplitSlugs(doc)
	if len(slugs) == 0 {
		http.Redirect(w, r, "/view", http.StatusSeeOther)
		return
	}

	results, all := s.guard.CheckAll(r.Context(), slugs, passcode)
	if !all {
		blocker, _ := access.FirstBlocker(results)
		s.renderAccessPage(w, r, resolver.Request{Docs: slugs, Passcode: passcode}, blocker)
		return
	}

	target, err := access.PasscodeRedirect("/view?doc="+url.QueryEscape(doc), passcode)
	if err != nil {
		log.Printf("server: building passcode redirect for %q: %v", doc, err)
		target = "/view?doc=" + url.QueryEscape(doc)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// renderAccessPage maps a blocking access result onto the denial page for its
// state.
func (s *Server) renderAccessPage(w http.ResponseWriter, r *http.Request, req resolver.Request, blocker access.Result) {
	doc := strings.Join(req.Docs, "+")

	switch blocker.State {
	case access.StatePasscodeRequired:
		msg := "This document is protected. Enter the passcode to continue."
		if blocker.Incorrect {
			msg = "That passcode was not recognized. Please try again."
		}
		s.renderErrorPage(w, http.StatusUnauthorized, compose.ErrorView{
			Heading:           "Passcode Required",
			Message:           msg,
			Doc:               doc,
			ShowPasscodeForm:  true,
			PasscodeIncorrect: blocker.Incorrect,
		})
	case access.StateAuthRequired:
		if s.sessions != nil {
			// Remember where the user was headed so login can send them back.
			returnURL := r.URL.RequestURI()
			if r.Method != http.MethodGet {
				returnURL = "/view?doc=" + url.QueryEscape(doc)
			}
			if err := s.sessions.StashReturnURL(returnURL); err != nil {
				log.Printf("server: stashing return URL: %v", err)
			}
		}
		s.renderErrorPage(w, http.StatusUnauthorized, compose.ErrorView{
			Heading:  "Sign In Required",
			Message:  "You need to sign in to view this document.",
			Doc:      doc,
			LoginURL: strings.TrimRight(s.cfg.UpstreamURL, "/") + "/login",
		})
	case access.StateNotFound:
		s.renderErrorPage(w, http.StatusNotFound, compose.ErrorView{
			Heading: "Document Not Found",
			Message: "The document \"" + blocker.Slug + "\" does not exist.",
		})
	case access.StateFailed:
		s.renderErrorPage(w, http.StatusServiceUnavailable, compose.ErrorView{
			Heading: "Access Check Failed",
			Message: "The permission service could not be reached. Please try again shortly.",
		})
	default:
		s.renderErrorPage(w, http.StatusForbidden, compose.ErrorView{
			Heading: "Access Denied",
			Message: "You do not have permission to view this document.",
		})
	}
}

func (s *Server) renderErrorPage(w http.ResponseWriter, status int, v compose.ErrorView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := compose.RenderError(w, v); err != nil {
		log.Printf("server: rendering error page: %v", err)
	}
}
