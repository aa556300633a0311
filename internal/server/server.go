// Package server is the docchat edge gateway: it serves the widget page,
// proxies chat to the upstream RAG backend and hosts the admin API.
package server

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ukidney/docchat/internal/access"
	"github.com/ukidney/docchat/internal/admin"
	"github.com/ukidney/docchat/internal/chat"
	"github.com/ukidney/docchat/internal/config"
	"github.com/ukidney/docchat/internal/resolver"
	"github.com/ukidney/docchat/internal/session"
)

//go:embed static
var staticFS embed.FS

// Server wires the resolver, access guard and chat proxy behind one router.
type Server struct {
	cfg        config.Config
	resolver   *resolver.Resolver
	guard      *access.Guard
	chat       chat.Backend
	sessions   *session.Store
	router     chi.Router
	httpServer *http.Server

	// noticeShown makes the slug-entry hint on the empty shell one-shot for
	// the process lifetime.
	noticeMu    sync.Mutex
	noticeShown bool
}

// New creates a server. sessions may be nil when no auth session store is
// configured; adminHandler may be nil to disable the admin API.
func New(cfg config.Config, res *resolver.Resolver, guard *access.Guard, chatBackend chat.Backend, sessions *session.Store, adminHandler *admin.Handler) *Server {
	s := &Server{
		cfg:      cfg,
		resolver: res,
		guard:    guard,
		chat:     chatBackend,
		sessions: sessions,
	}
	s.router = s.buildRouter(adminHandler)
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter(adminHandler *admin.Handler) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS: the widget is embedded on partner pages, so the chat API must be
	// callable cross-origin.
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAllOrigins {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", s.handleView)
	r.Get("/view", s.handleView)
	r.Post("/view/passcode", s.handlePasscodeSubmit)

	staticRoot, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("static assets: %v", err))
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))))

	r.Post("/api/chat", s.handleChat)
	r.Post("/api/chat/stream", s.handleChatStream)
	r.Get("/ws/chat", s.handleChatSocket)

	if adminHandler != nil {
		adminHandler.RegisterRoutes(r)
	}

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// takeNotice reports whether the slug-entry notice should render, flipping
// the one-shot flag.
func (s *Server) takeNotice() bool {
	s.noticeMu.Lock()
	defer s.noticeMu.Unlock()
	if s.noticeShown {
		return false
	}
	s.noticeShown = true
	return true
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("docchat server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
