package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/hoteldistro/internal/chat"
	"github.com/dgallion1/hoteldistro/internal/config"
	"github.com/dgallion1/hoteldistro/internal/contact"
	"github.com/dgallion1/hoteldistro/internal/glossary"
	"github.com/dgallion1/hoteldistro/internal/pipeline"
	"github.com/dgallion1/hoteldistro/internal/registry"
	"github.com/dgallion1/hoteldistro/internal/render"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
)

// Deps are the services the HTTP layer fronts. Chat, Imports and Glossary
// may be nil; their routes then report the feature as unavailable.
type Deps struct {
	Chapters *registry.Registry
	Renderer *render.Renderer
	Glossary *glossary.Glossary
	Chat     *chat.Service
	Contact  *contact.Service
	Imports  *pipeline.Orchestrator
	Sessions sessions.Store
	Public   afero.Fs
}

// Server is the HTTP server for the textbook site.
type Server struct {
	router   chi.Router
	chapters *registry.Registry
	renderer *render.Renderer
	glossary *glossary.Glossary
	chat     *chat.Service
	contact  *contact.Service
	imports  *pipeline.Orchestrator
	sessions sessions.Store
	public   afero.Fs
	pages    *lru.Cache[string, *render.Page]
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) (*Server, error) {
	pages, err := lru.New[string, *render.Page](cfg.RenderCacheSize)
	if err != nil {
		return nil, err
	}
	if deps.Renderer == nil {
		deps.Renderer = render.New()
	}
	if deps.Sessions == nil {
		if deps.Sessions, err = NewSessionStore(cfg); err != nil {
			return nil, err
		}
	}
	if deps.Public == nil {
		deps.Public = afero.NewOsFs()
	}
	s := &Server{
		chapters: deps.Chapters,
		renderer: deps.Renderer,
		glossary: deps.Glossary,
		chat:     deps.Chat,
		contact:  deps.Contact,
		imports:  deps.Imports,
		sessions: deps.Sessions,
		public:   deps.Public,
		pages:    pages,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Admin endpoints carry their own bearer auth.
	if s.cfg.AdminEnabled() {
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(AuthMiddleware(s.cfg.AdminAPIKey, s.log))
			r.Post("/import", s.handleImport)
			r.Get("/import/{jobID}/status", s.handleImportStatus)
			r.Get("/stats/llm", s.handleLLMStats)
		})
	}

	// Reader-facing endpoints behind the site password.
	r.Group(func(r chi.Router) {
		r.Use(s.SiteGate)

		limit := func(route string) func(http.Handler) http.Handler {
			return RateLimit(route, s.cfg.TrustProxyHeaders, s.cfg.RateLimitInterval, s.cfg.RateLimitBurst, s.log)
		}

		r.With(limit("auth")).Post("/api/auth", s.handleLogin)
		r.Post("/api/auth/logout", s.handleLogout)

		r.Get("/api/chapters", s.handleListChapters)
		r.Get("/api/chapters/{slug}", s.handleGetChapter)
		r.Get("/api/chapters/{slug}/sections", s.handleChapterSections)
		r.Get("/api/glossary", s.handleGlossary)

		r.With(limit("chat")).Post("/api/chat", s.handleChat)
		r.With(limit("contact")).Post("/api/contact", s.handleContact)

		r.Get("/*", s.handleStatic)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
