package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rsheridan/inkwell/internal/authn"
	"github.com/rsheridan/inkwell/internal/handler"
	"github.com/rsheridan/inkwell/internal/middleware"
	"github.com/rsheridan/inkwell/internal/ratelimit"
	"github.com/rsheridan/inkwell/internal/store"
	ws "github.com/rsheridan/inkwell/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	bookH          *handler.BookHandler
	seriesH        *handler.SeriesHandler
	worldH         *handler.WorldHandler
	characterH     *handler.CharacterHandler
	publicH        *handler.PublicHandler
	adminH         *handler.AdminHandler
	sessionStore   *store.SessionStore
	magicCodeStore *store.MagicCodeStore
	limiter        *ratelimit.Limiter
	logger         *slog.Logger
}

func New(db *sql.DB, mailer authn.Mailer, allowedEmails []string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	limiter := ratelimit.New()

	bookStore := store.NewBookStore(db)
	seriesStore := store.NewSeriesStore(db)
	worldStore := store.NewWorldStore(db)
	characterStore := store.NewCharacterStore(db)
	auditStore := store.NewAuditStore(db)
	exportStateStore := store.NewExportStateStore(db)

	sessionStore := store.NewSessionStore(db)
	magicCodeStore := store.NewMagicCodeStore(db)

	authSvc := authn.New(magicCodeStore, sessionStore, limiter, mailer, authn.Config{
		AllowedEmails: allowedEmails,
	}, logger.With("component", "authn"))

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(authSvc, logger.With("component", "auth")),
		bookH:          handler.NewBookHandler(bookStore, hub, logger.With("component", "book")),
		seriesH:        handler.NewSeriesHandler(seriesStore, hub, logger.With("component", "series")),
		worldH:         handler.NewWorldHandler(worldStore, hub, logger.With("component", "world")),
		characterH:     handler.NewCharacterHandler(characterStore, hub, logger.With("component", "character")),
		publicH:        handler.NewPublicHandler(bookStore, seriesStore, worldStore, characterStore, logger.With("component", "public")),
		adminH:         handler.NewAdminHandler(auditStore, exportStateStore, logger.With("component", "admin")),
		sessionStore:   sessionStore,
		magicCodeStore: magicCodeStore,
		limiter:        limiter,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// MagicCodeStore returns the magic code store for cleanup tasks.
func (s *Server) MagicCodeStore() *store.MagicCodeStore {
	return s.magicCodeStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *ratelimit.Limiter {
	return s.limiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Auth routes (no session required)
	outerMux.HandleFunc("POST /api/auth/request-code", s.authH.RequestCode)
	outerMux.HandleFunc("POST /api/auth/verify-code", s.authH.VerifyCode)
	outerMux.HandleFunc("POST /api/auth/logout", s.authH.Logout)

	// Public read-only routes
	outerMux.HandleFunc("GET /api/public/books", s.publicH.ListBooks)
	outerMux.HandleFunc("GET /api/public/books/{slug}", s.publicH.GetBook)
	outerMux.HandleFunc("GET /api/public/series", s.publicH.ListSeries)
	outerMux.HandleFunc("GET /api/public/series/{slug}", s.publicH.GetSeries)
	outerMux.HandleFunc("GET /api/public/worlds", s.publicH.ListWorlds)
	outerMux.HandleFunc("GET /api/public/worlds/{slug}", s.publicH.GetWorld)
	outerMux.HandleFunc("GET /api/public/characters", s.publicH.ListCharacters)
	outerMux.HandleFunc("GET /api/public/characters/{slug}", s.publicH.GetCharacter)

	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Admin routes — wrapped with RequireSession middleware
	adminMux := http.NewServeMux()
	s.registerAdminRoutes(adminMux)

	authMiddleware := middleware.RequireSession(s.sessionStore)
	outerMux.Handle("/api/admin/", http.StripPrefix("/api/admin", authMiddleware(adminMux)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerAdminRoutes(mux *http.ServeMux) {
	// Book routes
	mux.HandleFunc("GET /books", s.bookH.List)
	mux.HandleFunc("POST /books", s.bookH.Create)
	mux.HandleFunc("GET /books/{slug}", s.bookH.Get)
	mux.HandleFunc("PUT /books/{slug}", s.bookH.Update)
	mux.HandleFunc("DELETE /books/{slug}", s.bookH.Delete)
	mux.HandleFunc("POST /books/{slug}/publish", s.bookH.Publish)

	// Series routes
	mux.HandleFunc("GET /series", s.seriesH.List)
	mux.HandleFunc("POST /series", s.seriesH.Create)
	mux.HandleFunc("GET /series/{slug}", s.seriesH.Get)
	mux.HandleFunc("PUT /series/{slug}", s.seriesH.Update)
	mux.HandleFunc("DELETE /series/{slug}", s.seriesH.Delete)
	mux.HandleFunc("POST /series/{slug}/publish", s.seriesH.Publish)

	// World routes
	mux.HandleFunc("GET /worlds", s.worldH.List)
	mux.HandleFunc("POST /worlds", s.worldH.Create)
	mux.HandleFunc("GET /worlds/{slug}", s.worldH.Get)
	mux.HandleFunc("PUT /worlds/{slug}", s.worldH.Update)
	mux.HandleFunc("DELETE /worlds/{slug}", s.worldH.Delete)
	mux.HandleFunc("POST /worlds/{slug}/publish", s.worldH.Publish)

	// Character routes
	mux.HandleFunc("GET /characters", s.characterH.List)
	mux.HandleFunc("POST /characters", s.characterH.Create)
	mux.HandleFunc("GET /characters/{slug}", s.characterH.Get)
	mux.HandleFunc("PUT /characters/{slug}", s.characterH.Update)
	mux.HandleFunc("DELETE /characters/{slug}", s.characterH.Delete)
	mux.HandleFunc("POST /characters/{slug}/publish", s.characterH.Publish)

	// Audit log and export state
	mux.HandleFunc("GET /audit", s.adminH.ListAudit)
	mux.HandleFunc("GET /export-state", s.adminH.GetExportState)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "ws_handler")))
}
