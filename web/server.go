// Package web is the HTTP surface of the portfolio: the public index, the
// operator session and the edit routes. Responses are JSON.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"

	"github.com/Skryldev/portfolio/auth"
	"github.com/Skryldev/portfolio/repo"
	"github.com/Skryldev/portfolio/service"
)

// sessionCookie carries the signed session token.
const sessionCookie = "session"

// Options wires a Server.
type Options struct {
	Portfolio *service.Portfolio
	Users     repo.UserRepository
	Sessions  *auth.Sessions

	// UploadsDir and CVFilename locate the file served by /download_cv.
	UploadsDir string
	CVFilename string

	// AllowedOrigins enables CORS for the listed origins. Empty disables it.
	AllowedOrigins []string

	// SecureCookie marks the session cookie Secure.
	SecureCookie bool

	Logger *slog.Logger
}

// Server routes requests to the portfolio service.
type Server struct {
	router   chi.Router
	handler  http.Handler
	svc      *service.Portfolio
	users    repo.UserRepository
	sessions *auth.Sessions
	validate *validator.Validate
	forms    *form.Decoder
	opts     Options
	log      *slog.Logger
}

// New builds the router.
func New(o Options) *Server {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:   chi.NewRouter(),
		svc:      o.Portfolio,
		users:    o.Users,
		sessions: o.Sessions,
		validate: newValidator(),
		forms:    newFormDecoder(),
		opts:     o,
		log:      logger,
	}
	s.routes()

	s.handler = s.router
	if len(o.AllowedOrigins) > 0 {
		s.handler = cors.New(cors.Options{
			AllowedOrigins:   o.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}).Handler(s.router)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLog)
	s.router.Use(s.loadSession)

	s.router.Get("/", s.handleIndex)
	s.router.Post("/login", s.handleLogin)
	s.router.Get("/logout", s.handleLogout)
	s.router.Get("/download_cv", s.handleDownloadCV)

	s.router.Route("/admin", func(r chi.Router) {
		r.Use(s.requireLogin)

		r.Get("/about", s.handleAboutGet)
		r.Post("/about", s.handleAboutPost)

		for _, sec := range s.sections() {
			r.Post("/"+sec.path+"/add", s.handleAdd(sec))
			r.Post("/"+sec.path+"/{id}/edit", s.handleEdit(sec))
			r.Post("/"+sec.path+"/{id}/delete", s.handleDelete(sec))
		}
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.InfoContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("dur", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// loadSession attaches the principal named by a valid session cookie. A
// missing or invalid cookie leaves the request anonymous.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err == nil && c.Value != "" {
			if p, err := s.sessions.Parse(c.Value); err == nil {
				r = r.WithContext(auth.WithPrincipal(r.Context(), p))
			} else {
				s.log.DebugContext(r.Context(), "web: ignoring session cookie", slog.Any("error", err))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			flash(w, http.StatusUnauthorized, "warning", "You must sign in to edit the portfolio.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Responses
// ─────────────────────────────────────────────────────────────────────────────

// Flash is the body of every mutating response.
type Flash struct {
	Category string            `json:"category"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	ID       int64             `json:"id,omitempty"`
}

func flash(w http.ResponseWriter, status int, category, message string) {
	writeJSON(w, status, Flash{Category: category, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
