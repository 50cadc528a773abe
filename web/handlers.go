package web

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Skryldev/portfolio/auth"
)

// ─────────────────────────────────────────────────────────────────────────────
// Public pages
// ─────────────────────────────────────────────────────────────────────────────

// handleIndex renders every section. When the store is unreachable the page
// is still served, with empty sections.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.Index(r.Context())
	if err != nil {
		s.log.WarnContext(r.Context(), "web: index rendered with missing sections", slog.Any("error", err))
	}

	body := map[string]any{
		"about":        nil,
		"experiences":  toMaps(page.Experiences),
		"education":    toMaps(page.Education),
		"skills":       toMaps(page.Skills),
		"hard_skills":  toMaps(page.HardSkills),
		"soft_skills":  toMaps(page.SoftSkills),
		"languages":    toMaps(page.Languages),
		"projects":     toMaps(page.Projects),
		"social_links": toMaps(page.SocialLinks),
		"is_logged_in": false,
		"current_user": nil,
	}
	if page.About != nil {
		body["about"] = page.About.ToMap()
	}
	if p, ok := auth.FromContext(r.Context()); ok {
		body["is_logged_in"] = true
		body["current_user"] = p.Username
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var f loginForm
	if fields, ok := s.bind(r, &f); !ok {
		writeJSON(w, http.StatusBadRequest, Flash{Category: "danger", Message: "Invalid login form.", Fields: fields})
		return
	}

	u, err := auth.Authenticate(r.Context(), s.users, f.Username, f.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		flash(w, http.StatusUnauthorized, "danger", "Incorrect username or password.")
		return
	case err != nil:
		s.log.ErrorContext(r.Context(), "web: login lookup failed", slog.Any("error", err))
		flash(w, http.StatusServiceUnavailable, "danger", "Sign-in is unavailable right now.")
		return
	}

	token, err := s.sessions.Issue(u.Username)
	if err != nil {
		s.log.ErrorContext(r.Context(), "web: issue session", slog.Any("error", err))
		flash(w, http.StatusInternalServerError, "danger", "Could not start the session.")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.sessions.TTL()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	flash(w, http.StatusOK, "success", "Signed in. Edit mode enabled.")
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	flash(w, http.StatusOK, "info", "Signed out.")
}

func (s *Server) handleDownloadCV(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.opts.UploadsDir, s.opts.CVFilename)
	if st, err := os.Stat(path); err != nil || st.IsDir() {
		s.log.WarnContext(r.Context(), "web: cv not available", slog.String("path", path))
		flash(w, http.StatusNotFound, "danger", "CV not found.")
		return
	}
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": s.opts.CVFilename}))
	http.ServeFile(w, r, path)
}

// ─────────────────────────────────────────────────────────────────────────────
// About
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) handleAboutGet(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.About(r.Context())
	if err != nil {
		s.failure(w, r, err, "loading", "about section", "About section")
		return
	}
	writeJSON(w, http.StatusOK, a.ToMap())
}

func (s *Server) handleAboutPost(w http.ResponseWriter, r *http.Request) {
	var f aboutForm
	if fields, ok := s.bind(r, &f); !ok {
		writeJSON(w, http.StatusBadRequest, Flash{Category: "danger", Message: "Please fix the highlighted fields.", Fields: fields})
		return
	}
	if _, err := s.svc.EditAbout(r.Context(), f.about()); err != nil {
		s.failure(w, r, err, "saving", "about section", "About section")
		return
	}
	flash(w, http.StatusOK, "success", "About section updated.")
}

// toMaps flattens records for the JSON body; the result is never nil.
func toMaps[E interface{ ToMap() map[string]any }](items []E) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, it.ToMap())
	}
	return out
}
