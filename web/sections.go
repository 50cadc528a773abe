package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/form/v4"

	"github.com/Skryldev/portfolio/db"
	"github.com/Skryldev/portfolio/models"
	"github.com/Skryldev/portfolio/service"
)

// section binds the add/edit/delete routes of one record type to the
// service. add reports missing=true when a required field is empty; the
// store is not touched in that case.
type section struct {
	path  string // URL segment under /admin
	label string // lowercase noun used in messages
	title string

	add  func(ctx context.Context, v url.Values) (id int64, missing bool, err error)
	edit func(ctx context.Context, id int64, v url.Values) error
	del  func(ctx context.Context, id int64) error
}

// sectionOps are the service calls behind a section whose form decodes
// into T.
type sectionOps[T any] struct {
	missing func(*T) bool
	add     func(context.Context, *T) (int64, error)
	edit    func(context.Context, int64, T) error
	del     func(context.Context, int64) error
}

func formSection[T any](d *form.Decoder, path, label, title string, ops sectionOps[T]) section {
	return section{
		path: path, label: label, title: title,
		add: func(ctx context.Context, v url.Values) (int64, bool, error) {
			rec, err := decodeValues[T](d, v)
			if err != nil {
				return 0, false, err
			}
			if ops.missing(&rec) {
				return 0, true, nil
			}
			id, err := ops.add(ctx, &rec)
			return id, false, err
		},
		edit: func(ctx context.Context, id int64, v url.Values) error {
			rec, err := decodeValues[T](d, v)
			if err != nil {
				return err
			}
			return ops.edit(ctx, id, rec)
		},
		del: ops.del,
	}
}

func decodeValues[T any](d *form.Decoder, v url.Values) (T, error) {
	var rec T
	if err := d.Decode(&rec, v); err != nil {
		return rec, errors.Join(errMalformedForm, err)
	}
	return rec, nil
}

func (s *Server) sections() []section {
	svc := s.svc
	return []section{
		formSection(s.forms, "experience", "experience", "Experience", sectionOps[models.Experience]{
			missing: func(e *models.Experience) bool { return e.Role == "" || e.Company == "" },
			add:     svc.AddExperience,
			edit:    svc.EditExperience,
			del:     svc.DeleteExperience,
		}),
		formSection(s.forms, "education", "education record", "Education record", sectionOps[models.Education]{
			missing: func(e *models.Education) bool { return e.Institution == "" || e.Degree == "" },
			add:     svc.AddEducation,
			edit:    svc.EditEducation,
			del:     svc.DeleteEducation,
		}),
		formSection(s.forms, "skill", "skill", "Skill", sectionOps[service.SkillInput]{
			missing: func(in *service.SkillInput) bool { return in.Name == "" },
			add: func(ctx context.Context, in *service.SkillInput) (int64, error) {
				sk, err := svc.AddSkill(ctx, *in)
				if err != nil {
					return 0, err
				}
				return sk.ID, nil
			},
			edit: svc.EditSkill,
			del:  svc.DeleteSkill,
		}),
		formSection(s.forms, "project", "project", "Project", sectionOps[models.Project]{
			missing: func(p *models.Project) bool { return p.Name == "" },
			add:     svc.AddProject,
			edit:    svc.EditProject,
			del:     svc.DeleteProject,
		}),
		formSection(s.forms, "social", "social link", "Social link", sectionOps[models.SocialLink]{
			missing: func(l *models.SocialLink) bool { return l.Platform == "" || l.URL == "" },
			add:     svc.AddSocialLink,
			edit:    svc.EditSocialLink,
			del:     svc.DeleteSocialLink,
		}),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) handleAdd(sec section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := postForm(r)
		if err != nil {
			s.failure(w, r, errors.Join(errMalformedForm, err), "creating", sec.label, sec.title)
			return
		}
		id, missing, err := sec.add(r.Context(), v)
		switch {
		case missing:
			flash(w, http.StatusBadRequest, "danger", "Missing data to create the "+sec.label+".")
		case err != nil:
			s.failure(w, r, err, "creating", sec.label, sec.title)
		default:
			writeJSON(w, http.StatusOK, Flash{Category: "success", Message: sec.title + " added.", ID: id})
		}
	}
}

func (s *Server) handleEdit(sec section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			flash(w, http.StatusNotFound, "danger", sec.title+" not found.")
			return
		}
		v, err := postForm(r)
		if err == nil {
			err = sec.edit(r.Context(), id, v)
		} else {
			err = errors.Join(errMalformedForm, err)
		}
		if err != nil {
			s.failure(w, r, err, "updating", sec.label, sec.title)
			return
		}
		flash(w, http.StatusOK, "success", sec.title+" updated.")
	}
}

func (s *Server) handleDelete(sec section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			flash(w, http.StatusNotFound, "danger", sec.title+" not found.")
			return
		}
		if err := sec.del(r.Context(), id); err != nil {
			s.failure(w, r, err, "deleting", sec.label, sec.title)
			return
		}
		flash(w, http.StatusOK, "info", sec.title+" deleted.")
	}
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Failures
// ─────────────────────────────────────────────────────────────────────────────

// failureStatus maps a failed admin operation to its response status.
func failureStatus(err error) int {
	switch {
	case errors.Is(err, errMalformedForm):
		return http.StatusBadRequest
	case db.IsNotFound(err):
		return http.StatusNotFound
	case db.IsDuplicateKey(err):
		return http.StatusConflict
	case db.IsCheckViolation(err):
		return http.StatusUnprocessableEntity
	case db.IsConnectionFailed(err), db.IsDeadlock(err), db.IsTimeout(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// failure writes the flash for a failed admin operation. verb is the
// gerund used in the generic message ("creating", "updating").
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error, verb, label, title string) {
	status := failureStatus(err)
	msg := "There was an error " + verb + " the " + label + "."
	switch status {
	case http.StatusBadRequest:
		msg = "Malformed form body."
	case http.StatusNotFound:
		msg = title + " not found."
	case http.StatusConflict:
		msg = title + " already exists."
	case http.StatusUnprocessableEntity:
		msg = "The database rejected the " + label + "."
	case http.StatusServiceUnavailable:
		msg = "The database is unavailable, try again shortly."
	}
	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "web: "+verb+" "+label+" failed", slog.Any("error", err))
	}
	flash(w, status, "danger", msg)
}
