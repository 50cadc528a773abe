// Package service holds the edit flows of the portfolio: it sanitizes
// submitted values, runs load-mutate-update against the repositories and
// applies one failure policy to every mutation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Skryldev/portfolio/db"
	"github.com/Skryldev/portfolio/models"
	"github.com/Skryldev/portfolio/repo"
)

// ErrPersistence marks a mutation the store did not carry out. The cause is
// wrapped alongside it.
var ErrPersistence = errors.New("service: could not save changes")

// Portfolio is the section service used by the web layer.
type Portfolio struct {
	r   *repo.Repositories
	log *slog.Logger
}

// New returns a Portfolio over r. A nil logger uses slog.Default().
func New(r *repo.Repositories, logger *slog.Logger) *Portfolio {
	if logger == nil {
		logger = slog.Default()
	}
	return &Portfolio{r: r, log: logger}
}

// ─────────────────────────────────────────────────────────────────────────────
// Index
// ─────────────────────────────────────────────────────────────────────────────

// Page is everything the public page shows.
type Page struct {
	About       *models.About
	Experiences []*models.Experience
	Education   []*models.Education
	Skills      []*models.Skill
	HardSkills  []*models.Skill
	SoftSkills  []*models.Skill
	Languages   []*models.Skill
	Projects    []*models.Project
	SocialLinks []*models.SocialLink
}

// Index loads every section. The returned Page is never nil: a section that
// could not be read is left empty and its error is joined into the result.
func (p *Portfolio) Index(ctx context.Context) (*Page, error) {
	page := &Page{}
	var errs []error
	keep := func(section string, err error) {
		if err == nil || db.IsNotFound(err) {
			return
		}
		p.log.WarnContext(ctx, "service: section unavailable",
			slog.String("section", section),
			slog.Any("error", err),
		)
		errs = append(errs, err)
	}

	var err error
	page.About, err = p.r.About.Single(ctx)
	keep("about", err)
	page.Experiences, err = p.r.Experiences.List(ctx)
	keep("experiences", err)
	page.Education, err = p.r.Education.List(ctx)
	keep("education", err)
	page.Skills, err = p.r.Skills.List(ctx)
	keep("skills", err)
	page.Projects, err = p.r.Projects.List(ctx)
	keep("projects", err)
	page.SocialLinks, err = p.r.SocialLinks.List(ctx)
	keep("social_links", err)

	for _, s := range page.Skills {
		switch s.Type {
		case models.SkillHard:
			page.HardSkills = append(page.HardSkills, s)
		case models.SkillSoft:
			page.SoftSkills = append(page.SoftSkills, s)
		case models.SkillLanguage:
			page.Languages = append(page.Languages, s)
		}
	}
	return page, errors.Join(errs...)
}

// ─────────────────────────────────────────────────────────────────────────────
// About
// ─────────────────────────────────────────────────────────────────────────────

// About returns the about section, or db.ErrNotFound when it was never
// provisioned.
func (p *Portfolio) About(ctx context.Context) (*models.About, error) {
	a, err := p.r.About.Single(ctx)
	if err != nil && !db.IsNotFound(err) {
		return nil, p.failed(ctx, "about", "get", err)
	}
	return a, err
}

// EditAbout overwrites the about section with in. in.ID is ignored.
func (p *Portfolio) EditAbout(ctx context.Context, in models.About) (*models.About, error) {
	a, err := p.About(ctx)
	if err != nil {
		return nil, err
	}
	in.ID = a.ID
	if err := p.r.About.Update(ctx, &in); err != nil {
		return nil, p.failed(ctx, "about", "update", err)
	}
	return &in, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Experience / Education / Project / SocialLink
// ─────────────────────────────────────────────────────────────────────────────

func (p *Portfolio) AddExperience(ctx context.Context, e *models.Experience) (int64, error) {
	return create(ctx, p, p.r.Experiences, e)
}

// EditExperience overwrites every field of experience id with in.
func (p *Portfolio) EditExperience(ctx context.Context, id int64, in models.Experience) error {
	return edit(ctx, p, p.r.Experiences, id, func(e *models.Experience) {
		in.ID = e.ID
		*e = in
	})
}

func (p *Portfolio) DeleteExperience(ctx context.Context, id int64) error {
	return remove(ctx, p, p.r.Experiences, id)
}

func (p *Portfolio) AddEducation(ctx context.Context, e *models.Education) (int64, error) {
	return create(ctx, p, p.r.Education, e)
}

func (p *Portfolio) EditEducation(ctx context.Context, id int64, in models.Education) error {
	return edit(ctx, p, p.r.Education, id, func(e *models.Education) {
		in.ID = e.ID
		*e = in
	})
}

func (p *Portfolio) DeleteEducation(ctx context.Context, id int64) error {
	return remove(ctx, p, p.r.Education, id)
}

func (p *Portfolio) AddProject(ctx context.Context, pr *models.Project) (int64, error) {
	return create(ctx, p, p.r.Projects, pr)
}

func (p *Portfolio) EditProject(ctx context.Context, id int64, in models.Project) error {
	return edit(ctx, p, p.r.Projects, id, func(pr *models.Project) {
		in.ID = pr.ID
		*pr = in
	})
}

func (p *Portfolio) DeleteProject(ctx context.Context, id int64) error {
	return remove(ctx, p, p.r.Projects, id)
}

func (p *Portfolio) AddSocialLink(ctx context.Context, s *models.SocialLink) (int64, error) {
	return create(ctx, p, p.r.SocialLinks, s)
}

func (p *Portfolio) EditSocialLink(ctx context.Context, id int64, in models.SocialLink) error {
	return edit(ctx, p, p.r.SocialLinks, id, func(s *models.SocialLink) {
		in.ID = s.ID
		*s = in
	})
}

func (p *Portfolio) DeleteSocialLink(ctx context.Context, id int64) error {
	return remove(ctx, p, p.r.SocialLinks, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Skill
// ─────────────────────────────────────────────────────────────────────────────

// SkillInput is a skill as submitted. Level is nil when the field was absent
// or not a number; Type is the raw submitted string.
type SkillInput struct {
	Name  string `form:"name"`
	Level *int   `form:"level"`
	Type  string `form:"type"`
}

// AddSkill creates a skill. The level is clamped to [0, 100] and an
// unrecognized type becomes "hard".
func (p *Portfolio) AddSkill(ctx context.Context, in SkillInput) (*models.Skill, error) {
	t, ok := models.ParseSkillType(in.Type)
	if !ok {
		t = models.SkillHard
	}
	s := &models.Skill{Name: in.Name, Level: models.ClampLevel(in.Level), Type: t}
	if _, err := create(ctx, p, p.r.Skills, s); err != nil {
		return nil, err
	}
	return s, nil
}

// EditSkill overwrites skill id. The level is clamped to [0, 100]; an
// unrecognized type keeps the stored one.
func (p *Portfolio) EditSkill(ctx context.Context, id int64, in SkillInput) error {
	return edit(ctx, p, p.r.Skills, id, func(s *models.Skill) {
		s.Name = in.Name
		s.Level = models.ClampLevel(in.Level)
		if t, ok := models.ParseSkillType(in.Type); ok {
			s.Type = t
		}
	})
}

func (p *Portfolio) DeleteSkill(ctx context.Context, id int64) error {
	return remove(ctx, p, p.r.Skills, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared flows
// ─────────────────────────────────────────────────────────────────────────────

func create[E any](ctx context.Context, p *Portfolio, t *repo.Table[E], e *E) (int64, error) {
	id, err := t.Create(ctx, e)
	if err != nil {
		return 0, p.failed(ctx, t.Name(), "create", err)
	}
	return id, nil
}

// edit loads row id, lets apply mutate it and writes the whole row back.
// A missing row yields db.ErrNotFound and nothing is written.
func edit[E any](ctx context.Context, p *Portfolio, t *repo.Table[E], id int64, apply func(*E)) error {
	e, err := t.Get(ctx, id)
	if db.IsNotFound(err) {
		return fmt.Errorf("service: %s %d: %w", t.Name(), id, db.ErrNotFound)
	}
	if err != nil {
		return p.failed(ctx, t.Name(), "get", err)
	}
	apply(e)
	if err := t.Update(ctx, e); err != nil {
		return p.failed(ctx, t.Name(), "update", err)
	}
	return nil
}

func remove[E any](ctx context.Context, p *Portfolio, t *repo.Table[E], id int64) error {
	if err := t.Delete(ctx, id); err != nil {
		return p.failed(ctx, t.Name(), "delete", err)
	}
	return nil
}

func (p *Portfolio) failed(ctx context.Context, entity, op string, err error) error {
	p.log.ErrorContext(ctx, "service: persistence failed",
		slog.String("entity", entity),
		slog.String("op", op),
		slog.Any("error", err),
	)
	return fmt.Errorf("%w: %s %s: %w", ErrPersistence, entity, op, err)
}
