package repo

import (
	"context"

	"github.com/Skryldev/portfolio/db"
	"github.com/Skryldev/portfolio/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Section schemas: table, columns and ordering of every record type
// ─────────────────────────────────────────────────────────────────────────────

// Ties in every ordering fall back to id, i.e. insertion order. Orderings
// are spelled out so MySQL, PostgreSQL and SQLite agree.
const (
	// yearOrder lists the newest start year first and undated rows last.
	yearOrder = "year_start IS NULL, year_start DESC, id"
	// skillOrder groups skills hard, soft, language, strongest first.
	skillOrder = "CASE type WHEN 'hard' THEN 0 WHEN 'soft' THEN 1 ELSE 2 END, level DESC, id"
)

var AboutSchema = Schema[models.About]{
	Table:   "about",
	Columns: []string{"full_name", "title", "summary", "email", "phone", "address", "profile_image"},
	Key:     func(a *models.About) *int64 { return &a.ID },
	Fields: func(a *models.About) []any {
		return []any{text{&a.FullName}, text{&a.Title}, text{&a.Summary}, text{&a.Email}, text{&a.Phone}, text{&a.Address}, text{&a.ProfileImage}}
	},
	Values: func(a *models.About) []any {
		return []any{a.FullName, a.Title, a.Summary, a.Email, a.Phone, a.Address, a.ProfileImage}
	},
}

var ExperienceSchema = Schema[models.Experience]{
	Table:   "experiences",
	Columns: []string{"role", "company", "description", "year_start", "year_end", "is_current"},
	OrderBy: yearOrder,
	Key:     func(e *models.Experience) *int64 { return &e.ID },
	Fields: func(e *models.Experience) []any {
		return []any{text{&e.Role}, text{&e.Company}, text{&e.Description}, &e.YearStart, &e.YearEnd, flag{&e.IsCurrent}}
	},
	Values: func(e *models.Experience) []any {
		return []any{e.Role, e.Company, e.Description, e.YearStart, e.YearEnd, boolInt(e.IsCurrent)}
	},
}

var EducationSchema = Schema[models.Education]{
	Table:   "education",
	Columns: []string{"institution", "degree", "description", "year_start", "year_end"},
	OrderBy: yearOrder,
	Key:     func(e *models.Education) *int64 { return &e.ID },
	Fields: func(e *models.Education) []any {
		return []any{text{&e.Institution}, text{&e.Degree}, text{&e.Description}, &e.YearStart, &e.YearEnd}
	},
	Values: func(e *models.Education) []any {
		return []any{e.Institution, e.Degree, e.Description, e.YearStart, e.YearEnd}
	},
}

var SkillSchema = Schema[models.Skill]{
	Table:   "skills",
	Columns: []string{"name", "level", "type"},
	OrderBy: skillOrder,
	Key:     func(s *models.Skill) *int64 { return &s.ID },
	Fields: func(s *models.Skill) []any {
		return []any{text{&s.Name}, &s.Level, &s.Type}
	},
	Values: func(s *models.Skill) []any {
		return []any{s.Name, s.Level, string(s.Type)}
	},
}

var ProjectSchema = Schema[models.Project]{
	Table:   "projects",
	Columns: []string{"name", "date_label", "description", "link", "image"},
	OrderBy: "id DESC",
	Key:     func(p *models.Project) *int64 { return &p.ID },
	Fields: func(p *models.Project) []any {
		return []any{text{&p.Name}, text{&p.DateLabel}, text{&p.Description}, text{&p.Link}, text{&p.Image}}
	},
	Values: func(p *models.Project) []any {
		return []any{p.Name, p.DateLabel, p.Description, p.Link, p.Image}
	},
}

var SocialLinkSchema = Schema[models.SocialLink]{
	Table:   "social_links",
	Columns: []string{"platform", "url", "icon_class"},
	OrderBy: "id",
	Key:     func(s *models.SocialLink) *int64 { return &s.ID },
	Fields: func(s *models.SocialLink) []any {
		return []any{text{&s.Platform}, text{&s.URL}, text{&s.IconClass}}
	},
	Values: func(s *models.SocialLink) []any {
		return []any{s.Platform, s.URL, s.IconClass}
	},
}

// ─────────────────────────────────────────────────────────────────────────────
// Repositories: the container handed to the service layer
// ─────────────────────────────────────────────────────────────────────────────

// Repositories groups one repository per record type.
type Repositories struct {
	About       *AboutRepository
	Experiences *Table[models.Experience]
	Education   *Table[models.Education]
	Skills      *Table[models.Skill]
	Projects    *Table[models.Project]
	SocialLinks *Table[models.SocialLink]
	Users       UserRepository
}

// New builds every repository on top of c.
func New(c db.Connector) *Repositories {
	return &Repositories{
		About:       NewAboutRepo(c),
		Experiences: NewTable(c, ExperienceSchema),
		Education:   NewTable(c, EducationSchema),
		Skills:      NewTable(c, SkillSchema),
		Projects:    NewTable(c, ProjectSchema),
		SocialLinks: NewTable(c, SocialLinkSchema),
		Users:       NewUserRepo(c),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// AboutRepository: the singleton section
// ─────────────────────────────────────────────────────────────────────────────

// AboutRepository exposes the single "about" row. The row is provisioned with
// the schema; it is never created or deleted through this surface.
type AboutRepository struct {
	t *Table[models.About]
}

func NewAboutRepo(c db.Connector) *AboutRepository {
	return &AboutRepository{t: NewTable(c, AboutSchema)}
}

// Single returns the first about row found, or db.ErrNotFound.
func (r *AboutRepository) Single(ctx context.Context) (*models.About, error) {
	return r.t.First(ctx)
}

// Update overwrites the about row identified by a.ID.
func (r *AboutRepository) Update(ctx context.Context, a *models.About) error {
	return r.t.Update(ctx, a)
}
