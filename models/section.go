package models

// Section records map 1-to-1 with their table's columns; there are no
// relations between them. ID is assigned by the store on creation and is the
// only key used to update or delete a row. The form tags name the admin form
// fields; ID never comes from a form.

// About represents the single row of the "about" table.
type About struct {
	ID           int64
	FullName     string
	Title        string
	Summary      string
	Email        string
	Phone        string
	Address      string
	ProfileImage string
}

// ToMap flattens the record for presentation.
func (a *About) ToMap() map[string]any {
	return map[string]any{
		"id":            a.ID,
		"full_name":     a.FullName,
		"title":         a.Title,
		"summary":       a.Summary,
		"email":         a.Email,
		"phone":         a.Phone,
		"address":       a.Address,
		"profile_image": a.ProfileImage,
	}
}

// Experience represents a row in the "experiences" table.
// YearStart and YearEnd are nil when the column is NULL.
type Experience struct {
	ID          int64  `form:"-"`
	Role        string `form:"role"`
	Company     string `form:"company"`
	Description string `form:"description"`
	YearStart   *int   `form:"year_start"`
	YearEnd     *int   `form:"year_end"`
	IsCurrent   bool   `form:"is_current"`
}

func (e *Experience) ToMap() map[string]any {
	return map[string]any{
		"id":          e.ID,
		"role":        e.Role,
		"company":     e.Company,
		"description": e.Description,
		"year_start":  yearValue(e.YearStart),
		"year_end":    yearValue(e.YearEnd),
		"is_current":  e.IsCurrent,
	}
}

// Education represents a row in the "education" table.
type Education struct {
	ID          int64  `form:"-"`
	Institution string `form:"institution"`
	Degree      string `form:"degree"`
	Description string `form:"description"`
	YearStart   *int   `form:"year_start"`
	YearEnd     *int   `form:"year_end"`
}

func (e *Education) ToMap() map[string]any {
	return map[string]any{
		"id":          e.ID,
		"institution": e.Institution,
		"degree":      e.Degree,
		"description": e.Description,
		"year_start":  yearValue(e.YearStart),
		"year_end":    yearValue(e.YearEnd),
	}
}

// Project represents a row in the "projects" table.
type Project struct {
	ID          int64  `form:"-"`
	Name        string `form:"name"`
	DateLabel   string `form:"date_label"`
	Description string `form:"description"`
	Link        string `form:"link"`
	Image       string `form:"image"`
}

func (p *Project) ToMap() map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"date_label":  p.DateLabel,
		"description": p.Description,
		"link":        p.Link,
		"image":       p.Image,
	}
}

// SocialLink represents a row in the "social_links" table.
type SocialLink struct {
	ID        int64  `form:"-"`
	Platform  string `form:"platform"`
	URL       string `form:"url"`
	IconClass string `form:"icon_class"`
}

func (s *SocialLink) ToMap() map[string]any {
	return map[string]any{
		"id":         s.ID,
		"platform":   s.Platform,
		"url":        s.URL,
		"icon_class": s.IconClass,
	}
}

// Year returns a pointer to y, for filling the nullable year fields.
func Year(y int) *int { return &y }

func yearValue(y *int) any {
	if y == nil {
		return nil
	}
	return *y
}
