package models

// SkillType groups skills on the page.
type SkillType string

const (
	SkillHard     SkillType = "hard"
	SkillSoft     SkillType = "soft"
	SkillLanguage SkillType = "language"
)

// Level bounds for Skill.Level.
const (
	MinSkillLevel = 0
	MaxSkillLevel = 100
)

// Skill represents a row in the "skills" table.
type Skill struct {
	ID    int64
	Name  string
	Level int
	Type  SkillType
}

func (s *Skill) ToMap() map[string]any {
	return map[string]any{
		"id":    s.ID,
		"name":  s.Name,
		"level": s.Level,
		"type":  string(s.Type),
	}
}

// Valid reports whether t is one of the three known skill types.
func (t SkillType) Valid() bool {
	switch t {
	case SkillHard, SkillSoft, SkillLanguage:
		return true
	}
	return false
}

// ParseSkillType returns the SkillType named by s and whether it is valid.
// Matching is exact: "Hard" is not a valid type.
func ParseSkillType(s string) (SkillType, bool) {
	t := SkillType(s)
	return t, t.Valid()
}

// ClampLevel coerces a submitted level into [MinSkillLevel, MaxSkillLevel].
// A missing level counts as MinSkillLevel.
func ClampLevel(level *int) int {
	if level == nil {
		return MinSkillLevel
	}
	return min(max(*level, MinSkillLevel), MaxSkillLevel)
}
