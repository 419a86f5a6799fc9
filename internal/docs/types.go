// Package docs defines the raw input documents consumed by the planner and
// decodes them from JSON or YAML after validating them against embedded JSON
// Schemas. Nothing that fails validation is handed to the engine.
package docs

// CatalogDoc is the raw catalog document.
type CatalogDoc struct {
	Courses []CourseDoc `json:"courses"`
}

// CourseDoc is one course as it appears in the catalog document. Optional
// numbers are pointers so that absence is distinguishable from zero.
type CourseDoc struct {
	ID            string      `json:"id,omitempty"`
	Title         string      `json:"title,omitempty"`
	Topics        []string    `json:"topics,omitempty"`
	Prerequisites []string    `json:"prerequisites,omitempty"`
	Hours         *float64    `json:"hours,omitempty"`
	Modules       []ModuleDoc `json:"modules,omitempty"`
}

// ModuleDoc is one module of a course.
type ModuleDoc struct {
	ID     string   `json:"id,omitempty"`
	Title  string   `json:"title,omitempty"`
	Topics []string `json:"topics,omitempty"`
	Hours  *float64 `json:"hours,omitempty"`
}

// ProgressDoc is the learner's raw progress document.
type ProgressDoc struct {
	Mastery          map[string]float64 `json:"mastery,omitempty"`
	CompletedCourses []string           `json:"completed_courses,omitempty"`
	Preferences      *PreferencesDoc    `json:"preferences,omitempty"`
}

// PreferencesDoc holds pacing and interest hints.
type PreferencesDoc struct {
	Pace        string          `json:"pace,omitempty"`
	Interests   []string        `json:"interests,omitempty"`
	Constraints *ConstraintsDoc `json:"constraints,omitempty"`
}

// ConstraintsDoc holds the learner's time constraints. DeadlineWeeks is
// decoded as a float because JSON writers may emit whole numbers as 4.0; the
// schema guarantees it has no fractional part.
type ConstraintsDoc struct {
	MaxHoursPerWeek *float64 `json:"max_hours_per_week,omitempty"`
	DeadlineWeeks   *float64 `json:"deadline_weeks,omitempty"`
}

// TargetsDoc names the topics a learner wants to reach. DesiredOutcomes is
// accepted as an alias for TargetTopics.
type TargetsDoc struct {
	TargetTopics    []string `json:"target_topics,omitempty"`
	DesiredOutcomes []string `json:"desired_outcomes,omitempty"`
}

// Topics returns target_topics, falling back to desired_outcomes when the
// former is absent or empty.
func (t TargetsDoc) Topics() []string {
	if len(t.TargetTopics) > 0 {
		return t.TargetTopics
	}
	return t.DesiredOutcomes
}
