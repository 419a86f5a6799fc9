package coursepath

import (
	"sort"
	"strings"

	"github.com/jward/coursepath/internal/docs"
)

// completedCourseMastery is the floor applied to topics taught by a course
// the learner has completed.
const completedCourseMastery = 0.7

// Constraints are the learner's time limits. Nil fields are unset.
type Constraints struct {
	MaxHoursPerWeek *float64
	DeadlineWeeks   *int
}

// Preferences are the learner's pacing hint, canonical interest topics and
// constraints.
type Preferences struct {
	Pace        string
	Interests   []string
	Constraints Constraints
}

// Progress is a learner's mastery record mapped onto a compressed catalog.
// Mastery holds an entry for every topic in that catalog.
type Progress struct {
	Mastery          map[string]float64
	CompletedCourses []string
	Preferences      Preferences
}

// MasteryOf returns the mastery of a topic, or 0 for topics outside the
// catalog the progress was compressed against.
func (p *Progress) MasteryOf(topic string) float64 {
	if p == nil {
		return 0
	}
	return p.Mastery[topic]
}

// CompressProgress maps a raw progress document onto the topic space of cc.
//
// Each catalog topic reads the caller's mastery under the canonical key, or
// else under any caller key that normalizes to it, defaulting to 0. When
// several caller keys normalize to the same topic, the lexicographically
// smallest raw key wins. Completed courses then raise every topic covered by
// a surviving module whose id starts with the course id to at least 0.7.
// The prefix match is a naming convention, not a recorded relation: modules
// that do not carry their course id as a prefix are never boosted.
func CompressProgress(raw docs.ProgressDoc, cc *CompressedCatalog) *Progress {
	byKey := normalizedMastery(raw.Mastery)

	topics := cc.Topics()
	mastery := make(map[string]float64, len(topics))
	for _, t := range topics {
		if v, ok := raw.Mastery[t]; ok {
			mastery[t] = v
			continue
		}
		mastery[t] = byKey[t]
	}

	completed := append([]string(nil), raw.CompletedCourses...)
	for _, courseID := range completed {
		for _, moduleID := range cc.moduleOrder {
			if !strings.HasPrefix(moduleID, courseID) {
				continue
			}
			for _, t := range cc.covers[moduleID] {
				if mastery[t] < completedCourseMastery {
					mastery[t] = completedCourseMastery
				}
			}
		}
	}

	return &Progress{
		Mastery:          mastery,
		CompletedCourses: completed,
		Preferences:      preferencesFromDoc(raw.Preferences),
	}
}

// normalizedMastery re-keys the caller's mastery map by canonical key.
func normalizedMastery(raw map[string]float64) map[string]float64 {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]float64, len(raw))
	for _, k := range keys {
		nk := Normalize(k)
		if _, ok := out[nk]; ok {
			continue
		}
		out[nk] = raw[k]
	}
	return out
}

func preferencesFromDoc(p *docs.PreferencesDoc) Preferences {
	if p == nil {
		return Preferences{}
	}
	prefs := Preferences{
		Pace:      p.Pace,
		Interests: normalizeAll(p.Interests),
	}
	if c := p.Constraints; c != nil {
		prefs.Constraints.MaxHoursPerWeek = c.MaxHoursPerWeek
		if c.DeadlineWeeks != nil {
			w := int(*c.DeadlineWeeks)
			prefs.Constraints.DeadlineWeeks = &w
		}
	}
	return prefs
}
