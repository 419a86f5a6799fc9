package coursepath

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jward/coursepath/internal/docs"
)

// Module is a unit of study owned by a Course. Topics hold canonical keys.
// A nil Hours means the module's hours are derived from its course.
type Module struct {
	ID     string
	Title  string
	Topics []string
	Hours  *float64
}

// Course groups modules under a shared set of topics and prerequisite
// labels. Prerequisites are labels, not graph edges; Compress turns them
// into edges.
type Course struct {
	ID            string
	Title         string
	Topics        []string
	Prerequisites []string
	Modules       []Module
	Hours         *float64
}

// Catalog is the full set of courses as loaded. It is not modified after
// Load returns.
type Catalog struct {
	Courses []Course
}

// Load converts a raw catalog document into a Catalog. Courses without an id
// become "course-<n>" and modules without an id become "<courseID>-m<k>",
// both 1-based. Topic and prerequisite labels are normalized; hours pass
// through unchanged.
func Load(raw docs.CatalogDoc) *Catalog {
	cat := &Catalog{Courses: make([]Course, 0, len(raw.Courses))}
	for i, rc := range raw.Courses {
		courseID := rc.ID
		if courseID == "" {
			courseID = fmt.Sprintf("course-%d", i+1)
		}

		modules := make([]Module, 0, len(rc.Modules))
		for k, rm := range rc.Modules {
			moduleID := rm.ID
			if moduleID == "" {
				moduleID = fmt.Sprintf("%s-m%d", courseID, k+1)
			}
			modules = append(modules, Module{
				ID:     moduleID,
				Title:  cleanTitle(rm.Title),
				Topics: normalizeAll(rm.Topics),
				Hours:  rm.Hours,
			})
		}

		cat.Courses = append(cat.Courses, Course{
			ID:            courseID,
			Title:         cleanTitle(rc.Title),
			Topics:        normalizeAll(rc.Topics),
			Prerequisites: normalizeAll(rc.Prerequisites),
			Modules:       modules,
			Hours:         rc.Hours,
		})
	}
	return cat
}

// cleanTitle applies NFKC so visually identical titles compare equal in
// reports. Titles never feed topic keys.
func cleanTitle(title string) string {
	return strings.TrimSpace(norm.NFKC.String(title))
}
