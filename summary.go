package coursepath

import "sort"

// TopicCoverage is a topic with its accumulated coverage hours and the
// number of surviving modules that teach it.
type TopicCoverage struct {
	Topic         string  `json:"topic"`
	CoverageHours float64 `json:"coverage_hours"`
	ModuleCount   int     `json:"module_count"`
}

// CatalogSummary is a high-level overview of a compressed catalog.
type CatalogSummary struct {
	Courses        int             `json:"courses"`
	Topics         int             `json:"topics"`
	Modules        int             `json:"modules"`
	DroppedModules int             `json:"dropped_modules"`
	Edges          int             `json:"edges"`
	Uncovered      []string        `json:"uncovered"`
	TopTopics      []TopicCoverage `json:"top_topics"`
	Fingerprint    string          `json:"fingerprint"`
}

// Summary returns counts for the catalog plus the topN topics by coverage
// hours. Ties in coverage keep catalog order. topN <= 0 omits the ranking.
// Uncovered lists topics that no module teaches; the planner can never
// schedule them.
func (c *CompressedCatalog) Summary(topN int) *CatalogSummary {
	s := &CatalogSummary{
		Courses:        c.courseCount,
		Topics:         len(c.topicOrder),
		Modules:        len(c.moduleOrder),
		DroppedModules: len(c.dropped),
		Uncovered:      []string{},
		TopTopics:      []TopicCoverage{},
		Fingerprint:    c.Fingerprint(),
	}

	ranked := make([]TopicCoverage, 0, len(c.topicOrder))
	for _, key := range c.topicOrder {
		t := c.topics[key]
		s.Edges += len(t.PrereqTopics)
		if len(t.Modules) == 0 {
			s.Uncovered = append(s.Uncovered, key)
		}
		ranked = append(ranked, TopicCoverage{
			Topic:         key,
			CoverageHours: t.CoverageHours,
			ModuleCount:   len(t.Modules),
		})
	}

	if topN <= 0 {
		return s
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CoverageHours > ranked[j].CoverageHours
	})
	if topN > len(ranked) {
		topN = len(ranked)
	}
	s.TopTopics = ranked[:topN]
	return s
}
