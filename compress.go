package coursepath

import (
	"sort"
	"strings"

	"github.com/jward/coursepath/internal/store"
)

// CompressedTopic is one node of the topic graph. Modules and PrereqTopics
// are sets kept in first-seen order. CoverageHours is the sum of the hours
// of every module that covers the topic, so shared topics accumulate hours
// from all of their modules.
type CompressedTopic struct {
	Name          string
	Modules       []string
	PrereqTopics  []string
	CoverageHours float64

	moduleSet map[string]struct{}
	prereqSet map[string]struct{}
}

func newCompressedTopic(name string) *CompressedTopic {
	return &CompressedTopic{
		Name:      name,
		moduleSet: make(map[string]struct{}),
		prereqSet: make(map[string]struct{}),
	}
}

// CoveredBy reports whether the module with the given id covers the topic.
func (t *CompressedTopic) CoveredBy(moduleID string) bool {
	_, ok := t.moduleSet[moduleID]
	return ok
}

// Requires reports whether p is a direct prerequisite of the topic.
func (t *CompressedTopic) Requires(p string) bool {
	_, ok := t.prereqSet[p]
	return ok
}

func (t *CompressedTopic) addModule(id string) {
	if _, ok := t.moduleSet[id]; ok {
		return
	}
	t.moduleSet[id] = struct{}{}
	t.Modules = append(t.Modules, id)
}

func (t *CompressedTopic) addPrereq(p string) {
	if _, ok := t.prereqSet[p]; ok {
		return
	}
	t.prereqSet[p] = struct{}{}
	t.PrereqTopics = append(t.PrereqTopics, p)
}

// replaceModule swaps old for rep in place. If rep is already present, old
// is simply removed.
func (t *CompressedTopic) replaceModule(old, rep string) {
	if _, ok := t.moduleSet[old]; !ok {
		return
	}
	delete(t.moduleSet, old)
	_, hasRep := t.moduleSet[rep]
	out := t.Modules[:0]
	for _, id := range t.Modules {
		if id != old {
			out = append(out, id)
			continue
		}
		if !hasRep {
			out = append(out, rep)
			hasRep = true
		}
	}
	t.Modules = out
	t.moduleSet[rep] = struct{}{}
}

// Edge records that Topic depends on Prereq.
type Edge struct {
	Topic  string `json:"topic"`
	Prereq string `json:"prereq"`
}

// DroppedModule records a module removed by deduplication and the module
// that now stands in for it.
type DroppedModule struct {
	ID             string
	Representative string
}

// CompressedCatalog is the topic graph built by Compress. It is immutable
// once returned; accessors hand out copies of ordered key lists.
type CompressedCatalog struct {
	topics      map[string]*CompressedTopic
	topicOrder  []string
	modules     map[string]Module
	moduleOrder []string
	covers      map[string][]string // module id -> topics it covers
	edges       []Edge
	dropped     []DroppedModule
	courseCount int
}

// Topic returns the node for a canonical topic key. The returned value must
// not be modified.
func (c *CompressedCatalog) Topic(key string) (*CompressedTopic, bool) {
	t, ok := c.topics[key]
	return t, ok
}

// Topics returns every canonical topic key in first-seen order.
func (c *CompressedCatalog) Topics() []string {
	return append([]string(nil), c.topicOrder...)
}

// Module returns a surviving module by id.
func (c *CompressedCatalog) Module(id string) (Module, bool) {
	m, ok := c.modules[id]
	return m, ok
}

// Modules returns surviving module ids in first-seen order.
func (c *CompressedCatalog) Modules() []string {
	return append([]string(nil), c.moduleOrder...)
}

// Covers returns the topics a surviving module is registered under.
func (c *CompressedCatalog) Covers(moduleID string) []string {
	return append([]string(nil), c.covers[moduleID]...)
}

// Edges returns the (topic, prerequisite) pairs recorded during
// construction. The list is informational and may contain duplicates; the
// authoritative relation is CompressedTopic.PrereqTopics.
func (c *CompressedCatalog) Edges() []Edge {
	return append([]Edge(nil), c.edges...)
}

// DroppedModules returns the modules folded away by deduplication.
func (c *CompressedCatalog) DroppedModules() []DroppedModule {
	return append([]DroppedModule(nil), c.dropped...)
}

// Fingerprint returns a content hash of the topic graph and surviving
// modules, independent of construction order.
func (c *CompressedCatalog) Fingerprint() string {
	digests := make([]store.TopicDigest, 0, len(c.topicOrder))
	for _, key := range c.topicOrder {
		t := c.topics[key]
		digests = append(digests, store.TopicDigest{
			Name:          t.Name,
			Prereqs:       t.PrereqTopics,
			Modules:       t.Modules,
			CoverageHours: t.CoverageHours,
		})
	}
	return store.ComputeCatalogHash(digests, c.moduleOrder)
}

// prereqsOf returns the prerequisite keys of a topic, or nil for topics
// outside the catalog.
func (c *CompressedCatalog) prereqsOf(topic string) []string {
	if t, ok := c.topics[topic]; ok {
		return t.PrereqTopics
	}
	return nil
}

func (c *CompressedCatalog) ensureTopic(key string) *CompressedTopic {
	if t, ok := c.topics[key]; ok {
		return t
	}
	t := newCompressedTopic(key)
	c.topics[key] = t
	c.topicOrder = append(c.topicOrder, key)
	return t
}

// indexModule stores m under its id. A repeated id overwrites the earlier
// module but keeps its first-seen position.
func (c *CompressedCatalog) indexModule(m Module) {
	if _, ok := c.modules[m.ID]; !ok {
		c.moduleOrder = append(c.moduleOrder, m.ID)
	}
	c.modules[m.ID] = m
}

func (c *CompressedCatalog) addCover(moduleID, topic string) {
	for _, t := range c.covers[moduleID] {
		if t == topic {
			return
		}
	}
	c.covers[moduleID] = append(c.covers[moduleID], topic)
}

// Compress builds the topic graph for a catalog:
//
//  1. every course topic gets a node;
//  2. every course prerequisite gets a node and becomes a prerequisite of
//     each course topic that differs from it;
//  3. every module registers under its own topics (or the course topics when
//     it lists none) and adds its effective hours to each topic's coverage;
//  4. modules with identical normalized topic sets are folded into the first
//     one seen, and topics are re-pointed to that representative.
//
// A module's effective hours are its own hours when set, otherwise the
// course hours split evenly across the course's modules.
func Compress(cat *Catalog) *CompressedCatalog {
	c := &CompressedCatalog{
		topics:  make(map[string]*CompressedTopic),
		modules: make(map[string]Module),
		covers:  make(map[string][]string),
	}
	if cat == nil {
		return c
	}
	c.courseCount = len(cat.Courses)

	for _, course := range cat.Courses {
		courseTopics := normalizeAll(course.Topics)
		for _, t := range courseTopics {
			c.ensureTopic(t)
		}

		for _, p := range course.Prerequisites {
			np := Normalize(p)
			c.ensureTopic(np)
			for _, t := range courseTopics {
				if t == np {
					continue
				}
				c.edges = append(c.edges, Edge{Topic: t, Prereq: np})
				c.topics[t].addPrereq(np)
			}
		}

		split := len(course.Modules)
		if split < 1 {
			split = 1
		}
		for _, m := range course.Modules {
			m.Topics = normalizeAll(m.Topics)
			c.indexModule(m)

			hours := 0.0
			switch {
			case m.Hours != nil:
				hours = *m.Hours
			case course.Hours != nil:
				hours = *course.Hours / float64(split)
			}

			covered := m.Topics
			if len(covered) == 0 {
				covered = courseTopics
			}
			for _, t := range covered {
				ct := c.ensureTopic(t)
				ct.addModule(m.ID)
				ct.CoverageHours += hours
				c.addCover(m.ID, t)
			}
		}
	}

	c.dedupe()
	return c
}

// dedupe keeps the first module for each topic-set fingerprint and re-points
// every topic that referenced a later duplicate to that representative.
func (c *CompressedCatalog) dedupe() {
	representative := make(map[string]string)
	survivors := make([]string, 0, len(c.moduleOrder))

	for _, id := range c.moduleOrder {
		fp := moduleFingerprint(c.modules[id].Topics)
		rep, seen := representative[fp]
		if !seen {
			representative[fp] = id
			survivors = append(survivors, id)
			continue
		}

		for _, key := range c.topicOrder {
			t := c.topics[key]
			if t.CoveredBy(id) {
				t.replaceModule(id, rep)
				c.addCover(rep, key)
			}
		}
		delete(c.modules, id)
		delete(c.covers, id)
		c.dropped = append(c.dropped, DroppedModule{ID: id, Representative: rep})
	}
	c.moduleOrder = survivors
}

// moduleFingerprint is the sorted, de-duplicated topic set joined into one
// string.
func moduleFingerprint(topics []string) string {
	set := make(map[string]struct{}, len(topics))
	uniq := make([]string, 0, len(topics))
	for _, t := range topics {
		if _, ok := set[t]; ok {
			continue
		}
		set[t] = struct{}{}
		uniq = append(uniq, t)
	}
	sort.Strings(uniq)
	return strings.Join(uniq, "|")
}
