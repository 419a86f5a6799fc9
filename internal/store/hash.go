package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// ComputeCatalogHash computes a deterministic hash of a compressed catalog.
// Covers: topic names, prerequisite sets, covering modules, coverage hours
// and the surviving module ids. Ordering of any input slice does NOT affect
// the hash.
func ComputeCatalogHash(topics []TopicDigest, modules []string) string {
	h := sha256.New()

	sortedTopics := make([]TopicDigest, len(topics))
	copy(sortedTopics, topics)
	sort.Slice(sortedTopics, func(i, j int) bool {
		return sortedTopics[i].Name < sortedTopics[j].Name
	})
	for _, t := range sortedTopics {
		fmt.Fprintf(h, "topic:%s\n", t.Name)
		fmt.Fprintf(h, "prereqs:%s\n", strings.Join(sortedCopy(t.Prereqs), ","))
		fmt.Fprintf(h, "modules:%s\n", strings.Join(sortedCopy(t.Modules), ","))
		fmt.Fprintf(h, "hours:%g\n", t.CoverageHours)
	}

	fmt.Fprintf(h, "survivors:%s\n", strings.Join(sortedCopy(modules), ","))

	return fmt.Sprintf("%x", h.Sum(nil))
}

func sortedCopy(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	sort.Strings(out)
	return out
}
