package coursepath

import "sort"

// PrerequisiteCycles finds cycles in the prerequisite relation using
// Tarjan's strongly connected components algorithm. Each cycle lists its
// topics with the first repeated at the end. Cycles are sorted by their
// first topic. Returns an empty list (not nil) for acyclic catalogs.
//
// Planning is unaffected: Plan cuts these cycles silently. This is a
// diagnostic for catalog authors.
func (c *CompressedCatalog) PrerequisiteCycles() [][]string {
	type nodeInfo struct {
		index   int
		lowlink int
		onStack bool
	}
	info := map[string]*nodeInfo{}
	index := 0
	var stack []string
	result := [][]string{}

	var strongconnect func(v string)
	strongconnect = func(v string) {
		ni := &nodeInfo{index: index, lowlink: index, onStack: true}
		info[v] = ni
		index++
		stack = append(stack, v)

		for _, w := range c.prereqsOf(v) {
			wInfo, visited := info[w]
			if !visited {
				strongconnect(w)
				wInfo = info[w]
				if wInfo.lowlink < ni.lowlink {
					ni.lowlink = wInfo.lowlink
				}
			} else if wInfo.onStack && wInfo.index < ni.lowlink {
				ni.lowlink = wInfo.index
			}
		}

		if ni.lowlink != ni.index {
			return
		}
		var scc []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			info[w].onStack = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) == 1 && !c.topics[scc[0]].Requires(scc[0]) {
			return
		}
		// Tarjan pops in reverse.
		for i, j := 0, len(scc)-1; i < j; i, j = i+1, j-1 {
			scc[i], scc[j] = scc[j], scc[i]
		}
		result = append(result, append(scc, scc[0]))
	}

	for _, key := range c.topicOrder {
		if _, visited := info[key]; !visited {
			strongconnect(key)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i][0] < result[j][0]
	})
	return result
}
