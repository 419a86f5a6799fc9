package coursepath

import (
	"math"
	"strings"
)

// DefaultMasteryThreshold is the mastery at or above which a topic counts as
// learned.
const DefaultMasteryThreshold = 0.7

// Rationale tags attached to every plan step.
const (
	RationalePrerequisiteGap = "fills prerequisite gap"
	RationaleTargetMastery   = "builds target mastery"
	RationaleInterests       = "aligns with interests"
	RationaleNeutral         = "neutral alignment"
)

// defaultModuleHours is used when neither the module nor the topic carries
// any hours.
const defaultModuleHours = 1.0

// PlanStep is one scheduled module. Topics always holds the single topic the
// module was selected for.
type PlanStep struct {
	ModuleID       string   `json:"module_id"`
	Topics         []string `json:"topics"`
	EstimatedHours float64  `json:"estimated_hours"`
	Rationale      []string `json:"rationale"`
}

// PlanSummary counts the work behind a plan.
type PlanSummary struct {
	TopicsConsidered    int     `json:"topics_considered"`
	TopicsPlanned       int     `json:"topics_planned"`
	EstimatedTotalHours float64 `json:"estimated_total_hours"`
}

// PlanResult is the planner output. Only Plan and Summary are serialized;
// the remaining fields expose intermediate sets for callers that want to
// explain a plan.
type PlanResult struct {
	Plan    []PlanStep  `json:"plan"`
	Summary PlanSummary `json:"summary"`

	// Required is the prerequisite closure of the targets, in visit order.
	Required []string `json:"-"`
	// Order is the study order over required topics below the threshold.
	Order []string `json:"-"`
	// Budget is the hours cap that was applied, nil when unbounded.
	Budget *float64 `json:"-"`
}

// PlanOption configures a single Plan call.
type PlanOption func(*planConfig)

type planConfig struct {
	targets   []string
	threshold float64
	maxHours  *float64
}

// WithTargets restricts planning to the given topics and their
// prerequisites. Targets are only lowercased and trimmed, not normalized, so
// they must already look like canonical keys to match a catalog topic. No
// targets means every catalog topic.
func WithTargets(targets ...string) PlanOption {
	return func(c *planConfig) {
		c.targets = targets
	}
}

// WithThreshold sets the mastery below which a required topic is scheduled.
func WithThreshold(threshold float64) PlanOption {
	return func(c *planConfig) {
		c.threshold = threshold
	}
}

// WithMaxHours caps the total hours of the plan, overriding the learner's
// max_hours_per_week constraint. Zero means no override.
func WithMaxHours(hours float64) PlanOption {
	return func(c *planConfig) {
		c.maxHours = &hours
	}
}

// Plan computes a learning path over cc for the given progress. It never
// mutates its inputs and always returns a result.
func Plan(cc *CompressedCatalog, progress *Progress, opts ...PlanOption) *PlanResult {
	cfg := planConfig{threshold: DefaultMasteryThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}
	if progress == nil {
		progress = &Progress{}
	}

	targets := targetSet(cc, cfg.targets)
	required := cc.closure(targets)

	missing := make([]string, 0, len(required))
	for _, t := range required {
		if progress.MasteryOf(t) < cfg.threshold {
			missing = append(missing, t)
		}
	}
	order := cc.studyOrder(missing)

	// A zero override falls back to the weekly constraint; a zero
	// constraint is still a real budget.
	budget := cfg.maxHours
	if budget == nil || *budget == 0 {
		budget = progress.Preferences.Constraints.MaxHoursPerWeek
	}

	interests := progress.Preferences.Interests
	steps := make([]PlanStep, 0, len(order))
	total := 0.0
	for _, t := range order {
		moduleID, hours, ok := cc.selectModule(t, interests)
		if !ok {
			continue
		}
		if budget != nil && total+hours > *budget {
			break
		}
		steps = append(steps, PlanStep{
			ModuleID:       moduleID,
			Topics:         []string{t},
			EstimatedHours: round2(hours),
			Rationale:      cc.rationale(t, moduleID, interests),
		})
		total += hours
	}

	return &PlanResult{
		Plan: steps,
		Summary: PlanSummary{
			TopicsConsidered:    len(required),
			TopicsPlanned:       len(order),
			EstimatedTotalHours: round2(total),
		},
		Required: required,
		Order:    order,
		Budget:   budget,
	}
}

// targetSet returns the de-duplicated targets in caller order, or every
// catalog topic when none are given.
func targetSet(cc *CompressedCatalog, targets []string) []string {
	if len(targets) == 0 {
		return cc.Topics()
	}
	seen := make(map[string]struct{}, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		key := strings.ToLower(strings.TrimSpace(t))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// closure returns the targets plus every topic reachable through
// prerequisites, in depth-first pre-order. A topic is marked before its
// prerequisites are pushed, so cycles terminate.
func (c *CompressedCatalog) closure(targets []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, root := range targets {
		stack := []string{root}
		for len(stack) > 0 {
			t := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)

			prereqs := c.prereqsOf(t)
			for i := len(prereqs) - 1; i >= 0; i-- {
				if _, ok := seen[prereqs[i]]; !ok {
					stack = append(stack, prereqs[i])
				}
			}
		}
	}
	return out
}

// visit states for studyOrder.
const (
	unvisited = iota
	inProgress
	done
)

// studyOrder orders missing topics so that every missing prerequisite comes
// before the topic that needs it. Only prerequisites inside missing are
// followed. An edge into a topic that is still in progress closes a cycle
// and is skipped, so the cut falls wherever the traversal first re-enters
// the cycle.
func (c *CompressedCatalog) studyOrder(missing []string) []string {
	inMissing := make(map[string]struct{}, len(missing))
	for _, t := range missing {
		inMissing[t] = struct{}{}
	}

	type frame struct {
		topic string
		next  int
	}

	state := make(map[string]int, len(missing))
	order := make([]string, 0, len(missing))
	for _, root := range missing {
		if state[root] != unvisited {
			continue
		}
		state[root] = inProgress
		stack := []frame{{topic: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			prereqs := c.prereqsOf(top.topic)

			pushed := false
			for top.next < len(prereqs) {
				p := prereqs[top.next]
				top.next++
				if _, ok := inMissing[p]; !ok {
					continue
				}
				if state[p] != unvisited {
					continue
				}
				state[p] = inProgress
				stack = append(stack, frame{topic: p})
				pushed = true
				break
			}
			if pushed {
				continue
			}

			state[top.topic] = done
			order = append(order, top.topic)
			stack = stack[:len(stack)-1]
		}
	}
	return order
}

// selectModule picks the cheapest module covering topic. Equal hours go to
// the module whose own topics overlap the interests most; remaining ties
// keep the first module listed.
func (c *CompressedCatalog) selectModule(topic string, interests []string) (string, float64, bool) {
	ct, ok := c.topics[topic]
	if !ok {
		return "", 0, false
	}

	var (
		bestID      string
		bestHours   float64
		bestOverlap int
		found       bool
	)
	for _, id := range ct.Modules {
		m, ok := c.modules[id]
		if !ok {
			continue
		}
		hours := effectiveHours(m, ct)
		overlap := interestOverlap(m.Topics, interests)
		if !found || hours < bestHours || (hours == bestHours && overlap > bestOverlap) {
			bestID, bestHours, bestOverlap, found = id, hours, overlap, true
		}
	}
	return bestID, bestHours, found
}

// effectiveHours is the module's own hours, else the topic's coverage
// hours, else one hour. Zero hours count as unset.
func effectiveHours(m Module, ct *CompressedTopic) float64 {
	if m.Hours != nil && *m.Hours != 0 {
		return *m.Hours
	}
	if ct.CoverageHours != 0 {
		return ct.CoverageHours
	}
	return defaultModuleHours
}

func interestOverlap(topics, interests []string) int {
	if len(interests) == 0 {
		return 0
	}
	want := make(map[string]struct{}, len(interests))
	for _, i := range interests {
		want[i] = struct{}{}
	}
	seen := make(map[string]struct{}, len(topics))
	n := 0
	for _, t := range topics {
		if _, ok := want[t]; !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		n++
	}
	return n
}

// rationale tags a step. The prerequisite-gap tag only fires for a topic
// listed as its own prerequisite, which Compress never records, so in
// practice every step builds target mastery.
func (c *CompressedCatalog) rationale(topic, moduleID string, interests []string) []string {
	tags := make([]string, 2)
	tags[0] = RationaleTargetMastery
	if ct, ok := c.topics[topic]; ok && ct.Requires(topic) {
		tags[0] = RationalePrerequisiteGap
	}
	tags[1] = RationaleNeutral
	if interestOverlap(c.modules[moduleID].Topics, interests) > 0 {
		tags[1] = RationaleInterests
	}
	return tags
}

// round2 rounds to cents, half to even.
func round2(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}
