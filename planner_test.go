package coursepath

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainCatalog builds one course per topic. requires[i] lists the indexes
// of topics that topic i depends on. Topics are named t0, t1, ...
func chainCatalog(n int, requires map[int][]int, hours func(i int) *float64) CatalogDoc {
	doc := CatalogDoc{}
	for i := range n {
		c := CourseDoc{
			ID:     fmt.Sprintf("c%d", i),
			Topics: []string{fmt.Sprintf("t%d", i)},
			Modules: []ModuleDoc{{
				ID:     fmt.Sprintf("c%d-m", i),
				Topics: []string{fmt.Sprintf("t%d", i)},
			}},
		}
		if hours != nil {
			c.Modules[0].Hours = hours(i)
		}
		for _, j := range requires[i] {
			c.Prerequisites = append(c.Prerequisites, fmt.Sprintf("t%d", j))
		}
		doc.Courses = append(doc.Courses, c)
	}
	return doc
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// =============================================================================
// End-to-end
// =============================================================================

func TestPlan_IntroScenario(t *testing.T) {
	t.Parallel()
	cc := compressDoc(introCatalog())
	p := CompressProgress(ProgressDoc{}, cc)

	res := Plan(cc, p, WithTargets("loop"))

	assert.Equal(t, []string{"loop", "variable"}, res.Required)
	assert.Equal(t, []string{"variable", "loop"}, res.Order, "variable is missing and comes first")
	require.Len(t, res.Plan, 1, "no module covers variable")
	assert.Equal(t, PlanStep{
		ModuleID:       "c1-m1",
		Topics:         []string{"loop"},
		EstimatedHours: 2.0,
		Rationale:      []string{RationaleTargetMastery, RationaleNeutral},
	}, res.Plan[0])
	assert.Equal(t, PlanSummary{TopicsConsidered: 2, TopicsPlanned: 2, EstimatedTotalHours: 2.0}, res.Summary)
	assert.Nil(t, res.Budget)
}

func TestPlan_TargetsAreNotNormalized(t *testing.T) {
	t.Parallel()
	cc := compressDoc(introCatalog())
	p := CompressProgress(ProgressDoc{}, cc)

	// "Loops" lowercases to "loops", which is not the canonical key "loop".
	res := Plan(cc, p, WithTargets("  Loops "))

	assert.Equal(t, []string{"loops"}, res.Required)
	assert.Equal(t, []string{"loops"}, res.Order)
	assert.Empty(t, res.Plan)
	assert.Equal(t, PlanSummary{TopicsConsidered: 1, TopicsPlanned: 1}, res.Summary)
}

func TestPlan_NoTargetsMeansAllTopics(t *testing.T) {
	t.Parallel()
	cc := compressDoc(introCatalog())
	p := CompressProgress(ProgressDoc{}, cc)

	for _, opts := range [][]PlanOption{nil, {WithTargets()}} {
		res := Plan(cc, p, opts...)
		assert.ElementsMatch(t, cc.Topics(), res.Required)
		assert.Equal(t, []string{"variable", "loop", "array"}, res.Order)
		require.Len(t, res.Plan, 2)
		assert.Equal(t, "c1-m1", res.Plan[0].ModuleID)
		assert.Equal(t, "c1-m2", res.Plan[1].ModuleID)
		assert.Equal(t, 5.0, res.Summary.EstimatedTotalHours)
	}
}

func TestPlan_JSONShape(t *testing.T) {
	t.Parallel()
	cc := compressDoc(introCatalog())
	res := Plan(cc, CompressProgress(ProgressDoc{}, cc), WithTargets("array"))

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"plan": [{
			"module_id": "c1-m2",
			"topics": ["array"],
			"estimated_hours": 3,
			"rationale": ["builds target mastery", "neutral alignment"]
		}],
		"summary": {"topics_considered": 2, "topics_planned": 2, "estimated_total_hours": 3}
	}`, string(data))
}

func TestPlan_EmptyPlanSerializesAsArray(t *testing.T) {
	t.Parallel()
	cc := compressDoc(CatalogDoc{})
	data, err := json.Marshal(Plan(cc, CompressProgress(ProgressDoc{}, cc)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"plan": [], "summary": {"topics_considered": 0, "topics_planned": 0, "estimated_total_hours": 0}}`, string(data))
}

// =============================================================================
// Closure & ordering
// =============================================================================

func TestPlan_CycleTolerance(t *testing.T) {
	t.Parallel()
	cc := compressDoc(CatalogDoc{Courses: []CourseDoc{
		{ID: "ca", Topics: []string{"A"}, Prerequisites: []string{"B"}},
		{ID: "cb", Topics: []string{"B"}, Prerequisites: []string{"A"}},
	}})
	res := Plan(cc, CompressProgress(ProgressDoc{}, cc), WithTargets("a"))

	assert.Equal(t, []string{"a", "b"}, res.Required)
	assert.Equal(t, []string{"b", "a"}, res.Order, "the edge back into a is cut")
}

func TestPlan_MasteredPrereqsAreRequiredButNotScheduled(t *testing.T) {
	t.Parallel()
	cc := compressDoc(introCatalog())
	p := CompressProgress(ProgressDoc{Mastery: map[string]float64{"variable": 0.7}}, cc)

	res := Plan(cc, p, WithTargets("loop"))
	assert.Equal(t, []string{"loop", "variable"}, res.Required)
	assert.Equal(t, []string{"loop"}, res.Order, "mastery equal to the threshold counts as learned")
	assert.Equal(t, 2, res.Summary.TopicsConsidered)
	assert.Equal(t, 1, res.Summary.TopicsPlanned)
}

func TestPlan_ThresholdOption(t *testing.T) {
	t.Parallel()
	cc := compressDoc(introCatalog())
	p := CompressProgress(ProgressDoc{Mastery: map[string]float64{"loop": 0.8, "variable": 0.8}}, cc)

	assert.Empty(t, Plan(cc, p, WithTargets("loop")).Order)
	assert.Equal(t, []string{"variable", "loop"}, Plan(cc, p, WithTargets("loop"), WithThreshold(0.9)).Order)
}

func TestPlan_DuplicateTargets(t *testing.T) {
	t.Parallel()
	cc := compressDoc(introCatalog())
	res := Plan(cc, CompressProgress(ProgressDoc{}, cc), WithTargets("loop", "LOOP", "variable"))
	assert.Equal(t, []string{"loop", "variable"}, res.Required)
}

func TestClosure_Completeness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("closure is exactly the set reachable through prerequisites", prop.ForAll(
		func(codes []int, target int) bool {
			requires := map[int][]int{}
			for _, code := range codes {
				i, j := code/10, code%10
				requires[i] = append(requires[i], j)
			}
			cc := compressDoc(chainCatalog(10, requires, nil))

			want := map[string]bool{}
			var visit func(i int)
			visit = func(i int) {
				key := fmt.Sprintf("t%d", i)
				if want[key] {
					return
				}
				want[key] = true
				for _, j := range requires[i] {
					if j != i {
						visit(j)
					}
				}
			}
			visit(target)

			got := cc.closure([]string{fmt.Sprintf("t%d", target)})
			if len(got) != len(want) {
				return false
			}
			for _, key := range got {
				if !want[key] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 99)),
		gen.IntRange(0, 9),
	))

	properties.TestingRun(t)
}

func TestStudyOrder_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("acyclic: every missing prerequisite comes strictly earlier", prop.ForAll(
		func(codes []int, mastered []int) bool {
			requires := map[int][]int{}
			for _, code := range codes {
				if i, j := code/10, code%10; j < i {
					requires[i] = append(requires[i], j)
				}
			}
			mastery := map[string]float64{}
			for _, i := range mastered {
				mastery[fmt.Sprintf("t%d", i)] = 1
			}
			cc := compressDoc(chainCatalog(10, requires, nil))
			res := Plan(cc, CompressProgress(ProgressDoc{Mastery: mastery}, cc))

			for pos, topic := range res.Order {
				ct, _ := cc.Topic(topic)
				for _, p := range ct.PrereqTopics {
					if mastery[p] >= DefaultMasteryThreshold {
						continue
					}
					if at := indexOf(res.Order, p); at < 0 || at >= pos {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 99)),
		gen.SliceOf(gen.IntRange(0, 9)),
	))

	properties.Property("cyclic: every missing topic appears exactly once", prop.ForAll(
		func(codes []int) bool {
			requires := map[int][]int{}
			for _, code := range codes {
				requires[code/10] = append(requires[code/10], code%10)
			}
			cc := compressDoc(chainCatalog(10, requires, nil))
			res := Plan(cc, CompressProgress(ProgressDoc{}, cc))
			if len(res.Order) != 10 {
				return false
			}
			seen := map[string]bool{}
			for _, topic := range res.Order {
				if seen[topic] {
					return false
				}
				seen[topic] = true
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 99)),
	))

	properties.TestingRun(t)
}

// =============================================================================
// Selection
// =============================================================================

func TestPlan_SelectsCheapestModule(t *testing.T) {
	t.Parallel()
	cc := compressDoc(CatalogDoc{Courses: []CourseDoc{{
		Topics: []string{"loop"},
		Modules: []ModuleDoc{
			{ID: "slow", Topics: []string{"loop", "x"}, Hours: hrs(5)},
			{ID: "fast", Topics: []string{"loop", "y"}, Hours: hrs(1.5)},
		},
	}}})
	res := Plan(cc, CompressProgress(ProgressDoc{}, cc), WithTargets("loop"))
	require.Len(t, res.Plan, 1)
	assert.Equal(t, "fast", res.Plan[0].ModuleID)
	assert.Equal(t, 1.5, res.Plan[0].EstimatedHours)
}

func TestPlan_TieBrokenByInterests(t *testing.T) {
	t.Parallel()
	cc := compressDoc(CatalogDoc{Courses: []CourseDoc{{
		Modules: []ModuleDoc{
			{ID: "plain", Topics: []string{"loop", "x"}, Hours: hrs(2)},
			{ID: "games", Topics: []string{"loop", "game"}, Hours: hrs(2)},
			{ID: "other", Topics: []string{"loop", "z"}, Hours: hrs(2)},
		},
	}}})

	neutral := Plan(cc, CompressProgress(ProgressDoc{}, cc), WithTargets("loop"))
	require.Len(t, neutral.Plan, 1)
	assert.Equal(t, "plain", neutral.Plan[0].ModuleID, "first module wins a full tie")
	assert.Equal(t, RationaleNeutral, neutral.Plan[0].Rationale[1])

	p := CompressProgress(ProgressDoc{Preferences: &PreferencesDoc{Interests: []string{"Games"}}}, cc)
	res := Plan(cc, p, WithTargets("loop"))
	require.Len(t, res.Plan, 1)
	assert.Equal(t, "games", res.Plan[0].ModuleID)
	assert.Equal(t, RationaleInterests, res.Plan[0].Rationale[1])
}

func TestPlan_CheaperBeatsInterests(t *testing.T) {
	t.Parallel()
	cc := compressDoc(CatalogDoc{Courses: []CourseDoc{{
		Modules: []ModuleDoc{
			{ID: "games", Topics: []string{"loop", "game"}, Hours: hrs(3)},
			{ID: "plain", Topics: []string{"loop", "x"}, Hours: hrs(2)},
		},
	}}})
	p := CompressProgress(ProgressDoc{Preferences: &PreferencesDoc{Interests: []string{"game"}}}, cc)
	res := Plan(cc, p, WithTargets("loop"))
	require.Len(t, res.Plan, 1)
	assert.Equal(t, "plain", res.Plan[0].ModuleID)
}

func TestPlan_HoursFallback(t *testing.T) {
	t.Parallel()
	cc := compressDoc(CatalogDoc{Courses: []CourseDoc{
		{ID: "split", Hours: hrs(8), Modules: []ModuleDoc{{Topics: []string{"a"}}, {Topics: []string{"b"}}}},
		{ID: "none", Modules: []ModuleDoc{{Topics: []string{"c"}}}},
		{ID: "zero", Modules: []ModuleDoc{{Topics: []string{"d"}, Hours: hrs(0)}}},
	}})
	res := Plan(cc, CompressProgress(ProgressDoc{}, cc))

	require.Len(t, res.Plan, 4)
	assert.Equal(t, 4.0, res.Plan[0].EstimatedHours, "coverage hours when the module has none")
	assert.Equal(t, 4.0, res.Plan[1].EstimatedHours)
	assert.Equal(t, 1.0, res.Plan[2].EstimatedHours, "one hour when nothing is known")
	assert.Equal(t, 1.0, res.Plan[3].EstimatedHours, "zero hours count as unset")
	assert.Equal(t, 10.0, res.Summary.EstimatedTotalHours)
}

func TestPlan_ZeroHoursUseCoverage(t *testing.T) {
	t.Parallel()
	cc := compressDoc(CatalogDoc{Courses: []CourseDoc{{
		ID: "c",
		Modules: []ModuleDoc{
			{ID: "c-m1", Topics: []string{"a"}, Hours: hrs(0)},
			{ID: "c-m2", Topics: []string{"a", "b"}, Hours: hrs(3)},
		},
	}}})
	res := Plan(cc, CompressProgress(ProgressDoc{}, cc), WithTargets("a"))

	require.Len(t, res.Plan, 1)
	assert.Equal(t, "c-m1", res.Plan[0].ModuleID)
	assert.Equal(t, 3.0, res.Plan[0].EstimatedHours, "topic coverage replaces zero hours")
}

func TestPlan_ZeroHoursWithoutCoverage(t *testing.T) {
	t.Parallel()
	cc := compressDoc(CatalogDoc{Courses: []CourseDoc{{
		ID:      "c",
		Modules: []ModuleDoc{{ID: "c-m1", Topics: []string{"a"}, Hours: hrs(0)}},
	}}})
	res := Plan(cc, CompressProgress(ProgressDoc{}, cc), WithTargets("a"))

	require.Len(t, res.Plan, 1)
	assert.Equal(t, PlanStep{
		ModuleID:       "c-m1",
		Topics:         []string{"a"},
		EstimatedHours: 1.0,
		Rationale:      []string{RationaleTargetMastery, RationaleNeutral},
	}, res.Plan[0])
}

func TestPlan_ModuleRepeatsAcrossTopics(t *testing.T) {
	t.Parallel()
	cc := compressDoc(CatalogDoc{Courses: []CourseDoc{{
		Modules: []ModuleDoc{{ID: "both", Topics: []string{"a", "b"}, Hours: hrs(1.25)}},
	}}})
	res := Plan(cc, CompressProgress(ProgressDoc{}, cc))

	require.Len(t, res.Plan, 2)
	assert.Equal(t, "both", res.Plan[0].ModuleID)
	assert.Equal(t, "both", res.Plan[1].ModuleID)
	assert.Equal(t, 2.5, res.Summary.EstimatedTotalHours, "hours are counted per step")
}

func TestPlan_RoundsHours(t *testing.T) {
	t.Parallel()
	cc := compressDoc(CatalogDoc{Courses: []CourseDoc{{
		Hours:   hrs(10),
		Modules: []ModuleDoc{{Topics: []string{"a"}}, {Topics: []string{"b"}}, {Topics: []string{"c"}}},
	}}})
	res := Plan(cc, CompressProgress(ProgressDoc{}, cc))

	require.Len(t, res.Plan, 3)
	assert.Equal(t, 3.33, res.Plan[0].EstimatedHours)
	assert.Equal(t, 10.0, res.Summary.EstimatedTotalHours, "total rounds the unrounded sum")
}

func TestRound2_HalfToEven(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want float64
	}{
		{0.125, 0.12},
		{0.375, 0.38},
		{3.333, 3.33},
		{2.5, 2.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round2(tt.in), "round2(%v)", tt.in)
	}
}

// =============================================================================
// Budget
// =============================================================================

func budgetCatalog() CatalogDoc {
	hours := []float64{2, 3, 10, 1}
	return chainCatalog(4, nil, func(i int) *float64 { return hrs(hours[i]) })
}

func TestPlan_BudgetFirstViolationCutoff(t *testing.T) {
	t.Parallel()
	cc := compressDoc(budgetCatalog())
	res := Plan(cc, CompressProgress(ProgressDoc{}, cc), WithMaxHours(6))

	require.Len(t, res.Plan, 2)
	assert.Equal(t, "t0", res.Plan[0].Topics[0])
	assert.Equal(t, 2.0, res.Plan[0].EstimatedHours)
	assert.Equal(t, "t1", res.Plan[1].Topics[0])
	assert.Equal(t, 3.0, res.Plan[1].EstimatedHours)
	assert.Equal(t, 5.0, res.Summary.EstimatedTotalHours)
	assert.Equal(t, 4, res.Summary.TopicsPlanned, "the cutoff does not shrink the order")
	require.NotNil(t, res.Budget)
	assert.Equal(t, 6.0, *res.Budget)
}

func TestPlan_BudgetFromConstraints(t *testing.T) {
	t.Parallel()
	cc := compressDoc(budgetCatalog())
	p := CompressProgress(ProgressDoc{Preferences: &PreferencesDoc{
		Constraints: &ConstraintsDoc{MaxHoursPerWeek: hrs(2)},
	}}, cc)

	res := Plan(cc, p)
	require.Len(t, res.Plan, 1)
	assert.Equal(t, 2.0, res.Summary.EstimatedTotalHours)

	override := Plan(cc, p, WithMaxHours(15))
	assert.Len(t, override.Plan, 3, "explicit budget overrides the weekly constraint")
}

func TestPlan_ZeroBudget(t *testing.T) {
	t.Parallel()
	cc := compressDoc(budgetCatalog())
	p := CompressProgress(ProgressDoc{Preferences: &PreferencesDoc{
		Constraints: &ConstraintsDoc{MaxHoursPerWeek: hrs(100)},
	}}, cc)

	res := Plan(cc, p, WithMaxHours(0))
	assert.Len(t, res.Plan, 4, "a zero override falls back to the weekly constraint")
	require.NotNil(t, res.Budget)
	assert.Equal(t, 100.0, *res.Budget)

	unbounded := Plan(cc, CompressProgress(ProgressDoc{}, cc), WithMaxHours(0))
	assert.Len(t, unbounded.Plan, 4)
	assert.Nil(t, unbounded.Budget)

	zeroWeekly := CompressProgress(ProgressDoc{Preferences: &PreferencesDoc{
		Constraints: &ConstraintsDoc{MaxHoursPerWeek: hrs(0)},
	}}, cc)
	assert.Empty(t, Plan(cc, zeroWeekly).Plan, "a zero weekly constraint is a real budget")
}

func TestPlan_NoBudget(t *testing.T) {
	t.Parallel()
	cc := compressDoc(budgetCatalog())
	res := Plan(cc, CompressProgress(ProgressDoc{}, cc))
	assert.Len(t, res.Plan, 4)
	assert.Equal(t, 16.0, res.Summary.EstimatedTotalHours)
}

// =============================================================================
// Rationale
// =============================================================================

func TestPlan_PrerequisiteGapOnlyForSelfReference(t *testing.T) {
	t.Parallel()
	cc := compressDoc(introCatalog())
	// Compress never records a self-edge; add one directly.
	ct, _ := cc.Topic("loop")
	ct.addPrereq("loop")

	res := Plan(cc, CompressProgress(ProgressDoc{}, cc))
	require.Len(t, res.Plan, 2)
	assert.Equal(t, "loop", res.Plan[0].Topics[0])
	assert.Equal(t, RationalePrerequisiteGap, res.Plan[0].Rationale[0])
	assert.Equal(t, RationaleTargetMastery, res.Plan[1].Rationale[0], "a topic with prerequisites is still a target step")
}

func TestPlan_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()
	cc := compressDoc(introCatalog())
	p := CompressProgress(ProgressDoc{Mastery: map[string]float64{"loop": 0.1}}, cc)
	fp := cc.Fingerprint()
	targets := []string{" LOOP "}

	Plan(cc, p, WithTargets(targets...), WithMaxHours(1))

	assert.Equal(t, fp, cc.Fingerprint())
	assert.Equal(t, 0.1, p.MasteryOf("loop"))
	assert.Equal(t, []string{" LOOP "}, targets)
}
