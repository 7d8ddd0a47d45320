// Package decompose turns a classified goal into a dependency-ordered set of
// subtasks using the catalog's templates.
package decompose

import (
	"github.com/ShayCichocki/taskforge/internal/catalog"
	"github.com/ShayCichocki/taskforge/internal/graph"
	"github.com/ShayCichocki/taskforge/internal/logging"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

var debugLog = logging.Debugf

// Anomaly flags a non-fatal problem found while decomposing.
type Anomaly string

const (
	// AnomalyCyclicDependency is set when depth computation re-entered a task.
	AnomalyCyclicDependency Anomaly = "cyclic_dependency"
	// AnomalyCycleBroken is set when the execution plan had to place a task
	// whose dependencies were not all placed.
	AnomalyCycleBroken Anomaly = "cycle_broken"
)

// PlanStep is one placement in the execution plan.
type PlanStep struct {
	Step             int      `json:"step"`
	TaskID           string   `json:"task_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Role             string   `json:"role"`
	Workflow         string   `json:"workflow,omitempty"`
	Priority         int      `json:"priority"`
	EstimatedTime    string   `json:"estimated_time,omitempty"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	Dependencies     []string `json:"dependencies,omitempty"`
	// Forced is true when the step was placed to break a deadlock.
	Forced bool `json:"forced,omitempty"`
}

// Result is the outcome of a decomposition. It is built once and not
// modified afterwards.
type Result struct {
	Goal string `json:"goal"`
	// Template is the display name of the template used.
	Template string `json:"template"`
	// Category is the template key actually used, after fallback.
	Category           string                      `json:"category"`
	Intent             models.Intent               `json:"intent"`
	Entities           Entities                    `json:"entities"`
	Subtasks           []models.TaskDescriptor     `json:"subtasks"`
	Graph              *graph.DependencyGraph      `json:"-"`
	Edges              []graph.Edge                `json:"edges"`
	Complexity         models.ComplexityAssessment `json:"complexity"`
	TotalMinutes       int                         `json:"total_minutes"`
	TotalEstimatedTime string                      `json:"total_estimated_time"`
	ExecutionPlan      []PlanStep                  `json:"execution_plan"`
	Recommendations    []models.Advice             `json:"recommendations,omitempty"`
	Anomalies          []Anomaly                   `json:"anomalies,omitempty"`
}

// HasAnomaly reports whether a was flagged.
func (r *Result) HasAnomaly(a Anomaly) bool {
	for _, got := range r.Anomalies {
		if got == a {
			return true
		}
	}
	return false
}

// Decomposer instantiates templates for goals.
type Decomposer struct {
	catalog *catalog.Catalog
}

// New creates a decomposer over the given catalog.
func New(c *catalog.Catalog) *Decomposer {
	return &Decomposer{catalog: c}
}

// Decompose selects the template for the intent's category, instantiates
// it for goal and derives the graph, complexity, totals, execution plan and
// recommendations. It never fails: unknown categories use the default
// template, malformed durations count as zero and cycles are broken and
// reported in Anomalies.
func (d *Decomposer) Decompose(goal string, in models.Intent) *Result {
	tpl := d.catalog.TemplateFor(in.Category)
	entities := ExtractEntities(goal)

	subtasks := tpl.Instantiate()
	total := 0
	for i := range subtasks {
		subtasks[i].EstimatedMinutes = ParseMinutes(subtasks[i].EstimatedTime)
		subtasks[i].Description = entities.Substitute(subtasks[i].Description)
		total += subtasks[i].EstimatedMinutes
	}

	g := graph.New()
	g.SetDebugLog(debugLog)
	g.Build(subtasks)

	r := &Result{
		Goal:               goal,
		Template:           tpl.Name,
		Category:           tpl.Category,
		Intent:             in,
		Entities:           entities,
		Subtasks:           subtasks,
		Graph:              g,
		Edges:              g.Edges(),
		TotalMinutes:       total,
		TotalEstimatedTime: FormatMinutes(total),
	}

	maxDepth, cyclic := g.MaxDepth()
	if cyclic {
		debugLog("[decompose] cyclic dependency in template %s", tpl.Category)
		r.Anomalies = append(r.Anomalies, AnomalyCyclicDependency)
	}
	r.Complexity = Assess(g.Size(), g.EdgeCount(), maxDepth)

	plan, forced := BuildPlan(subtasks)
	if forced > 0 {
		debugLog("[decompose] execution plan forced %d placement(s) in template %s", forced, tpl.Category)
		r.Anomalies = append(r.Anomalies, AnomalyCycleBroken)
	}
	r.ExecutionPlan = plan
	r.Recommendations = Recommend(r.Complexity, subtasks, r.Anomalies)

	debugLog("[decompose] %q -> %s: %d subtasks, %s, %s",
		goal, tpl.Category, len(subtasks), r.Complexity.Level, r.TotalEstimatedTime)
	return r
}
