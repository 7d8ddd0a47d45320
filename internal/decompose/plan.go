package decompose

import (
	"sort"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// BuildPlan orders subtasks so dependencies come first. Each round places
// every unplaced subtask whose dependencies are all placed, lowest priority
// number first with ties in input order. When no subtask is ready the
// remaining subtask with the lowest priority number is placed anyway and
// marked Forced. The plan always has exactly len(subtasks) steps.
// forced counts the deadlocks that were broken.
func BuildPlan(subtasks []models.TaskDescriptor) (plan []PlanStep, forced int) {
	// done tracks positions so duplicate IDs still get exactly one step each.
	done := make([]bool, len(subtasks))
	placed := make(map[string]bool, len(subtasks))
	plan = make([]PlanStep, 0, len(subtasks))

	for len(plan) < len(subtasks) {
		var ready []int
		for i, st := range subtasks {
			if !done[i] && depsPlaced(st, placed) {
				ready = append(ready, i)
			}
		}

		force := len(ready) == 0
		if force {
			ready = []int{lowestPriorityRemaining(subtasks, done)}
			forced++
		}

		sort.SliceStable(ready, func(a, b int) bool {
			return subtasks[ready[a]].Priority < subtasks[ready[b]].Priority
		})

		for _, i := range ready {
			st := subtasks[i]
			plan = append(plan, PlanStep{
				Step:             len(plan) + 1,
				TaskID:           st.ID,
				Name:             st.Name,
				Description:      st.Description,
				Role:             st.Role,
				Workflow:         st.Workflow,
				Priority:         st.Priority,
				EstimatedTime:    st.EstimatedTime,
				EstimatedMinutes: st.EstimatedMinutes,
				Dependencies:     append([]string(nil), st.Dependencies...),
				Forced:           force,
			})
			done[i] = true
			placed[st.ID] = true
		}
	}

	return plan, forced
}

func depsPlaced(st models.TaskDescriptor, placed map[string]bool) bool {
	for _, dep := range st.Dependencies {
		if !placed[dep] {
			return false
		}
	}
	return true
}

func lowestPriorityRemaining(subtasks []models.TaskDescriptor, done []bool) int {
	best := -1
	for i, st := range subtasks {
		if done[i] {
			continue
		}
		if best == -1 || st.Priority < subtasks[best].Priority {
			best = i
		}
	}
	return best
}
