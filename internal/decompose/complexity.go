package decompose

import "github.com/ShayCichocki/taskforge/pkg/models"

// band scores v as 1 when v <= low, 2 when v <= mid and 3 otherwise.
func band(v, low, mid int) int {
	switch {
	case v <= low:
		return 1
	case v <= mid:
		return 2
	default:
		return 3
	}
}

// Assess scores a decomposition from its subtask count, edge count and
// deepest dependency chain. It is a pure function of its arguments.
func Assess(subtaskCount, dependencyCount, maxDepth int) models.ComplexityAssessment {
	sum := band(subtaskCount, 3, 7) + band(dependencyCount, 1, 3) + band(maxDepth, 2, 4)
	score := float64(sum) / 3

	level := models.ComplexityComplex
	switch {
	case score <= 1.5:
		level = models.ComplexitySimple
	case score <= 2.5:
		level = models.ComplexityMedium
	}

	return models.ComplexityAssessment{
		Level:              level,
		Score:              score,
		SubtaskCount:       subtaskCount,
		DependencyCount:    dependencyCount,
		MaxDependencyDepth: maxDepth,
	}
}
