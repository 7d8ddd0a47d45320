package decompose

import (
	"fmt"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

const (
	// longTaskMinutes is the estimate above which a subtask should be split.
	longTaskMinutes = 60
	// maxDependencies is the dependency count above which ordering needs care.
	maxDependencies = 3
)

// Recommend returns advisory messages for a decomposition. The output never
// affects scheduling.
func Recommend(c models.ComplexityAssessment, subtasks []models.TaskDescriptor, anomalies []Anomaly) []models.Advice {
	var out []models.Advice

	switch c.Level {
	case models.ComplexitySimple:
		out = append(out, models.Advice{
			Level:   models.AdviceInfo,
			Message: "Simple goal; it can be finished quickly",
		})
	case models.ComplexityMedium:
		out = append(out, models.Advice{
			Level:   models.AdviceWarning,
			Message: "Medium complexity; deliver it in stages",
		})
	default:
		out = append(out, models.Advice{
			Level:   models.AdviceError,
			Message: "Complex goal; write a detailed implementation plan first",
		})
	}

	long, most := 0, 0
	for _, st := range subtasks {
		if st.EstimatedMinutes > longTaskMinutes {
			long++
		}
		if n := len(st.Dependencies); n > most {
			most = n
		}
	}

	if long > 0 {
		out = append(out, models.Advice{
			Level:   models.AdviceWarning,
			Message: fmt.Sprintf("%d subtask(s) are estimated at over 1 hour; consider splitting them", long),
		})
	}
	if most > maxDependencies {
		out = append(out, models.Advice{
			Level:   models.AdviceInfo,
			Message: "Dependencies are intricate; review the execution order carefully",
		})
	}
	if len(anomalies) > 0 {
		out = append(out, models.Advice{
			Level:   models.AdviceWarning,
			Message: "Dependency cycle detected; the plan broke it by priority and may run tasks early",
		})
	}

	return out
}
