package models

// IntentUnknown is the ID and category of the sentinel intent returned when
// nothing matches.
const IntentUnknown = "unknown"

// Intent is the classified category of a free-text goal.
type Intent struct {
	// ID identifies the intent definition that matched.
	ID string `json:"id"`
	// Name is the display name of the intent.
	Name string `json:"name"`
	// Category selects the task template.
	Category string `json:"category"`
	// Priority is the definition's priority; lower is more important.
	Priority int `json:"priority"`
	// Confidence is in [0,1].
	Confidence float64 `json:"confidence"`
	// MatchedPatterns lists the patterns that matched the input.
	MatchedPatterns []string `json:"matched_patterns,omitempty"`
}

// IsUnknown reports whether this is the sentinel unmatched intent.
func (i Intent) IsUnknown() bool {
	return i.ID == IntentUnknown
}

// UnknownIntent returns the low-confidence sentinel intent.
func UnknownIntent() Intent {
	return Intent{
		ID:         IntentUnknown,
		Name:       "Unknown",
		Category:   IntentUnknown,
		Priority:   99,
		Confidence: 0.1,
	}
}

// ComplexityLevel buckets a decomposition by size and depth.
type ComplexityLevel string

const (
	ComplexitySimple  ComplexityLevel = "simple"
	ComplexityMedium  ComplexityLevel = "medium"
	ComplexityComplex ComplexityLevel = "complex"
)

// ComplexityAssessment is derived from a decomposition and never mutated.
type ComplexityAssessment struct {
	Level              ComplexityLevel `json:"level"`
	Score              float64         `json:"score"`
	SubtaskCount       int             `json:"subtask_count"`
	DependencyCount    int             `json:"dependency_count"`
	MaxDependencyDepth int             `json:"max_dependency_depth"`
}

// AdviceLevel is the severity of an advisory message.
type AdviceLevel string

const (
	AdviceInfo    AdviceLevel = "info"
	AdviceWarning AdviceLevel = "warning"
	AdviceError   AdviceLevel = "error"
)

// Advice is an informational message attached to a classification or a
// decomposition. It never affects scheduling.
type Advice struct {
	Level   AdviceLevel `json:"level"`
	Message string      `json:"message"`
}
