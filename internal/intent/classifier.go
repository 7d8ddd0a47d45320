// Package intent classifies free-text goals against the catalog's ordered
// pattern table.
package intent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ShayCichocki/taskforge/internal/catalog"
	"github.com/ShayCichocki/taskforge/internal/logging"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// candidateThreshold is the confidence a secondary intent must exceed to be
// reported as a candidate.
const candidateThreshold = 0.3

var debugLog = logging.Debugf

// Classifier matches text against a catalog. It holds no mutable state and
// is safe for concurrent use.
type Classifier struct {
	catalog *catalog.Catalog
}

// New creates a classifier over the given catalog.
func New(c *catalog.Catalog) *Classifier {
	return &Classifier{catalog: c}
}

// Classify returns the best matching intent for text. The definition with
// the strictly highest number of matching patterns wins, so earlier
// definitions win ties. Confidence is the base confidence scaled by the share
// of patterns that matched. Text that matches nothing yields the unknown
// intent. Classify never fails.
func (c *Classifier) Classify(text string) models.Intent {
	best := models.UnknownIntent()
	bestCount := 0

	for _, def := range c.catalog.Intents() {
		matched := def.Match(text)
		if len(matched) > bestCount {
			bestCount = len(matched)
			best = toIntent(def, matched)
		}
	}

	debugLog("[intent] classified %q as %s (%.2f)", text, best.ID, best.Confidence)
	return best
}

// Candidates returns every intent with at least one matching pattern and a
// confidence above 0.3, highest confidence first. Equal confidences keep
// catalog order.
func (c *Classifier) Candidates(text string) []models.Intent {
	var out []models.Intent
	for _, def := range c.catalog.Intents() {
		matched := def.Match(text)
		if len(matched) == 0 {
			continue
		}
		in := toIntent(def, matched)
		if in.Confidence > candidateThreshold {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

func toIntent(def catalog.IntentDefinition, matched []string) models.Intent {
	return models.Intent{
		ID:              def.ID,
		Name:            def.Name,
		Category:        def.Category,
		Priority:        def.Priority,
		Confidence:      clamp(def.Confidence * float64(len(matched)) / float64(len(def.Patterns))),
		MatchedPatterns: matched,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Mapping ties an intent to the roles and workflows usually engaged for it.
type Mapping struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Roles      []string `json:"roles,omitempty"`
	Workflows  []string `json:"workflows,omitempty"`
}

// Analysis is the extended classification of a goal.
type Analysis struct {
	Input string `json:"input"`
	// Primary is the result of Classify.
	Primary models.Intent `json:"primary"`
	// Candidates is the result of Candidates.
	Candidates []models.Intent `json:"candidates,omitempty"`
	// Confidence is Primary's confidence lowered for ambiguity.
	Confidence float64 `json:"confidence"`
	// Primary and secondary role mappings.
	PrimaryMapping    Mapping         `json:"primary_mapping"`
	SecondaryMappings []Mapping       `json:"secondary_mappings,omitempty"`
	Suggestions       []models.Advice `json:"suggestions,omitempty"`
}

// Analyze classifies text and adds candidates, an ambiguity-adjusted
// confidence, role mappings and suggestions.
func (c *Classifier) Analyze(text string) Analysis {
	primary := c.Classify(text)
	candidates := c.Candidates(text)

	a := Analysis{
		Input:      text,
		Primary:    primary,
		Candidates: candidates,
		Confidence: overallConfidence(primary, candidates),
		PrimaryMapping: Mapping{
			Intent:     primary.Name,
			Confidence: primary.Confidence,
		},
	}

	if def, ok := c.catalog.Intent(primary.ID); ok {
		a.PrimaryMapping.Roles = def.Roles
		a.PrimaryMapping.Workflows = def.Workflows
	}
	for _, cand := range candidates {
		if cand.ID == primary.ID {
			continue
		}
		def, ok := c.catalog.Intent(cand.ID)
		if !ok {
			continue
		}
		a.SecondaryMappings = append(a.SecondaryMappings, Mapping{
			Intent:     cand.Name,
			Confidence: cand.Confidence,
			Roles:      def.Roles,
			Workflows:  def.Workflows,
		})
	}

	a.Suggestions = suggestions(primary, candidates)
	return a
}

// overallConfidence lowers the primary confidence by 10% when several
// intents compete and by a further 20% when the primary match is weak.
func overallConfidence(primary models.Intent, candidates []models.Intent) float64 {
	conf := primary.Confidence
	if len(candidates) > 1 {
		conf *= 0.9
	}
	if primary.Confidence < 0.5 {
		conf *= 0.8
	}
	return clamp(conf)
}

func suggestions(primary models.Intent, candidates []models.Intent) []models.Advice {
	var out []models.Advice

	if primary.Confidence < 0.5 {
		out = append(out, models.Advice{
			Level:   models.AdviceInfo,
			Message: "Intent confidence is low; describe the goal more specifically",
		})
	}

	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, cand := range candidates {
			names[i] = cand.Name
		}
		out = append(out, models.Advice{
			Level:   models.AdviceWarning,
			Message: fmt.Sprintf("Multiple intents detected: %s; confirm the primary intent", strings.Join(names, ", ")),
		})
	}

	switch primary.ID {
	case "new_feature":
		out = append(out, models.Advice{
			Level:   models.AdviceInfo,
			Message: "Analyze the requirements before starting the technical design",
		})
	case "test":
		out = append(out, models.Advice{
			Level:   models.AdviceInfo,
			Message: "Design the test cases before implementing the tests",
		})
	case "deploy":
		out = append(out, models.Advice{
			Level:   models.AdviceWarning,
			Message: "Make sure every test passes before deploying",
		})
	}

	return out
}
