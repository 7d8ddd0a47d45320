// Package catalog holds the static intent pattern table and task templates
// consulted by the classifier and the decomposer.
package catalog

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/ShayCichocki/taskforge/internal/graph"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// DefaultCategory is the template used when an intent category has no template.
const DefaultCategory = "new_feature"

var (
	// ErrNoPatterns is returned when an intent definition has no patterns.
	ErrNoPatterns = errors.New("intent has no patterns")
	// ErrInvalidPattern is returned when a pattern does not compile.
	ErrInvalidPattern = errors.New("invalid intent pattern")
	// ErrDuplicateID is returned when two intents or two subtasks share an ID.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrEmptyTemplate is returned when a template has no subtasks.
	ErrEmptyTemplate = errors.New("template has no subtasks")
	// ErrUnknownDependency is returned when a subtask depends on an ID outside its template.
	ErrUnknownDependency = errors.New("dependency not in template")
	// ErrMissingDefault is returned when the default template is absent.
	ErrMissingDefault = errors.New("default template missing")
)

// IntentDefinition describes one intent the classifier can recognize.
type IntentDefinition struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	// Priority is 1 for the most important intent.
	Priority int `yaml:"priority"`
	// Confidence is the base confidence, scaled by the share of matching patterns.
	Confidence float64 `yaml:"confidence"`
	// Patterns are RE2 expressions tried in order.
	Patterns []string `yaml:"patterns"`
	// Roles and Workflows are the executors usually engaged for this intent.
	Roles     []string `yaml:"roles"`
	Workflows []string `yaml:"workflows"`

	compiled []*regexp.Regexp
}

// Match returns the patterns of d that match text.
func (d IntentDefinition) Match(text string) []string {
	var matched []string
	for i, re := range d.compiled {
		if re.MatchString(text) {
			matched = append(matched, d.Patterns[i])
		}
	}
	return matched
}

// Template is an ordered list of subtask descriptors for one category.
type Template struct {
	Category string                  `yaml:"-"`
	Name     string                  `yaml:"name"`
	Subtasks []models.TaskDescriptor `yaml:"subtasks"`
}

// Instantiate returns a deep copy of the template's subtasks.
func (t Template) Instantiate() []models.TaskDescriptor {
	out := make([]models.TaskDescriptor, len(t.Subtasks))
	for i, st := range t.Subtasks {
		out[i] = st.Clone()
	}
	return out
}

// HasCycle reports whether the template's dependencies form a cycle.
func (t Template) HasCycle() bool {
	g := graph.New()
	g.Build(t.Subtasks)
	return g.HasCycle()
}

// Catalog is the immutable pair of intent definitions and templates.
// Build one with Default, New or Load and pass it by reference.
type Catalog struct {
	intents    []IntentDefinition
	templates  map[string]Template
	categories []string
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultIntents(), DefaultTemplates())
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid built-in catalog: %v", err))
	}
	return c
}

// New validates and compiles a catalog. Categories keep the order in which
// templates are passed. Cyclic templates are accepted; the decomposer
// reports them as anomalies.
func New(intents []IntentDefinition, templates []Template) (*Catalog, error) {
	c := &Catalog{
		templates: make(map[string]Template, len(templates)),
	}

	seen := make(map[string]bool, len(intents))
	for _, def := range intents {
		if seen[def.ID] {
			return nil, fmt.Errorf("%w: intent %s", ErrDuplicateID, def.ID)
		}
		seen[def.ID] = true

		compiled, err := compilePatterns(def)
		if err != nil {
			return nil, err
		}
		def.compiled = compiled
		def.Patterns = append([]string(nil), def.Patterns...)
		c.intents = append(c.intents, def)
	}

	for _, tpl := range templates {
		if err := validateTemplate(tpl); err != nil {
			return nil, err
		}
		if _, exists := c.templates[tpl.Category]; !exists {
			c.categories = append(c.categories, tpl.Category)
		}
		tpl.Subtasks = Template{Subtasks: tpl.Subtasks}.Instantiate()
		c.templates[tpl.Category] = tpl
	}

	if _, ok := c.templates[DefaultCategory]; !ok {
		return nil, ErrMissingDefault
	}
	return c, nil
}

func compilePatterns(def IntentDefinition) ([]*regexp.Regexp, error) {
	if len(def.Patterns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPatterns, def.ID)
	}
	compiled := make([]*regexp.Regexp, 0, len(def.Patterns))
	for _, p := range def.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q: %v", ErrInvalidPattern, def.ID, p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func validateTemplate(tpl Template) error {
	if len(tpl.Subtasks) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyTemplate, tpl.Category)
	}
	ids := make(map[string]bool, len(tpl.Subtasks))
	for _, st := range tpl.Subtasks {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("template %s: %w", tpl.Category, err)
		}
		if ids[st.ID] {
			return fmt.Errorf("%w: template %s subtask %s", ErrDuplicateID, tpl.Category, st.ID)
		}
		ids[st.ID] = true
	}
	for _, st := range tpl.Subtasks {
		for _, dep := range st.Dependencies {
			if !ids[dep] {
				return fmt.Errorf("%w: template %s subtask %s depends on %s",
					ErrUnknownDependency, tpl.Category, st.ID, dep)
			}
		}
	}
	return nil
}

// Intents returns the intent definitions in match order.
func (c *Catalog) Intents() []IntentDefinition {
	return append([]IntentDefinition(nil), c.intents...)
}

// Intent looks up a definition by ID.
func (c *Catalog) Intent(id string) (IntentDefinition, bool) {
	for _, def := range c.intents {
		if def.ID == id {
			return def, true
		}
	}
	return IntentDefinition{}, false
}

// Template looks up a template by category.
func (c *Catalog) Template(category string) (Template, bool) {
	t, ok := c.templates[category]
	return t, ok
}

// TemplateFor returns the template for category, or the default template
// when the category is unknown.
func (c *Catalog) TemplateFor(category string) Template {
	if t, ok := c.templates[category]; ok {
		return t
	}
	return c.templates[DefaultCategory]
}

// Categories returns template categories in registration order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}
