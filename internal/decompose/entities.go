package decompose

import (
	"regexp"
	"strings"
)

// Entity types.
const (
	EntityComponent = "component"
	EntityFeature   = "feature"
	EntityPage      = "page"
	EntityModifier  = "modifier"
)

// Entity is a named thing extracted from a goal.
type Entity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// TechnicalTerm is a dictionary term found in a goal.
type TechnicalTerm struct {
	Term        string `json:"term"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Entities holds everything extracted from one goal.
type Entities struct {
	Items []Entity        `json:"items,omitempty"`
	Terms []TechnicalTerm `json:"terms,omitempty"`
}

var (
	punctuation = regexp.MustCompile(`[^\w\s\p{Han}，。！？、；：“”‘’（）【】-]`)
	whitespace  = regexp.MustCompile(`\s+`)

	entityPatterns = []struct {
		typ        string
		re         *regexp.Regexp
		confidence float64
	}{
		{EntityComponent, regexp.MustCompile(
			`添加一个(.+?)组件|创建一个(.+?)组件|实现(.+?)组件|\b(?:add|create|build|implement)\s+(?:an?\s+|the\s+)?(.+?)\s+component\b`), 0.9},
		{EntityFeature, regexp.MustCompile(
			`添加(.+?)功能|实现(.+?)功能|支持([^，。！？、；：,.!?]+)|\b(?:add|implement|support)\s+(?:an?\s+|the\s+)?(.+?)\s+feature\b`), 0.85},
		{EntityPage, regexp.MustCompile(
			`添加(.+?)页面|创建(.+?)页面|\b(?:add|create)\s+(?:an?\s+|the\s+)?(.+?)\s+page\b`), 0.9},
	}

	modifiers = []string{
		"记住", "持久化", "本地", "远程", "自动", "手动", "实时", "异步", "同步",
		"remember", "persistent", "local", "remote", "automatic", "manual", "realtime", "real-time",
	}

	technicalTerms = []TechnicalTerm{
		{"vue", "framework", "Vue.js frontend framework"},
		{"react", "framework", "React frontend framework"},
		{"typescript", "language", "TypeScript"},
		{"javascript", "language", "JavaScript"},
		{"vite", "build-tool", "Vite build tool"},
		{"tailwind", "styling", "Tailwind CSS"},
		{"css", "styling", "CSS stylesheets"},
		{"html", "markup", "HTML markup"},
		{"暗黑模式", "feature", "Dark mode theme switch"},
		{"dark mode", "feature", "Dark mode theme switch"},
		{"搜索", "feature", "Search"},
		{"登录", "feature", "Login"},
		{"注册", "feature", "Registration"},
		{"导航", "component", "Navigation component"},
		{"页脚", "component", "Footer component"},
		{"头部", "component", "Header component"},
		{"卡片", "component", "Card component"},
		{"按钮", "component", "Button component"},
		{"表单", "component", "Form component"},
		{"懒加载", "action", "Lazy loading"},
		{"缓存", "action", "Caching"},
		{"压缩", "action", "Compression"},
		{"响应式", "aspect", "Responsive layout"},
		{"动画", "aspect", "Animation"},
		{"单元测试", "testing", "Unit test"},
		{"集成测试", "testing", "Integration test"},
		{"端到端测试", "testing", "End-to-end test"},
	}
)

// normalizeGoal lowercases the goal, drops punctuation other than Chinese
// punctuation and collapses whitespace.
func normalizeGoal(goal string) string {
	s := strings.ToLower(goal)
	s = punctuation.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractEntities finds component, feature and page names, modifiers and
// dictionary terms in goal. Extraction is best effort.
func ExtractEntities(goal string) Entities {
	s := normalizeGoal(goal)
	var e Entities

	for _, p := range entityPatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if v := firstGroup(m); v != "" {
			e.Items = append(e.Items, Entity{Type: p.typ, Value: v, Confidence: p.confidence})
		}
	}

	for _, mod := range modifiers {
		if strings.Contains(s, mod) {
			e.Items = append(e.Items, Entity{Type: EntityModifier, Value: mod, Confidence: 0.8})
		}
	}

	for _, term := range technicalTerms {
		if strings.Contains(s, term.Term) {
			e.Terms = append(e.Terms, term)
		}
	}

	return e
}

// firstGroup returns the first non-empty capture group, without a leading
// "一个" quantifier.
func firstGroup(m []string) string {
	for _, g := range m[1:] {
		g = strings.TrimSpace(strings.TrimPrefix(g, "一个"))
		if g != "" {
			return g
		}
	}
	return ""
}

// First returns the first entity of the given type.
func (e Entities) First(typ string) (Entity, bool) {
	for _, it := range e.Items {
		if it.Type == typ {
			return it, true
		}
	}
	return Entity{}, false
}

// Substitute qualifies the first "component" and "feature" placeholders in
// desc with the extracted component and feature names.
func (e Entities) Substitute(desc string) string {
	if c, ok := e.First(EntityComponent); ok {
		desc = qualify(desc, "component", c.Value)
	}
	if f, ok := e.First(EntityFeature); ok {
		desc = qualify(desc, "feature", f.Value)
	}
	return desc
}

var placeholderZH = map[string]string{
	"component": "组件",
	"feature":   "功能",
}

func qualify(desc, placeholder, value string) string {
	if strings.Contains(desc, placeholder) {
		return strings.Replace(desc, placeholder, value+" "+placeholder, 1)
	}
	zh := placeholderZH[placeholder]
	return strings.Replace(desc, zh, value+zh, 1)
}
