package catalog

import "github.com/ShayCichocki/taskforge/pkg/models"

// DefaultIntents returns the built-in intent definitions in match order.
// Each pattern pairs the Chinese keywords with English alternatives inside
// the same expression, so a goal in either language scores the same share
// of patterns.
func DefaultIntents() []IntentDefinition {
	return []IntentDefinition{
		{
			ID:         "new_feature",
			Name:       "New Feature",
			Category:   "new_feature",
			Priority:   1,
			Confidence: 0.9,
			Patterns: []string{
				`添加|新增|增加|创建|制作|开发|实现|建设|(?i:\b(?:add|create|build|implement|develop|introduce)\b)`,
				`添加一个|新增一个|创建一个|开发一个|(?i:\b(?:add|create|build|implement|develop)\s+(?:a|an|new)\b)`,
			},
			Roles:     []string{"bmad:dev", "javascript-pro"},
			Workflows: []string{"dev-story", "tech-spec"},
		},
		{
			ID:         "optimize",
			Name:       "Optimize",
			Category:   "optimize",
			Priority:   2,
			Confidence: 0.87,
			Patterns: []string{
				`优化|改进|提升|加速|增强|改善|(?i:\b(?:optimi[sz]e|improve|speed\s*up|enhance)\b)`,
				`优化性能|提高速度|加快加载|(?i:\bperformance\b|\bfaster\b|\bload(?:ing)?\s+time\b)`,
			},
			Roles:     []string{"bmad:architect", "bmad:dev", "javascript-pro"},
			Workflows: []string{"solution-architecture", "dev-story"},
		},
		{
			ID:         "fix",
			Name:       "Fix",
			Category:   "fix",
			Priority:   3,
			Confidence: 0.92,
			Patterns: []string{
				`修复|解决|处理|修正|修补|(?i:\b(?:fix|resolve|repair|patch)\b)`,
				`修复.*bug|解决.*问题|处理.*错误|(?i:\b(?:bug|error|crash)(?:es|s)?\b)`,
			},
			Roles:     []string{"bmad:dev", "bmad:tea"},
			Workflows: []string{"dev-story", "testarch-framework"},
		},
		{
			ID:         "refactor",
			Name:       "Refactor",
			Category:   "refactor",
			Priority:   4,
			Confidence: 0.86,
			Patterns: []string{
				`重构|改写|重写|重构代码|(?i:\b(?:refactor|rewrite|restructure)\b)`,
				`代码优化|代码改进|(?i:\bclean\s*up\b|\bcode\s+quality\b)`,
			},
			Roles:     []string{"bmad:architect", "bmad:dev"},
			Workflows: []string{"solution-architecture", "dev-story"},
		},
		{
			ID:         "design",
			Name:       "Design",
			Category:   "design",
			Priority:   5,
			Confidence: 0.85,
			Patterns: []string{
				`设计|美化|改版|界面|UI|交互|动画|(?i:\b(?:design|redesign|layout|theme|animation)\b)`,
				`视觉设计|用户体验|UX|界面设计|(?i:\bvisual\b|\buser\s+experience\b)`,
			},
			Roles:     []string{"bmad:ux-expert", "frontend-design-claude2"},
			Workflows: []string{"ux-spec", "visual-design"},
		},
		{
			ID:         "test",
			Name:       "Test",
			Category:   "test",
			Priority:   6,
			Confidence: 0.88,
			Patterns: []string{
				`测试|验证|检查|审查|(?i:\b(?:test|tests|testing|verify|validate)\b)`,
				`单元测试|集成测试|端到端测试|E2E|(?i:\b(?:unit|integration|end-to-end)\s+tests?\b)`,
			},
			Roles:     []string{"bmad:tea", "frontend-tester"},
			Workflows: []string{"testarch-framework", "testarch-plan"},
		},
		{
			ID:         "deploy",
			Name:       "Deploy",
			Category:   "deploy",
			Priority:   7,
			Confidence: 0.91,
			Patterns: []string{
				`部署|发布|上线|发布版本|(?i:\b(?:deploy|release|ship)\b)`,
				`部署到|发布到|上线到|(?i:\b(?:deploy|release)\s+to\b)`,
				`生产环境|预发布|(?i:\b(?:staging|production)\b)`,
			},
			Roles:     []string{"bmad:dev"},
			Workflows: []string{"dev-story"},
		},
		{
			ID:         "document",
			Name:       "Document",
			Category:   "document",
			Priority:   8,
			Confidence: 0.84,
			Patterns: []string{
				`文档|说明|指南|教程|(?i:\b(?:docs?|documentation|guide|tutorial)\b)`,
				`编写文档|更新文档|生成文档|(?i:\b(?:write|update|generate)\s+(?:the\s+)?docs?\b)`,
				`API文档|用户文档|开发文档|(?i:\b(?:api|user|developer)\s+docs?\b)`,
			},
			Roles:     []string{"bmad:analyst", "bmad:po"},
			Workflows: []string{"brainstorm-project", "prd"},
		},
		{
			ID:         "analyze",
			Name:       "Analyze",
			Category:   "analyze",
			Priority:   9,
			Confidence: 0.83,
			Patterns: []string{
				`分析|研究|调研|探索|(?i:\b(?:analy[sz]e|analysis|research|investigate|explore)\b)`,
				`需求分析|技术分析|市场分析|(?i:\b(?:requirements?|technical|market)\s+analysis\b)`,
				`可行性分析|风险评估|(?i:\bfeasibility\b|\brisk\s+assessment\b)`,
			},
			Roles:     []string{"bmad:analyst", "bmad:architect"},
			Workflows: []string{"brainstorm-project", "research"},
		},
		{
			ID:         "review",
			Name:       "Review",
			Category:   "review",
			Priority:   10,
			Confidence: 0.89,
			Patterns: []string{
				`审查|审核|评审|(?i:\b(?:review|audit)\b)`,
				`代码审查|设计审查|架构审查|(?i:\b(?:code|design|architecture)\s+review\b)`,
				`\bPR\b|(?i:\bpull\s+request\b|\bmerge\s+request\b)`,
			},
			Roles:     []string{"bmad:tea", "bmad:architect"},
			Workflows: []string{"review-story", "testarch-gate"},
		},
	}
}

func subtask(id, name, desc, role, workflow string, priority int, est string, deps ...string) models.TaskDescriptor {
	return models.TaskDescriptor{
		ID:            id,
		Name:          name,
		Description:   desc,
		Role:          role,
		Workflow:      workflow,
		Priority:      priority,
		EstimatedTime: est,
		Dependencies:  deps,
	}
}

// DefaultTemplates returns the built-in task templates.
// Descriptions use the words "component" and "feature" as placeholders that
// the decomposer may qualify with names extracted from the goal.
func DefaultTemplates() []Template {
	return []Template{
		{
			Category: "new_feature",
			Name:     "New Feature Development",
			Subtasks: []models.TaskDescriptor{
				subtask("requirement_analysis", "Requirement Analysis",
					"Analyze user needs and define the feature scope",
					"bmad:analyst", "brainstorm-project", 1, "30min"),
				subtask("technical_design", "Technical Design",
					"Design the technical approach and architecture",
					"bmad:architect", "solution-architecture", 2, "45min", "requirement_analysis"),
				subtask("component_creation", "Component Creation",
					"Create the required component",
					"bmad:dev", "dev-story", 3, "60min", "technical_design"),
				subtask("state_management", "State Management",
					"Implement the state management logic",
					"bmad:dev", "dev-story", 4, "30min", "component_creation"),
				subtask("styling", "Styling",
					"Implement the component styles",
					"frontend-design-claude2", "visual-design", 5, "45min", "component_creation"),
				subtask("testing", "Testing",
					"Write test cases and verify the feature",
					"bmad:tea", "testarch-framework", 6, "30min", "state_management", "styling"),
				subtask("documentation", "Documentation",
					"Write technical documentation and usage notes for the feature",
					"bmad:analyst", "brainstorm-project", 7, "20min", "testing"),
			},
		},
		{
			Category: "optimize",
			Name:     "Performance Optimization",
			Subtasks: []models.TaskDescriptor{
				subtask("performance_analysis", "Performance Analysis",
					"Find the performance bottlenecks",
					"bmad:analyst", "brainstorm-project", 1, "30min"),
				subtask("optimization_plan", "Optimization Plan",
					"Draft the optimization plan",
					"bmad:architect", "solution-architecture", 2, "30min", "performance_analysis"),
				subtask("implementation", "Optimization",
					"Apply the optimization plan",
					"bmad:dev", "dev-story", 3, "60min", "optimization_plan"),
				subtask("verification", "Verification",
					"Measure the effect of the optimization",
					"bmad:tea", "testarch-framework", 4, "20min", "implementation"),
			},
		},
		{
			Category: "fix",
			Name:     "Bug Fix",
			Subtasks: []models.TaskDescriptor{
				subtask("issue_analysis", "Issue Analysis",
					"Find the root cause of the issue",
					"bmad:analyst", "brainstorm-project", 1, "20min"),
				subtask("fix_implementation", "Fix Implementation",
					"Fix the issue",
					"bmad:dev", "dev-story", 2, "30min", "issue_analysis"),
				subtask("regression_test", "Regression Test",
					"Run the regression tests",
					"bmad:tea", "testarch-framework", 3, "20min", "fix_implementation"),
			},
		},
		{
			Category: "refactor",
			Name:     "Code Refactoring",
			Subtasks: []models.TaskDescriptor{
				subtask("code_analysis", "Code Analysis",
					"Analyze the code structure",
					"bmad:architect", "solution-architecture", 1, "30min"),
				subtask("refactor_plan", "Refactor Plan",
					"Draft the refactoring plan",
					"bmad:architect", "solution-architecture", 2, "30min", "code_analysis"),
				subtask("refactor_implementation", "Refactor Implementation",
					"Carry out the refactoring",
					"bmad:dev", "dev-story", 3, "60min", "refactor_plan"),
				subtask("testing", "Testing",
					"Verify the refactored code",
					"bmad:tea", "testarch-framework", 4, "30min", "refactor_implementation"),
			},
		},
		{
			Category: "design",
			Name:     "Design Implementation",
			Subtasks: []models.TaskDescriptor{
				subtask("ux_design", "UX Design",
					"Design the user experience",
					"bmad:ux-expert", "ux-spec", 1, "45min"),
				subtask("visual_design", "Visual Design",
					"Produce the visual design",
					"frontend-design-claude2", "visual-design", 2, "60min", "ux_design"),
				subtask("implementation", "Design Implementation",
					"Implement the design in the component",
					"bmad:dev", "dev-story", 3, "60min", "visual_design"),
				subtask("testing", "Testing",
					"Verify the design in the browser",
					"bmad:tea", "testarch-framework", 4, "30min", "implementation"),
			},
		},
		{
			Category: "test",
			Name:     "Test Implementation",
			Subtasks: []models.TaskDescriptor{
				subtask("test_design", "Test Design",
					"Design the test cases",
					"bmad:tea", "testarch-framework", 1, "30min"),
				subtask("test_implementation", "Test Implementation",
					"Implement the test code",
					"bmad:tea", "testarch-framework", 2, "45min", "test_design"),
				subtask("test_execution", "Test Execution",
					"Run the tests",
					"bmad:tea", "testarch-framework", 3, "20min", "test_implementation"),
				subtask("report_generation", "Report Generation",
					"Generate the test report",
					"bmad:tea", "testarch-framework", 4, "15min", "test_execution"),
			},
		},
		{
			Category: "deploy",
			Name:     "Deployment",
			Subtasks: []models.TaskDescriptor{
				subtask("release_check", "Release Check",
					"Confirm every test and quality gate passes",
					"bmad:tea", "testarch-gate", 1, "20min"),
				subtask("deployment", "Deployment",
					"Deploy the build to the target environment",
					"bmad:dev", "dev-story", 2, "30min", "release_check"),
				subtask("smoke_test", "Smoke Test",
					"Smoke test the deployed feature",
					"bmad:tea", "testarch-framework", 3, "15min", "deployment"),
			},
		},
		{
			Category: "document",
			Name:     "Documentation",
			Subtasks: []models.TaskDescriptor{
				subtask("doc_outline", "Outline",
					"Outline the documentation for the feature",
					"bmad:analyst", "brainstorm-project", 1, "20min"),
				subtask("doc_writing", "Writing",
					"Write the documentation",
					"bmad:po", "prd", 2, "45min", "doc_outline"),
				subtask("doc_review", "Review",
					"Review the documentation for accuracy",
					"bmad:tea", "review-story", 3, "15min", "doc_writing"),
			},
		},
		{
			Category: "analyze",
			Name:     "Analysis",
			Subtasks: []models.TaskDescriptor{
				subtask("research", "Research",
					"Research the problem space",
					"bmad:analyst", "research", 1, "45min"),
				subtask("feasibility", "Feasibility",
					"Assess technical feasibility and risk",
					"bmad:architect", "solution-architecture", 2, "30min", "research"),
				subtask("analysis_report", "Analysis Report",
					"Summarize the findings",
					"bmad:analyst", "brainstorm-project", 3, "20min", "feasibility"),
			},
		},
		{
			Category: "review",
			Name:     "Code Review",
			Subtasks: []models.TaskDescriptor{
				subtask("review_scope", "Review Scope",
					"Identify the changes to review",
					"bmad:architect", "solution-architecture", 1, "15min"),
				subtask("code_review", "Code Review",
					"Review the changes",
					"bmad:tea", "review-story", 2, "45min", "review_scope"),
				subtask("quality_gate", "Quality Gate",
					"Decide whether the changes pass the quality gate",
					"bmad:tea", "testarch-gate", 3, "20min", "code_review"),
			},
		},
	}
}
