package decompose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		name  string
		goal  string
		typ   string
		value string
	}{
		{"chinese component", "添加一个搜索栏组件", EntityComponent, "搜索栏"},
		{"chinese feature", "实现评论功能", EntityFeature, "评论"},
		{"chinese support", "支持多语言，并优化", EntityFeature, "多语言"},
		{"chinese page", "创建关于页面", EntityPage, "关于"},
		{"english component", "Create a Search Bar component", EntityComponent, "search bar"},
		{"english feature", "Add a dark mode toggle feature!", EntityFeature, "dark mode toggle"},
		{"english page", "add the pricing page", EntityPage, "pricing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ExtractEntities(tt.goal)
			got, ok := e.First(tt.typ)
			require.True(t, ok, "no %s entity in %+v", tt.typ, e.Items)
			assert.Equal(t, tt.value, got.Value)
		})
	}
}

func TestExtractModifiersAndTerms(t *testing.T) {
	e := ExtractEntities("添加暗黑模式功能，支持记住用户偏好并持久化到本地")

	var mods []string
	for _, it := range e.Items {
		if it.Type == EntityModifier {
			mods = append(mods, it.Value)
		}
	}
	assert.Equal(t, []string{"记住", "持久化", "本地"}, mods)

	require.NotEmpty(t, e.Terms)
	assert.Equal(t, "暗黑模式", e.Terms[0].Term)
	assert.Equal(t, "feature", e.Terms[0].Category)
}

func TestExtractNothing(t *testing.T) {
	e := ExtractEntities("")
	assert.Empty(t, e.Items)
	assert.Empty(t, e.Terms)
	assert.Equal(t, "Create the required component", e.Substitute("Create the required component"))
}

func TestSubstitute(t *testing.T) {
	e := Entities{Items: []Entity{
		{Type: EntityComponent, Value: "navbar"},
		{Type: EntityFeature, Value: "search"},
	}}

	assert.Equal(t, "Create the required navbar component", e.Substitute("Create the required component"))
	assert.Equal(t, "Verify the search feature and the feature docs", e.Substitute("Verify the feature and the feature docs"))
	assert.Equal(t, "创建navbar组件", e.Substitute("创建组件"))
	assert.Equal(t, "No placeholder", e.Substitute("No placeholder"))
}
