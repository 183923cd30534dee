package conversation

import (
	"strings"
	"testing"

	"chemsafe-go/internal/model"
	"chemsafe-go/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turns(roles ...string) []model.ChatTurn {
	out := make([]model.ChatTurn, len(roles))
	for i, r := range roles {
		out[i] = model.ChatTurn{Role: r, Content: r + "-" + string(rune('a'+i))}
	}
	return out
}

func roles(msgs []llm.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}

func TestSanitizeHistory(t *testing.T) {
	tests := []struct {
		name  string
		input []model.ChatTurn
		want  []string
	}{
		{
			name:  "consecutive duplicates and trailing user",
			input: turns("user", "user", "model", "model", "user"),
			want:  []string{"user", "model"},
		},
		{
			name:  "leading model dropped",
			input: turns("model", "user", "model"),
			want:  []string{"user", "model"},
		},
		{
			name:  "empty",
			input: nil,
			want:  []string{},
		},
		{
			name:  "only user",
			input: turns("user"),
			want:  []string{},
		},
		{
			name:  "only model",
			input: turns("model", "model"),
			want:  []string{},
		},
		{
			name:  "assistant is model",
			input: turns("user", "assistant", "user", "Assistant"),
			want:  []string{"user", "model", "user", "model"},
		},
		{
			name:  "unknown role dropped",
			input: turns("system", "user", "tool", "model"),
			want:  []string{"user", "model"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roles(SanitizeHistory(tt.input)))
		})
	}
}

func TestSanitizeHistory_KeepsFirstOfDuplicates(t *testing.T) {
	got := SanitizeHistory(turns("user", "user", "model"))
	require.Len(t, got, 2)
	assert.Equal(t, "user-a", got[0].Content)
	assert.Equal(t, "model-c", got[1].Content)
}

func TestSanitizeHistory_Invariants(t *testing.T) {
	inputs := [][]model.ChatTurn{
		turns("model", "model", "user", "user", "model", "user", "model", "model", "user"),
		turns("user", "model", "user", "model"),
		turns("assistant", "user", "assistant", "assistant", "user", "user"),
	}
	for _, in := range inputs {
		got := SanitizeHistory(in)
		if len(got) == 0 {
			continue
		}
		assert.Equal(t, model.RoleUser, got[0].Role)
		assert.NotEqual(t, model.RoleUser, got[len(got)-1].Role)
		for i := 1; i < len(got); i++ {
			assert.NotEqual(t, got[i-1].Role, got[i].Role)
		}
	}
}

func TestSanitizeHistory_PartsAndEmptyText(t *testing.T) {
	in := []model.ChatTurn{
		{Role: "user", Parts: []model.TextPart{{Text: "Aseton "}, {Text: "yanıcı mı?"}}},
		{Role: "model", Content: "   "},
		{Role: "model", Parts: []model.TextPart{{Text: "Evet."}}},
	}
	got := SanitizeHistory(in)
	require.Len(t, got, 2)
	assert.Equal(t, llm.Message{Role: "user", Content: "Aseton yanıcı mı?"}, got[0])
	assert.Equal(t, llm.Message{Role: "model", Content: "Evet."}, got[1])
}

func TestComposePrompt(t *testing.T) {
	system := SystemPrompt("English")

	first := ComposePrompt(nil, "Is acetone flammable?", system)
	assert.True(t, strings.HasPrefix(first, system))
	assert.True(t, strings.HasSuffix(first, "\n\nUser Question: Is acetone flammable?"))

	history := []llm.Message{{Role: "user", Content: "hi"}, {Role: "model", Content: "hello"}}
	assert.Equal(t, "Is acetone flammable?", ComposePrompt(history, "Is acetone flammable?", system))
}

func TestSystemPrompt(t *testing.T) {
	en := SystemPrompt("English")
	assert.Contains(t, en, "Respond in English.")
	assert.Contains(t, en, "**Related Questions:**")

	tr := SystemPrompt("")
	assert.Contains(t, tr, "Respond in Turkish.")
	assert.Contains(t, tr, "**İlgili Sorular:**")

	assert.Equal(t, "İlgili Sorular", HeadingFor("German"))
	assert.Equal(t, "Related Questions", HeadingFor(" english "))
}
