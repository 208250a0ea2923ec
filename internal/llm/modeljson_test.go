package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recipesEnvelope struct {
	Recipes []struct {
		Name string `json:"name"`
	} `json:"recipes"`
}

func TestParseModelJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "fenced block",
			input: "Here you go:\n```json\n{\"recipes\": [{\"name\": \"Nasi Goreng\"}]}\n```\nEnjoy!",
			want:  []string{"Nasi Goreng"},
		},
		{
			name:  "fence without language",
			input: "```\n{\"recipes\": [{\"name\": \"Soto\"}]}\n```",
			want:  []string{"Soto"},
		},
		{
			name:  "bare object in prose",
			input: "Sure! {\"recipes\": [{\"name\": \"Rendang\"}]} Let me know.",
			want:  []string{"Rendang"},
		},
		{
			name:  "braces inside strings",
			input: `{"recipes": [{"name": "Sambal {extra} hot"}]} trailing {junk}`,
			want:  []string{"Sambal {extra} hot"},
		},
		{
			name:  "trailing commas",
			input: "```json\n{\"recipes\": [{\"name\": \"Gado-gado\",},],}\n```",
			want:  []string{"Gado-gado"},
		},
		{
			name: "comments",
			input: "```json\n{\n  // best seller\n  \"recipes\": [ /* one */ {\"name\": \"Sate\"}]\n}\n```",
			want: []string{"Sate"},
		},
		{
			name:  "url in string is not a comment",
			input: `{"recipes": [{"name": "http://example.com/a"}]}`,
			want:  []string{"http://example.com/a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env recipesEnvelope
			require.NoError(t, ParseModelJSON(tt.input, &env))
			var names []string
			for _, r := range env.Recipes {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestParseModelJSONFailures(t *testing.T) {
	t.Run("no json", func(t *testing.T) {
		var env recipesEnvelope
		err := ParseModelJSON("I cannot help with that.", &env)
		assert.ErrorIs(t, err, ErrNoJSON)
	})

	t.Run("unbalanced", func(t *testing.T) {
		var env recipesEnvelope
		err := ParseModelJSON(`{"recipes": [`, &env)
		assert.ErrorIs(t, err, ErrNoJSON)
	})

	t.Run("malformed", func(t *testing.T) {
		var env recipesEnvelope
		err := ParseModelJSON("```json\n{recipes: nope}\n```", &env)
		assert.ErrorIs(t, err, ErrMalformedJSON)
	})

	t.Run("wrong shape", func(t *testing.T) {
		var env recipesEnvelope
		err := ParseModelJSON(`{"recipes": "none"}`, &env)
		assert.ErrorIs(t, err, ErrMalformedJSON)
	})
}
