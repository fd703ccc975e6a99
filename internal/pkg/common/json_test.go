package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "plain object unchanged",
			content:  `{"name":"Cola"}`,
			expected: `{"name":"Cola"}`,
		},
		{
			name:     "json fence stripped",
			content:  "```json\n{\"name\":\"Cola\"}\n```",
			expected: `{"name":"Cola"}`,
		},
		{
			name:     "bare fence stripped",
			content:  "```\n{\"name\":\"Cola\"}\n```",
			expected: `{"name":"Cola"}`,
		},
		{
			name:     "surrounding prose removed",
			content:  `Here you go: {"name":"Cola"} hope it helps`,
			expected: `{"name":"Cola"}`,
		},
		{
			name:     "nested braces kept intact",
			content:  `{"nutrition":{"energy":"540 kcal"}}`,
			expected: `{"nutrition":{"energy":"540 kcal"}}`,
		},
		{
			name:     "no object returns trimmed input",
			content:  "  no json here  ",
			expected: "no json here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONObject(tt.content))
		})
	}
}

func TestParseJSON(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	t.Run("valid object", func(t *testing.T) {
		var p payload
		err := ParseJSON(`{"name":"Cola","count":2}`, &p)

		require.NoError(t, err)
		assert.Equal(t, "Cola", p.Name)
		assert.Equal(t, 2, p.Count)
	})

	t.Run("trailing data rejected", func(t *testing.T) {
		var p payload
		err := ParseJSON(`{"name":"Cola"}{"name":"Pepsi"}`, &p)

		assert.Error(t, err)
	})

	t.Run("unknown fields tolerated by default", func(t *testing.T) {
		var p payload
		err := ParseJSON(`{"name":"Cola","extra":true}`, &p)

		assert.NoError(t, err)
	})

	t.Run("strict mode rejects unknown fields", func(t *testing.T) {
		var p payload
		err := ParseJSONStrict(`{"name":"Cola","extra":true}`, &p)

		assert.Error(t, err)
	})
}

func TestQuoteJSONKeys(t *testing.T) {
	assert.Equal(t, `{"name":"Cola","count":2}`, QuoteJSONKeys(`{name:"Cola",count:2}`))
	assert.Equal(t, `{"name":"Cola"}`, QuoteJSONKeys(`{"name":"Cola"}`))
}
