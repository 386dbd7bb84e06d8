package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONFromCodeBlock(t *testing.T) {
	content := "Here is the classification:\n```json\n{\"domains\": [\"authentication\"]}\n```\nDone."

	extracted := ExtractJSON(content)
	require.NotEmpty(t, extracted)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(extracted), &parsed))
	assert.Contains(t, parsed, "domains")
}

func TestExtractJSONBareObject(t *testing.T) {
	extracted := ExtractJSON(`The answer is {"confidence": 0.8} as requested.`)

	var parsed map[string]float64
	require.NoError(t, json.Unmarshal([]byte(extracted), &parsed))
	assert.InDelta(t, 0.8, parsed["confidence"], 0.001)
}

func TestExtractJSONStripsTrailingCommas(t *testing.T) {
	extracted := ExtractJSON(`{"tags": ["mfa", "sso",], "confidence": 0.7,}`)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(extracted), &parsed))
}

func TestExtractJSONStripsComments(t *testing.T) {
	content := `{
	"domains": ["cryptography"], // detected from imports
	"url": "https://example.com/policy"
}`

	extracted := ExtractJSON(content)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(extracted), &parsed))
	assert.Equal(t, "https://example.com/policy", parsed["url"])
}

func TestExtractJSONNoObject(t *testing.T) {
	assert.Empty(t, ExtractJSON("no structured output here"))
}

func TestExtractJSONArray(t *testing.T) {
	extracted := ExtractJSONArray("```json\n[\"ac-2\", \"ia-5\"]\n```")

	var parsed []string
	require.NoError(t, json.Unmarshal([]byte(extracted), &parsed))
	assert.Equal(t, []string{"ac-2", "ia-5"}, parsed)
}
