package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadFixturesSequenceOrder(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "classifier.2.json", `{"confidence":0.2}`)
	writeFixture(t, dir, "classifier.1.json", `{"confidence":0.1}`)
	writeFixture(t, dir, "classifier.json", `{"confidence":0.9}`)
	writeFixture(t, dir, "other.json", `{"confidence":0.5}`)

	fixtures, err := loadFixtures(dir)
	require.NoError(t, err)

	require.Len(t, fixtures["classifier"], 3)
	assert.Equal(t, `{"confidence":0.1}`, fixtures["classifier"][0])
	assert.Equal(t, `{"confidence":0.2}`, fixtures["classifier"][1])
	assert.Equal(t, `{"confidence":0.9}`, fixtures["classifier"][2])
	assert.Len(t, fixtures["other"], 1)
}

func TestLoadFixturesRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "classifier.json", `{not json`)

	_, err := loadFixtures(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestLoadFixturesEmptyDir(t *testing.T) {
	_, err := loadFixtures(t.TempDir())
	require.Error(t, err)
}

func completionContent(t *testing.T, s *server, model string) (string, int) {
	t.Helper()
	body, err := json.Marshal(chatRequest{Model: model})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleChatCompletions(rec, req)

	if rec.Code != http.StatusOK {
		return "", rec.Code
	}
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Choices, 1)
	return resp.Choices[0].Message.Content, rec.Code
}

func TestChatCompletionsWalksSequenceThenRepeats(t *testing.T) {
	s := newServer(map[string][]string{
		"classifier": {`{"confidence":0.1}`, `{"confidence":0.9}`},
	})

	first, code := completionContent(t, s, "classifier")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, `{"confidence":0.1}`, first)

	second, _ := completionContent(t, s, "classifier")
	assert.Equal(t, `{"confidence":0.9}`, second)

	// Exhausted sequences repeat the last entry.
	third, _ := completionContent(t, s, "classifier")
	assert.Equal(t, `{"confidence":0.9}`, third)
}

func TestChatCompletionsUnknownModel(t *testing.T) {
	s := newServer(map[string][]string{"classifier": {`{}`}})

	_, code := completionContent(t, s, "missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestChatCompletionsRejectsGet(t *testing.T) {
	s := newServer(map[string][]string{"classifier": {`{}`}})

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/completions", nil)
	rec := httptest.NewRecorder()
	s.handleChatCompletions(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatsCountsCalls(t *testing.T) {
	s := newServer(map[string][]string{
		"classifier": {`{}`},
		"tagger":     {`{}`},
	})
	completionContent(t, s, "classifier")
	completionContent(t, s, "classifier")
	completionContent(t, s, "tagger")

	rec := httptest.NewRecorder()
	s.handleStats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	var stats struct {
		TotalCalls   int            `json:"total_calls"`
		CallsByModel map[string]int `json:"calls_by_model"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalCalls)
	assert.Equal(t, 2, stats.CallsByModel["classifier"])
	assert.Equal(t, 1, stats.CallsByModel["tagger"])
}

func TestModelsListSorted(t *testing.T) {
	s := newServer(map[string][]string{"tagger": {`{}`}, "classifier": {`{}`}})

	rec := httptest.NewRecorder()
	s.handleModels(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)
	assert.Equal(t, "classifier", list.Data[0].ID)
	assert.Equal(t, "tagger", list.Data[1].ID)
}
