package semantic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complymap/complymap/config"
	"github.com/complymap/complymap/llm"
	"github.com/complymap/complymap/llm/testutil"
	vocab "github.com/complymap/complymap/vocabulary/compliance"
)

func modelClassifier(mock *testutil.MockClient, timeout time.Duration) *ModelClassifier {
	fallback := NewRulesClassifier(DefaultRuleSet(), 0.2, nil)
	return NewModelClassifier(mock, fallback, config.ClassifierConfig{
		Backend:       "model",
		ModelTimeout:  timeout,
		MinConfidence: 0.2,
	}, nil)
}

func TestModelClassifyParsesAnswer(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{{
			Content: "```json\n" + `{"domains": ["authentication", "audit-logging"], "technologies": ["bcrypt"], "keywords": ["password"], "confidence": 0.85}` + "\n```",
			Model:   "test-model",
		}},
	}

	c := modelClassifier(mock, time.Second)
	result, err := c.Classify(context.Background(), bcryptArtifact(), bcryptPatterns())

	require.NoError(t, err)
	assert.Equal(t, []vocab.Domain{vocab.DomainAuthentication, vocab.DomainAuditLogging}, result.Domains)
	assert.InDelta(t, 0.85, result.Confidence, 0.001)
	require.NotEmpty(t, result.Tags)
	assert.Equal(t, SourceModel, result.Tags[0].Source)
}

func TestModelClassifyDropsUnknownDomains(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{{
			Content: `{"domains": ["authentication", "blockchain"], "confidence": 0.7}`,
			Model:   "test-model",
		}},
	}

	c := modelClassifier(mock, time.Second)
	result, err := c.Classify(context.Background(), bcryptArtifact(), nil)

	require.NoError(t, err)
	assert.Equal(t, []vocab.Domain{vocab.DomainAuthentication}, result.Domains)
}

func TestModelClassifyFallsBackOnTimeout(t *testing.T) {
	mock := &testutil.MockClient{
		Delay: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	c := modelClassifier(mock, 10*time.Millisecond)
	result, err := c.Classify(context.Background(), bcryptArtifact(), bcryptPatterns())

	// The deterministic backend answers instead.
	require.NoError(t, err)
	require.NotEmpty(t, result.Tags)
	assert.NotEqual(t, SourceModel, result.Tags[0].Source)
}

func TestModelClassifyFallsBackOnError(t *testing.T) {
	mock := &testutil.MockClient{Err: errors.New("connection refused")}

	c := modelClassifier(mock, time.Second)
	result, err := c.Classify(context.Background(), bcryptArtifact(), bcryptPatterns())

	require.NoError(t, err)
	assert.Equal(t, vocab.DomainAuthentication, result.Domains[0])
}

func TestModelClassifyFallsBackOnGarbage(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{{Content: "I cannot classify this.", Model: "test-model"}},
	}

	c := modelClassifier(mock, time.Second)
	result, err := c.Classify(context.Background(), bcryptArtifact(), bcryptPatterns())

	require.NoError(t, err)
	require.NotEmpty(t, result.Domains)
}

func TestClassifierTimeoutError(t *testing.T) {
	err := &ClassifierTimeoutError{
		Backend: "model",
		Timeout: 5 * time.Second,
		Err:     context.DeadlineExceeded,
	}

	assert.True(t, IsClassifierTimeout(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "model")
}

func TestNewClassifierSelectsBackend(t *testing.T) {
	rules, err := NewClassifier(config.ClassifierConfig{Backend: "rules"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &RulesClassifier{}, rules)

	modelBacked, err := NewClassifier(config.ClassifierConfig{Backend: "model"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ModelClassifier{}, modelBacked)

	_, err = NewClassifier(config.ClassifierConfig{Backend: "psychic"}, nil)
	assert.Error(t, err)
}
