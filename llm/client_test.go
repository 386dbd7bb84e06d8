package llm_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complymap/complymap/llm"
	_ "github.com/complymap/complymap/llm/providers"
	"github.com/complymap/complymap/model"
)

const chatResponse = `{
	"model": "test-model",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"domains\": [\"cryptography\"]}"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func registryFor(url string) *model.Registry {
	return model.NewRegistry(
		map[model.Capability]*model.CapabilityConfig{
			model.CapabilityClassification: {Preferred: []string{"local"}},
		},
		map[string]*model.EndpointConfig{
			"local": {Provider: "ollama", URL: url, Model: "test-model"},
		},
	)
}

func fastRetry() llm.RetryConfig {
	return llm.RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 1.0,
		MaxBackoff:        time.Millisecond,
	}
}

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(chatResponse))
	}))
	defer srv.Close()

	client := llm.NewClient(registryFor(srv.URL))
	resp, err := client.Complete(context.Background(), llm.Request{
		Capability: "classification",
		Messages:   []llm.Message{{Role: "user", Content: "classify this"}},
	})

	require.NoError(t, err)
	assert.Contains(t, resp.Content, "cryptography")
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestCompleteRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chatResponse))
	}))
	defer srv.Close()

	client := llm.NewClient(registryFor(srv.URL), llm.WithRetryConfig(fastRetry()))
	_, err := client.Complete(context.Background(), llm.Request{
		Capability: "classification",
		Messages:   []llm.Message{{Role: "user", Content: "classify"}},
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteFatalErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := llm.NewClient(registryFor(srv.URL), llm.WithRetryConfig(fastRetry()))
	_, err := client.Complete(context.Background(), llm.Request{
		Capability: "classification",
		Messages:   []llm.Message{{Role: "user", Content: "classify"}},
	})

	require.Error(t, err)
	assert.True(t, llm.IsFatal(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteValidatesRequest(t *testing.T) {
	client := llm.NewClient(model.NewDefaultRegistry())

	_, err := client.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorContains(t, err, "capability")

	_, err = client.Complete(context.Background(), llm.Request{Capability: "classification"})
	assert.ErrorContains(t, err, "message")
}

func TestCompleteContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retry := fastRetry()
	retry.BackoffBase = time.Second
	retry.MaxBackoff = time.Second

	client := llm.NewClient(registryFor(srv.URL), llm.WithRetryConfig(retry))
	_, err := client.Complete(ctx, llm.Request{
		Capability: "classification",
		Messages:   []llm.Message{{Role: "user", Content: "classify"}},
	})

	require.Error(t, err)
}

func TestTransientAndFatalClassification(t *testing.T) {
	transient := llm.NewTransientError(assert.AnError)
	fatal := llm.NewFatalError(assert.AnError)

	assert.True(t, llm.IsTransient(transient))
	assert.False(t, llm.IsFatal(transient))
	assert.True(t, llm.IsFatal(fatal))
	assert.False(t, llm.IsTransient(fatal))
}
