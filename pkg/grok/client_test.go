package grok_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grokparty/grokparty/pkg/grok"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *grok.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := grok.NewClient("test-key", grok.WithBaseURL(srv.URL))
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := grok.NewClient("   ")
	var authErr *grok.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestCompleteSendsChatRequest(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello from grok"}}]}`))
	})

	got, err := client.Complete(context.Background(), grok.CompletionRequest{
		Model:        "grok-3",
		SystemPrompt: "be terse",
		Prompt:       "say hi",
		Temperature:  0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from grok", got)

	assert.Equal(t, "grok-3", captured.Model)
	assert.False(t, captured.Stream)
	assert.InDelta(t, 0.8, captured.Temperature, 1e-9)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "be terse", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
}

func TestCompleteOmitsSystemMessageWhenEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := client.Complete(context.Background(), grok.CompletionRequest{
		Model:  "grok-3",
		Prompt: "who speaks next?",
	})
	require.NoError(t, err)
}

func TestCompleteErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		header http.Header
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"invalid api key"}}`,
			check: func(t *testing.T, err error) {
				var authErr *grok.AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Contains(t, authErr.Message, "invalid api key")
				assert.True(t, grok.IsFatal(err))
			},
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"slow down"}}`,
			header: http.Header{"Retry-After": []string{"2"}},
			check: func(t *testing.T, err error) {
				var rateErr *grok.RateLimitError
				require.ErrorAs(t, err, &rateErr)
				assert.Equal(t, "2s", rateErr.RetryAfter.String())
				assert.True(t, grok.IsTransient(err))
			},
		},
		{
			name:   "unknown model",
			status: http.StatusNotFound,
			body:   `{"error":{"message":"no such model"}}`,
			check: func(t *testing.T, err error) {
				var modelErr *grok.InvalidModelError
				require.ErrorAs(t, err, &modelErr)
				assert.Equal(t, "grok-99", modelErr.Model)
				assert.True(t, grok.IsFatal(err))
			},
		},
		{
			name:   "bad request naming the model",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"The model grok-99 does not exist"}}`,
			check: func(t *testing.T, err error) {
				var modelErr *grok.InvalidModelError
				assert.ErrorAs(t, err, &modelErr)
			},
		},
		{
			name:   "server error is transient",
			status: http.StatusBadGateway,
			body:   `upstream exploded`,
			check: func(t *testing.T, err error) {
				var netErr *grok.NetworkError
				require.ErrorAs(t, err, &netErr)
				assert.True(t, grok.IsTransient(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, vs := range tt.header {
					for _, v := range vs {
						w.Header().Set(k, v)
					}
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), grok.CompletionRequest{
				Model:  "grok-99",
				Prompt: "hello",
			})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestCompleteConnectionRefusedIsNetworkError(t *testing.T) {
	client, err := grok.NewClient("test-key", grok.WithBaseURL("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), grok.CompletionRequest{
		Model:  "grok-3",
		Prompt: "anyone there?",
	})
	var netErr *grok.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestListModels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"grok-4"},{"id":"grok-3"}]}`))
	})

	ids, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"grok-4", "grok-3"}, ids)
}

func TestKnownModel(t *testing.T) {
	assert.True(t, grok.KnownModel("grok-4"))
	assert.False(t, grok.KnownModel("gpt-4"))
	assert.NotEmpty(t, grok.Models())
}
