package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gw, err := NewGateway(GatewayConfig{BaseURL: srv.URL, APIKey: "test-key", Timeout: 5 * time.Second})
	require.NoError(t, err)

	return gw
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func prompt() []ChatMessage {
	return BuildPrompt(holmes, nil, "Hello")
}

func TestNewGatewayRequiresKey(t *testing.T) {
	_, err := NewGateway(GatewayConfig{BaseURL: "http://localhost", APIKey: "  "})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCompleteSendsRequest(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req completionRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, "llama3-8b-8192", req.Model)
		assert.Equal(t, 0.7, req.Temperature)
		assert.Equal(t, 200, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)

		writeJSON(t, w, http.StatusOK, map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  It is elementary.\n"}},
			},
		})
	})

	reply, err := gw.Complete(context.Background(), prompt(), "llama3-8b-8192", 0.7, 200)
	require.NoError(t, err)
	assert.Equal(t, "It is elementary.", reply)
}

func TestCompleteNoChoicesFallsBack(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"choices": []any{}})
	})

	reply, err := gw.Complete(context.Background(), prompt(), "m", 0.7, 200)
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply)
}

func TestCompleteWhitespaceReplyIsEmpty(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "   "}}},
		})
	})

	reply, err := gw.Complete(context.Background(), prompt(), "m", 0.7, 200)
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestCompleteClassifiesStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		header   map[string]string
		kind     ErrorKind
		message  string
		retryFor time.Duration
	}{
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"message":"slow down"}}`,
			header:   map[string]string{"Retry-After": "7"},
			kind:     KindRateLimited,
			message:  "slow down",
			retryFor: 7 * time.Second,
		},
		{
			name:    "bad key",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"Invalid API Key"}}`,
			kind:    KindAuthentication,
			message: "Invalid API Key",
		},
		{
			name:    "model missing",
			status:  http.StatusNotFound,
			body:    `{"error":{"message":"model not found"}}`,
			kind:    KindAPI,
			message: "model not found",
		},
		{
			name:    "plain text failure",
			status:  http.StatusBadGateway,
			body:    "upstream down",
			kind:    KindAPI,
			message: "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := gw.Complete(context.Background(), prompt(), "m", 0.7, 200)
			require.Error(t, err)

			var gwErr *GatewayError
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, tt.kind, gwErr.Kind)
			assert.Equal(t, tt.status, gwErr.StatusCode)
			assert.Equal(t, tt.message, gwErr.Message)
			assert.Equal(t, tt.retryFor, gwErr.RetryAfter)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestCompleteConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	gw, err := NewGateway(GatewayConfig{BaseURL: url, APIKey: "k", Timeout: time.Second})
	require.NoError(t, err)

	_, err = gw.Complete(context.Background(), prompt(), "m", 0.7, 200)
	assert.Equal(t, KindConnection, KindOf(err))
}

func TestCompleteMalformedBody(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{not json"))
	})

	_, err := gw.Complete(context.Background(), prompt(), "m", 0.7, 200)
	assert.Equal(t, KindUnexpected, KindOf(err))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, 3*time.Second, ParseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)))
}
