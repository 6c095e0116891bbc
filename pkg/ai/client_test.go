package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "prompt", req.Contents[0].Parts[0].Text)

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"quota"}`))
			return
		}
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestGenerateJSON(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "```json\n{\"sentiment\":\"negative\",\"confidence\":0.9}\n```")
	defer srv.Close()

	client, err := NewClient(context.Background(), Options{BaseURL: srv.URL + "/", Model: "test-model", APIKey: "secret"})
	require.NoError(t, err)

	var out struct {
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
	}
	require.NoError(t, client.GenerateJSON(context.Background(), "prompt", &out))
	assert.Equal(t, "negative", out.Sentiment)
	assert.InDelta(t, 0.9, out.Confidence, 0.0001)
}

func TestGenerateStatusError(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	client, err := NewClient(context.Background(), Options{BaseURL: srv.URL, Model: "test-model", APIKey: "secret"})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, statusErr.RateLimited())
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "  ")
	defer srv.Close()

	client, err := NewClient(context.Background(), Options{BaseURL: srv.URL, Model: "test-model", APIKey: "secret"})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateHonoursContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), Options{BaseURL: srv.URL, Model: "m", APIKey: "k"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Generate(ctx, "prompt")
	assert.Error(t, err)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Options{BaseURL: "http://x", Model: "m"})
	assert.Error(t, err)
}
