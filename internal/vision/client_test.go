// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pagemill/pkg/types"
)

// completionResponse is the minimal chat-completions payload the SDK needs.
func completionResponse(content string) map[string]any {
	return map[string]any{
		"id":      "cmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "test-vl",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func testClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c := NewOpenAIClient(types.VisionConfig{
		Model:      "test-vl",
		BaseURL:    ts.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	})
	c.retryDelay = time.Millisecond
	return c
}

func TestTranscribePage_ReturnsCleanedMarkdown(t *testing.T) {
	var gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("```markdown\n# Page One\n```"))
	})

	out, err := c.TranscribePage(context.Background(), []byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)
	assert.Equal(t, "# Page One", out)
	assert.Contains(t, gotPath, "chat/completions")
}

func TestTranscribePage_RemoteErrorOnServerFailure(t *testing.T) {
	var calls int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusInternalServerError)
	})

	_, err := c.TranscribePage(context.Background(), []byte("png"))
	require.Error(t, err)

	var remote *types.RemoteError
	require.True(t, errors.As(err, &remote), "want *types.RemoteError, got %T", err)
	assert.Equal(t, "transcribe", remote.Op)
}

func TestTranscribePage_RetriesBeforeSucceeding(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("# Recovered"))
	}))
	t.Cleanup(ts.Close)

	c := NewOpenAIClient(types.VisionConfig{
		Model:      "test-vl",
		BaseURL:    ts.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 3,
	})
	c.retryDelay = time.Millisecond

	out, err := c.TranscribePage(context.Background(), []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "# Recovered", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCaptionImage_TrimsWhitespace(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("  A bar chart of quarterly revenue.\n"))
	})

	out, err := c.CaptionImage(context.Background(), []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "A bar chart of quarterly revenue.", out)
}

func TestCaptionImage_RemoteErrorCarriesOp(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	_, err := c.CaptionImage(context.Background(), []byte("png"))
	require.Error(t, err)

	var remote *types.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "caption", remote.Op)
	assert.True(t, strings.Contains(remote.Error(), "caption"))
}
