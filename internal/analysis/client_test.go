package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func narrativeResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": text},
					},
				},
			},
		},
	}
}

func newTestClient(t *testing.T, serverURL string) *NarrativeClient {
	t.Helper()
	client, err := NewNarrativeClient("test-key", serverURL)
	require.NoError(t, err)
	client.retryDelay = time.Millisecond
	return client
}

func TestNewNarrativeClient_RequiresKey(t *testing.T) {
	_, err := NewNarrativeClient("", "")
	assert.Error(t, err)
}

func TestNarrativeClient_Summarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		require.Len(t, body.Contents[0].Parts, 1)
		assert.Contains(t, body.Contents[0].Parts[0].Text, "controller recommendations")

		_ = json.NewEncoder(w).Encode(narrativeResponse("Hold T2 until the block clears."))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.Summarize(context.Background(), "Provide brief controller recommendations.")
	require.NoError(t, err)
	assert.Equal(t, "Hold T2 until the block clears.", text)
}

func TestNarrativeClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(narrativeResponse("recovered"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.Summarize(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNarrativeClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Summarize(context.Background(), "prompt")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNarrativeClient_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Summarize(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load()) // initial try + 3 retries
}

func TestNarrativeClient_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Summarize(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestNarrativeClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(narrativeResponse("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	client := newTestClient(t, server.URL)
	_, err := client.Summarize(ctx, "prompt")
	assert.Error(t, err)
}
